package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "rfq-workers/internal/common/errors"
	"rfq-workers/internal/common/logger"
	"rfq-workers/internal/models"
	"rfq-workers/internal/orchestrator"
)

func setupMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func sampleEntry() *Entry {
	return &Entry{
		Document: models.Wrap(&models.RFQ{ProjectTitle: "Villa Repaint", BudgetRange: "AED 10,000"}),
		Verdict:  &models.AuditVerdict{Passed: true, Issues: []string{}},
		Audited:  true,
	}
}

func TestKey(t *testing.T) {
	h := models.History{{Question: "What?", Answer: "Kitchen"}}
	k := Key(models.KindRFQ, "residential", "o4-mini", h)

	assert.Regexp(t, `^rfq:doc:rfq:[0-9a-f]{64}$`, k)
	assert.Equal(t, k, Key(models.KindRFQ, "residential", "o4-mini", h))
	assert.NotEqual(t, k, Key(models.KindRFQ, "commercial", "o4-mini", h))
	assert.NotEqual(t, k, Key(models.KindRFQ, "residential", "gpt-4o", h))
	assert.NotEqual(t, k, Key(models.KindRFQ, "residential", "o4-mini", h.Append(models.Turn{Question: "When?", Answer: "June"})))
}

func TestDocumentCache_RoundTrip(t *testing.T) {
	mr, client := setupMiniredis(t)
	c := New(client, time.Hour, logger.NewTestLogger(t))
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "rfq:doc:rfq:abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "rfq:doc:rfq:abc", sampleEntry()))
	assert.True(t, mr.Exists("rfq:doc:rfq:abc"))
	assert.Equal(t, time.Hour, mr.TTL("rfq:doc:rfq:abc"))

	got, ok, err := c.Get(ctx, "rfq:doc:rfq:abc")
	require.NoError(t, err)
	require.True(t, ok)
	doc, err := got.Document.Document()
	require.NoError(t, err)
	assert.Equal(t, "Villa Repaint", doc.Title())
	assert.True(t, got.Audited)
	assert.False(t, got.CachedAt.IsZero())

	mr.FastForward(2 * time.Hour)
	_, ok, err = c.Get(ctx, "rfq:doc:rfq:abc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDocumentCache_CorruptEntryIsMiss(t *testing.T) {
	mr, client := setupMiniredis(t)
	c := New(client, time.Hour, logger.NewTestLogger(t))

	require.NoError(t, mr.Set("rfq:doc:rfq:bad", "{not json"))
	_, ok, err := c.Get(context.Background(), "rfq:doc:rfq:bad")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists("rfq:doc:rfq:bad"))

	require.NoError(t, mr.Set("rfq:doc:rfq:nokind", `{"document":{"kind":"invoice"}}`))
	_, ok, err = c.Get(context.Background(), "rfq:doc:rfq:nokind")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDocumentCache_Invalidate(t *testing.T) {
	mr, client := setupMiniredis(t)
	c := New(client, time.Minute, logger.NewTestLogger(t))

	require.NoError(t, c.Put(context.Background(), "k", sampleEntry()))
	require.NoError(t, c.Invalidate(context.Background(), "k"))
	assert.False(t, mr.Exists("k"))
}

func TestDocumentCache_RedisErrors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := New(client, time.Minute, logger.NewNoOpLogger())

	mock.ExpectGet("k").SetErr(errors.New("connection refused"))
	_, ok, err := c.Get(context.Background(), "k")
	assert.False(t, ok)
	assert.Equal(t, apperrors.ErrCodeCacheFailed, apperrors.CodeOf(err))

	mock.Regexp().ExpectSet("k", `.*`, time.Minute).SetErr(errors.New("READONLY"))
	err = c.Put(context.Background(), "k", sampleEntry())
	assert.Equal(t, apperrors.ErrCodeCacheFailed, apperrors.CodeOf(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

type countingEngine struct {
	result *orchestrator.AuditedResult
	calls  int
}

func (e *countingEngine) GenerateAudited(context.Context, models.History, models.Category, models.Credentials) (*orchestrator.AuditedResult, error) {
	e.calls++
	return e.result, nil
}

func (e *countingEngine) ResolveCredentials(creds models.Credentials) (models.Credentials, error) {
	if creds.APIKey == "" {
		return creds, apperrors.NewNoCredentialError()
	}
	return creds, nil
}

func TestAuditedGenerator_CachesCompletedAudits(t *testing.T) {
	history := models.History{{Question: "Budget?", Answer: "AED 10,000"}}
	creds := models.Credentials{APIKey: "sk", Model: "o4-mini"}

	tests := []struct {
		name   string
		result *orchestrator.AuditedResult
		cached bool
	}{
		{"passed", &orchestrator.AuditedResult{Document: &models.RFQ{ProjectTitle: "A"}, Verdict: &models.AuditVerdict{Passed: true}, Audited: true}, true},
		{"refined", &orchestrator.AuditedResult{Document: &models.RFQ{ProjectTitle: "A"}, Verdict: &models.AuditVerdict{Issues: []string{"x"}}, Audited: true, Refined: true}, true},
		{"refine failed", &orchestrator.AuditedResult{Document: &models.RFQ{ProjectTitle: "A"}, Verdict: &models.AuditVerdict{Issues: []string{"x"}}, Audited: true}, false},
		{"unaudited", &orchestrator.AuditedResult{Document: &models.RFQ{ProjectTitle: "A"}}, false},
		{"fallback", &orchestrator.AuditedResult{Document: &models.RFQ{ProjectTitle: "A"}, Fallback: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mr, client := setupMiniredis(t)
			engine := &countingEngine{result: tt.result}
			g := NewAuditedGenerator(engine, New(client, time.Hour, logger.NewTestLogger(t)), models.KindRFQ, logger.NewTestLogger(t))

			_, err := g.GenerateAudited(context.Background(), history, "residential", creds)
			require.NoError(t, err)
			assert.Equal(t, tt.cached, mr.Exists(Key(models.KindRFQ, "residential", "o4-mini", history)))

			res, err := g.GenerateAudited(context.Background(), history, "residential", creds)
			require.NoError(t, err)
			assert.Equal(t, tt.cached, res.Cached)
			if tt.cached {
				assert.Equal(t, 1, engine.calls)
			} else {
				assert.Equal(t, 2, engine.calls)
			}
		})
	}
}

func TestAuditedGenerator_SkipsCacheWithoutCredentials(t *testing.T) {
	history := models.History{{Question: "Budget?", Answer: "AED 10,000"}}
	_, client := setupMiniredis(t)
	engine := &countingEngine{result: &orchestrator.AuditedResult{
		Document: &models.RFQ{ProjectTitle: "A"},
		Verdict:  &models.AuditVerdict{Passed: true},
		Audited:  true,
	}}
	g := NewAuditedGenerator(engine, New(client, time.Hour, logger.NewTestLogger(t)), models.KindRFQ, logger.NewTestLogger(t))

	_, err := g.GenerateAudited(context.Background(), history, "residential", models.Credentials{APIKey: "sk", Model: "o4-mini"})
	require.NoError(t, err)

	res, err := g.GenerateAudited(context.Background(), history, "residential", models.Credentials{Model: "o4-mini"})
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, 2, engine.calls)
}
