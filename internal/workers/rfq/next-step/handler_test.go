// internal/workers/rfq/next-step/handler_test.go
package nextstep

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "rfq-workers/internal/common/errors"
	"rfq-workers/internal/common/logger"
	"rfq-workers/internal/models"
	"rfq-workers/internal/orchestrator"
)

type stubEngine struct {
	step models.NextStep
	err  error
	got  orchestrator.StepRequest
}

func (s *stubEngine) NextStep(_ context.Context, req orchestrator.StepRequest) (models.NextStep, error) {
	s.got = req
	return s.step, s.err
}

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second}
}

func TestExecute_Question(t *testing.T) {
	engine := &stubEngine{step: models.QuestionStep{Question: models.SelectQuestion("Timeline?", "ASAP", "Flexible")}}
	h := NewHandler(createTestConfig(), engine, logger.NewTestLogger(t))

	input := &Input{
		History:        models.History{{Question: "Type?", Answer: "Kitchen"}},
		Category:       "residential",
		Credentials:    models.Credentials{APIKey: "sk"},
		QuestionBudget: 8,
	}
	out, err := h.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, "question", out.StepType)
	assert.False(t, out.Terminal)
	assert.Equal(t, 1, out.QuestionCount)
	require.NotNil(t, out.Step.Question)
	assert.Equal(t, []string{"ASAP", "Flexible"}, out.Step.Question.Options)
	assert.Equal(t, 8, engine.got.QuestionBudget)
	assert.Equal(t, "sk", engine.got.Credentials.APIKey)
}

func TestExecute_Document(t *testing.T) {
	engine := &stubEngine{step: models.DocumentStep{Document: &models.RFQ{ProjectTitle: "Villa"}}}
	h := NewHandler(createTestConfig(), engine, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{Category: "residential"})
	require.NoError(t, err)
	assert.True(t, out.Terminal)
	assert.Equal(t, "rfq", out.StepType)

	b, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"question":null`)
	assert.Contains(t, string(b), `"project_title":"Villa"`)
}

func TestExecute_Errors(t *testing.T) {
	h := NewHandler(createTestConfig(), &stubEngine{}, logger.NewTestLogger(t))
	_, err := h.Execute(context.Background(), &Input{})
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.CodeOf(err))

	_, err = h.Execute(context.Background(), &Input{Category: "residential", History: models.History{{Answer: "orphan"}}})
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.CodeOf(err))

	h = NewHandler(createTestConfig(), &stubEngine{err: apperrors.NewNoCredentialError()}, logger.NewTestLogger(t))
	_, err = h.Execute(context.Background(), &Input{Category: "residential"})
	assert.True(t, apperrors.IsNoCredential(err))
}
