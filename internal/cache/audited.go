package cache

import (
	"context"

	"rfq-workers/internal/common/logger"
	"rfq-workers/internal/models"
	"rfq-workers/internal/orchestrator"
)

// Generator is the engine behind an AuditedGenerator.
type Generator interface {
	GenerateAudited(ctx context.Context, history models.History, category models.Category, creds models.Credentials) (*orchestrator.AuditedResult, error)
	ResolveCredentials(creds models.Credentials) (models.Credentials, error)
}

// Store is the subset of DocumentCache used by AuditedGenerator.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, bool, error)
	Put(ctx context.Context, key string, entry *Entry) error
}

// AuditedGenerator serves audited generations from the cache when it can.
// Only results that went through a completed audit are stored, and the cache
// is never consulted for a caller without usable credentials.
type AuditedGenerator struct {
	engine Generator
	store  Store
	kind   models.DocumentKind
	logger logger.Logger
}

// NewAuditedGenerator wraps engine. store may be nil, in which case every call
// goes to the engine.
func NewAuditedGenerator(engine Generator, store Store, kind models.DocumentKind, log logger.Logger) *AuditedGenerator {
	return &AuditedGenerator{
		engine: engine,
		store:  store,
		kind:   kind,
		logger: log.With(map[string]interface{}{"component": "audited-cache"}),
	}
}

func (g *AuditedGenerator) GenerateAudited(ctx context.Context, history models.History, category models.Category, creds models.Credentials) (*orchestrator.AuditedResult, error) {
	if g.store == nil {
		return g.engine.GenerateAudited(ctx, history, category, creds)
	}
	resolved, err := g.engine.ResolveCredentials(creds)
	if err != nil {
		// The engine reports NO_CREDENTIAL or falls back according to its policy.
		return g.engine.GenerateAudited(ctx, history, category, creds)
	}

	key := Key(g.kind, category, resolved.Model, history)
	if res := g.lookup(ctx, key); res != nil {
		g.logger.Info("audited document served from cache", map[string]interface{}{"category": string(category)})
		return res, nil
	}

	result, err := g.engine.GenerateAudited(ctx, history, category, creds)
	if err != nil {
		return nil, err
	}
	if !result.Cacheable() {
		g.logger.Debug("result not cached", map[string]interface{}{"outcome": result.Outcome()})
		return result, nil
	}

	entry := &Entry{
		Document: models.Wrap(result.Document),
		Verdict:  result.Verdict,
		Audited:  result.Audited,
		Refined:  result.Refined,
	}
	if err := g.store.Put(ctx, key, entry); err != nil {
		g.logger.Warn("cache store failed", map[string]interface{}{"error": err})
	}
	return result, nil
}

func (g *AuditedGenerator) lookup(ctx context.Context, key string) *orchestrator.AuditedResult {
	entry, ok, err := g.store.Get(ctx, key)
	if err != nil {
		g.logger.Warn("cache lookup failed", map[string]interface{}{"error": err})
		return nil
	}
	if !ok {
		return nil
	}
	doc, err := entry.Document.Document()
	if err != nil {
		g.logger.Warn("cached document unreadable", map[string]interface{}{"error": err})
		return nil
	}
	res := &orchestrator.AuditedResult{
		Document: doc,
		Verdict:  entry.Verdict,
		Audited:  entry.Audited,
		Refined:  entry.Refined,
		Cached:   true,
	}
	if !res.Cacheable() {
		return nil
	}
	return res
}
