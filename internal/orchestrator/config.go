package orchestrator

import (
	"fmt"
	"time"

	"rfq-workers/internal/common/config"
	"rfq-workers/internal/fallback"
	"rfq-workers/internal/models"
)

// FailurePolicy decides what the step decision does when the service cannot be used.
type FailurePolicy string

const (
	// PolicyStrict surfaces NO_CREDENTIAL and SERVICE_ERROR to the caller.
	PolicyStrict FailurePolicy = "strict"
	// PolicyFallback substitutes the deterministic fallback output.
	PolicyFallback FailurePolicy = "fallback"
)

// ForcedDocument selects where the document comes from once the question budget is spent.
type ForcedDocument string

const (
	ForcedFallback   ForcedDocument = "fallback"
	ForcedSynthesize ForcedDocument = "synthesize"
)

// Sampling temperatures per stage. Reasoning models ignore them.
const (
	TemperatureStep       float32 = 0.7
	TemperatureSynthesize float32 = 0.5
	TemperatureAudit      float32 = 0.3
	TemperatureRefine     float32 = 0.7
)

// Config is the immutable configuration of an Engine.
type Config struct {
	Kind           models.DocumentKind
	QuestionBudget int
	MinQuestions   int
	FailurePolicy  FailurePolicy
	ForcedDocument ForcedDocument
	// CallTimeout bounds each generation call; zero means only the caller's context applies.
	CallTimeout  time.Duration
	Currency     string
	ContactEmail string
	Organization string
	Fallback     fallback.Config
	// DefaultCredentials fill in whatever a request leaves empty.
	DefaultCredentials models.Credentials
	Now                func() time.Time
}

// DefaultConfig returns the stock RFQ deployment.
func DefaultConfig() Config {
	return Config{
		Kind:           models.KindRFQ,
		QuestionBudget: 10,
		MinQuestions:   5,
		FailurePolicy:  PolicyStrict,
		ForcedDocument: ForcedFallback,
		CallTimeout:    60 * time.Second,
		Currency:       "AED",
		ContactEmail:   "procurement@3quotes.ae",
		Organization:   "3Quotes",
		Fallback:       fallback.DefaultConfig(),
		Now:            time.Now,
	}
}

// ConfigFrom maps the application configuration onto an engine Config.
func ConfigFrom(cfg *config.Config) (Config, error) {
	kind, err := models.ParseDocumentKind(cfg.Conversation.DocumentKind)
	if err != nil {
		return Config{}, err
	}
	c := cfg.Conversation
	out := Config{
		Kind:           kind,
		QuestionBudget: c.QuestionBudget,
		MinQuestions:   c.MinQuestions,
		FailurePolicy:  FailurePolicy(c.FailurePolicy),
		ForcedDocument: ForcedDocument(c.ForcedDocument),
		CallTimeout:    config.GetDuration(cfg.Generation.Timeout),
		Currency:       c.Currency,
		ContactEmail:   c.ContactEmail,
		Organization:   c.Organization,
		Fallback: fallback.Config{
			Kind:            kind,
			FirstPhaseLimit: c.FirstPhaseLimit,
			Currency:        c.Currency,
			ContactEmail:    c.ContactEmail,
		},
		DefaultCredentials: models.Credentials{APIKey: cfg.Generation.APIKey, Model: cfg.Generation.Model},
		Now:                time.Now,
	}
	return out, out.validate()
}

func (c Config) validate() error {
	if !c.Kind.Valid() {
		return fmt.Errorf("orchestrator: unknown document kind %q", c.Kind)
	}
	if c.QuestionBudget < 1 {
		return fmt.Errorf("orchestrator: question budget must be positive")
	}
	switch c.FailurePolicy {
	case PolicyStrict, PolicyFallback:
	default:
		return fmt.Errorf("orchestrator: unknown failure policy %q", c.FailurePolicy)
	}
	switch c.ForcedDocument {
	case ForcedFallback, ForcedSynthesize:
	default:
		return fmt.Errorf("orchestrator: unknown forced document source %q", c.ForcedDocument)
	}
	return nil
}
