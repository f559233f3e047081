// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	PolicyStrict   = "strict"
	PolicyFallback = "fallback"

	ForcedFallback   = "fallback"
	ForcedSynthesize = "synthesize"

	ProviderOpenAI  = "openai"
	ProviderGateway = "gateway"
)

func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	// 1. base config
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// 2. environment overlay, optional
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	// GENERATION_API_KEY overrides generation.api_key and so on.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// loadEnvFile loads the first .env found walking up from the working directory.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills secrets from well-known environment variables.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Generation.APIKey == "" {
		for _, name := range []string{"GENERATION_API_KEY", "OPENAI_API_KEY"} {
			if val := os.Getenv(name); val != "" {
				cfg.Generation.APIKey = val
				break
			}
		}
	}
	if cfg.Generation.BaseURL == "" {
		if val := os.Getenv("GENERATION_BASE_URL"); val != "" {
			cfg.Generation.BaseURL = val
		}
	}

	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
	if cfg.Database.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Database.Redis.Password = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "rfq-workers"
	}

	// Camunda defaults
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}

	// Database defaults
	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}
	if cfg.Database.Elasticsearch.Index == "" {
		cfg.Database.Elasticsearch.Index = "rfq-documents"
	}

	// Generation defaults
	if cfg.Generation.Provider == "" {
		cfg.Generation.Provider = ProviderOpenAI
	}
	if cfg.Generation.Model == "" {
		cfg.Generation.Model = "o4-mini"
	}
	if cfg.Generation.Timeout == 0 {
		cfg.Generation.Timeout = 60000
	}

	// Conversation defaults
	c := &cfg.Conversation
	if c.QuestionBudget == 0 {
		c.QuestionBudget = 10
	}
	if c.MinQuestions == 0 {
		c.MinQuestions = 5
	}
	if c.FirstPhaseLimit == 0 {
		c.FirstPhaseLimit = 3
	}
	if c.FailurePolicy == "" {
		c.FailurePolicy = PolicyStrict
	}
	if c.ForcedDocument == "" {
		c.ForcedDocument = ForcedFallback
	}
	if c.DocumentKind == "" {
		c.DocumentKind = "rfq"
	}
	if c.Currency == "" {
		c.Currency = "AED"
	}
	if c.ContactEmail == "" {
		c.ContactEmail = "procurement@3quotes.ae"
	}
	if c.Organization == "" {
		c.Organization = "3Quotes"
	}

	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 86400
	}
	if cfg.Notifications.AWS.Region == "" {
		cfg.Notifications.AWS.Region = "me-central-1"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 120000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required when camunda is enabled")
	}

	switch cfg.Generation.Provider {
	case ProviderOpenAI:
	case ProviderGateway:
		if cfg.Generation.BaseURL == "" {
			return fmt.Errorf("generation.base_url is required for the gateway provider")
		}
	default:
		return fmt.Errorf("generation.provider must be %q or %q, got %q", ProviderOpenAI, ProviderGateway, cfg.Generation.Provider)
	}

	c := cfg.Conversation
	if c.QuestionBudget < 1 {
		return fmt.Errorf("conversation.question_budget must be positive")
	}
	if c.MinQuestions > c.QuestionBudget {
		return fmt.Errorf("conversation.min_questions (%d) exceeds question_budget (%d)", c.MinQuestions, c.QuestionBudget)
	}
	if c.FailurePolicy != PolicyStrict && c.FailurePolicy != PolicyFallback {
		return fmt.Errorf("conversation.failure_policy must be %q or %q", PolicyStrict, PolicyFallback)
	}
	if c.ForcedDocument != ForcedFallback && c.ForcedDocument != ForcedSynthesize {
		return fmt.Errorf("conversation.forced_document must be %q or %q", ForcedFallback, ForcedSynthesize)
	}
	if c.DocumentKind != "rfq" && c.DocumentKind != "quote" {
		return fmt.Errorf("conversation.document_kind must be rfq or quote")
	}

	if cfg.Cache.Enabled && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required when cache is enabled")
	}
	if cfg.Tracing.Enabled && cfg.Tracing.JaegerEndpoint == "" {
		return fmt.Errorf("tracing.jaeger_endpoint is required when tracing is enabled")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       120000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
