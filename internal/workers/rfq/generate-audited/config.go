// internal/workers/rfq/generate-audited/config.go
package generateaudited

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 180 * time.Second,
	}
}
