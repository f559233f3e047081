// internal/workers/rfq/next-step/config.go
package nextstep

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 90 * time.Second,
	}
}
