// internal/workers/rfq/refine-document/config.go
package refinedocument

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 90 * time.Second,
	}
}
