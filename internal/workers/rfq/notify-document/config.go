// internal/workers/rfq/notify-document/config.go
package notifydocument

import (
	"time"

	"rfq-workers/internal/common/config"
)

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	SMSSenderID  string
	Timeout      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}

// ConfigFrom copies the notification section of the application config.
func ConfigFrom(cfg *config.Config) *Config {
	c := LoadConfig()
	c.EmailEnabled = cfg.Notifications.Email.Enabled
	c.FromEmail = cfg.Notifications.Email.FromEmail
	c.SMSEnabled = cfg.Notifications.SMS.Enabled
	c.SMSSenderID = cfg.Notifications.SMS.SenderID
	return c
}
