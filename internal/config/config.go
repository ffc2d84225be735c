package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port               int    `env:"PORT" envDefault:"8080"`
	ChatServerURL      string `env:"CHAT_SERVER_URL,required"`
	ChatToken          string `env:"CHAT_TOKEN"`
	ChatTokenFile      string `env:"CHAT_TOKEN_FILE"`
	RedisURL           string `env:"REDIS_URL"`
	DatabaseURL        string `env:"DATABASE_URL"`
	ServiceToken       string `env:"SERVICE_TOKEN"`
	Identity           string `env:"NOTIFY_IDENTITY" envDefault:"admin"`
	CapabilityGrants   string `env:"CAPABILITY_GRANTS" envDefault:"admin=chat:notifications"`
	LiveChatRoute      string `env:"LIVE_CHAT_ROUTE" envDefault:"/live-chat"`
	AuditRetentionDays int    `env:"AUDIT_RETENTION_DAYS" envDefault:"30"`
	LogLevel           string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Grants parses CAPABILITY_GRANTS ("identity=cap,cap;identity=cap") into a
// map of identity to granted capabilities.
func (c *Config) Grants() map[string][]string {
	grants := make(map[string][]string)
	for _, entry := range strings.Split(c.CapabilityGrants, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		identity, caps, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		identity = strings.TrimSpace(identity)
		for _, capability := range strings.Split(caps, ",") {
			capability = strings.TrimSpace(capability)
			if capability != "" {
				grants[identity] = append(grants[identity], capability)
			}
		}
	}
	return grants
}

func (c *Config) Validate(isProduction bool) error {
	if !strings.HasPrefix(c.ChatServerURL, "http://") &&
		!strings.HasPrefix(c.ChatServerURL, "https://") &&
		!strings.HasPrefix(c.ChatServerURL, "ws://") &&
		!strings.HasPrefix(c.ChatServerURL, "wss://") {
		return fmt.Errorf("CHAT_SERVER_URL must be an http(s) or ws(s) URL")
	}

	if c.AuditRetentionDays < 1 {
		return fmt.Errorf("AUDIT_RETENTION_DAYS must be at least 1")
	}

	if isProduction {
		if err := validateSecret("SERVICE_TOKEN", c.ServiceToken); err != nil {
			return err
		}

		if c.ChatToken == "" && c.ChatTokenFile == "" {
			log.Warn().Msg("no CHAT_TOKEN or CHAT_TOKEN_FILE set: upstream connection will not be attempted")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
