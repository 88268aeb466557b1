package config

import (
	"fmt"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the postgres storage driver")
		}
	case "memory":
	default:
		return fmt.Errorf("storage.driver must be postgres or memory (got %q)", c.Storage.Driver)
	}

	switch c.Storage.QuotaStore {
	case "postgres":
		if c.Storage.Driver != "postgres" {
			return fmt.Errorf("storage.quota_store postgres requires the postgres storage driver")
		}
	case "redis":
		if c.Redis.URL == "" {
			return fmt.Errorf("redis.url is required for the redis quota store")
		}
	case "memory":
	default:
		return fmt.Errorf("storage.quota_store must be postgres, redis or memory (got %q)", c.Storage.QuotaStore)
	}

	if c.Auth.Enabled() && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}

	if err := c.Case.validate(); err != nil {
		return fmt.Errorf("case: %w", err)
	}
	if err := c.Quota.validate(); err != nil {
		return fmt.Errorf("quota: %w", err)
	}
	if err := c.Judge.validate(); err != nil {
		return fmt.Errorf("judge: %w", err)
	}

	if c.Worker.Workers <= 0 {
		return fmt.Errorf("worker.workers must be > 0 (got %d)", c.Worker.Workers)
	}
	if c.Worker.QueueSize <= 0 {
		return fmt.Errorf("worker.queue_size must be > 0 (got %d)", c.Worker.QueueSize)
	}

	return nil
}

func (c *CaseConfig) validate() error {
	if c.ResponseWindow <= 0 {
		return fmt.Errorf("response_window must be > 0 (got %s)", c.ResponseWindow)
	}
	if c.ArgumentMinLen <= 0 || c.ArgumentMaxLen < c.ArgumentMinLen {
		return fmt.Errorf("argument length bounds are inconsistent (%d..%d)", c.ArgumentMinLen, c.ArgumentMaxLen)
	}
	if c.AppealReasonMin <= 0 || c.AppealReasonMax < c.AppealReasonMin {
		return fmt.Errorf("appeal reason bounds are inconsistent (%d..%d)", c.AppealReasonMin, c.AppealReasonMax)
	}
	if c.CodeAttempts <= 0 {
		return fmt.Errorf("code_attempts must be > 0 (got %d)", c.CodeAttempts)
	}
	return nil
}

func (q *QuotaConfig) validate() error {
	if q.AnonymousDaily < 0 || q.AuthenticatedDaily < 0 {
		return fmt.Errorf("daily limits must be >= 0")
	}
	return nil
}

func (j *JudgeConfig) validate() error {
	j.AnthropicKeys = trimKeys(j.AnthropicKeys)
	j.OpenAIKeys = trimKeys(j.OpenAIKeys)

	if j.CredentialCount() == 0 {
		return fmt.Errorf("at least one provider credential must be configured")
	}
	if j.CallTimeout <= 0 {
		return fmt.Errorf("call_timeout must be > 0 (got %s)", j.CallTimeout)
	}
	if j.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be > 0 (got %d)", j.MaxTokens)
	}
	return nil
}

func trimKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}
