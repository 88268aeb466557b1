package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
	CORS     CORSConfig     `yaml:"cors"`
	Case     CaseConfig     `yaml:"case"`
	Quota    QuotaConfig    `yaml:"quota"`
	Judge    JudgeConfig    `yaml:"judge"`
	Worker   WorkerConfig   `yaml:"worker"`
	Sweeper  SweeperConfig  `yaml:"sweeper"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Authorization,Content-Type"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"true"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"30s"`
	TrustProxy      bool          `yaml:"trust_proxy"      env:"SERVER_TRUST_PROXY"      env-default:"false"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	// AutoMigrate applies pending goose migrations on server startup.
	AutoMigrate bool `yaml:"auto_migrate" env:"DATABASE_AUTO_MIGRATE" env-default:"false"`
}

// StorageConfig selects the storage collaborator implementations.
type StorageConfig struct {
	// Driver is "postgres" or "memory". Memory is for local development only.
	Driver string `yaml:"driver"      env:"STORAGE_DRIVER"      env-default:"postgres"`
	// QuotaStore is "postgres" or "redis".
	QuotaStore string `yaml:"quota_store" env:"STORAGE_QUOTA_STORE" env-default:"postgres"`
}

// RedisConfig holds Redis connection settings for the quota counter store.
type RedisConfig struct {
	URL       string        `yaml:"url"        env:"REDIS_URL"`
	KeyPrefix string        `yaml:"key_prefix" env:"REDIS_KEY_PREFIX" env-default:"whosright"`
	Timeout   time.Duration `yaml:"timeout"    env:"REDIS_TIMEOUT"    env-default:"2s"`
}

// AuthConfig holds settings for validating access tokens issued by the auth service.
// An empty secret disables authentication: every caller is anonymous.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" env:"AUTH_JWT_SECRET"`
	JWTIssuer string `yaml:"jwt_issuer" env:"AUTH_JWT_ISSUER" env-default:"whosright"`
}

// Enabled reports whether bearer tokens are validated.
func (c AuthConfig) Enabled() bool { return c.JWTSecret != "" }

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// CaseConfig holds dispute input limits and the response window.
type CaseConfig struct {
	ResponseWindow    time.Duration `yaml:"response_window"     env:"CASE_RESPONSE_WINDOW"     env-default:"48h"`
	ArgumentMinLen    int           `yaml:"argument_min_len"    env:"CASE_ARGUMENT_MIN_LEN"    env-default:"20"`
	ArgumentMaxLen    int           `yaml:"argument_max_len"    env:"CASE_ARGUMENT_MAX_LEN"    env-default:"5000"`
	NameMaxLen        int           `yaml:"name_max_len"        env:"CASE_NAME_MAX_LEN"        env-default:"60"`
	MaxEvidenceItems  int           `yaml:"max_evidence_items"  env:"CASE_MAX_EVIDENCE_ITEMS"  env-default:"5"`
	EvidenceItemMax   int           `yaml:"evidence_item_max"   env:"CASE_EVIDENCE_ITEM_MAX"   env-default:"1000"`
	MaxEvidenceImages int           `yaml:"max_evidence_images" env:"CASE_MAX_EVIDENCE_IMAGES" env-default:"3"`
	CodeAttempts      int           `yaml:"code_attempts"       env:"CASE_CODE_ATTEMPTS"       env-default:"8"`
	AppealReasonMin   int           `yaml:"appeal_reason_min"   env:"CASE_APPEAL_REASON_MIN"   env-default:"20"`
	AppealReasonMax   int           `yaml:"appeal_reason_max"   env:"CASE_APPEAL_REASON_MAX"   env-default:"2000"`
}

// QuotaConfig holds daily verdict allotments.
type QuotaConfig struct {
	AnonymousDaily     int `yaml:"anonymous_daily"     env:"QUOTA_ANONYMOUS_DAILY"     env-default:"1"`
	AuthenticatedDaily int `yaml:"authenticated_daily" env:"QUOTA_AUTHENTICATED_DAILY" env-default:"5"`
}

// JudgeConfig holds the reasoning-engine credential pool.
// Credentials are tried in order: Anthropic keys first, then OpenAI keys.
type JudgeConfig struct {
	AnthropicKeys  []string      `yaml:"anthropic_keys"   env:"JUDGE_ANTHROPIC_KEYS"   env-separator:","`
	AnthropicModel string        `yaml:"anthropic_model"  env:"JUDGE_ANTHROPIC_MODEL"  env-default:"claude-sonnet-4-5"`
	OpenAIKeys     []string      `yaml:"openai_keys"      env:"JUDGE_OPENAI_KEYS"      env-separator:","`
	OpenAIModel    string        `yaml:"openai_model"     env:"JUDGE_OPENAI_MODEL"     env-default:"gpt-4o-mini"`
	OpenAIBaseURL  string        `yaml:"openai_base_url"  env:"JUDGE_OPENAI_BASE_URL"`
	CallTimeout    time.Duration `yaml:"call_timeout"     env:"JUDGE_CALL_TIMEOUT"     env-default:"60s"`
	MaxTokens      int           `yaml:"max_tokens"       env:"JUDGE_MAX_TOKENS"       env-default:"4096"`
	Temperature    float64       `yaml:"temperature"      env:"JUDGE_TEMPERATURE"      env-default:"0.4"`
	RatePerMinute  int           `yaml:"rate_per_minute"  env:"JUDGE_RATE_PER_MINUTE"  env-default:"30"`
	// RetryAll restores rotate-on-every-error; by default bad requests fail fast.
	RetryAll bool `yaml:"retry_all" env:"JUDGE_RETRY_ALL" env-default:"false"`
}

// CredentialCount is the size of the rotation pool.
func (c JudgeConfig) CredentialCount() int {
	return len(nonEmpty(c.AnthropicKeys)) + len(nonEmpty(c.OpenAIKeys))
}

// WorkerConfig sizes the detached task queue.
type WorkerConfig struct {
	Workers     int           `yaml:"workers"      env:"WORKER_COUNT"        env-default:"4"`
	QueueSize   int           `yaml:"queue_size"   env:"WORKER_QUEUE_SIZE"   env-default:"128"`
	TaskTimeout time.Duration `yaml:"task_timeout" env:"WORKER_TASK_TIMEOUT" env-default:"5m"`
}

// SweeperConfig holds maintenance job thresholds.
type SweeperConfig struct {
	StaleAnalyzingAfter time.Duration `yaml:"stale_analyzing_after" env:"SWEEPER_STALE_ANALYZING_AFTER" env-default:"15m"`
	RetriggerAfter      time.Duration `yaml:"retrigger_after"       env:"SWEEPER_RETRIGGER_AFTER"       env-default:"10m"`
	BatchSize           int           `yaml:"batch_size"            env:"SWEEPER_BATCH_SIZE"            env-default:"50"`
	Timeout             time.Duration `yaml:"timeout"               env:"SWEEPER_TIMEOUT"               env-default:"10m"`
}

func nonEmpty(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}
