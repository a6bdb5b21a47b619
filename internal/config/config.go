package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Audit and notification drivers.
const (
	AuditSheets    = "sheets"
	AuditStream    = "stream"
	AuditNone      = "none"
	NotifySendGrid = "sendgrid"
	NotifyNone     = "none"
)

// Config holds the supportdesk API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Completion CompletionConfig `yaml:"completion"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Assistant  AssistantConfig  `yaml:"assistant"`
	Audit      AuditConfig      `yaml:"audit"`
	Notify     NotifyConfig     `yaml:"notify"`
	Timeouts   TimeoutsConfig   `yaml:"timeouts"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	AllowedOrigins  []string `yaml:"allowed_origins"` // empty = "*"
	MaxBodyBytes    int64    `yaml:"max_body_bytes"`
	MetricsAPIKeys  []string `yaml:"metrics_api_keys"`
}

// DatabaseConfig holds vector store connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	IndexName        string   `yaml:"index_name"`
	KeyPrefix        string   `yaml:"key_prefix"`
	HNSWM            int      `yaml:"hnsw_m"`
	HNSWEFConstruct  int      `yaml:"hnsw_ef_construction"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	// CacheTTLSec keeps knowledge-record embeddings computed by the loader for this long,
	// so re-loads skip the provider for unchanged text. 0 disables the cache.
	CacheTTLSec int `yaml:"cache_ttl_sec"`
}

// CompletionConfig holds chat completion provider settings.
// Empty APIKey and BaseURL inherit the embedding provider's values.
type CompletionConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// RetrievalConfig holds ranking and context settings.
type RetrievalConfig struct {
	TopK              int      `yaml:"top_k"`
	MinScore          *float64 `yaml:"min_score"` // nil = DefaultMinScore, 0 disables the threshold
	PrimaryPartition  string   `yaml:"primary_partition"`
	FallbackPartition string   `yaml:"fallback_partition"` // "none" disables the fallback
	MaxContextTokens  int      `yaml:"max_context_tokens"`
	HistoryWindow     int      `yaml:"history_window"`
}

// DefaultMinScore is the similarity floor applied when retrieval.min_score is unset.
const DefaultMinScore = 0.5

// Threshold returns the effective minimum similarity.
func (r RetrievalConfig) Threshold() float64 {
	if r.MinScore == nil {
		return DefaultMinScore
	}
	return *r.MinScore
}

// AssistantConfig holds the persona and escalation address.
type AssistantConfig struct {
	CompanyName  string `yaml:"company_name"`
	SupportEmail string `yaml:"support_email"`
	SystemPrompt string `yaml:"system_prompt"`
}

// AuditConfig selects and configures the audit sink.
type AuditConfig struct {
	Driver          string `yaml:"driver"` // sheets, stream, none
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	SheetRange      string `yaml:"sheet_range"`
	CredentialsFile string `yaml:"credentials_file"`
	StreamKey       string `yaml:"stream_key"`
	StreamMaxLen    int64  `yaml:"stream_max_len"`
}

// NotifyConfig selects and configures the escalation transport.
type NotifyConfig struct {
	Driver     string `yaml:"driver"` // sendgrid, none
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	FromEmail  string `yaml:"from_email"`
	FromName   string `yaml:"from_name"`
	To         string `yaml:"to"`
	MaxRetries int    `yaml:"max_retries"`
}

// TimeoutsConfig bounds every external call, in seconds.
type TimeoutsConfig struct {
	EmbeddingSec  int `yaml:"embedding_sec"`
	RetrievalSec  int `yaml:"retrieval_sec"`
	CompletionSec int `yaml:"completion_sec"`
	AuditSec      int `yaml:"audit_sec"`
	NotifySec     int `yaml:"notify_sec"`
}

// Seconds converts a whole-second setting to a duration.
func Seconds(n int) time.Duration { return time.Duration(n) * time.Second }

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse expands ${VAR} references, decodes YAML, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = 1 << 20
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "valkey"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.KeyPrefix == "" {
		c.Database.KeyPrefix = "supportdesk:knowledge:"
	}
	if c.Database.IndexName == "" {
		c.Database.IndexName = "supportdesk:knowledge:idx"
	}
	if c.Database.HNSWM <= 0 {
		c.Database.HNSWM = 16
	}
	if c.Database.HNSWEFConstruct <= 0 {
		c.Database.HNSWEFConstruct = 200
	}

	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-large"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 3072
	}
	if c.Completion.Model == "" {
		c.Completion.Model = "gpt-4o"
	}
	if c.Completion.APIKey == "" {
		c.Completion.APIKey = c.Embedding.APIKey
	}
	if c.Completion.BaseURL == "" {
		c.Completion.BaseURL = c.Embedding.BaseURL
	}

	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = 4
	}
	if c.Retrieval.PrimaryPartition == "" {
		c.Retrieval.PrimaryPartition = "faq"
	}
	if c.Retrieval.FallbackPartition == "" {
		c.Retrieval.FallbackPartition = "article"
	}
	if c.Retrieval.MaxContextTokens <= 0 {
		c.Retrieval.MaxContextTokens = 1500
	}
	if c.Retrieval.HistoryWindow <= 0 {
		c.Retrieval.HistoryWindow = 10
	}

	if c.Audit.Driver == "" {
		c.Audit.Driver = AuditNone
	}
	if c.Audit.SheetRange == "" {
		c.Audit.SheetRange = "Sheet1!A:L"
	}
	if c.Audit.StreamKey == "" {
		c.Audit.StreamKey = "supportdesk:audit"
	}
	if c.Audit.StreamMaxLen <= 0 {
		c.Audit.StreamMaxLen = 100_000
	}

	if c.Notify.Driver == "" {
		c.Notify.Driver = NotifyNone
	}
	if c.Notify.To == "" {
		c.Notify.To = c.Assistant.SupportEmail
	}

	t := &c.Timeouts
	if t.EmbeddingSec <= 0 {
		t.EmbeddingSec = 10
	}
	if t.RetrievalSec <= 0 {
		t.RetrievalSec = 5
	}
	if t.CompletionSec <= 0 {
		t.CompletionSec = 45
	}
	if t.AuditSec <= 0 {
		t.AuditSec = 10
	}
	if t.NotifySec <= 0 {
		t.NotifySec = 15
	}
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) { errs = append(errs, fmt.Errorf(format, args...)) }

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		fail("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Database.Driver {
	case "valkey", "redis":
	default:
		fail("database.driver must be \"valkey\" or \"redis\", got %q", c.Database.Driver)
	}
	if len(c.Database.Addrs) == 0 {
		fail("database.addrs is required")
	}

	if c.Embedding.APIKey == "" {
		fail("embedding.api_key is required")
	}
	if c.Completion.APIKey == "" {
		fail("completion.api_key is required")
	}
	if c.Embedding.CacheTTLSec < 0 {
		fail("embedding.cache_ttl_sec must not be negative")
	}

	if ms := c.Retrieval.Threshold(); ms < 0 || ms > 1 {
		fail("retrieval.min_score must be within [0, 1], got %g", ms)
	}
	if !isPartition(c.Retrieval.PrimaryPartition) {
		fail("retrieval.primary_partition must be \"faq\" or \"article\", got %q", c.Retrieval.PrimaryPartition)
	}
	if c.Retrieval.FallbackPartition != "none" && !isPartition(c.Retrieval.FallbackPartition) {
		fail("retrieval.fallback_partition must be \"faq\", \"article\" or \"none\", got %q",
			c.Retrieval.FallbackPartition)
	}

	if strings.TrimSpace(c.Assistant.SupportEmail) == "" {
		fail("assistant.support_email is required")
	}

	switch c.Audit.Driver {
	case AuditSheets:
		if c.Audit.SpreadsheetID == "" {
			fail("audit.spreadsheet_id is required for the sheets driver")
		}
		if c.Audit.CredentialsFile == "" {
			fail("audit.credentials_file is required for the sheets driver")
		}
	case AuditStream, AuditNone:
	default:
		fail("audit.driver must be \"sheets\", \"stream\" or \"none\", got %q", c.Audit.Driver)
	}

	switch c.Notify.Driver {
	case NotifySendGrid:
		if c.Notify.APIKey == "" {
			fail("notify.api_key is required for the sendgrid driver")
		}
		if c.Notify.FromEmail == "" {
			fail("notify.from_email is required for the sendgrid driver")
		}
	case NotifyNone:
	default:
		fail("notify.driver must be \"sendgrid\" or \"none\", got %q", c.Notify.Driver)
	}

	return errors.Join(errs...)
}

func isPartition(s string) bool { return s == "faq" || s == "article" }

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
