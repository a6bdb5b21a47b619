package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		Database:  DatabaseConfig{Addrs: []string{"localhost:6379"}},
		Embedding: EmbeddingConfig{APIKey: "sk-test"},
		Assistant: AssistantConfig{CompanyName: "Acme", SupportEmail: "help@example.com"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for empty config")
	}
	for _, want := range []string{
		"database.addrs is required",
		"embedding.api_key is required",
		"completion.api_key is required",
		"assistant.support_email is required",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error does not mention %q:\n%v", want, err)
		}
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 70000

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_Drivers(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"db driver", func(c *Config) { c.Database.Driver = "pinecone" }, "database.driver"},
		{"audit driver", func(c *Config) { c.Audit.Driver = "csv" }, "audit.driver"},
		{"sheets without id", func(c *Config) { c.Audit.Driver = AuditSheets }, "audit.spreadsheet_id"},
		{"notify driver", func(c *Config) { c.Notify.Driver = "smtp" }, "notify.driver"},
		{"sendgrid without key", func(c *Config) { c.Notify.Driver = NotifySendGrid }, "notify.api_key"},
		{"primary partition", func(c *Config) { c.Retrieval.PrimaryPartition = "docs" }, "retrieval.primary_partition"},
		{"fallback partition", func(c *Config) { c.Retrieval.FallbackPartition = "x" }, "retrieval.fallback_partition"},
		{"min score", func(c *Config) { v := 1.5; c.Retrieval.MinScore = &v }, "retrieval.min_score"},
		{"cache ttl", func(c *Config) { c.Embedding.CacheTTLSec = -1 }, "embedding.cache_ttl_sec"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestValidate_FallbackNone(t *testing.T) {
	cfg := validConfig()
	cfg.Retrieval.FallbackPartition = "none"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{Embedding: EmbeddingConfig{APIKey: "k", BaseURL: "https://llm.example.com/v1"}}
	cfg.Assistant.SupportEmail = "help@example.com"
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 8080 || cfg.HTTP.ReadTimeoutSec != 10 || cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("http defaults = %+v", cfg.HTTP)
	}
	if cfg.Database.Driver != "valkey" || cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("database defaults = %+v", cfg.Database)
	}
	if cfg.Embedding.Model != "text-embedding-3-large" || cfg.Embedding.Dimensions != 3072 {
		t.Errorf("embedding defaults = %+v", cfg.Embedding)
	}
	if cfg.Completion.Model != "gpt-4o" {
		t.Errorf("completion model = %q", cfg.Completion.Model)
	}
	if cfg.Completion.APIKey != "k" || cfg.Completion.BaseURL != "https://llm.example.com/v1" {
		t.Errorf("completion should inherit embedding credentials, got %+v", cfg.Completion)
	}
	if cfg.Retrieval.TopK != 4 || cfg.Retrieval.MaxContextTokens != 1500 || cfg.Retrieval.HistoryWindow != 10 {
		t.Errorf("retrieval defaults = %+v", cfg.Retrieval)
	}
	if cfg.Retrieval.Threshold() != DefaultMinScore {
		t.Errorf("threshold = %g, want %g", cfg.Retrieval.Threshold(), DefaultMinScore)
	}
	if cfg.Audit.Driver != AuditNone || cfg.Notify.Driver != NotifyNone {
		t.Errorf("sinks = %q/%q, want none", cfg.Audit.Driver, cfg.Notify.Driver)
	}
	if cfg.Notify.To != "help@example.com" {
		t.Errorf("notify.to = %q, want support address", cfg.Notify.To)
	}
	if cfg.Timeouts.CompletionSec != 45 || cfg.Timeouts.EmbeddingSec != 10 {
		t.Errorf("timeouts = %+v", cfg.Timeouts)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	zero := 0.0
	cfg := Config{
		HTTP:      HTTPConfig{Port: 9000, ReadTimeoutSec: 30},
		Retrieval: RetrievalConfig{TopK: 8, MinScore: &zero},
		Database:  DatabaseConfig{KeyPrefix: "custom:"},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 9000 || cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("http = %+v", cfg.HTTP)
	}
	if cfg.Retrieval.TopK != 8 {
		t.Errorf("top_k = %d", cfg.Retrieval.TopK)
	}
	if cfg.Retrieval.Threshold() != 0 {
		t.Errorf("explicit zero threshold overridden: %g", cfg.Retrieval.Threshold())
	}
	if cfg.Database.KeyPrefix != "custom:" {
		t.Errorf("key prefix = %q", cfg.Database.KeyPrefix)
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("SD_TEST_OPENAI_KEY", "sk-from-env")
	yaml := []byte(`
database:
  addrs: ["${SD_TEST_DB_ADDR:-localhost:6379}"]
embedding:
  api_key: ${SD_TEST_OPENAI_KEY}
assistant:
  support_email: help@example.com
retrieval:
  min_score: 0.3
`)

	cfg, err := Parse(yaml)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Embedding.APIKey != "sk-from-env" {
		t.Errorf("api_key = %q", cfg.Embedding.APIKey)
	}
	if len(cfg.Database.Addrs) != 1 || cfg.Database.Addrs[0] != "localhost:6379" {
		t.Errorf("addrs = %v", cfg.Database.Addrs)
	}
	if cfg.Retrieval.Threshold() != 0.3 {
		t.Errorf("threshold = %g", cfg.Retrieval.Threshold())
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("http: [not a map")); err == nil {
		t.Error("expected YAML error")
	}
	if _, err := Parse([]byte("http:\n  port: 8080\n")); err == nil {
		t.Error("expected validation error")
	}
}

func TestLoad_LocalConfig(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-local")
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("load local config: %v", err)
	}
	if cfg.Assistant.SupportEmail == "" {
		t.Error("local config should set a support address")
	}
}
