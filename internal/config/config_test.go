package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Server.Transport != TransportStreamableHTTP {
		t.Errorf("expected transport %q, got %q", TransportStreamableHTTP, cfg.Server.Transport)
	}
	if cfg.Server.Port != 7000 || cfg.Server.Host != "127.0.0.1" {
		t.Errorf("expected 127.0.0.1:7000, got %s", cfg.Server.Addr())
	}
	if cfg.Database.Endpoint() != "http://127.0.0.1:8082" {
		t.Errorf("unexpected endpoint %q", cfg.Database.Endpoint())
	}
	if cfg.Database.DatabaseName != "default" {
		t.Errorf("expected database 'default', got %q", cfg.Database.DatabaseName)
	}
	if cfg.Database.Retry != 2 {
		t.Errorf("expected Retry=2, got %d", cfg.Database.Retry)
	}
	if cfg.Database.K != 5 {
		t.Errorf("expected K=5, got %d", cfg.Database.K)
	}
	if cfg.Database.VectorWeight != 0.7 || cfg.Database.SparseWeight != 0.3 {
		t.Errorf("expected weights 0.7/0.3, got %v/%v", cfg.Database.VectorWeight, cfg.Database.SparseWeight)
	}
	if cfg.Cache.Enabled() {
		t.Error("cache must be disabled without addrs")
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		Server:   ServerConfig{Port: 9000, Transport: TransportStdio},
		Database: DatabaseConfig{K: 10, VectorWeight: 1, SparseWeight: 0, DatabaseName: "market"},
		Embedding: EmbeddingConfig{Providers: map[string]ProviderConfig{
			"nebius": {Type: ProviderOpenAI, APIKey: "k"},
			"bm25":   {BaseURL: "http://localhost:8000"},
		}},
	}
	cfg.ApplyDefaults()

	if cfg.Server.Port != 9000 || cfg.Server.Transport != TransportStdio {
		t.Errorf("server overridden: %+v", cfg.Server)
	}
	if cfg.Database.K != 10 || cfg.Database.DatabaseName != "market" {
		t.Errorf("database overridden: %+v", cfg.Database)
	}
	if cfg.Database.VectorWeight != 1 || cfg.Database.SparseWeight != 0 {
		t.Errorf("explicit weights overridden: %v/%v", cfg.Database.VectorWeight, cfg.Database.SparseWeight)
	}
	if cfg.Embedding.Providers["nebius"].Type != ProviderOpenAI {
		t.Errorf("explicit provider type overridden")
	}
	if cfg.Embedding.Providers["bm25"].Type != ProviderBM25 {
		t.Errorf("provider type must default to its name")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad transport", func(c *Config) { c.Server.Transport = "sse" }, "server.transport"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"qipc unsupported", func(c *Config) { c.Database.Mode = ModeQIPC }, "not supported"},
		{"bad protocol", func(c *Config) { c.Database.RestProtocol = "ftp" }, "rest_protocol"},
		{"bad weight", func(c *Config) { c.Database.VectorWeight = 1.5 }, "vector_weight"},
		{"openai without key", func(c *Config) {
			c.Embedding.Providers = map[string]ProviderConfig{"openai": {Type: ProviderOpenAI}}
		}, "api_key"},
		{"bm25 without url", func(c *Config) {
			c.Embedding.Providers = map[string]ProviderConfig{"bm25": {Type: ProviderBM25}}
		}, "base_url"},
		{"unknown provider type", func(c *Config) {
			c.Embedding.Providers = map[string]ProviderConfig{"st": {Type: "sentence_transformers"}}
		}, "type must be one of"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("KDBAI_TEST_DB_PORT", "9999")
	data := []byte(`
server:
  transport: ${KDBAI_TEST_TRANSPORT:-stdio}
database:
  port: ${KDBAI_TEST_DB_PORT}
  username: ${KDBAI_TEST_UNSET_USER}
embedding:
  providers:
    hashing:
      vocabulary_size: 1024
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Transport != TransportStdio {
		t.Errorf("default not applied: %q", cfg.Server.Transport)
	}
	if cfg.Database.Port != 9999 {
		t.Errorf("env not expanded: %d", cfg.Database.Port)
	}
	if cfg.Database.Username != "" {
		t.Errorf("unset env must expand to empty, got %q", cfg.Database.Username)
	}
	if cfg.Embedding.Providers["hashing"].VocabularySize != 1024 {
		t.Errorf("providers = %+v", cfg.Embedding.Providers)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	if err := os.WriteFile(path, []byte("database:\n  mode: qipc\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected validation error")
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected read error")
	}
}

func TestLoad_LocalConfig(t *testing.T) {
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.DatabaseName == "" {
		t.Error("expected database name")
	}
}
