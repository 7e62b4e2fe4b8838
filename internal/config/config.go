package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Transports.
const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
)

// Database API modes. Only REST is implemented.
const (
	ModeREST = "rest"
	ModeQIPC = "qipc"
)

// Embedding provider types.
const (
	ProviderOpenAI  = "openai"
	ProviderBM25    = "bm25"
	ProviderHashing = "hashing"
)

// Config holds the kdbai-mcp configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// ServerConfig holds MCP server settings.
type ServerConfig struct {
	Name            string   `yaml:"name"`
	Transport       string   `yaml:"transport"` // stdio, streamable-http
	Host            string   `yaml:"host"`
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	APIKeys         []string `yaml:"api_keys"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// DatabaseConfig holds KDB.AI connection and search settings.
type DatabaseConfig struct {
	Host              string  `yaml:"host"`
	Port              int     `yaml:"port"`
	Mode              string  `yaml:"mode"`          // rest
	RestProtocol      string  `yaml:"rest_protocol"` // http, https
	Username          string  `yaml:"username"`
	Password          string  `yaml:"password"`
	DatabaseName      string  `yaml:"database_name"`
	Retry             int     `yaml:"retry"`
	ReadinessTimeout  int     `yaml:"readiness_timeout_sec"`
	RequestTimeoutSec int     `yaml:"request_timeout_sec"`
	K                 int     `yaml:"k"`
	VectorWeight      float64 `yaml:"vector_weight"`
	SparseWeight      float64 `yaml:"sparse_weight"`
	EmbeddingCSVPath  string  `yaml:"embedding_csv_path"`
}

// Endpoint returns the REST base URL.
func (d DatabaseConfig) Endpoint() string {
	return fmt.Sprintf("%s://%s", d.RestProtocol, net.JoinHostPort(d.Host, strconv.Itoa(d.Port)))
}

// EmbeddingConfig holds embedding provider settings keyed by the provider
// name used in the embedding CSV.
type EmbeddingConfig struct {
	Providers map[string]ProviderConfig `yaml:"providers"`
}

// ProviderConfig holds one embedding provider. Type defaults to the map key.
type ProviderConfig struct {
	Type             string `yaml:"type"` // openai, bm25, hashing
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	DefaultModel     string `yaml:"default_model"`
	Dimensions       int    `yaml:"dimensions"`
	Language         string `yaml:"language"`
	AverageWordCount int    `yaml:"average_word_count"`
	VocabularySize   int    `yaml:"vocabulary_size"`
	TimeoutSec       int    `yaml:"timeout_sec"`
}

// CacheConfig holds the optional query embedding cache. Empty Addrs disables it.
type CacheConfig struct {
	Addrs    []string `yaml:"addrs"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
	TTLSec   int      `yaml:"ttl_sec"`
}

// Enabled reports whether a cache is configured.
func (c CacheConfig) Enabled() bool { return len(c.Addrs) > 0 }

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from the YAML file at configPath.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse expands environment variables in data, decodes it, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
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

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Server.Name == "" {
		c.Server.Name = "KDBAI_MCP_Server"
	}
	if c.Server.Transport == "" {
		c.Server.Transport = TransportStreamableHTTP
	}
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 7000
	}
	if c.Server.ReadTimeoutSec <= 0 {
		c.Server.ReadTimeoutSec = 30
	}
	if c.Server.WriteTimeoutSec <= 0 {
		c.Server.WriteTimeoutSec = 120
	}
	if c.Server.ShutdownSec <= 0 {
		c.Server.ShutdownSec = 10
	}

	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 8082
	}
	if c.Database.Mode == "" {
		c.Database.Mode = ModeREST
	}
	if c.Database.RestProtocol == "" {
		c.Database.RestProtocol = "http"
	}
	if c.Database.DatabaseName == "" {
		c.Database.DatabaseName = "default"
	}
	if c.Database.Retry <= 0 {
		c.Database.Retry = 2
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.RequestTimeoutSec <= 0 {
		c.Database.RequestTimeoutSec = 30
	}
	if c.Database.K <= 0 {
		c.Database.K = 5
	}
	if c.Database.VectorWeight == 0 && c.Database.SparseWeight == 0 {
		c.Database.VectorWeight = 0.7
		c.Database.SparseWeight = 0.3
	}
	if c.Database.EmbeddingCSVPath == "" {
		c.Database.EmbeddingCSVPath = "config/embeddings.csv"
	}

	for name, p := range c.Embedding.Providers {
		if p.Type == "" {
			p.Type = name
		}
		if p.TimeoutSec <= 0 {
			p.TimeoutSec = 30
		}
		c.Embedding.Providers[name] = p
	}

	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 86400
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	switch c.Server.Transport {
	case TransportStdio, TransportStreamableHTTP:
	default:
		return fmt.Errorf("server.transport must be %q or %q, got %q",
			TransportStdio, TransportStreamableHTTP, c.Server.Transport)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	switch c.Database.Mode {
	case ModeREST:
	case ModeQIPC:
		return fmt.Errorf("database.mode %q is not supported, use %q", ModeQIPC, ModeREST)
	default:
		return fmt.Errorf("database.mode must be %q, got %q", ModeREST, c.Database.Mode)
	}
	if c.Database.RestProtocol != "http" && c.Database.RestProtocol != "https" {
		return fmt.Errorf("database.rest_protocol must be \"http\" or \"https\", got %q", c.Database.RestProtocol)
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("database.port must be between 1 and 65535, got %d", c.Database.Port)
	}
	if err := validateWeight("database.vector_weight", c.Database.VectorWeight); err != nil {
		return err
	}
	if err := validateWeight("database.sparse_weight", c.Database.SparseWeight); err != nil {
		return err
	}

	for name, p := range c.Embedding.Providers {
		switch p.Type {
		case ProviderOpenAI:
			if p.APIKey == "" {
				return fmt.Errorf("embedding.providers.%s.api_key is required", name)
			}
		case ProviderBM25:
			if p.BaseURL == "" {
				return fmt.Errorf("embedding.providers.%s.base_url is required", name)
			}
		case ProviderHashing:
		default:
			return fmt.Errorf("embedding.providers.%s.type must be one of %q, %q, %q, got %q",
				name, ProviderOpenAI, ProviderBM25, ProviderHashing, p.Type)
		}
	}
	return nil
}

func validateWeight(field string, w float64) error {
	if w < 0 || w > 1 {
		return fmt.Errorf("%s must be between 0 and 1, got %v", field, w)
	}
	return nil
}

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
