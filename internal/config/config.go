package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the haseef API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Records   RecordsConfig   `yaml:"records"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Assistant AssistantConfig `yaml:"assistant"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys    []string `yaml:"api_keys"`
	CookieName string   `yaml:"cookie_name"` // session cookie checked when no bearer header is sent
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// PipelineConfig holds search pipeline tuning.
type PipelineConfig struct {
	SuggestLimit          int `yaml:"suggest_limit"`
	SuggestPrefixQuota    int `yaml:"suggest_prefix_quota"`
	SuggestSubstringQuota int `yaml:"suggest_substring_quota"`
	CorrectionMinLength   int `yaml:"correction_min_length"` // shortest query given a did-you-mean
	DefaultPageSize       int `yaml:"default_page_size"`
	MaxPageSize           int `yaml:"max_page_size"`
	RecentDays            int `yaml:"recent_days"` // window of period=last_week
}

// RecordsConfig holds record batch settings.
type RecordsConfig struct {
	// SeedFiles maps a record kind to a JSON or CSV file loaded when the store has no batch.
	SeedFiles      map[string]string `yaml:"seed_files"`
	MaxUploadBytes int64             `yaml:"max_upload_bytes"`
}

// ArchiveConfig holds raw upload archive settings.
type ArchiveConfig struct {
	Driver          string `yaml:"driver"` // s3, memory, none (default: none)
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	ForcePathStyle  bool   `yaml:"force_path_style"`
}

// AssistantConfig holds AI assistant settings. An empty APIKey disables the assistant.
type AssistantConfig struct {
	APIKey            string       `yaml:"api_key"`
	BaseURL           string       `yaml:"base_url"`
	Model             string       `yaml:"model"`
	Instruction       string       `yaml:"instruction"`
	MaxContextRecords int          `yaml:"max_context_records"`
	TimeoutSec        int          `yaml:"timeout_sec"`
	CacheTTLSec       int          `yaml:"cache_ttl_sec"` // 0 disables the response cache
	Budget            BudgetConfig `yaml:"budget"`
}

// BudgetConfig holds assistant token budget settings. Zero limits mean unlimited.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"`
	Action            string `yaml:"action"` // warn, reject (default: warn)
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes a YAML document, expanding ${VAR} references, then applies
// defaults and validates.
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
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "valkey"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Auth.CookieName == "" {
		c.Auth.CookieName = "access_token"
	}
	if c.Pipeline.SuggestLimit <= 0 {
		c.Pipeline.SuggestLimit = 8
	}
	if c.Pipeline.SuggestPrefixQuota <= 0 {
		c.Pipeline.SuggestPrefixQuota = 6
	}
	if c.Pipeline.SuggestSubstringQuota <= 0 {
		c.Pipeline.SuggestSubstringQuota = 4
	}
	if c.Pipeline.CorrectionMinLength <= 0 {
		c.Pipeline.CorrectionMinLength = 3
	}
	if c.Pipeline.DefaultPageSize <= 0 {
		c.Pipeline.DefaultPageSize = 50
	}
	if c.Pipeline.MaxPageSize <= 0 {
		c.Pipeline.MaxPageSize = 1000
	}
	if c.Pipeline.RecentDays <= 0 {
		c.Pipeline.RecentDays = 7
	}
	if c.Records.MaxUploadBytes <= 0 {
		c.Records.MaxUploadBytes = 32 << 20
	}
	if c.Archive.Driver == "" {
		c.Archive.Driver = "none"
	}
	if c.Archive.Prefix == "" {
		c.Archive.Prefix = "uploads/"
	}
	if c.Archive.Region == "" {
		c.Archive.Region = "us-east-1"
	}
	if c.Assistant.Model == "" {
		c.Assistant.Model = "gpt-4o-mini"
	}
	if c.Assistant.MaxContextRecords <= 0 {
		c.Assistant.MaxContextRecords = 200
	}
	if c.Assistant.TimeoutSec <= 0 {
		c.Assistant.TimeoutSec = 60
	}
	if c.Assistant.Budget.Action == "" {
		c.Assistant.Budget.Action = "warn"
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "haseef:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	switch c.Database.Driver {
	case "valkey", "redis":
	default:
		return fmt.Errorf("database.driver must be \"valkey\" or \"redis\", got %q", c.Database.Driver)
	}
	if c.Pipeline.DefaultPageSize > c.Pipeline.MaxPageSize {
		return fmt.Errorf(
			"pipeline.default_page_size (%d) exceeds pipeline.max_page_size (%d)",
			c.Pipeline.DefaultPageSize, c.Pipeline.MaxPageSize,
		)
	}
	for kind, path := range c.Records.SeedFiles {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json", ".csv":
			// ok
		default:
			return fmt.Errorf("records.seed_files.%s must be a .json or .csv file, got %q", kind, path)
		}
	}
	switch c.Archive.Driver {
	case "none", "memory":
	case "s3":
		if c.Archive.Bucket == "" {
			return fmt.Errorf("archive.bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("archive.driver must be \"s3\", \"memory\" or \"none\", got %q", c.Archive.Driver)
	}
	switch c.Assistant.Budget.Action {
	case "warn", "reject":
	default:
		return fmt.Errorf("assistant.budget.action must be \"warn\" or \"reject\", got %q", c.Assistant.Budget.Action)
	}
	if c.Assistant.CacheTTLSec < 0 {
		return fmt.Errorf("assistant.cache_ttl_sec must not be negative, got %d", c.Assistant.CacheTTLSec)
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
