// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory name for forge configuration.
	DefaultConfigDir = ".forge"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultDatabaseFile is the SQLite database file name.
	DefaultDatabaseFile = "forge.db"
	// DefaultCacheDir is the report cache directory name.
	DefaultCacheDir = "cache"
	// DefaultCollection is the Qdrant collection for character reference points.
	DefaultCollection = "forge_characters"
)

// Gateway providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderNone   = "none"
)

// Duration wraps time.Duration so YAML can carry values like "3s".
type Duration time.Duration

// UnmarshalYAML accepts either a duration string or integer nanoseconds.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("parsing duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := node.Decode(&n); err != nil {
		return fmt.Errorf("parsing duration: %w", err)
	}
	*d = Duration(n)
	return nil
}

// MarshalYAML renders the duration in its string form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	Gateway  GatewayConfig  `yaml:"gateway,omitempty"`
	Embedder EmbedderConfig `yaml:"embedder,omitempty"`
	Qdrant   QdrantConfig   `yaml:"qdrant,omitempty"`
	SQLite   SQLiteConfig   `yaml:"sqlite,omitempty"`
	Cache    CacheConfig    `yaml:"cache,omitempty"`
	HTTP     HTTPConfig     `yaml:"http,omitempty"`
}

// Validate validates every section.
func (c *Config) Validate() error {
	if err := c.Gateway.Validate(); err != nil {
		return fmt.Errorf("gateway: %w", err)
	}
	if err := c.Qdrant.Validate(); err != nil {
		return fmt.Errorf("qdrant: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	return nil
}

// GatewayConfig holds configuration for the AI enhancement provider.
type GatewayConfig struct {
	Provider      string   `yaml:"provider,omitempty"`
	Model         string   `yaml:"model,omitempty"`
	APIKey        string   `yaml:"api_key,omitempty"`
	TextTimeout   Duration `yaml:"text_timeout,omitempty"`
	VisionTimeout Duration `yaml:"vision_timeout,omitempty"`
}

// Validate validates the gateway configuration.
func (c *GatewayConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Provider, validation.In(ProviderOpenAI, ProviderGemini, ProviderNone)),
		validation.Field(&c.TextTimeout, validation.Min(Duration(0))),
		validation.Field(&c.VisionTimeout, validation.Min(Duration(0))),
	)
}

// Enabled reports whether an AI provider is configured.
func (c *GatewayConfig) Enabled() bool {
	return c.Provider != "" && c.Provider != ProviderNone && c.APIKey != ""
}

// EmbedderConfig holds configuration for the embedding provider.
type EmbedderConfig struct {
	Provider string `yaml:"provider,omitempty"`
	Model    string `yaml:"model,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
}

// QdrantConfig holds configuration for the Qdrant vector database.
type QdrantConfig struct {
	Host       string `yaml:"host,omitempty"`
	Port       int    `yaml:"port,omitempty"`
	Collection string `yaml:"collection,omitempty"`
	APIKey     string `yaml:"api_key,omitempty"`
}

// Validate validates the Qdrant configuration.
func (c *QdrantConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// Address returns the host:port gRPC address.
func (c *QdrantConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SQLiteConfig holds configuration for the SQLite database.
type SQLiteConfig struct {
	// Path overrides the default <base>/.forge/forge.db location.
	Path string `yaml:"path,omitempty"`
}

// CacheConfig holds configuration for the on-disk continuity report cache.
type CacheConfig struct {
	// Dir overrides the default <base>/.forge/cache location.
	Dir string `yaml:"dir,omitempty"`
	// TTL bounds how long a cached report stays valid.
	TTL Duration `yaml:"ttl,omitempty"`
	// Disabled turns report caching off entirely.
	Disabled bool `yaml:"disabled,omitempty"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TTL, validation.Min(Duration(0))),
	)
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port,omitempty"`
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// Address returns the HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{
			Provider:      ProviderOpenAI,
			Model:         "gpt-4o-mini",
			TextTimeout:   Duration(3 * time.Second),
			VisionTimeout: Duration(5 * time.Second),
		},
		Embedder: EmbedderConfig{
			Provider: "openai",
			Model:    "text-embedding-3-small",
		},
		Qdrant: QdrantConfig{
			Host:       "localhost",
			Port:       6334,
			Collection: DefaultCollection,
		},
		Cache: CacheConfig{
			TTL: Duration(24 * time.Hour),
		},
		HTTP: HTTPConfig{
			Port: 8080,
		},
	}
}

// Load loads configuration from the .forge directory in the given path.
func Load(basePath string) (*Config, error) {
	configFile := ConfigFilePath(basePath)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'forge init' first)", configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Start with defaults
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides fills API keys from the environment when the file leaves
// them empty.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		if c.Gateway.Provider == ProviderOpenAI && c.Gateway.APIKey == "" {
			c.Gateway.APIKey = key
		}
		if c.Embedder.APIKey == "" {
			c.Embedder.APIKey = key
		}
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		if c.Gateway.Provider == ProviderGemini && c.Gateway.APIKey == "" {
			c.Gateway.APIKey = key
		}
	}
	if key := os.Getenv("QDRANT_API_KEY"); key != "" {
		if c.Qdrant.APIKey == "" {
			c.Qdrant.APIKey = key
		}
	}
}

// ConfigDir returns the path to the .forge config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// SQLitePath returns the database path, honoring the configured override.
func (c *Config) SQLitePath(basePath string) string {
	if c.SQLite.Path != "" {
		return c.SQLite.Path
	}
	return filepath.Join(basePath, DefaultConfigDir, DefaultDatabaseFile)
}

// CachePath returns the report cache directory, honoring the configured
// override.
func (c *Config) CachePath(basePath string) string {
	if c.Cache.Dir != "" {
		return c.Cache.Dir
	}
	return filepath.Join(basePath, DefaultConfigDir, DefaultCacheDir)
}

// Exists checks if a forge config exists in the given path.
func Exists(basePath string) bool {
	_, err := os.Stat(ConfigFilePath(basePath))
	return err == nil
}
