// Configuration loading for the smart proxy.
//
// FILES:
//   - config.go:   Config struct, YAML loading, env overrides, validation
//   - defaults.go: centralized default values
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/toolmux/toolmux/internal/search"
	"github.com/toolmux/toolmux/internal/truncate"
)

// ServerConfig controls the HTTP surface.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
}

// NamespaceConfig identifies the bound namespace.
type NamespaceConfig struct {
	UUID string `yaml:"uuid"`
	Name string `yaml:"name"`
}

// DatabaseConfig holds the vector store connection.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// LoggingConfig controls zerolog output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// EmbeddingConfig points at an OpenAI-shaped embeddings endpoint.
type EmbeddingConfig struct {
	APIKey string `yaml:"apiKey"`
	APIURL string `yaml:"apiUrl"`
	Model  string `yaml:"model"`
}

// Configured reports whether the endpoint is usable for vector search.
func (e EmbeddingConfig) Configured() bool {
	return e.APIURL != ""
}

// SmartConfig is the per-endpoint smart proxy configuration surface.
type SmartConfig struct {
	SearchMode          string              `yaml:"searchMode"`
	Fuzzy               *float64            `yaml:"fuzzy"`
	DescriptionBoost    *float64            `yaml:"descriptionBoost"`
	DiscoverDescription string              `yaml:"discoverDescription"`
	DiscoverLimit       int                 `yaml:"discoverLimit"` // deprecated, see dynamicLimit
	DynamicLimit        search.DynamicLimit `yaml:"dynamicLimit"`
	Embedding           EmbeddingConfig     `yaml:"embedding"`
	Truncation          *truncate.Config    `yaml:"truncation"`
}

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Namespace NamespaceConfig `yaml:"namespace"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	Smart     SmartConfig     `yaml:"smart"`
}

// Default returns a fully-populated configuration.
func Default() *Config {
	fuzzy := search.DefaultFuzzy
	boost := search.DefaultDescriptionBoost
	trunc := truncate.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Host:         "127.0.0.1",
			Port:         DefaultServerPort,
			ReadTimeout:  DefaultServerReadTimeout,
			WriteTimeout: DefaultServerWriteTimeout,
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Smart: SmartConfig{
			SearchMode:          DefaultSearchMode,
			Fuzzy:               &fuzzy,
			DescriptionBoost:    &boost,
			DiscoverDescription: DefaultDiscoverDescription,
			DiscoverLimit:       DefaultDiscoverLimit,
			DynamicLimit:        search.DefaultDynamicLimit(),
			Truncation:          &trunc,
		},
	}
}

// Load reads a YAML config file over the defaults and applies environment
// overrides for secrets. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	// Secrets prefer the environment over the file.
	if v := os.Getenv("TOOLMUX_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("TOOLMUX_EMBEDDING_API_KEY"); v != "" {
		cfg.Smart.Embedding.APIKey = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	switch c.Smart.SearchMode {
	case SearchModeKeyword, SearchModeEmbeddings:
	case "":
		c.Smart.SearchMode = DefaultSearchMode
	default:
		return fmt.Errorf("config: searchMode must be %q or %q, got %q",
			SearchModeKeyword, SearchModeEmbeddings, c.Smart.SearchMode)
	}

	if c.Smart.Fuzzy != nil && (*c.Smart.Fuzzy < 0 || *c.Smart.Fuzzy > 1) {
		return fmt.Errorf("config: fuzzy must be in [0,1], got %v", *c.Smart.Fuzzy)
	}
	if c.Smart.DescriptionBoost != nil && *c.Smart.DescriptionBoost < 0 {
		return fmt.Errorf("config: descriptionBoost must be >= 0, got %v", *c.Smart.DescriptionBoost)
	}
	if c.Smart.SearchMode == SearchModeEmbeddings && c.Database.URL == "" {
		return fmt.Errorf("config: searchMode %q requires database.url", SearchModeEmbeddings)
	}
	return nil
}

// FuzzyValue returns the fuzzy parameter or its default.
func (c *Config) FuzzyValue() float64 {
	if c.Smart.Fuzzy != nil {
		return *c.Smart.Fuzzy
	}
	return search.DefaultFuzzy
}

// DescriptionBoostValue returns the boost parameter or its default.
func (c *Config) DescriptionBoostValue() float64 {
	if c.Smart.DescriptionBoost != nil {
		return *c.Smart.DescriptionBoost
	}
	return search.DefaultDescriptionBoost
}

// TruncationValue returns the truncation config or its default.
func (c *Config) TruncationValue() truncate.Config {
	if c.Smart.Truncation != nil {
		return *c.Smart.Truncation
	}
	return truncate.DefaultConfig()
}

// EffectiveDynamicLimit resolves the deprecated discoverLimit against the
// dynamicLimit block: discoverLimit seeds MaxResults only when the richer
// config leaves it unset.
func (c *Config) EffectiveDynamicLimit() search.DynamicLimit {
	dl := c.Smart.DynamicLimit
	if dl.MaxResults <= 0 && c.Smart.DiscoverLimit > 0 {
		dl.MaxResults = c.Smart.DiscoverLimit
	}
	if dl.MaxResults <= 0 {
		dl.MaxResults = search.DefaultMaxResults
	}
	if dl.MinScore <= 0 {
		dl.MinScore = search.DefaultMinScore
	}
	if dl.DropThreshold <= 0 {
		dl.DropThreshold = search.DefaultDropThreshold
	}
	return dl
}
