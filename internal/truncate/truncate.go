// Package truncate trims verbose tool descriptions before embedding.
//
// DESIGN: Many tool servers append schema dumps or usage examples to their
// descriptions after a delimiter. Embedding the full text lets that noise
// dominate the vector, so the canonical embedding text keeps only the prose
// prefix, unless the prefix would be too short to carry any signal.
package truncate

import "strings"

// Default configuration values.
const (
	DefaultDelimiter  = "\n"
	DefaultOccurrence = 1
	DefaultMinLength  = 5
)

// Config controls description truncation.
type Config struct {
	Enabled    bool   `yaml:"enabled"`
	Delimiter  string `yaml:"delimiter"`
	Occurrence int    `yaml:"occurrence"`
	MinLength  int    `yaml:"minLength"`
}

// DefaultConfig returns the standard truncation settings.
func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		Delimiter:  DefaultDelimiter,
		Occurrence: DefaultOccurrence,
		MinLength:  DefaultMinLength,
	}
}

// normalized fills zero values so a partially-specified YAML block behaves
// like the defaults.
func (c Config) normalized() Config {
	if c.Delimiter == "" {
		c.Delimiter = DefaultDelimiter
	}
	if c.Occurrence < 1 {
		c.Occurrence = DefaultOccurrence
	}
	if c.MinLength < 0 {
		c.MinLength = 0
	}
	return c
}

// Apply truncates description at the configured delimiter occurrence.
//
// Starting at the Occurrence-th delimiter, each occurrence is tested in
// turn: if the whitespace-trimmed prefix before it is at least MinLength
// characters, that prefix is returned. If no occurrence yields an
// acceptable prefix, the original description is returned unchanged.
func (c Config) Apply(description string) string {
	if !c.Enabled || description == "" {
		return description
	}
	cfg := c.normalized()

	occurrence := 0
	offset := 0
	for {
		idx := strings.Index(description[offset:], cfg.Delimiter)
		if idx < 0 {
			return description
		}
		cut := offset + idx
		occurrence++
		if occurrence >= cfg.Occurrence {
			prefix := strings.TrimSpace(description[:cut])
			if len(prefix) >= cfg.MinLength {
				return prefix
			}
		}
		offset = cut + len(cfg.Delimiter)
		if offset >= len(description) {
			return description
		}
	}
}
