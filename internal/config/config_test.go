package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolmux/toolmux/internal/search"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, SearchModeKeyword, cfg.Smart.SearchMode)
	assert.Equal(t, search.DefaultFuzzy, cfg.FuzzyValue())
	assert.Equal(t, search.DefaultDescriptionBoost, cfg.DescriptionBoostValue())
	assert.True(t, cfg.TruncationValue().Enabled)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9999
namespace:
  uuid: "b1f7c0de-0000-4000-8000-000000000001"
  name: staging
database:
  url: "postgres://localhost/toolmux"
smart:
  searchMode: embeddings
  fuzzy: 0.1
  descriptionBoost: 3.5
  dynamicLimit:
    maxResults: 5
    minScore: 0.4
    dropThreshold: 0.25
  embedding:
    apiUrl: "https://embed.example.com/v1"
    model: "BAAI/bge-m3"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "staging", cfg.Namespace.Name)
	assert.Equal(t, SearchModeEmbeddings, cfg.Smart.SearchMode)
	assert.Equal(t, 0.1, cfg.FuzzyValue())
	assert.Equal(t, 3.5, cfg.DescriptionBoostValue())
	assert.True(t, cfg.Smart.Embedding.Configured())

	dl := cfg.EffectiveDynamicLimit()
	assert.Equal(t, 5, dl.MaxResults)
	assert.Equal(t, 0.4, dl.MinScore)
	assert.Equal(t, 0.25, dl.DropThreshold)
}

func TestLoad_EnvOverridesSecrets(t *testing.T) {
	t.Setenv("TOOLMUX_DATABASE_URL", "postgres://env-host/db")
	t.Setenv("TOOLMUX_EMBEDDING_API_KEY", "env-key")

	path := writeConfig(t, `
database:
  url: "postgres://file-host/db"
smart:
  embedding:
    apiKey: file-key
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env-host/db", cfg.Database.URL)
	assert.Equal(t, "env-key", cfg.Smart.Embedding.APIKey)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	require.Error(t, err)
}

func TestValidate_RejectsUnknownSearchMode(t *testing.T) {
	cfg := Default()
	cfg.Smart.SearchMode = "semantic"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "searchMode")
}

func TestValidate_EmptySearchModeDefaults(t *testing.T) {
	cfg := Default()
	cfg.Smart.SearchMode = ""
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultSearchMode, cfg.Smart.SearchMode)
}

func TestValidate_FuzzyRange(t *testing.T) {
	cfg := Default()
	bad := 1.5
	cfg.Smart.Fuzzy = &bad
	require.Error(t, cfg.Validate())

	neg := -0.1
	cfg.Smart.Fuzzy = &neg
	require.Error(t, cfg.Validate())
}

func TestValidate_BoostRange(t *testing.T) {
	cfg := Default()
	bad := -1.0
	cfg.Smart.DescriptionBoost = &bad
	require.Error(t, cfg.Validate())
}

func TestValidate_EmbeddingsModeRequiresDatabase(t *testing.T) {
	cfg := Default()
	cfg.Smart.SearchMode = SearchModeEmbeddings
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.url")

	cfg.Database.URL = "postgres://localhost/toolmux"
	require.NoError(t, cfg.Validate())
}

func TestEffectiveDynamicLimit_LegacyDiscoverLimitSeedsMaxResults(t *testing.T) {
	cfg := Default()
	cfg.Smart.DynamicLimit = search.DynamicLimit{}
	cfg.Smart.DiscoverLimit = 7

	dl := cfg.EffectiveDynamicLimit()
	assert.Equal(t, 7, dl.MaxResults)
	assert.Equal(t, search.DefaultMinScore, dl.MinScore)
	assert.Equal(t, search.DefaultDropThreshold, dl.DropThreshold)
}

func TestEffectiveDynamicLimit_ExplicitMaxResultsWins(t *testing.T) {
	cfg := Default()
	cfg.Smart.DynamicLimit.MaxResults = 3
	cfg.Smart.DiscoverLimit = 7

	assert.Equal(t, 3, cfg.EffectiveDynamicLimit().MaxResults)
}

func TestEffectiveDynamicLimit_AllUnsetFallsBackToDefaults(t *testing.T) {
	cfg := Default()
	cfg.Smart.DynamicLimit = search.DynamicLimit{}
	cfg.Smart.DiscoverLimit = 0

	dl := cfg.EffectiveDynamicLimit()
	assert.Equal(t, search.DefaultMaxResults, dl.MaxResults)
}
