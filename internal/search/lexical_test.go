package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDocs() []Document {
	return []Document{
		{
			UniqueID:    "weather::get_forecast",
			ToolID:      "weather",
			Method:      "get_forecast",
			Description: "Returns the forecast for a city.",
		},
		{
			UniqueID:    "git::commit",
			ToolID:      "git",
			Method:      "commit",
			Description: "Create a git commit.",
		},
		{
			UniqueID:              "fs::read_file",
			ToolID:                "fs",
			Method:                "read_file",
			Description:           "Read a file from disk.",
			ParameterDescriptions: "Absolute path of the file to read",
		},
	}
}

func TestSearch_RanksMatchingToolFirst(t *testing.T) {
	ix := NewLexicalIndex(testDocs(), DefaultFuzzy, DefaultDescriptionBoost)

	hits := ix.Search("forecast")
	require.NotEmpty(t, hits)
	assert.Equal(t, "weather::get_forecast", hits[0].UniqueID)

	for _, h := range hits {
		assert.NotEqual(t, "git::commit", h.UniqueID)
	}
}

func TestSearch_WholeMethodNameQuery(t *testing.T) {
	ix := NewLexicalIndex(testDocs(), DefaultFuzzy, DefaultDescriptionBoost)

	hits := ix.Search("get_forecast")
	require.NotEmpty(t, hits)
	assert.Equal(t, "weather::get_forecast", hits[0].UniqueID)
}

func TestSearch_TokensAreOrCombined(t *testing.T) {
	ix := NewLexicalIndex(testDocs(), DefaultFuzzy, DefaultDescriptionBoost)

	hits := ix.Search("forecast commit")
	ids := make(map[string]bool)
	for _, h := range hits {
		ids[h.UniqueID] = true
	}
	assert.True(t, ids["weather::get_forecast"])
	assert.True(t, ids["git::commit"])
}

func TestSearch_PrefixMatching(t *testing.T) {
	ix := NewLexicalIndex(testDocs(), 0, DefaultDescriptionBoost)

	hits := ix.Search("forec")
	require.NotEmpty(t, hits)
	assert.Equal(t, "weather::get_forecast", hits[0].UniqueID)
}

func TestSearch_FuzzyToleratesTypo(t *testing.T) {
	// fuzzy=0.2 over an 8-letter token allows one edit.
	ix := NewLexicalIndex(testDocs(), 0.2, DefaultDescriptionBoost)
	hits := ix.Search("forecsst")
	require.NotEmpty(t, hits)
	assert.Equal(t, "weather::get_forecast", hits[0].UniqueID)

	// fuzzy=0 requires exact or prefix matches only.
	strict := NewLexicalIndex(testDocs(), 0, DefaultDescriptionBoost)
	assert.Empty(t, strict.Search("forecsst"))
}

func TestSearch_ParameterDescriptionsAreIndexed(t *testing.T) {
	ix := NewLexicalIndex(testDocs(), DefaultFuzzy, DefaultDescriptionBoost)

	hits := ix.Search("absolute path")
	require.NotEmpty(t, hits)
	assert.Equal(t, "fs::read_file", hits[0].UniqueID)
}

func TestSearch_DescriptionBoostOrdersResults(t *testing.T) {
	docs := []Document{
		{UniqueID: "a", Method: "transfer", Description: "Moves data."},
		{UniqueID: "b", Method: "sync", Description: "transfer files between hosts"},
	}

	boosted := NewLexicalIndex(docs, 0, 5.0)
	hits := boosted.Search("transfer")
	require.Len(t, hits, 2)
	assert.Equal(t, "b", hits[0].UniqueID)

	flat := NewLexicalIndex(docs, 0, 1.0)
	hits = flat.Search("transfer")
	require.Len(t, hits, 2)
	// Without the boost the method match ties the description match;
	// stable sort preserves document order.
	assert.Equal(t, "a", hits[0].UniqueID)
}

func TestSearch_EmptyQuery(t *testing.T) {
	ix := NewLexicalIndex(testDocs(), DefaultFuzzy, DefaultDescriptionBoost)
	assert.Empty(t, ix.Search(""))
	assert.Empty(t, ix.Search("   "))
}

func TestSearch_EmptyIndex(t *testing.T) {
	ix := NewLexicalIndex(nil, DefaultFuzzy, DefaultDescriptionBoost)
	assert.Equal(t, 0, ix.Len())
	assert.Empty(t, ix.Search("anything"))
}

func TestNormalizeScores(t *testing.T) {
	hits := []Hit{{UniqueID: "a", Score: 8}, {UniqueID: "b", Score: 4}, {UniqueID: "c", Score: 2}}

	norm := NormalizeScores(hits)
	require.Len(t, norm, 3)
	assert.Equal(t, 1.0, norm[0].Score)
	assert.Equal(t, 0.5, norm[1].Score)
	assert.Equal(t, 0.25, norm[2].Score)

	// Input is untouched.
	assert.Equal(t, 8.0, hits[0].Score)
}

func TestNormalizeScores_Empty(t *testing.T) {
	assert.Empty(t, NormalizeScores(nil))
}
