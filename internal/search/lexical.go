// Package search implements the two ranking primitives of the smart proxy:
// the in-memory lexical index and the dynamic-limit selector that truncates
// a ranked list at its first significant score drop.
package search

import (
	"math"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Lexical scoring defaults.
const (
	// DefaultFuzzy is the fraction of a query token's length allowed as
	// Levenshtein edit distance when matching indexed terms.
	DefaultFuzzy = 0.2

	// DefaultDescriptionBoost multiplies matches on the description field.
	DefaultDescriptionBoost = 2.0
)

// Document is one indexable tool entry.
type Document struct {
	// UniqueID is serverName::originalName, the key of the in-memory
	// tool table.
	UniqueID string

	// ToolID is the owning server name, stored for result assembly.
	ToolID string

	Method                string
	Description           string
	ParameterDescriptions string
}

// Hit is a lexical search result with its raw score.
type Hit struct {
	UniqueID string
	Score    float64
}

// fieldWeight pairs a tokenized field with its score multiplier.
type fieldWeight struct {
	terms  []string
	weight float64
}

type indexedDoc struct {
	uniqueID string
	fields   []fieldWeight
}

// LexicalIndex is an immutable fuzzy index over bound tools. It is rebuilt
// in full on every bind and shared read-only between concurrent discovers.
type LexicalIndex struct {
	docs  []indexedDoc
	fuzzy float64
}

// NewLexicalIndex builds an index over docs. fuzzy must be in [0,1];
// descriptionBoost must be >= 0. Out-of-range values fall back to defaults.
func NewLexicalIndex(docs []Document, fuzzy, descriptionBoost float64) *LexicalIndex {
	if fuzzy < 0 || fuzzy > 1 {
		fuzzy = DefaultFuzzy
	}
	if descriptionBoost < 0 {
		descriptionBoost = DefaultDescriptionBoost
	}

	ix := &LexicalIndex{fuzzy: fuzzy}
	for _, d := range docs {
		methodTerms := tokenize(d.Method)
		// Index the whole method name as a term too so exact-name
		// queries like "get_forecast" score above partial overlaps.
		if m := strings.ToLower(strings.TrimSpace(d.Method)); m != "" && !contains(methodTerms, m) {
			methodTerms = append(methodTerms, m)
		}
		ix.docs = append(ix.docs, indexedDoc{
			uniqueID: d.UniqueID,
			fields: []fieldWeight{
				{terms: methodTerms, weight: 1.0},
				{terms: tokenize(d.Description), weight: descriptionBoost},
				{terms: tokenize(d.ParameterDescriptions), weight: 1.0},
			},
		})
	}
	return ix
}

// Len returns the number of indexed documents.
func (ix *LexicalIndex) Len() int {
	return len(ix.docs)
}

// Search scores every document against the query and returns hits with a
// positive score, ordered by raw score descending. Query tokens are
// OR-combined: any token matching any field contributes.
func (ix *LexicalIndex) Search(query string) []Hit {
	tokens := tokenize(query)
	if q := strings.ToLower(strings.TrimSpace(query)); q != "" && !contains(tokens, q) {
		// Preserve whole-query terms the tokenizer would split,
		// e.g. "get_forecast".
		tokens = append(tokens, q)
	}
	if len(tokens) == 0 {
		return nil
	}

	hits := make([]Hit, 0, len(ix.docs))
	for _, doc := range ix.docs {
		score := 0.0
		for _, tok := range tokens {
			for _, fw := range doc.fields {
				score += fw.weight * float64(countMatches(fw.terms, tok, ix.fuzzy))
			}
		}
		if score > 0 {
			hits = append(hits, Hit{UniqueID: doc.uniqueID, Score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits
}

// countMatches counts indexed terms matched by one query token. A term
// matches on equality, on the token being a prefix of the term (partial
// typing), or on Levenshtein distance within the fuzzy tolerance.
func countMatches(terms []string, token string, fuzzy float64) int {
	allowed := int(math.Floor(fuzzy * float64(len(token))))
	n := 0
	for _, term := range terms {
		switch {
		case term == token:
			n++
		case strings.HasPrefix(term, token):
			n++
		case allowed > 0 && levenshtein.ComputeDistance(token, term) <= allowed:
			n++
		}
	}
	return n
}

// NormalizeScores divides every score by the top score, mapping raw lexical
// scores into (0,1] so the dynamic-limit selector treats lexical and vector
// results uniformly. Input must be ordered score-descending.
func NormalizeScores(hits []Hit) []Hit {
	if len(hits) == 0 || hits[0].Score == 0 {
		return hits
	}
	top := hits[0].Score
	out := make([]Hit, len(hits))
	for i, h := range hits {
		out[i] = Hit{UniqueID: h.UniqueID, Score: h.Score / top}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// tokenize splits text into lowercase alphanumeric words of length >= 2.
func tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		isAlphaNum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		return !isAlphaNum
	})
	filtered := words[:0]
	for _, w := range words {
		if len(w) >= 2 {
			filtered = append(filtered, w)
		}
	}
	return filtered
}
