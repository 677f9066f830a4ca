// Package config - defaults.go centralizes magic numbers and default values.
//
// DESIGN: All default values that appear in multiple places should be
// defined here. This makes configuration more maintainable and auditable.
package config

import "time"

// =============================================================================
// SEARCH MODES
// =============================================================================

// SearchModeKeyword uses the in-memory lexical index.
const SearchModeKeyword = "keyword"

// SearchModeEmbeddings uses pgvector similarity search with lexical fallback.
const SearchModeEmbeddings = "embeddings"

// DefaultSearchMode is used when the endpoint config omits a mode.
const DefaultSearchMode = SearchModeKeyword

// =============================================================================
// DISCOVERY DEFAULTS
// =============================================================================

// DefaultDiscoverLimit is the legacy result cap. dynamicLimit.maxResults
// supersedes it; it only seeds MaxResults when that is unset.
const DefaultDiscoverLimit = 10

// DefaultDiscoverDescription is the advertised description of the discover
// tool, overridable per endpoint.
const DefaultDiscoverDescription = "Search for available tools by describing what you need in natural language. Returns matching tool descriptors; call execute to invoke one."

// ExecuteDescription is the fixed advertised description of the execute
// tool.
const ExecuteDescription = "Execute a tool previously returned by discover, identified by its toolId and method."

// =============================================================================
// EMBEDDING RECONCILIATION
// =============================================================================

// ReconcileBatchSize caps texts per embedding request during
// reconciliation. The client ceiling is 100; 50 leaves headroom.
const ReconcileBatchSize = 50

// ReconcileBatchPause is the inter-batch pause, friendly to rate-limited
// providers.
const ReconcileBatchPause = 100 * time.Millisecond

// VectorOverfetchFactor multiplies maxResults when querying the vector
// store, giving the dynamic-limit selector pruning headroom.
const VectorOverfetchFactor = 2

// =============================================================================
// HTTP SERVER
// =============================================================================

// DefaultServerPort is the smart-proxy HTTP port.
const DefaultServerPort = 18090

// DefaultServerReadTimeout bounds slow request bodies.
const DefaultServerReadTimeout = 30 * time.Second

// DefaultServerWriteTimeout is generous because execute forwards to
// downstream tools of unknown latency.
const DefaultServerWriteTimeout = 5 * time.Minute

// MaxRequestBodySize is the maximum allowed request body (10MB).
const MaxRequestBodySize = 10 * 1024 * 1024
