package embeddings

// DefaultDimensions is assumed for models not in the table. The
// authoritative dimension is always the length of the vector actually
// returned; this lookup only serves sanity checks and schema sizing.
const DefaultDimensions = 1024

// modelDimensions maps known embedding models to their vector size.
var modelDimensions = map[string]int{
	"BAAI/bge-m3":                    1024,
	"BAAI/bge-large-en-v1.5":         1024,
	"BAAI/bge-base-en-v1.5":          768,
	"BAAI/bge-small-en-v1.5":         384,
	"text-embedding-3-small":         1536,
	"text-embedding-3-large":         3072,
	"text-embedding-ada-002":         1536,
	"all-MiniLM-L6-v2":               384,
	"nomic-embed-text":               768,
	"mxbai-embed-large":              1024,
	"intfloat/multilingual-e5-large": 1024,
}

// ModelDimensions returns the vector dimensionality for a model name,
// falling back to DefaultDimensions for unknown models.
func ModelDimensions(model string) int {
	if d, ok := modelDimensions[model]; ok {
		return d
	}
	return DefaultDimensions
}
