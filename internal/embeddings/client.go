// Package embeddings provides a client for OpenAI-compatible /embeddings
// endpoints and the small amount of vector math the proxy needs.
//
// FILES:
//   - client.go: HTTP client, batching rules, error types
//   - models.go: known model dimensions
package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"
)

// DefaultModel is used when the endpoint configuration omits one.
const DefaultModel = "BAAI/bge-m3"

// MaxBatchSize is the hard per-request ceiling on input texts. Callers are
// responsible for chunking; exceeding it is a programming error.
const MaxBatchSize = 100

// ErrBatchTooLarge is returned when more than MaxBatchSize texts are
// submitted in one request.
var ErrBatchTooLarge = errors.New("embeddings: batch exceeds maximum size")

// APIError is a non-2xx response from the embedding service.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("embeddings: API error status=%d body=%s", e.Status, e.Body)
}

// Client calls an OpenAI-shaped embeddings endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(client *Client) {
		client.httpClient.Timeout = timeout
	}
}

// NewClient creates an embedding client. model defaults to DefaultModel.
func NewClient(baseURL, apiKey, model string, opts ...ClientOption) *Client {
	if model == "" {
		model = DefaultModel
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"`
}

type embeddingDatum struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type embeddingResponse struct {
	Data  []embeddingDatum `json:"data"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

// GenerateEmbeddings embeds a batch of texts, returning one vector per text
// in input order. Empty input returns an empty slice without a request.
func (c *Client) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if len(texts) > MaxBatchSize {
		return nil, fmt.Errorf("%w: %d texts, maximum %d", ErrBatchTooLarge, len(texts), MaxBatchSize)
	}

	resp, err := c.post(ctx, embeddingRequest{Model: c.model, Input: texts})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings: expected %d vectors, got %d", len(texts), len(resp.Data))
	}

	// The server is not required to preserve order; the index field is
	// authoritative.
	sort.Slice(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// GenerateSingleEmbedding embeds one text.
func (c *Client) GenerateSingleEmbedding(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.GenerateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embeddings: empty response for single text")
	}
	return vectors[0], nil
}

func (c *Client) post(ctx context.Context, payload embeddingRequest) (*embeddingResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("embeddings: decode response: %w", err)
	}
	return &parsed, nil
}

// CosineSimilarity computes the cosine of the angle between two vectors.
// It is exposed for in-process fallback ranking; the hot path ranks inside
// the vector store instead. Mismatched or zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
