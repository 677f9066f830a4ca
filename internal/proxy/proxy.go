// Smart proxy orchestrator.
//
// DESIGN: The proxy collapses an arbitrarily large transformed tool
// catalogue into a two-call surface:
//   - discover(queries): rank bound tools against a natural-language query
//   - execute(toolId, method, args): forward a call to the owning server
//
// FLOW:
//  1. Bind() receives the transformed catalogue and publishes an immutable
//     snapshot (tool table + lexical index) behind an atomic pointer
//  2. In embeddings mode, Bind() reconciles persisted vectors against the
//     canonical embedding text of each tool (reconcile.go)
//  3. Discover() tries the vector path (vector.go) and falls back to the
//     lexical index; any embedding failure downgrades the session to
//     keyword for its lifetime
//  4. Execute() resolves serverName::originalName and forwards verbatim
package proxy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/sjson"

	"github.com/toolmux/toolmux/internal/config"
	"github.com/toolmux/toolmux/internal/search"
	"github.com/toolmux/toolmux/internal/store"
	"github.com/toolmux/toolmux/internal/tokens"
	"github.com/toolmux/toolmux/internal/toolproto"
	"github.com/toolmux/toolmux/internal/utils"
)

// Fixed names of the smart surface tools.
const (
	DiscoverToolName = "discover"
	ExecuteToolName  = "execute"
)

// ErrToolNotFound is returned by Execute for unknown (toolId, method)
// pairs.
var ErrToolNotFound = errors.New("tool not found")

// EmbeddingClient is the slice of the embedding client the proxy needs.
// Satisfied by *embeddings.Client.
type EmbeddingClient interface {
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
	GenerateSingleEmbedding(ctx context.Context, text string) ([]float32, error)
	Model() string
}

// EmbeddingRepository is the slice of the vector store the proxy needs.
// Satisfied by *store.Repository.
type EmbeddingRepository interface {
	Upsert(ctx context.Context, rows []store.Row) error
	FindSimilar(ctx context.Context, namespaceUUID uuid.UUID, modelName string, queryVector []float32, limit int) ([]store.SimilarTool, error)
	ToolsNeedingEmbeddings(ctx context.Context, requested []store.RequestedEmbedding, namespaceUUID uuid.UUID, modelName string) ([]uuid.UUID, error)
}

// BoundTool is one catalogue entry handed to Bind, already filtered,
// renamed and rewritten by the upstream transformer.
type BoundTool struct {
	ServerName   string
	OriginalName string
	Descriptor   toolproto.Tool
	Conn         toolproto.Connection
	ToolUUID     uuid.UUID
}

// Descriptor is one discover result. Score is carried between ranking and
// selection and stripped from the wire shape.
type Descriptor struct {
	ToolID      string         `json:"toolId"`
	Method      string         `json:"method"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
	Score       float64        `json:"score"`
}

// SmartProxy owns one namespace binding and its search state.
type SmartProxy struct {
	cfg          *config.Config
	client       EmbeddingClient
	repo         EmbeddingRepository
	namespace    uuid.UUID
	hasNamespace bool

	// bindMu serializes writers; readers go through the atomic pointer
	// and always observe a complete snapshot.
	bindMu sync.Mutex
	snap   atomic.Pointer[snapshot]

	// degraded is set when the embedding path fails; the session then
	// stays on the lexical backend for its lifetime.
	degraded atomic.Bool
}

// New creates a proxy for one namespace. client and repo may be nil, in
// which case the proxy is lexical-only regardless of searchMode.
func New(cfg *config.Config, client EmbeddingClient, repo EmbeddingRepository) (*SmartProxy, error) {
	p := &SmartProxy{cfg: cfg, client: client, repo: repo}
	if ns := strings.TrimSpace(cfg.Namespace.UUID); ns != "" {
		id, err := uuid.Parse(ns)
		if err != nil {
			return nil, fmt.Errorf("proxy: invalid namespace uuid %q: %w", ns, err)
		}
		p.namespace = id
		p.hasNamespace = true
	}
	p.snap.Store(emptySnapshot())
	return p, nil
}

// vectorEnabled reports whether the vector path is configured at all.
// Session degradation is checked separately at call time.
func (p *SmartProxy) vectorEnabled() bool {
	return p.cfg.Smart.SearchMode == config.SearchModeEmbeddings &&
		p.client != nil && p.repo != nil && p.hasNamespace
}

// Bind atomically replaces the tool table and lexical index with the given
// catalogue, then reconciles persisted embeddings in embeddings mode.
// Reconciliation failures never fail the bind: they are logged and the
// session downgrades to the lexical backend. Only caller cancellation is
// returned as an error.
func (p *SmartProxy) Bind(ctx context.Context, tools []BoundTool) error {
	p.bindMu.Lock()
	defer p.bindMu.Unlock()

	snap := buildSnapshot(tools, p.cfg.FuzzyValue(), p.cfg.DescriptionBoostValue())
	p.snap.Store(snap)

	log.Info().
		Int("tools", len(tools)).
		Str("namespace", p.cfg.Namespace.Name).
		Str("search_mode", p.cfg.Smart.SearchMode).
		Msg("smart_proxy: bound catalogue")

	if !p.vectorEnabled() {
		return nil
	}

	if err := p.reconcileEmbeddings(ctx, tools); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// Partial progress is fine; the staleness check completes
			// the remainder on the next bind.
			return err
		}
		p.degraded.Store(true)
		log.Warn().Err(err).Msg("smart_proxy: embedding reconciliation failed, session downgraded to keyword")
	}
	return nil
}

// Discover joins queries into one composite query, ranks bound tools and
// returns a JSON array of descriptors. Vector search is attempted when
// configured and not degraded; every failure falls through to the lexical
// index, which is always ready. Discover never fails because of the
// embedding backend.
func (p *SmartProxy) Discover(ctx context.Context, queries []string) (string, error) {
	query := strings.Join(queries, " ")
	snap := p.snap.Load()

	if p.vectorEnabled() && !p.degraded.Load() {
		result, err := p.discoverVector(ctx, snap, query)
		if err == nil {
			return result, nil
		}
		p.degraded.Store(true)
		log.Warn().Err(err).Str("query", query).
			Msg("smart_proxy: vector discovery failed, falling back to keyword search")
	}

	return p.discoverLexical(snap, query)
}

// discoverLexical ranks via the in-memory index. An empty index yields an
// empty array, not an error.
func (p *SmartProxy) discoverLexical(snap *snapshot, query string) (string, error) {
	if snap.index.Len() == 0 {
		return "[]", nil
	}

	hits := search.NormalizeScores(snap.index.Search(query))
	scores := make([]float64, len(hits))
	for i, h := range hits {
		scores[i] = h.Score
	}
	cut := p.cfg.EffectiveDynamicLimit().Cut(scores)

	descs := make([]Descriptor, 0, cut)
	for _, h := range hits[:cut] {
		entry, ok := snap.entries[h.UniqueID]
		if !ok {
			continue
		}
		descs = append(descs, entry.descriptor(h.Score))
	}

	result, err := encodeDescriptors(descs)
	if err != nil {
		return "", err
	}

	log.Info().
		Str("query", query).
		Str("backend", "keyword").
		Int("candidates", len(hits)).
		Int("returned", len(descs)).
		Int("response_tokens", tokens.Count(result)).
		Int("catalogue_tokens", snap.catalogueTokens).
		Msg("smart_proxy: discover")

	return result, nil
}

// Execute forwards a call to the downstream connection owning
// toolID::method. Downstream errors are propagated untouched.
func (p *SmartProxy) Execute(ctx context.Context, toolID, method string, args map[string]any) (*toolproto.CallToolResult, error) {
	snap := p.snap.Load()
	entry, ok := snap.entries[uniqueID(toolID, method)]
	if !ok {
		return nil, fmt.Errorf("%w: no tool %q with method %q is currently bound; call %s to list available tools",
			ErrToolNotFound, toolID, method, DiscoverToolName)
	}

	log.Debug().
		Str("tool_id", toolID).
		Str("method", method).
		Msg("smart_proxy: execute")

	return entry.conn.CallTool(ctx, method, args)
}

// StaticTools returns the fixed two-tool catalogue advertised while smart
// mode is active. The discover description is operator-overridable; the
// execute description is fixed.
func (p *SmartProxy) StaticTools() []toolproto.Tool {
	discoverDesc := p.cfg.Smart.DiscoverDescription
	if discoverDesc == "" {
		discoverDesc = config.DefaultDiscoverDescription
	}
	return []toolproto.Tool{
		{
			Name:        DiscoverToolName,
			Description: discoverDesc,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"queries": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "Natural language descriptions of the capabilities you need",
					},
				},
				"required": []string{"queries"},
			},
		},
		{
			Name:        ExecuteToolName,
			Description: config.ExecuteDescription,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"toolId": map[string]any{"type": "string"},
					"method": map[string]any{"type": "string"},
					"args":   map[string]any{"type": "object"},
				},
				"required": []string{"toolId", "method", "args"},
			},
		},
	}
}

// encodeDescriptors marshals descriptors and strips the internal score
// field so both backends share one historical response shape.
func encodeDescriptors(descs []Descriptor) (string, error) {
	raw, err := utils.MarshalNoEscape(descs)
	if err != nil {
		return "", fmt.Errorf("proxy: encode descriptors: %w", err)
	}
	result := string(raw)
	for i := range descs {
		result, err = sjson.Delete(result, fmt.Sprintf("%d.score", i))
		if err != nil {
			return "", fmt.Errorf("proxy: strip score: %w", err)
		}
	}
	return result, nil
}
