package proxy

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/toolmux/toolmux/internal/config"
	"github.com/toolmux/toolmux/internal/tokens"
)

// discoverVector ranks tools by cosine similarity in the vector store.
// Errors bubble to Discover, which downgrades the session and answers
// from the lexical index instead.
func (p *SmartProxy) discoverVector(ctx context.Context, snap *snapshot, query string) (string, error) {
	queryVector, err := p.client.GenerateSingleEmbedding(ctx, query)
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}

	dl := p.cfg.EffectiveDynamicLimit()
	// Over-fetch so the selector has pruning headroom.
	limit := config.VectorOverfetchFactor * dl.MaxResults

	similar, err := p.repo.FindSimilar(ctx, p.namespace, p.client.Model(), queryVector, limit)
	if err != nil {
		return "", fmt.Errorf("similarity query: %w", err)
	}

	descs := make([]Descriptor, 0, len(similar))
	scores := make([]float64, 0, len(similar))
	for _, s := range similar {
		entry, ok := snap.byUUID[s.ToolUUID]
		if !ok {
			// A tool was unbound after its embedding was stored; the
			// row is benign and the next reconciliation ignores it.
			log.Debug().
				Str("tool_uuid", s.ToolUUID.String()).
				Msg("smart_proxy: dropping similarity hit for unbound tool")
			continue
		}
		descs = append(descs, entry.descriptor(s.Similarity))
		scores = append(scores, s.Similarity)
	}

	cut := dl.Cut(scores)
	result, err := encodeDescriptors(descs[:cut])
	if err != nil {
		return "", err
	}

	log.Info().
		Str("query", query).
		Str("backend", "embeddings").
		Int("candidates", len(similar)).
		Int("returned", cut).
		Int("response_tokens", tokens.Count(result)).
		Int("catalogue_tokens", snap.catalogueTokens).
		Msg("smart_proxy: discover")

	return result, nil
}
