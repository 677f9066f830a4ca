package proxy

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/toolmux/toolmux/internal/config"
	"github.com/toolmux/toolmux/internal/store"
)

// reconcileEmbeddings brings the persisted vectors in line with the
// current canonical text of every bound tool. Tools whose stored text
// matches are skipped; the rest are embedded in batches and upserted
// per row, so an interrupted run leaves usable partial progress for the
// next reconciliation to complete.
func (p *SmartProxy) reconcileEmbeddings(ctx context.Context, tools []BoundTool) error {
	trunc := p.cfg.TruncationValue()
	model := p.client.Model()

	requested := make([]store.RequestedEmbedding, 0, len(tools))
	textByUUID := make(map[uuid.UUID]string, len(tools))
	for _, t := range tools {
		if t.ToolUUID == uuid.Nil {
			continue
		}
		text := canonicalText(t.OriginalName, t.Descriptor, trunc)
		requested = append(requested, store.RequestedEmbedding{ToolUUID: t.ToolUUID, Text: text})
		textByUUID[t.ToolUUID] = text
	}
	if len(requested) == 0 {
		return nil
	}

	needed, err := p.repo.ToolsNeedingEmbeddings(ctx, requested, p.namespace, model)
	if err != nil {
		return fmt.Errorf("staleness check: %w", err)
	}
	if len(needed) == 0 {
		log.Debug().
			Int("tools", len(requested)).
			Msg("smart_proxy: embeddings up to date")
		return nil
	}

	log.Info().
		Int("tools", len(requested)).
		Int("stale", len(needed)).
		Str("model", model).
		Msg("smart_proxy: regenerating embeddings")

	for start := 0; start < len(needed); start += config.ReconcileBatchSize {
		end := start + config.ReconcileBatchSize
		if end > len(needed) {
			end = len(needed)
		}
		batch := needed[start:end]

		texts := make([]string, len(batch))
		for i, id := range batch {
			texts[i] = textByUUID[id]
		}

		vectors, err := p.client.GenerateEmbeddings(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed batch of %d: %w", len(batch), err)
		}

		rows := make([]store.Row, len(batch))
		for i, id := range batch {
			rows[i] = store.Row{
				ToolUUID:      id,
				NamespaceUUID: p.namespace,
				ModelName:     model,
				Dimensions:    len(vectors[i]),
				Embedding:     vectors[i],
				Text:          texts[i],
			}
		}
		if err := p.repo.Upsert(ctx, rows); err != nil {
			return fmt.Errorf("upsert batch of %d: %w", len(rows), err)
		}

		if end < len(needed) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(config.ReconcileBatchPause):
			}
		}
	}

	log.Info().
		Int("regenerated", len(needed)).
		Msg("smart_proxy: embedding reconciliation complete")
	return nil
}
