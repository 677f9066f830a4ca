package proxy

import (
	"github.com/google/uuid"

	"github.com/toolmux/toolmux/internal/search"
	"github.com/toolmux/toolmux/internal/tokens"
	"github.com/toolmux/toolmux/internal/toolproto"
)

// toolEntry is one bound tool in the in-memory table.
type toolEntry struct {
	serverName   string
	originalName string
	desc         toolproto.Tool
	conn         toolproto.Connection
	toolUUID     uuid.UUID
}

// descriptor assembles the discover wire record for this entry.
func (e *toolEntry) descriptor(score float64) Descriptor {
	return Descriptor{
		ToolID:      e.serverName,
		Method:      e.originalName,
		Description: e.desc.Description,
		InputSchema: e.desc.InputSchema,
		Score:       score,
	}
}

// snapshot is an immutable view of one binding: the tool table keyed by
// serverName::originalName, a tool_uuid join index, and the lexical index.
// Bind publishes a fresh snapshot atomically; concurrent discovers and
// executes read whichever snapshot was current when they started and never
// see a mix.
type snapshot struct {
	entries map[string]*toolEntry
	byUUID  map[uuid.UUID]*toolEntry
	index   *search.LexicalIndex

	// catalogueTokens is the token cost of advertising every bound tool
	// descriptor verbatim, logged against discover responses to show the
	// context saved by the two-tool surface.
	catalogueTokens int
}

// uniqueID is the tool table key.
func uniqueID(serverName, originalName string) string {
	return serverName + "::" + originalName
}

func emptySnapshot() *snapshot {
	return &snapshot{
		entries: map[string]*toolEntry{},
		byUUID:  map[uuid.UUID]*toolEntry{},
		index:   search.NewLexicalIndex(nil, search.DefaultFuzzy, search.DefaultDescriptionBoost),
	}
}

// buildSnapshot constructs the table and lexical index for a catalogue.
// Later duplicates of a uniqueID win, matching upsert semantics upstream.
func buildSnapshot(tools []BoundTool, fuzzy, descriptionBoost float64) *snapshot {
	snap := &snapshot{
		entries: make(map[string]*toolEntry, len(tools)),
		byUUID:  make(map[uuid.UUID]*toolEntry, len(tools)),
	}

	docs := make([]search.Document, 0, len(tools))
	for _, t := range tools {
		entry := &toolEntry{
			serverName:   t.ServerName,
			originalName: t.OriginalName,
			desc:         t.Descriptor,
			conn:         t.Conn,
			toolUUID:     t.ToolUUID,
		}
		id := uniqueID(t.ServerName, t.OriginalName)
		snap.entries[id] = entry
		if t.ToolUUID != uuid.Nil {
			snap.byUUID[t.ToolUUID] = entry
		}
		docs = append(docs, search.Document{
			UniqueID:              id,
			ToolID:                t.ServerName,
			Method:                t.OriginalName,
			Description:           t.Descriptor.Description,
			ParameterDescriptions: parameterDescriptions(t.Descriptor.InputSchema),
		})
	}

	snap.index = search.NewLexicalIndex(docs, fuzzy, descriptionBoost)
	snap.catalogueTokens = catalogueTokenCount(tools)
	return snap
}

func catalogueTokenCount(tools []BoundTool) int {
	descs := make([]Descriptor, 0, len(tools))
	for _, t := range tools {
		descs = append(descs, Descriptor{
			ToolID:      t.ServerName,
			Method:      t.OriginalName,
			Description: t.Descriptor.Description,
			InputSchema: t.Descriptor.InputSchema,
		})
	}
	encoded, err := encodeDescriptors(descs)
	if err != nil {
		return 0
	}
	return tokens.Count(encoded)
}
