package proxy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/toolmux/toolmux/internal/toolproto"
	"github.com/toolmux/toolmux/internal/truncate"
)

// Placeholders for tools without prose.
const (
	noDescription = "No description"
	noParameters  = "none"
)

// canonicalText builds the deterministic string fed to the embedding model
// for one tool. It is the sole basis for staleness detection: any byte
// change here regenerates the tool's embedding on the next bind.
func canonicalText(method string, desc toolproto.Tool, trunc truncate.Config) string {
	description := strings.TrimSpace(trunc.Apply(desc.Description))
	if description == "" {
		description = noDescription
	}
	params := parameterDescriptions(desc.InputSchema)
	if params == "" {
		params = noParameters
	}
	return fmt.Sprintf("%s: %s\nParameters: %s", method, description, params)
}

// parameterDescriptions joins the description of every schema property
// with newlines. Properties are visited in sorted name order because Go
// map iteration would otherwise make the canonical text nondeterministic.
func parameterDescriptions(schema map[string]any) string {
	props, ok := schema["properties"].(map[string]any)
	if !ok || len(props) == 0 {
		return ""
	}

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	var parts []string
	for _, name := range names {
		prop, ok := props[name].(map[string]any)
		if !ok {
			continue
		}
		if d, ok := prop["description"].(string); ok && strings.TrimSpace(d) != "" {
			parts = append(parts, strings.TrimSpace(d))
		}
	}
	return strings.Join(parts, "\n")
}
