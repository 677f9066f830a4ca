// Package tokens counts tokens in discover responses so the gateway can
// report how much catalogue the smart surface keeps out of the context
// window.
package tokens

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// EstimateRatio is the approximate number of characters per token, used
// when the tokenizer is unavailable.
const EstimateRatio = 4

// encoding is the tokenizer used for counting. Counts are for telemetry
// only, so one fixed encoding is close enough across client models.
const encoding = "cl100k_base"

var (
	once sync.Once
	enc  *tiktoken.Tiktoken
)

// Count returns the token count of text, falling back to a character-based
// estimate if the encoding cannot be loaded.
func Count(text string) int {
	once.Do(func() {
		enc, _ = tiktoken.GetEncoding(encoding)
	})
	if enc == nil {
		return len(text) / EstimateRatio
	}
	return len(enc.Encode(text, nil, nil))
}
