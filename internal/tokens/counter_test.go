package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCount(t *testing.T) {
	assert.Equal(t, 0, Count(""))

	// Exact counts depend on whether the encoding loads; either path must
	// return something plausible for telemetry.
	n := Count("Returns the forecast for a city.")
	assert.Greater(t, n, 0)
	assert.Less(t, n, 32)
}

func TestCount_LongerTextCountsMore(t *testing.T) {
	short := Count("forecast")
	long := Count("forecast forecast forecast forecast forecast forecast")
	assert.Greater(t, long, short)
}
