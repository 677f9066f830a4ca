package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalNoEscape(t *testing.T) {
	data, err := MarshalNoEscape(map[string]string{"constraint": "a <= b && c > d"})
	require.NoError(t, err)

	assert.Equal(t, `{"constraint":"a <= b && c > d"}`, string(data))
	assert.NotContains(t, string(data), `\u003c`)
}

func TestMarshalNoEscape_NoTrailingNewline(t *testing.T) {
	data, err := MarshalNoEscape([]int{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, "[1,2,3]", string(data))
}
