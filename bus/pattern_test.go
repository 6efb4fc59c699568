package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompilePattern_RejectsMissingLeadingSlash(t *testing.T) {
	_, err := compilePattern("init")
	require.Error(t, err)
}

func TestCompilePattern_RejectsWildcardNotLast(t *testing.T) {
	_, err := compilePattern("/a/*/b")
	require.Error(t, err)
}

func TestPatternMatch_ExactLiteral(t *testing.T) {
	p, err := compilePattern("/init")
	require.NoError(t, err)

	_, ok := p.match("/init")
	assert.True(t, ok)

	_, ok = p.match("/init/extra")
	assert.False(t, ok)
}

func TestPatternMatch_NamedSegment(t *testing.T) {
	p, err := compilePattern("/request/:requestId/get/dashboard")
	require.NoError(t, err)

	params, ok := p.match("/request/xyz/get/dashboard")
	require.True(t, ok)
	assert.Equal(t, "xyz", params["requestId"])

	_, ok = p.match("/request/xyz/get/other")
	assert.False(t, ok)
}
