package embed

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalProvider_DeterministicAndNormalized(t *testing.T) {
	p := NewLocalProvider(32)

	v1, err := p.Embed(context.Background(), "func Foo() error")
	require.NoError(t, err)
	v2, err := p.Embed(context.Background(), "func Foo() error")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Len(t, v1, 32)

	var sumSq float64
	for _, x := range v1 {
		sumSq += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSq), 1e-4)
}

func TestLocalProvider_DifferentTextsDiffer(t *testing.T) {
	p := NewLocalProvider(16)

	v1, err := p.Embed(context.Background(), "alpha")
	require.NoError(t, err)
	v2, err := p.Embed(context.Background(), "beta")
	require.NoError(t, err)

	assert.NotEqual(t, v1, v2)
}

func TestNew_DefaultModelSelectsLocalProvider(t *testing.T) {
	p := New(Config{Model: "default", Dimension: 8})
	_, ok := p.(*LocalProvider)
	assert.True(t, ok)
}

func TestNew_NamedModelSelectsHTTPProvider(t *testing.T) {
	p := New(Config{Model: "text-embed-3", Dimension: 8, Endpoint: "http://localhost:1234"})
	_, ok := p.(*HTTPProvider)
	assert.True(t, ok)
}
