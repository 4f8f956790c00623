package ivfflat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartolli/codanna-go/internal/ids"
)

func clusteredVectors() map[ids.VectorId][]float32 {
	return map[ids.VectorId][]float32{
		1: {1, 0, 0},
		2: {0.9, 0.1, 0},
		3: {0.95, 0, 0.05},
		4: {0, 1, 0},
		5: {0, 0.9, 0.1},
		6: {0.05, 0.95, 0},
	}
}

func TestBuild_RejectsInvalidClusterCount(t *testing.T) {
	_, err := Build(clusteredVectors(), Config{K: 0, Dim: 3})
	require.Error(t, err)

	_, err = Build(clusteredVectors(), Config{K: 100, Dim: 3})
	require.Error(t, err)
}

func TestBuild_RejectsDimensionMismatch(t *testing.T) {
	vecs := clusteredVectors()
	vecs[7] = []float32{1, 2}
	_, err := Build(vecs, Config{K: 2, Dim: 3})
	require.Error(t, err)
}

func TestBuild_ProducesNoEmptyClusters(t *testing.T) {
	ix, err := Build(clusteredVectors(), Config{K: 2, Dim: 3})
	require.NoError(t, err)

	counts := make(map[ids.ClusterId]int)
	for id := ids.VectorId(1); id <= 6; id++ {
		c, ok := ix.ClusterOf(id)
		require.True(t, ok)
		counts[c]++
	}
	for c := 0; c < ix.K(); c++ {
		assert.Greater(t, counts[ids.ClusterId(c)], 0, "cluster %d must not be empty", c)
	}
}

func TestBuild_SeparatesObviousClusters(t *testing.T) {
	ix, err := Build(clusteredVectors(), Config{K: 2, Dim: 3})
	require.NoError(t, err)

	c1, _ := ix.ClusterOf(1)
	c2, _ := ix.ClusterOf(2)
	c3, _ := ix.ClusterOf(3)
	c4, _ := ix.ClusterOf(4)
	c5, _ := ix.ClusterOf(5)
	c6, _ := ix.ClusterOf(6)

	assert.Equal(t, c1, c2)
	assert.Equal(t, c2, c3)
	assert.Equal(t, c4, c5)
	assert.Equal(t, c5, c6)
	assert.NotEqual(t, c1, c4)
}

func TestProbe_ReturnsNearestFirst(t *testing.T) {
	ix, err := Build(clusteredVectors(), Config{K: 2, Dim: 3})
	require.NoError(t, err)

	results, err := ix.Probe([]float32{1, 0, 0}, 1, 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, ids.VectorId(1), results[0].VectorID)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestProbe_RejectsDimensionMismatch(t *testing.T) {
	ix, err := Build(clusteredVectors(), Config{K: 2, Dim: 3})
	require.NoError(t, err)

	_, err = ix.Probe([]float32{1, 0}, 1, 3)
	assert.Error(t, err)
}

func TestMarshalUnmarshal_RoundTrips(t *testing.T) {
	vecs := clusteredVectors()
	ix, err := Build(vecs, Config{K: 2, Dim: 3})
	require.NoError(t, err)

	data := ix.Marshal()
	restored, err := Unmarshal(data, vecs)
	require.NoError(t, err)

	assert.Equal(t, ix.K(), restored.K())
	assert.Equal(t, ix.Dim(), restored.Dim())
	for id := ids.VectorId(1); id <= 6; id++ {
		want, _ := ix.ClusterOf(id)
		got, ok := restored.ClusterOf(id)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	assert.Equal(t, data, restored.Marshal())
}
