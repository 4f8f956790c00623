package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartolli/codanna-go/internal/ids"
)

func TestSegment_AppendAndGet(t *testing.T) {
	seg := newSegment(1, 3)
	require.NoError(t, seg.Append(10, 0, []float32{1, 2, 3}))
	require.NoError(t, seg.Append(11, 0, []float32{4, 5, 6}))
	require.NoError(t, seg.Append(12, 1, []float32{7, 8, 9}))

	assert.Equal(t, []float32{1, 2, 3}, seg.Get(10))
	assert.Equal(t, []float32{7, 8, 9}, seg.Get(12))
	assert.Nil(t, seg.Get(999))
}

func TestSegment_AppendRejectsDimensionMismatch(t *testing.T) {
	seg := newSegment(1, 3)
	err := seg.Append(10, 0, []float32{1, 2})
	assert.Error(t, err)
}

func TestSegment_ClusterVectors(t *testing.T) {
	seg := newSegment(1, 2)
	require.NoError(t, seg.Append(1, 0, []float32{1, 1}))
	require.NoError(t, seg.Append(2, 0, []float32{2, 2}))
	require.NoError(t, seg.Append(3, 1, []float32{3, 3}))

	cluster0 := seg.ClusterVectors(0)
	assert.Len(t, cluster0, 2)
	assert.Equal(t, []float32{1, 1}, cluster0[1])

	cluster1 := seg.ClusterVectors(1)
	assert.Len(t, cluster1, 1)
}

func TestStore_FlushAndLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	seg := st.CreateSegment(1, 3)
	require.NoError(t, seg.Append(100, 0, []float32{0.5, -0.25, 1.5}))
	require.NoError(t, seg.Append(101, 0, []float32{1, 2, 3}))
	require.NoError(t, seg.Append(102, 1, []float32{-1, -2, -3}))

	require.NoError(t, st.Flush(1))

	loaded, err := st.Load(1, 3)
	require.NoError(t, err)
	assert.Equal(t, seg.data, loaded.data)
}

func TestStore_LoadRejectsDimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	seg := st.CreateSegment(1, 3)
	require.NoError(t, seg.Append(1, 0, []float32{1, 2, 3}))
	require.NoError(t, st.Flush(1))

	_, err := st.Load(1, 4)
	assert.Error(t, err)
}

func TestStore_MergeConcatenatesVectors(t *testing.T) {
	st := New(t.TempDir())
	dst := st.CreateSegment(1, 2)
	require.NoError(t, dst.Append(1, 0, []float32{1, 1}))
	src := st.CreateSegment(2, 2)
	require.NoError(t, src.Append(2, 0, []float32{2, 2}))

	require.NoError(t, st.Merge(1, 2))

	merged := st.Segment(1)
	require.NotNil(t, merged)
	assert.Equal(t, []float32{1, 1}, merged.Get(1))
	assert.Equal(t, []float32{2, 2}, merged.Get(2))
	assert.Nil(t, st.Segment(2))
}

func TestStore_DeleteSegmentRemovesFiles(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	seg := st.CreateSegment(1, 2)
	require.NoError(t, seg.Append(1, 0, []float32{1, 1}))
	require.NoError(t, st.Flush(1))

	st.DeleteSegment(1)
	assert.Nil(t, st.Segment(ids.SegmentId(1)))

	_, err := st.Load(1, 2)
	assert.Error(t, err)
}
