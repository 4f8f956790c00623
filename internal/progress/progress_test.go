package progress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBar_IncrementAndSnapshot(t *testing.T) {
	b := NewBar("index")
	b.SetTotal(10)
	b.Increment("a.go")
	b.Increment("b.go")

	snap := b.Snapshot()
	assert.EqualValues(t, 2, snap.Processed)
	assert.EqualValues(t, 10, snap.Total)
	assert.Equal(t, "b.go", snap.CurrentItem)
	assert.False(t, snap.Done)
}

func TestBar_FinishFreezesElapsed(t *testing.T) {
	b := NewBar("index")
	b.Increment("a.go")
	b.Finish()

	first := b.Snapshot().Elapsed
	second := b.Snapshot().Elapsed
	assert.Equal(t, first, second, "elapsed time must not advance after Finish")
	assert.True(t, b.Snapshot().Done)
}

func TestBar_SetErrorIsVisibleInSnapshot(t *testing.T) {
	b := NewBar("index")
	b.SetError(assertError("parse failed"))
	assert.Equal(t, "parse failed", b.Snapshot().LastError)
}

func TestPoisonedMutex_PanicsAfterPriorPanic(t *testing.T) {
	b := NewBar("index")

	func() {
		defer func() { recover() }()
		b.statusMu.guard(func() { panic("boom") })
	}()

	assert.Panics(t, func() {
		b.Increment("c.go")
	}, "a poisoned status mutex must surface as a fatal panic on next use")
}

func TestDualProgressBar_DegradedModeWritesPlainLines(t *testing.T) {
	var buf bytes.Buffer
	d := NewDualProgressBar(&buf)
	require.False(t, d.tty, "a bytes.Buffer is never a terminal")

	d.Scan.Increment("a.go")
	d.Index.SetTotal(1)
	d.Index.Increment("a.go")
	d.Render()

	assert.Contains(t, buf.String(), "scan:")
	assert.Contains(t, buf.String(), "index:")
}

type assertError string

func (e assertError) Error() string { return string(e) }
