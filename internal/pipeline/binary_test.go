package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLooksBinary_DetectsKnownMagicNumbers(t *testing.T) {
	assert.True(t, looksBinary([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A}))
	assert.True(t, looksBinary([]byte{0x7F, 0x45, 0x4C, 0x46, 0x02, 0x01}))
}

func TestLooksBinary_DetectsNullByteDensity(t *testing.T) {
	content := make([]byte, 512)
	for i := 0; i < 10; i++ {
		content[i*20] = 0
	}
	assert.True(t, looksBinary(content))
}

func TestLooksBinary_PlainGoSourceIsNotBinary(t *testing.T) {
	src := "package main\n\nfunc main() {\n\tprintln(\"hi\")\n}\n"
	assert.False(t, looksBinary([]byte(src)))
}

func TestLooksBinary_EmptyContentIsNotBinary(t *testing.T) {
	assert.False(t, looksBinary(nil))
}

func TestLooksBinary_LongTextFileIsNotBinary(t *testing.T) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog\n", 50)
	assert.False(t, looksBinary([]byte(text)))
}
