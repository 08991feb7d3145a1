package streambuf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppend_Coalesce(t *testing.T) {
	b := New()
	b.Append(Chunk{Offset: 0, Content: []byte("hello ")})
	b.Append(Chunk{Offset: 6, Content: []byte("world")})

	require.Len(t, b.Chunks(), 1)
	assert.Equal(t, "hello world", string(b.Concat()))
	assert.EqualValues(t, 11, b.Len())
	assert.EqualValues(t, 0, b.TruncatedPrefixLen())
}

func TestAppend_SeparateWhenGapped(t *testing.T) {
	b := New()
	b.Append(Chunk{Offset: 0, Content: []byte("ab")})
	b.Append(Chunk{Offset: 5, Content: []byte("cd")})

	require.Len(t, b.Chunks(), 2)
	assert.EqualValues(t, 7, b.Len())
}

func TestAppend_TruncateAheadOverwritesSpeculativeTail(t *testing.T) {
	b := New()
	b.Append(Chunk{Offset: 0, Content: []byte("speculative-tail")})
	// Authoritative rewrite starting mid-stream: should drop everything
	// from offset 4 onward in the existing tail, then extend.
	b.Append(Chunk{Offset: 4, Content: []byte("XYZ")})

	assert.Equal(t, "specXYZ", string(b.Concat()))
}

func TestAppend_TruncateAheadDropsWholeTailChunk(t *testing.T) {
	b := New()
	b.Append(Chunk{Offset: 0, Content: []byte("aaaa")})
	b.Append(Chunk{Offset: 10, Content: []byte("bbbb")})
	// new chunk starts before the tail chunk entirely -> tail popped.
	b.Append(Chunk{Offset: 4, Content: []byte("cccc")})

	assert.Equal(t, "aaaacccc", string(b.Concat()))
}

func TestAppend_OverflowClipsToCapAndRecordsPrefix(t *testing.T) {
	b := New()
	overflow := int64(1024)
	payload := bytes.Repeat([]byte("x"), int(MaxRetainedBytes+overflow))
	b.Append(Chunk{Offset: 0, Content: payload})

	assert.EqualValues(t, MaxRetainedBytes, b.RetainedLen())
	assert.EqualValues(t, overflow, b.TruncatedPrefixLen())

	// Concatenation is the last MAX bytes of the original payload.
	assert.True(t, bytes.Equal(b.Concat(), payload[overflow:]))
}

func TestAppend_EquivalentToWritingIntoEmptyStreamWhenUnderCap(t *testing.T) {
	existing := New()
	existing.Append(Chunk{Offset: 0, Content: []byte("existing-content")})

	appended := New()
	appended.Append(Chunk{Offset: 0, Content: []byte("existing-content")})
	appended.Append(Chunk{Offset: existing.Len(), Content: []byte("-more")})

	direct := New()
	direct.Append(Chunk{Offset: 0, Content: []byte("existing-content-more")})

	assert.Equal(t, string(direct.Concat()), string(appended.Concat()))
}

func TestLen_IsMaxOffsetPlusContent(t *testing.T) {
	b := New()
	b.Append(Chunk{Offset: 0, Content: []byte("12345")})
	assert.EqualValues(t, 5, b.Len())
}

func TestLast(t *testing.T) {
	b := New()
	_, ok := b.Last()
	assert.False(t, ok)

	b.Append(Chunk{Offset: 0, Content: []byte("abc")})
	c, ok := b.Last()
	require.True(t, ok)
	assert.Equal(t, "abc", string(c.Content))
}
