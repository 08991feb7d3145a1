// Package streambuf implements the bounded-memory, offset-keyed chunk
// buffers used to hold exec stdout/stderr and assistant preview streams.
//
// A Buffer never errors. Overflow is handled by silently evicting bytes
// from the head once the retained length crosses the configured cap —
// callers that care are expected to observe eviction through
// pkg/usage instead of through a returned error.
package streambuf

// MaxRetainedBytes is the hard cap on the number of bytes a single
// Buffer retains. Once exceeded, whole chunks are dropped from the head
// and, if that is not enough, the remaining head chunk is trimmed.
const MaxRetainedBytes = 32 * 1024 * 1024

// Chunk is a single slice of a logical byte stream, tagged with the
// offset of its first byte within that stream.
type Chunk struct {
	Offset  int64
	Content []byte
}

// end returns the offset one past the last byte of the chunk.
func (c Chunk) end() int64 {
	return c.Offset + int64(len(c.Content))
}

// Buffer holds an ordered list of Chunks for one logical stream
// (exec stdout, exec stderr, or an assistant preview stream prior to
// being split into deltas).
type Buffer struct {
	chunks []Chunk
}

// New returns an empty Buffer.
func New() *Buffer {
	return &Buffer{}
}

// Chunks returns the buffer's current chunks. The returned slice must
// not be mutated by the caller.
func (b *Buffer) Chunks() []Chunk {
	return b.chunks
}

// Len reports the logical length of the stream: the offset one past
// the end of the last chunk, or 0 when empty. This is the length of
// the stream as the producer sees it, including anything already
// evicted from the head.
func (b *Buffer) Len() int64 {
	if len(b.chunks) == 0 {
		return 0
	}
	max := int64(0)
	for _, c := range b.chunks {
		if e := c.end(); e > max {
			max = e
		}
	}
	return max
}

// RetainedLen reports the number of bytes currently held.
func (b *Buffer) RetainedLen() int64 {
	if len(b.chunks) == 0 {
		return 0
	}
	return b.Len() - b.chunks[0].Offset
}

// TruncatedPrefixLen reports how many bytes have been evicted from the
// head of the stream.
func (b *Buffer) TruncatedPrefixLen() int64 {
	if len(b.chunks) == 0 {
		return 0
	}
	return b.chunks[0].Offset
}

// Append implements the append_chunk algorithm from the history
// ingestion design: truncate-ahead for out-of-order authoritative
// rewrites, coalesce-on-touch for the common streaming case, and
// prune-from-head once the retained length exceeds MaxRetainedBytes.
//
// Returns the number of bytes pruned from the head as a result of this
// append, so callers (pkg/usage) can account for truncation without
// re-deriving it.
func (b *Buffer) Append(new Chunk) (pruned int64) {
	if len(new.Content) == 0 {
		return 0
	}
	b.truncateAhead(new.Offset)
	b.coalesce(new)
	return b.prune(MaxRetainedBytes)
}

// truncateAhead pops or shortens tail chunks that lie entirely or
// partially at or past newOffset, so a later authoritative chunk can
// overwrite speculative tail data.
func (b *Buffer) truncateAhead(newOffset int64) {
	for len(b.chunks) > 0 {
		tail := &b.chunks[len(b.chunks)-1]
		if tail.Offset >= newOffset {
			b.chunks = b.chunks[:len(b.chunks)-1]
			continue
		}
		if tail.end() > newOffset {
			keep := newOffset - tail.Offset
			tail.Content = tail.Content[:keep]
		}
		break
	}
}

// coalesce appends new to the buffer, extending the current tail in
// place when it ends exactly at new.Offset.
func (b *Buffer) coalesce(new Chunk) {
	if len(b.chunks) > 0 {
		tail := &b.chunks[len(b.chunks)-1]
		if tail.end() == new.Offset {
			tail.Content = append(tail.Content, new.Content...)
			return
		}
	}
	content := make([]byte, len(new.Content))
	copy(content, new.Content)
	b.chunks = append(b.chunks, Chunk{Offset: new.Offset, Content: content})
}

// prune drops whole chunks from the front until the retained length is
// within cap; if a single remaining chunk still exceeds cap it drains
// leading bytes from it instead of dropping it. Returns bytes dropped.
func (b *Buffer) prune(cap int64) int64 {
	var dropped int64
	for b.RetainedLen() > cap && len(b.chunks) > 1 {
		dropped += int64(len(b.chunks[0].Content))
		b.chunks = b.chunks[1:]
	}
	if b.RetainedLen() > cap && len(b.chunks) == 1 {
		over := b.RetainedLen() - cap
		first := &b.chunks[0]
		if over >= int64(len(first.Content)) {
			over = int64(len(first.Content))
		}
		dropped += over
		first.Content = first.Content[over:]
		first.Offset += over
	}
	return dropped
}

// Concat returns the full retained content as one contiguous slice.
func (b *Buffer) Concat() []byte {
	out := make([]byte, 0, b.RetainedLen())
	for _, c := range b.chunks {
		out = append(out, c.Content...)
	}
	return out
}

// Last returns the last chunk and true, or the zero Chunk and false
// when the buffer is empty.
func (b *Buffer) Last() (Chunk, bool) {
	if len(b.chunks) == 0 {
		return Chunk{}, false
	}
	return b.chunks[len(b.chunks)-1], true
}
