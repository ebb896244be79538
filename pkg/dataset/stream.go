package dataset

import (
	"context"
	"iter"

	"go.llib.dev/datakit"
	"go.llib.dev/datakit/port/source"
)

// DefaultChunkSize is the number of examples pulled from a source in one read
// when Streaming.ChunkSize is not set.
const DefaultChunkSize = 1000

// Streaming is a lazy, chunk-driven sequence of examples backed by a record source.
//
// A Streaming value holds no open file handle itself;
// every traversal opens the source anew through the Opener,
// and holds at most one chunk in memory at a time.
// As long as the underlying file is unchanged,
// every traversal reproduces the same example order.
//
// Streaming has no length guarantee until a traversal confirmed it by exhaustion.
type Streaming struct {
	// Opener opens the record source on each traversal.
	Opener source.Opener
	// Path is the source file location.
	Path string
	// ChunkSize bounds how many examples a single source read may yield.
	//
	// Default: DefaultChunkSize
	ChunkSize int

	transforms []datakit.Transform
}

// NewStreaming creates a Streaming dataset over the file at path.
func NewStreaming(opener source.Opener, path string) *Streaming {
	return &Streaming{Opener: opener, Path: path}
}

// WithTransform returns a copy of the Streaming dataset that applies
// the given transforms to every yielded example, in order.
func (s *Streaming) WithTransform(ts ...datakit.Transform) *Streaming {
	c := *s
	c.transforms = make([]datakit.Transform, 0, len(s.transforms)+len(ts))
	c.transforms = append(c.transforms, s.transforms...)
	c.transforms = append(c.transforms, ts...)
	return &c
}

func (s *Streaming) chunkSize() int {
	if s.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return s.ChunkSize
}

// Iterate starts a new traversal from the beginning of the source.
//
// The source is opened lazily, on the first Next call of the returned cursor.
// The traversal is single pass: after exhaustion the cursor yields nothing further,
// restarting means calling Iterate again.
// Abandoning a traversal early requires closing the cursor to release the source handle.
func (s *Streaming) Iterate(ctx context.Context) *Cursor {
	return &Cursor{ctx: ctx, stream: s}
}

// Batches starts a new traversal that yields batches of the given size
// instead of individual examples.
//
// Batch boundaries are independent of the source's chunk boundaries:
// a batch may span multiple chunks, and a chunk may produce multiple batches.
// Every batch has exactly size examples except possibly the final one.
// The concatenation of all batches equals the full Iterate sequence.
func (s *Streaming) Batches(ctx context.Context, size int) *BatchCursor {
	if size < 1 {
		size = 1
	}
	return &BatchCursor{cur: s.Iterate(ctx), size: size}
}

// All returns the traversal as a single use error-aware sequence,
// closing the source handle when the iteration stops.
func (s *Streaming) All(ctx context.Context) iter.Seq2[datakit.Example, error] {
	return func(yield func(datakit.Example, error) bool) {
		cur := s.Iterate(ctx)
		defer cur.Close()
		for cur.Next() {
			if !yield(cur.Value(), nil) {
				return
			}
		}
		if err := cur.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// Head eagerly materialises the first min(n, total) examples into a Dataset,
// consuming only as many source chunks as needed.
func (s *Streaming) Head(ctx context.Context, n int) (*Dataset, error) {
	return s.collect(ctx, n)
}

// ToDataset fully materialises the streaming dataset into an indexable Dataset.
// This is the integration point that makes a streaming source splittable.
// For a bounded materialisation use Head.
func (s *Streaming) ToDataset(ctx context.Context) (*Dataset, error) {
	return s.collect(ctx, -1)
}

// Count consumes a full traversal and returns the total example count.
func (s *Streaming) Count(ctx context.Context) (_ int, rErr error) {
	cur := s.Iterate(ctx)
	defer func() {
		if err := cur.Close(); rErr == nil {
			rErr = err
		}
	}()
	var n int
	for cur.Next() {
		n++
	}
	return n, cur.Err()
}

// collect materialises up to max examples, or everything when max is negative.
func (s *Streaming) collect(ctx context.Context, max int) (_ *Dataset, rErr error) {
	cur := s.Iterate(ctx)
	defer func() {
		if err := cur.Close(); rErr == nil {
			rErr = err
		}
	}()
	var out []datakit.Example
	for (max < 0 || len(out) < max) && cur.Next() {
		out = append(out, cur.Value())
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return New(out), nil
}

// Cursor is an explicit pull cursor over the examples of a Streaming traversal.
//
// The cursor keeps at most one source chunk buffered;
// it advances the source only when the buffered chunk ran out.
type Cursor struct {
	ctx    context.Context
	stream *Streaming

	chunks source.Chunks
	buf    []datakit.Example
	idx    int
	cur    datakit.Example
	err    error
	opened bool
	done   bool
}

// Next advances the cursor to the next example.
// The first call opens the source; once it returned false it keeps returning false.
func (c *Cursor) Next() bool {
	if c.done || c.err != nil {
		return false
	}
	if !c.opened {
		c.opened = true
		chunks, err := c.stream.Opener.Open(c.ctx, c.stream.Path, c.stream.chunkSize())
		if err != nil {
			c.err = err
			c.done = true
			return false
		}
		c.chunks = chunks
	}
	for c.idx >= len(c.buf) {
		if !c.chunks.Next() {
			c.err = c.chunks.Err()
			c.done = true
			return false
		}
		c.buf = c.chunks.Value()
		c.idx = 0
	}
	e := c.buf[c.idx]
	c.idx++
	for _, t := range c.stream.transforms {
		var err error
		e, err = t.Transform(e.Clone())
		if err != nil {
			c.err = err
			c.done = true
			return false
		}
	}
	c.cur = e
	return true
}

// Value returns the current example.
// It is only valid after a Next call that returned true.
func (c *Cursor) Value() datakit.Example { return c.cur }

// Err returns the error that stopped the traversal, if any.
func (c *Cursor) Err() error { return c.err }

// Close releases the source handle. It is safe to call multiple times.
func (c *Cursor) Close() error {
	c.done = true
	if c.chunks == nil {
		return nil
	}
	chunks := c.chunks
	c.chunks = nil
	return chunks.Close()
}

// BatchCursor is a pull cursor that carves a Streaming traversal into batches.
type BatchCursor struct {
	cur  *Cursor
	size int
	val  []datakit.Example
}

// Next advances the cursor to the next batch.
func (b *BatchCursor) Next() bool {
	batch := make([]datakit.Example, 0, b.size)
	for len(batch) < b.size && b.cur.Next() {
		batch = append(batch, b.cur.Value())
	}
	if len(batch) == 0 {
		return false
	}
	b.val = batch
	return true
}

// Value returns the current batch.
func (b *BatchCursor) Value() []datakit.Example { return b.val }

// Err returns the error that stopped the traversal, if any.
func (b *BatchCursor) Err() error { return b.cur.Err() }

// Close releases the source handle. It is safe to call multiple times.
func (b *BatchCursor) Close() error { return b.cur.Close() }
