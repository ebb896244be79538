// Package spechelper holds the shared test doubles and example factories
// of the datakit test suites.
package spechelper

import (
	"context"
	"fmt"
	"time"

	"go.llib.dev/datakit"
	"go.llib.dev/datakit/port/source"
)

// Examples produces n deterministic examples with the conventional
// id / text / category / timestamp / score field set.
// Categories rotate over four balanced values, timestamps ascend by the minute.
func Examples(n int) []datakit.Example {
	categories := []string{"business", "tech", "health", "entertainment"}
	base := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	out := make([]datakit.Example, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, datakit.Example{
			"id":        int64(i + 1),
			"text":      fmt.Sprintf("sample text %d", i+1),
			"category":  categories[i%len(categories)],
			"timestamp": base.Add(time.Duration(i) * time.Minute).Format(datakit.DefaultTimeLayout),
			"score":     float64(i%10) + 0.5,
		})
	}
	return out
}

// Chunked cuts the examples into chunks of the given size,
// the way a record source would yield them.
func Chunked(examples []datakit.Example, size int) [][]datakit.Example {
	var chunks [][]datakit.Example
	for len(examples) > 0 {
		n := size
		if n > len(examples) {
			n = len(examples)
		}
		chunks = append(chunks, examples[:n])
		examples = examples[n:]
	}
	return chunks
}

// StubOpener is a scripted record source.
// It serves the configured chunks regardless of path,
// and counts every open and chunk read for cache behaviour assertions.
type StubOpener struct {
	// Chunks are the chunks every traversal yields, in order.
	Chunks [][]datakit.Example
	// OpenErr, when set, fails every Open call.
	OpenErr error
	// ReadErrAt, when non-negative, fails the read of the chunk at that position.
	// The zero value means the first read; use a negative value to disable.
	ReadErrAt int
	// ReadErr is the error ReadErrAt fails with.
	ReadErr error

	// OpenCount is the number of Open calls served.
	OpenCount int
	// ReadCount is the number of chunk reads served across all traversals.
	ReadCount int
	// LastChunks is the cursor handed out by the most recent Open call.
	LastChunks *StubChunks
}

func (o *StubOpener) Open(ctx context.Context, path string, chunkSize int) (source.Chunks, error) {
	o.OpenCount++
	if o.OpenErr != nil {
		return nil, o.OpenErr
	}
	o.LastChunks = &StubChunks{opener: o}
	return o.LastChunks, nil
}

// StubChunks is the cursor of a StubOpener traversal.
type StubChunks struct {
	opener *StubOpener
	pos    int
	cur    []datakit.Example
	err    error

	// Closed reports whether the traversal released its handle.
	Closed bool
}

func (c *StubChunks) Next() bool {
	if c.Closed || c.err != nil {
		return false
	}
	if c.opener.ReadErr != nil && c.opener.ReadErrAt == c.pos {
		c.err = c.opener.ReadErr
		return false
	}
	if c.pos >= len(c.opener.Chunks) {
		return false
	}
	c.cur = c.opener.Chunks[c.pos]
	c.pos++
	c.opener.ReadCount++
	return true
}

func (c *StubChunks) Value() []datakit.Example { return c.cur }

func (c *StubChunks) Err() error { return c.err }

func (c *StubChunks) Close() error {
	c.Closed = true
	return nil
}
