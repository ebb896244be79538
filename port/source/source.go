// Package source defines the record source capability of datakit.
//
// A record source yields the examples of a file in bounded-size chunks,
// through an explicit pull cursor.
// The cursor never reads ahead of the caller:
// it advances the underlying file only when the next chunk is requested,
// which keeps memory use independent of the source size.
package source

import (
	"context"
	"io"

	"go.llib.dev/frameless/pkg/errorkit"

	"go.llib.dev/datakit"
)

const (
	// ErrSourceUnavailable is returned when a source file is missing or unreadable.
	// The error is fatal to the load call and is not retried.
	ErrSourceUnavailable errorkit.Error = "ErrSourceUnavailable"
	// ErrUnsupportedFormat is returned when no Opener is registered for a format token.
	ErrUnsupportedFormat errorkit.Error = "ErrUnsupportedFormat"
)

// Format identifies the record encoding of a source file.
type Format string

const (
	CSV   Format = "csv"
	JSON  Format = "json"
	JSONL Format = "jsonl"
)

// Opener is the capability to open a file as a chunked record stream.
type Opener interface {
	// Open opens the file at path for reading.
	// chunkSize is the upper bound on the number of examples a single Chunks.Next call may yield.
	// Opening a missing or unreadable file returns ErrSourceUnavailable.
	Open(ctx context.Context, path string, chunkSize int) (Chunks, error)
}

// Chunks is a pull cursor over the chunks of an open source.
//
// One full traversal yields the chunks in file order.
// A Chunks value is single use: once Next returned false it keeps returning false,
// re-reading a source requires a new Open call.
type Chunks interface {
	// Next advances the cursor to the next chunk.
	// It returns false when the source is exhausted or reading failed,
	// in which case Err reports the cause.
	Next() bool
	// Value returns the current chunk.
	// It is only valid after a Next call that returned true.
	Value() []datakit.Example
	// Err returns the error that stopped the iteration, if any.
	Err() error
	// Closer releases the underlying file handle.
	// Abandoning iteration early without closing leaks the handle.
	io.Closer
}

// RecordWriter is a streaming encoder for a sequence of examples.
// Close finishes the encoding and must be called exactly once.
type RecordWriter interface {
	Encode(datakit.Example) error
	io.Closer
}

// Writer is the persistence capability: it creates a RecordWriter
// that writes an ordered example sequence to the file at path.
type Writer interface {
	Create(ctx context.Context, path string) (RecordWriter, error)
}
