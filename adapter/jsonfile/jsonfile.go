// Package jsonfile adapts JSON array files and JSON Lines files
// to the datakit record source and persistence capabilities.
//
// Array files are decoded incrementally, element by element,
// so an open source never holds the whole array in memory.
package jsonfile

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.llib.dev/frameless/pkg/errorkit"

	"go.llib.dev/datakit"
	"go.llib.dev/datakit/port/source"
)

// Opener opens JSON files as chunked record streams.
type Opener struct {
	// Lines switches from a single JSON array of objects
	// to the JSON Lines format of one object per line.
	Lines bool
}

func (o Opener) Open(ctx context.Context, path string, chunkSize int) (source.Chunks, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, source.ErrSourceUnavailable.F("json: open %q: %w", path, err)
	}
	dec := json.NewDecoder(bufio.NewReader(f))
	if !o.Lines {
		tok, err := dec.Token()
		if err != nil {
			_ = f.Close()
			return nil, source.ErrSourceUnavailable.F("json: read %q: %w", path, err)
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '[' {
			_ = f.Close()
			return nil, source.ErrSourceUnavailable.F("json: %q: expected a top-level array, got %v", path, tok)
		}
	}
	return &chunks{ctx: ctx, f: f, dec: dec, array: !o.Lines, size: chunkSize}, nil
}

type chunks struct {
	ctx   context.Context
	f     *os.File
	dec   *json.Decoder
	array bool
	size  int

	cur  []datakit.Example
	err  error
	done bool
}

func (c *chunks) Next() bool {
	if c.done {
		return false
	}
	if err := c.ctx.Err(); err != nil {
		c.err = err
		c.done = true
		return false
	}
	chunk := make([]datakit.Example, 0, c.size)
	for len(chunk) < c.size {
		if c.array && !c.dec.More() {
			c.done = true
			break
		}
		var e datakit.Example
		err := c.dec.Decode(&e)
		if err == io.EOF {
			c.done = true
			break
		}
		if err != nil {
			c.err = source.ErrSourceUnavailable.F("json: decode %q: %w", c.f.Name(), err)
			c.done = true
			return false
		}
		chunk = append(chunk, e)
	}
	if len(chunk) == 0 {
		return false
	}
	c.cur = chunk
	return true
}

func (c *chunks) Value() []datakit.Example { return c.cur }

func (c *chunks) Err() error { return c.err }

func (c *chunks) Close() error {
	c.done = true
	if c.f == nil {
		return nil
	}
	f := c.f
	c.f = nil
	return f.Close()
}

// Writer persists example sequences as a JSON array,
// or as JSON Lines when Lines is set.
type Writer struct {
	Lines bool
}

func (w Writer) Create(ctx context.Context, path string) (source.RecordWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &recordWriter{f: f, w: bufio.NewWriter(f), array: !w.Lines}, nil
}

type recordWriter struct {
	f     *os.File
	w     *bufio.Writer
	array bool
	n     int
}

func (rw *recordWriter) Encode(e datakit.Example) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	var prefix string
	switch {
	case rw.array && rw.n == 0:
		prefix = "["
	case rw.array:
		prefix = ","
	case rw.n != 0:
		prefix = "\n"
	}
	if _, err := fmt.Fprintf(rw.w, "%s%s", prefix, data); err != nil {
		return err
	}
	rw.n++
	return nil
}

func (rw *recordWriter) Close() (rErr error) {
	if rw.f == nil {
		return nil
	}
	f := rw.f
	rw.f = nil
	defer errorkit.Finish(&rErr, f.Close)
	if rw.array {
		if rw.n == 0 {
			if _, err := rw.w.WriteString("["); err != nil {
				return err
			}
		}
		if _, err := rw.w.WriteString("]"); err != nil {
			return err
		}
	} else if rw.n != 0 {
		if _, err := rw.w.WriteString("\n"); err != nil {
			return err
		}
	}
	return rw.w.Flush()
}
