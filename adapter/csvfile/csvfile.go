// Package csvfile adapts CSV files to the datakit record source
// and persistence capabilities.
//
// The first row is the header; every further row becomes one example.
// Cell values are sniffed into int64, float64, bool or string.
package csvfile

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"sort"
	"strconv"

	"go.llib.dev/frameless/pkg/errorkit"

	"go.llib.dev/datakit"
	"go.llib.dev/datakit/port/source"
)

// Opener opens CSV files as chunked record streams.
type Opener struct {
	// Comma is the field delimiter.
	//
	// Default: ','
	Comma rune
}

func (o Opener) Open(ctx context.Context, path string, chunkSize int) (source.Chunks, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, source.ErrSourceUnavailable.F("csv: open %q: %w", path, err)
	}
	r := csv.NewReader(f)
	if o.Comma != 0 {
		r.Comma = o.Comma
	}
	header, err := r.Read()
	if err != nil && err != io.EOF {
		_ = f.Close()
		return nil, source.ErrSourceUnavailable.F("csv: read header of %q: %w", path, err)
	}
	return &chunks{ctx: ctx, f: f, r: r, header: header, size: chunkSize}, nil
}

type chunks struct {
	ctx    context.Context
	f      *os.File
	r      *csv.Reader
	header []string
	size   int

	cur  []datakit.Example
	err  error
	done bool
}

func (c *chunks) Next() bool {
	if c.done || c.header == nil {
		return false
	}
	if err := c.ctx.Err(); err != nil {
		c.err = err
		c.done = true
		return false
	}
	chunk := make([]datakit.Example, 0, c.size)
	for len(chunk) < c.size {
		row, err := c.r.Read()
		if err == io.EOF {
			c.done = true
			break
		}
		if err != nil {
			c.err = source.ErrSourceUnavailable.F("csv: read %q: %w", c.f.Name(), err)
			c.done = true
			return false
		}
		e := make(datakit.Example, len(c.header))
		for i, field := range c.header {
			if i < len(row) {
				e[field] = sniff(row[i])
			}
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

// sniff converts a CSV cell into the most specific value type it parses as.
func sniff(cell string) any {
	if v, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(cell, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseBool(cell); err == nil {
		return v
	}
	return cell
}

// Writer persists example sequences as CSV files.
//
// The header is locked in at the first encoded example, with its field
// names in sorted order. Later examples missing a field produce an empty
// cell; fields outside the header are dropped.
type Writer struct {
	// Comma is the field delimiter.
	//
	// Default: ','
	Comma rune
}

func (w Writer) Create(ctx context.Context, path string) (source.RecordWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	cw := csv.NewWriter(f)
	if w.Comma != 0 {
		cw.Comma = w.Comma
	}
	return &recordWriter{f: f, w: cw}, nil
}

type recordWriter struct {
	f      *os.File
	w      *csv.Writer
	header []string
}

func (rw *recordWriter) Encode(e datakit.Example) error {
	if rw.header == nil {
		rw.header = make([]string, 0, len(e))
		for field := range e {
			rw.header = append(rw.header, field)
		}
		sort.Strings(rw.header)
		if err := rw.w.Write(rw.header); err != nil {
			return err
		}
	}
	row := make([]string, len(rw.header))
	for i, field := range rw.header {
		if s, ok := e.String(field); ok {
			row[i] = s
		}
	}
	return rw.w.Write(row)
}

func (rw *recordWriter) Close() (rErr error) {
	if rw.f == nil {
		return nil
	}
	f := rw.f
	rw.f = nil
	defer errorkit.Finish(&rErr, f.Close)
	rw.w.Flush()
	return rw.w.Error()
}
