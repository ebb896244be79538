package jsonfile_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.llib.dev/datakit"
	"go.llib.dev/datakit/adapter/jsonfile"
	"go.llib.dev/datakit/port/source"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readChunks(t *testing.T, o jsonfile.Opener, path string, chunkSize int) [][]datakit.Example {
	t.Helper()
	chunks, err := o.Open(context.Background(), path, chunkSize)
	require.NoError(t, err)
	defer func() { require.NoError(t, chunks.Close()) }()
	var out [][]datakit.Example
	for chunks.Next() {
		out = append(out, chunks.Value())
	}
	require.NoError(t, chunks.Err())
	return out
}

func TestOpener(t *testing.T) {
	t.Run("array elements become examples", func(t *testing.T) {
		path := writeFile(t, "data.json", `[{"id": 1, "text": "hello"}, {"id": 2, "text": "world"}]`)
		chunks := readChunks(t, jsonfile.Opener{}, path, 10)

		require.Len(t, chunks, 1)
		assert.Equal(t, datakit.Example{"id": float64(1), "text": "hello"}, chunks[0][0])
		assert.Equal(t, datakit.Example{"id": float64(2), "text": "world"}, chunks[0][1])
	})

	t.Run("elements are served in chunks of the requested size", func(t *testing.T) {
		path := writeFile(t, "data.json", `[{"id": 1}, {"id": 2}, {"id": 3}]`)
		chunks := readChunks(t, jsonfile.Opener{}, path, 2)

		require.Len(t, chunks, 2)
		assert.Len(t, chunks[0], 2)
		assert.Len(t, chunks[1], 1)
	})

	t.Run("an empty array yields no chunks", func(t *testing.T) {
		path := writeFile(t, "data.json", `[]`)
		assert.Empty(t, readChunks(t, jsonfile.Opener{}, path, 10))
	})

	t.Run("nested values survive the decoding", func(t *testing.T) {
		path := writeFile(t, "data.json", `[{"id": 1, "tags": ["a", "b"], "meta": {"lang": "en"}}]`)
		chunks := readChunks(t, jsonfile.Opener{}, path, 10)

		require.Len(t, chunks, 1)
		assert.Equal(t, datakit.Example{
			"id":   float64(1),
			"tags": []any{"a", "b"},
			"meta": map[string]any{"lang": "en"},
		}, chunks[0][0])
	})

	t.Run("a non-array top level reports the source as unavailable", func(t *testing.T) {
		path := writeFile(t, "data.json", `{"id": 1}`)
		_, err := jsonfile.Opener{}.Open(context.Background(), path, 10)
		assert.ErrorIs(t, err, source.ErrSourceUnavailable)
	})

	t.Run("a missing file reports the source as unavailable", func(t *testing.T) {
		_, err := jsonfile.Opener{}.Open(context.Background(), filepath.Join(t.TempDir(), "nope.json"), 10)
		assert.ErrorIs(t, err, source.ErrSourceUnavailable)
	})

	t.Run("a malformed element surfaces as a traversal error", func(t *testing.T) {
		path := writeFile(t, "data.json", `[{"id": 1}, {"id": `)
		chunks, err := jsonfile.Opener{}.Open(context.Background(), path, 1)
		require.NoError(t, err)
		defer func() { require.NoError(t, chunks.Close()) }()

		for chunks.Next() {
		}
		assert.ErrorIs(t, chunks.Err(), source.ErrSourceUnavailable)
	})

	t.Run("json lines are decoded one object per line", func(t *testing.T) {
		path := writeFile(t, "data.jsonl", "{\"id\": 1}\n{\"id\": 2}\n{\"id\": 3}\n")
		chunks := readChunks(t, jsonfile.Opener{Lines: true}, path, 2)

		require.Len(t, chunks, 2)
		assert.Equal(t, datakit.Example{"id": float64(1)}, chunks[0][0])
		assert.Equal(t, datakit.Example{"id": float64(3)}, chunks[1][0])
	})
}

func TestWriter(t *testing.T) {
	write := func(t *testing.T, w jsonfile.Writer, examples ...datakit.Example) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "out.json")
		rw, err := w.Create(context.Background(), path)
		require.NoError(t, err)
		for _, e := range examples {
			require.NoError(t, rw.Encode(e))
		}
		require.NoError(t, rw.Close())
		return path
	}

	t.Run("written examples read back as a single array", func(t *testing.T) {
		path := write(t, jsonfile.Writer{},
			datakit.Example{"id": float64(1), "text": "hello"},
			datakit.Example{"id": float64(2), "text": "world"},
		)
		chunks := readChunks(t, jsonfile.Opener{}, path, 10)

		require.Len(t, chunks, 1)
		require.Len(t, chunks[0], 2)
		assert.Equal(t, datakit.Example{"id": float64(1), "text": "hello"}, chunks[0][0])
	})

	t.Run("an empty dataset produces a valid empty array", func(t *testing.T) {
		path := write(t, jsonfile.Writer{})

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "[]", string(data))
		assert.Empty(t, readChunks(t, jsonfile.Opener{}, path, 10))
	})

	t.Run("lines mode writes one object per line", func(t *testing.T) {
		path := write(t, jsonfile.Writer{Lines: true},
			datakit.Example{"id": float64(1)},
			datakit.Example{"id": float64(2)},
		)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "{\"id\":1}\n{\"id\":2}\n", string(data))

		chunks := readChunks(t, jsonfile.Opener{Lines: true}, path, 10)
		require.Len(t, chunks, 1)
		require.Len(t, chunks[0], 2)
	})

	t.Run("closing twice is harmless", func(t *testing.T) {
		rw, err := jsonfile.Writer{}.Create(context.Background(), filepath.Join(t.TempDir(), "out.json"))
		require.NoError(t, err)
		require.NoError(t, rw.Close())
		assert.NoError(t, rw.Close())
	})
}
