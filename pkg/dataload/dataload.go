// Package dataload orchestrates record sources and the snapshot cache
// to produce either a materialised or a streaming dataset.
//
// Caching is advisory: a cache failure costs a re-parse, never a failed load.
package dataload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"go.llib.dev/frameless/pkg/env"
	"go.llib.dev/frameless/pkg/logger"
	"go.llib.dev/frameless/pkg/logging"
	"go.llib.dev/testcase/clock"

	"go.llib.dev/datakit/adapter/csvfile"
	"go.llib.dev/datakit/adapter/jsonfile"
	"go.llib.dev/datakit/pkg/dataset"
	"go.llib.dev/datakit/port/source"
)

// CacheConfig governs whether a Loader consults and populates the snapshot cache.
type CacheConfig struct {
	// Enabled turns snapshot caching on for materialised loads.
	Enabled bool `env:"DATAKIT_CACHE_ENABLED" default:"false"`
	// Location is the directory the default file-based repository stores snapshots in.
	Location string `env:"DATAKIT_CACHE_LOCATION" default:".datakit-cache"`
	// Expiration is the time-to-live of a snapshot.
	// An entry older than Expiration is treated as absent.
	// A non-positive Expiration means entries never expire by age.
	Expiration time.Duration `env:"DATAKIT_CACHE_EXPIRATION" default:"24h"`
}

// CacheConfigFromEnv loads the cache configuration from the environment.
func CacheConfigFromEnv() (CacheConfig, error) {
	var c CacheConfig
	err := env.Load(&c)
	return c, err
}

// Repository is the storage capability of the snapshot cache.
//
// The storage location may be shared by independent loader processes.
// Store must publish atomically: a concurrent Lookup either sees the
// previous complete snapshot or the new complete snapshot, never a partial write.
// No cross-process mutual exclusion is expected; a write race costs at worst
// a redundant re-parse.
type Repository interface {
	Lookup(ctx context.Context, key string) (Snapshot, bool, error)
	Store(ctx context.Context, key string, snap Snapshot) error
}

// Key derives the cache key of a load from the source identity and the load parameters.
// It is a pure function; the source modification marker is not part of the key,
// so a changed source overwrites its stale entry instead of leaking a new one.
func Key(path string, format source.Format, chunkSize int) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%d", path, format, chunkSize))
	return hex.EncodeToString(sum[:])[:32]
}

// Loader loads datasets from record sources,
// with optional snapshot caching for materialised loads.
//
// The zero value is usable: it reads CSV, JSON and JSON Lines files
// with the default chunk size and no caching.
type Loader struct {
	// Openers maps format tokens to record source implementations.
	// Formats not present fall back to the built-in CSV/JSON/JSONL adapters.
	Openers map[source.Format]source.Opener
	// ChunkSize bounds how many examples one source read may yield.
	//
	// Default: dataset.DefaultChunkSize
	ChunkSize int
	// Cache configures the snapshot cache for Load calls.
	// Stream calls bypass the cache entirely.
	Cache CacheConfig
	// Repository overrides the snapshot storage.
	//
	// Default: FileCache under Cache.Location
	Repository Repository
}

func (l *Loader) opener(format source.Format) (source.Opener, error) {
	if o, ok := l.Openers[format]; ok {
		return o, nil
	}
	switch format {
	case source.CSV:
		return csvfile.Opener{}, nil
	case source.JSON:
		return jsonfile.Opener{}, nil
	case source.JSONL:
		return jsonfile.Opener{Lines: true}, nil
	default:
		return nil, source.ErrUnsupportedFormat.F("load: no opener for format %q", format)
	}
}

func (l *Loader) chunkSize() int {
	if l.ChunkSize <= 0 {
		return dataset.DefaultChunkSize
	}
	return l.ChunkSize
}

func (l *Loader) repository() Repository {
	if l.Repository != nil {
		return l.Repository
	}
	return &FileCache{Dir: l.Cache.Location}
}

// marker captures the source's last-modified state.
// A cached snapshot is only served while its marker still matches.
func marker(path string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", source.ErrSourceUnavailable.F("load: stat %q: %w", path, err)
	}
	return fmt.Sprintf("%d:%d", fi.ModTime().UnixNano(), fi.Size()), nil
}

// Load materialises the file at path into a Dataset.
//
// With caching enabled, a fresh snapshot under the derived key is returned
// without touching the record source; on a miss the source is parsed in full
// and the result is stored before returning.
// A missing source is an ErrSourceUnavailable failure,
// an unknown format token an ErrUnsupportedFormat failure; neither is retried.
func (l *Loader) Load(ctx context.Context, path string, format source.Format) (*dataset.Dataset, error) {
	opener, err := l.opener(format)
	if err != nil {
		return nil, err
	}
	mark, err := marker(path)
	if err != nil {
		return nil, err
	}
	var (
		key  string
		repo Repository
	)
	if l.Cache.Enabled {
		key = Key(path, format, l.chunkSize())
		repo = l.repository()
		snap, found, err := repo.Lookup(ctx, key)
		if err != nil {
			logger.Warn(ctx, "dataset cache lookup failed",
				logging.Field("key", key), logging.ErrField(err))
		} else if found && snap.Fresh(mark, l.Cache.Expiration) {
			return dataset.New(snap.Examples), nil
		}
	}
	stream := &dataset.Streaming{Opener: opener, Path: path, ChunkSize: l.chunkSize()}
	ds, err := stream.ToDataset(ctx)
	if err != nil {
		return nil, err
	}
	if l.Cache.Enabled {
		snap := Snapshot{
			Examples:  ds.Examples(),
			Marker:    mark,
			CreatedAt: clock.Now().UTC(),
		}
		if err := repo.Store(ctx, key, snap); err != nil {
			logger.Warn(ctx, "dataset cache write failed",
				logging.Field("key", key), logging.ErrField(err))
		}
	}
	return ds, nil
}

// Stream returns a lazy streaming view over the file at path.
//
// Streaming exists to avoid materialisation, so caching is bypassed entirely.
// The source handle is opened lazily by the first traversal, not here.
func (l *Loader) Stream(path string, format source.Format) (*dataset.Streaming, error) {
	opener, err := l.opener(format)
	if err != nil {
		return nil, err
	}
	return &dataset.Streaming{Opener: opener, Path: path, ChunkSize: l.chunkSize()}, nil
}
