package dataload

import (
	"context"
	"os"
	"path/filepath"

	uuid "github.com/satori/go.uuid"

	"go.llib.dev/frameless/pkg/errorkit"
)

// FileCache is the default snapshot Repository, storing one file per cache key.
//
// Publication is atomic: a snapshot is written to a uniquely named temporary
// file first and then renamed into place, so a concurrent reader never
// observes a partially written entry.
type FileCache struct {
	// Dir is the directory the snapshots are stored in.
	// It is created on the first Store call.
	Dir string
}

func (r *FileCache) entryPath(key string) string {
	return filepath.Join(r.Dir, key+".snapshot")
}

func (r *FileCache) Lookup(ctx context.Context, key string) (Snapshot, bool, error) {
	data, err := os.ReadFile(r.entryPath(key))
	if os.IsNotExist(err) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}
	var snap Snapshot
	if err := snap.UnmarshalBinary(data); err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}

func (r *FileCache) Store(ctx context.Context, key string, snap Snapshot) error {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return err
	}
	data, err := snap.MarshalBinary()
	if err != nil {
		return err
	}
	dst := r.entryPath(key)
	tmp := dst + "." + uuid.NewV4().String() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		return errorkit.Merge(err, os.Remove(tmp))
	}
	return nil
}
