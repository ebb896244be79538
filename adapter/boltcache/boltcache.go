// Package boltcache provides a Bolt backed snapshot repository for dataload.
//
// Unlike the default file-per-entry cache, a Bolt database keeps every
// snapshot in a single file and serialises writers through its own locking,
// which suits loaders that cache many small sources.
package boltcache

import (
	"context"

	"github.com/boltdb/bolt"

	"go.llib.dev/datakit/pkg/dataload"
)

var bucketName = []byte("snapshots")

// Open opens (or creates) the Bolt database at path as a snapshot repository.
func Open(path string) (*Repository, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, err
	}
	return &Repository{DB: db}, nil
}

// Repository implements dataload.Repository on top of a Bolt database.
// Atomic publication comes from Bolt's transactions.
type Repository struct {
	DB *bolt.DB
}

func (r *Repository) Lookup(ctx context.Context, key string) (dataload.Snapshot, bool, error) {
	var (
		snap  dataload.Snapshot
		found bool
	)
	err := r.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return nil
		}
		data := b.Get([]byte(key))
		if data == nil {
			return nil
		}
		if err := snap.UnmarshalBinary(data); err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return dataload.Snapshot{}, false, err
	}
	return snap, found, nil
}

func (r *Repository) Store(ctx context.Context, key string, snap dataload.Snapshot) error {
	data, err := snap.MarshalBinary()
	if err != nil {
		return err
	}
	return r.DB.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), data)
	})
}

// Close closes the underlying Bolt database.
func (r *Repository) Close() error {
	return r.DB.Close()
}
