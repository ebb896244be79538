package dataload

import (
	"bytes"
	"encoding/gob"
	"time"

	"go.llib.dev/testcase/clock"

	"go.llib.dev/datakit"
)

func init() {
	// concrete types an Example value may carry through a gob round-trip
	gob.Register(map[string]any{})
	gob.Register([]any{})
	gob.Register([]string{})
	gob.Register(time.Time{})
	gob.Register(datakit.Example{})
}

// Snapshot is a fully materialised example sequence stored by the cache.
type Snapshot struct {
	// Examples is the parsed example sequence in source order.
	Examples []datakit.Example
	// Marker is the source's last-modified marker at parse time.
	Marker string
	// CreatedAt is the snapshot's creation timestamp.
	CreatedAt time.Time
}

// Fresh reports whether the snapshot may be served for a source
// that currently has the given modification marker.
// A stale marker or an entry older than expiration is a miss, never a partial hit.
func (s Snapshot) Fresh(marker string, expiration time.Duration) bool {
	if s.Marker != marker {
		return false
	}
	if expiration <= 0 {
		return true
	}
	return clock.Now().Sub(s.CreatedAt) < expiration
}

// snapshotDTO keeps the gob codec from recursing into MarshalBinary.
type snapshotDTO struct {
	Examples  []datakit.Example
	Marker    string
	CreatedAt time.Time
}

func (s Snapshot) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snapshotDTO(s)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Snapshot) UnmarshalBinary(data []byte) error {
	var dto snapshotDTO
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&dto); err != nil {
		return err
	}
	*s = Snapshot(dto)
	return nil
}
