package cache

import (
	"context"
	"encoding/json"
	"time"
)

// SnapshotVersion is written into every snapshot.
const SnapshotVersion = "1"

// Snapshot is the persisted form of one cache.
//
//	{"version":"1","entries":{"<key>":{"value":<json>,"expires_at":"<RFC 3339>"}}}
type Snapshot struct {
	Version string           `json:"version"`
	Entries map[string]Entry `json:"entries"`
}

// Entry is one persisted key. ExpiresAt is absolute, so remaining TTL
// survives the round trip.
type Entry struct {
	Value     json.RawMessage `json:"value"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// Store persists cache snapshots by name.
type Store interface {
	// Load returns the snapshot for name, or (nil, nil) if none exists.
	Load(ctx context.Context, name string) (*Snapshot, error)

	// Save replaces the snapshot for name.
	Save(ctx context.Context, name string, snap *Snapshot) error

	// Delete removes the snapshot for name. Deleting a missing snapshot is not an error.
	Delete(ctx context.Context, name string) error

	// String describes where snapshots live, for display.
	String() string
}
