package cache

import "context"

// NullStore never persists anything. Caches backed by it still work in
// memory for the lifetime of the process.
// Useful for testing or when --no-cache is given.
type NullStore struct{}

// Load always reports no snapshot.
func (NullStore) Load(context.Context, string) (*Snapshot, error) { return nil, nil }

// Save does nothing.
func (NullStore) Save(context.Context, string, *Snapshot) error { return nil }

// Delete does nothing.
func (NullStore) Delete(context.Context, string) error { return nil }

func (NullStore) String() string { return "none" }

// Ensure NullStore implements Store.
var _ Store = NullStore{}
