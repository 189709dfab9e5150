// Package storage implements the party-local key/value backends a
// kernel.Session's Storage field can be pointed at: an in-process
// directory tree and an S3 bucket (spec.md §6). Both satisfy
// kernel.Storage directly, so either can be dropped into a Session
// without an adapter.
package storage

import "context"

// Store is the Load/Save contract kernel.Storage declares,
// restated here so this package does not need to import kernel
// just to name its own return type.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
}

// Miss is returned by a Store when key has never been saved.
type Miss struct {
	Key string
}

func (e *Miss) Error() string { return "storage: no such key: " + e.Key }
