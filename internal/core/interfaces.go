// Package core defines the interfaces and wire messages shared by the service packages.
package core

import "context"

// ObjectStore defines the interface for interacting with a key-value blob store.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
	// List returns the keys of all live objects.
	List(ctx context.Context) ([]string, error)
}
