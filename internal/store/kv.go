/*
Package store persists generated tools.

A small key-value interface stands in for browser local storage; ToolStore
keeps the capped recency list of HistoryEntry records, one theme entry per
tool id and the id of the most recently created tool on top of it.
*/
package store

import "context"

// KV is a durable string-keyed byte store. Last writer wins per key.
type KV interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend.
	Close() error
}
