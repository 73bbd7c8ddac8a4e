package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("storage: not found")

// KeyValueStore is the device-local string store (the localStorage equivalent).
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// SetMany writes all entries or none.
	SetMany(ctx context.Context, entries map[string]string) error
	Delete(ctx context.Context, key string) error
}
