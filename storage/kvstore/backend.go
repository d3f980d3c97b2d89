package kvstore

import "errors"

var (
	// errors
	ErrKeyNotFound   = errors.New("key not found")
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	ErrWriteFailed   = errors.New("could not persist changes")
	ErrCorrupted     = errors.New("corrupted value")
)

// Backend persists raw JSON blobs by key. It knows nothing about the values it stores.
type Backend interface {
	// Load returns the blob stored under key or ErrKeyNotFound.
	Load(key string) ([]byte, error)
	// Save persists every value or none of them.
	Save(values map[string][]byte) error
	Delete(key string) error
	Close() error
}
