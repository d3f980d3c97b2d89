package kvstore

import "sync"

// MemoryBackend keeps blobs in a map. Several Stores may share one MemoryBackend to behave like
// several browser tabs over the same origin storage.
type MemoryBackend struct {
	sync.RWMutex
	table map[string][]byte
	// quota is the maximum total size (keys + values) in bytes; 0 means unlimited.
	quota int
}

var _ Backend = (*MemoryBackend)(nil) // interface compliance check

func NewMemoryBackend(quotaBytes int) *MemoryBackend {
	return &MemoryBackend{table: make(map[string][]byte), quota: quotaBytes}
}

func (b *MemoryBackend) Load(key string) ([]byte, error) {
	b.RLock()
	defer b.RUnlock()

	data, ok := b.table[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (b *MemoryBackend) Save(values map[string][]byte) error {
	b.Lock()
	defer b.Unlock()

	if b.quota > 0 {
		size := 0
		for k, v := range b.table {
			if _, replaced := values[k]; !replaced {
				size += len(k) + len(v)
			}
		}
		for k, v := range values {
			size += len(k) + len(v)
		}
		if size > b.quota {
			return ErrQuotaExceeded
		}
	}

	for k, v := range values {
		data := make([]byte, len(v))
		copy(data, v)
		b.table[k] = data
	}
	return nil
}

func (b *MemoryBackend) Delete(key string) error {
	b.Lock()
	defer b.Unlock()

	delete(b.table, key)
	return nil
}

// Close is a noop for a shared backend: the data must outlive any one Store using it.
func (b *MemoryBackend) Close() error {
	return nil
}

// Size returns the number of bytes currently used.
func (b *MemoryBackend) Size() int {
	b.RLock()
	defer b.RUnlock()

	size := 0
	for k, v := range b.table {
		size += len(k) + len(v)
	}
	return size
}
