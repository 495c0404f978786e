package minikv

import (
	"sort"
	"sync"

	"github.com/ananthvk/minikv/internal/glob"
	"github.com/ananthvk/minikv/internal/keydir"
)

// Store is an in-memory key value store shared by every client connection.
//
// Every operation holds the store lock only for the duration of that single
// operation. Values are copied on the way in and on the way out, so a caller
// can never observe a value that is being written, nor mutate a stored value
// through a slice it holds.
type Store struct {
	mu     sync.RWMutex
	keydir *keydir.Keydir
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		keydir: keydir.NewKeydir(),
	}
}

// Get returns the value associated with the key. If the key does not exist, `ErrKeyNotFound` is returned
func (store *Store) Get(key []byte) ([]byte, error) {
	store.mu.RLock()
	value, ok := store.keydir.Get(key)
	store.mu.RUnlock()
	if !ok {
		return nil, ErrKeyNotFound
	}
	return clone(value), nil
}

// Set sets the value for the specified key, overwriting any previous value.
// Concurrent sets of the same key are ordered by the store lock, the last one to acquire it wins.
func (store *Store) Set(key []byte, value []byte) {
	value = clone(value)
	store.mu.Lock()
	store.keydir.Put(key, value)
	store.mu.Unlock()
}

// Delete removes the key and reports whether it existed
func (store *Store) Delete(key []byte) bool {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.keydir.Delete(key)
}

// Exists reports whether the key is present
func (store *Store) Exists(key []byte) bool {
	store.mu.RLock()
	defer store.mu.RUnlock()
	_, ok := store.keydir.Get(key)
	return ok
}

// ListKeys returns the sorted list of keys matching the redis style glob pattern. An empty pattern matches every key.
func (store *Store) ListKeys(pattern string) []string {
	store.mu.RLock()
	keys := store.keydir.GetAllKeys()
	store.mu.RUnlock()

	if pattern != "" && pattern != "*" {
		matched := keys[:0]
		for _, key := range keys {
			if glob.Match(pattern, key) {
				matched = append(matched, key)
			}
		}
		keys = matched
	}
	sort.Strings(keys)
	return keys
}

// Size returns the number of keys present in the store
func (store *Store) Size() int {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.keydir.Size()
}

// clone keeps empty values distinct from missing ones
func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
