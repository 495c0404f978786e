package keydir

// Keydir maps keys to their current value. It is not safe for concurrent use,
// the owner is expected to serialize access.
type Keydir struct {
	mp map[string][]byte
}

// NewKeydir initializes a new Keydir
func NewKeydir() *Keydir {
	return &Keydir{
		mp: make(map[string][]byte),
	}
}

// Put stores value under key, replacing any existing value. The slice is retained as is.
func (k *Keydir) Put(key []byte, value []byte) {
	k.mp[string(key)] = value
}

// Get retrieves the value stored under key
func (k *Keydir) Get(key []byte) ([]byte, bool) {
	value, exists := k.mp[string(key)]
	return value, exists
}

// Delete removes key and reports whether it was present
func (k *Keydir) Delete(key []byte) bool {
	keyStr := string(key)
	if _, ok := k.mp[keyStr]; !ok {
		return false
	}
	delete(k.mp, keyStr)
	return true
}

// GetAllKeys retrieves all keys in the Keydir as a slice
func (k *Keydir) GetAllKeys() []string {
	keys := make([]string, 0, len(k.mp))
	for key := range k.mp {
		keys = append(keys, key)
	}
	return keys
}

func (k *Keydir) Size() int {
	return len(k.mp)
}
