package minikv

import (
	"strconv"
	"testing"
)

func BenchmarkRead(b *testing.B) {
	store := NewStore()
	key := []byte("small key")
	store.Set(key, []byte("The quick brown fox jumps over the lazy dogs"))
	for b.Loop() {
		store.Get(key)
	}
}

func BenchmarkWriteLargeData(b *testing.B) {
	store := NewStore()

	// Pre-allocate key and value buffers
	key := make([]byte, 999)       // 1 KB key
	value := make([]byte, 999*999) // 1 MB value

	for i := range key {
		key[i] = byte(i % 256)
	}
	for i := range value {
		value[i] = byte(i % 256)
	}

	i := 0
	for b.Loop() {
		// Vary the key slightly for each iteration
		key[0] = byte(i % 256)
		store.Set(key, value)
		i++
	}
}

func BenchmarkParallelReadWrite(b *testing.B) {
	store := NewStore()
	for i := 0; i < 1000; i++ {
		store.Set([]byte("key"+strconv.Itoa(i)), []byte("value"))
	}

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			key := []byte("key" + strconv.Itoa(i%1000))
			if i%4 == 0 {
				store.Set(key, []byte("updated"))
			} else {
				store.Get(key)
			}
			i++
		}
	})
}
