package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutexSerializesPerKey(t *testing.T) {
	locks := newKeyedMutex()
	counters := map[int64]int{}
	var guard sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		key := int64(i % 3)
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(key)
			defer unlock()
			guard.Lock()
			v := counters[key]
			guard.Unlock()
			guard.Lock()
			counters[key] = v + 1
			guard.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 17, counters[0])
	assert.Equal(t, 17, counters[1])
	assert.Equal(t, 16, counters[2])
	assert.Empty(t, locks.locks)
}
