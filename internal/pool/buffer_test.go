package pool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBufferPool(t *testing.T) {
	bp := NewBufferPool(1024)
	require.NotNil(t, bp)
	assert.Equal(t, 1024, bp.Size())
}

func TestBufferPool_GetPut(t *testing.T) {
	bp := NewBufferPool(4096)

	buf := bp.Get()
	require.NotNil(t, buf)
	assert.Equal(t, 4096, len(buf))
	assert.Equal(t, 4096, cap(buf))

	// A short read leaves a shorter slice; Put still accepts it.
	bp.Put(buf[:10])

	again := bp.Get()
	assert.Equal(t, 4096, len(again))
	bp.Put(again)
}

func TestBufferPool_PutForeignBuffer(t *testing.T) {
	bp := NewBufferPool(64)

	// Foreign sizes are dropped rather than pooled.
	bp.Put(make([]byte, 128))
	bp.Put(nil)

	buf := bp.Get()
	assert.Equal(t, 64, cap(buf))
}

func TestForSize(t *testing.T) {
	a := ForSize(8192)
	b := ForSize(8192)
	c := ForSize(16384)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 16384, c.Size())
}

func TestForSize_RegistryBounded(t *testing.T) {
	registryMu.Lock()
	saved := registry
	registry = make(map[int]*BufferPool)
	registryMu.Unlock()
	t.Cleanup(func() {
		registryMu.Lock()
		registry = saved
		registryMu.Unlock()
	})

	for i := 0; i < 4*maxSharedPools; i++ {
		bp := ForSize(1000 + i)
		assert.Equal(t, 1000+i, bp.Size())
		assert.Len(t, bp.Get(), 1000+i)
	}

	registryMu.Lock()
	n := len(registry)
	registryMu.Unlock()
	assert.Equal(t, maxSharedPools, n)

	// Registered sizes stay shared, later ones do not.
	assert.Same(t, ForSize(1000), ForSize(1000))
	assert.NotSame(t, ForSize(1000+maxSharedPools), ForSize(1000+maxSharedPools))
}

func TestSniffBuffer(t *testing.T) {
	buf := GetSniffBuffer()
	assert.Equal(t, SniffSize, len(buf))
	PutSniffBuffer(buf)
}

func TestBufferPool_Concurrent(t *testing.T) {
	bp := NewBufferPool(512)

	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func(fill byte) {
			defer wg.Done()
			for range 100 {
				buf := bp.Get()
				for j := range buf {
					buf[j] = fill
				}
				for _, b := range buf {
					if b != fill {
						t.Errorf("buffer shared between goroutines")
						return
					}
				}
				bp.Put(buf)
			}
		}(byte(i))
	}
	wg.Wait()
}
