package pool

import (
	"sync"
)

// SniffSize is the size of the small buffers used to detect content types.
const SniffSize = 3072

// BufferPool manages reusable buffers of one fixed size.
type BufferPool struct {
	size int
	pool *sync.Pool
}

// NewBufferPool creates a pool of size-byte buffers.
func NewBufferPool(size int) *BufferPool {
	return &BufferPool{
		size: size,
		pool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, size)
				return &buf
			},
		},
	}
}

// Size returns the buffer size handed out by the pool.
func (bp *BufferPool) Size() int {
	return bp.size
}

// Get returns a buffer with len and cap equal to Size.
// The caller is responsible for calling Put to return the buffer to the pool.
func (bp *BufferPool) Get() []byte {
	bufPtr := bp.pool.Get().(*[]byte)
	return (*bufPtr)[:bp.size]
}

// Put returns a buffer to the pool. Buffers of a different capacity are
// dropped. The buffer should not be used after calling Put.
func (bp *BufferPool) Put(buf []byte) {
	if cap(buf) != bp.size {
		return
	}
	buf = buf[:bp.size]
	bp.pool.Put(&buf)
}

// maxSharedPools bounds the registry. Adaptive part sizes differ per payload
// and would otherwise add one pool per upload.
const maxSharedPools = 8

var (
	registryMu sync.Mutex
	registry   = make(map[int]*BufferPool)
)

// ForSize returns the shared pool for size-byte buffers, creating it on first
// use. Uploads with the same part size share buffers. Once maxSharedPools
// sizes are registered, other sizes get a private pool that is released with
// its last user.
func ForSize(size int) *BufferPool {
	registryMu.Lock()
	defer registryMu.Unlock()

	if bp, ok := registry[size]; ok {
		return bp
	}
	bp := NewBufferPool(size)
	if len(registry) < maxSharedPools {
		registry[size] = bp
	}
	return bp
}

// GetSniffBuffer returns a SniffSize buffer from the shared pool.
func GetSniffBuffer() []byte {
	return ForSize(SniffSize).Get()
}

// PutSniffBuffer returns a sniff buffer to the shared pool.
func PutSniffBuffer(buf []byte) {
	ForSize(SniffSize).Put(buf)
}
