package sleepproxy

import "sync"

// BufferPool hands out reusable byte slices for the proxy's io.CopyBuffer
// loops, avoiding one allocation per direction per connection under load.
type BufferPool interface {
	Get() []byte
	Put([]byte)
}

type SyncPoolBufferPool struct {
	size int
	p    sync.Pool
}

func NewSyncPoolBufferPool(size int) *SyncPoolBufferPool {
	if size <= 0 {
		size = 32 * 1024
	}
	bp := &SyncPoolBufferPool{size: size}
	bp.p.New = func() any { return make([]byte, bp.size) }
	return bp
}

func (p *SyncPoolBufferPool) Get() []byte {
	return p.p.Get().([]byte)
}

func (p *SyncPoolBufferPool) Put(b []byte) {
	if cap(b) < p.size {
		return
	}
	b = b[:p.size]
	p.p.Put(b)
}

var defaultBufferPool = NewSyncPoolBufferPool(32 * 1024)
