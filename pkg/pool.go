package dupsample

import "sync"

// blockPool recycles block-sized read buffers between digest calls.
type blockPool struct {
	size int
	pool sync.Pool
}

func newBlockPool(size int) *blockPool {
	bp := &blockPool{size: size}
	bp.pool.New = func() any {
		b := make([]byte, size)
		return &b
	}
	return bp
}

func (bp *blockPool) Get() *[]byte {
	return bp.pool.Get().(*[]byte)
}

func (bp *blockPool) Put(b *[]byte) {
	// Only put it back if it's the right size.
	if b == nil || cap(*b) != bp.size {
		return
	}
	*b = (*b)[:bp.size]
	bp.pool.Put(b)
}
