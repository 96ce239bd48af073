package dupsample

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Sampler picks block-aligned offsets spread evenly across a file. Each of the
// n sub-ranges of the block index space contributes one uniformly random block,
// so a sequence covers the whole file without being predictable.
type Sampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSampler returns a sampler seeded with seed. A zero seed uses the clock.
func NewSampler(seed uint64) *Sampler {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Sampler{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Sample returns nBlocks byte offsets for a file of fileSize bytes. Offsets are
// non-decreasing and each is a multiple of blockSize no greater than
// floor(fileSize/blockSize)*blockSize.
func (s *Sampler) Sample(nBlocks, blockSize int, fileSize int64) []int64 {
	if nBlocks <= 0 || blockSize <= 0 {
		return []int64{}
	}
	maxIndex := fileSize / int64(blockSize)
	if maxIndex < 0 {
		maxIndex = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	offsets := make([]int64, 0, nBlocks)
	var lower int64
	for i := 0; i < nBlocks; i++ {
		upper := int64(i+1) * maxIndex / int64(nBlocks)
		block := lower + s.rng.Int64N(upper-lower+1)
		offsets = append(offsets, block*int64(blockSize))
		lower = upper
	}

	if IsDebugEnabled("sample") {
		VerboseLog(3, "sample: size=%d blocks=%d bs=%d -> %v", fileSize, nBlocks, blockSize, offsets)
	}
	return offsets
}
