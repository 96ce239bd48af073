package dupsample

import (
	"fmt"
	"sync"
)

// matchNode is one position in a size bucket's match tree: either a *leafNode
// or an *indexNode.
type matchNode interface {
	representative() string
}

// leafNode holds a single candidate path. Leaves at the final trial depth (or at
// the root of a bucket of tiny files) also carry the full-content digests seen so
// far, created the first time a file reaches them.
type leafNode struct {
	path     string
	verified map[string]string // full digest -> first path with that content
}

func (l *leafNode) representative() string { return l.path }

// indexNode has been split by sampled digests. All files compared here are
// hashed over the same offsets.
type indexNode struct {
	path     string
	offsets  []int64
	children map[string]matchNode
}

func (n *indexNode) representative() string { return n.path }

// promote turns leaf into an index whose only child is leaf itself, filed under
// the representative's digest over offsets.
func promote(leaf *leafNode, offsets []int64, digest string) *indexNode {
	return &indexNode{
		path:     leaf.path,
		offsets:  offsets,
		children: map[string]matchNode{digest: leaf},
	}
}

// sizeBucket is the root of the match tree for one file size. mu serializes the
// trial-loop descent of files sharing that size.
type sizeBucket struct {
	mu   sync.Mutex
	root matchNode
}

const numBucketShards = 64 // Power of 2 for fast bitwise mod

type bucketShard struct {
	mu      sync.RWMutex
	buckets map[int64]*sizeBucket
}

// Registry maps file sizes to match trees for one classification run. Buckets of
// different sizes never interact, so they live in independently locked shards.
type Registry struct {
	shards []*bucketShard

	bindOnce sync.Once
	layout   Options // sampling parameters the tree was built with
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	r := &Registry{shards: make([]*bucketShard, numBucketShards)}
	for i := range r.shards {
		r.shards[i] = &bucketShard{buckets: make(map[int64]*sizeBucket)}
	}
	return r
}

func (r *Registry) shard(size int64) *bucketShard {
	return r.shards[uint64(size)&(numBucketShards-1)]
}

// bind ties the registry to one sampling layout. Trees built with one block size,
// block count or trial count cannot be walked with another.
func (r *Registry) bind(opts Options) error {
	r.bindOnce.Do(func() { r.layout = opts })
	if r.layout.BlockSize != opts.BlockSize || r.layout.Blocks != opts.Blocks || r.layout.Trials != opts.Trials {
		return fmt.Errorf("registry built with block_size=%d blocks=%d trials=%d, cannot classify with block_size=%d blocks=%d trials=%d",
			r.layout.BlockSize, r.layout.Blocks, r.layout.Trials, opts.BlockSize, opts.Blocks, opts.Trials)
	}
	return nil
}

// loadOrCreate returns the bucket for size. When none exists a bucket rooted at a
// leaf for path is created and created is true.
func (r *Registry) loadOrCreate(size int64, path string) (bucket *sizeBucket, created bool) {
	s := r.shard(size)
	s.mu.RLock()
	bucket, ok := s.buckets[size]
	s.mu.RUnlock()
	if ok {
		return bucket, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if bucket, ok = s.buckets[size]; ok {
		return bucket, false
	}
	bucket = &sizeBucket{root: &leafNode{path: path}}
	s.buckets[size] = bucket
	return bucket, true
}

// Len returns the number of distinct sizes seen
func (r *Registry) Len() int {
	count := 0
	for _, s := range r.shards {
		s.mu.RLock()
		count += len(s.buckets)
		s.mu.RUnlock()
	}
	return count
}

// Representative returns the root representative for size, if any
func (r *Registry) Representative(size int64) (string, bool) {
	s := r.shard(size)
	s.mu.RLock()
	bucket, ok := s.buckets[size]
	s.mu.RUnlock()
	if !ok {
		return "", false
	}
	bucket.mu.Lock()
	defer bucket.mu.Unlock()
	return bucket.root.representative(), true
}
