package dupsample

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// Options controls sampling and verification
type Options struct {
	BlockSize int  // bytes per sampled or streamed chunk
	Blocks    int  // samples per trial
	Trials    int  // sampling rounds before a probable match
	Verify    bool // require full-content confirmation before reporting
}

// DefaultOptions returns the stock sampling layout with verification on
func DefaultOptions() Options {
	return Options{
		BlockSize: DefaultBlockSize,
		Blocks:    DefaultBlocks,
		Trials:    DefaultTrials,
		Verify:    true,
	}
}

// Validate checks that the options describe a usable sampling layout
func (o Options) Validate() error {
	if o.BlockSize <= 0 {
		return fmt.Errorf("block size must be positive, got %d", o.BlockSize)
	}
	if o.Blocks < 1 {
		return fmt.Errorf("blocks per trial must be at least 1, got %d", o.Blocks)
	}
	if o.Trials < 1 {
		return fmt.Errorf("trials must be at least 1, got %d", o.Trials)
	}
	return nil
}

// tiny reports whether a file is too small for sampling to save any reads
func (o Options) tiny(size int64) bool {
	return size <= int64(o.Blocks)*int64(o.BlockSize)
}

// Pair is one duplicate observation: New has the same content as Original.
type Pair struct {
	New      string `json:"new"`
	Original string `json:"original"`
	Size     int64  `json:"size"`
}

// Result is the classifier's verdict for one file
type Result struct {
	Path    string
	Size    int64
	Outcome Outcome
	// Original is the file New was matched against. Set for probable and
	// confirmed duplicates, and for false positives (the sample-identical file).
	Original string
}

// Pair returns the duplicate pair for the result, if it is one
func (r Result) Pair() (Pair, bool) {
	if !r.Outcome.IsDuplicate() {
		return Pair{}, false
	}
	return Pair{New: r.Path, Original: r.Original, Size: r.Size}, true
}

// Stats counts classification outcomes
type Stats struct {
	Files          int64 `json:"files"`
	Unseen         int64 `json:"unseen"`
	Distinct       int64 `json:"distinct"`
	Probable       int64 `json:"probable"`
	Confirmed      int64 `json:"confirmed"`
	FalsePositives int64 `json:"false_positives"`
	Errors         int64 `json:"errors"`
	DuplicateBytes int64 `json:"duplicate_bytes"`
}

type classifierCounters struct {
	files, unseen, distinct, probable, confirmed, falsePositives, errors, dupBytes atomic.Int64
}

// Classifier decides, one file at a time, whether a file duplicates one seen
// earlier in the run. It is safe for concurrent use: files of different sizes
// proceed in parallel, files of the same size are serialized.
type Classifier struct {
	opts     Options
	engine   *DigestEngine
	sampler  *Sampler
	registry *Registry
	counters classifierCounters
}

// NewClassifier wires a classifier to its digest engine, sampler and registry.
// A nil registry gets a fresh one.
func NewClassifier(opts Options, engine *DigestEngine, sampler *Sampler, registry *Registry) (*Classifier, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if engine == nil {
		return nil, fmt.Errorf("classifier requires a digest engine")
	}
	if engine.BlockSize() != opts.BlockSize {
		return nil, fmt.Errorf("digest engine block size %d does not match options block size %d", engine.BlockSize(), opts.BlockSize)
	}
	if sampler == nil {
		sampler = NewSampler(0)
	}
	if registry == nil {
		registry = NewRegistry()
	}
	if err := registry.bind(opts); err != nil {
		return nil, err
	}
	return &Classifier{
		opts:     opts,
		engine:   engine,
		sampler:  sampler,
		registry: registry,
	}, nil
}

// Options returns the classifier's options
func (c *Classifier) Options() Options {
	return c.opts
}

// Registry returns the registry the classifier updates
func (c *Classifier) Registry() *Registry {
	return c.registry
}

// Stats returns a snapshot of the outcome counters
func (c *Classifier) Stats() Stats {
	return Stats{
		Files:          c.counters.files.Load(),
		Unseen:         c.counters.unseen.Load(),
		Distinct:       c.counters.distinct.Load(),
		Probable:       c.counters.probable.Load(),
		Confirmed:      c.counters.confirmed.Load(),
		FalsePositives: c.counters.falsePositives.Load(),
		Errors:         c.counters.errors.Load(),
		DuplicateBytes: c.counters.dupBytes.Load(),
	}
}

// Classify processes one regular file of the given size. An error means the file
// could not be read; the match tree then holds no trace of it.
func (c *Classifier) Classify(path string, size int64) (Result, error) {
	defer VerboseEnter()()
	c.counters.files.Add(1)

	res, err := c.classify(path, size)
	if err != nil {
		c.counters.errors.Add(1)
		return Result{Path: path, Size: size}, err
	}

	switch res.Outcome {
	case OutcomeUnseen:
		c.counters.unseen.Add(1)
	case OutcomeDistinct:
		c.counters.distinct.Add(1)
	case OutcomeProbable:
		c.counters.probable.Add(1)
		c.counters.dupBytes.Add(size)
	case OutcomeConfirmed:
		c.counters.confirmed.Add(1)
		c.counters.dupBytes.Add(size)
	case OutcomeFalsePositive:
		c.counters.falsePositives.Add(1)
	}
	if IsDebugEnabled("tree") {
		VerboseLog(2, "classify: %s %s (size=%d original=%q)", res.Outcome, path, size, res.Original)
	}
	return res, nil
}

func (c *Classifier) classify(path string, size int64) (Result, error) {
	res := Result{Path: path, Size: size}

	bucket, created := c.registry.loadOrCreate(size, path)
	if created {
		res.Outcome = OutcomeUnseen
		return res, nil
	}

	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	// Sampling cannot beat a full read on files this small, so they are always
	// verified, even when verification is switched off.
	if c.opts.tiny(size) {
		leaf, ok := bucket.root.(*leafNode)
		if !ok {
			return res, fmt.Errorf("size bucket %d: expected leaf root for small file", size)
		}
		return c.verify(leaf, res, OutcomeDistinct, true)
	}

	node := bucket.root
	replace := func(n matchNode) { bucket.root = n }

	for trial := 0; trial < c.opts.Trials; trial++ {
		var idx *indexNode
		var digest string

		switch n := node.(type) {
		case *leafNode:
			offsets := c.sampler.Sample(c.opts.Blocks, c.opts.BlockSize, size)
			var err error
			if digest, err = c.engine.Sampled(path, offsets); err != nil {
				return res, err
			}
			repDigest, err := c.engine.Sampled(n.path, offsets)
			if err != nil {
				if !unreadable(err) {
					return res, err
				}
				return c.takeOver(n, res, node == bucket.root, err), nil
			}
			// Both reads succeeded; only now is the tree changed.
			idx = promote(n, offsets, repDigest)
			replace(idx)
			if IsDebugEnabled("tree") {
				VerboseLog(3, "tree: promoted %s at trial %d (size=%d)", n.path, trial, size)
			}
		case *indexNode:
			idx = n
			var err error
			if digest, err = c.engine.Sampled(path, idx.offsets); err != nil {
				return res, err
			}
		}

		child, ok := idx.children[digest]
		if !ok {
			idx.children[digest] = &leafNode{path: path}
			res.Outcome = OutcomeDistinct
			return res, nil
		}
		node = child
		replace = func(n matchNode) { idx.children[digest] = n }
	}

	leaf, ok := node.(*leafNode)
	if !ok {
		return res, fmt.Errorf("size bucket %d: match tree deeper than %d trials", size, c.opts.Trials)
	}
	if !c.opts.Verify {
		res.Outcome = OutcomeProbable
		res.Original = leaf.path
		return res, nil
	}
	return c.verify(leaf, res, OutcomeFalsePositive, false)
}

// verify compares full-content digests against the leaf's cache, creating the
// cache from the leaf's representative on first use. A file whose content is new
// to the leaf is recorded there and gets the mismatch outcome. root tells whether
// leaf is the root of its bucket.
func (c *Classifier) verify(leaf *leafNode, res Result, mismatch Outcome, root bool) (Result, error) {
	digest, err := c.engine.Full(res.Path)
	if err != nil {
		return res, err
	}

	if leaf.verified == nil {
		repDigest, err := c.engine.Full(leaf.path)
		if err != nil {
			if !unreadable(err) {
				return res, err
			}
			res = c.takeOver(leaf, res, root, err)
			leaf.verified = map[string]string{digest: res.Path}
			return res, nil
		}
		leaf.verified = map[string]string{repDigest: leaf.path}
	}

	if original, ok := leaf.verified[digest]; ok {
		res.Outcome = OutcomeConfirmed
		res.Original = original
		return res, nil
	}

	leaf.verified[digest] = res.Path
	res.Outcome = mismatch
	if mismatch == OutcomeFalsePositive {
		res.Original = leaf.path
	}
	return res, nil
}

// takeOver makes the incoming file the representative of a leaf whose current
// representative can no longer be read. The incoming file has already been read
// successfully, so later files of this size are compared against it.
func (c *Classifier) takeOver(leaf *leafNode, res Result, root bool, cause error) Result {
	if IsDebugEnabled("tree") {
		VerboseLog(2, "tree: %s replaces unreadable representative: %v", res.Path, cause)
	}
	leaf.path = res.Path
	leaf.verified = nil
	if root {
		res.Outcome = OutcomeUnseen
	} else {
		res.Outcome = OutcomeDistinct
	}
	return res
}

// unreadable reports whether err means the file is gone or cannot be opened,
// as opposed to a fault while reading it
func unreadable(err error) bool {
	return errors.Is(err, ErrPathVanished) || errors.Is(err, ErrPermissionDenied)
}
