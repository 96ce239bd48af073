package dupsample

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// PipelineConfig assembles a classification run
type PipelineConfig struct {
	Options   Options
	Algorithm *HashAlgorithm // nil means sha1
	Seed      uint64         // sampler seed, 0 for time based
	Workers   int            // classifier workers; files are sharded to workers by size
	Keep      KeepSelector   // nil keeps the first file seen
	Ignore    *IgnoreManager // nil skips hidden entries only
}

// PairFunc receives each duplicate pair together with the keep decision for it
type PairFunc func(Pair, Decision)

// Pipeline connects an enumerator to the classifier and the keep selector
type Pipeline struct {
	classifier *Classifier
	selector   *Selector
	index      *DuplicateIndex
	walker     *Walker
	workers    int
	emitMu     sync.Mutex
}

// NewPipeline builds the digest engine, sampler, classifier and selector for cfg
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	algorithm := cfg.Algorithm
	if algorithm == nil {
		var err error
		if algorithm, err = GetHashAlgorithm("sha1"); err != nil {
			return nil, err
		}
	}
	if err := cfg.Options.Validate(); err != nil {
		return nil, err
	}
	engine, err := NewDigestEngine(algorithm, cfg.Options.BlockSize)
	if err != nil {
		return nil, err
	}
	classifier, err := NewClassifier(cfg.Options, engine, NewSampler(cfg.Seed), NewRegistry())
	if err != nil {
		return nil, err
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Pipeline{
		classifier: classifier,
		selector:   NewSelector(cfg.Keep),
		index:      NewDuplicateIndex(),
		walker:     NewWalker(cfg.Ignore, 0),
		workers:    workers,
	}, nil
}

// Classifier returns the pipeline's classifier
func (p *Pipeline) Classifier() *Classifier { return p.classifier }

// Index returns the duplicate index built so far
func (p *Pipeline) Index() *DuplicateIndex { return p.index }

// Run walks roots and classifies every regular file found
func (p *Pipeline) Run(ctx context.Context, roots []string, onPair PairFunc) error {
	g, gctx := errgroup.WithContext(ctx)
	candidates := make(chan Candidate, 256)

	g.Go(func() error {
		defer close(candidates)
		return p.walker.Walk(gctx, roots, candidates)
	})
	g.Go(func() error {
		return p.Process(gctx, candidates, onPair)
	})
	return g.Wait()
}

// Process classifies candidates until in is closed. Non-regular entries are
// ignored. Per-file failures are logged and skipped. Each worker owns the sizes
// that map to it, so files of one size are classified in arrival order.
func (p *Pipeline) Process(ctx context.Context, in <-chan Candidate, onPair PairFunc) error {
	defer VerboseEnter()()

	if p.workers == 1 {
		for c := range in {
			if err := ctx.Err(); err != nil {
				return err
			}
			p.handle(c, onPair)
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	queues := make([]chan Candidate, p.workers)
	for i := range queues {
		queues[i] = make(chan Candidate, 64)
	}

	g.Go(func() error {
		defer func() {
			for _, q := range queues {
				close(q)
			}
		}()
		for c := range in {
			if !c.Regular {
				continue
			}
			q := queues[uint64(c.Size)%uint64(p.workers)]
			select {
			case q <- c:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for _, q := range queues {
		g.Go(func() error {
			for c := range q {
				p.handle(c, onPair)
			}
			return nil
		})
	}
	return g.Wait()
}

func (p *Pipeline) handle(c Candidate, onPair PairFunc) {
	if !c.Regular {
		return
	}
	res, err := p.classifier.Classify(c.Path, c.Size)
	if err != nil {
		Warnf("skipping %v", err)
		return
	}
	pair, ok := res.Pair()
	if !ok {
		return
	}

	p.emitMu.Lock()
	defer p.emitMu.Unlock()
	decision := p.selector.Resolve(pair)
	p.index.Record(decision)
	if onPair != nil {
		onPair(pair, decision)
	}
}
