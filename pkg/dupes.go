package dupsample

import (
	"context"
	"fmt"
)

// DuplicateGroup is a kept file together with the files duplicating it
type DuplicateGroup struct {
	Keep   string   `json:"keep"`
	Files  []string `json:"files"` // Keep first, then duplicates in path order
	Count  int      `json:"count"`
	Size   int64    `json:"size"`   // size of each file
	Wasted int64    `json:"wasted"` // bytes recoverable by removing the duplicates
}

// FindDuplicates walks roots and returns the duplicate groups along with the
// classification counters
func FindDuplicates(ctx context.Context, roots []string, cfg PipelineConfig) ([]DuplicateGroup, Stats, error) {
	pipeline, err := NewPipeline(cfg)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("failed to set up pipeline: %w", err)
	}

	if err := pipeline.Run(ctx, roots, nil); err != nil {
		return nil, pipeline.Classifier().Stats(), fmt.Errorf("failed to find duplicates: %w", err)
	}

	return pipeline.Index().Groups(), pipeline.Classifier().Stats(), nil
}
