package dupsample

import (
	"fmt"
	"strings"
)

// InitDebugFlags initialises debug flags - for CLI compatibility
func InitDebugFlags(flagsStr string) {
	if flagsStr != "" {
		SetDebugFlags(flagsStr)
	}
}

// PipelineConfigFromConfig resolves a loaded configuration into the pieces a
// Pipeline needs: options, digest algorithm, keep selector and ignore rules
func PipelineConfigFromConfig(cfg *Config) (PipelineConfig, error) {
	if err := cfg.Validate(); err != nil {
		return PipelineConfig{}, err
	}
	all := cfg.GetAllConfig()

	opts, err := cfg.Options()
	if err != nil {
		return PipelineConfig{}, err
	}
	algorithm, err := GetHashAlgorithm(strings.ToLower(all.Hash.Default))
	if err != nil {
		return PipelineConfig{}, err
	}
	keep, err := GetKeepSelector(all.Keep.Selector)
	if err != nil {
		return PipelineConfig{}, err
	}

	ignore := NewIgnoreManager(!all.Ignore.Hidden)
	if err := ignore.AddPatterns(all.Ignore.Patterns); err != nil {
		return PipelineConfig{}, fmt.Errorf("invalid ignore pattern: %w", err)
	}

	return PipelineConfig{
		Options:   opts,
		Algorithm: algorithm,
		Seed:      all.Sampling.Seed,
		Workers:   all.Performance.Workers,
		Keep:      keep,
		Ignore:    ignore,
	}, nil
}
