package dupsample

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-ini/ini"
)

// Config represents the dupsample configuration file
type Config struct {
	configPath string
	ini        *ini.File
}

// SamplingConfig represents the sampling layout
type SamplingConfig struct {
	BlockSize string // human readable block size, e.g. "4K"
	Blocks    int
	Trials    int
	Verify    bool
	Seed      uint64 // 0 seeds from the clock
}

// HashConfig represents hash algorithm configuration
type HashConfig struct {
	Default string // Default hash algorithm
}

// OutputConfig represents output format configuration
type OutputConfig struct {
	Format string // human, fdupes, pairs, printf, json
	Printf string // template for the printf format
}

// KeepConfig represents the keep selector configuration
type KeepConfig struct {
	Selector string // first, atime, mtime, longpath, shortpath
}

// VerboseConfig represents verbosity configuration
type VerboseConfig struct {
	Level int    // Default verbose level (0=quiet, 1=basic, 2=detailed, 3=trace)
	Debug string // Default debug flags (comma-separated)
}

// PerformanceConfig represents performance-related configuration
type PerformanceConfig struct {
	Workers int // classifier workers
}

// IgnoreConfig represents enumeration filters
type IgnoreConfig struct {
	Hidden   bool     // skip dot files and directories
	Patterns []string // exclusion regexes
}

// AllConfig represents all configuration options
type AllConfig struct {
	Sampling    *SamplingConfig
	Hash        *HashConfig
	Output      *OutputConfig
	Keep        *KeepConfig
	Verbose     *VerboseConfig
	Performance *PerformanceConfig
	Ignore      *IgnoreConfig
}

var configDefaults = []struct {
	section, key, value string
}{
	{"sampling", "block_size", "4K"},
	{"sampling", "blocks", strconv.Itoa(DefaultBlocks)},
	{"sampling", "trials", strconv.Itoa(DefaultTrials)},
	{"sampling", "verify", "true"},
	{"sampling", "seed", "0"},
	{"filehash", "default", "sha1"},
	{"output", "format", FormatPrintf},
	{"output", "printf", DefaultPrintf},
	{"keep", "selector", "first"},
	{"verbose", "level", "0"},
	{"verbose", "debug", ""},
	{"performance", "workers", strconv.Itoa(DefaultWorkers)},
	{"ignore", "hidden", "true"},
	{"ignore", "patterns", ""},
}

// NewConfig returns an in-memory configuration holding the defaults
func NewConfig(configPath string) *Config {
	cfg := &Config{configPath: configPath, ini: ini.Empty()}
	cfg.setDefaults()
	return cfg
}

// LoadConfig loads configuration from path. A missing file yields the defaults
// without creating anything on disk.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		return NewConfig(""), nil
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return NewConfig(configPath), nil
	}

	iniFile, err := ini.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	return &Config{configPath: configPath, ini: iniFile}, nil
}

// setDefaults fills in every key that is not already present
func (c *Config) setDefaults() {
	for _, d := range configDefaults {
		section := c.ini.Section(d.section)
		if !section.HasKey(d.key) {
			section.Key(d.key).SetValue(d.value)
		}
	}
}

// GetSamplingConfig returns the sampling configuration
func (c *Config) GetSamplingConfig() *SamplingConfig {
	samplingConfig := &SamplingConfig{
		BlockSize: "4K",
		Blocks:    DefaultBlocks,
		Trials:    DefaultTrials,
		Verify:    true,
	}

	if c.ini.HasSection("sampling") {
		section := c.ini.Section("sampling")
		if section.HasKey("block_size") {
			if bs := section.Key("block_size").String(); bs != "" {
				samplingConfig.BlockSize = bs
			}
		}
		if section.HasKey("blocks") {
			if blocks, err := section.Key("blocks").Int(); err == nil {
				samplingConfig.Blocks = blocks
			}
		}
		if section.HasKey("trials") {
			if trials, err := section.Key("trials").Int(); err == nil {
				samplingConfig.Trials = trials
			}
		}
		if section.HasKey("verify") {
			if verify, err := section.Key("verify").Bool(); err == nil {
				samplingConfig.Verify = verify
			}
		}
		if section.HasKey("seed") {
			if seed, err := section.Key("seed").Uint64(); err == nil {
				samplingConfig.Seed = seed
			}
		}
	}

	return samplingConfig
}

// GetHashConfig returns the hash configuration
func (c *Config) GetHashConfig() *HashConfig {
	hashConfig := &HashConfig{
		Default: "sha1", // fallback default
	}

	if c.ini.HasSection("filehash") {
		section := c.ini.Section("filehash")
		if section.HasKey("default") {
			hashConfig.Default = section.Key("default").String()
		}
	}

	return hashConfig
}

// GetOutputConfig returns the output configuration
func (c *Config) GetOutputConfig() *OutputConfig {
	outputConfig := &OutputConfig{
		Format: FormatPrintf,  // fallback default
		Printf: DefaultPrintf, // duplicate path only
	}

	if c.ini.HasSection("output") {
		section := c.ini.Section("output")
		if section.HasKey("format") {
			outputConfig.Format = section.Key("format").String()
		}
		if section.HasKey("printf") {
			if tmpl := section.Key("printf").String(); tmpl != "" {
				outputConfig.Printf = tmpl
			}
		}
	}

	return outputConfig
}

// GetKeepConfig returns the keep selector configuration
func (c *Config) GetKeepConfig() *KeepConfig {
	keepConfig := &KeepConfig{
		Selector: "first",
	}

	if c.ini.HasSection("keep") {
		section := c.ini.Section("keep")
		if section.HasKey("selector") {
			keepConfig.Selector = section.Key("selector").String()
		}
	}

	return keepConfig
}

// GetVerboseConfig returns the verbose configuration
func (c *Config) GetVerboseConfig() *VerboseConfig {
	verboseConfig := &VerboseConfig{}

	if c.ini.HasSection("verbose") {
		section := c.ini.Section("verbose")
		if section.HasKey("level") {
			if level, err := section.Key("level").Int(); err == nil {
				verboseConfig.Level = level
			}
		}
		if section.HasKey("debug") {
			verboseConfig.Debug = section.Key("debug").String()
		}
	}

	return verboseConfig
}

// GetPerformanceConfig returns the performance configuration
func (c *Config) GetPerformanceConfig() *PerformanceConfig {
	performanceConfig := &PerformanceConfig{
		Workers: DefaultWorkers,
	}

	if c.ini.HasSection("performance") {
		section := c.ini.Section("performance")
		if section.HasKey("workers") {
			if workers, err := section.Key("workers").Int(); err == nil {
				performanceConfig.Workers = workers
			}
		}
	}

	return performanceConfig
}

// GetIgnoreConfig returns the enumeration filters
func (c *Config) GetIgnoreConfig() *IgnoreConfig {
	ignoreConfig := &IgnoreConfig{
		Hidden: true,
	}

	if c.ini.HasSection("ignore") {
		section := c.ini.Section("ignore")
		if section.HasKey("hidden") {
			if hidden, err := section.Key("hidden").Bool(); err == nil {
				ignoreConfig.Hidden = hidden
			}
		}
		if section.HasKey("patterns") {
			for _, p := range section.Key("patterns").Strings(",") {
				if p != "" {
					ignoreConfig.Patterns = append(ignoreConfig.Patterns, p)
				}
			}
		}
	}

	return ignoreConfig
}

// GetAllConfig returns all configuration options
func (c *Config) GetAllConfig() *AllConfig {
	return &AllConfig{
		Sampling:    c.GetSamplingConfig(),
		Hash:        c.GetHashConfig(),
		Output:      c.GetOutputConfig(),
		Keep:        c.GetKeepConfig(),
		Verbose:     c.GetVerboseConfig(),
		Performance: c.GetPerformanceConfig(),
		Ignore:      c.GetIgnoreConfig(),
	}
}

// Options converts the sampling section into validated classifier options
func (c *Config) Options() (Options, error) {
	sampling := c.GetSamplingConfig()
	blockSize, err := ParseHumanSize(sampling.BlockSize)
	if err != nil {
		return Options{}, fmt.Errorf("invalid block_size: %w", err)
	}

	opts := Options{
		BlockSize: blockSize,
		Blocks:    sampling.Blocks,
		Trials:    sampling.Trials,
		Verify:    sampling.Verify,
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// Validate checks every option against its allowed values
func (c *Config) Validate() error {
	all := c.GetAllConfig()
	if _, err := c.Options(); err != nil {
		return err
	}
	if err := ValidateHashAlgorithm(all.Hash.Default); err != nil {
		return err
	}
	if err := ValidateOutputFormat(all.Output.Format); err != nil {
		return err
	}
	if err := ValidateKeepSelector(all.Keep.Selector); err != nil {
		return err
	}
	if err := ValidateVerboseLevel(all.Verbose.Level); err != nil {
		return err
	}
	if err := ValidateWorkers(all.Performance.Workers); err != nil {
		return err
	}
	return ValidateIgnorePatterns(all.Ignore.Patterns)
}

// Set stores a value in the in-memory configuration
func (c *Config) Set(section, key, value string) {
	c.ini.Section(section).Key(key).SetValue(value)
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	if c.configPath == "" {
		return fmt.Errorf("no config path set")
	}
	return c.ini.SaveTo(c.configPath)
}

// overrideKeys maps command line override keys to their section and key
var overrideKeys = map[string][2]string{
	"block_size": {"sampling", "block_size"},
	"blocks":     {"sampling", "blocks"},
	"trials":     {"sampling", "trials"},
	"verify":     {"sampling", "verify"},
	"seed":       {"sampling", "seed"},
	"default":    {"filehash", "default"},
	"format":     {"output", "format"},
	"printf":     {"output", "printf"},
	"selector":   {"keep", "selector"},
	"level":      {"verbose", "level"},
	"debug":      {"verbose", "debug"},
	"workers":    {"performance", "workers"},
	"hidden":     {"ignore", "hidden"},
	"patterns":   {"ignore", "patterns"},
}

// ApplyOverrides applies command-line overrides to the configuration
// Accepts strings like "blocks:8", "format:json", "level:2", "debug:sample"
func (c *Config) ApplyOverrides(overrides []string) error {
	for _, override := range overrides {
		parts := strings.SplitN(override, ":", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid override format '%s', expected 'key:value'", override)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		target, ok := overrideKeys[key]
		if !ok {
			return fmt.Errorf("unsupported override key '%s'", key)
		}
		c.Set(target[0], target[1], value)
	}

	return nil
}

// ValidateHashAlgorithm validates that a hash algorithm is supported
func ValidateHashAlgorithm(algorithm string) error {
	if _, err := GetHashAlgorithm(strings.ToLower(algorithm)); err != nil {
		return fmt.Errorf("unsupported hash algorithm: %s (supported: sha1, sha256, sha512, blake2b, blake3)", algorithm)
	}
	return nil
}

// ValidateOutputFormat validates that an output format is supported
func ValidateOutputFormat(format string) error {
	switch strings.ToLower(format) {
	case FormatHuman, FormatFdupes, FormatPairs, FormatPrintf, FormatJSON:
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s (supported: human, fdupes, pairs, printf, json)", format)
	}
}

// ValidateKeepSelector validates that a keep selector exists
func ValidateKeepSelector(name string) error {
	if _, err := GetKeepSelector(name); err != nil {
		return err
	}
	return nil
}

// ValidateVerboseLevel validates that a verbose level is valid
func ValidateVerboseLevel(level int) error {
	if level < 0 || level > 3 {
		return fmt.Errorf("invalid verbose level: %d (supported: 0-3)", level)
	}
	return nil
}

// ValidateWorkers validates that the classifier worker count is reasonable
func ValidateWorkers(workers int) error {
	if workers < 1 {
		return fmt.Errorf("workers must be at least 1, got: %d", workers)
	}
	if workers > 64 {
		return fmt.Errorf("workers should not exceed 64, got: %d", workers)
	}
	return nil
}

// ValidateIgnorePatterns checks that every exclusion pattern compiles
func ValidateIgnorePatterns(patterns []string) error {
	return NewIgnoreManager(false).AddPatterns(patterns)
}
