package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	dupsample "github.com/mattkeenan/dupsample/pkg"
)

var version = "dev"

// exit codes
const (
	exitOK          = 0
	exitUsage       = 1
	exitInterrupted = 130
)

func main() {
	ctx, cancel := setupSignalHandler(context.Background())
	defer cancel()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func defineOptions() *ParsedOptions {
	options := NewParsedOptions()
	options.DefineOption("help", "h", OptionTypeBool, "false", "Show help message")
	options.DefineOption("version", "", OptionTypeBool, "false", "Show version information")
	options.DefineOption("noverify", "", OptionTypeBool, "false", "Do not verify probable duplicates with a full-content digest")
	options.DefineOption("bs", "", OptionTypeString, "", "Size of a sampled block, e.g. 4096 or 4K (default 4K)")
	options.DefineOption("nblocks", "", OptionTypeInt, "", "Number of blocks sampled in one trial (default 5)")
	options.DefineOption("ntrials", "", OptionTypeInt, "", "Number of sampling trials (default 2)")
	options.DefineOption("printf", "", OptionTypeString, "", "Output template: {0} is the duplicate, {1} the file it duplicates")
	options.DefineOption("quiet", "q", OptionTypeBool, "false", "Do not print duplicates")
	options.DefineOption("format", "", OptionTypeString, "", "Output format (printf|pairs|fdupes|human|json)")
	options.DefineOption("keep", "", OptionTypeString, "", "Which duplicate to keep (first|atime|mtime|longpath|shortpath)")
	options.DefineOption("hash", "", OptionTypeString, "", "Digest algorithm (sha1|sha256|sha512|blake2b|blake3)")
	options.DefineOption("workers", "", OptionTypeInt, "", "Number of classifier workers")
	options.DefineOption("exclude", "x", OptionTypeList, "", "Skip paths matching this regex (repeatable)")
	options.DefineOption("exclude-from", "", OptionTypeList, "", "Read exclusion regexes from FILE, one per line (repeatable)")
	options.DefineOption("all", "a", OptionTypeBool, "false", "Include hidden files and directories")
	options.DefineOption("seed", "", OptionTypeString, "", "Sampler seed, 0 for time based")
	options.DefineOption("config", "c", OptionTypeString, "", "Configuration file")
	options.DefineOption("set", "", OptionTypeList, "", "Override a configuration key (key:value, repeatable)")
	options.DefineOption("report", "", OptionTypeString, "", "Write a JSON report to FILE (.zst and .gz are compressed)")
	options.DefineOption("verbose", "v", OptionTypeInt, "0", "Enable verbose output (can be repeated for more verbosity)")
	options.DefineOption("debug", "", OptionTypeString, "", "Debug flags (comma separated: sample,digest,tree,walk,select)")
	return options
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	options := defineOptions()
	if err := options.Parse(args); err != nil {
		fmt.Fprintf(stderr, "dupsample: %v\n", err)
		fmt.Fprintf(stderr, "Try 'dupsample --help' for more information.\n")
		return exitUsage
	}

	if options.GetBool("version") {
		fmt.Fprintf(stdout, "dupsample %s\n", version)
		return exitOK
	}
	if options.GetBool("help") {
		options.ShowUsage(stdout, "dupsample")
		return exitOK
	}

	cfg, err := loadConfig(options)
	if err != nil {
		fmt.Fprintf(stderr, "dupsample: %v\n", err)
		return exitUsage
	}

	pipelineConfig, err := dupsample.PipelineConfigFromConfig(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "dupsample: %v\n", err)
		return exitUsage
	}
	if err := pipelineConfig.Ignore.AddPatterns(options.GetList("exclude")); err != nil {
		fmt.Fprintf(stderr, "dupsample: %v\n", err)
		return exitUsage
	}
	for _, path := range options.GetList("exclude-from") {
		if err := pipelineConfig.Ignore.LoadIgnoreFile(path); err != nil {
			fmt.Fprintf(stderr, "dupsample: %s: %v\n", path, err)
			return exitUsage
		}
	}

	all := cfg.GetAllConfig()
	dupsample.SetLogOutput(stderr)
	dupsample.SetVerboseLevel(all.Verbose.Level)
	dupsample.InitDebugFlags(all.Verbose.Debug)

	reporter, err := dupsample.NewReporter(stdout, all.Output.Format, all.Output.Printf, options.GetBool("quiet"))
	if err != nil {
		fmt.Fprintf(stderr, "dupsample: %v\n", err)
		return exitUsage
	}

	pipeline, err := dupsample.NewPipeline(pipelineConfig)
	if err != nil {
		fmt.Fprintf(stderr, "dupsample: %v\n", err)
		return exitUsage
	}

	roots := options.GetArgs()
	dupsample.VerboseLog(1, "Scanning %v (block size %d, %d blocks, %d trials, verify %v)",
		roots, pipelineConfig.Options.BlockSize, pipelineConfig.Options.Blocks,
		pipelineConfig.Options.Trials, pipelineConfig.Options.Verify)
	if pipelineConfig.Ignore.HasPatterns() {
		dupsample.VerboseLog(2, "Exclusion patterns active")
	}

	var writeErr error
	runErr := pipeline.Run(ctx, roots, func(_ dupsample.Pair, d dupsample.Decision) {
		if writeErr == nil {
			writeErr = reporter.Decision(d)
		}
	})

	interrupted := errors.Is(runErr, context.Canceled)
	if runErr != nil && !interrupted {
		fmt.Fprintf(stderr, "dupsample: %v\n", runErr)
	}

	groups := pipeline.Index().Groups()
	stats := pipeline.Classifier().Stats()
	if err := reporter.Finish(groups, stats); err != nil && writeErr == nil {
		writeErr = err
	}
	if writeErr != nil {
		fmt.Fprintf(stderr, "dupsample: %v\n", writeErr)
	}

	if path := options.GetString("report"); path != "" {
		if err := dupsample.ExportReport(path, dupsample.Report{Hash: pipelineConfig.Algorithm.Name, Groups: groups, Stats: stats}); err != nil {
			fmt.Fprintf(stderr, "dupsample: %v\n", err)
		} else {
			dupsample.VerboseLog(1, "Report written to %s", path)
		}
	}

	dupsample.VerboseLog(1, "Examined %s files: %s distinct, %s duplicates, %s false positives, %s errors",
		dupsample.FormatCount(stats.Files), dupsample.FormatCount(stats.Distinct+stats.Unseen),
		dupsample.FormatCount(stats.Probable+stats.Confirmed), dupsample.FormatCount(stats.FalsePositives),
		dupsample.FormatCount(stats.Errors))

	if interrupted {
		return exitInterrupted
	}
	return exitOK
}

// loadConfig reads the configuration file and layers command line flags on top
func loadConfig(options *ParsedOptions) (*dupsample.Config, error) {
	configPath := options.GetString("config")
	if configPath == "" {
		configPath = defaultConfigPath()
	} else if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}

	cfg, err := dupsample.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	var overrides []string
	if options.GetBool("noverify") {
		overrides = append(overrides, "verify:false")
	}
	if options.IsSet("bs") {
		overrides = append(overrides, "block_size:"+options.GetString("bs"))
	}
	if options.IsSet("nblocks") {
		overrides = append(overrides, "blocks:"+strconv.Itoa(options.GetInt("nblocks")))
	}
	if options.IsSet("ntrials") {
		overrides = append(overrides, "trials:"+strconv.Itoa(options.GetInt("ntrials")))
	}
	if options.IsSet("printf") {
		overrides = append(overrides, "printf:"+options.GetString("printf"))
		if !options.IsSet("format") {
			overrides = append(overrides, "format:"+dupsample.FormatPrintf)
		}
	}
	if options.IsSet("format") {
		overrides = append(overrides, "format:"+options.GetString("format"))
	}
	if options.IsSet("keep") {
		overrides = append(overrides, "selector:"+options.GetString("keep"))
	}
	if options.IsSet("hash") {
		overrides = append(overrides, "default:"+options.GetString("hash"))
	}
	if options.IsSet("workers") {
		overrides = append(overrides, "workers:"+strconv.Itoa(options.GetInt("workers")))
	}
	if options.GetBool("all") {
		overrides = append(overrides, "hidden:false")
	}
	if options.IsSet("seed") {
		if _, err := strconv.ParseUint(options.GetString("seed"), 10, 64); err != nil {
			return nil, fmt.Errorf("invalid seed %q", options.GetString("seed"))
		}
		overrides = append(overrides, "seed:"+options.GetString("seed"))
	}
	if options.IsSet("verbose") {
		overrides = append(overrides, "level:"+strconv.Itoa(options.GetInt("verbose")))
	}
	if options.IsSet("debug") {
		overrides = append(overrides, "debug:"+options.GetString("debug"))
	}
	overrides = append(overrides, options.GetList("set")...)

	if err := cfg.ApplyOverrides(overrides); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaultConfigPath returns the per-user configuration file, which may not exist
func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "dupsample", "config")
}
