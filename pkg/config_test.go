package dupsample

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigDefaults(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config")

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// A missing file is not created on load
	if _, err := os.Stat(configPath); !os.IsNotExist(err) {
		t.Error("Config file should not be created by LoadConfig")
	}

	all := config.GetAllConfig()
	if all.Hash.Default != "sha1" {
		t.Errorf("Expected default hash algorithm 'sha1', got '%s'", all.Hash.Default)
	}
	if all.Output.Format != FormatPrintf || all.Output.Printf != DefaultPrintf {
		t.Errorf("Expected printf output with %q, got %s %q", DefaultPrintf, all.Output.Format, all.Output.Printf)
	}
	if all.Keep.Selector != "first" {
		t.Errorf("Expected keep selector 'first', got '%s'", all.Keep.Selector)
	}
	if !all.Ignore.Hidden {
		t.Error("Expected hidden files to be skipped by default")
	}

	opts, err := config.Options()
	if err != nil {
		t.Fatalf("Options() error = %v", err)
	}
	if opts != DefaultOptions() {
		t.Errorf("Expected default options %+v, got %+v", DefaultOptions(), opts)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestConfigSaveAndLoad(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config")

	config := NewConfig(configPath)
	config.Set("sampling", "block_size", "8K")
	config.Set("sampling", "blocks", "7")
	config.Set("sampling", "verify", "false")
	config.Set("sampling", "seed", "77")
	config.Set("ignore", "patterns", `\.git/, \.tmp$`)
	if err := config.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	opts, err := loaded.Options()
	if err != nil {
		t.Fatalf("Options() error = %v", err)
	}
	if opts.BlockSize != 8192 || opts.Blocks != 7 || opts.Trials != DefaultTrials || opts.Verify {
		t.Errorf("Unexpected options after reload: %+v", opts)
	}
	if seed := loaded.GetSamplingConfig().Seed; seed != 77 {
		t.Errorf("Expected seed 77, got %d", seed)
	}
	patterns := loaded.GetIgnoreConfig().Patterns
	if len(patterns) != 2 || patterns[0] != `\.git/` || patterns[1] != `\.tmp$` {
		t.Errorf("Unexpected ignore patterns: %q", patterns)
	}
}

func TestConfigPartialFileUsesFallbacks(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(configPath, []byte("[output]\nformat = json\n"), 0644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	all := config.GetAllConfig()
	if all.Output.Format != "json" {
		t.Errorf("Expected json format, got %s", all.Output.Format)
	}
	if all.Sampling.Blocks != DefaultBlocks || all.Performance.Workers != DefaultWorkers {
		t.Errorf("Missing keys should fall back to defaults, got %+v %+v", all.Sampling, all.Performance)
	}
}

func TestConfigOverrides(t *testing.T) {
	config := NewConfig("")

	err := config.ApplyOverrides([]string{
		"default:blake3",
		"format:json",
		"level:2",
		"debug:sample,tree",
		"blocks:9",
		"trials:3",
		"block_size:1K",
		"selector:mtime",
		"workers:8",
		"hidden:false",
		"printf:{0} -> {1}",
	})
	if err != nil {
		t.Fatalf("Failed to apply overrides: %v", err)
	}

	all := config.GetAllConfig()
	if all.Hash.Default != "blake3" {
		t.Errorf("Expected hash 'blake3', got '%s'", all.Hash.Default)
	}
	if all.Output.Format != "json" {
		t.Errorf("Expected format 'json', got '%s'", all.Output.Format)
	}
	if all.Output.Printf != "{0} -> {1}" {
		t.Errorf("Expected printf template with colon-free value, got %q", all.Output.Printf)
	}
	if all.Verbose.Level != 2 || all.Verbose.Debug != "sample,tree" {
		t.Errorf("Unexpected verbose config %+v", all.Verbose)
	}
	if all.Keep.Selector != "mtime" || all.Performance.Workers != 8 || all.Ignore.Hidden {
		t.Errorf("Unexpected config %+v %+v %+v", all.Keep, all.Performance, all.Ignore)
	}

	opts, err := config.Options()
	if err != nil {
		t.Fatalf("Options() error = %v", err)
	}
	if opts.BlockSize != 1024 || opts.Blocks != 9 || opts.Trials != 3 {
		t.Errorf("Unexpected options %+v", opts)
	}
}

func TestConfigOverrideErrors(t *testing.T) {
	config := NewConfig("")
	if err := config.ApplyOverrides([]string{"novalue"}); err == nil {
		t.Error("Expected error for override without a colon")
	}
	if err := config.ApplyOverrides([]string{"colour:blue"}); err == nil {
		t.Error("Expected error for unknown override key")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name     string
		override string
	}{
		{"bad hash", "default:md5"},
		{"bad format", "format:xml"},
		{"bad selector", "selector:newest"},
		{"bad level", "level:9"},
		{"bad workers", "workers:0"},
		{"too many workers", "workers:100"},
		{"bad block size", "block_size:lots"},
		{"zero trials", "trials:0"},
		{"bad pattern", "patterns:(unclosed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewConfig("")
			if err := config.ApplyOverrides([]string{tt.override}); err != nil {
				t.Fatalf("ApplyOverrides() error = %v", err)
			}
			if err := config.Validate(); err == nil {
				t.Errorf("Expected validation error for %s", tt.override)
			}
		})
	}
}

func TestSaveWithoutPath(t *testing.T) {
	if err := NewConfig("").Save(); err == nil {
		t.Error("Expected error saving a config without a path")
	}
}

func TestPipelineConfigFromConfig(t *testing.T) {
	config := NewConfig("")
	if err := config.ApplyOverrides([]string{"default:sha256", "selector:longpath", "patterns:^skip/", "seed:5"}); err != nil {
		t.Fatal(err)
	}

	pc, err := PipelineConfigFromConfig(config)
	if err != nil {
		t.Fatalf("PipelineConfigFromConfig() error = %v", err)
	}
	if pc.Algorithm.Name != "sha256" {
		t.Errorf("Expected sha256, got %s", pc.Algorithm.Name)
	}
	if pc.Keep.Name() != "longpath" {
		t.Errorf("Expected longpath, got %s", pc.Keep.Name())
	}
	if pc.Seed != 5 {
		t.Errorf("Expected seed 5, got %d", pc.Seed)
	}
	if !pc.Ignore.ShouldIgnore("skip/file") || pc.Ignore.ShouldIgnore("keep/file") {
		t.Error("Ignore patterns not applied")
	}
}
