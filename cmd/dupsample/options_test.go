package main

import (
	"bytes"
	"strings"
	"testing"
)

// Test basic option definition and parsing
func TestOptionDefinition(t *testing.T) {
	options := NewParsedOptions()

	options.DefineOption("test-string", "s", OptionTypeString, "default", "Test string option")
	options.DefineOption("test-bool", "b", OptionTypeBool, "false", "Test bool option")
	options.DefineOption("test-int", "i", OptionTypeInt, "0", "Test int option")

	args := []string{"--test-string=value", "--test-bool", "--test-int=42"}
	if err := options.Parse(args); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if options.GetString("test-string") != "value" {
		t.Errorf("Expected string 'value', got %s", options.GetString("test-string"))
	}
	if !options.GetBool("test-bool") {
		t.Errorf("Expected bool true, got %v", options.GetBool("test-bool"))
	}
	if options.GetInt("test-int") != 42 {
		t.Errorf("Expected int 42, got %d", options.GetInt("test-int"))
	}
}

func TestDefaultsNotExplicit(t *testing.T) {
	options := NewParsedOptions()
	options.DefineOption("format", "", OptionTypeString, "printf", "Format")

	if err := options.Parse(nil); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if options.GetString("format") != "printf" {
		t.Errorf("Expected default 'printf', got %s", options.GetString("format"))
	}
	if options.IsSet("format") {
		t.Error("Default value should not count as explicitly set")
	}
}

func TestLongOptionSeparateValue(t *testing.T) {
	options := NewParsedOptions()
	options.DefineOption("bs", "", OptionTypeString, "", "Block size")
	options.DefineOption("nblocks", "", OptionTypeInt, "", "Blocks")

	if err := options.Parse([]string{"--bs", "8K", "--nblocks", "7", "dir"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := options.GetString("bs"); got != "8K" {
		t.Errorf("Expected bs '8K', got %s", got)
	}
	if got := options.GetInt("nblocks"); got != 7 {
		t.Errorf("Expected nblocks 7, got %d", got)
	}
	if args := options.GetArgs(); len(args) != 1 || args[0] != "dir" {
		t.Errorf("Expected args [dir], got %v", args)
	}
}

// Test short option parsing
func TestShortOptions(t *testing.T) {
	options := NewParsedOptions()

	options.DefineOption("verbose", "v", OptionTypeInt, "0", "Verbose level")
	options.DefineOption("help", "h", OptionTypeBool, "false", "Show help")
	options.DefineOption("quiet", "q", OptionTypeBool, "false", "Quiet mode")

	if err := options.Parse([]string{"-vvv", "-hq"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if options.GetInt("verbose") != 3 {
		t.Errorf("Expected verbose level 3, got %d", options.GetInt("verbose"))
	}
	if !options.GetBool("help") {
		t.Errorf("Expected help true, got %v", options.GetBool("help"))
	}
	if !options.GetBool("quiet") {
		t.Errorf("Expected quiet true, got %v", options.GetBool("quiet"))
	}
}

func TestShortIntTakesNumericArgument(t *testing.T) {
	options := NewParsedOptions()
	options.DefineOption("verbose", "v", OptionTypeInt, "0", "Verbose level")

	if err := options.Parse([]string{"-v", "2", "photos"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if options.GetInt("verbose") != 2 {
		t.Errorf("Expected verbose level 2, got %d", options.GetInt("verbose"))
	}
	if args := options.GetArgs(); len(args) != 1 || args[0] != "photos" {
		t.Errorf("Expected args [photos], got %v", args)
	}
}

func TestRepeatableOptions(t *testing.T) {
	options := NewParsedOptions()
	options.DefineOption("exclude", "x", OptionTypeList, "", "Exclude")

	if err := options.Parse([]string{"--exclude", `\.git/`, "-x", `\.tmp$`, "--exclude=cache"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	got := options.GetList("exclude")
	want := []string{`\.git/`, `\.tmp$`, "cache"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestDoubleDashEndsOptions(t *testing.T) {
	options := NewParsedOptions()
	options.DefineOption("quiet", "q", OptionTypeBool, "false", "Quiet")

	if err := options.Parse([]string{"-q", "--", "-weird-dir", "--also"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if args := options.GetArgs(); len(args) != 2 || args[0] != "-weird-dir" || args[1] != "--also" {
		t.Errorf("Expected both names after -- as args, got %v", args)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		errMsg string
	}{
		{"unknown long", []string{"--nope"}, "unknown option"},
		{"unknown short", []string{"-z"}, "unknown option"},
		{"missing value", []string{"--format"}, "requires a value"},
		{"bad integer", []string{"--nblocks=many"}, "invalid integer"},
		{"bad boolean", []string{"--quiet=maybe"}, "invalid boolean"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			options := NewParsedOptions()
			options.DefineOption("format", "", OptionTypeString, "", "Format")
			options.DefineOption("nblocks", "", OptionTypeInt, "", "Blocks")
			options.DefineOption("quiet", "q", OptionTypeBool, "false", "Quiet")

			err := options.Parse(tt.args)
			if err == nil {
				t.Fatalf("Expected error containing %q", tt.errMsg)
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Expected error containing %q, got %v", tt.errMsg, err)
			}
		})
	}
}

func TestShowUsageKeepsDefinitionOrder(t *testing.T) {
	options := defineOptions()
	var buf bytes.Buffer
	options.ShowUsage(&buf, "dupsample")

	out := buf.String()
	help := strings.Index(out, "--help")
	noverify := strings.Index(out, "--noverify")
	debug := strings.Index(out, "--debug")
	if help < 0 || noverify < 0 || debug < 0 {
		t.Fatalf("Usage missing options:\n%s", out)
	}
	if !(help < noverify && noverify < debug) {
		t.Errorf("Options not listed in definition order:\n%s", out)
	}
}
