package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// OptionType defines the type of value an option expects
type OptionType int

const (
	OptionTypeBool OptionType = iota
	OptionTypeString
	OptionTypeInt
	OptionTypeList // repeatable string option
)

// OptionDef defines a command-line option
type OptionDef struct {
	Long        string     // Long option name (without --)
	Short       string     // Short option name (without -)
	Type        OptionType // Type of value expected
	Description string     // Help description
	Default     string     // Default value
}

// ParsedOptions holds the parsed command-line options
type ParsedOptions struct {
	values        map[string]string
	lists         map[string][]string
	args          []string
	defs          map[string]*OptionDef
	order         []string          // definition order, for usage output
	shortMap      map[string]string // Maps short options to long options
	explicitlySet map[string]bool   // Tracks which options were explicitly set
}

// NewParsedOptions creates a new options parser
func NewParsedOptions() *ParsedOptions {
	return &ParsedOptions{
		values:        make(map[string]string),
		lists:         make(map[string][]string),
		args:          []string{},
		defs:          make(map[string]*OptionDef),
		shortMap:      make(map[string]string),
		explicitlySet: make(map[string]bool),
	}
}

// DefineOption defines a command-line option
func (p *ParsedOptions) DefineOption(long, short string, optType OptionType, defaultValue, description string) {
	def := &OptionDef{
		Long:        long,
		Short:       short,
		Type:        optType,
		Description: description,
		Default:     defaultValue,
	}
	if _, exists := p.defs[long]; !exists {
		p.order = append(p.order, long)
	}
	p.defs[long] = def
	if short != "" {
		p.shortMap[short] = long
	}

	if defaultValue != "" && optType != OptionTypeList {
		p.values[long] = defaultValue
	}
}

// Parse parses command-line arguments. Everything after a bare "--" is
// treated as a positional argument.
func (p *ParsedOptions) Parse(args []string) error {
	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch {
		case arg == "--":
			p.args = append(p.args, args[i+1:]...)
			return nil
		case strings.HasPrefix(arg, "--"):
			if err := p.parseLongOption(arg, args, &i); err != nil {
				return err
			}
		case strings.HasPrefix(arg, "-") && len(arg) > 1:
			if err := p.parseShortOptions(arg, args, &i); err != nil {
				return err
			}
		default:
			p.args = append(p.args, arg)
		}
	}
	return nil
}

// parseLongOption parses --option, --option=value or --option value
func (p *ParsedOptions) parseLongOption(arg string, args []string, i *int) error {
	optName := strings.TrimPrefix(arg, "--")
	var optValue string
	hasValue := false

	if equalPos := strings.Index(optName, "="); equalPos != -1 {
		optValue = optName[equalPos+1:]
		optName = optName[:equalPos]
		hasValue = true
	}

	def, exists := p.defs[optName]
	if !exists {
		return fmt.Errorf("unknown option: --%s", optName)
	}

	if def.Type == OptionTypeBool {
		if !hasValue {
			return p.set(def, "true")
		}
		switch optValue {
		case "true", "1":
			return p.set(def, "true")
		case "false", "0":
			return p.set(def, "false")
		default:
			return fmt.Errorf("invalid boolean value for --%s: %s", optName, optValue)
		}
	}

	if !hasValue {
		if *i+1 >= len(args) {
			return fmt.Errorf("option --%s requires a value", optName)
		}
		*i++
		optValue = args[*i]
	}
	return p.set(def, optValue)
}

// parseShortOptions parses short option(s): -q, -vvv, -qv, -v 2
func (p *ParsedOptions) parseShortOptions(arg string, args []string, i *int) error {
	shortOpts := strings.TrimPrefix(arg, "-")

	// Count occurrences of each option for repetition handling
	optCounts := make(map[string]int)
	var seen []string
	for _, r := range shortOpts {
		short := string(r)
		if _, exists := p.shortMap[short]; !exists {
			return fmt.Errorf("unknown option: -%s", short)
		}
		if optCounts[short] == 0 {
			seen = append(seen, short)
		}
		optCounts[short]++
	}

	for _, short := range seen {
		def := p.defs[p.shortMap[short]]
		count := optCounts[short]

		switch def.Type {
		case OptionTypeBool:
			if err := p.set(def, "true"); err != nil {
				return err
			}

		case OptionTypeInt:
			// -vvv means level 3; a lone -v may take the next argument if it is a number
			value := strconv.Itoa(count)
			if count == 1 && len(shortOpts) == 1 && *i+1 < len(args) {
				if _, err := strconv.Atoi(args[*i+1]); err == nil {
					*i++
					value = args[*i]
				}
			}
			if err := p.set(def, value); err != nil {
				return err
			}

		case OptionTypeString, OptionTypeList:
			if len(shortOpts) != 1 || *i+1 >= len(args) {
				return fmt.Errorf("option -%s requires a value", short)
			}
			*i++
			if err := p.set(def, args[*i]); err != nil {
				return err
			}
		}
	}

	return nil
}

func (p *ParsedOptions) set(def *OptionDef, value string) error {
	switch def.Type {
	case OptionTypeInt:
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("invalid integer value for --%s: %s", def.Long, value)
		}
	case OptionTypeList:
		p.lists[def.Long] = append(p.lists[def.Long], value)
		p.explicitlySet[def.Long] = true
		return nil
	}
	p.values[def.Long] = value
	p.explicitlySet[def.Long] = true
	return nil
}

// GetString returns a string option value
func (p *ParsedOptions) GetString(option string) string {
	return p.values[option]
}

// GetInt returns an integer option value
func (p *ParsedOptions) GetInt(option string) int {
	if val, exists := p.values[option]; exists {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return 0
}

// GetBool returns a boolean option value
func (p *ParsedOptions) GetBool(option string) bool {
	if val, exists := p.values[option]; exists {
		return val == "true"
	}
	return false
}

// GetList returns every value given for a repeatable option
func (p *ParsedOptions) GetList(option string) []string {
	return p.lists[option]
}

// IsSet returns true if an option was explicitly set
func (p *ParsedOptions) IsSet(option string) bool {
	return p.explicitlySet[option]
}

// GetArgs returns non-option arguments
func (p *ParsedOptions) GetArgs() []string {
	return p.args
}

// ShowUsage writes usage information to w
func (p *ParsedOptions) ShowUsage(w io.Writer, programName string) {
	fmt.Fprintf(w, "Usage: %s [OPTIONS] [DIR...]\n\n", programName)
	fmt.Fprintf(w, "Find duplicate files by sampling their contents.\n\n")
	fmt.Fprintf(w, "Options:\n")

	for _, long := range p.order {
		def := p.defs[long]
		var shortOpt string
		if def.Short != "" {
			shortOpt = fmt.Sprintf("-%s, ", def.Short)
		}

		var valueDesc string
		switch def.Type {
		case OptionTypeString, OptionTypeList:
			valueDesc = "=VALUE"
		case OptionTypeInt:
			valueDesc = "=N"
		}

		fmt.Fprintf(w, "  %s--%s%s\n", shortOpt, def.Long, valueDesc)
		fmt.Fprintf(w, "        %s\n", def.Description)
	}
}
