package dupsample

import (
	"fmt"
	"strings"
	"sync"
)

// KeepSelector decides which of two identical files is the one to keep
type KeepSelector interface {
	Name() string
	// Prefer reports whether candidate should be kept in place of current
	Prefer(candidate, current string) bool
}

type keepFirst struct{}

func (keepFirst) Name() string { return "first" }
func (keepFirst) Prefer(candidate, current string) bool { return false }

type keepLongPath struct{}

func (keepLongPath) Name() string { return "longpath" }
func (keepLongPath) Prefer(candidate, current string) bool {
	return len(candidate) > len(current)
}

type keepShortPath struct{}

func (keepShortPath) Name() string { return "shortpath" }
func (keepShortPath) Prefer(candidate, current string) bool {
	return len(candidate) < len(current)
}

// keepEarliest prefers the file with the older access or modification time.
// Files that cannot be stat'd never win.
type keepEarliest struct {
	access bool
}

func (k keepEarliest) Name() string {
	if k.access {
		return "atime"
	}
	return "mtime"
}

func (k keepEarliest) Prefer(candidate, current string) bool {
	cand, err := statTimes(candidate)
	if err != nil {
		return false
	}
	cur, err := statTimes(current)
	if err != nil {
		return true
	}
	if k.access {
		return cand.Atime().Before(cur.Atime())
	}
	return cand.Mtime().Before(cur.Mtime())
}

// KeepSelectorNames lists the supported selector names
var KeepSelectorNames = []string{"first", "atime", "mtime", "longpath", "shortpath"}

// GetKeepSelector returns the selector for name
func GetKeepSelector(name string) (KeepSelector, error) {
	switch strings.ToLower(name) {
	case "", "first":
		return keepFirst{}, nil
	case "atime":
		return keepEarliest{access: true}, nil
	case "mtime":
		return keepEarliest{}, nil
	case "longpath":
		return keepLongPath{}, nil
	case "shortpath":
		return keepShortPath{}, nil
	default:
		return nil, fmt.Errorf("unsupported keep selector: %s (supported: %s)", name, strings.Join(KeepSelectorNames, ", "))
	}
}

// Decision is a duplicate pair after the keep policy has been applied
type Decision struct {
	Keep    string `json:"keep"`
	Discard string `json:"discard"`
	Size    int64  `json:"size"`
	// Superseded is true when Discard was the keeper of earlier decisions
	Superseded bool `json:"superseded,omitempty"`
}

// Selector applies a KeepSelector to a stream of pairs. Once a keeper loses to a
// newer file, every later pair naming the old keeper is rewritten to the winner.
type Selector struct {
	keep        KeepSelector
	mu          sync.Mutex
	substitutes map[string]string // displaced keeper -> its replacement
}

// NewSelector creates a selector. A nil KeepSelector keeps the first seen file.
func NewSelector(keep KeepSelector) *Selector {
	if keep == nil {
		keep = keepFirst{}
	}
	return &Selector{
		keep:        keep,
		substitutes: make(map[string]string),
	}
}

// Resolve decides which file of the pair to keep
func (s *Selector) Resolve(p Pair) Decision {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.lookup(p.Original)
	if s.keep.Prefer(p.New, current) {
		s.substitutes[current] = p.New
		if IsDebugEnabled("select") {
			VerboseLog(2, "select: %s replaces %s as keeper", p.New, current)
		}
		return Decision{Keep: p.New, Discard: current, Size: p.Size, Superseded: true}
	}
	return Decision{Keep: current, Discard: p.New, Size: p.Size}
}

// Current returns the keeper that path has been replaced by, or path itself
func (s *Selector) Current(path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(path)
}

// lookup follows the substitution chain, shortening it as it goes
func (s *Selector) lookup(path string) string {
	final := path
	for {
		next, ok := s.substitutes[final]
		if !ok {
			break
		}
		final = next
	}
	if final != path {
		s.substitutes[path] = final
	}
	return final
}
