package dupsample

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// IgnoreManager prunes paths before they reach the classifier: hidden entries
// (names starting with a dot) and anything matching an exclusion pattern.
type IgnoreManager struct {
	mu            sync.RWMutex
	patterns      []*regexp.Regexp
	includeHidden bool
}

// NewIgnoreManager creates a manager that skips hidden entries unless includeHidden is set
func NewIgnoreManager(includeHidden bool) *IgnoreManager {
	return &IgnoreManager{
		patterns:      make([]*regexp.Regexp, 0),
		includeHidden: includeHidden,
	}
}

// AddPattern adds a new exclusion pattern
func (im *IgnoreManager) AddPattern(patternStr string) error {
	pattern, err := regexp.Compile(patternStr)
	if err != nil {
		return fmt.Errorf("invalid regex pattern: %s - %w", patternStr, err)
	}

	im.mu.Lock()
	im.patterns = append(im.patterns, pattern)
	im.mu.Unlock()
	return nil
}

// AddPatterns adds several patterns, stopping at the first invalid one
func (im *IgnoreManager) AddPatterns(patterns []string) error {
	for _, p := range patterns {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if err := im.AddPattern(p); err != nil {
			return err
		}
	}
	return nil
}

// LoadIgnoreFile reads one pattern per line from path. Empty lines and lines
// starting with # are skipped.
func (im *IgnoreManager) LoadIgnoreFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open ignore file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := im.AddPattern(line); err != nil {
			return fmt.Errorf("line %d: %w", lineNum, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading ignore file: %w", err)
	}
	return nil
}

// IsHidden reports whether a base name denotes a hidden entry
func IsHidden(name string) bool {
	return len(name) > 1 && strings.HasPrefix(name, ".") && name != ".."
}

// ShouldIgnore checks a path relative to its walk root. Separators are
// normalised to forward slashes before pattern matching.
func (im *IgnoreManager) ShouldIgnore(relativePath string) bool {
	if !im.includeHidden && IsHidden(filepath.Base(relativePath)) {
		return true
	}

	normalisedPath := filepath.ToSlash(relativePath)

	im.mu.RLock()
	defer im.mu.RUnlock()
	for _, pattern := range im.patterns {
		if pattern.MatchString(normalisedPath) {
			return true
		}
	}
	return false
}

// HasPatterns returns true if there are any exclusion patterns
func (im *IgnoreManager) HasPatterns() bool {
	im.mu.RLock()
	defer im.mu.RUnlock()
	return len(im.patterns) > 0
}
