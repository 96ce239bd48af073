package dupsample

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
)

// Candidate is one entry offered to the classifier
type Candidate struct {
	Path    string
	Size    int64
	Regular bool
}

// Walker enumerates files under one or more roots in a stable order: roots are
// taken in sorted order and each root's files in path order. Symbolic links are
// reported as non-regular and never followed.
type Walker struct {
	ignore  *IgnoreManager
	workers int
}

// NewWalker creates a walker. A nil IgnoreManager skips hidden entries only.
func NewWalker(ignore *IgnoreManager, workers int) *Walker {
	if ignore == nil {
		ignore = NewIgnoreManager(false)
	}
	return &Walker{ignore: ignore, workers: workers}
}

// Walk streams candidates for every root into out. Missing roots, unreadable
// directories and entries that vanish mid-walk are logged and skipped, so the
// only error returned is cancellation. out is not closed.
func (w *Walker) Walk(ctx context.Context, roots []string, out chan<- Candidate) error {
	defer VerboseEnter()()

	if len(roots) == 0 {
		roots = []string{"."}
	}

	var cleaned []string
	for _, root := range roots {
		cleaned = append(cleaned, filepath.Clean(root))
	}

	for _, root := range deduplicatePaths(cleaned) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if IsDebugEnabled("walk") {
			VerboseLog(3, "walk: scanning root %s", root)
		}
		if err := w.walkRoot(ctx, root, out); err != nil {
			return fmt.Errorf("failed to walk %s: %w", root, err)
		}
	}
	return nil
}

func (w *Walker) walkRoot(ctx context.Context, root string, out chan<- Candidate) error {
	info, err := os.Lstat(root)
	if err != nil {
		Warnf("skipping %s: %v", root, err)
		return nil
	}
	if !info.IsDir() {
		return emit(ctx, out, Candidate{Path: root, Size: info.Size(), Regular: info.Mode().IsRegular()})
	}

	conf := &fastwalk.Config{
		Follow:     false,
		NumWorkers: w.workers,
	}

	// fastwalk visits directories concurrently; entries are gathered and sorted
	// so every run over an unchanged tree offers files in the same order.
	var (
		mu    sync.Mutex
		found []Candidate
	)
	add := func(c Candidate) {
		mu.Lock()
		found = append(found, c)
		mu.Unlock()
	}

	walkFn := func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			Warnf("skipping %s: %v", path, err)
			return nil
		}
		if path == root {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if w.ignore.ShouldIgnore(relPath) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		if !d.Type().IsRegular() {
			add(Candidate{Path: path})
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			// removed between readdir and stat
			Warnf("skipping %s: %v", path, err)
			return nil
		}
		add(Candidate{Path: path, Size: fi.Size(), Regular: fi.Mode().IsRegular()})
		return nil
	}

	if err := fastwalk.Walk(conf, root, walkFn); err != nil {
		return err
	}

	sort.Slice(found, func(i, j int) bool { return lessPath(found[i].Path, found[j].Path) })
	for _, c := range found {
		if err := emit(ctx, out, c); err != nil {
			return err
		}
	}
	return nil
}

// lessPath orders paths component by component, so a directory's contents
// sort directly after the directory name ("a/z" before "a.txt").
func lessPath(a, b string) bool {
	sep := string(filepath.Separator)
	return strings.ReplaceAll(a, sep, "\x00") < strings.ReplaceAll(b, sep, "\x00")
}

func emit(ctx context.Context, out chan<- Candidate, c Candidate) error {
	select {
	case out <- c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// deduplicatePaths sorts paths and removes any that are subdirectories/subfiles of others
// Example: ["/home/user/docs", "/home/user/docs/file.txt", "/home/user/photos"]
//
//	-> ["/home/user/docs", "/home/user/photos"]
func deduplicatePaths(paths []string) []string {
	if len(paths) <= 1 {
		return paths
	}

	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	var deduplicated []string
	for _, path := range sorted {
		isRedundant := false
		for _, kept := range deduplicated {
			if path == kept || isPathUnder(path, kept) {
				isRedundant = true
				break
			}
		}
		if !isRedundant {
			deduplicated = append(deduplicated, path)
		}
	}
	return deduplicated
}

// isPathUnder checks if childPath is under parentPath
func isPathUnder(childPath, parentPath string) bool {
	childPath = filepath.Clean(childPath)
	parentPath = filepath.Clean(parentPath)

	if childPath == parentPath {
		return false
	}
	if parentPath == "." {
		return !filepath.IsAbs(childPath) && childPath != ".." && !strings.HasPrefix(childPath, ".."+string(filepath.Separator))
	}

	parentWithSep := parentPath
	if !strings.HasSuffix(parentWithSep, string(filepath.Separator)) {
		parentWithSep += string(filepath.Separator)
	}
	return strings.HasPrefix(childPath, parentWithSep)
}
