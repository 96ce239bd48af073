package dupsample

import (
	"sort"
	"strings"
	"sync"
	"unsafe"

	zcsl "github.com/mattkeenan/zerocopyskiplist"
)

// dupeEntry is a discarded duplicate held in the index
type dupeEntry struct {
	Path string
	Size int64
}

// DuplicateIndex keeps discarded duplicates in path order. Each entry's skiplist
// context is the path of the file it duplicates and that is being kept.
type DuplicateIndex struct {
	mu       sync.Mutex
	skiplist *zcsl.ZeroCopySkiplist[dupeEntry, string, string]
}

// NewDuplicateIndex creates an empty index
func NewDuplicateIndex() *DuplicateIndex {
	getKeyFromItem := func(e *dupeEntry) string {
		return e.Path
	}
	getItemSize := func(e *dupeEntry) int {
		return int(unsafe.Sizeof(*e)) + len(e.Path)
	}
	cmpKey := func(a, b string) int {
		return strings.Compare(a, b)
	}

	return &DuplicateIndex{
		skiplist: zcsl.MakeZeroCopySkiplist[dupeEntry, string, string](
			16,
			getKeyFromItem,
			getItemSize,
			cmpKey,
		),
	}
}

// Record adds a decision. When the decision displaced an earlier keeper, every
// entry that pointed at that keeper is moved to the new one.
func (di *DuplicateIndex) Record(d Decision) {
	di.mu.Lock()
	defer di.mu.Unlock()

	if d.Superseded {
		var moved []string
		for current := di.skiplist.First(); current != nil; current = current.Next() {
			if current.Context() == d.Discard {
				moved = append(moved, current.Item().Path)
			}
		}
		for _, path := range moved {
			di.skiplist.UpdateContext(path, d.Keep)
		}
	}

	if !di.skiplist.Insert(&dupeEntry{Path: d.Discard, Size: d.Size}, d.Keep) {
		di.skiplist.UpdateContext(d.Discard, d.Keep)
	}
}

// Find returns the keeper recorded for a discarded path
func (di *DuplicateIndex) Find(path string) (string, bool) {
	di.mu.Lock()
	defer di.mu.Unlock()

	itemPtr, keep := di.skiplist.Find(path)
	if itemPtr == nil {
		return "", false
	}
	return keep, true
}

// Length returns the number of discarded duplicates recorded
func (di *DuplicateIndex) Length() int {
	di.mu.Lock()
	defer di.mu.Unlock()
	return di.skiplist.Length()
}

// IsEmpty returns true if nothing has been recorded
func (di *DuplicateIndex) IsEmpty() bool {
	di.mu.Lock()
	defer di.mu.Unlock()
	return di.skiplist.IsEmpty()
}

// Groups collects the index into one group per keeper, sorted by keeper path.
// Within a group the keeper comes first, followed by its duplicates in path order.
func (di *DuplicateIndex) Groups() []DuplicateGroup {
	di.mu.Lock()
	defer di.mu.Unlock()

	byKeep := make(map[string]*DuplicateGroup)
	for current := di.skiplist.First(); current != nil; current = current.Next() {
		keep := current.Context()
		entry := current.Item()
		group, ok := byKeep[keep]
		if !ok {
			group = &DuplicateGroup{Keep: keep, Files: []string{keep}, Size: entry.Size}
			byKeep[keep] = group
		}
		group.Files = append(group.Files, entry.Path)
	}

	result := make([]DuplicateGroup, 0, len(byKeep))
	for _, group := range byKeep {
		group.Count = len(group.Files)
		group.Wasted = group.Size * int64(group.Count-1)
		result = append(result, *group)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Keep < result[j].Keep
	})
	return result
}
