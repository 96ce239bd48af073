package dupsample

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/vectorio"
)

// Output formats
const (
	FormatHuman  = "human"
	FormatFdupes = "fdupes"
	FormatPairs  = "pairs"
	FormatPrintf = "printf"
	FormatJSON   = "json"

	// DefaultPrintf prints the duplicate path only
	DefaultPrintf = "{0}"
)

const (
	// iovBatch stays well under the Linux IOV_MAX of 1024
	iovBatch      = 256
	flushInterval = 250 * time.Millisecond
)

// Report is the complete result of a run, as written by the json format and by ExportReport
type Report struct {
	Hash   string           `json:"hash,omitempty"` // digest algorithm that confirmed the groups
	Groups []DuplicateGroup `json:"groups"`
	Stats  Stats            `json:"stats"`
}

// Reporter renders decisions as they happen and groups at the end of a run.
// The pairs and printf formats stream; the others only write in Finish.
type Reporter struct {
	format   string
	template string
	quiet    bool
	out      *iovecWriter
}

// NewReporter creates a reporter writing to w. An empty template uses DefaultPrintf.
func NewReporter(w io.Writer, format, template string, quiet bool) (*Reporter, error) {
	format = strings.ToLower(format)
	if err := ValidateOutputFormat(format); err != nil {
		return nil, err
	}
	if template == "" {
		template = DefaultPrintf
	}
	return &Reporter{
		format:   format,
		template: template,
		quiet:    quiet,
		out:      newIovecWriter(w),
	}, nil
}

// Streaming reports whether the format prints each duplicate as it is found
func (r *Reporter) Streaming() bool {
	return r.format == FormatPairs || r.format == FormatPrintf
}

// Decision prints one keep decision for the streaming formats
func (r *Reporter) Decision(d Decision) error {
	if r.quiet || !r.Streaming() {
		return nil
	}
	switch r.format {
	case FormatPairs:
		return r.out.WriteLine(d.Discard + " " + d.Keep)
	default:
		return r.out.WriteLine(ExpandPrintf(r.template, d.Discard, d.Keep))
	}
}

// Finish writes the group based formats and flushes everything buffered
func (r *Reporter) Finish(groups []DuplicateGroup, stats Stats) error {
	if !r.quiet {
		var err error
		switch r.format {
		case FormatFdupes:
			err = r.writeFdupes(groups)
		case FormatHuman:
			err = r.writeHuman(groups, stats)
		case FormatJSON:
			err = r.writeJSON(groups, stats)
		}
		if err != nil {
			return err
		}
	}
	return r.out.Flush()
}

func (r *Reporter) writeFdupes(groups []DuplicateGroup) error {
	for i, group := range groups {
		if i > 0 {
			if err := r.out.WriteLine(""); err != nil {
				return err
			}
		}
		for _, path := range group.Files {
			if err := r.out.WriteLine(path); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Reporter) writeHuman(groups []DuplicateGroup, stats Stats) error {
	var dupes, wasted int64
	for _, group := range groups {
		line := fmt.Sprintf("%s (%s, %d duplicates)", group.Keep, FormatSize(group.Size), group.Count-1)
		if err := r.out.WriteLine(line); err != nil {
			return err
		}
		for _, path := range group.Files[1:] {
			if err := r.out.WriteLine("  " + path); err != nil {
				return err
			}
		}
		dupes += int64(group.Count - 1)
		wasted += group.Wasted
	}

	summary := []string{
		"",
		fmt.Sprintf("Files examined:  %s", FormatCount(stats.Files)),
		fmt.Sprintf("Duplicate sets:  %s", FormatCount(int64(len(groups)))),
		fmt.Sprintf("Duplicates:      %s (%s wasted)", FormatCount(dupes), FormatSize(wasted)),
	}
	if stats.FalsePositives > 0 {
		summary = append(summary, fmt.Sprintf("False positives: %s", FormatCount(stats.FalsePositives)))
	}
	if stats.Errors > 0 {
		summary = append(summary, fmt.Sprintf("Errors:          %s", FormatCount(stats.Errors)))
	}
	for _, line := range summary {
		if err := r.out.WriteLine(line); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reporter) writeJSON(groups []DuplicateGroup, stats Stats) error {
	if groups == nil {
		groups = []DuplicateGroup{}
	}
	data, err := json.MarshalIndent(Report{Groups: groups, Stats: stats}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return r.out.WriteLine(string(data))
}

// ExpandPrintf substitutes {0} with the duplicate and {1} with the original.
// {{ and }} produce literal braces.
func ExpandPrintf(template, duplicate, original string) string {
	var b strings.Builder
	for i := 0; i < len(template); i++ {
		c := template[i]
		switch {
		case c == '{' && i+1 < len(template) && template[i+1] == '{':
			b.WriteByte('{')
			i++
		case c == '}' && i+1 < len(template) && template[i+1] == '}':
			b.WriteByte('}')
			i++
		case c == '{' && i+2 < len(template) && template[i+2] == '}' && template[i+1] == '0':
			b.WriteString(duplicate)
			i += 2
		case c == '{' && i+2 < len(template) && template[i+2] == '}' && template[i+1] == '1':
			b.WriteString(original)
			i += 2
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// iovecWriter batches lines and writes each batch with a single writev when the
// destination is an *os.File. Other writers receive one Write per line. Queued
// lines are written at most flushInterval after they arrive, even when no
// further line follows.
type iovecWriter struct {
	mu       sync.Mutex
	w        io.Writer
	fd       uintptr
	vectored bool
	lines    [][]byte
	timer    *time.Timer
	err      error // first failure of a timed flush
}

func newIovecWriter(w io.Writer) *iovecWriter {
	iw := &iovecWriter{w: w}
	if f, ok := w.(*os.File); ok {
		iw.fd = f.Fd()
		iw.vectored = true
	}
	return iw
}

// WriteLine queues s plus a newline, flushing when the batch is full
func (iw *iovecWriter) WriteLine(s string) error {
	iw.mu.Lock()
	defer iw.mu.Unlock()

	if iw.err != nil {
		return iw.err
	}
	iw.lines = append(iw.lines, []byte(s+"\n"))
	if len(iw.lines) >= iovBatch {
		iw.stopTimer()
		return iw.flushLocked()
	}
	if iw.timer == nil {
		iw.timer = time.AfterFunc(flushInterval, iw.timedFlush)
	}
	return nil
}

// Flush writes every queued line
func (iw *iovecWriter) Flush() error {
	iw.mu.Lock()
	defer iw.mu.Unlock()

	iw.stopTimer()
	if err := iw.flushLocked(); err != nil {
		return err
	}
	return iw.err
}

func (iw *iovecWriter) timedFlush() {
	iw.mu.Lock()
	defer iw.mu.Unlock()

	iw.timer = nil
	if err := iw.flushLocked(); err != nil && iw.err == nil {
		iw.err = err
	}
}

func (iw *iovecWriter) stopTimer() {
	if iw.timer != nil {
		iw.timer.Stop()
		iw.timer = nil
	}
}

func (iw *iovecWriter) flushLocked() error {
	if len(iw.lines) == 0 {
		return nil
	}
	lines := iw.lines
	iw.lines = nil

	if !iw.vectored {
		for _, line := range lines {
			if _, err := iw.w.Write(line); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
		return nil
	}

	iovecs := make([]syscall.Iovec, 0, len(lines))
	total := 0
	for _, line := range lines {
		iovecs = append(iovecs, syscall.Iovec{Base: &line[0], Len: uint64(len(line))})
		total += len(line)
	}

	nw, err := vectorio.WritevRaw(iw.fd, iovecs)
	if err != nil {
		return fmt.Errorf("failed to write output with vectorio: %w", err)
	}
	if nw < total {
		return iw.writeRemainder(lines, nw)
	}
	return nil
}

// writeRemainder finishes a short writev with plain writes
func (iw *iovecWriter) writeRemainder(lines [][]byte, written int) error {
	for _, line := range lines {
		if written >= len(line) {
			written -= len(line)
			continue
		}
		if _, err := iw.w.Write(line[written:]); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		written = 0
	}
	return nil
}
