package dupsample

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGroups() []DuplicateGroup {
	return []DuplicateGroup{
		{Keep: "/a", Files: []string{"/a", "/b", "/c"}, Count: 3, Size: 2048, Wasted: 4096},
		{Keep: "/x", Files: []string{"/x", "/y"}, Count: 2, Size: 10, Wasted: 10},
	}
}

func TestExpandPrintf(t *testing.T) {
	tests := []struct {
		template string
		want     string
	}{
		{"{0}", "dup"},
		{"{1}", "orig"},
		{"rm {0} # same as {1}", "rm dup # same as orig"},
		{"{{0}} {0}", "{0} dup"},
		{"{2} {", "{2} {"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExpandPrintf(tt.template, "dup", "orig"); got != tt.want {
			t.Errorf("ExpandPrintf(%q) = %q, want %q", tt.template, got, tt.want)
		}
	}
}

func TestReporterStreamingFormats(t *testing.T) {
	decisions := []Decision{
		{Keep: "/a", Discard: "/b"},
		{Keep: "/a", Discard: "/c"},
	}

	tests := []struct {
		format   string
		template string
		want     string
	}{
		{FormatPrintf, "", "/b\n/c\n"},
		{FormatPrintf, "{1} {0}", "/a /b\n/a /c\n"},
		{FormatPairs, "", "/b /a\n/c /a\n"},
	}

	for _, tt := range tests {
		t.Run(tt.format+tt.template, func(t *testing.T) {
			var buf bytes.Buffer
			r, err := NewReporter(&buf, tt.format, tt.template, false)
			require.NoError(t, err)
			assert.True(t, r.Streaming())
			for _, d := range decisions {
				require.NoError(t, r.Decision(d))
			}
			require.NoError(t, r.Finish(sampleGroups(), Stats{}))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestReporterQuiet(t *testing.T) {
	var buf bytes.Buffer
	r, err := NewReporter(&buf, FormatFdupes, "", true)
	require.NoError(t, err)
	require.NoError(t, r.Decision(Decision{Keep: "/a", Discard: "/b"}))
	require.NoError(t, r.Finish(sampleGroups(), Stats{}))
	assert.Empty(t, buf.String())
}

func TestReporterFdupes(t *testing.T) {
	var buf bytes.Buffer
	r, err := NewReporter(&buf, FormatFdupes, "", false)
	require.NoError(t, err)
	assert.False(t, r.Streaming())

	require.NoError(t, r.Decision(Decision{Keep: "/a", Discard: "/b"}))
	require.NoError(t, r.Finish(sampleGroups(), Stats{}))
	assert.Equal(t, "/a\n/b\n/c\n\n/x\n/y\n", buf.String())
}

func TestReporterHuman(t *testing.T) {
	var buf bytes.Buffer
	r, err := NewReporter(&buf, "HUMAN", "", false)
	require.NoError(t, err)
	require.NoError(t, r.Finish(sampleGroups(), Stats{Files: 1234, FalsePositives: 2, Errors: 1}))

	out := buf.String()
	assert.Contains(t, out, "/a (2.0 KiB, 2 duplicates)\n  /b\n  /c\n")
	assert.Contains(t, out, "Files examined:  1,234")
	assert.Contains(t, out, "Duplicate sets:  2")
	assert.Contains(t, out, "Duplicates:      3 (4.0 KiB wasted)")
	assert.Contains(t, out, "False positives: 2")
	assert.Contains(t, out, "Errors:          1")
}

func TestReporterJSON(t *testing.T) {
	var buf bytes.Buffer
	r, err := NewReporter(&buf, FormatJSON, "", false)
	require.NoError(t, err)
	require.NoError(t, r.Finish(nil, Stats{Files: 3}))

	var report Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.NotNil(t, report.Groups)
	assert.Empty(t, report.Groups)
	assert.Equal(t, int64(3), report.Stats.Files)
	assert.Contains(t, buf.String(), `"groups": []`)
}

func TestNewReporterRejectsUnknownFormat(t *testing.T) {
	_, err := NewReporter(&bytes.Buffer{}, "xml", "", false)
	assert.Error(t, err)
}

func TestIovecWriterFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	f, err := os.Create(path)
	require.NoError(t, err)

	iw := newIovecWriter(f)
	require.True(t, iw.vectored)

	var want strings.Builder
	for i := 0; i < iovBatch*2+7; i++ {
		line := strings.Repeat("x", i%50) + "/" + string(rune('a'+i%26))
		require.NoError(t, iw.WriteLine(line))
		want.WriteString(line + "\n")
	}
	require.NoError(t, iw.Flush())
	require.NoError(t, f.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want.String(), string(got))
}

func TestIovecWriterFlushesWithoutFurtherLines(t *testing.T) {
	var buf syncBuffer
	r, err := NewReporter(&buf, FormatPrintf, "", false)
	require.NoError(t, err)

	require.NoError(t, r.Decision(Decision{Keep: "/a", Discard: "/b"}))
	assert.Eventually(t, func() bool {
		return buf.String() == "/b\n"
	}, 5*time.Second, 10*time.Millisecond, "a lone decision must reach the output before Finish")

	require.NoError(t, r.Decision(Decision{Keep: "/a", Discard: "/c"}))
	require.NoError(t, r.Finish(nil, Stats{}))
	assert.Equal(t, "/b\n/c\n", buf.String())
}

func TestIovecWriterTimedFlushError(t *testing.T) {
	iw := newIovecWriter(failingWriter{})
	require.NoError(t, iw.WriteLine("x"))

	assert.Eventually(t, func() bool {
		iw.mu.Lock()
		defer iw.mu.Unlock()
		return iw.err != nil
	}, 5*time.Second, 10*time.Millisecond)
	assert.Error(t, iw.WriteLine("y"))
	assert.Error(t, iw.Flush())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, os.ErrClosed }

func TestIovecWriterRemainder(t *testing.T) {
	var buf bytes.Buffer
	iw := newIovecWriter(&buf)
	lines := [][]byte{[]byte("abc\n"), []byte("defg\n"), []byte("h\n")}

	require.NoError(t, iw.writeRemainder(lines, 6))
	assert.Equal(t, "fg\nh\n", buf.String())
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "4.0 KiB", FormatSize(4096))
	assert.Equal(t, "-1.0 KiB", FormatSize(-1024))
	assert.Equal(t, "1,234,567", FormatCount(1234567))
}
