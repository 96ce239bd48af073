package dupsample

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportReportRoundTrip(t *testing.T) {
	report := Report{
		Hash:   "sha256",
		Groups: sampleGroups(),
		Stats:  Stats{Files: 10, Confirmed: 3, DuplicateBytes: 4106},
	}

	for _, name := range []string{"report.json", "report.json.zst", "report.json.gz"} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, name)
			require.NoError(t, ExportReport(path, report))

			loaded, err := LoadReport(path)
			require.NoError(t, err)
			assert.Equal(t, report, loaded)

			// no temporary file left behind
			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Len(t, entries, 1)
		})
	}
}

func TestExportReportCompresses(t *testing.T) {
	var groups []DuplicateGroup
	for i := 0; i < 200; i++ {
		groups = append(groups, DuplicateGroup{
			Keep:  "/very/long/repeated/path/keep",
			Files: []string{"/very/long/repeated/path/keep", "/very/long/repeated/path/dupe"},
			Count: 2,
		})
	}
	dir := t.TempDir()
	plain := filepath.Join(dir, "r.json")
	zst := filepath.Join(dir, "r.zst")
	gz := filepath.Join(dir, "r.gz")
	for _, p := range []string{plain, zst, gz} {
		require.NoError(t, ExportReport(p, Report{Groups: groups}))
	}

	plainInfo, _ := os.Stat(plain)
	zstInfo, _ := os.Stat(zst)
	gzInfo, _ := os.Stat(gz)
	assert.Less(t, zstInfo.Size(), plainInfo.Size())
	assert.Less(t, gzInfo.Size(), plainInfo.Size())

	raw, err := os.ReadFile(plain)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "{"))
}

func TestExportReportNilGroups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, ExportReport(path, Report{}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"groups": []`)
}

func TestExportReportBadDirectory(t *testing.T) {
	err := ExportReport(filepath.Join(t.TempDir(), "missing", "r.json"), Report{})
	assert.Error(t, err)
}

func TestLoadReportErrors(t *testing.T) {
	_, err := LoadReport(filepath.Join(t.TempDir(), "none.json"))
	assert.Error(t, err)

	bad := writeTestFile(t, filepath.Join(t.TempDir(), "bad.zst"), []byte("not zstd"))
	_, err = LoadReport(bad)
	assert.Error(t, err)

	unknownHash := filepath.Join(t.TempDir(), "md5.json")
	require.NoError(t, ExportReport(unknownHash, Report{Hash: "md5"}))
	_, err = LoadReport(unknownHash)
	assert.ErrorContains(t, err, "unsupported hash algorithm")
}
