package dupsample

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
)

// ExportReport writes report as JSON to path. A ".zst" suffix compresses with
// zstd and ".gz" with parallel gzip. The file is written to a temporary name
// and renamed into place.
func ExportReport(path string, report Report) (retErr error) {
	if report.Groups == nil {
		report.Groups = []DuplicateGroup{}
	}

	tmpPath := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create report file %s: %w", tmpPath, err)
	}
	defer func() {
		if retErr != nil {
			f.Close()
			os.Remove(tmpPath)
		}
	}()

	bufWriter := bufio.NewWriter(f)
	var out io.WriteCloser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst":
		zstdWriter, err := zstd.NewWriter(bufWriter, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return fmt.Errorf("failed to create zstd writer: %w", err)
		}
		out = zstdWriter
	case ".gz":
		pgzipWriter, err := pgzip.NewWriterLevel(bufWriter, pgzip.DefaultCompression)
		if err != nil {
			return fmt.Errorf("failed to create gzip writer: %w", err)
		}
		out = pgzipWriter
	default:
		out = nopWriteCloser{bufWriter}
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		out.Close()
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to finish report stream: %w", err)
	}
	if err := bufWriter.Flush(); err != nil {
		return fmt.Errorf("failed to flush report: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync report: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close report: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename report into place: %w", err)
	}
	return nil
}

// LoadReport reads a report written by ExportReport
func LoadReport(path string) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{}, fmt.Errorf("failed to open report: %w", err)
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst":
		zstdReader, err := zstd.NewReader(r)
		if err != nil {
			return Report{}, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		defer zstdReader.Close()
		r = zstdReader
	case ".gz":
		gz, err := pgzip.NewReader(r)
		if err != nil {
			return Report{}, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	var report Report
	if err := json.NewDecoder(r).Decode(&report); err != nil {
		return Report{}, fmt.Errorf("failed to decode report: %w", err)
	}
	if report.Hash != "" {
		if err := ValidateHashAlgorithm(report.Hash); err != nil {
			return Report{}, fmt.Errorf("report %s: %w", path, err)
		}
	}
	return report, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
