package dupsample

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// ParseHumanSize parses human-readable size strings like "4K", "1.5M", "2G".
// Suffixes are binary multiples, so "4K" is 4096 bytes.
func ParseHumanSize(sizeStr string) (int, error) {
	if sizeStr == "" {
		return 0, fmt.Errorf("empty size string")
	}

	sizeStr = strings.ToUpper(strings.TrimSpace(sizeStr))

	// Extract numeric part and suffix
	numEnd := len(sizeStr)
	for i, char := range sizeStr {
		if (char < '0' || char > '9') && char != '.' {
			numEnd = i
			break
		}
	}
	numPart, suffix := sizeStr[:numEnd], strings.TrimSpace(sizeStr[numEnd:])

	if numPart == "" {
		return 0, fmt.Errorf("no numeric part in size string: %s", sizeStr)
	}

	num, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric part in size string %s: %w", sizeStr, err)
	}

	var multiplier int64
	switch suffix {
	case "", "B":
		multiplier = 1
	case "K", "KB", "KIB":
		multiplier = humanize.KiByte
	case "M", "MB", "MIB":
		multiplier = humanize.MiByte
	case "G", "GB", "GIB":
		multiplier = humanize.GiByte
	default:
		return 0, fmt.Errorf("unknown size suffix: %s", suffix)
	}

	result := int64(num * float64(multiplier))
	if result <= 0 {
		return 0, fmt.Errorf("size must be positive: %s", sizeStr)
	}
	if result > int64(^uint(0)>>1) { // Check for int overflow
		return 0, fmt.Errorf("size too large: %s", sizeStr)
	}

	return int(result), nil
}

// FormatSize renders a byte count for humans, e.g. "4.0 KiB"
func FormatSize(n int64) string {
	if n < 0 {
		return "-" + humanize.IBytes(uint64(-n))
	}
	return humanize.IBytes(uint64(n))
}

// FormatCount renders a count with thousands separators
func FormatCount(n int64) string {
	return humanize.Comma(n)
}
