package model

import (
	"fmt"
	"strings"
)

// Compression selects the per-chunk compression applied by a Writer.
type Compression string

const (
	// CompressionNone writes uncompressed chunks.
	CompressionNone Compression = "none"
	// CompressionLZ4 compresses chunks with LZ4.
	CompressionLZ4 Compression = "lz4"
	// CompressionZstd compresses chunks with Zstandard.
	CompressionZstd Compression = "zstd"
)

// ParseCompression converts a user-supplied name into a Compression.
func ParseCompression(value string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "none", "":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd", "zstandard":
		return CompressionZstd, nil
	default:
		return "", fmt.Errorf("unknown compression: %s", value)
	}
}

// SummaryMethod selects how a Reader obtains schemas, channels and statistics.
type SummaryMethod string

const (
	// SummaryIndex reads the summary section only.
	SummaryIndex SummaryMethod = "index"
	// SummaryAuto reads the summary section and falls back to a scan when it
	// is missing or carries no statistics.
	SummaryAuto SummaryMethod = "auto"
	// SummaryScan always scans every record in the data section.
	SummaryScan SummaryMethod = "scan"
)

// ParseSummaryMethod converts a user-supplied name into a SummaryMethod.
func ParseSummaryMethod(value string) (SummaryMethod, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "auto", "":
		return SummaryAuto, nil
	case "index":
		return SummaryIndex, nil
	case "scan", "force-scan":
		return SummaryScan, nil
	default:
		return "", fmt.Errorf("unknown summary method: %s", value)
	}
}
