package model

import "testing"

func TestParseCompression(t *testing.T) {
	for in, want := range map[string]Compression{
		"":          CompressionNone,
		"none":      CompressionNone,
		"LZ4":       CompressionLZ4,
		" zstd ":    CompressionZstd,
		"zstandard": CompressionZstd,
	} {
		got, err := ParseCompression(in)
		if err != nil {
			t.Fatalf("ParseCompression(%q) returned error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseCompression(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := ParseCompression("gzip"); err == nil {
		t.Fatal("expected error for unsupported compression")
	}
}

func TestParseSummaryMethod(t *testing.T) {
	for in, want := range map[string]SummaryMethod{
		"":           SummaryAuto,
		"auto":       SummaryAuto,
		"Index":      SummaryIndex,
		"scan":       SummaryScan,
		"force-scan": SummaryScan,
	} {
		got, err := ParseSummaryMethod(in)
		if err != nil {
			t.Fatalf("ParseSummaryMethod(%q) returned error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseSummaryMethod(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := ParseSummaryMethod("guess"); err == nil {
		t.Fatal("expected error for unknown method")
	}
}
