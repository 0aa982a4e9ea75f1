package format

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"mcapedit/internal/export"
)

// ExportReport summarises a finished export.
type ExportReport struct {
	RunID       string            `json:"run_id"`
	Input       string            `json:"input"`
	Output      string            `json:"output"`
	Compression string            `json:"compression"`
	Messages    uint64            `json:"messages"`
	SizeBytes   int64             `json:"size_bytes"`
	WindowStart uint64            `json:"window_start_ns"`
	WindowEnd   uint64            `json:"window_end_ns"`
	Elapsed     string            `json:"elapsed"`
	PerTopic    map[string]uint64 `json:"per_topic"`
}

// NewExportReport builds a report from export stats.
func NewExportReport(runID, input, output, compression string, stats export.Stats, size int64, elapsed time.Duration) ExportReport {
	return ExportReport{
		RunID:       runID,
		Input:       input,
		Output:      output,
		Compression: compression,
		Messages:    stats.MessagesWritten,
		SizeBytes:   size,
		WindowStart: stats.Window.Start,
		WindowEnd:   stats.Window.End,
		Elapsed:     elapsed.Round(time.Millisecond).String(),
		PerTopic:    stats.PerTopic,
	}
}

// WriteExportReport writes report in text or json form.
func WriteExportReport(w io.Writer, report ExportReport, format string) error {
	switch strings.ToLower(format) {
	case "", "text":
		const labelWidth = 11
		writeKV(w, labelWidth, "Output", report.Output)
		writeKV(w, labelWidth, "Messages", humanize.Comma(int64(report.Messages)))
		writeKV(w, labelWidth, "Size", humanize.Bytes(uint64(max(report.SizeBytes, 0))))
		writeKV(w, labelWidth, "Compression", report.Compression)
		writeKV(w, labelWidth, "Window", fmt.Sprintf("%d .. %d", report.WindowStart, report.WindowEnd))
		writeKV(w, labelWidth, "Elapsed", report.Elapsed)

		topics := make([]string, 0, len(report.PerTopic))
		for topic := range report.PerTopic {
			topics = append(topics, topic)
		}
		sort.Strings(topics)
		for _, topic := range topics {
			fmt.Fprintf(w, "  %s: %s\n", topic, humanize.Comma(int64(report.PerTopic[topic])))
		}
		return nil
	case "json":
		return writeJSON(w, report)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}
