package format

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"mcapedit/internal/summary"
)

// Info is the container overview printed by the info command.
type Info struct {
	Path         string    `json:"path"`
	SizeBytes    int64     `json:"size_bytes"`
	Profile      string    `json:"profile"`
	Library      string    `json:"library"`
	MessageCount uint64    `json:"message_count"`
	SchemaCount  int       `json:"schema_count"`
	ChannelCount int       `json:"channel_count"`
	TopicCount   int       `json:"topic_count"`
	ChunkCount   uint32    `json:"chunk_count"`
	StartNanos   uint64    `json:"start_ns"`
	EndNanos     uint64    `json:"end_ns"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Duration     string    `json:"duration"`
}

// NewInfo collects the overview of idx. size is the encoded container size.
func NewInfo(path string, size int64, idx *summary.Index) Info {
	return Info{
		Path:         path,
		SizeBytes:    size,
		Profile:      idx.Profile,
		Library:      idx.Library,
		MessageCount: idx.MessageCount,
		SchemaCount:  idx.SchemaCount(),
		ChannelCount: idx.ChannelCount(),
		TopicCount:   len(idx.TopicNames()),
		ChunkCount:   idx.ChunkCount,
		StartNanos:   idx.Start,
		EndNanos:     idx.End,
		StartTime:    idx.StartTime(),
		EndTime:      idx.EndTime(),
		Duration:     FormatDuration(idx.Duration()),
	}
}

// WriteInfo writes info in text or json form.
func WriteInfo(w io.Writer, info Info, format string) error {
	switch strings.ToLower(format) {
	case "", "text":
		const labelWidth = 10
		writeKV(w, labelWidth, "Path", info.Path)
		writeKV(w, labelWidth, "Size", humanize.Bytes(uint64(max(info.SizeBytes, 0))))
		writeKV(w, labelWidth, "Profile", orDash(info.Profile))
		writeKV(w, labelWidth, "Library", orDash(info.Library))
		writeKV(w, labelWidth, "Messages", humanize.Comma(int64(info.MessageCount)))
		writeKV(w, labelWidth, "Topics", fmt.Sprintf("%d", info.TopicCount))
		writeKV(w, labelWidth, "Channels", fmt.Sprintf("%d", info.ChannelCount))
		writeKV(w, labelWidth, "Schemas", fmt.Sprintf("%d", info.SchemaCount))
		writeKV(w, labelWidth, "Chunks", fmt.Sprintf("%d", info.ChunkCount))
		writeKV(w, labelWidth, "Start", formatInstant(info.StartTime, info.StartNanos))
		writeKV(w, labelWidth, "End", formatInstant(info.EndTime, info.EndNanos))
		writeKV(w, labelWidth, "Duration", info.Duration)
		return nil
	case "json":
		return writeJSON(w, info)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// FormatDuration renders d as HH:MM:SS.mmm.
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "00:00:00.000"
	}
	ms := d.Milliseconds()
	h := ms / 3_600_000
	m := (ms % 3_600_000) / 60_000
	s := (ms % 60_000) / 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms%1000)
}

// formatInstant shows the millisecond timestamp users edit windows at,
// alongside the raw nanosecond value.
func formatInstant(t time.Time, ns uint64) string {
	return fmt.Sprintf("%s (%d)", t.Format("2006-01-02T15:04:05.000Z07:00"), ns)
}

func writeKV(w io.Writer, width int, label string, value string) {
	fmt.Fprintf(w, "%-*s: %s\n", width, label, value)
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
