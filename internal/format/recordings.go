package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"mcapedit/internal/store"
)

// WriteRecordings writes a directory listing of recordings in the requested format.
func WriteRecordings(w io.Writer, items []store.Recording, includeHeader bool, format string) error {
	format = strings.ToLower(format)
	switch format {
	case "", "table":
		return writeRecordingsTable(w, items, includeHeader)
	case "plain":
		return writeRecordingsPlain(w, items, includeHeader)
	case "json":
		return writeJSON(w, items)
	case "jsonl":
		enc := json.NewEncoder(w)
		for _, item := range items {
			if err := enc.Encode(item); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeRecordingsPlain(w io.Writer, items []store.Recording, includeHeader bool) error {
	if includeHeader {
		if _, err := fmt.Fprintln(w, "start_time\tduration\tmessage_count\ttopic_count\tsize_bytes\tpath"); err != nil {
			return err
		}
	}
	for _, item := range items {
		line := fmt.Sprintf(
			"%s\t%s\t%d\t%d\t%d\t%s",
			item.StartTime.Format(time.RFC3339),
			FormatDuration(item.Duration),
			item.MessageCount,
			item.TopicCount,
			item.SizeBytes,
			item.Path,
		)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func writeRecordingsTable(w io.Writer, items []store.Recording, includeHeader bool) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateRows = true
	tw.Style().Options.SeparateHeader = true
	tw.Style().Options.DrawBorder = true

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 2, Align: text.AlignCenter, AlignHeader: text.AlignCenter},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 6, Align: text.AlignLeft, AlignHeader: text.AlignCenter, WidthMax: 80},
	})

	if includeHeader {
		tw.AppendHeader(table.Row{"Start", "Duration", "Messages", "Topics", "Size", "Path"})
	}

	for _, item := range items {
		tw.AppendRow(table.Row{
			item.StartTime.Format(time.RFC3339),
			FormatDuration(item.Duration),
			humanize.Comma(int64(item.MessageCount)),
			item.TopicCount,
			humanize.Bytes(uint64(max(item.SizeBytes, 0))),
			item.Path,
		})
	}

	if len(items) == 0 {
		tw.AppendRow(table.Row{"-", "00:00:00.000", 0, 0, "-", "(no recordings)"})
	}

	_ = tw.Render()
	return nil
}
