// Package format renders container summaries for the terminal and for scripts.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"mcapedit/internal/summary"
)

// TopicRow is the serialised form of a topic listing entry.
type TopicRow struct {
	Topic           string            `json:"topic"`
	ChannelIDs      []uint16          `json:"channel_ids"`
	SchemaID        uint16            `json:"schema_id"`
	SchemaName      string            `json:"schema_name,omitempty"`
	MessageEncoding string            `json:"message_encoding"`
	MessageCount    uint64            `json:"message_count"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// TopicRows converts index entries into rows.
func TopicRows(topics []summary.TopicInfo) []TopicRow {
	rows := make([]TopicRow, 0, len(topics))
	for _, info := range topics {
		rows = append(rows, TopicRow{
			Topic:           info.Topic,
			ChannelIDs:      info.ChannelIDs,
			SchemaID:        info.SchemaID,
			SchemaName:      info.SchemaName,
			MessageEncoding: info.MessageEncoding,
			MessageCount:    info.MessageCount,
			Metadata:        info.Metadata,
		})
	}
	return rows
}

// WriteTopics writes topic rows to w in the requested format.
func WriteTopics(w io.Writer, rows []TopicRow, includeHeader bool, format string) error {
	format = strings.ToLower(format)
	switch format {
	case "", "table":
		return writeTopicsTable(w, rows, includeHeader)
	case "plain":
		return writeTopicsPlain(w, rows, includeHeader)
	case "json":
		return writeJSON(w, rows)
	case "jsonl":
		return writeTopicsJSONL(w, rows)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeTopicsPlain(w io.Writer, rows []TopicRow, includeHeader bool) error {
	if includeHeader {
		if _, err := fmt.Fprintln(w, "topic\tchannels\tschema\tencoding\tmessage_count"); err != nil {
			return err
		}
	}

	for _, row := range rows {
		line := fmt.Sprintf(
			"%s\t%s\t%s\t%s\t%d",
			row.Topic,
			joinIDs(row.ChannelIDs),
			schemaLabel(row.SchemaName),
			row.MessageEncoding,
			row.MessageCount,
		)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTopicsJSONL(w io.Writer, rows []TopicRow) error {
	enc := json.NewEncoder(w)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return err
		}
	}
	return nil
}

func writeTopicsTable(w io.Writer, rows []TopicRow, includeHeader bool) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateRows = false
	tw.Style().Options.SeparateHeader = true
	tw.Style().Options.DrawBorder = true

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 2, Align: text.AlignCenter, AlignHeader: text.AlignCenter},
		{Number: 3, Align: text.AlignLeft, AlignHeader: text.AlignCenter, WidthMax: 60},
		{Number: 4, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignCenter},
	})

	if includeHeader {
		tw.AppendHeader(table.Row{"Topic", "Channels", "Schema", "Encoding", "Messages"})
	}

	var total uint64
	for _, row := range rows {
		tw.AppendRow(table.Row{
			row.Topic,
			joinIDs(row.ChannelIDs),
			schemaLabel(row.SchemaName),
			row.MessageEncoding,
			humanize.Comma(int64(row.MessageCount)),
		})
		total += row.MessageCount
	}

	if len(rows) == 0 {
		tw.AppendRow(table.Row{"(no topics)", "-", "-", "-", 0})
	} else if includeHeader {
		tw.AppendFooter(table.Row{"", "", "", "Total", humanize.Comma(int64(total))})
	}

	_ = tw.Render()
	return nil
}

// MetadataLines renders channel metadata as sorted key=value pairs.
func MetadataLines(metadata map[string]string) []string {
	keys := make([]string, 0, len(metadata))
	for key := range metadata {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, fmt.Sprintf("%s=%s", key, escapeNewlines(metadata[key])))
	}
	return lines
}

func joinIDs(ids []uint16) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%d", id))
	}
	return strings.Join(parts, ",")
}

func schemaLabel(name string) string {
	if name == "" {
		return "(schemaless)"
	}
	return name
}

func escapeNewlines(text string) string {
	return strings.ReplaceAll(text, "\n", "\\n")
}
