package view

import (
	"fmt"
	"io"
	"strings"

	"mcapedit/internal/format"
	"mcapedit/internal/summary"
)

// SchemaOptions controls how the schema command prints a definition.
type SchemaOptions struct {
	Format string // text, raw or json
	Color  ColorChoice
	Wrap   int
	Pager  bool
	Out    io.Writer
}

// ShowSchema prints the schema of topic from idx.
func ShowSchema(idx *summary.Index, topic string, opts SchemaOptions) error {
	info, found, err := idx.SchemaFor(topic)
	if err != nil {
		return err
	}

	formatMode := strings.ToLower(opts.Format)
	if formatMode == "" {
		formatMode = "text"
	}

	switch formatMode {
	case "text":
		useColor := UseColor(opts.Color, opts.Out)
		lines := renderSchema(topic, info, found, Width(opts.Out, opts.Wrap), useColor)
		if opts.Pager {
			return Page(opts.Out, lines, useColor)
		}
		return writeLines(opts.Out, lines)
	case "raw":
		if !found {
			return nil
		}
		_, err := opts.Out.Write(info.Data)
		return err
	case "json":
		return format.WriteSchemaJSON(opts.Out, topic, info)
	default:
		return fmt.Errorf("unsupported format: %s", opts.Format)
	}
}

func renderSchema(topic string, info summary.SchemaInfo, found bool, width int, useColor bool) []string {
	lines := format.RenderSchemaLines(topic, info, found)
	if len(lines) == 0 {
		return nil
	}

	header := lines[0]
	if found && useColor {
		header = fmt.Sprintf("%s: %s %s",
			Accent(true, topic),
			Label(true, info.Name),
			Muted(true, strings.TrimPrefix(header, topic+": "+info.Name+" ")),
		)
	}
	out := []string{header}
	if found {
		out = append(out, Muted(useColor, strings.Repeat("-", min(visibleWidth(header), width))))
	}
	for _, line := range wrapLines(lines[1:], width) {
		out = append(out, highlightComment(line, useColor))
	}
	return out
}

// highlightComment dims text after a '#', the comment marker of ros1msg and
// ros2msg definitions.
func highlightComment(line string, useColor bool) string {
	if !useColor {
		return line
	}
	if strings.HasPrefix(line, "MSG: ") || strings.HasPrefix(line, "====") {
		return colorize(true, ansiKeyword, line)
	}
	i := strings.IndexByte(line, '#')
	if i < 0 {
		return line
	}
	return line[:i] + Muted(true, line[i:])
}
