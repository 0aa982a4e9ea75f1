package format

import (
	"fmt"
	"io"
	"strings"

	"mcapedit/internal/summary"
)

// SchemaPayload is the json form of the schema command.
type SchemaPayload struct {
	Topic    string `json:"topic"`
	ID       uint16 `json:"id"`
	Name     string `json:"name"`
	Encoding string `json:"encoding"`
	Text     string `json:"text"`
}

// RenderSchemaLines returns the header and body lines shown for a topic's
// schema. A schemaless topic yields a single explanatory line.
func RenderSchemaLines(topic string, info summary.SchemaInfo, found bool) []string {
	if !found {
		return []string{fmt.Sprintf("%s has no schema", topic)}
	}
	lines := []string{
		fmt.Sprintf("%s: %s (%s, id %d)", topic, info.Name, orDash(info.Encoding), info.ID),
		"",
	}
	body := strings.TrimRight(info.Text, "\n")
	if body == "" {
		return append(lines, "(empty definition)")
	}
	return append(lines, strings.Split(body, "\n")...)
}

// WriteSchemaJSON writes the schema of topic as json. A schemaless topic is
// written with id 0 and empty fields.
func WriteSchemaJSON(w io.Writer, topic string, info summary.SchemaInfo) error {
	return writeJSON(w, SchemaPayload{
		Topic:    topic,
		ID:       info.ID,
		Name:     info.Name,
		Encoding: info.Encoding,
		Text:     info.Text,
	})
}
