// Package summary builds the in-memory projection of an opened container
// that drives both topic listings and re-encoding.
package summary

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"mcapedit/internal/model"
)

// SchemaInfo is a schema as recorded in the source container.
type SchemaInfo struct {
	ID       uint16
	Name     string
	Encoding string
	Text     string // Data decoded as UTF-8 for display
	Data     []byte // verbatim definition, used when re-encoding
}

// TopicInfo describes one topic of the source container.
type TopicInfo struct {
	Topic           string
	ChannelIDs      []uint16
	SchemaID        uint16
	SchemaName      string
	MessageEncoding string
	Metadata        map[string]string
	MessageCount    uint64
}

// Index is built once per opened container and is read-only afterwards.
type Index struct {
	Profile      string
	Library      string
	MessageCount uint64
	ChunkCount   uint32
	Start        uint64
	End          uint64

	schemas map[uint16]SchemaInfo
	topics  []TopicInfo
	byTopic map[string]int
}

// Build reads the container summary with method and projects it into an Index.
func Build(reader model.Reader, method model.SummaryMethod) (*Index, error) {
	stats, err := reader.ReadSummary(method)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrSummaryRead, err)
	}
	if stats == nil {
		return nil, model.ErrSummaryUnavailable
	}

	header := reader.Header()
	idx := &Index{
		Profile:      header.Profile,
		Library:      header.Library,
		MessageCount: stats.MessageCount,
		ChunkCount:   stats.ChunkCount,
		Start:        stats.MessageStartTime,
		End:          stats.MessageEndTime,
		schemas:      map[uint16]SchemaInfo{},
		byTopic:      map[string]int{},
	}

	for id, schema := range reader.Schemas() {
		idx.schemas[id] = SchemaInfo{
			ID:       id,
			Name:     schema.Name,
			Encoding: schema.Encoding,
			Text:     decodeText(schema.Data),
			Data:     schema.Data,
		}
	}

	channels := reader.Channels()
	ids := make([]uint16, 0, len(channels))
	for id := range channels {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	byTopic := map[string]*TopicInfo{}
	for _, id := range ids {
		channel := channels[id]
		var schemaName string
		if channel.SchemaID != 0 {
			schema, ok := idx.schemas[channel.SchemaID]
			if !ok {
				return nil, &model.DanglingSchemaError{ChannelID: id, Topic: channel.Topic, SchemaID: channel.SchemaID}
			}
			schemaName = schema.Name
		}

		count := stats.ChannelMessageCounts[id]
		if existing, ok := byTopic[channel.Topic]; ok {
			if existing.SchemaID != channel.SchemaID || existing.MessageEncoding != channel.MessageEncoding {
				return nil, fmt.Errorf("%w: %s on channels %d and %d", model.ErrDuplicateTopic, channel.Topic, existing.ChannelIDs[0], id)
			}
			existing.ChannelIDs = append(existing.ChannelIDs, id)
			existing.MessageCount += count
			continue
		}
		byTopic[channel.Topic] = &TopicInfo{
			Topic:           channel.Topic,
			ChannelIDs:      []uint16{id},
			SchemaID:        channel.SchemaID,
			SchemaName:      schemaName,
			MessageEncoding: channel.MessageEncoding,
			Metadata:        channel.Metadata,
			MessageCount:    count,
		}
	}

	idx.topics = make([]TopicInfo, 0, len(byTopic))
	for _, info := range byTopic {
		idx.topics = append(idx.topics, *info)
	}
	sort.Slice(idx.topics, func(i, j int) bool { return idx.topics[i].Topic < idx.topics[j].Topic })
	for i, info := range idx.topics {
		idx.byTopic[info.Topic] = i
	}

	return idx, nil
}

// decodeText renders a schema definition for display. Invalid UTF-8 is
// replaced rather than rejected; the verbatim bytes are kept separately.
func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "\uFFFD")
}

// Topics returns every topic sorted by name.
func (idx *Index) Topics() []TopicInfo {
	out := make([]TopicInfo, len(idx.topics))
	copy(out, idx.topics)
	return out
}

// TopicNames returns every topic name in sorted order.
func (idx *Index) TopicNames() []string {
	names := make([]string, len(idx.topics))
	for i, info := range idx.topics {
		names[i] = info.Topic
	}
	return names
}

// Lookup returns the entry for topic.
func (idx *Index) Lookup(topic string) (TopicInfo, bool) {
	i, ok := idx.byTopic[topic]
	if !ok {
		return TopicInfo{}, false
	}
	return idx.topics[i], true
}

// Schema returns the schema recorded under id.
func (idx *Index) Schema(id uint16) (SchemaInfo, bool) {
	schema, ok := idx.schemas[id]
	return schema, ok
}

// SchemaCount returns the number of schemas in the source container.
func (idx *Index) SchemaCount() int { return len(idx.schemas) }

// ChannelCount returns the number of source channels across all topics.
func (idx *Index) ChannelCount() int {
	n := 0
	for _, info := range idx.topics {
		n += len(info.ChannelIDs)
	}
	return n
}

// SchemaFor returns the schema of topic. ok is false for unknown topics and
// for schemaless channels.
func (idx *Index) SchemaFor(topic string) (SchemaInfo, bool, error) {
	info, found := idx.Lookup(topic)
	if !found {
		return SchemaInfo{}, false, &model.UnknownTopicError{Topic: topic}
	}
	if info.SchemaID == 0 {
		return SchemaInfo{}, false, nil
	}
	schema, ok := idx.schemas[info.SchemaID]
	return schema, ok, nil
}

// Duration returns the span between the first and last message.
func (idx *Index) Duration() time.Duration {
	if idx.End <= idx.Start {
		return 0
	}
	return time.Duration(idx.End - idx.Start)
}

// StartTime returns the first message timestamp.
func (idx *Index) StartTime() time.Time { return time.Unix(0, int64(idx.Start)).UTC() }

// EndTime returns the last message timestamp.
func (idx *Index) EndTime() time.Time { return time.Unix(0, int64(idx.End)).UTC() }
