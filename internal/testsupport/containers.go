package testsupport

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/foxglove/mcap/go/mcap"
)

// TopicSpec describes one channel of a sample container.
type TopicSpec struct {
	Topic           string
	SchemaName      string // empty for a schemaless channel
	SchemaEncoding  string
	SchemaText      string
	MessageEncoding string
	Times           []uint64
}

// Layout describes a sample container.
type Layout struct {
	Profile        string
	Compression    mcap.CompressionFormat
	SkipStatistics bool
	Topics         []TopicSpec
}

// Payload returns the payload written for the message at ts on topic.
func Payload(topic string, ts uint64) []byte {
	return []byte(fmt.Sprintf("%s@%d", topic, ts))
}

// SpreadTimes returns n timestamps spread evenly over [start, end].
func SpreadTimes(n int, start, end uint64) []uint64 {
	out := make([]uint64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	for i := 0; i < n; i++ {
		out[i] = start + (end-start)*uint64(i)/uint64(n-1)
	}
	return out
}

// IMUCamera returns a container with /imu (500 messages) and /camera
// (10 messages), both spanning timestamps 0 to 1000.
func IMUCamera() Layout {
	return Layout{
		Profile:     "ros2",
		Compression: mcap.CompressionZSTD,
		Topics: []TopicSpec{
			{
				Topic:           "/imu",
				SchemaName:      "sensor_msgs/msg/Imu",
				SchemaEncoding:  "ros2msg",
				SchemaText:      "std_msgs/Header header\ngeometry_msgs/Quaternion orientation\n",
				MessageEncoding: "cdr",
				Times:           SpreadTimes(500, 0, 1000),
			},
			{
				Topic:           "/camera",
				SchemaName:      "sensor_msgs/msg/Image",
				SchemaEncoding:  "ros2msg",
				SchemaText:      "std_msgs/Header header\nuint32 height\nuint32 width\n",
				MessageEncoding: "cdr",
				Times:           SpreadTimes(10, 0, 1000),
			},
		},
	}
}

// SharedSchema returns a container where /left and /right share one schema
// and /diag carries no schema at all.
func SharedSchema() Layout {
	image := func(topic string, n int) TopicSpec {
		return TopicSpec{
			Topic:           topic,
			SchemaName:      "sensor_msgs/msg/Image",
			SchemaEncoding:  "ros2msg",
			SchemaText:      "uint32 height\nuint32 width\n",
			MessageEncoding: "cdr",
			Times:           SpreadTimes(n, 100, 200),
		}
	}
	return Layout{
		Profile:     "ros2",
		Compression: mcap.CompressionLZ4,
		Topics: []TopicSpec{
			image("/right", 4),
			image("/left", 6),
			{Topic: "/diag", MessageEncoding: "json", Times: SpreadTimes(3, 100, 200)},
		},
	}
}

type pending struct {
	channel uint16
	topic   string
	ts      uint64
}

// BuildContainer encodes layout into memory. Topics sharing a schema name share
// one schema record. Messages are interleaved in timestamp order.
func BuildContainer(t testing.TB, layout Layout) []byte {
	t.Helper()

	var buf bytes.Buffer
	w, err := mcap.NewWriter(&buf, &mcap.WriterOptions{
		Chunked:        true,
		ChunkSize:      1024,
		Compression:    layout.Compression,
		IncludeCRC:     true,
		SkipStatistics: layout.SkipStatistics,
	})
	if err != nil {
		t.Fatalf("create writer: %v", err)
	}
	if err := w.WriteHeader(&mcap.Header{Profile: layout.Profile, Library: "testsupport"}); err != nil {
		t.Fatalf("write header: %v", err)
	}

	schemaIDs := map[string]uint16{}
	var messages []pending
	for i, topic := range layout.Topics {
		var schemaID uint16
		if topic.SchemaName != "" {
			id, ok := schemaIDs[topic.SchemaName]
			if !ok {
				id = uint16(len(schemaIDs) + 1)
				schemaIDs[topic.SchemaName] = id
				if err := w.WriteSchema(&mcap.Schema{
					ID:       id,
					Name:     topic.SchemaName,
					Encoding: topic.SchemaEncoding,
					Data:     []byte(topic.SchemaText),
				}); err != nil {
					t.Fatalf("write schema: %v", err)
				}
			}
			schemaID = id
		}
		channelID := uint16(i + 1)
		if err := w.WriteChannel(&mcap.Channel{
			ID:              channelID,
			SchemaID:        schemaID,
			Topic:           topic.Topic,
			MessageEncoding: topic.MessageEncoding,
			Metadata:        map[string]string{},
		}); err != nil {
			t.Fatalf("write channel: %v", err)
		}
		for _, ts := range topic.Times {
			messages = append(messages, pending{channel: channelID, topic: topic.Topic, ts: ts})
		}
	}

	sort.SliceStable(messages, func(i, j int) bool { return messages[i].ts < messages[j].ts })
	for seq, msg := range messages {
		if err := w.WriteMessage(&mcap.Message{
			ChannelID:   msg.channel,
			Sequence:    uint32(seq),
			LogTime:     msg.ts,
			PublishTime: msg.ts,
			Data:        Payload(msg.topic, msg.ts),
		}); err != nil {
			t.Fatalf("write message: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return buf.Bytes()
}

// WriteContainer encodes layout into dir/name and returns the path.
func WriteContainer(t testing.TB, dir, name string, layout Layout) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, BuildContainer(t, layout), 0o644); err != nil {
		t.Fatalf("write container: %v", err)
	}
	return path
}

// Count returns the number of timestamps in times that fall in [start, end].
func Count(times []uint64, start, end uint64) int {
	n := 0
	for _, ts := range times {
		if ts >= start && ts <= end {
			n++
		}
	}
	return n
}
