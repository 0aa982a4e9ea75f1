package mcapio

import (
	"bytes"
	"path/filepath"
	"testing"

	"mcapedit/internal/model"
)

func TestBufferWriterRoundTrip(t *testing.T) {
	for _, compression := range []model.Compression{model.CompressionNone, model.CompressionLZ4, model.CompressionZstd} {
		t.Run(string(compression), func(t *testing.T) {
			w, err := NewBufferWriter(WriterOptions{Profile: "ros1", Library: "test", Compression: compression})
			if err != nil {
				t.Fatalf("NewBufferWriter returned error: %v", err)
			}

			schemaID, err := w.AddSchema(&model.Schema{Name: "pkg/Msg", Encoding: "ros1msg", Data: []byte("int32 x")})
			if err != nil {
				t.Fatalf("AddSchema returned error: %v", err)
			}
			if schemaID != 1 {
				t.Fatalf("expected first schema id 1, got %d", schemaID)
			}
			channelID, err := w.AddChannel(&model.Channel{Topic: "/x", MessageEncoding: "ros1", SchemaID: schemaID})
			if err != nil {
				t.Fatalf("AddChannel returned error: %v", err)
			}
			if channelID != 0 {
				t.Fatalf("expected first channel id 0, got %d", channelID)
			}
			for ts := uint64(10); ts <= 30; ts += 10 {
				if err := w.WriteMessage(&model.Message{ChannelID: channelID, LogTime: ts, PublishTime: ts, Data: []byte{byte(ts)}}); err != nil {
					t.Fatalf("WriteMessage returned error: %v", err)
				}
			}
			if err := w.Close(); err != nil {
				t.Fatalf("Close returned error: %v", err)
			}
			if err := w.Close(); err != nil {
				t.Fatalf("second Close should be a no-op: %v", err)
			}

			r, err := OpenBytes(w.Bytes())
			if err != nil {
				t.Fatalf("OpenBytes returned error: %v", err)
			}
			if r.Header().Profile != "ros1" {
				t.Fatalf("profile not carried: %q", r.Header().Profile)
			}
			stats, err := r.ReadSummary(model.SummaryIndex)
			if err != nil {
				t.Fatalf("ReadSummary returned error: %v", err)
			}
			if stats == nil || stats.MessageCount != 3 {
				t.Fatalf("unexpected statistics: %+v", stats)
			}
			if stats.MessageStartTime != 10 || stats.MessageEndTime != 30 {
				t.Fatalf("unexpected bounds: [%d, %d]", stats.MessageStartTime, stats.MessageEndTime)
			}
			var payloads [][]byte
			if err := r.ReadMessages(nil, func(view model.MessageView) error {
				payloads = append(payloads, bytes.Clone(view.Message.Data))
				return nil
			}); err != nil {
				t.Fatalf("ReadMessages returned error: %v", err)
			}
			if len(payloads) != 3 || payloads[0][0] != 10 || payloads[2][0] != 30 {
				t.Fatalf("unexpected payloads: %v", payloads)
			}
		})
	}
}

func TestCreateFileWritesContainer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.mcap")
	w, err := CreateFile(path, WriterOptions{Compression: model.CompressionZstd})
	if err != nil {
		t.Fatalf("CreateFile returned error: %v", err)
	}
	if w.Bytes() != nil {
		t.Fatal("file writers should not expose a buffer")
	}
	if _, err := w.AddChannel(&model.Channel{Topic: "/schemaless", MessageEncoding: "json"}); err != nil {
		t.Fatalf("AddChannel returned error: %v", err)
	}
	if err := w.WriteMessage(&model.Message{LogTime: 5, Data: []byte("{}")}); err != nil {
		t.Fatalf("WriteMessage returned error: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if _, err := w.AddSchema(&model.Schema{Name: "late"}); err == nil {
		t.Fatal("expected AddSchema after Close to fail")
	}

	r, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile returned error: %v", err)
	}
	defer r.Close() //nolint:errcheck
	stats, err := r.ReadSummary(model.SummaryAuto)
	if err != nil {
		t.Fatalf("ReadSummary returned error: %v", err)
	}
	if stats.MessageCount != 1 {
		t.Fatalf("expected 1 message, got %d", stats.MessageCount)
	}
	for _, ch := range r.Channels() {
		if ch.SchemaID != 0 {
			t.Fatalf("expected schemaless channel, got schema %d", ch.SchemaID)
		}
	}
}
