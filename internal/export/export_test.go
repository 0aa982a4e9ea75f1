package export

import (
	"context"
	"errors"
	"testing"

	"mcapedit/internal/model"
	"mcapedit/internal/summary"
)

// memReader serves a fixed message list.
type memReader struct {
	schemas  map[uint16]*model.Schema
	channels map[uint16]*model.Channel
	messages []model.Message
	failAt   int // 1-based message position that fails to read; 0 disables
}

func newMemReader() *memReader {
	r := &memReader{
		schemas: map[uint16]*model.Schema{
			7: {ID: 7, Name: "pkg/Point", Encoding: "ros1msg", Data: []byte("float64 x")},
		},
		channels: map[uint16]*model.Channel{
			3: {ID: 3, SchemaID: 7, Topic: "/b", MessageEncoding: "ros1"},
			4: {ID: 4, SchemaID: 7, Topic: "/a", MessageEncoding: "ros1"},
		},
	}
	for ts := uint64(1); ts <= 10; ts++ {
		r.messages = append(r.messages,
			model.Message{ChannelID: 3, LogTime: ts, Data: []byte{'b', byte(ts)}},
			model.Message{ChannelID: 4, LogTime: ts, Data: []byte{'a', byte(ts)}},
		)
	}
	return r
}

func (r *memReader) Header() model.Header { return model.Header{Profile: "ros1"} }

func (r *memReader) ReadSummary(model.SummaryMethod) (*model.Statistics, error) {
	counts := map[uint16]uint64{}
	for _, msg := range r.messages {
		counts[msg.ChannelID]++
	}
	return &model.Statistics{
		MessageCount:         uint64(len(r.messages)),
		MessageStartTime:     r.messages[0].LogTime,
		MessageEndTime:       r.messages[len(r.messages)-1].LogTime,
		ChannelMessageCounts: counts,
	}, nil
}

func (r *memReader) Schemas() map[uint16]*model.Schema   { return r.schemas }
func (r *memReader) Channels() map[uint16]*model.Channel { return r.channels }

func (r *memReader) ReadMessages(filter model.MessageFilter, fn func(model.MessageView) error) error {
	for i := range r.messages {
		if r.failAt == i+1 {
			return errors.New("unexpected EOF")
		}
		msg := r.messages[i]
		ch := r.channels[msg.ChannelID]
		if filter != nil && !filter(ch, &msg) {
			continue
		}
		if err := fn(model.MessageView{Message: &msg, Channel: ch, Schema: r.schemas[ch.SchemaID]}); err != nil {
			return err
		}
	}
	return nil
}

// recordingWriter keeps everything in memory and can fail on demand.
type recordingWriter struct {
	schemas      []model.Schema
	channels     []model.Channel
	messages     []model.Message
	failAt       int // 1-based message position that fails; 0 disables
	failChannels bool
	closed       int
}

func (w *recordingWriter) AddSchema(s *model.Schema) (uint16, error) {
	w.schemas = append(w.schemas, *s)
	return uint16(100 + len(w.schemas)), nil
}

func (w *recordingWriter) AddChannel(c *model.Channel) (uint16, error) {
	if w.failChannels {
		return 0, errors.New("disk full")
	}
	w.channels = append(w.channels, *c)
	return uint16(200 + len(w.channels)), nil
}

func (w *recordingWriter) WriteMessage(m *model.Message) error {
	if w.failAt == len(w.messages)+1 {
		return errors.New("disk full")
	}
	w.messages = append(w.messages, *m)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed++
	return nil
}

func buildIndex(t *testing.T, r model.Reader) *summary.Index {
	t.Helper()
	idx, err := summary.Build(r, model.SummaryAuto)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	return idx
}

func TestRunRemapsIdentifiers(t *testing.T) {
	r := newMemReader()
	w := &recordingWriter{}

	stats, err := Run(context.Background(), buildIndex(t, r), r, w, Options{Topics: NewTopicSet("/a", "/b")})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(w.schemas) != 1 {
		t.Fatalf("shared schema registered %d times", len(w.schemas))
	}
	if len(w.channels) != 2 || w.channels[0].Topic != "/a" || w.channels[1].Topic != "/b" {
		t.Fatalf("channels not registered in topic order: %+v", w.channels)
	}
	for _, ch := range w.channels {
		if ch.SchemaID != 101 {
			t.Fatalf("channel %s references schema %d, expected remapped 101", ch.Topic, ch.SchemaID)
		}
	}
	if stats.SchemaIDs[7] != 101 || stats.ChannelIDs["/a"] != 201 || stats.ChannelIDs["/b"] != 202 {
		t.Fatalf("unexpected remap table: %+v %+v", stats.SchemaIDs, stats.ChannelIDs)
	}
	for i, msg := range w.messages {
		src := r.messages[i]
		want := stats.ChannelIDs[r.channels[src.ChannelID].Topic]
		if msg.ChannelID != want || msg.LogTime != src.LogTime || string(msg.Data) != string(src.Data) {
			t.Fatalf("message %d not passed through: got %+v from %+v", i, msg, src)
		}
	}
	if stats.MessagesWritten != 20 || stats.PerTopic["/a"] != 10 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if w.closed != 1 {
		t.Fatalf("writer closed %d times", w.closed)
	}
}

func TestRunPartialWriteFailure(t *testing.T) {
	r := newMemReader()
	w := &recordingWriter{failAt: 5}

	stats, err := Run(context.Background(), buildIndex(t, r), r, w, Options{Topics: NewTopicSet("/a", "/b")})
	if !errors.Is(err, model.ErrWrite) {
		t.Fatalf("expected ErrWrite, got %v", err)
	}
	var werr *model.WriteError
	if !errors.As(err, &werr) || werr.Index != 5 {
		t.Fatalf("expected failure at message 5, got %#v", err)
	}
	if len(w.messages) != 4 || stats.MessagesWritten != 4 {
		t.Fatalf("expected messages 1..4 written, got %d (stats %d)", len(w.messages), stats.MessagesWritten)
	}
	if w.closed != 1 {
		t.Fatalf("writer should be closed after a failure, closed %d times", w.closed)
	}
}

func TestRunRegistrationFailure(t *testing.T) {
	r := newMemReader()
	w := &recordingWriter{failChannels: true}

	_, err := Run(context.Background(), buildIndex(t, r), r, w, Options{Topics: NewTopicSet("/a")})
	var werr *model.WriteError
	if !errors.As(err, &werr) || werr.Index != 0 {
		t.Fatalf("expected registration WriteError, got %v", err)
	}
	if len(w.messages) != 0 || w.closed != 1 {
		t.Fatalf("no messages should be written and writer closed: %d %d", len(w.messages), w.closed)
	}
}

func TestRunReadFailure(t *testing.T) {
	r := newMemReader()
	r.failAt = 3
	w := &recordingWriter{}

	_, err := Run(context.Background(), buildIndex(t, r), r, w, Options{Topics: NewTopicSet("/a", "/b")})
	if !errors.Is(err, model.ErrRead) {
		t.Fatalf("expected ErrRead, got %v", err)
	}
	if model.Classify(err) != model.KindRead {
		t.Fatalf("unexpected classification: %s", model.Classify(err))
	}
}

func TestRunUnknownTopic(t *testing.T) {
	r := newMemReader()
	w := &recordingWriter{}

	_, err := Run(context.Background(), buildIndex(t, r), r, w, Options{Topics: NewTopicSet("/a", "/ghost")})
	if !errors.Is(err, model.ErrUnknownTopic) {
		t.Fatalf("expected ErrUnknownTopic, got %v", err)
	}
	if len(w.messages) != 0 {
		t.Fatalf("no messages should be written, got %d", len(w.messages))
	}
	if w.closed != 1 {
		t.Fatalf("writer should be closed, closed %d times", w.closed)
	}
}

func TestRunCancellation(t *testing.T) {
	r := newMemReader()
	w := &recordingWriter{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var checkpoints []Progress
	stats, err := Run(ctx, buildIndex(t, r), r, w, Options{
		Topics:          NewTopicSet("/a", "/b"),
		CheckpointEvery: 3,
		Checkpoint: func(p Progress) {
			checkpoints = append(checkpoints, p)
			if p.Written == 6 {
				cancel()
			}
		},
	})
	if !errors.Is(err, model.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if len(w.messages) != 6 || stats.MessagesWritten != 6 {
		t.Fatalf("expected 6 messages before cancellation, got %d", len(w.messages))
	}
	if len(checkpoints) != 2 || checkpoints[0].Written != 3 {
		t.Fatalf("unexpected checkpoints: %+v", checkpoints)
	}
	if w.closed != 1 {
		t.Fatalf("cancelled export should close the writer")
	}
	if model.Classify(err).Fatal() {
		t.Fatal("cancellation should not be classified as fatal")
	}
}

func TestRunCancelledBeforeStart(t *testing.T) {
	r := newMemReader()
	w := &recordingWriter{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, buildIndex(t, r), r, w, Options{Topics: NewTopicSet("/a")})
	if !errors.Is(err, model.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if len(w.channels) != 0 || w.closed != 1 {
		t.Fatalf("nothing should be registered: %d channels, closed %d", len(w.channels), w.closed)
	}
}

func TestRunTimeWindow(t *testing.T) {
	r := newMemReader()
	w := &recordingWriter{}

	stats, err := Run(context.Background(), buildIndex(t, r), r, w, Options{
		Topics: NewTopicSet("/b"),
		Window: &Window{Start: 4, End: 6},
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if stats.MessagesWritten != 3 {
		t.Fatalf("expected 3 messages in [4, 6], got %d", stats.MessagesWritten)
	}
	for _, msg := range w.messages {
		if msg.LogTime < 4 || msg.LogTime > 6 || msg.Data[0] != 'b' {
			t.Fatalf("unexpected message: %+v", msg)
		}
	}
}

func TestRunRejectsInvertedWindow(t *testing.T) {
	r := newMemReader()
	w := &recordingWriter{}

	_, err := Run(context.Background(), buildIndex(t, r), r, w, Options{
		Topics: NewTopicSet("/b"),
		Window: &Window{Start: 9, End: 2},
	})
	if !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
}
