package summary

import (
	"errors"
	"testing"

	"mcapedit/internal/mcapio"
	"mcapedit/internal/model"
	"mcapedit/internal/testsupport"
)

type fakeReader struct {
	header   model.Header
	stats    *model.Statistics
	err      error
	schemas  map[uint16]*model.Schema
	channels map[uint16]*model.Channel
}

func (f *fakeReader) Header() model.Header { return f.header }

func (f *fakeReader) ReadSummary(model.SummaryMethod) (*model.Statistics, error) {
	return f.stats, f.err
}

func (f *fakeReader) Schemas() map[uint16]*model.Schema   { return f.schemas }
func (f *fakeReader) Channels() map[uint16]*model.Channel { return f.channels }

func (f *fakeReader) ReadMessages(model.MessageFilter, func(model.MessageView) error) error {
	return nil
}

func TestBuildSummaryUnavailable(t *testing.T) {
	_, err := Build(&fakeReader{}, model.SummaryAuto)
	if !errors.Is(err, model.ErrSummaryUnavailable) {
		t.Fatalf("expected ErrSummaryUnavailable, got %v", err)
	}
}

func TestBuildSummaryReadError(t *testing.T) {
	_, err := Build(&fakeReader{err: errors.New("unexpected EOF")}, model.SummaryAuto)
	if !errors.Is(err, model.ErrSummaryRead) {
		t.Fatalf("expected ErrSummaryRead, got %v", err)
	}
	if got := err.Error(); got != "read container summary: unexpected EOF" {
		t.Fatalf("diagnostic not carried: %q", got)
	}
}

func TestBuildDanglingSchema(t *testing.T) {
	reader := &fakeReader{
		stats:   &model.Statistics{},
		schemas: map[uint16]*model.Schema{1: {ID: 1, Name: "a"}},
		channels: map[uint16]*model.Channel{
			1: {ID: 1, Topic: "/ok", SchemaID: 1},
			2: {ID: 2, Topic: "/bad", SchemaID: 7},
		},
	}
	_, err := Build(reader, model.SummaryAuto)
	if !errors.Is(err, model.ErrDanglingSchemaReference) {
		t.Fatalf("expected ErrDanglingSchemaReference, got %v", err)
	}
	var dangling *model.DanglingSchemaError
	if !errors.As(err, &dangling) || dangling.Topic != "/bad" || dangling.SchemaID != 7 {
		t.Fatalf("unexpected error detail: %#v", err)
	}
}

func TestBuildProjectsTopics(t *testing.T) {
	reader := &fakeReader{
		header: model.Header{Profile: "ros2", Library: "lib"},
		stats: &model.Statistics{
			MessageCount:         7,
			MessageStartTime:     10,
			MessageEndTime:       90,
			ChannelMessageCounts: map[uint16]uint64{3: 4, 5: 2, 6: 1},
		},
		schemas: map[uint16]*model.Schema{
			2: {ID: 2, Name: "pkg/B", Encoding: "ros2msg", Data: []byte("int8 b")},
			4: {ID: 4, Name: "pkg/Bin", Encoding: "protobuf", Data: []byte{0xff, 'x'}},
		},
		channels: map[uint16]*model.Channel{
			3: {ID: 3, Topic: "/zeta", SchemaID: 2, MessageEncoding: "cdr"},
			5: {ID: 5, Topic: "/alpha", SchemaID: 4, MessageEncoding: "protobuf"},
			6: {ID: 6, Topic: "/log", SchemaID: 0, MessageEncoding: "json"},
		},
	}

	idx, err := Build(reader, model.SummaryAuto)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if idx.Profile != "ros2" || idx.Start != 10 || idx.End != 90 || idx.MessageCount != 7 {
		t.Fatalf("unexpected index header: %+v", idx)
	}

	names := idx.TopicNames()
	want := []string{"/alpha", "/log", "/zeta"}
	if len(names) != len(want) {
		t.Fatalf("unexpected topics: %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("topics not sorted: %v", names)
		}
	}

	zeta, ok := idx.Lookup("/zeta")
	if !ok || zeta.SchemaID != 2 || zeta.MessageEncoding != "cdr" || zeta.MessageCount != 4 || zeta.SchemaName != "pkg/B" {
		t.Fatalf("unexpected /zeta entry: %+v", zeta)
	}

	_, hasSchema, err := idx.SchemaFor("/log")
	if err != nil || hasSchema {
		t.Fatalf("schemaless topic should resolve without schema: %v %v", hasSchema, err)
	}

	bin, ok := idx.Schema(4)
	if !ok || bin.Text != "\uFFFDx" || len(bin.Data) != 2 {
		t.Fatalf("unexpected binary schema projection: %+v", bin)
	}

	if _, _, err := idx.SchemaFor("/missing"); !errors.Is(err, model.ErrUnknownTopic) {
		t.Fatalf("expected ErrUnknownTopic, got %v", err)
	}
	if idx.Duration() != 80 {
		t.Fatalf("unexpected duration: %v", idx.Duration())
	}
}

func TestBuildMergesCompatibleDuplicateTopics(t *testing.T) {
	reader := &fakeReader{
		stats:   &model.Statistics{ChannelMessageCounts: map[uint16]uint64{1: 3, 2: 5}},
		schemas: map[uint16]*model.Schema{1: {ID: 1, Name: "a"}},
		channels: map[uint16]*model.Channel{
			1: {ID: 1, Topic: "/dup", SchemaID: 1, MessageEncoding: "cdr"},
			2: {ID: 2, Topic: "/dup", SchemaID: 1, MessageEncoding: "cdr"},
		},
	}
	idx, err := Build(reader, model.SummaryAuto)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	info, _ := idx.Lookup("/dup")
	if len(info.ChannelIDs) != 2 || info.MessageCount != 8 {
		t.Fatalf("duplicates not merged: %+v", info)
	}
	if idx.ChannelCount() != 2 || len(idx.Topics()) != 1 {
		t.Fatalf("unexpected counts: channels=%d topics=%d", idx.ChannelCount(), len(idx.Topics()))
	}
}

func TestBuildRejectsConflictingDuplicateTopics(t *testing.T) {
	reader := &fakeReader{
		stats:   &model.Statistics{},
		schemas: map[uint16]*model.Schema{1: {ID: 1, Name: "a"}, 2: {ID: 2, Name: "b"}},
		channels: map[uint16]*model.Channel{
			1: {ID: 1, Topic: "/dup", SchemaID: 1},
			2: {ID: 2, Topic: "/dup", SchemaID: 2},
		},
	}
	if _, err := Build(reader, model.SummaryAuto); !errors.Is(err, model.ErrDuplicateTopic) {
		t.Fatalf("expected ErrDuplicateTopic, got %v", err)
	}
}

func TestBuildFromContainer(t *testing.T) {
	r, err := mcapio.OpenBytes(testsupport.BuildContainer(t, testsupport.SharedSchema()))
	if err != nil {
		t.Fatalf("OpenBytes returned error: %v", err)
	}
	idx, err := Build(r, model.SummaryAuto)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	left, _ := idx.Lookup("/left")
	right, _ := idx.Lookup("/right")
	if left.SchemaID == 0 || left.SchemaID != right.SchemaID {
		t.Fatalf("expected /left and /right to share a schema: %d vs %d", left.SchemaID, right.SchemaID)
	}
	if idx.SchemaCount() != 1 {
		t.Fatalf("expected one schema, got %d", idx.SchemaCount())
	}
	schema, ok, err := idx.SchemaFor("/left")
	if err != nil || !ok || schema.Text != "uint32 height\nuint32 width\n" {
		t.Fatalf("unexpected schema text: %+v %v %v", schema, ok, err)
	}
	if left.MessageCount != 6 || right.MessageCount != 4 {
		t.Fatalf("unexpected counts: left=%d right=%d", left.MessageCount, right.MessageCount)
	}
}
