package model

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err   error
		want  Kind
		fatal bool
	}{
		{err: nil, want: KindNone},
		{err: fmt.Errorf("%w: bad magic", ErrOpen), want: KindOpen, fatal: true},
		{err: ErrSummaryUnavailable, want: KindSummaryUnavailable, fatal: true},
		{err: fmt.Errorf("%w: %w", ErrSummaryRead, io.ErrUnexpectedEOF), want: KindSummaryRead, fatal: true},
		{err: &DanglingSchemaError{ChannelID: 1, Topic: "/a", SchemaID: 9}, want: KindDanglingSchema, fatal: true},
		{err: fmt.Errorf("%w: /a", ErrDuplicateTopic), want: KindDuplicateTopic, fatal: true},
		{err: &UnknownTopicError{Topic: "/ghost"}, want: KindUnknownTopic},
		{err: fmt.Errorf("%w: %w", ErrRead, io.ErrUnexpectedEOF), want: KindRead, fatal: true},
		{err: &WriteError{Index: 3, Err: io.ErrShortWrite}, want: KindWrite, fatal: true},
		{err: fmt.Errorf("%w after 2 messages: %w", ErrCancelled, errors.New("context canceled")), want: KindCancelled},
		{err: errors.New("boom"), want: KindOther, fatal: true},
	}

	for _, tt := range tests {
		got := Classify(tt.err)
		if got != tt.want {
			t.Fatalf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
		}
		if got.Fatal() != tt.fatal {
			t.Fatalf("%q.Fatal() = %v, want %v", got, got.Fatal(), tt.fatal)
		}
	}
}

func TestWriteError(t *testing.T) {
	err := fmt.Errorf("export: %w", &WriteError{Index: 7, Err: io.ErrShortWrite})

	if !errors.Is(err, ErrWrite) || !errors.Is(err, io.ErrShortWrite) {
		t.Fatalf("WriteError should match ErrWrite and its cause: %v", err)
	}
	var werr *WriteError
	if !errors.As(err, &werr) || werr.Index != 7 {
		t.Fatalf("expected index 7, got %#v", werr)
	}
	if got, want := werr.Error(), "write container: message 7: short write"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if got, want := (&WriteError{Err: io.ErrShortWrite}).Error(), "write container: short write"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestDanglingSchemaErrorMessage(t *testing.T) {
	err := &DanglingSchemaError{ChannelID: 2, Topic: "/imu", SchemaID: 5}
	if got, want := err.Error(), "channel references unknown schema: channel 2 (/imu) references schema 5"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}
