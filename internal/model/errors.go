package model

import (
	"errors"
	"fmt"
)

var (
	// ErrOpen is returned when a source container is unreadable or corrupt.
	ErrOpen = errors.New("open container")
	// ErrSummaryUnavailable is returned when a container exposes no statistics block.
	ErrSummaryUnavailable = errors.New("container statistics unavailable")
	// ErrSummaryRead is returned when the summary scan itself fails.
	ErrSummaryRead = errors.New("read container summary")
	// ErrDanglingSchemaReference is returned when a channel references a schema
	// id that the container does not define.
	ErrDanglingSchemaReference = errors.New("channel references unknown schema")
	// ErrDuplicateTopic is returned when two channels share a topic but
	// disagree on schema or message encoding.
	ErrDuplicateTopic = errors.New("conflicting channels share a topic")
	// ErrUnknownTopic is returned when a selection names a topic absent from the index.
	ErrUnknownTopic = errors.New("unknown topic")
	// ErrRead is returned when the source fails while messages are streamed.
	ErrRead = errors.New("read container")
	// ErrWrite is returned when the destination rejects a record.
	ErrWrite = errors.New("write container")
	// ErrCancelled is returned when an export is cancelled by the caller.
	ErrCancelled = errors.New("export cancelled")
)

// DanglingSchemaError reports the channel whose schema reference could not be resolved.
type DanglingSchemaError struct {
	ChannelID uint16
	Topic     string
	SchemaID  uint16
}

func (e *DanglingSchemaError) Error() string {
	return fmt.Sprintf("%v: channel %d (%s) references schema %d", ErrDanglingSchemaReference, e.ChannelID, e.Topic, e.SchemaID)
}

// Is reports whether target is ErrDanglingSchemaReference.
func (e *DanglingSchemaError) Is(target error) bool { return target == ErrDanglingSchemaReference }

// UnknownTopicError names the selected topic missing from the index.
type UnknownTopicError struct {
	Topic string
}

func (e *UnknownTopicError) Error() string {
	return fmt.Sprintf("%v: %s", ErrUnknownTopic, e.Topic)
}

// Is reports whether target is ErrUnknownTopic.
func (e *UnknownTopicError) Is(target error) bool { return target == ErrUnknownTopic }

// WriteError wraps a destination failure. Index is the 1-based position of
// the record that failed among the records submitted by an export; it is 0
// when the failure happened while registering schemas or channels.
type WriteError struct {
	Index uint64
	Err   error
}

func (e *WriteError) Error() string {
	if e.Index == 0 {
		return fmt.Sprintf("%v: %v", ErrWrite, e.Err)
	}
	return fmt.Sprintf("%v: message %d: %v", ErrWrite, e.Index, e.Err)
}

// Is reports whether target is ErrWrite.
func (e *WriteError) Is(target error) bool { return target == ErrWrite }

// Unwrap returns the underlying destination error.
func (e *WriteError) Unwrap() error { return e.Err }

// Kind classifies an error for the caller.
type Kind string

const (
	KindNone               Kind = ""
	KindOpen               Kind = "open"
	KindSummaryUnavailable Kind = "summary_unavailable"
	KindSummaryRead        Kind = "summary_read"
	KindDanglingSchema     Kind = "dangling_schema"
	KindDuplicateTopic     Kind = "duplicate_topic"
	KindUnknownTopic       Kind = "unknown_topic"
	KindRead               Kind = "read"
	KindWrite              Kind = "write"
	KindCancelled          Kind = "cancelled"
	KindOther              Kind = "other"
)

// Classify maps err onto the error taxonomy.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrCancelled):
		return KindCancelled
	case errors.Is(err, ErrWrite):
		return KindWrite
	case errors.Is(err, ErrRead):
		return KindRead
	case errors.Is(err, ErrUnknownTopic):
		return KindUnknownTopic
	case errors.Is(err, ErrDanglingSchemaReference):
		return KindDanglingSchema
	case errors.Is(err, ErrDuplicateTopic):
		return KindDuplicateTopic
	case errors.Is(err, ErrSummaryUnavailable):
		return KindSummaryUnavailable
	case errors.Is(err, ErrSummaryRead):
		return KindSummaryRead
	case errors.Is(err, ErrOpen):
		return KindOpen
	default:
		return KindOther
	}
}

// Fatal reports whether the caller should stop rather than warn and continue.
// An unknown topic can be dropped from the selection and the export retried;
// a cancellation was requested by the caller itself.
func (k Kind) Fatal() bool {
	switch k {
	case KindNone, KindUnknownTopic, KindCancelled:
		return false
	default:
		return true
	}
}
