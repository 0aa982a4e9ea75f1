// Package export implements selective re-encoding: copying a chosen subset of
// topics, optionally narrowed to a time window, from an opened container into
// a new one.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"mcapedit/internal/logging"
	"mcapedit/internal/model"
	"mcapedit/internal/summary"
)

// DefaultCheckpointEvery is the number of messages between checkpoints when
// a Checkpoint callback is set without an interval.
const DefaultCheckpointEvery = 1000

// Options controls a single export.
type Options struct {
	Topics TopicSet
	// Window narrows the export. Nil means the container's full time range.
	Window *Window
	// CheckpointEvery is the number of written messages between Checkpoint calls.
	CheckpointEvery int
	// Checkpoint is called on the export's own goroutine. It is the place for a
	// host to yield to its event loop; it must not touch the reader or writer.
	Checkpoint func(Progress)
	Logger     *slog.Logger
}

// Progress is reported at checkpoints.
type Progress struct {
	Written     uint64
	LastLogTime uint64
}

// Stats describes a finished (or aborted) export.
type Stats struct {
	MessagesWritten uint64
	Window          Window
	SchemaIDs       map[uint16]uint16 // source schema id -> output schema id
	ChannelIDs      map[string]uint16 // topic -> output channel id
	PerTopic        map[string]uint64
}

// remapTable lives for one export. The first sighting of a source schema
// registers it; later topics sharing that schema reuse the output id.
type remapTable struct {
	schemas  map[uint16]uint16
	channels map[string]uint16
}

func newRemapTable() *remapTable {
	return &remapTable{
		schemas:  map[uint16]uint16{},
		channels: map[string]uint16{},
	}
}

// Run re-encodes the topics in opts.Topics from reader into writer. The
// writer is closed on every exit path, so on a write failure at message k the
// first k-1 messages are durable, and on cancellation the output is a
// well-formed container holding what was written so far. Removing unusable
// output is left to the caller.
func Run(ctx context.Context, idx *summary.Index, reader model.Reader, writer model.Writer, opts Options) (stats Stats, err error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	remap := newRemapTable()
	stats = Stats{
		SchemaIDs:  remap.schemas,
		ChannelIDs: remap.channels,
		PerTopic:   map[string]uint64{},
	}

	defer func() {
		if cerr := writer.Close(); cerr != nil && err == nil {
			err = &model.WriteError{Err: cerr}
		}
	}()

	window := Window{Start: idx.Start, End: idx.End}
	if opts.Window != nil {
		window = *opts.Window
	}
	if err := window.Validate(); err != nil {
		return stats, err
	}
	stats.Window = window

	topics := opts.Topics.Sorted()
	if len(topics) == 0 {
		logger.Warn("no topics selected; output will hold no channels")
	}
	logger.Info("export started",
		slog.Int("topics", len(topics)),
		slog.Uint64("window_start", window.Start),
		slog.Uint64("window_end", window.End),
	)

	if cerr := ctx.Err(); cerr != nil {
		return stats, fmt.Errorf("%w before start: %w", model.ErrCancelled, cerr)
	}
	if err := register(idx, writer, remap, topics); err != nil {
		return stats, err
	}

	// A cancelled context lets the next record through so the callback can
	// observe it even while long runs of messages are being filtered out.
	filter := func(ch *model.Channel, msg *model.Message) bool {
		if ctx.Err() != nil {
			return true
		}
		return opts.Topics.Contains(ch.Topic) && window.Contains(msg.LogTime)
	}

	every := uint64(opts.CheckpointEvery)
	if every == 0 {
		every = DefaultCheckpointEvery
	}

	err = reader.ReadMessages(filter, func(view model.MessageView) error {
		if cerr := ctx.Err(); cerr != nil {
			return fmt.Errorf("%w after %d messages: %w", model.ErrCancelled, stats.MessagesWritten, cerr)
		}

		out := *view.Message
		out.ChannelID = remap.channels[view.Channel.Topic]
		if werr := writer.WriteMessage(&out); werr != nil {
			return &model.WriteError{Index: stats.MessagesWritten + 1, Err: werr}
		}
		stats.MessagesWritten++
		stats.PerTopic[view.Channel.Topic]++

		if opts.Checkpoint != nil && stats.MessagesWritten%every == 0 {
			progress := Progress{Written: stats.MessagesWritten, LastLogTime: out.LogTime}
			logger.Debug("export checkpoint", slog.Uint64("written", progress.Written), slog.Uint64("log_time", progress.LastLogTime))
			opts.Checkpoint(progress)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, model.ErrWrite) && !errors.Is(err, model.ErrCancelled) {
			err = fmt.Errorf("%w: %w", model.ErrRead, err)
		}
		logger.Warn("export aborted",
			slog.Uint64("written", stats.MessagesWritten),
			slog.String("kind", string(model.Classify(err))),
			slog.String("error", err.Error()),
		)
		return stats, err
	}

	logger.Info("export finished",
		slog.Uint64("written", stats.MessagesWritten),
		slog.Int("schemas", len(remap.schemas)),
		slog.Int("channels", len(remap.channels)),
	)
	return stats, nil
}

// register adds schemas and channels for topics, in order, to writer.
func register(idx *summary.Index, writer model.Writer, remap *remapTable, topics []string) error {
	for _, topic := range topics {
		info, ok := idx.Lookup(topic)
		if !ok {
			return &model.UnknownTopicError{Topic: topic}
		}

		var schemaID uint16
		if info.SchemaID != 0 {
			id, seen := remap.schemas[info.SchemaID]
			if !seen {
				schema, ok := idx.Schema(info.SchemaID)
				if !ok {
					return &model.DanglingSchemaError{ChannelID: info.ChannelIDs[0], Topic: topic, SchemaID: info.SchemaID}
				}
				var err error
				id, err = writer.AddSchema(&model.Schema{
					Name:     schema.Name,
					Encoding: schema.Encoding,
					Data:     schema.Data,
				})
				if err != nil {
					return &model.WriteError{Err: err}
				}
				remap.schemas[info.SchemaID] = id
			}
			schemaID = id
		}

		channelID, err := writer.AddChannel(&model.Channel{
			SchemaID:        schemaID,
			Topic:           topic,
			MessageEncoding: info.MessageEncoding,
			Metadata:        info.Metadata,
		})
		if err != nil {
			return &model.WriteError{Err: err}
		}
		remap.channels[topic] = channelID
	}
	return nil
}
