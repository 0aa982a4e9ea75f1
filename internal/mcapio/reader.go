// Package mcapio adapts the MCAP container library to the model.Reader and
// model.Writer contracts. Sources and destinations may be files or in-memory
// byte buffers.
package mcapio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"mcapedit/internal/model"

	"github.com/foxglove/mcap/go/mcap"
)

const initialRecordBuffer = 4096

// Reader implements model.Reader over an MCAP container.
type Reader struct {
	src      io.ReadSeeker
	closer   io.Closer
	size     int64
	header   model.Header
	schemas  map[uint16]*model.Schema
	channels map[uint16]*model.Channel
	indexErr error
}

// OpenFile opens the container stored at path.
func OpenFile(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrOpen, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close() //nolint:errcheck
		return nil, fmt.Errorf("%w: stat %s: %w", model.ErrOpen, path, err)
	}
	if info.IsDir() {
		file.Close() //nolint:errcheck
		return nil, fmt.Errorf("%w: %s is a directory", model.ErrOpen, path)
	}

	r, err := open(file, info.Size())
	if err != nil {
		file.Close() //nolint:errcheck
		return nil, err
	}
	r.closer = file
	return r, nil
}

// OpenBytes opens a container held entirely in memory.
func OpenBytes(data []byte) (*Reader, error) {
	return open(bytes.NewReader(data), int64(len(data)))
}

func open(src io.ReadSeeker, size int64) (*Reader, error) {
	lexer, err := mcap.NewLexer(src, &mcap.LexerOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrOpen, err)
	}
	tokenType, record, err := lexer.Next(make([]byte, initialRecordBuffer))
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %w", model.ErrOpen, err)
	}
	if tokenType != mcap.TokenHeader {
		return nil, fmt.Errorf("%w: first record is %v, expected header", model.ErrOpen, tokenType)
	}
	header, err := mcap.ParseHeader(record)
	if err != nil {
		return nil, fmt.Errorf("%w: parse header: %w", model.ErrOpen, err)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: rewind: %w", model.ErrOpen, err)
	}

	return &Reader{
		src:      src,
		size:     size,
		header:   model.Header{Profile: header.Profile, Library: header.Library},
		schemas:  map[uint16]*model.Schema{},
		channels: map[uint16]*model.Channel{},
	}, nil
}

// Header returns the header record read at open time.
func (r *Reader) Header() model.Header { return r.header }

// Size returns the container size in bytes.
func (r *Reader) Size() int64 { return r.size }

// Schemas returns the schemas loaded by the last ReadSummary call.
func (r *Reader) Schemas() map[uint16]*model.Schema { return r.schemas }

// Channels returns the channels loaded by the last ReadSummary call.
func (r *Reader) Channels() map[uint16]*model.Channel { return r.channels }

// Close releases the underlying file, if any.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

// ReadSummary loads schemas, channels and statistics using method.
func (r *Reader) ReadSummary(method model.SummaryMethod) (*model.Statistics, error) {
	switch method {
	case model.SummaryScan:
		return r.scan()
	case model.SummaryIndex:
		return r.readIndex()
	default:
		stats, err := r.readIndex()
		r.indexErr = err
		if err == nil && stats != nil {
			return stats, nil
		}
		stats, scanErr := r.scan()
		if scanErr != nil && err != nil {
			return nil, fmt.Errorf("%w (summary section also unusable: %w)", scanErr, err)
		}
		return stats, scanErr
	}
}

// IndexErr returns the error that made the last auto ReadSummary fall back to
// a scan. It is nil when the summary section was used or was merely absent.
func (r *Reader) IndexErr() error { return r.indexErr }

// readIndex loads the summary section. Statistics are nil when the
// container carries a summary without a statistics record.
func (r *Reader) readIndex() (*model.Statistics, error) {
	if _, err := r.src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind: %w", err)
	}
	reader, err := mcap.NewReader(r.src)
	if err != nil {
		return nil, fmt.Errorf("create reader: %w", err)
	}
	info, err := reader.Info()
	if err != nil {
		return nil, fmt.Errorf("read summary section: %w", err)
	}

	schemas := make(map[uint16]*model.Schema, len(info.Schemas))
	for id, schema := range info.Schemas {
		schemas[id] = fromSchema(schema)
	}
	channels := make(map[uint16]*model.Channel, len(info.Channels))
	for id, channel := range info.Channels {
		channels[id] = fromChannel(channel)
	}
	r.schemas = schemas
	r.channels = channels

	if info.Statistics == nil {
		return nil, nil
	}
	return fromStatistics(info.Statistics), nil
}

// scan walks every record in the container and rebuilds schemas, channels
// and statistics from the data section.
func (r *Reader) scan() (*model.Statistics, error) {
	schemas := map[uint16]*model.Schema{}
	channels := map[uint16]*model.Channel{}
	stats := &model.Statistics{ChannelMessageCounts: map[uint16]uint64{}}

	err := r.walk(func(tokenType mcap.TokenType, record []byte) error {
		switch tokenType {
		case mcap.TokenSchema:
			schema, err := parseSchema(record)
			if err != nil {
				return err
			}
			schemas[schema.ID] = schema
		case mcap.TokenChannel:
			channel, err := mcap.ParseChannel(record)
			if err != nil {
				return fmt.Errorf("parse channel: %w", err)
			}
			channels[channel.ID] = fromChannel(channel)
		case mcap.TokenMessage:
			msg, err := mcap.ParseMessage(record)
			if err != nil {
				return fmt.Errorf("parse message: %w", err)
			}
			if stats.MessageCount == 0 || msg.LogTime < stats.MessageStartTime {
				stats.MessageStartTime = msg.LogTime
			}
			if msg.LogTime > stats.MessageEndTime {
				stats.MessageEndTime = msg.LogTime
			}
			stats.MessageCount++
			stats.ChannelMessageCounts[msg.ChannelID]++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	stats.SchemaCount = uint16(len(schemas))
	stats.ChannelCount = uint32(len(channels))
	r.schemas = schemas
	r.channels = channels
	return stats, nil
}

// ReadMessages streams message records in file order.
func (r *Reader) ReadMessages(filter model.MessageFilter, fn func(model.MessageView) error) error {
	schemas := make(map[uint16]*model.Schema, len(r.schemas))
	for id, schema := range r.schemas {
		schemas[id] = schema
	}
	channels := make(map[uint16]*model.Channel, len(r.channels))
	for id, channel := range r.channels {
		channels[id] = channel
	}

	return r.walk(func(tokenType mcap.TokenType, record []byte) error {
		switch tokenType {
		case mcap.TokenSchema:
			schema, err := parseSchema(record)
			if err != nil {
				return err
			}
			if _, ok := schemas[schema.ID]; !ok {
				schemas[schema.ID] = schema
			}
		case mcap.TokenChannel:
			channel, err := mcap.ParseChannel(record)
			if err != nil {
				return fmt.Errorf("parse channel: %w", err)
			}
			if _, ok := channels[channel.ID]; !ok {
				channels[channel.ID] = fromChannel(channel)
			}
		case mcap.TokenMessage:
			parsed, err := mcap.ParseMessage(record)
			if err != nil {
				return fmt.Errorf("parse message: %w", err)
			}
			channel, ok := channels[parsed.ChannelID]
			if !ok {
				return fmt.Errorf("message on undeclared channel %d", parsed.ChannelID)
			}
			msg := fromMessage(parsed)
			if filter != nil && !filter(channel, msg) {
				return nil
			}
			return fn(model.MessageView{
				Message: msg,
				Channel: channel,
				Schema:  schemas[channel.SchemaID],
			})
		}
		return nil
	})
}

// walk lexes the container from the start, calling fn for every record.
// Chunk records are decompressed by the lexer and their contents delivered
// individually.
func (r *Reader) walk(fn func(mcap.TokenType, []byte) error) error {
	if _, err := r.src.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind: %w", err)
	}
	lexer, err := mcap.NewLexer(r.src, &mcap.LexerOptions{})
	if err != nil {
		return fmt.Errorf("create lexer: %w", err)
	}

	buf := make([]byte, initialRecordBuffer)
	for {
		tokenType, record, err := lexer.Next(buf)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read record: %w", err)
		}
		if cap(record) > cap(buf) {
			buf = record
		}
		if err := fn(tokenType, record); err != nil {
			return err
		}
	}
}

// parseSchema copies the definition out of the lexer's reusable buffer.
func parseSchema(record []byte) (*model.Schema, error) {
	schema, err := mcap.ParseSchema(record)
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	out := fromSchema(schema)
	out.Data = bytes.Clone(schema.Data)
	return out, nil
}
