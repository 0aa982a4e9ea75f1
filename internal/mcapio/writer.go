package mcapio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"mcapedit/internal/model"

	"github.com/foxglove/mcap/go/mcap"
)

// DefaultChunkSize is the uncompressed chunk size used when none is configured.
const DefaultChunkSize = 4 * 1024 * 1024

var errIDsExhausted = errors.New("identifier space exhausted")

// WriterOptions configures a new container.
type WriterOptions struct {
	Profile     string
	Library     string
	Compression model.Compression
	ChunkSize   int64
}

// Writer implements model.Writer and allocates writer-scoped identifiers.
type Writer struct {
	w        *mcap.Writer
	closer   io.Closer
	buf      *bytes.Buffer
	schemas  int
	channels int
	closed   bool
}

// NewWriter writes the header to dst and returns a Writer ready for records.
func NewWriter(dst io.Writer, opts WriterOptions) (*Writer, error) {
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	w, err := mcap.NewWriter(dst, &mcap.WriterOptions{
		Chunked:     true,
		ChunkSize:   chunkSize,
		Compression: toCompression(opts.Compression),
		IncludeCRC:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("create writer: %w", err)
	}
	if err := w.WriteHeader(&mcap.Header{Profile: opts.Profile, Library: opts.Library}); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	return &Writer{w: w}, nil
}

// CreateFile creates (or truncates) path and writes a container into it.
func CreateFile(path string, opts WriterOptions) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	w, err := NewWriter(file, opts)
	if err != nil {
		file.Close() //nolint:errcheck
		return nil, err
	}
	w.closer = file
	return w, nil
}

// NewBufferWriter writes a container into memory. The encoded bytes are
// available from Bytes once Close has returned.
func NewBufferWriter(opts WriterOptions) (*Writer, error) {
	buf := &bytes.Buffer{}
	w, err := NewWriter(buf, opts)
	if err != nil {
		return nil, err
	}
	w.buf = buf
	return w, nil
}

// Bytes returns the encoded container for buffer writers and nil otherwise.
func (w *Writer) Bytes() []byte {
	if w.buf == nil {
		return nil
	}
	return w.buf.Bytes()
}

// AddSchema registers schema under the next free id. Ids start at 1 since 0
// is reserved for schemaless channels.
func (w *Writer) AddSchema(schema *model.Schema) (uint16, error) {
	if w.closed {
		return 0, errors.New("writer closed")
	}
	if w.schemas >= math.MaxUint16 {
		return 0, fmt.Errorf("add schema %s: %w", schema.Name, errIDsExhausted)
	}
	id := uint16(w.schemas + 1)
	err := w.w.WriteSchema(&mcap.Schema{
		ID:       id,
		Name:     schema.Name,
		Encoding: schema.Encoding,
		Data:     schema.Data,
	})
	if err != nil {
		return 0, fmt.Errorf("add schema %s: %w", schema.Name, err)
	}
	w.schemas++
	return id, nil
}

// AddChannel registers channel under the next free id, starting at 0.
func (w *Writer) AddChannel(channel *model.Channel) (uint16, error) {
	if w.closed {
		return 0, errors.New("writer closed")
	}
	if w.channels > math.MaxUint16 {
		return 0, fmt.Errorf("add channel %s: %w", channel.Topic, errIDsExhausted)
	}
	id := uint16(w.channels)
	err := w.w.WriteChannel(&mcap.Channel{
		ID:              id,
		SchemaID:        channel.SchemaID,
		Topic:           channel.Topic,
		MessageEncoding: channel.MessageEncoding,
		Metadata:        channel.Metadata,
	})
	if err != nil {
		return 0, fmt.Errorf("add channel %s: %w", channel.Topic, err)
	}
	w.channels++
	return id, nil
}

// WriteMessage appends msg to the current chunk.
func (w *Writer) WriteMessage(msg *model.Message) error {
	if w.closed {
		return errors.New("writer closed")
	}
	return w.w.WriteMessage(&mcap.Message{
		ChannelID:   msg.ChannelID,
		Sequence:    msg.Sequence,
		LogTime:     msg.LogTime,
		PublishTime: msg.PublishTime,
		Data:        msg.Data,
	})
}

// Close flushes the final chunk, writes the summary section and footer, and
// closes the destination file. Calling Close more than once is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	err := w.w.Close()
	if err != nil {
		err = fmt.Errorf("finish container: %w", err)
	}
	if w.closer != nil {
		if cerr := w.closer.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}
	return err
}
