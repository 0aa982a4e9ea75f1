package model

// MessageFilter decides whether a message is delivered to a ReadMessages callback.
type MessageFilter func(ch *Channel, msg *Message) bool

// Reader defines the container reading contract consumed by the summary
// index and the re-encoder.
type Reader interface {
	// Header returns the header record read at open time.
	Header() Header

	// ReadSummary loads schemas, channels and statistics. A nil Statistics
	// with a nil error means the container exposes no statistics block.
	ReadSummary(method SummaryMethod) (*Statistics, error)

	// Schemas returns the schemas loaded by the last ReadSummary call.
	Schemas() map[uint16]*Schema

	// Channels returns the channels loaded by the last ReadSummary call.
	Channels() map[uint16]*Channel

	// ReadMessages streams messages in the reader's delivery order and calls
	// fn for each one accepted by filter. A nil filter accepts everything.
	// Returning an error from fn stops iteration and that error is returned.
	ReadMessages(filter MessageFilter, fn func(MessageView) error) error
}

// Writer defines the container writing contract used by the re-encoder.
type Writer interface {
	// AddSchema registers a schema and returns its writer-scoped id.
	AddSchema(schema *Schema) (uint16, error)

	// AddChannel registers a channel and returns its writer-scoped id.
	AddChannel(channel *Channel) (uint16, error)

	// WriteMessage appends a message record.
	WriteMessage(msg *Message) error

	// Close flushes the summary section and releases the destination.
	Close() error
}
