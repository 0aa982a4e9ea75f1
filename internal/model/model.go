// Package model provides the container record types and collaborator
// interfaces shared by the reader, the summary index and the re-encoder.
package model

// Header carries the container-level header record.
type Header struct {
	Profile string
	Library string
}

// Schema is a named, encoded definition of a message's structure.
// ID is assigned by the container that holds it and is not stable across containers.
type Schema struct {
	ID       uint16
	Name     string
	Encoding string
	Data     []byte
}

// Channel is a named stream of messages bound to one schema.
// SchemaID 0 means the channel carries no schema.
type Channel struct {
	ID              uint16
	SchemaID        uint16
	Topic           string
	MessageEncoding string
	Metadata        map[string]string
}

// Message is a single timestamped record on a channel.
type Message struct {
	ChannelID   uint16
	Sequence    uint32
	LogTime     uint64
	PublishTime uint64
	Data        []byte
}

// MessageView pairs a message with the channel and schema it was recorded on.
type MessageView struct {
	Message *Message
	Channel *Channel
	Schema  *Schema
}

// Statistics summarizes the message section of a container.
type Statistics struct {
	MessageCount         uint64
	SchemaCount          uint16
	ChannelCount         uint32
	ChunkCount           uint32
	MessageStartTime     uint64
	MessageEndTime       uint64
	ChannelMessageCounts map[uint16]uint64
}
