package mcapio

import (
	"mcapedit/internal/model"

	"github.com/foxglove/mcap/go/mcap"
)

func fromSchema(s *mcap.Schema) *model.Schema {
	return &model.Schema{
		ID:       s.ID,
		Name:     s.Name,
		Encoding: s.Encoding,
		Data:     s.Data,
	}
}

func fromChannel(c *mcap.Channel) *model.Channel {
	return &model.Channel{
		ID:              c.ID,
		SchemaID:        c.SchemaID,
		Topic:           c.Topic,
		MessageEncoding: c.MessageEncoding,
		Metadata:        c.Metadata,
	}
}

func fromMessage(m *mcap.Message) *model.Message {
	return &model.Message{
		ChannelID:   m.ChannelID,
		Sequence:    m.Sequence,
		LogTime:     m.LogTime,
		PublishTime: m.PublishTime,
		Data:        m.Data,
	}
}

func fromStatistics(s *mcap.Statistics) *model.Statistics {
	counts := make(map[uint16]uint64, len(s.ChannelMessageCounts))
	for id, n := range s.ChannelMessageCounts {
		counts[id] = n
	}
	return &model.Statistics{
		MessageCount:         s.MessageCount,
		SchemaCount:          s.SchemaCount,
		ChannelCount:         s.ChannelCount,
		ChunkCount:           s.ChunkCount,
		MessageStartTime:     s.MessageStartTime,
		MessageEndTime:       s.MessageEndTime,
		ChannelMessageCounts: counts,
	}
}

func toCompression(c model.Compression) mcap.CompressionFormat {
	switch c {
	case model.CompressionLZ4:
		return mcap.CompressionLZ4
	case model.CompressionZstd:
		return mcap.CompressionZSTD
	default:
		return mcap.CompressionNone
	}
}
