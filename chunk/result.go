package chunk

import (
	"fmt"

	"github.com/INLOpen/mcapwire/record"
)

// Result is a finished chunk and the message indexes that follow it.
type Result struct {
	Chunk          *record.Chunk
	MessageIndexes []*record.MessageIndex
}

// Index assembles the ChunkIndex for the chunk from positions the caller
// tracked while writing it.
func (r *Result) Index(chunkStartOffset, chunkLength uint64, messageIndexOffsets []record.ChannelOffset, messageIndexLength uint64) *record.ChunkIndex {
	return &record.ChunkIndex{
		MessageStartTime:    r.Chunk.MessageStartTime,
		MessageEndTime:      r.Chunk.MessageEndTime,
		ChunkStartOffset:    chunkStartOffset,
		ChunkLength:         chunkLength,
		MessageIndexOffsets: messageIndexOffsets,
		MessageIndexLength:  messageIndexLength,
		Compression:         r.Chunk.Compression,
		CompressedSize:      uint64(len(r.Chunk.Data)),
		UncompressedSize:    r.Chunk.UncompressedSize,
	}
}

// WriteTo appends the Chunk record followed by its MessageIndex records to
// b and returns the matching ChunkIndex. base is the file offset of b's
// first byte, so offsets are base plus b.Count() at the time of writing.
func (r *Result) WriteTo(b *record.Builder, base uint64) (*record.ChunkIndex, error) {
	chunkStart := base + uint64(b.Count())
	if err := r.Chunk.Write(b); err != nil {
		return nil, fmt.Errorf("failed to write chunk: %w", err)
	}
	chunkLength := base + uint64(b.Count()) - chunkStart

	offsets := make([]record.ChannelOffset, 0, len(r.MessageIndexes))
	indexStart := base + uint64(b.Count())
	for _, idx := range r.MessageIndexes {
		offsets = append(offsets, record.ChannelOffset{ChannelID: idx.ChannelID, Offset: base + uint64(b.Count())})
		if err := idx.Write(b); err != nil {
			return nil, fmt.Errorf("failed to write message index for channel %d: %w", idx.ChannelID, err)
		}
	}
	indexLength := base + uint64(b.Count()) - indexStart

	return r.Index(chunkStart, chunkLength, offsets, indexLength), nil
}
