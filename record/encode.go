package record

import (
	"github.com/INLOpen/mcapwire/core"
)

// Payload layouts. Every integer is little-endian and every string is a
// uint32 byte length followed by UTF-8 bytes.

func (r *Header) Write(b *Builder) error {
	if err := checkStrings(core.OpcodeHeader, "profile", r.Profile, "library", r.Library); err != nil {
		return err
	}
	b.StartRecord(core.OpcodeHeader)
	b.writeString(r.Profile)
	b.writeString(r.Library)
	b.FinishRecord()
	return nil
}

func (r *Footer) Write(b *Builder) error {
	b.StartRecord(core.OpcodeFooter)
	b.WriteUint64(r.SummaryStart)
	b.WriteUint64(r.SummaryOffsetStart)
	b.WriteUint32(r.SummaryCRC)
	b.FinishRecord()
	return nil
}

func (r *Schema) Write(b *Builder) error {
	if err := checkStrings(core.OpcodeSchema, "name", r.Name, "encoding", r.Encoding); err != nil {
		return err
	}
	if err := checkBytes32(core.OpcodeSchema, "data", r.Data); err != nil {
		return err
	}
	b.StartRecord(core.OpcodeSchema)
	b.WriteUint16(r.ID)
	b.writeString(r.Name)
	b.writeString(r.Encoding)
	b.WriteUint32(uint32(len(r.Data)))
	b.append(r.Data)
	b.FinishRecord()
	return nil
}

func (r *Channel) Write(b *Builder) error {
	if err := checkStrings(core.OpcodeChannel, "topic", r.Topic, "message_encoding", r.MessageEncoding); err != nil {
		return err
	}
	metaLen, err := mapByteLen(core.OpcodeChannel, "metadata", r.Metadata)
	if err != nil {
		return err
	}
	b.StartRecord(core.OpcodeChannel)
	b.WriteUint16(r.ID)
	b.WriteUint16(r.SchemaID)
	b.writeString(r.Topic)
	b.writeString(r.MessageEncoding)
	b.writeMap(r.Metadata, metaLen)
	b.FinishRecord()
	return nil
}

func (r *Message) Write(b *Builder) error {
	b.StartRecord(core.OpcodeMessage)
	b.WriteUint16(r.ChannelID)
	b.WriteUint32(r.Sequence)
	b.WriteUint64(r.LogTime)
	b.WriteUint64(r.PublishTime)
	b.append(r.Data)
	b.FinishRecord()
	return nil
}

func (r *Chunk) Write(b *Builder) error {
	if err := checkString(core.OpcodeChunk, "compression", r.Compression); err != nil {
		return err
	}
	b.StartRecord(core.OpcodeChunk)
	b.WriteUint64(r.MessageStartTime)
	b.WriteUint64(r.MessageEndTime)
	b.WriteUint64(r.UncompressedSize)
	b.WriteUint32(r.UncompressedCRC)
	b.writeString(r.Compression)
	b.WriteUint64(uint64(len(r.Data)))
	b.append(r.Data)
	b.FinishRecord()
	return nil
}

func (r *MessageIndex) Write(b *Builder) error {
	recordsLen, err := arrayByteLen(core.OpcodeMessageIndex, "records", len(r.Records), core.MessageIndexEntrySize)
	if err != nil {
		return err
	}
	b.StartRecord(core.OpcodeMessageIndex)
	b.WriteUint16(r.ChannelID)
	b.WriteUint32(recordsLen)
	for _, e := range r.Records {
		b.WriteUint64(e.Timestamp)
		b.WriteUint64(e.Offset)
	}
	b.FinishRecord()
	return nil
}

func (r *ChunkIndex) Write(b *Builder) error {
	offsetsLen, err := arrayByteLen(core.OpcodeChunkIndex, "message_index_offsets", len(r.MessageIndexOffsets), core.ChannelOffsetSize)
	if err != nil {
		return err
	}
	if err := checkString(core.OpcodeChunkIndex, "compression", r.Compression); err != nil {
		return err
	}
	b.StartRecord(core.OpcodeChunkIndex)
	b.WriteUint64(r.MessageStartTime)
	b.WriteUint64(r.MessageEndTime)
	b.WriteUint64(r.ChunkStartOffset)
	b.WriteUint64(r.ChunkLength)
	b.WriteUint32(offsetsLen)
	for _, o := range r.MessageIndexOffsets {
		b.WriteUint16(o.ChannelID)
		b.WriteUint64(o.Offset)
	}
	b.WriteUint64(r.MessageIndexLength)
	b.writeString(r.Compression)
	b.WriteUint64(r.CompressedSize)
	b.WriteUint64(r.UncompressedSize)
	b.FinishRecord()
	return nil
}

func (r *AttachmentIndex) Write(b *Builder) error {
	if err := checkStrings(core.OpcodeAttachmentIndex, "name", r.Name, "media_type", r.MediaType); err != nil {
		return err
	}
	b.StartRecord(core.OpcodeAttachmentIndex)
	b.WriteUint64(r.Offset)
	b.WriteUint64(r.Length)
	b.WriteUint64(r.LogTime)
	b.WriteUint64(r.CreateTime)
	b.WriteUint64(r.DataSize)
	b.writeString(r.Name)
	b.writeString(r.MediaType)
	b.FinishRecord()
	return nil
}

func (r *Statistics) Write(b *Builder) error {
	countsLen, err := arrayByteLen(core.OpcodeStatistics, "channel_message_counts", len(r.ChannelMessageCounts), core.ChannelCountSize)
	if err != nil {
		return err
	}
	b.StartRecord(core.OpcodeStatistics)
	b.WriteUint64(r.MessageCount)
	b.WriteUint16(r.SchemaCount)
	b.WriteUint32(r.ChannelCount)
	b.WriteUint32(r.AttachmentCount)
	b.WriteUint32(r.MetadataCount)
	b.WriteUint32(r.ChunkCount)
	b.WriteUint64(r.MessageStartTime)
	b.WriteUint64(r.MessageEndTime)
	b.WriteUint32(countsLen)
	for _, c := range r.ChannelMessageCounts {
		b.WriteUint16(c.ChannelID)
		b.WriteUint64(c.Count)
	}
	b.FinishRecord()
	return nil
}

func (r *Metadata) Write(b *Builder) error {
	if err := checkString(core.OpcodeMetadata, "name", r.Name); err != nil {
		return err
	}
	metaLen, err := mapByteLen(core.OpcodeMetadata, "metadata", r.Metadata)
	if err != nil {
		return err
	}
	b.StartRecord(core.OpcodeMetadata)
	b.writeString(r.Name)
	b.writeMap(r.Metadata, metaLen)
	b.FinishRecord()
	return nil
}

func (r *MetadataIndex) Write(b *Builder) error {
	if err := checkString(core.OpcodeMetadataIndex, "name", r.Name); err != nil {
		return err
	}
	b.StartRecord(core.OpcodeMetadataIndex)
	b.WriteUint64(r.Offset)
	b.WriteUint64(r.Length)
	b.writeString(r.Name)
	b.FinishRecord()
	return nil
}

func (r *SummaryOffset) Write(b *Builder) error {
	if !r.GroupOpcode.Known() {
		return core.NewEncodingError(core.OpcodeSummaryOffset, "group_opcode", "unknown opcode 0x%02x", uint8(r.GroupOpcode))
	}
	b.StartRecord(core.OpcodeSummaryOffset)
	b.WriteUint8(uint8(r.GroupOpcode))
	b.WriteUint64(r.GroupStart)
	b.WriteUint64(r.GroupLength)
	b.FinishRecord()
	return nil
}

func (r *DataEnd) Write(b *Builder) error {
	b.StartRecord(core.OpcodeDataEnd)
	b.WriteUint32(r.DataSectionCRC)
	b.FinishRecord()
	return nil
}
