package record

import (
	"fmt"

	"github.com/INLOpen/mcapwire/core"
)

// Record is one self-delimiting unit of the log format. Write appends the
// record's framed bytes to b. A record that fails validation leaves b
// unchanged and returns a *core.EncodingError.
type Record interface {
	Opcode() core.Opcode
	Write(b *Builder) error
}

// Header is the first record of a recording.
type Header struct {
	Profile string
	Library string
}

// Footer is the last record of a recording and locates the summary section.
type Footer struct {
	SummaryStart       uint64
	SummaryOffsetStart uint64
	SummaryCRC         uint32
}

// Schema describes the encoding of messages on one or more channels.
type Schema struct {
	ID       uint16
	Name     string
	Encoding string
	Data     []byte
}

// Channel declares a topic and the schema its messages use.
type Channel struct {
	ID              uint16
	SchemaID        uint16
	Topic           string
	MessageEncoding string
	Metadata        *core.StringMap
}

// Message is a single timestamped payload on a channel. Data is not length
// prefixed; it runs to the end of the record.
type Message struct {
	ChannelID   uint16
	Sequence    uint32
	LogTime     uint64
	PublishTime uint64
	Data        []byte
}

// Chunk holds a batch of records, usually compressed. Data is opaque here.
type Chunk struct {
	MessageStartTime uint64
	MessageEndTime   uint64
	UncompressedSize uint64
	UncompressedCRC  uint32
	Compression      string
	Data             []byte
}

// MessageIndexEntry locates one message inside the uncompressed chunk.
type MessageIndexEntry struct {
	Timestamp uint64
	Offset    uint64
}

// MessageIndex lists the messages of one channel in the preceding chunk.
type MessageIndex struct {
	ChannelID uint16
	Records   []MessageIndexEntry
}

// ChannelOffset pairs a channel with the file offset of its MessageIndex.
type ChannelOffset struct {
	ChannelID uint16
	Offset    uint64
}

// ChunkIndex locates a chunk and its message indexes in the file.
type ChunkIndex struct {
	MessageStartTime    uint64
	MessageEndTime      uint64
	ChunkStartOffset    uint64
	ChunkLength         uint64
	MessageIndexOffsets []ChannelOffset
	MessageIndexLength  uint64
	Compression         string
	CompressedSize      uint64
	UncompressedSize    uint64
}

// Attachment stores an auxiliary file. Its encoding ends with a CRC-32 of
// the payload, see (*Attachment).Write.
type Attachment struct {
	LogTime    uint64
	CreateTime uint64
	Name       string
	MediaType  string
	Data       []byte
}

// AttachmentIndex locates an Attachment record in the file.
type AttachmentIndex struct {
	Offset     uint64
	Length     uint64
	LogTime    uint64
	CreateTime uint64
	DataSize   uint64
	Name       string
	MediaType  string
}

// ChannelCount is the number of messages recorded on a channel.
type ChannelCount struct {
	ChannelID uint16
	Count     uint64
}

// Statistics summarizes the contents of a recording.
type Statistics struct {
	MessageCount         uint64
	SchemaCount          uint16
	ChannelCount         uint32
	AttachmentCount      uint32
	MetadataCount        uint32
	ChunkCount           uint32
	MessageStartTime     uint64
	MessageEndTime       uint64
	ChannelMessageCounts []ChannelCount
}

// Metadata is a named set of key/value pairs.
type Metadata struct {
	Name     string
	Metadata *core.StringMap
}

// MetadataIndex locates a Metadata record in the file.
type MetadataIndex struct {
	Offset uint64
	Length uint64
	Name   string
}

// SummaryOffset locates the group of summary records of one kind.
type SummaryOffset struct {
	GroupOpcode core.Opcode
	GroupStart  uint64
	GroupLength uint64
}

// DataEnd closes the data section.
type DataEnd struct {
	DataSectionCRC uint32
}

func (*Header) Opcode() core.Opcode          { return core.OpcodeHeader }
func (*Footer) Opcode() core.Opcode          { return core.OpcodeFooter }
func (*Schema) Opcode() core.Opcode          { return core.OpcodeSchema }
func (*Channel) Opcode() core.Opcode         { return core.OpcodeChannel }
func (*Message) Opcode() core.Opcode         { return core.OpcodeMessage }
func (*Chunk) Opcode() core.Opcode           { return core.OpcodeChunk }
func (*MessageIndex) Opcode() core.Opcode    { return core.OpcodeMessageIndex }
func (*ChunkIndex) Opcode() core.Opcode      { return core.OpcodeChunkIndex }
func (*Attachment) Opcode() core.Opcode      { return core.OpcodeAttachment }
func (*AttachmentIndex) Opcode() core.Opcode { return core.OpcodeAttachmentIndex }
func (*Statistics) Opcode() core.Opcode      { return core.OpcodeStatistics }
func (*Metadata) Opcode() core.Opcode        { return core.OpcodeMetadata }
func (*MetadataIndex) Opcode() core.Opcode   { return core.OpcodeMetadataIndex }
func (*SummaryOffset) Opcode() core.Opcode   { return core.OpcodeSummaryOffset }
func (*DataEnd) Opcode() core.Opcode         { return core.OpcodeDataEnd }

var (
	_ Record = (*Header)(nil)
	_ Record = (*Footer)(nil)
	_ Record = (*Schema)(nil)
	_ Record = (*Channel)(nil)
	_ Record = (*Message)(nil)
	_ Record = (*Chunk)(nil)
	_ Record = (*MessageIndex)(nil)
	_ Record = (*ChunkIndex)(nil)
	_ Record = (*Attachment)(nil)
	_ Record = (*AttachmentIndex)(nil)
	_ Record = (*Statistics)(nil)
	_ Record = (*Metadata)(nil)
	_ Record = (*MetadataIndex)(nil)
	_ Record = (*SummaryOffset)(nil)
	_ Record = (*DataEnd)(nil)
)

// Write appends rec to b.
func Write(b *Builder, rec Record) error {
	if rec == nil {
		return fmt.Errorf("record: nil record")
	}
	return rec.Write(b)
}
