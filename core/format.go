package core

// This file centralizes constants related to the record wire format:
// opcodes, header sizes and the file magic.

// Opcode is the 1-byte tag that identifies a record kind on the wire.
// The numeric assignment is a stable contract shared with every decoder.
type Opcode uint8

const (
	OpcodeHeader          Opcode = 0x01
	OpcodeFooter          Opcode = 0x02
	OpcodeSchema          Opcode = 0x03
	OpcodeChannel         Opcode = 0x04
	OpcodeMessage         Opcode = 0x05
	OpcodeChunk           Opcode = 0x06
	OpcodeMessageIndex    Opcode = 0x07
	OpcodeChunkIndex      Opcode = 0x08
	OpcodeAttachment      Opcode = 0x09
	OpcodeAttachmentIndex Opcode = 0x0A
	OpcodeStatistics      Opcode = 0x0B
	OpcodeMetadata        Opcode = 0x0C
	OpcodeMetadataIndex   Opcode = 0x0D
	OpcodeSummaryOffset   Opcode = 0x0E
	OpcodeDataEnd         Opcode = 0x0F
)

// String returns the record kind name for the opcode.
func (op Opcode) String() string {
	switch op {
	case OpcodeHeader:
		return "Header"
	case OpcodeFooter:
		return "Footer"
	case OpcodeSchema:
		return "Schema"
	case OpcodeChannel:
		return "Channel"
	case OpcodeMessage:
		return "Message"
	case OpcodeChunk:
		return "Chunk"
	case OpcodeMessageIndex:
		return "MessageIndex"
	case OpcodeChunkIndex:
		return "ChunkIndex"
	case OpcodeAttachment:
		return "Attachment"
	case OpcodeAttachmentIndex:
		return "AttachmentIndex"
	case OpcodeStatistics:
		return "Statistics"
	case OpcodeMetadata:
		return "Metadata"
	case OpcodeMetadataIndex:
		return "MetadataIndex"
	case OpcodeSummaryOffset:
		return "SummaryOffset"
	case OpcodeDataEnd:
		return "DataEnd"
	default:
		return "Unknown"
	}
}

// Known reports whether op is one of the defined record kinds.
func (op Opcode) Known() bool {
	return op >= OpcodeHeader && op <= OpcodeDataEnd
}

// --- Record framing sizes ---
const (
	OpcodeSize = 1 // uint8 opcode
	LengthSize = 8 // uint64 content length
	// RecordHeaderSize is the number of bytes preceding every record payload.
	RecordHeaderSize = OpcodeSize + LengthSize

	StringLengthSize = 4 // uint32 prefix of every string and map
	ChecksumSize     = 4 // uint32 CRC-32
)

// --- Fixed per-entry widths of array fields ---
const (
	MessageIndexEntrySize = 8 + 8 // timestamp, offset
	ChannelOffsetSize     = 2 + 8 // channel id, offset
	ChannelCountSize      = 2 + 8 // channel id, message count
)

// Magic is written at the start and end of a recording file.
var Magic = []byte{0x89, 'M', 'C', 'A', 'P', '0', '\r', '\n'}

// DefaultProfile is used when a recording does not name a profile.
const DefaultProfile = ""
