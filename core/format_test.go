package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpcodeValues(t *testing.T) {
	// The numeric assignment is a wire contract.
	want := map[Opcode]byte{
		OpcodeHeader: 0x01, OpcodeFooter: 0x02, OpcodeSchema: 0x03, OpcodeChannel: 0x04,
		OpcodeMessage: 0x05, OpcodeChunk: 0x06, OpcodeMessageIndex: 0x07, OpcodeChunkIndex: 0x08,
		OpcodeAttachment: 0x09, OpcodeAttachmentIndex: 0x0A, OpcodeStatistics: 0x0B,
		OpcodeMetadata: 0x0C, OpcodeMetadataIndex: 0x0D, OpcodeSummaryOffset: 0x0E, OpcodeDataEnd: 0x0F,
	}
	for op, b := range want {
		assert.Equal(t, b, byte(op), op.String())
		assert.True(t, op.Known())
		assert.NotEqual(t, "Unknown", op.String())
	}
	assert.False(t, Opcode(0x00).Known())
	assert.False(t, Opcode(0x80).Known())
	assert.Equal(t, "Unknown", Opcode(0x80).String())
}

func TestRecordHeaderSize(t *testing.T) {
	assert.Equal(t, 9, RecordHeaderSize)
	assert.Len(t, Magic, 8)
}

func TestEncodingError(t *testing.T) {
	err := NewEncodingError(OpcodeChannel, "topic", "length %d exceeds %d", 10, 5)
	assert.Equal(t, "cannot encode Channel.topic: length 10 exceeds 5", err.Error())
	assert.True(t, IsEncodingError(err))
	assert.False(t, IsEncodingError(&UnsupportedTypeError{Message: "x"}))
}

func TestParseCompressionType(t *testing.T) {
	for _, ct := range []CompressionType{CompressionNone, CompressionSnappy, CompressionLZ4, CompressionZSTD} {
		got, err := ParseCompressionType(ct.String())
		require.NoError(t, err)
		assert.Equal(t, ct, got)
	}
	got, err := ParseCompressionType("none")
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, got)

	_, err = ParseCompressionType("brotli")
	require.Error(t, err)
	assert.True(t, IsUnsupportedError(err))
}
