package record

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/INLOpen/mcapwire/core"
)

// noRecord marks a builder with no open record.
const noRecord = -1

// Builder is an append-only byte buffer that frames records. StartRecord
// writes the opcode and a zero length placeholder, the payload is appended
// with the primitive writers, and FinishRecord backpatches the placeholder
// with the number of payload bytes written since StartRecord.
//
// A Builder is not safe for concurrent use. Independent builders share no
// state.
type Builder struct {
	buf         []byte
	recordStart int // offset of the open record's opcode byte
	open        bool
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{recordStart: noRecord}
}

// NewBuilderSize returns an empty builder whose buffer can hold size bytes
// before growing.
func NewBuilderSize(size int) *Builder {
	return &Builder{buf: make([]byte, 0, size), recordStart: noRecord}
}

// StartRecord opens a record of kind op. It panics if a record is already open.
func (b *Builder) StartRecord(op core.Opcode) {
	if b.open {
		panic(fmt.Sprintf("record: StartRecord(%s) while %s record at offset %d is open",
			op, core.Opcode(b.buf[b.recordStart]), b.recordStart))
	}
	b.recordStart = len(b.buf)
	b.open = true
	b.buf = append(b.buf, byte(op))
	b.buf = binary.LittleEndian.AppendUint64(b.buf, 0)
}

// FinishRecord writes the open record's payload length into its header and
// closes it. It panics if no record is open.
func (b *Builder) FinishRecord() {
	if !b.open {
		panic("record: FinishRecord with no open record")
	}
	payloadStart := b.recordStart + core.RecordHeaderSize
	length := uint64(len(b.buf) - payloadStart)
	binary.LittleEndian.PutUint64(b.buf[b.recordStart+core.OpcodeSize:payloadStart], length)
	b.recordStart = noRecord
	b.open = false
}

// InRecord reports whether a record is open.
func (b *Builder) InRecord() bool {
	return b.open
}

// Write appends p. It never returns an error and lets a Builder be used as
// an io.Writer.
func (b *Builder) Write(p []byte) (int, error) {
	b.append(p)
	return len(p), nil
}

// append copies p onto the buffer. Appending cannot fail.
func (b *Builder) append(p []byte) {
	b.buf = append(b.buf, p...)
}

// WriteUint8 appends v.
func (b *Builder) WriteUint8(v uint8) {
	b.buf = append(b.buf, v)
}

// WriteUint16 appends v in little-endian order.
func (b *Builder) WriteUint16(v uint16) {
	b.buf = binary.LittleEndian.AppendUint16(b.buf, v)
}

// WriteUint32 appends v in little-endian order.
func (b *Builder) WriteUint32(v uint32) {
	b.buf = binary.LittleEndian.AppendUint32(b.buf, v)
}

// WriteUint64 appends v in little-endian order.
func (b *Builder) WriteUint64(v uint64) {
	b.buf = binary.LittleEndian.AppendUint64(b.buf, v)
}

// WritePrefixedString appends the UTF-8 byte length of s as a uint32
// followed by the bytes of s. Strings longer than math.MaxUint32 bytes are
// rejected without writing anything.
func (b *Builder) WritePrefixedString(s string) error {
	if uint64(len(s)) > math.MaxUint32 {
		return fmt.Errorf("string of %d bytes exceeds uint32 length prefix", len(s))
	}
	b.writeString(s)
	return nil
}

// writeString is WritePrefixedString for callers that validated the length.
func (b *Builder) writeString(s string) {
	b.buf = binary.LittleEndian.AppendUint32(b.buf, uint32(len(s)))
	b.buf = append(b.buf, s...)
}

// Count returns the number of bytes accumulated since the last End.
func (b *Builder) Count() int {
	return len(b.buf)
}

// Bytes returns the accumulated bytes without resetting the builder. The
// slice aliases the builder's buffer and is only valid until the next write.
func (b *Builder) Bytes() []byte {
	return b.buf
}

// End returns the accumulated bytes and resets the builder for reuse. The
// returned slice is owned by the caller. It panics if a record is open.
func (b *Builder) End() []byte {
	if b.open {
		panic(fmt.Sprintf("record: End with %s record at offset %d still open",
			core.Opcode(b.buf[b.recordStart]), b.recordStart))
	}
	out := make([]byte, len(b.buf))
	copy(out, b.buf)
	b.buf = b.buf[:0]
	b.recordStart = noRecord
	return out
}

// Reset discards all accumulated bytes, including any open record.
func (b *Builder) Reset() {
	b.buf = b.buf[:0]
	b.recordStart = noRecord
	b.open = false
}
