package record

import (
	"encoding/binary"
	"testing"

	"github.com/INLOpen/mcapwire/core"
	"github.com/stretchr/testify/require"
)

// payloadReader decodes record payloads byte by byte without going through
// any Builder code, so round-trip tests check the wire layout independently.
type payloadReader struct {
	t   *testing.T
	buf []byte
	pos int
}

// splitRecord checks the framing of the first record in data and returns
// its opcode, a reader over its payload, and the bytes after it.
func splitRecord(t *testing.T, data []byte) (core.Opcode, *payloadReader, []byte) {
	t.Helper()
	require.GreaterOrEqual(t, len(data), core.RecordHeaderSize, "short record header")
	op := core.Opcode(data[0])
	length := binary.LittleEndian.Uint64(data[1:9])
	require.LessOrEqual(t, length, uint64(len(data)-core.RecordHeaderSize), "length field overruns buffer")
	end := core.RecordHeaderSize + int(length)
	return op, &payloadReader{t: t, buf: data[core.RecordHeaderSize:end]}, data[end:]
}

// decodeSingle asserts data holds exactly one record of kind want.
func decodeSingle(t *testing.T, data []byte, want core.Opcode) *payloadReader {
	t.Helper()
	op, r, rest := splitRecord(t, data)
	require.Equal(t, want, op)
	require.Empty(t, rest, "trailing bytes after record")
	return r
}

func (r *payloadReader) take(n int) []byte {
	r.t.Helper()
	require.LessOrEqual(r.t, r.pos+n, len(r.buf), "read past end of payload")
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out
}

func (r *payloadReader) u8() uint8 { return r.take(1)[0] }

func (r *payloadReader) u16() uint16 {
	b := r.take(2)
	return uint16(b[0]) | uint16(b[1])<<8
}

func (r *payloadReader) u32() uint32 {
	b := r.take(4)
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func (r *payloadReader) u64() uint64 {
	lo := uint64(r.u32())
	hi := uint64(r.u32())
	return lo | hi<<32
}

func (r *payloadReader) str() string {
	n := r.u32()
	return string(r.take(int(n)))
}

// strMap decodes a map and checks its byte-length prefix against the bytes
// the pairs actually occupy.
func (r *payloadReader) strMap() ([]string, uint32) {
	r.t.Helper()
	byteLen := r.u32()
	start := r.pos
	var pairs []string
	for uint32(r.pos-start) < byteLen {
		pairs = append(pairs, r.str(), r.str())
	}
	require.Equal(r.t, byteLen, uint32(r.pos-start), "map length prefix mismatch")
	return pairs, byteLen
}

func (r *payloadReader) rest() []byte {
	out := r.buf[r.pos:]
	r.pos = len(r.buf)
	return out
}

func (r *payloadReader) done() {
	r.t.Helper()
	require.Equal(r.t, len(r.buf), r.pos, "unread payload bytes")
}
