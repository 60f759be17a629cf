package record

import (
	"math"

	"github.com/INLOpen/mcapwire/core"
)

// Length checks run before a record is opened so a rejected record never
// leaves a partial frame in the builder.

func checkString(op core.Opcode, field, s string) error {
	if uint64(len(s)) > math.MaxUint32 {
		return core.NewEncodingError(op, field, "string of %d bytes exceeds uint32 length prefix", len(s))
	}
	return nil
}

func checkStrings(op core.Opcode, fields ...string) error {
	for i := 0; i+1 < len(fields); i += 2 {
		if err := checkString(op, fields[i], fields[i+1]); err != nil {
			return err
		}
	}
	return nil
}

func checkBytes32(op core.Opcode, field string, data []byte) error {
	if uint64(len(data)) > math.MaxUint32 {
		return core.NewEncodingError(op, field, "%d bytes exceeds uint32 length prefix", len(data))
	}
	return nil
}

// arrayByteLen returns count*width, the byte length prefix of a fixed-width
// array field.
func arrayByteLen(op core.Opcode, field string, count, width int) (uint32, error) {
	n := uint64(count) * uint64(width)
	if n > math.MaxUint32 {
		return 0, core.NewEncodingError(op, field, "%d entries of %d bytes exceed uint32 length prefix", count, width)
	}
	return uint32(n), nil
}

// mapByteLen returns the encoded size of m's pairs, excluding the map's own
// length prefix.
func mapByteLen(op core.Opcode, field string, m *core.StringMap) (uint32, error) {
	var total uint64
	var err error
	m.Range(func(k, v string) bool {
		if uint64(len(k)) > math.MaxUint32 || uint64(len(v)) > math.MaxUint32 {
			err = core.NewEncodingError(op, field, "entry %q has a key or value longer than uint32", k)
			return false
		}
		total += 2*core.StringLengthSize + uint64(len(k)) + uint64(len(v))
		return true
	})
	if err != nil {
		return 0, err
	}
	if total > math.MaxUint32 {
		return 0, core.NewEncodingError(op, field, "%d encoded bytes exceed uint32 length prefix", total)
	}
	return uint32(total), nil
}

// writeMap appends a map as its byte length followed by each pair as two
// prefixed strings, in insertion order.
func (b *Builder) writeMap(m *core.StringMap, byteLen uint32) {
	b.WriteUint32(byteLen)
	m.Range(func(k, v string) bool {
		b.writeString(k)
		b.writeString(v)
		return true
	})
}
