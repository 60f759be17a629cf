package record

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"testing"

	"github.com/INLOpen/mcapwire/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_StartFinishBackpatchesLength(t *testing.T) {
	b := NewBuilder()
	b.StartRecord(core.OpcodeDataEnd)
	require.True(t, b.InRecord())
	require.Equal(t, core.RecordHeaderSize, b.Count())
	b.WriteUint32(0xAABBCCDD)
	b.FinishRecord()
	require.False(t, b.InRecord())

	want := []byte{
		0x0F,
		0x04, 0, 0, 0, 0, 0, 0, 0,
		0xDD, 0xCC, 0xBB, 0xAA,
	}
	assert.Equal(t, want, b.End())
}

func TestBuilder_EmptyPayload(t *testing.T) {
	b := NewBuilder()
	b.StartRecord(core.OpcodeFooter)
	b.FinishRecord()
	assert.Equal(t, []byte{0x02, 0, 0, 0, 0, 0, 0, 0, 0}, b.End())
}

func TestBuilder_PrimitiveWritersAreLittleEndian(t *testing.T) {
	b := NewBuilder()
	b.WriteUint8(0x01)
	b.WriteUint16(0x0302)
	b.WriteUint32(0x07060504)
	b.WriteUint64(0x0F0E0D0C0B0A0908)
	n, err := b.Write([]byte{0x10, 0x11})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	want := make([]byte, 0, 17)
	for i := byte(1); i <= 0x11; i++ {
		want = append(want, i)
	}
	assert.Equal(t, want, b.Bytes())
	assert.Equal(t, 17, b.Count())
}

func TestBuilder_AppendAndWriterAgree(t *testing.T) {
	a := NewBuilder()
	a.append([]byte("abc"))
	a.append(nil)

	b := NewBuilder()
	var w io.Writer = b
	n, err := fmt.Fprint(w, "abc")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestBuilder_PrefixedStringCountsUTF8Bytes(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.WritePrefixedString("café"))
	out := b.End()
	require.Len(t, out, 4+5)
	assert.Equal(t, uint32(5), binary.LittleEndian.Uint32(out[:4]), "length must be bytes, not runes")
	assert.Equal(t, "café", string(out[4:]))
}

func TestBuilder_PrefixedStringEmpty(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.WritePrefixedString(""))
	assert.Equal(t, []byte{0, 0, 0, 0}, b.End())
}

// Random sequences of primitive writes must always produce a length field
// equal to the bytes that follow the header, inspected directly.
func TestBuilder_LengthMatchesPayloadForRandomWrites(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 200; iter++ {
		b := NewBuilder()
		prefix := rng.Intn(20)
		b.Write(bytes.Repeat([]byte{0xEE}, prefix))

		b.StartRecord(core.OpcodeMessage)
		ops := rng.Intn(30)
		for i := 0; i < ops; i++ {
			switch rng.Intn(6) {
			case 0:
				b.WriteUint8(uint8(rng.Uint32()))
			case 1:
				b.WriteUint16(uint16(rng.Uint32()))
			case 2:
				b.WriteUint32(rng.Uint32())
			case 3:
				b.WriteUint64(rng.Uint64())
			case 4:
				b.Write(make([]byte, rng.Intn(64)))
			case 5:
				require.NoError(t, b.WritePrefixedString(string(make([]byte, rng.Intn(16)))))
			}
		}
		b.FinishRecord()

		out := b.End()
		header := out[prefix:]
		require.Equal(t, byte(core.OpcodeMessage), header[0])
		length := binary.LittleEndian.Uint64(header[1:9])
		require.Equal(t, uint64(len(out)-prefix-core.RecordHeaderSize), length, "iteration %d", iter)
	}
}

func TestBuilder_ConsecutiveRecords(t *testing.T) {
	b := NewBuilder()
	b.StartRecord(core.OpcodeDataEnd)
	b.WriteUint32(1)
	b.FinishRecord()
	first := b.Count()
	b.StartRecord(core.OpcodeMetadataIndex)
	b.WriteUint64(7)
	b.WriteUint8(1)
	b.FinishRecord()

	out := b.End()
	assert.Equal(t, uint64(4), binary.LittleEndian.Uint64(out[1:9]))
	assert.Equal(t, byte(core.OpcodeMetadataIndex), out[first])
	assert.Equal(t, uint64(9), binary.LittleEndian.Uint64(out[first+1:first+9]))
}

func TestBuilder_EndResetsForReuse(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, (&Header{Profile: "first", Library: "lib"}).Write(b))
	first := b.End()
	require.NotEmpty(t, first)
	assert.Equal(t, 0, b.Count())

	require.NoError(t, (&DataEnd{DataSectionCRC: 9}).Write(b))
	second := b.End()
	assert.Equal(t, []byte{0x0F, 4, 0, 0, 0, 0, 0, 0, 0, 9, 0, 0, 0}, second)

	// The first result is owned by the caller and must not be clobbered.
	assert.Equal(t, byte(core.OpcodeHeader), first[0])
}

func TestBuilder_ZeroValueIsUsable(t *testing.T) {
	var b Builder
	b.StartRecord(core.OpcodeDataEnd)
	b.WriteUint32(0)
	b.FinishRecord()
	assert.Len(t, b.End(), core.RecordHeaderSize+4)
}

func TestBuilder_ProtocolMisusePanics(t *testing.T) {
	t.Run("start while open", func(t *testing.T) {
		b := NewBuilder()
		b.StartRecord(core.OpcodeHeader)
		assert.Panics(t, func() { b.StartRecord(core.OpcodeFooter) })
	})
	t.Run("finish with none open", func(t *testing.T) {
		b := NewBuilder()
		assert.Panics(t, func() { b.FinishRecord() })
	})
	t.Run("finish twice", func(t *testing.T) {
		b := NewBuilder()
		b.StartRecord(core.OpcodeHeader)
		b.FinishRecord()
		assert.Panics(t, func() { b.FinishRecord() })
	})
	t.Run("end while open", func(t *testing.T) {
		b := NewBuilder()
		b.StartRecord(core.OpcodeHeader)
		assert.Panics(t, func() { b.End() })
	})
	t.Run("encoder while open", func(t *testing.T) {
		b := NewBuilder()
		b.StartRecord(core.OpcodeChunk)
		assert.Panics(t, func() { _ = (&Header{}).Write(b) })
		assert.Panics(t, func() { _ = (&Attachment{}).Write(b) })
	})
}

func TestBuilder_ResetDiscardsOpenRecord(t *testing.T) {
	b := NewBuilder()
	b.StartRecord(core.OpcodeHeader)
	b.WriteUint64(1)
	b.Reset()
	assert.False(t, b.InRecord())
	assert.Equal(t, 0, b.Count())
	assert.NotPanics(t, func() { b.StartRecord(core.OpcodeHeader) })
}

func BenchmarkBuilder_Message(b *testing.B) {
	payload := bytes.Repeat([]byte("p"), 256)
	msg := &Message{ChannelID: 1, Sequence: 1, LogTime: 1, PublishTime: 1, Data: payload}
	builder := NewBuilderSize(1 << 20)

	b.ReportAllocs()
	b.SetBytes(int64(len(payload)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if builder.Count() > 1<<20 {
			builder.Reset()
		}
		if err := msg.Write(builder); err != nil {
			b.Fatalf("Write() error: %v", err)
		}
	}
}
