package record

import (
	"hash/crc32"

	"github.com/INLOpen/mcapwire/core"
)

// Write encodes the attachment with a trailing CRC-32 (IEEE) computed over
// the payload from log_time through the last byte of data. The record
// header and the checksum field itself are excluded.
//
// The record is framed in a pooled private builder first so the checksum can be
// taken over the finished bytes, including the backpatched length. All but
// the trailing placeholder are then copied to b and the checksum appended.
func (r *Attachment) Write(b *Builder) error {
	if err := checkStrings(core.OpcodeAttachment, "name", r.Name, "media_type", r.MediaType); err != nil {
		return err
	}

	if b.open {
		panic("record: Attachment.Write while another record is open")
	}

	scratch := scratchPool.Get()
	defer putScratch(scratch)

	scratch.StartRecord(core.OpcodeAttachment)
	scratch.WriteUint64(r.LogTime)
	scratch.WriteUint64(r.CreateTime)
	scratch.writeString(r.Name)
	scratch.writeString(r.MediaType)
	scratch.WriteUint64(uint64(len(r.Data)))
	scratch.append(r.Data)
	scratch.WriteUint32(0) // crc placeholder
	scratch.FinishRecord()

	out := scratch.Bytes()
	body := out[:len(out)-core.ChecksumSize]
	b.append(body)
	b.WriteUint32(crc32.ChecksumIEEE(body[core.RecordHeaderSize:]))
	return nil
}

// maxPooledScratch caps the buffer a scratch builder may keep when returned
// to the pool. Larger attachments get their buffer dropped.
const maxPooledScratch = 1 << 20

var scratchPool = core.NewGenericPool(func() *Builder {
	return NewBuilderSize(core.DefaultChunkBufferSize)
})

func putScratch(s *Builder) {
	if cap(s.buf) > maxPooledScratch {
		s.buf = nil
	}
	s.Reset()
	scratchPool.Put(s)
}
