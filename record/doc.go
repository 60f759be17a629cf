// Package record encodes the records of a chunked, self-describing binary
// log format.
//
// Every record is framed as
//
//	[opcode(1)][length(8)][payload(length)]
//
// where length is little-endian and counts only the payload, so a reader
// that does not recognize an opcode can still skip the record.
//
// A Builder accumulates framed records. Each record type implements Record
// and appends itself with Write:
//
//	b := record.NewBuilder()
//	if err := record.Write(b, &record.Header{Profile: "ros2", Library: "mcapwire"}); err != nil {
//	    return err
//	}
//	out := b.End()
//
// Builder.Count reports the running size, which callers use as file offsets
// when building ChunkIndex, AttachmentIndex and MetadataIndex records.
//
// Write returns a *core.EncodingError when a length-derived field cannot be
// represented in its wire width. Misusing the builder protocol (nesting
// records, finishing with none open, draining with one open) panics.
package record
