package main

import (
	"context"
	"fmt"
	"hash/crc32"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/INLOpen/mcapwire/chunk"
	"github.com/INLOpen/mcapwire/compressors"
	"github.com/INLOpen/mcapwire/config"
	"github.com/INLOpen/mcapwire/core"
	"github.com/INLOpen/mcapwire/record"

	"go.opentelemetry.io/otel/trace"
)

const (
	schemaID       uint16 = 1
	schemaName            = "mcapgen.Sample"
	schemaEncoding        = "jsonschema"
	messageEnc            = "json"
	metadataName          = "mcapgen"
)

var sampleSchema = []byte(`{"type":"object","properties":{"seq":{"type":"integer"},"pad":{"type":"string"}}}`)

// footerCRCPrefix is the part of the Footer covered by the summary CRC:
// the record header plus summary_start and summary_offset_start.
const footerCRCPrefix = core.RecordHeaderSize + 8 + 8

// recordingWriter frames records into a Builder and flushes them to w,
// keeping the file offset and a running CRC of flushed bytes.
type recordingWriter struct {
	w       io.Writer
	b       *record.Builder
	written uint64
	crc     uint32
}

func newRecordingWriter(w io.Writer) *recordingWriter {
	return &recordingWriter{w: w, b: record.NewBuilderSize(core.DefaultChunkBufferSize)}
}

// offset is the file position of the next byte written to the builder.
func (rw *recordingWriter) offset() uint64 {
	return rw.written + uint64(rw.b.Count())
}

func (rw *recordingWriter) flush() error {
	data := rw.b.End()
	if len(data) == 0 {
		return nil
	}
	if _, err := rw.w.Write(data); err != nil {
		return fmt.Errorf("failed to write %d bytes at offset %d: %w", len(data), rw.written, err)
	}
	rw.written += uint64(len(data))
	rw.crc = crc32.Update(rw.crc, crc32.IEEETable, data)
	return nil
}

// writeGroup writes recs and returns the SummaryOffset locating them.
func (rw *recordingWriter) writeGroup(op core.Opcode, recs []record.Record) (*record.SummaryOffset, error) {
	start := rw.offset()
	for _, rec := range recs {
		if err := record.Write(rw.b, rec); err != nil {
			return nil, err
		}
	}
	return &record.SummaryOffset{GroupOpcode: op, GroupStart: start, GroupLength: rw.offset() - start}, nil
}

// generator writes a synthetic recording described by a config.
type generator struct {
	cfg    *config.Config
	logger *slog.Logger
	tracer trace.Tracer
	now    func() time.Time
}

func newGenerator(cfg *config.Config, logger *slog.Logger, tracer trace.Tracer) *generator {
	return &generator{cfg: cfg, logger: logger, tracer: tracer, now: time.Now}
}

type generation struct {
	rw *recordingWriter
	cb *chunk.Builder

	schema   *record.Schema
	channels []*record.Channel
	inChunk  map[uint16]bool

	stats             record.Statistics
	channelCounts     map[uint16]uint64
	chunkIndexes      []record.Record
	attachmentIndexes []record.Record
	metadataIndexes   []record.Record
}

// Run writes the complete recording to w and returns its statistics.
func (g *generator) Run(ctx context.Context, w io.Writer) (*record.Statistics, error) {
	compressor, err := compressors.ForName(g.cfg.Chunk.Compression)
	if err != nil {
		return nil, err
	}

	gen := &generation{
		rw:            newRecordingWriter(w),
		cb:            chunk.NewBuilder(chunk.Options{Compressor: compressor, Logger: g.logger, Tracer: g.tracer}),
		schema:        &record.Schema{ID: schemaID, Name: schemaName, Encoding: schemaEncoding, Data: sampleSchema},
		inChunk:       make(map[uint16]bool),
		channelCounts: make(map[uint16]uint64),
	}
	for i, topic := range g.cfg.Generator.Topics {
		gen.channels = append(gen.channels, &record.Channel{
			ID:              uint16(i + 1),
			SchemaID:        schemaID,
			Topic:           topic,
			MessageEncoding: messageEnc,
			Metadata:        core.NewStringMap("generator", "mcapgen"),
		})
	}
	gen.stats.SchemaCount = 1
	gen.stats.ChannelCount = uint32(len(gen.channels))

	rw := gen.rw
	if _, err := rw.b.Write(core.Magic); err != nil {
		return nil, err
	}
	if err := record.Write(rw.b, &record.Header{Profile: g.cfg.Header.Profile, Library: g.cfg.Header.Library}); err != nil {
		return nil, err
	}
	if err := g.writeMetadata(gen); err != nil {
		return nil, err
	}
	if err := g.writeMessages(ctx, gen); err != nil {
		return nil, err
	}
	if err := g.writeAttachment(gen); err != nil {
		return nil, err
	}

	// DataEnd carries the CRC of everything before it.
	if err := rw.flush(); err != nil {
		return nil, err
	}
	if err := record.Write(rw.b, &record.DataEnd{DataSectionCRC: rw.crc}); err != nil {
		return nil, err
	}
	if err := rw.flush(); err != nil {
		return nil, err
	}

	if err := g.writeSummary(gen); err != nil {
		return nil, err
	}

	g.logger.Info("Recording written",
		"bytes", rw.written,
		"messages", gen.stats.MessageCount,
		"chunks", gen.stats.ChunkCount,
		"compression", compressor.Type().String())
	return &gen.stats, nil
}

func (g *generator) writeMetadata(gen *generation) error {
	meta := g.cfg.Metadata
	if meta.Len() == 0 {
		return nil
	}

	start := gen.rw.offset()
	if err := record.Write(gen.rw.b, &record.Metadata{Name: metadataName, Metadata: meta}); err != nil {
		return err
	}
	gen.metadataIndexes = append(gen.metadataIndexes, &record.MetadataIndex{
		Offset: start,
		Length: gen.rw.offset() - start,
		Name:   metadataName,
	})
	gen.stats.MetadataCount++
	g.logger.Debug("Metadata written", "name", metadataName, "keys", meta.Keys())
	return nil
}

func (g *generator) writeMessages(ctx context.Context, gen *generation) error {
	gc := g.cfg.Generator
	base := uint64(g.now().UnixNano())
	pad := strings.Repeat("x", gc.PayloadBytes)

	for seq := 0; seq < gc.MessageCount; seq++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		ch := gen.channels[seq%len(gen.channels)]
		if err := g.declare(gen, ch); err != nil {
			return err
		}

		logTime := base + uint64(seq)*gc.IntervalNanos
		msg := &record.Message{
			ChannelID:   ch.ID,
			Sequence:    uint32(seq),
			LogTime:     logTime,
			PublishTime: logTime,
			Data:        []byte(fmt.Sprintf(`{"seq":%d,"pad":"%s"}`, seq, pad)),
		}
		if err := gen.cb.AddMessage(msg); err != nil {
			return err
		}

		if gen.stats.MessageCount == 0 || logTime < gen.stats.MessageStartTime {
			gen.stats.MessageStartTime = logTime
		}
		if logTime > gen.stats.MessageEndTime {
			gen.stats.MessageEndTime = logTime
		}
		gen.stats.MessageCount++
		gen.channelCounts[ch.ID]++

		if int64(gen.cb.Len()) >= g.cfg.Chunk.TargetSizeBytes {
			if err := g.finishChunk(ctx, gen); err != nil {
				return err
			}
		}
	}
	if !gen.cb.Empty() {
		return g.finishChunk(ctx, gen)
	}
	return nil
}

// declare adds the schema and channel to the open chunk the first time the
// channel is used in it, so each chunk can be decoded on its own.
func (g *generator) declare(gen *generation, ch *record.Channel) error {
	if gen.inChunk[ch.ID] {
		return nil
	}
	if len(gen.inChunk) == 0 {
		if err := gen.cb.AddSchema(gen.schema); err != nil {
			return err
		}
	}
	if err := gen.cb.AddChannel(ch); err != nil {
		return err
	}
	gen.inChunk[ch.ID] = true
	return nil
}

func (g *generator) finishChunk(ctx context.Context, gen *generation) error {
	res, err := gen.cb.Finish(ctx)
	if err != nil {
		return err
	}
	ci, err := res.WriteTo(gen.rw.b, gen.rw.written)
	if err != nil {
		return err
	}
	gen.chunkIndexes = append(gen.chunkIndexes, ci)
	gen.stats.ChunkCount++
	gen.inChunk = make(map[uint16]bool)
	return gen.rw.flush()
}

func (g *generator) writeAttachment(gen *generation) error {
	name := "mcapgen.yaml"
	mediaType := "application/yaml"
	var data []byte
	var err error
	if path := g.cfg.Generator.Attachment; path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read attachment %s: %w", path, err)
		}
		name = filepath.Base(path)
		mediaType = "application/octet-stream"
	} else {
		data, err = g.cfg.Marshal()
		if err != nil {
			return err
		}
	}

	now := uint64(g.now().UnixNano())
	att := &record.Attachment{LogTime: now, CreateTime: now, Name: name, MediaType: mediaType, Data: data}
	start := gen.rw.offset()
	if err := record.Write(gen.rw.b, att); err != nil {
		return err
	}
	gen.attachmentIndexes = append(gen.attachmentIndexes, &record.AttachmentIndex{
		Offset:     start,
		Length:     gen.rw.offset() - start,
		LogTime:    att.LogTime,
		CreateTime: att.CreateTime,
		DataSize:   uint64(len(data)),
		Name:       name,
		MediaType:  mediaType,
	})
	gen.stats.AttachmentCount++
	return nil
}

func (g *generator) writeSummary(gen *generation) error {
	rw := gen.rw
	summaryStart := rw.offset()
	rw.crc = 0

	for _, ch := range gen.channels {
		gen.stats.ChannelMessageCounts = append(gen.stats.ChannelMessageCounts, record.ChannelCount{
			ChannelID: ch.ID,
			Count:     gen.channelCounts[ch.ID],
		})
	}
	channels := make([]record.Record, len(gen.channels))
	for i, ch := range gen.channels {
		channels[i] = ch
	}

	groups := []struct {
		op   core.Opcode
		recs []record.Record
	}{
		{core.OpcodeSchema, []record.Record{gen.schema}},
		{core.OpcodeChannel, channels},
		{core.OpcodeStatistics, []record.Record{&gen.stats}},
		{core.OpcodeChunkIndex, gen.chunkIndexes},
		{core.OpcodeAttachmentIndex, gen.attachmentIndexes},
		{core.OpcodeMetadataIndex, gen.metadataIndexes},
	}
	var offsets []record.Record
	for _, grp := range groups {
		if len(grp.recs) == 0 {
			continue
		}
		so, err := rw.writeGroup(grp.op, grp.recs)
		if err != nil {
			return err
		}
		offsets = append(offsets, so)
	}

	summaryOffsetStart := rw.offset()
	for _, so := range offsets {
		if err := record.Write(rw.b, so); err != nil {
			return err
		}
	}
	if err := rw.flush(); err != nil {
		return err
	}

	footer := &record.Footer{SummaryStart: summaryStart, SummaryOffsetStart: summaryOffsetStart}
	scratch := record.NewBuilder()
	if err := footer.Write(scratch); err != nil {
		return err
	}
	footer.SummaryCRC = crc32.Update(rw.crc, crc32.IEEETable, scratch.Bytes()[:footerCRCPrefix])

	if err := footer.Write(rw.b); err != nil {
		return err
	}
	if _, err := rw.b.Write(core.Magic); err != nil {
		return err
	}
	return rw.flush()
}
