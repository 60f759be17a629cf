package chunk

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"log/slog"

	"github.com/INLOpen/mcapwire/compressors"
	"github.com/INLOpen/mcapwire/core"
	"github.com/INLOpen/mcapwire/record"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrEmptyChunk is returned by Finish when nothing was added.
var ErrEmptyChunk = errors.New("chunk has no records")

// Options configures a chunk Builder.
type Options struct {
	Compressor core.Compressor // nil stores records uncompressed
	Logger     *slog.Logger
	Tracer     trace.Tracer // optional
}

// Builder collects Schema, Channel and Message records into one chunk and
// keeps the per-channel message index for it. Deciding when a chunk is full
// is left to the caller, typically by comparing Len against a target size.
//
// A Builder is not safe for concurrent use.
type Builder struct {
	records    *record.Builder
	compressor core.Compressor
	logger     *slog.Logger
	tracer     trace.Tracer

	messageCount     int
	messageStartTime uint64
	messageEndTime   uint64

	indexes      map[uint16]*record.MessageIndex
	channelOrder []uint16 // channels in order of first message
}

// NewBuilder creates an empty chunk builder.
func NewBuilder(opts Options) *Builder {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Compressor == nil {
		opts.Compressor = &compressors.NoCompressionCompressor{}
	}
	return &Builder{
		records:    record.NewBuilderSize(core.DefaultChunkBufferSize),
		compressor: opts.Compressor,
		logger:     opts.Logger.With("component", "ChunkBuilder"),
		tracer:     opts.Tracer,
		indexes:    make(map[uint16]*record.MessageIndex),
	}
}

// AddSchema appends a Schema record to the chunk.
func (c *Builder) AddSchema(s *record.Schema) error {
	return s.Write(c.records)
}

// AddChannel appends a Channel record to the chunk.
func (c *Builder) AddChannel(ch *record.Channel) error {
	return ch.Write(c.records)
}

// AddMessage appends a Message record and indexes it by log time under its
// channel. The indexed offset is relative to the start of the uncompressed
// chunk data.
func (c *Builder) AddMessage(m *record.Message) error {
	offset := uint64(c.records.Count())
	if err := m.Write(c.records); err != nil {
		return err
	}

	if c.messageCount == 0 || m.LogTime < c.messageStartTime {
		c.messageStartTime = m.LogTime
	}
	if c.messageCount == 0 || m.LogTime > c.messageEndTime {
		c.messageEndTime = m.LogTime
	}
	c.messageCount++

	idx, ok := c.indexes[m.ChannelID]
	if !ok {
		idx = &record.MessageIndex{ChannelID: m.ChannelID}
		c.indexes[m.ChannelID] = idx
		c.channelOrder = append(c.channelOrder, m.ChannelID)
	}
	idx.Records = append(idx.Records, record.MessageIndexEntry{Timestamp: m.LogTime, Offset: offset})
	return nil
}

// Len returns the uncompressed size of the records added so far.
func (c *Builder) Len() int {
	return c.records.Count()
}

// MessageCount returns the number of messages added so far.
func (c *Builder) MessageCount() int {
	return c.messageCount
}

// Empty reports whether no record has been added.
func (c *Builder) Empty() bool {
	return c.records.Count() == 0
}

// Finish compresses the collected records into a Chunk record and returns it
// with the chunk's message indexes. The builder is reset for the next chunk
// whether or not Finish succeeds.
func (c *Builder) Finish(ctx context.Context) (result *Result, err error) {
	defer c.reset()

	if c.Empty() {
		return nil, ErrEmptyChunk
	}

	var span trace.Span
	if c.tracer != nil {
		_, span = c.tracer.Start(ctx, "chunk.Builder.Finish")
		defer func() {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			span.End()
		}()
	}

	uncompressed := c.records.Bytes()
	crc := crc32.ChecksumIEEE(uncompressed)

	buf := core.BufferPool.Get()
	defer core.BufferPool.Put(buf)
	if err := c.compressor.CompressTo(buf, uncompressed); err != nil {
		c.logger.Error("Chunk compression failed", "compression", c.compressor.Type().String(), "error", err)
		return nil, fmt.Errorf("failed to compress chunk: %w", err)
	}
	compressed := make([]byte, buf.Len())
	copy(compressed, buf.Bytes())

	result = &Result{
		Chunk: &record.Chunk{
			MessageStartTime: c.messageStartTime,
			MessageEndTime:   c.messageEndTime,
			UncompressedSize: uint64(len(uncompressed)),
			UncompressedCRC:  crc,
			Compression:      c.compressor.Type().String(),
			Data:             compressed,
		},
		MessageIndexes: make([]*record.MessageIndex, 0, len(c.channelOrder)),
	}
	for _, id := range c.channelOrder {
		result.MessageIndexes = append(result.MessageIndexes, c.indexes[id])
	}

	if span != nil {
		span.SetAttributes(
			attribute.Int("chunk.uncompressed_bytes", len(uncompressed)),
			attribute.Int("chunk.compressed_bytes", len(compressed)),
			attribute.Int("chunk.messages", c.messageCount),
			attribute.Int("chunk.channels", len(c.channelOrder)),
			attribute.String("chunk.compression", result.Chunk.Compression),
		)
	}
	if c.logger.Enabled(ctx, slog.LevelDebug) {
		hits, misses, created, pooled := core.BufferPool.GetMetrics()
		c.logger.Debug("Chunk finished",
			"uncompressed_bytes", len(uncompressed),
			"compressed_bytes", len(compressed),
			"messages", c.messageCount,
			"channels", len(c.channelOrder),
			slog.Group("buffer_pool",
				"hits", hits,
				"misses", misses,
				"created", created,
				"pooled", pooled))
	}

	return result, nil
}

func (c *Builder) reset() {
	c.records.Reset()
	c.messageCount = 0
	c.messageStartTime = 0
	c.messageEndTime = 0
	c.indexes = make(map[uint16]*record.MessageIndex)
	c.channelOrder = nil
}
