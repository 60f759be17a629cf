package compressors

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/INLOpen/mcapwire/core"
	lz4 "github.com/pierrec/lz4/v4"
)

// LZ4Compressor compresses chunk records as an LZ4 frame. Chunk readers
// expect the frame format, not raw LZ4 blocks, because the frame carries
// its own content size and checksums.
type LZ4Compressor struct {
	writerPool sync.Pool
	readerPool sync.Pool
}

type lz4ReadCloser struct {
	*lz4.Reader
	pool *sync.Pool
}

func (lrc *lz4ReadCloser) Close() error {
	lrc.pool.Put(lrc.Reader)
	return nil
}

var _ core.Compressor = (*LZ4Compressor)(nil)
var _ io.ReadCloser = (*lz4ReadCloser)(nil)

func NewLz4Compressor() *LZ4Compressor {
	return &LZ4Compressor{
		writerPool: sync.Pool{
			New: func() interface{} {
				return lz4.NewWriter(nil)
			},
		},
		readerPool: sync.Pool{
			New: func() interface{} {
				return lz4.NewReader(nil)
			},
		},
	}
}

func (c *LZ4Compressor) Compress(data []byte) ([]byte, error) {
	buf := core.BufferPool.Get()
	defer core.BufferPool.Put(buf)

	if err := c.CompressTo(buf, data); err != nil {
		return nil, err
	}
	compressed := make([]byte, buf.Len())
	copy(compressed, buf.Bytes())
	return compressed, nil
}

func (c *LZ4Compressor) Decompress(data []byte) (io.ReadCloser, error) {
	r := c.readerPool.Get().(*lz4.Reader)
	r.Reset(bytes.NewReader(data))
	return &lz4ReadCloser{Reader: r, pool: &c.readerPool}, nil
}

func (c *LZ4Compressor) Type() core.CompressionType {
	return core.CompressionLZ4
}

// CompressTo compresses src into dst as a single LZ4 frame.
func (c *LZ4Compressor) CompressTo(dst *bytes.Buffer, src []byte) error {
	w := c.writerPool.Get().(*lz4.Writer)
	defer c.writerPool.Put(w)

	dst.Reset()
	w.Reset(dst)
	if _, err := w.Write(src); err != nil {
		_ = w.Close()
		return fmt.Errorf("lz4 compress write error: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("lz4 compress close error: %w", err)
	}
	return nil
}
