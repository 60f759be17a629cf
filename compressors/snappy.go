package compressors

import (
	"bytes"
	"fmt"
	"io"

	"github.com/INLOpen/mcapwire/core"
	"github.com/golang/snappy"
)

// SnappyCompressor compresses chunk records with the Snappy block format.
// "snappy" is not one of the registered chunk compressions, so readers other
// than this module may refuse such chunks.
type SnappyCompressor struct{}

var _ core.Compressor = (*SnappyCompressor)(nil)

func NewSnappyCompressor() *SnappyCompressor {
	return &SnappyCompressor{}
}

func (c *SnappyCompressor) Compress(data []byte) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

func (c *SnappyCompressor) Decompress(data []byte) (io.ReadCloser, error) {
	decompressed, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("snappy decompress error: %w", err)
	}
	return io.NopCloser(bytes.NewReader(decompressed)), nil
}

func (c *SnappyCompressor) Type() core.CompressionType {
	return core.CompressionSnappy
}

// CompressTo compresses src into dst, reusing dst's capacity.
func (c *SnappyCompressor) CompressTo(dst *bytes.Buffer, src []byte) error {
	dst.Reset()
	dst.Grow(snappy.MaxEncodedLen(len(src)))
	out := snappy.Encode(dst.AvailableBuffer()[:snappy.MaxEncodedLen(len(src))], src)
	dst.Write(out)
	return nil
}
