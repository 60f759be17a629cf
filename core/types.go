package core

import (
	"bytes"
	"io"
)

// CompressionType identifies the compression algorithm applied to chunk records.
type CompressionType byte

const (
	CompressionNone   CompressionType = 0
	CompressionSnappy CompressionType = 1
	CompressionLZ4    CompressionType = 2
	CompressionZSTD   CompressionType = 3
)

// Compressor defines the interface for compression and decompression algorithms.
type Compressor interface {
	// Compress compresses the input data.
	Compress(data []byte) ([]byte, error)
	CompressTo(dst *bytes.Buffer, src []byte) error
	// Decompress decompresses the input data.
	Decompress(data []byte) (io.ReadCloser, error)
	// Type returns the CompressionType identifier for this compressor.
	Type() CompressionType
}

// String returns the compression name written into Chunk and ChunkIndex
// records. Uncompressed chunks carry an empty name.
func (ct CompressionType) String() string {
	switch ct {
	case CompressionNone:
		return ""
	case CompressionSnappy:
		return "snappy"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return "unknown"
	}
}

// ParseCompressionType maps a compression name back to its type.
// "none" is accepted as an alias for the empty name.
func ParseCompressionType(name string) (CompressionType, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "snappy":
		return CompressionSnappy, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return 0, &UnsupportedTypeError{Message: "compression " + name}
	}
}
