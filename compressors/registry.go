package compressors

import (
	"sync"

	"github.com/INLOpen/mcapwire/core"
)

var (
	registryOnce sync.Once
	registry     map[core.CompressionType]core.Compressor
)

func initRegistry() {
	registry = map[core.CompressionType]core.Compressor{
		core.CompressionNone:   &NoCompressionCompressor{},
		core.CompressionSnappy: NewSnappyCompressor(),
		core.CompressionLZ4:    NewLz4Compressor(),
		core.CompressionZSTD:   NewZstdCompressor(),
	}
}

// New returns the shared compressor for ct. Compressors are safe for
// concurrent use.
func New(ct core.CompressionType) (core.Compressor, error) {
	registryOnce.Do(initRegistry)
	c, ok := registry[ct]
	if !ok {
		return nil, &core.UnsupportedTypeError{Message: "compression type " + ct.String()}
	}
	return c, nil
}

// ForName returns the compressor for a chunk compression name such as
// "zstd", "lz4" or "" (uncompressed).
func ForName(name string) (core.Compressor, error) {
	ct, err := core.ParseCompressionType(name)
	if err != nil {
		return nil, err
	}
	return New(ct)
}
