package cache

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/adaptivecache/adaptivecache/pkg/errors"
	"github.com/adaptivecache/adaptivecache/pkg/types"
)

// Compression strategy names form a closed set selected at construction.
const (
	CompressionZstd     = "zstd"
	CompressionLZ4      = "lz4"
	CompressionIdentity = "identity"
)

// NewCompressor returns the named compression strategy. level only applies
// to zstd (1-11 on the zstd scale; 0 picks the default).
func NewCompressor(name string, level int) (types.Compressor, error) {
	switch name {
	case CompressionZstd:
		return newZstdCompressor(level), nil
	case CompressionLZ4:
		return &lz4Compressor{}, nil
	case CompressionIdentity:
		return identityCompressor{}, nil
	default:
		return nil, errors.NewError(errors.ErrCodeUnknownStrategy,
			fmt.Sprintf("unknown compression strategy %q", name))
	}
}

// identityCompressor stores payloads verbatim and reports ratio 1.0. It is
// the strategy the manager picks for payloads below the compression
// threshold.
type identityCompressor struct{}

func (identityCompressor) Compress(data []byte) ([]byte, float64, error) {
	return data, 1.0, nil
}

func (identityCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}

func (identityCompressor) Name() string { return CompressionIdentity }

// zstdCompressor is the general-purpose strategy. Encoders and decoders are
// pooled; zstd frames are self-describing so no extra header is needed.
type zstdCompressor struct {
	level       zstd.EncoderLevel
	encoderPool sync.Pool
	decoderPool sync.Pool
}

func newZstdCompressor(level int) *zstdCompressor {
	encLevel := zstd.SpeedDefault
	if level > 0 {
		encLevel = zstd.EncoderLevelFromZstd(level)
	}
	return &zstdCompressor{level: encLevel}
}

func (c *zstdCompressor) getEncoder() *zstd.Encoder {
	if v := c.encoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(c.level))
	return enc
}

func (c *zstdCompressor) getDecoder() *zstd.Decoder {
	if v := c.decoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func (c *zstdCompressor) Compress(data []byte) ([]byte, float64, error) {
	if len(data) == 0 {
		return data, 1.0, nil
	}

	enc := c.getEncoder()
	out := enc.EncodeAll(data, make([]byte, 0, len(data)))
	c.encoderPool.Put(enc)

	return out, float64(len(out)) / float64(len(data)), nil
}

func (c *zstdCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}

	dec := c.getDecoder()
	out, err := dec.DecodeAll(data, nil)
	c.decoderPool.Put(dec)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecompression, "zstd decode failed", err)
	}
	return out, nil
}

func (c *zstdCompressor) Name() string { return CompressionZstd }

// lz4Compressor is the fast alternative strategy using LZ4 block
// compression.
//
// Block format: [UncompressedSize uint32][CompressedSize uint32][Data...].
// CompressedSize == 0 marks an incompressible payload stored raw.
type lz4Compressor struct{}

const lz4HeaderSize = 8

func (lz4Compressor) Compress(data []byte) ([]byte, float64, error) {
	if len(data) == 0 {
		return data, 1.0, nil
	}

	var compressor lz4.Compressor
	buf := make([]byte, lz4HeaderSize+lz4.CompressBlockBound(len(data)))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(data)))

	n, err := compressor.CompressBlock(data, buf[lz4HeaderSize:])
	if err != nil {
		return nil, 0, errors.Wrap(errors.ErrCodeCompression, "lz4 encode failed", err)
	}
	if n == 0 || n >= len(data) {
		// Incompressible: store raw behind the header.
		binary.LittleEndian.PutUint32(buf[4:8], 0)
		out := append(buf[:lz4HeaderSize], data...)
		return out, float64(len(out)) / float64(len(data)), nil
	}

	binary.LittleEndian.PutUint32(buf[4:8], uint32(n))
	out := buf[:lz4HeaderSize+n]
	return out, float64(len(out)) / float64(len(data)), nil
}

func (lz4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	if len(data) < lz4HeaderSize {
		return nil, errors.NewError(errors.ErrCodeDecompression, "lz4 block shorter than header")
	}

	uncompressedSize := binary.LittleEndian.Uint32(data[0:4])
	compressedSize := binary.LittleEndian.Uint32(data[4:8])
	body := data[lz4HeaderSize:]

	if compressedSize == 0 {
		if uint32(len(body)) != uncompressedSize {
			return nil, errors.NewError(errors.ErrCodeDecompression, "lz4 raw block size mismatch")
		}
		return body, nil
	}
	if uint32(len(body)) != compressedSize {
		return nil, errors.NewError(errors.ErrCodeDecompression, "lz4 block size mismatch")
	}

	out := make([]byte, uncompressedSize)
	n, err := lz4.UncompressBlock(body, out)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecompression, "lz4 decode failed", err)
	}
	return out[:n], nil
}

func (lz4Compressor) Name() string { return CompressionLZ4 }
