package store

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// ErrInvalidMagic is returned when a frame does not start with the expected
// magic bytes.
var ErrInvalidMagic = errors.New("store: invalid magic")

func mustNewZstdEncoder() *zstd.Encoder {
	enc, err := zstd.NewWriter(
		nil,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		zstd.WithLowerEncoderMem(true),
	)
	if err != nil {
		panic(err)
	}
	return enc
}

func mustNewZstdDecoder() *zstd.Decoder {
	dec, err := zstd.NewReader(
		nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(true),
	)
	if err != nil {
		panic(err)
	}
	return dec
}

var zstdEncPool = sync.Pool{
	New: func() any {
		return mustNewZstdEncoder()
	},
}

var zstdDecPool = sync.Pool{
	New: func() any {
		return mustNewZstdDecoder()
	},
}

// EncodeFrame returns magic followed by the zstd-compressed payload.
// magic must be exactly four bytes.
func EncodeFrame(magic string, payload []byte) []byte {
	if len(magic) != 4 {
		panic("store: magic must be 4 bytes")
	}
	enc := zstdEncPool.Get().(*zstd.Encoder)
	out := enc.EncodeAll(payload, []byte(magic))
	zstdEncPool.Put(enc)
	return out
}

// DecodeFrame checks the magic and returns the decompressed payload.
func DecodeFrame(magic string, data []byte) ([]byte, error) {
	if len(data) < len(magic) || !bytes.Equal(data[:len(magic)], []byte(magic)) {
		return nil, fmt.Errorf("%w: want %q", ErrInvalidMagic, magic)
	}

	dec := zstdDecPool.Get().(*zstd.Decoder)
	out, err := dec.DecodeAll(data[len(magic):], nil)
	zstdDecPool.Put(dec)
	if err != nil {
		return nil, fmt.Errorf("store: zstd decode: %w", err)
	}
	return out, nil
}
