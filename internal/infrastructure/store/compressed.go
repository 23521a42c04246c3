package store

import (
	"bytes"
	"context"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Compressed zstd-compresses values on Save and decompresses on Load.
// Values written before compression was enabled are returned as stored.
type Compressed struct {
	Store
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewCompressed wraps s with zstd compression
func NewCompressed(s Store) (*Compressed, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &Compressed{Store: s, enc: enc, dec: dec}, nil
}

func (c *Compressed) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := c.Store.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(data, zstdMagic) {
		return data, nil
	}
	out, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", key, err)
	}
	return out, nil
}

func (c *Compressed) Save(ctx context.Context, key string, data []byte) error {
	return c.Store.Save(ctx, key, c.enc.EncodeAll(data, nil))
}

func (c *Compressed) Close() error {
	c.dec.Close()
	if err := c.enc.Close(); err != nil {
		return err
	}
	return c.Store.Close()
}
