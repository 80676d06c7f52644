package remote

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/odvcencio/bit/pkg/scope"
)

// EncodeBundle writes b to w as zstd-compressed JSON.
func EncodeBundle(w io.Writer, b *scope.Bundle) error {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(enc).Encode(b); err != nil {
		enc.Close()
		return fmt.Errorf("encode bundle: %w", err)
	}
	return enc.Close()
}

// DecodeBundle reads a bundle written by EncodeBundle.
func DecodeBundle(r io.Reader) (*scope.Bundle, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	var b scope.Bundle
	if err := json.NewDecoder(dec).Decode(&b); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	return &b, nil
}

// MarshalBundle returns the wire form of b; DecodeBundle reads it too.
func MarshalBundle(b *scope.Bundle) ([]byte, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encode bundle: %w", err)
	}
	return compressZstd(append(data, '\n'))
}

// UnmarshalBundle decodes the wire form of a bundle.
func UnmarshalBundle(data []byte) (*scope.Bundle, error) {
	raw, err := decompressZstd(data)
	if err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	var b scope.Bundle
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	return &b, nil
}

// compressZstd compresses data using zstd.
func compressZstd(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

// decompressZstd decompresses zstd-compressed data.
func decompressZstd(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}
