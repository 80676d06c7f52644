package object

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zlib"
)

// Serialize returns the envelope "<kind> <len>\0<content>" of a record,
// where len is the byte length of content.
func Serialize(r Record) ([]byte, error) {
	content, err := r.Content()
	if err != nil {
		return nil, err
	}
	header := fmt.Sprintf("%s %d\x00", r.Kind(), len(content))
	out := make([]byte, 0, len(header)+len(content))
	out = append(out, header...)
	return append(out, content...), nil
}

// Compress deflates the serialized envelope of r. This is the form the
// Repository stores on disk.
func Compress(r Record) ([]byte, error) {
	envelope, err := Serialize(r)
	if err != nil {
		return nil, fmt.Errorf("compress %s: %w", r.Kind(), err)
	}
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(envelope); err != nil {
		zw.Close()
		return nil, fmt.Errorf("compress %s: %w", r.Kind(), err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress %s: %w", r.Kind(), err)
	}
	return buf.Bytes(), nil
}

// Inflate reverses Compress, returning the serialized envelope.
func Inflate(compressed []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, &DecodeError{Err: fmt.Errorf("inflate: %w", err)}
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, &DecodeError{Err: fmt.Errorf("inflate: %w", err)}
	}
	return out, nil
}

// Parse inflates compressed bytes and decodes the record they hold.
func Parse(compressed []byte) (Record, error) {
	envelope, err := Inflate(compressed)
	if err != nil {
		return nil, err
	}
	return ParseSerialized(envelope)
}

// ParseSerialized decodes a "<kind> <len>\0<content>" envelope, dispatching
// on kind. Unknown kinds and malformed envelopes are DecodeErrors.
func ParseSerialized(envelope []byte) (Record, error) {
	nulIdx := bytes.IndexByte(envelope, 0)
	if nulIdx < 0 {
		return nil, &DecodeError{Err: fmt.Errorf("invalid format (no NUL)")}
	}
	header := string(envelope[:nulIdx])
	content := envelope[nulIdx+1:]

	kindToken, lengthToken, ok := strings.Cut(header, " ")
	if !ok {
		return nil, &DecodeError{Err: fmt.Errorf("invalid header %q", header)}
	}
	kind := Kind(kindToken)
	length, err := strconv.Atoi(lengthToken)
	if err != nil {
		return nil, &DecodeError{Kind: kind, Err: fmt.Errorf("invalid length %q: %w", lengthToken, err)}
	}
	if len(content) != length {
		return nil, &DecodeError{Kind: kind, Err: fmt.Errorf("length mismatch (header=%d, actual=%d)", length, len(content))}
	}

	switch kind {
	case KindSource:
		return NewSource(content), nil
	case KindVersion:
		v, err := ParseVersion(content)
		if err != nil {
			return nil, err
		}
		return v, nil
	case KindComponent:
		c, err := ParseComponent(content)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, &DecodeError{Kind: kind, Err: fmt.Errorf("unknown record kind %q", kindToken)}
	}
}
