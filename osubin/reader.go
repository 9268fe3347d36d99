package osubin

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const (
	StringAbsent  byte = 0x00
	StringPresent byte = 0x0b
)

var ErrStringMarker = errors.New("invalid string marker")

// Reader walks a byte slice field by field. Every read fails with
// ErrTruncatedInput once the slice is exhausted; the offset is left where
// the failing read started.
type Reader struct {
	buf []byte
	off int
}

func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

func (r *Reader) Offset() int    { return r.off }
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, fmt.Errorf("need %d bytes at offset %d, have %d: %w", n, r.off, r.Remaining(), ErrTruncatedInput)
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *Reader) Byte() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) Bool() (bool, error) {
	b, err := r.Byte()
	return b != 0, err
}

func (r *Reader) Uint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) Uint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) Int32() (int32, error) {
	v, err := r.Uint32()
	return int32(v), err
}

func (r *Reader) Uint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) Int64() (int64, error) {
	v, err := r.Uint64()
	return int64(v), err
}

func (r *Reader) Float32() (float32, error) {
	v, err := r.Uint32()
	return math.Float32frombits(v), err
}

func (r *Reader) Float64() (float64, error) {
	v, err := r.Uint64()
	return math.Float64frombits(v), err
}

// Bytes returns the next n bytes without copying.
func (r *Reader) Bytes(n int) ([]byte, error) {
	return r.take(n)
}

func (r *Reader) Skip(n int) error {
	_, err := r.take(n)
	return err
}

func (r *Reader) ULEB128() (uint64, error) {
	v, n, err := DecodeULEB128(r.buf[r.off:])
	if err != nil {
		return 0, fmt.Errorf("uleb128 at offset %d: %w", r.off, err)
	}
	r.off += n
	return v, nil
}

// String reads an optional string: a marker byte, then for a present
// string a ULEB128 byte length and the bytes themselves.
func (r *Reader) String() (string, error) {
	marker, err := r.Byte()
	if err != nil {
		return "", err
	}
	switch marker {
	case StringAbsent:
		return "", nil
	case StringPresent:
	default:
		return "", fmt.Errorf("0x%02x at offset %d: %w", marker, r.off-1, ErrStringMarker)
	}
	n, err := r.ULEB128()
	if err != nil {
		return "", err
	}
	if n > uint64(r.Remaining()) {
		return "", fmt.Errorf("string of %d bytes at offset %d: %w", n, r.off, ErrTruncatedInput)
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
