// Package osubin holds the primitives shared by osu!'s binary formats
// (.osr replays and the osu!.db catalog): ULEB128 lengths, the
// little-endian field reader and the optional-string encoding.
package osubin

import "errors"

var (
	ErrTruncatedInput = errors.New("truncated input")
	ErrOverflow       = errors.New("uleb128 value overflows 64 bits")
)

// DecodeULEB128 decodes an unsigned LEB128 value from the front of b and
// reports how many bytes it used.
func DecodeULEB128(b []byte) (uint64, int, error) {
	var value uint64
	var shift uint
	for i, c := range b {
		if shift == 63 && c > 1 {
			return 0, 0, ErrOverflow
		}
		value |= uint64(c&0x7f) << shift
		if c&0x80 == 0 {
			return value, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, ErrTruncatedInput
}

// AppendULEB128 appends the ULEB128 encoding of v to dst.
func AppendULEB128(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}
