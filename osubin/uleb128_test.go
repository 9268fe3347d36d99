package osubin

import (
	"errors"
	"math"
	"testing"
)

func TestULEB128RoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 255, 300, 16383, 16384, 1 << 32, math.MaxUint32, 1<<63 - 1, 1 << 63, math.MaxUint64}
	for _, v := range values {
		b := AppendULEB128(nil, v)
		got, n, err := DecodeULEB128(b)
		if err != nil {
			t.Fatalf("decode %d: %v", v, err)
		}
		if got != v || n != len(b) {
			t.Errorf("decode(encode(%d)) = %d, %d bytes; want %d, %d bytes", v, got, n, v, len(b))
		}
	}
}

func TestULEB128KnownEncoding(t *testing.T) {
	got, n, err := DecodeULEB128([]byte{0xe5, 0x8e, 0x26, 0xff})
	if err != nil || got != 624485 || n != 3 {
		t.Fatalf("got %d, %d, %v", got, n, err)
	}
}

func TestULEB128Truncated(t *testing.T) {
	for _, v := range []uint64{128, 300, 1 << 40, math.MaxUint64} {
		b := AppendULEB128(nil, v)
		for cut := 0; cut < len(b); cut++ {
			_, _, err := DecodeULEB128(b[:cut])
			if !errors.Is(err, ErrTruncatedInput) {
				t.Errorf("%d cut at %d: got %v, want ErrTruncatedInput", v, cut, err)
			}
		}
	}
}

func TestULEB128Overflow(t *testing.T) {
	b := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x02}
	if _, _, err := DecodeULEB128(b); !errors.Is(err, ErrOverflow) {
		t.Fatalf("got %v, want ErrOverflow", err)
	}
	b = []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x01}
	if _, _, err := DecodeULEB128(b); !errors.Is(err, ErrOverflow) {
		t.Fatalf("got %v, want ErrOverflow", err)
	}
}

func TestReaderStrings(t *testing.T) {
	var w Writer
	w.String("")
	w.String("cookiezi")
	w.Int32(-7)
	w.Uint16(512)

	r := NewReader(w.Bytes())
	if s, err := r.String(); err != nil || s != "" {
		t.Fatalf("absent string: %q, %v", s, err)
	}
	if s, err := r.String(); err != nil || s != "cookiezi" {
		t.Fatalf("present string: %q, %v", s, err)
	}
	if v, err := r.Int32(); err != nil || v != -7 {
		t.Fatalf("int32: %d, %v", v, err)
	}
	if v, err := r.Uint16(); err != nil || v != 512 {
		t.Fatalf("uint16: %d, %v", v, err)
	}
	if _, err := r.Byte(); !errors.Is(err, ErrTruncatedInput) {
		t.Fatalf("read past end: %v", err)
	}
}

func TestReaderBadMarker(t *testing.T) {
	r := NewReader([]byte{0x0c, 0x01, 'a'})
	if _, err := r.String(); !errors.Is(err, ErrStringMarker) {
		t.Fatalf("got %v, want ErrStringMarker", err)
	}
}

func TestReaderStringLongerThanInput(t *testing.T) {
	r := NewReader([]byte{StringPresent, 0x05, 'a', 'b'})
	if _, err := r.String(); !errors.Is(err, ErrTruncatedInput) {
		t.Fatalf("got %v, want ErrTruncatedInput", err)
	}
}
