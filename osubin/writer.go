package osubin

import (
	"encoding/binary"
	"math"
)

// Writer is the inverse of Reader, used to produce .osr files and test
// fixtures.
type Writer struct {
	buf []byte
}

func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) Byte(v byte) { w.buf = append(w.buf, v) }

func (w *Writer) Bool(v bool) {
	if v {
		w.Byte(1)
	} else {
		w.Byte(0)
	}
}

func (w *Writer) Uint16(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }
func (w *Writer) Uint32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }
func (w *Writer) Int32(v int32)   { w.Uint32(uint32(v)) }
func (w *Writer) Uint64(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }
func (w *Writer) Int64(v int64)   { w.Uint64(uint64(v)) }

func (w *Writer) Float32(v float32) { w.Uint32(math.Float32bits(v)) }
func (w *Writer) Float64(v float64) { w.Uint64(math.Float64bits(v)) }

func (w *Writer) Raw(b []byte) { w.buf = append(w.buf, b...) }

// String writes s as a present string; the empty string is written absent.
func (w *Writer) String(s string) {
	if s == "" {
		w.Byte(StringAbsent)
		return
	}
	w.Byte(StringPresent)
	w.buf = AppendULEB128(w.buf, uint64(len(s)))
	w.buf = append(w.buf, s...)
}
