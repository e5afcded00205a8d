package msgpack

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"unicode/utf8"

	"github.com/wirebeam/graphcodec/errors"
)

// MessagePack format tags emitted by the writer.
const (
	tagNil     = 0xc0
	tagFalse   = 0xc2
	tagTrue    = 0xc3
	tagBin8    = 0xc4
	tagBin16   = 0xc5
	tagBin32   = 0xc6
	tagFloat32 = 0xca
	tagFloat64 = 0xcb
	tagUint8   = 0xcc
	tagUint16  = 0xcd
	tagUint32  = 0xce
	tagUint64  = 0xcf
	tagInt8    = 0xd0
	tagInt16   = 0xd1
	tagInt32   = 0xd2
	tagInt64   = 0xd3
	tagStr8    = 0xd9
	tagStr16   = 0xda
	tagStr32   = 0xdb
	tagArray16 = 0xdc
	tagArray32 = 0xdd
	tagMap16   = 0xde
	tagMap32   = 0xdf

	fixstrTag   = 0xa0 // 0xa0..0xbf, low 5 bits are the length
	fixarrayTag = 0x90 // 0x90..0x9f
	fixmapTag   = 0x80 // 0x80..0x8f
)

// maxLen32 is the largest byte length or element count a 32-bit length
// field can carry.
const maxLen32 = math.MaxUint32

// Writer is the only component that touches the output byte stream. It owns
// the buffering; nothing else may hold a reference to the underlying writer
// while a walk is in progress. Call Flush when the walk completes.
type Writer struct {
	b       *bufio.Writer
	written int64
	scratch [9]byte
}

// NewWriter returns a Writer buffering output to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{b: bufio.NewWriter(w)}
}

// Reset discards unflushed state and redirects output to w. The written
// byte count restarts from zero.
func (w *Writer) Reset(out io.Writer) {
	w.b.Reset(out)
	w.written = 0
}

// Written returns the number of bytes handed to the output stream so far,
// including bytes still sitting in the buffer.
func (w *Writer) Written() int64 {
	return w.written
}

// Flush drains the buffer to the underlying stream.
func (w *Writer) Flush() error {
	if err := w.b.Flush(); err != nil {
		return errors.Transport(err)
	}
	return nil
}

func (w *Writer) writeByte(c byte) error {
	if err := w.b.WriteByte(c); err != nil {
		return errors.Transport(err)
	}
	w.written++
	return nil
}

func (w *Writer) write(p []byte) error {
	n, err := w.b.Write(p)
	w.written += int64(n)
	if err != nil {
		return errors.Transport(err)
	}
	return nil
}

func (w *Writer) writeString(s string) error {
	n, err := w.b.WriteString(s)
	w.written += int64(n)
	if err != nil {
		return errors.Transport(err)
	}
	return nil
}

// WriteNil appends the null marker.
func (w *Writer) WriteNil() error {
	return w.writeByte(tagNil)
}

// WriteBool appends a boolean.
func (w *Writer) WriteBool(v bool) error {
	if v {
		return w.writeByte(tagTrue)
	}
	return w.writeByte(tagFalse)
}

// WriteInt appends a signed integer using the smallest-fitting encoding.
// Non-negative values use the unsigned family, matching the format spec's
// recommendation and keeping output deterministic.
func (w *Writer) WriteInt(v int64) error {
	if v >= 0 {
		return w.WriteUint(uint64(v))
	}
	switch {
	case v >= -32:
		return w.writeByte(byte(v)) // negative fixint
	case v >= math.MinInt8:
		w.scratch[0] = tagInt8
		w.scratch[1] = byte(v)
		return w.write(w.scratch[:2])
	case v >= math.MinInt16:
		w.scratch[0] = tagInt16
		binary.BigEndian.PutUint16(w.scratch[1:3], uint16(v))
		return w.write(w.scratch[:3])
	case v >= math.MinInt32:
		w.scratch[0] = tagInt32
		binary.BigEndian.PutUint32(w.scratch[1:5], uint32(v))
		return w.write(w.scratch[:5])
	default:
		w.scratch[0] = tagInt64
		binary.BigEndian.PutUint64(w.scratch[1:9], uint64(v))
		return w.write(w.scratch[:9])
	}
}

// WriteUint appends an unsigned integer using the smallest-fitting encoding.
func (w *Writer) WriteUint(v uint64) error {
	switch {
	case v <= 0x7f:
		return w.writeByte(byte(v)) // positive fixint
	case v <= math.MaxUint8:
		w.scratch[0] = tagUint8
		w.scratch[1] = byte(v)
		return w.write(w.scratch[:2])
	case v <= math.MaxUint16:
		w.scratch[0] = tagUint16
		binary.BigEndian.PutUint16(w.scratch[1:3], uint16(v))
		return w.write(w.scratch[:3])
	case v <= math.MaxUint32:
		w.scratch[0] = tagUint32
		binary.BigEndian.PutUint32(w.scratch[1:5], uint32(v))
		return w.write(w.scratch[:5])
	default:
		w.scratch[0] = tagUint64
		binary.BigEndian.PutUint64(w.scratch[1:9], v)
		return w.write(w.scratch[:9])
	}
}

// WriteFloat32 appends a float 32 value.
func (w *Writer) WriteFloat32(v float32) error {
	w.scratch[0] = tagFloat32
	binary.BigEndian.PutUint32(w.scratch[1:5], math.Float32bits(v))
	return w.write(w.scratch[:5])
}

// WriteFloat64 appends a float 64 value. Always full width so that every
// finite IEEE-754 double round-trips exactly.
func (w *Writer) WriteFloat64(v float64) error {
	w.scratch[0] = tagFloat64
	binary.BigEndian.PutUint64(w.scratch[1:9], math.Float64bits(v))
	return w.write(w.scratch[:9])
}

// WriteString appends a length-prefixed UTF-8 string.
func (w *Writer) WriteString(s string) error {
	if !utf8.ValidString(s) {
		return errors.InvalidUTF8(errors.PhaseEncode, nil, []byte(s))
	}
	n := len(s)
	switch {
	case n < 32:
		if err := w.writeByte(fixstrTag | byte(n)); err != nil {
			return err
		}
	case n <= math.MaxUint8:
		w.scratch[0] = tagStr8
		w.scratch[1] = byte(n)
		if err := w.write(w.scratch[:2]); err != nil {
			return err
		}
	case n <= math.MaxUint16:
		w.scratch[0] = tagStr16
		binary.BigEndian.PutUint16(w.scratch[1:3], uint16(n))
		if err := w.write(w.scratch[:3]); err != nil {
			return err
		}
	case int64(n) <= maxLen32:
		w.scratch[0] = tagStr32
		binary.BigEndian.PutUint32(w.scratch[1:5], uint32(n))
		if err := w.write(w.scratch[:5]); err != nil {
			return err
		}
	default:
		return errors.Overflow(errors.PhaseEncode, nil, n, "str 32")
	}
	return w.writeString(s)
}

// WriteBinary appends a length-prefixed raw byte blob.
func (w *Writer) WriteBinary(p []byte) error {
	n := len(p)
	switch {
	case n <= math.MaxUint8:
		w.scratch[0] = tagBin8
		w.scratch[1] = byte(n)
		if err := w.write(w.scratch[:2]); err != nil {
			return err
		}
	case n <= math.MaxUint16:
		w.scratch[0] = tagBin16
		binary.BigEndian.PutUint16(w.scratch[1:3], uint16(n))
		if err := w.write(w.scratch[:3]); err != nil {
			return err
		}
	case int64(n) <= maxLen32:
		w.scratch[0] = tagBin32
		binary.BigEndian.PutUint32(w.scratch[1:5], uint32(n))
		if err := w.write(w.scratch[:5]); err != nil {
			return err
		}
	default:
		return errors.Overflow(errors.PhaseEncode, nil, n, "bin 32")
	}
	return w.write(p)
}

// WriteMapHeader appends a map header carrying an exact entry count. The
// caller must follow it with exactly n key-value pairs.
func (w *Writer) WriteMapHeader(n int) error {
	switch {
	case n < 0:
		return errors.InvalidInput(errors.PhaseEncode, "negative map count")
	case n < 16:
		return w.writeByte(fixmapTag | byte(n))
	case n <= math.MaxUint16:
		w.scratch[0] = tagMap16
		binary.BigEndian.PutUint16(w.scratch[1:3], uint16(n))
		return w.write(w.scratch[:3])
	case int64(n) <= maxLen32:
		w.scratch[0] = tagMap32
		binary.BigEndian.PutUint32(w.scratch[1:5], uint32(n))
		return w.write(w.scratch[:5])
	default:
		return errors.Overflow(errors.PhaseEncode, nil, n, "map 32")
	}
}

// WriteArrayHeader appends an array header carrying an exact element count.
// The caller must follow it with exactly n elements.
func (w *Writer) WriteArrayHeader(n int) error {
	switch {
	case n < 0:
		return errors.InvalidInput(errors.PhaseEncode, "negative array count")
	case n < 16:
		return w.writeByte(fixarrayTag | byte(n))
	case n <= math.MaxUint16:
		w.scratch[0] = tagArray16
		binary.BigEndian.PutUint16(w.scratch[1:3], uint16(n))
		return w.write(w.scratch[:3])
	case int64(n) <= maxLen32:
		w.scratch[0] = tagArray32
		binary.BigEndian.PutUint32(w.scratch[1:5], uint32(n))
		return w.write(w.scratch[:5])
	default:
		return errors.Overflow(errors.PhaseEncode, nil, n, "array 32")
	}
}

// Pipe copies r byte-for-byte into the output stream, unframed: no tag, no
// length prefix. Used for stream-classified values that are written as an
// unbounded copy into the transport.
func (w *Writer) Pipe(r io.Reader) (int64, error) {
	n, err := io.Copy(w.b, r)
	w.written += n
	if err != nil {
		return n, errors.Transport(err)
	}
	return n, nil
}
