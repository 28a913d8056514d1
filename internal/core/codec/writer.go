package codec

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Writer encodes little-endian values to a stream. The first error is sticky:
// later writes are dropped and Err keeps reporting it.
type Writer struct {
	w       io.Writer
	written int64
	err     error
	buf     [8]byte
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Written returns the number of bytes written so far.
func (w *Writer) Written() int64 {
	return w.written
}

// Err returns the first write error, if any.
func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) put(p []byte) {
	if w.err != nil {
		return
	}
	n, err := w.w.Write(p)
	w.written += int64(n)
	if err != nil {
		w.err = fmt.Errorf("%w at offset %d: %w", ErrWriterFailed, w.written, err)
	}
}

func (w *Writer) WriteBytes(p []byte) {
	w.put(p)
}

func (w *Writer) WriteUint8(v uint8) {
	w.buf[0] = v
	w.put(w.buf[:1])
}

func (w *Writer) WriteInt8(v int8) {
	w.WriteUint8(uint8(v))
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteUint8(1)
		return
	}
	w.WriteUint8(0)
}

func (w *Writer) WriteUint16(v uint16) {
	binary.LittleEndian.PutUint16(w.buf[:2], v)
	w.put(w.buf[:2])
}

func (w *Writer) WriteInt16(v int16) {
	w.WriteUint16(uint16(v))
}

func (w *Writer) WriteUint32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[:4], v)
	w.put(w.buf[:4])
}

func (w *Writer) WriteInt32(v int32) {
	w.WriteUint32(uint32(v))
}

func (w *Writer) WriteUint64(v uint64) {
	binary.LittleEndian.PutUint64(w.buf[:8], v)
	w.put(w.buf[:8])
}

func (w *Writer) WriteInt64(v int64) {
	w.WriteUint64(uint64(v))
}

func (w *Writer) WriteFloat32(v float32) {
	w.WriteUint32(math.Float32bits(v))
}

func (w *Writer) WriteVector2(v mgl32.Vec2) {
	for _, f := range v {
		w.WriteFloat32(f)
	}
}

func (w *Writer) WriteVector3(v mgl32.Vec3) {
	for _, f := range v {
		w.WriteFloat32(f)
	}
}

func (w *Writer) WriteVector4(v mgl32.Vec4) {
	for _, f := range v {
		w.WriteFloat32(f)
	}
}

// WriteQuaternion writes x, y, z, w.
func (w *Writer) WriteQuaternion(q mgl32.Quat) {
	w.WriteVector4(mgl32.Vec4{q.V[0], q.V[1], q.V[2], q.W})
}

func (w *Writer) WriteAlignedString(s string) {
	w.WriteInt32(int32(len(s)))
	w.put([]byte(s))
	w.Align4()
}

// Align4 writes zero padding up to the next 4-byte boundary.
func (w *Writer) Align4() {
	pad := int((4 - w.written%4) % 4)
	if pad == 0 {
		return
	}
	w.buf = [8]byte{}
	w.put(w.buf[:pad])
}
