package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const chunkSize = 64 << 10

// Reader decodes little-endian values from a sequential stream.
// It never seeks; Offset reports how many bytes have been consumed.
type Reader struct {
	r      io.Reader
	offset int64
	buf    [8]byte
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int64 {
	return r.offset
}

func (r *Reader) fill(p []byte) error {
	n, err := io.ReadFull(r.r, p)
	if err != nil {
		start := r.offset
		r.offset += int64(n)
		if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return &ReadError{Offset: start + int64(n), Err: err}
		}
		return &TruncatedStreamError{Offset: start, Wanted: len(p), Got: n}
	}
	r.offset += int64(n)
	return nil
}

func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("read %d bytes at offset %d: %w", n, r.offset, ErrNegativeLength)
	}
	if n <= chunkSize {
		p := make([]byte, n)
		if err := r.fill(p); err != nil {
			return nil, err
		}
		return p, nil
	}
	// large lengths grow with the data actually present
	p, err := io.ReadAll(io.LimitReader(r.r, int64(n)))
	start := r.offset
	r.offset += int64(len(p))
	if err != nil {
		return nil, &ReadError{Offset: r.offset, Err: err}
	}
	if len(p) < n {
		return nil, &TruncatedStreamError{Offset: start, Wanted: n, Got: len(p)}
	}
	return p, nil
}

func (r *Reader) ReadUint8() (uint8, error) {
	if err := r.fill(r.buf[:1]); err != nil {
		return 0, err
	}
	return r.buf[0], nil
}

func (r *Reader) ReadInt8() (int8, error) {
	v, err := r.ReadUint8()
	return int8(v), err
}

func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadUint8()
	return v != 0, err
}

func (r *Reader) ReadUint16() (uint16, error) {
	if err := r.fill(r.buf[:2]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(r.buf[:2]), nil
}

func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

func (r *Reader) ReadUint32() (uint32, error) {
	if err := r.fill(r.buf[:4]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(r.buf[:4]), nil
}

func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

func (r *Reader) ReadUint64() (uint64, error) {
	if err := r.fill(r.buf[:8]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(r.buf[:8]), nil
}

func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	return math.Float32frombits(v), err
}

func (r *Reader) ReadVector2() (mgl32.Vec2, error) {
	var v mgl32.Vec2
	for i := range v {
		f, err := r.ReadFloat32()
		if err != nil {
			return mgl32.Vec2{}, err
		}
		v[i] = f
	}
	return v, nil
}

func (r *Reader) ReadVector3() (mgl32.Vec3, error) {
	var v mgl32.Vec3
	for i := range v {
		f, err := r.ReadFloat32()
		if err != nil {
			return mgl32.Vec3{}, err
		}
		v[i] = f
	}
	return v, nil
}

func (r *Reader) ReadVector4() (mgl32.Vec4, error) {
	var v mgl32.Vec4
	for i := range v {
		f, err := r.ReadFloat32()
		if err != nil {
			return mgl32.Vec4{}, err
		}
		v[i] = f
	}
	return v, nil
}

// ReadQuaternion reads x, y, z, w.
func (r *Reader) ReadQuaternion() (mgl32.Quat, error) {
	v, err := r.ReadVector4()
	if err != nil {
		return mgl32.Quat{}, err
	}
	return mgl32.Quat{W: v[3], V: mgl32.Vec3{v[0], v[1], v[2]}}, nil
}

// ReadAlignedString reads an int32 length, the bytes, and zero padding up to
// the next 4-byte boundary of the stream.
func (r *Reader) ReadAlignedString() (string, error) {
	n, err := r.ReadInt32()
	if err != nil {
		return "", err
	}
	p, err := r.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	if err = r.Align4(); err != nil {
		return "", err
	}
	return string(p), nil
}

// Align4 skips padding up to the next 4-byte boundary.
func (r *Reader) Align4() error {
	pad := int((4 - r.offset%4) % 4)
	if pad == 0 {
		return nil
	}
	return r.fill(r.buf[:pad])
}

// ReadAll consumes the rest of the stream.
func (r *Reader) ReadAll() ([]byte, error) {
	p, err := io.ReadAll(r.r)
	r.offset += int64(len(p))
	if err != nil {
		return nil, fmt.Errorf("read to end at offset %d: %w", r.offset, err)
	}
	return p, nil
}
