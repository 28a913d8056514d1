package codec

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"testing/iotest"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestScalarsLittleEndian(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteInt32(-2)
	w.WriteUint16(0x0102)
	w.WriteBool(true)
	w.WriteInt8(-1)
	w.WriteFloat32(1.5)
	w.WriteInt64(1 << 40)
	require.NoError(t, w.Err())

	raw := buf.Bytes()
	assert.Equal(t, []byte{0xFE, 0xFF, 0xFF, 0xFF, 0x02, 0x01, 0x01, 0xFF}, raw[:8])
	assert.EqualValues(t, 20, w.Written())

	r := NewReader(bytes.NewReader(raw))
	i32, err := r.ReadInt32()
	require.NoError(t, err)
	assert.EqualValues(t, -2, i32)

	u16, err := r.ReadUint16()
	require.NoError(t, err)
	assert.EqualValues(t, 0x0102, u16)

	b, err := r.ReadBool()
	require.NoError(t, err)
	assert.True(t, b)

	i8, err := r.ReadInt8()
	require.NoError(t, err)
	assert.EqualValues(t, -1, i8)

	f, err := r.ReadFloat32()
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), f)

	i64, err := r.ReadInt64()
	require.NoError(t, err)
	assert.EqualValues(t, 1<<40, i64)
	assert.EqualValues(t, 20, r.Offset())
}

func TestVectorsAndQuaternion(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	q := mgl32.Quat{W: 0.5, V: mgl32.Vec3{0.1, 0.2, 0.3}}
	w.WriteQuaternion(q)
	w.WriteVector3(mgl32.Vec3{1, 2, 3})
	w.WriteVector2(mgl32.Vec2{4, 5})
	require.NoError(t, w.Err())

	// x, y, z, w order on disk
	r := NewReader(bytes.NewReader(buf.Bytes()))
	first, err := r.ReadFloat32()
	require.NoError(t, err)
	assert.Equal(t, float32(0.1), first)

	r = NewReader(bytes.NewReader(buf.Bytes()))
	got, err := r.ReadQuaternion()
	require.NoError(t, err)
	assert.Equal(t, q, got)

	v3, err := r.ReadVector3()
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, v3)

	v2, err := r.ReadVector2()
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec2{4, 5}, v2)
}

func TestAlignedString(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteAlignedString("Root")
	w.WriteAlignedString("abcde")
	w.WriteUint8(7)
	require.NoError(t, w.Err())
	// 4+4, 4+5+3 pad, 1
	assert.Equal(t, 21, buf.Len())

	r := NewReader(bytes.NewReader(buf.Bytes()))
	s, err := r.ReadAlignedString()
	require.NoError(t, err)
	assert.Equal(t, "Root", s)
	s, err = r.ReadAlignedString()
	require.NoError(t, err)
	assert.Equal(t, "abcde", s)
	assert.EqualValues(t, 20, r.Offset())
}

func TestTruncatedStream(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{1, 2}))
	_, err := r.ReadInt32()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTruncatedStream)

	var te *TruncatedStreamError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 4, te.Wanted)
	assert.Equal(t, 2, te.Got)
	assert.EqualValues(t, 0, te.Offset)

	_, err = NewReader(bytes.NewReader(nil)).ReadQuaternion()
	assert.ErrorIs(t, err, ErrTruncatedStream)
}

func TestNegativeLengthString(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteInt32(-5)
	_, err := NewReader(bytes.NewReader(buf.Bytes())).ReadAlignedString()
	assert.ErrorIs(t, err, ErrNegativeLength)
}

func TestWriterErrorIsSticky(t *testing.T) {
	w := NewWriter(failingWriter{})
	w.WriteInt32(1)
	w.WriteInt32(2)
	require.Error(t, w.Err())
	assert.ErrorIs(t, w.Err(), ErrWriterFailed)
	assert.EqualValues(t, 0, w.Written())
}

func TestHugeLengthIsTruncatedNotAllocated(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteInt32(1 << 30)
	w.WriteBytes([]byte("abc"))
	require.NoError(t, w.Err())

	r := NewReader(bytes.NewReader(buf.Bytes()))
	_, err := r.ReadAlignedString()
	require.ErrorIs(t, err, ErrTruncatedStream)
	var te *TruncatedStreamError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 3, te.Got)
	assert.EqualValues(t, 7, r.Offset())
}

func TestReaderFailureIsNotTruncation(t *testing.T) {
	errDisk := errors.New("disk gone")
	r := NewReader(io.MultiReader(bytes.NewReader([]byte{1, 2}), iotest.ErrReader(errDisk)))
	_, err := r.ReadInt32()
	require.ErrorIs(t, err, errDisk)
	assert.NotErrorIs(t, err, ErrTruncatedStream)
	var re *ReadError
	require.ErrorAs(t, err, &re)
	assert.EqualValues(t, 2, re.Offset)

	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteInt32(1 << 20)
	require.NoError(t, w.Err())
	r = NewReader(io.MultiReader(bytes.NewReader(buf.Bytes()), iotest.ErrReader(errDisk)))
	_, err = r.ReadAlignedString()
	require.ErrorIs(t, err, errDisk)
	assert.NotErrorIs(t, err, ErrTruncatedStream)
}
