package asset

import (
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/cabinet/internal/core/codec"
)

type ptr struct {
	fileID int32
	pathID int32
}

type fixtureObject struct {
	pathID  int32
	class   ClassID
	payload []byte
}

func encodeWith(t *testing.T, fn func(w *codec.Writer)) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := codec.NewWriter(&buf)
	fn(w)
	require.NoError(t, w.Err())
	return buf.Bytes()
}

func writePtr(w *codec.Writer, p ptr) {
	w.WriteInt32(p.fileID)
	w.WriteInt32(p.pathID)
}

func buildCabinet(t *testing.T, objects []fixtureObject, deps ...string) []byte {
	t.Helper()
	return encodeWith(t, func(w *codec.Writer) {
		w.WriteBytes([]byte("UCAB"))
		w.WriteUint32(FormatGeneration)
		w.WriteInt32(int32(len(objects)))
		for _, o := range objects {
			w.WriteInt32(o.pathID)
			w.WriteInt32(int32(o.class))
			w.WriteInt32(int32(o.class))
			w.WriteUint32(uint32(len(o.payload)))
			w.WriteBytes(o.payload)
		}
		w.WriteInt32(int32(len(deps)))
		for _, d := range deps {
			w.WriteAlignedString(d)
		}
	})
}

type transformRecord struct {
	gameObject ptr
	rotation   mgl32.Quat
	position   mgl32.Vec3
	scale      mgl32.Vec3
	children   []ptr
	father     ptr
}

func transformPayload(t *testing.T, rec transformRecord) []byte {
	t.Helper()
	if rec.rotation == (mgl32.Quat{}) {
		rec.rotation = mgl32.QuatIdent()
	}
	if rec.scale == (mgl32.Vec3{}) {
		rec.scale = mgl32.Vec3{1, 1, 1}
	}
	return encodeWith(t, func(w *codec.Writer) {
		writePtr(w, rec.gameObject)
		w.WriteQuaternion(rec.rotation)
		w.WriteVector3(rec.position)
		w.WriteVector3(rec.scale)
		w.WriteInt32(int32(len(rec.children)))
		for _, c := range rec.children {
			writePtr(w, c)
		}
		writePtr(w, rec.father)
	})
}

func gameObjectPayload(t *testing.T, name string, components ...ptr) []byte {
	t.Helper()
	return encodeWith(t, func(w *codec.Writer) {
		w.WriteInt32(int32(len(components)))
		for _, c := range components {
			writePtr(w, c)
		}
		w.WriteUint32(5)
		w.WriteAlignedString(name)
		w.WriteUint16(0)
		w.WriteBool(true)
		w.Align4()
	})
}

func meshFilterPayload(t *testing.T, gameObject, mesh ptr) []byte {
	t.Helper()
	return encodeWith(t, func(w *codec.Writer) {
		writePtr(w, gameObject)
		writePtr(w, mesh)
	})
}

// sceneFixture is a two-level hierarchy:
//
//	Root (1) -> Transform 2, children: (1, 99) unresolved, then Transform 4
//	Child (3) -> Transform 4 at (0, 1, 0), MeshFilter 5 with mesh (1, 7)
//
// Every pointer is written the way Save writes it, so the bytes round-trip.
func sceneFixture(t *testing.T) []byte {
	t.Helper()
	return buildCabinet(t, []fixtureObject{
		{1, ClassGameObject, gameObjectPayload(t, "Root", ptr{0, 2})},
		{2, ClassTransform, transformPayload(t, transformRecord{
			gameObject: ptr{0, 1},
			position:   mgl32.Vec3{1, 0, 0},
			children:   []ptr{{1, 99}, {0, 4}},
		})},
		{3, ClassGameObject, gameObjectPayload(t, "Child", ptr{0, 4}, ptr{0, 5})},
		{4, ClassTransform, transformPayload(t, transformRecord{
			gameObject: ptr{0, 3},
			position:   mgl32.Vec3{0, 1, 0},
			father:     ptr{0, 2},
		})},
		{5, ClassMeshFilter, meshFilterPayload(t, ptr{0, 3}, ptr{1, 7})},
	}, "shared.assets")
}

// sharedFixture holds the mesh the scene points at.
func sharedFixture(t *testing.T) []byte {
	t.Helper()
	return buildCabinet(t, []fixtureObject{
		{7, ClassGameObject, gameObjectPayload(t, "MeshHolder")},
	})
}

func loadCabinet(t *testing.T, name string, data []byte, opts ...Option) *Cabinet {
	t.Helper()
	c := New(name, opts...)
	require.NoError(t, c.Load(bytes.NewReader(data)))
	return c
}

func mustLookup[T Object](t *testing.T, c *Cabinet, id PathID) T {
	t.Helper()
	obj, err := c.Lookup(id)
	require.NoError(t, err)
	typed, ok := obj.(T)
	require.Truef(t, ok, "object %d is %T", id, obj)
	return typed
}

func saveBytes(t *testing.T, c *Cabinet) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))
	return buf.Bytes()
}
