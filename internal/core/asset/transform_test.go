package asset

import (
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorldTransformComposition(t *testing.T) {
	c := New("world.assets")
	ts := newTransforms(t, c, 3)
	root, a, b := ts[0], ts[1], ts[2]
	a.LocalPosition = mgl32.Vec3{1, 0, 0}
	b.LocalPosition = mgl32.Vec3{0, 1, 0}
	require.NoError(t, root.AddChild(a))
	require.NoError(t, a.AddChild(b))

	assert.Equal(t, mgl32.Vec3{1, 1, 0}, b.WorldPosition())
	assert.Equal(t, mgl32.Ident4(), WorldTransform(root))
	assert.Equal(t, mgl32.Ident4(), WorldTransform(nil))
}

func TestWorldTransformAppliesChildFirst(t *testing.T) {
	c := New("world.assets")
	ts := newTransforms(t, c, 2)
	a, b := ts[0], ts[1]
	a.LocalPosition = mgl32.Vec3{1, 0, 0}
	a.LocalRotation = mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 0, 1})
	a.LocalScale = mgl32.Vec3{2, 2, 2}
	b.LocalPosition = mgl32.Vec3{1, 0, 0}
	require.NoError(t, a.AddChild(b))

	// b's offset is scaled, then rotated onto +Y, then moved by a's position
	got := b.WorldPosition()
	assert.Truef(t, got.ApproxEqualThreshold(mgl32.Vec3{1, 2, 0}, 1e-5), "world position %v", got)
}

func TestGetTransformPath(t *testing.T) {
	c := loadCabinet(t, "scene.assets", sceneFixture(t))

	path, err := mustLookup[*Transform](t, c, 4).GetTransformPath()
	require.NoError(t, err)
	assert.Equal(t, "Root/Child", path)

	require.NoError(t, c.RemoveSubfile(mustLookup[*GameObject](t, c, 1)))
	_, err = mustLookup[*Transform](t, c, 4).GetTransformPath()
	assert.ErrorIs(t, err, ErrUnresolvedReference)
}

func TestTransformRecordLayout(t *testing.T) {
	c := New("layout.assets")
	g, err := NewGameObject(c, "Holder")
	require.NoError(t, err)
	parent, err := NewTransform(c)
	require.NoError(t, err)
	child, err := NewTransform(c)
	require.NoError(t, err)
	require.NoError(t, g.AddLinkedComponent(child))
	require.NoError(t, parent.AddChild(child))
	child.LocalPosition = mgl32.Vec3{3, 4, 5}

	payload, err := c.encode(child)
	require.NoError(t, err)

	want := transformPayload(t, transformRecord{
		gameObject: ptr{0, int32(g.PathID())},
		position:   mgl32.Vec3{3, 4, 5},
		father:     ptr{0, int32(parent.PathID())},
	})
	assert.Equal(t, want, payload)
	assert.Len(t, payload, 8+16+12+12+4+8)
}

func TestRectTransformRoundTrip(t *testing.T) {
	c := New("ui.assets")
	g, err := NewGameObject(c, "Canvas")
	require.NoError(t, err)
	canvas, err := NewRectTransform(c)
	require.NoError(t, err)
	require.NoError(t, g.AddLinkedComponent(canvas))
	button, err := NewRectTransform(c)
	require.NoError(t, err)
	plain, err := NewTransform(c)
	require.NoError(t, err)

	canvas.SizeDelta = mgl32.Vec2{800, 600}
	button.AnchorMin = mgl32.Vec2{0.25, 0.25}
	button.AnchorMax = mgl32.Vec2{0.75, 0.75}
	require.NoError(t, canvas.AddChild(button))
	require.NoError(t, canvas.AddChild(plain))

	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))
	data := buf.Bytes()

	loaded := loadCabinet(t, "ui.assets", data)
	lc := mustLookup[*RectTransform](t, loaded, canvas.PathID())
	assert.Equal(t, mgl32.Vec2{800, 600}, lc.SizeDelta)
	assert.Equal(t, mgl32.Vec2{0.5, 0.5}, lc.Pivot)
	require.Equal(t, 2, lc.Count())

	first, err := lc.Child(0)
	require.NoError(t, err)
	lb, ok := first.(*RectTransform)
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec2{0.75, 0.75}, lb.AnchorMax)
	assert.Same(t, lc, lb.Parent())

	second, err := lc.Child(1)
	require.NoError(t, err)
	assert.IsType(t, &Transform{}, second)

	assert.Equal(t, data, saveBytes(t, loaded))
}
