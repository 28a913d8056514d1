package asset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTransforms(t *testing.T, c *Cabinet, n int) []*Transform {
	t.Helper()
	out := make([]*Transform, n)
	for i := range out {
		tr, err := NewTransform(c)
		require.NoError(t, err)
		out[i] = tr
	}
	return out
}

func TestChildrenExclusivity(t *testing.T) {
	c := New("tree.assets")
	ts := newTransforms(t, c, 3)
	first, second, node := ts[0], ts[1], ts[2]

	require.NoError(t, first.AddChild(node))
	assert.Same(t, first, node.Parent())

	err := second.AddChild(node)
	assert.ErrorIs(t, err, ErrInvalidOperation)
	assert.Equal(t, 0, second.Count())
	assert.ErrorIs(t, first.AddChild(node), ErrInvalidOperation, "already a child")

	require.NoError(t, first.RemoveChild(node))
	assert.Nil(t, node.Parent())
	require.NoError(t, second.AddChild(node))
	assert.Equal(t, 0, first.Count())
	assert.Equal(t, []PathID{node.PathID()}, second.ChildIDs())

	assert.ErrorIs(t, first.RemoveChild(node), ErrInvalidOperation)
}

func TestRemoveChildMatchesIdentity(t *testing.T) {
	c := New("tree.assets")
	ts := newTransforms(t, c, 2)
	parent, child := ts[0], ts[1]
	require.NoError(t, parent.AddChild(child))

	// same path id as child, but a different object
	lookalike := newTransforms(t, New("other.assets"), 2)[1]
	require.Equal(t, child.PathID(), lookalike.PathID())
	unregistered := newTransform(c, child.PathID(), ClassTransform, ClassTransform)

	for _, node := range []*Transform{lookalike, unregistered} {
		assert.Equal(t, -1, parent.IndexOf(node))
		assert.ErrorIs(t, parent.RemoveChild(node), ErrInvalidOperation)
	}
	assert.Equal(t, 1, parent.Count())
	assert.Same(t, parent, child.Parent())

	other, err := NewTransform(c)
	require.NoError(t, err)
	assert.ErrorIs(t, other.AddChild(child), ErrInvalidOperation, "child keeps its single parent")
	require.NoError(t, parent.RemoveChild(child))
	require.NoError(t, other.AddChild(child))
}

func TestChildrenRejectsBadAttach(t *testing.T) {
	c := New("tree.assets")
	ts := newTransforms(t, c, 3)
	a, b, leaf := ts[0], ts[1], ts[2]
	require.NoError(t, a.AddChild(b))
	require.NoError(t, b.AddChild(leaf))

	assert.ErrorIs(t, a.AddChild(a), ErrInvalidOperation, "self")
	assert.ErrorIs(t, leaf.AddChild(a), ErrInvalidOperation, "cycle")
	assert.ErrorIs(t, a.AddChild(nil), ErrInvalidOperation, "nil")

	foreign, err := NewTransform(New("other.assets"))
	require.NoError(t, err)
	assert.ErrorIs(t, a.AddChild(foreign), ErrInvalidOperation, "other cabinet")

	unregistered := newTransform(c, 0, ClassTransform, ClassTransform)
	assert.ErrorIs(t, a.AddChild(unregistered), ErrInvalidOperation, "not in the table")
}

func TestChildrenIndexing(t *testing.T) {
	c := New("tree.assets")
	ts := newTransforms(t, c, 4)
	parent := ts[0]

	require.NoError(t, parent.InitChildren(8))
	require.NoError(t, parent.AddChild(ts[1]))
	require.NoError(t, parent.AddChild(ts[3]))
	require.NoError(t, parent.InsertChild(1, ts[2]))

	assert.Equal(t, 3, parent.Count())
	for i, want := range ts[1:] {
		got, err := parent.Child(i)
		require.NoError(t, err)
		assert.Same(t, want, got)
		assert.Equal(t, i, parent.IndexOf(want))
	}

	_, err := parent.Child(3)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = parent.Child(-1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.ErrorIs(t, parent.InsertChild(7, ts[1]), ErrIndexOutOfRange)

	assert.ErrorIs(t, parent.InitChildren(2), ErrInvalidOperation, "below count")
	assert.ErrorIs(t, parent.InitChildren(-1), ErrInvalidOperation)
	assert.NoError(t, parent.InitChildren(3))
	assert.Equal(t, 3, parent.Count(), "InitChildren never drops children")
}

func TestSetParent(t *testing.T) {
	c := New("tree.assets")
	ts := newTransforms(t, c, 3)
	a, b, node := ts[0], ts[1], ts[2]

	require.NoError(t, node.SetParent(a))
	require.NoError(t, node.SetParent(b))
	assert.Equal(t, 0, a.Count())
	assert.Same(t, b, node.Parent())

	// moving b under its own child fails and leaves b where it was
	require.NoError(t, b.SetParent(a))
	assert.ErrorIs(t, a.SetParent(node), ErrInvalidOperation)
	assert.Nil(t, a.Parent())
	assert.Same(t, a, b.Parent())

	require.NoError(t, node.SetParent(nil))
	assert.Nil(t, node.Parent())
	assert.Equal(t, 0, b.Count())
}
