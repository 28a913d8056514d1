package asset

import (
	"fmt"
)

// childNode is an object that can sit in an ObjChildren tree. The parent
// back-reference is a path id into the same cabinet, never a second owner.
type childNode interface {
	Object
	parentID() PathID
	setParentID(PathID)
}

// ObjChildren is the ordered child list of a parent object. It stores path
// ids; children are owned by the cabinet and looked up there, so a tree only
// ever holds objects of its owner's cabinet.
type ObjChildren[T childNode] struct {
	owner T
	ids   []PathID
}

func (c *ObjChildren[T]) setOwner(owner T) {
	c.owner = owner
}

// InitChildren pre-sizes storage. It never drops children.
func (c *ObjChildren[T]) InitChildren(capacity int) error {
	if capacity < 0 {
		return fmt.Errorf("init children with capacity %d: %w", capacity, ErrInvalidOperation)
	}
	if len(c.ids) > 0 && capacity < len(c.ids) {
		return fmt.Errorf("init children with capacity %d below count %d: %w", capacity, len(c.ids), ErrInvalidOperation)
	}
	if cap(c.ids) < capacity {
		ids := make([]PathID, len(c.ids), capacity)
		copy(ids, c.ids)
		c.ids = ids
	}
	return nil
}

func (c *ObjChildren[T]) Count() int {
	return len(c.ids)
}

// Child returns the i-th child.
func (c *ObjChildren[T]) Child(i int) (T, error) {
	var zero T
	if i < 0 || i >= len(c.ids) {
		return zero, fmt.Errorf("child %d of %d: %w", i, len(c.ids), ErrIndexOutOfRange)
	}
	node, ok := c.lookup(c.ids[i])
	if !ok {
		return zero, fmt.Errorf("child %d (path %d): %w", i, c.ids[i], ErrNotFound)
	}
	return node, nil
}

// Children returns the live children in order.
func (c *ObjChildren[T]) Children() []T {
	out := make([]T, 0, len(c.ids))
	for _, id := range c.ids {
		if node, ok := c.lookup(id); ok {
			out = append(out, node)
		}
	}
	return out
}

// ChildIDs returns a copy of the child path ids in order.
func (c *ObjChildren[T]) ChildIDs() []PathID {
	return append([]PathID(nil), c.ids...)
}

// IndexOf returns the position of node, or -1. A node is only found if it
// is the very object registered under its path id in the owner's cabinet.
func (c *ObjChildren[T]) IndexOf(node T) int {
	if isNilObject(node) {
		return -1
	}
	if live, ok := c.lookup(node.PathID()); !ok || Object(live) != Object(node) {
		return -1
	}
	for i, id := range c.ids {
		if id == node.PathID() {
			return i
		}
	}
	return -1
}

// AddChild appends node and points its parent back-reference at the owner.
func (c *ObjChildren[T]) AddChild(node T) error {
	return c.InsertChild(len(c.ids), node)
}

// InsertChild places node at position i.
func (c *ObjChildren[T]) InsertChild(i int, node T) error {
	if i < 0 || i > len(c.ids) {
		return fmt.Errorf("insert child at %d of %d: %w", i, len(c.ids), ErrIndexOutOfRange)
	}
	if err := c.checkAttach(node); err != nil {
		return err
	}
	c.ids = append(c.ids, 0)
	copy(c.ids[i+1:], c.ids[i:])
	c.ids[i] = node.PathID()
	node.setParentID(c.owner.PathID())
	return nil
}

// RemoveChild detaches node and clears its parent back-reference.
func (c *ObjChildren[T]) RemoveChild(node T) error {
	idx := c.IndexOf(node)
	if idx < 0 {
		return fmt.Errorf("remove child: %w: not a child of object %d", ErrInvalidOperation, c.owner.PathID())
	}
	c.ids = append(c.ids[:idx], c.ids[idx+1:]...)
	node.setParentID(0)
	return nil
}

func (c *ObjChildren[T]) checkAttach(node T) error {
	if isNilObject(node) {
		return fmt.Errorf("attach nil child: %w", ErrInvalidOperation)
	}
	file := c.owner.Cabinet()
	switch {
	case node.Cabinet() != file:
		return fmt.Errorf("attach object %d from another cabinet: %w", node.PathID(), ErrInvalidOperation)
	case Object(node) == Object(c.owner):
		return fmt.Errorf("attach object %d to itself: %w", node.PathID(), ErrInvalidOperation)
	case file.lookup(node.PathID()) != Object(node) || file.lookup(c.owner.PathID()) != Object(c.owner):
		return fmt.Errorf("attach object %d: %w: not registered in cabinet", node.PathID(), ErrInvalidOperation)
	}
	switch parent := node.parentID(); parent {
	case 0:
	case c.owner.PathID():
		return fmt.Errorf("attach object %d: %w: already a child", node.PathID(), ErrInvalidOperation)
	default:
		return fmt.Errorf("attach object %d: %w: already has parent %d", node.PathID(), ErrInvalidOperation, parent)
	}
	for id, steps := c.owner.parentID(), 0; id != 0 && steps <= file.Len(); steps++ {
		if id == node.PathID() {
			return fmt.Errorf("attach object %d: %w: would create a cycle", node.PathID(), ErrInvalidOperation)
		}
		ancestor, ok := file.lookup(id).(childNode)
		if !ok {
			break
		}
		id = ancestor.parentID()
	}
	return nil
}

func (c *ObjChildren[T]) lookup(id PathID) (T, bool) {
	var zero T
	obj := c.owner.Cabinet().lookup(id)
	if obj == nil {
		return zero, false
	}
	node, ok := obj.(T)
	return node, ok
}

// orphanAll clears every child's back-reference and empties the list.
func (c *ObjChildren[T]) orphanAll() {
	for _, id := range c.ids {
		if node, ok := c.lookup(id); ok {
			node.setParentID(0)
		}
	}
	c.ids = nil
}
