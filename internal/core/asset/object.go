package asset

import (
	"fmt"
	"math"
	"reflect"
	"sync/atomic"

	"github.com/zeusync/cabinet/internal/core/codec"
)

// Object is anything a cabinet can hold.
type Object interface {
	Cabinet() *Cabinet
	PathID() PathID
	ClassID1() ClassID
	ClassID2() ClassID

	// LoadFrom decodes the object's fields. Pointers read here are not
	// resolved yet.
	LoadFrom(r *codec.Reader) error
	// SaveTo encodes the object's current field state.
	SaveTo(w *codec.Writer) error

	base() *ObjectBase
}

// ObjectBase carries the identity every object shares. Embed it to implement Object.
type ObjectBase struct {
	file     *Cabinet
	pathID   PathID
	classID1 ClassID
	classID2 ClassID
}

func newObjectBase(file *Cabinet, pathID PathID, classID1, classID2 ClassID) ObjectBase {
	return ObjectBase{file: file, pathID: pathID, classID1: classID1, classID2: classID2}
}

func (b *ObjectBase) Cabinet() *Cabinet { return b.file }
func (b *ObjectBase) PathID() PathID { return b.pathID }
func (b *ObjectBase) ClassID1() ClassID { return b.classID1 }
func (b *ObjectBase) ClassID2() ClassID { return b.classID2 }
func (b *ObjectBase) base() *ObjectBase { return b }

// Component is an object attached to a GameObject.
type Component interface {
	Object
	GameObject() *GameObject
	setGameObject(g *GameObject)
}

// ComponentBase is the leading m_GameObject field shared by components.
type ComponentBase struct {
	ObjectBase
	GameObjectPtr *PPtr[*GameObject]
}

// GameObject returns the owning GameObject, or nil while unresolved.
func (c *ComponentBase) GameObject() *GameObject {
	return c.GameObjectPtr.Instance()
}

func (c *ComponentBase) setGameObject(g *GameObject) {
	c.GameObjectPtr = NewPPtr(g, c.file)
}

// componentCloner is implemented by components GameObject.Clone can copy.
type componentCloner interface {
	cloneComponent(s *cloneState) (Component, error)
}

// cloneState is shared by one Clone call across the objects it copies.
type cloneState struct {
	target  *Cabinet
	active  map[Object]struct{}
	created []Object
	deps    int
}

func newCloneState(src, target *Cabinet) (*cloneState, error) {
	if target == nil {
		return nil, fmt.Errorf("clone into nil cabinet: %w", ErrInvalidOperation)
	}
	if target.closed {
		return nil, ErrClosed
	}
	// ids minted in target stay above everything the source has seen
	target.ids.Observe(src.ids.Last())
	return &cloneState{target: target, active: make(map[Object]struct{}), deps: len(target.deps)}, nil
}

// enter marks obj as being copied; leave must follow.
func (s *cloneState) enter(obj Object) error {
	if _, ok := s.active[obj]; ok {
		return fmt.Errorf("clone %s %d: %w: object reaches itself", obj.ClassID2(), obj.PathID(), ErrInvalidOperation)
	}
	s.active[obj] = struct{}{}
	return nil
}

func (s *cloneState) leave(obj Object) {
	delete(s.active, obj)
}

// register adds a copy to the target and remembers it for rollback.
func (s *cloneState) register(obj Object) error {
	if err := s.target.ReplaceSubfile(-1, obj, nil); err != nil {
		return err
	}
	s.created = append(s.created, obj)
	return nil
}

// rollback removes every copy registered so far, newest first, leaving the
// target as it was before the clone started.
func (s *cloneState) rollback() {
	for i := len(s.created) - 1; i >= 0; i-- {
		_ = s.target.RemoveSubfile(s.created[i])
	}
	s.created = nil
	// rebased pointers may have appended dependencies
	s.target.deps = s.target.deps[:s.deps]
}

// postResolver runs after the resolution pass of a load.
type postResolver interface {
	afterResolve()
}

// hierarchyNode is detached from its tree when removed or replaced.
type hierarchyNode interface {
	detachHierarchy()
}

// dumper fills the export view of an object.
type dumper interface {
	describe(d *ObjectDump)
}

func isNilObject(o Object) bool {
	if o == nil {
		return true
	}
	v := reflect.ValueOf(o)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// IDAllocator hands out path ids in increasing order and never reuses one.
// It may be shared by several cabinets so ids minted for new content stay
// disjoint across them.
type IDAllocator struct {
	last atomic.Int32
}

func NewIDAllocator() *IDAllocator {
	return &IDAllocator{}
}

// Next returns a fresh id above everything allocated or observed. It fails
// once the high-water mark reaches the largest path id.
func (a *IDAllocator) Next() (PathID, error) {
	for {
		cur := a.last.Load()
		if cur == math.MaxInt32 {
			return 0, ErrIDsExhausted
		}
		if a.last.CompareAndSwap(cur, cur+1) {
			return PathID(cur + 1), nil
		}
	}
}

// Observe raises the high-water mark to id.
func (a *IDAllocator) Observe(id PathID) {
	for {
		cur := a.last.Load()
		if int32(id) <= cur {
			return
		}
		if a.last.CompareAndSwap(cur, int32(id)) {
			return
		}
	}
}

// Last returns the high-water mark.
func (a *IDAllocator) Last() PathID {
	return PathID(a.last.Load())
}
