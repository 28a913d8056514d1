package asset

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/zeusync/cabinet/internal/core/codec"
	"github.com/zeusync/cabinet/internal/core/observability/log"
)

// TransformNode is a member of a transform hierarchy: *Transform or any
// type embedding it, such as *RectTransform.
type TransformNode interface {
	Component
	childNode
	AsTransform() *Transform

	cloneShell(s *cloneState) (TransformNode, error)
}

// Transform places a GameObject in its parent's space and holds its children.
type Transform struct {
	ComponentBase
	ObjChildren[TransformNode]

	LocalRotation mgl32.Quat
	LocalPosition mgl32.Vec3
	LocalScale    mgl32.Vec3

	// UnknownChilds are child pointers that did not resolve to a transform
	// of this cabinet at load. They are written back ahead of live children.
	UnknownChilds []*PPtr[TransformNode]

	parent  PathID
	pending []*PPtr[TransformNode]
	self    TransformNode
}

func newTransform(file *Cabinet, pathID PathID, c1, c2 ClassID) *Transform {
	t := &Transform{}
	t.init(file, pathID, c1, c2, t)
	return t
}

func (t *Transform) init(file *Cabinet, pathID PathID, c1, c2 ClassID, self TransformNode) {
	t.ObjectBase = newObjectBase(file, pathID, c1, c2)
	t.GameObjectPtr = NullPPtr[*GameObject](file)
	t.LocalRotation = mgl32.QuatIdent()
	t.LocalScale = mgl32.Vec3{1, 1, 1}
	t.self = self
	t.setOwner(self)
}

// NewTransform creates an identity root transform registered in file.
func NewTransform(file *Cabinet) (*Transform, error) {
	t := newTransform(file, 0, ClassTransform, ClassTransform)
	if err := file.ReplaceSubfile(-1, t, nil); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Transform) AsTransform() *Transform { return t }
func (t *Transform) parentID() PathID { return t.parent }
func (t *Transform) setParentID(id PathID) { t.parent = id }

// LoadFrom reads the transform record. Children are kept aside and attached
// once the whole cabinet has resolved; the stored parent pointer is skipped
// since the parent's child list is authoritative.
func (t *Transform) LoadFrom(r *codec.Reader) error {
	var err error
	if t.GameObjectPtr, err = ReadPPtr[*GameObject](r, t.self, "m_GameObject"); err != nil {
		return err
	}
	if t.LocalRotation, err = r.ReadQuaternion(); err != nil {
		return err
	}
	if t.LocalPosition, err = r.ReadVector3(); err != nil {
		return err
	}
	if t.LocalScale, err = r.ReadVector3(); err != nil {
		return err
	}
	n, err := r.ReadInt32()
	if err != nil {
		return err
	}
	if n < 0 {
		return fmt.Errorf("child count %d: %w", n, codec.ErrNegativeLength)
	}
	t.pending = make([]*PPtr[TransformNode], 0, min(int(n), 256))
	for i := int32(0); i < n; i++ {
		p, err := readRawPPtr[TransformNode](r, t.file)
		if err != nil {
			return err
		}
		t.pending = append(t.pending, p)
	}
	_, err = readRawPPtr[TransformNode](r, t.file)
	return err
}

func (t *Transform) afterResolve() {
	pending := t.pending
	t.pending = nil
	for i, p := range pending {
		field := fmt.Sprintf("m_Children[%d]", i)
		status := p.resolve()
		if status == statusResolved {
			err := t.AddChild(p.Instance())
			if err == nil {
				continue
			}
			t.file.logger.Warn("child transform not attached",
				log.String("parent", t.displayName()),
				log.Int32("object", int32(t.pathID)),
				log.String("field", field),
				log.Error(err),
			)
		} else {
			fileID, pathID := p.Raw()
			t.file.logger.Warn("unresolved child transform",
				log.String("parent", t.displayName()),
				log.Int32("object", int32(t.pathID)),
				log.String("field", field),
				log.Int32("file_id", fileID),
				log.Int32("path_id", int32(pathID)),
				log.String("reason", status.String()),
			)
		}
		t.UnknownChilds = append(t.UnknownChilds, p)
		t.file.remember(p, t.self, field)
	}
}

func (t *Transform) displayName() string {
	if g := t.GameObject(); g != nil {
		return g.Name
	}
	return "(unresolved GameObject)"
}

// SaveTo writes the transform record: unknown children first, then live
// children, then the parent pointer, which is null at a root.
func (t *Transform) SaveTo(w *codec.Writer) error {
	t.GameObjectPtr.SaveTo(w)
	w.WriteQuaternion(t.LocalRotation)
	w.WriteVector3(t.LocalPosition)
	w.WriteVector3(t.LocalScale)
	w.WriteInt32(int32(len(t.UnknownChilds) + t.Count()))
	for _, p := range t.UnknownChilds {
		p.SaveTo(w)
	}
	for _, id := range t.ids {
		w.WriteInt32(0)
		w.WriteInt32(int32(id))
	}
	w.WriteInt32(0)
	w.WriteInt32(int32(t.parent))
	return w.Err()
}

// Parent returns the transform holding t as a child, or nil at a root.
func (t *Transform) Parent() TransformNode {
	if t.parent == 0 {
		return nil
	}
	if p, ok := t.file.lookup(t.parent).(TransformNode); ok {
		return p
	}
	return nil
}

// SetParent moves t under p, or makes it a root when p is nil. On failure t
// stays where it was.
func (t *Transform) SetParent(p TransformNode) error {
	old := t.Parent()
	idx := -1
	if old != nil {
		if Object(old) == Object(p) {
			return nil
		}
		idx = old.AsTransform().IndexOf(t.self)
		if err := old.AsTransform().RemoveChild(t.self); err != nil {
			return err
		}
	}
	t.parent = 0
	if isNilObject(p) {
		return nil
	}
	if err := p.AsTransform().AddChild(t.self); err != nil {
		if old != nil {
			_ = old.AsTransform().InsertChild(idx, t.self)
		}
		return err
	}
	return nil
}

// LocalMatrix is scale, then rotation, then translation.
func (t *Transform) LocalMatrix() mgl32.Mat4 {
	p, s := t.LocalPosition, t.LocalScale
	return mgl32.Translate3D(p.X(), p.Y(), p.Z()).
		Mul4(t.LocalRotation.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(s.X(), s.Y(), s.Z()))
}

// WorldTransform composes local matrices from node up to its root: the
// node's own transform applies first, then each ancestor's.
func WorldTransform(node TransformNode) mgl32.Mat4 {
	world := mgl32.Ident4()
	if isNilObject(node) {
		return world
	}
	limit := node.Cabinet().Len() + 1
	for steps := 0; !isNilObject(node) && steps < limit; steps++ {
		t := node.AsTransform()
		world = t.LocalMatrix().Mul4(world)
		node = t.Parent()
	}
	return world
}

// WorldPosition is the translation part of WorldTransform.
func (t *Transform) WorldPosition() mgl32.Vec3 {
	return WorldTransform(t.self).Col(3).Vec3()
}

// GetTransformPath joins the GameObject names from the root down to t.
func (t *Transform) GetTransformPath() (string, error) {
	var names []string
	limit := t.file.Len() + 1
	var node TransformNode = t.self
	for steps := 0; !isNilObject(node) && steps < limit; steps++ {
		cur := node.AsTransform()
		g := cur.GameObject()
		if g == nil {
			fileID, pathID := cur.GameObjectPtr.Raw()
			return "", fmt.Errorf("transform path of %d: GameObject (file %d, path %d) of transform %d: %w",
				t.pathID, fileID, pathID, cur.pathID, ErrUnresolvedReference)
		}
		names = append(names, g.Name)
		node = cur.Parent()
	}
	slices.Reverse(names)
	return strings.Join(names, "/"), nil
}

func (t *Transform) cloneShell(s *cloneState) (TransformNode, error) {
	dst := newTransform(s.target, 0, t.classID1, t.classID2)
	t.copyLocal(dst)
	if err := s.register(dst); err != nil {
		return nil, err
	}
	return dst, nil
}

func (t *Transform) copyLocal(dst *Transform) {
	dst.LocalRotation = t.LocalRotation
	dst.LocalPosition = t.LocalPosition
	dst.LocalScale = t.LocalScale
}

// Clone copies t into target with every live child's GameObject, and the
// components of those, cloned beneath it. Unknown children are not carried
// over. The source is not modified, and a failed clone leaves target as it was.
func (t *Transform) Clone(target *Cabinet) (TransformNode, error) {
	s, err := newCloneState(t.file, target)
	if err != nil {
		return nil, err
	}
	dst, err := t.clone(s)
	if err != nil {
		s.rollback()
		return nil, err
	}
	return dst, nil
}

func (t *Transform) cloneComponent(s *cloneState) (Component, error) {
	return t.clone(s)
}

func (t *Transform) clone(s *cloneState) (TransformNode, error) {
	if err := s.enter(t.self); err != nil {
		return nil, err
	}
	defer s.leave(t.self)

	dst, err := t.self.cloneShell(s)
	if err != nil {
		return nil, err
	}
	for _, child := range t.Children() {
		ct, err := cloneChild(s, child)
		if err != nil {
			return nil, err
		}
		if err = dst.AsTransform().AddChild(ct); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

func cloneChild(s *cloneState, child TransformNode) (TransformNode, error) {
	g := child.GameObject()
	if g == nil {
		fileID, pathID := child.AsTransform().GameObjectPtr.Raw()
		return nil, fmt.Errorf("clone child transform %d: GameObject (file %d, path %d): %w",
			child.PathID(), fileID, pathID, ErrUnresolvedReference)
	}
	cg, err := g.clone(s)
	if err != nil {
		return nil, err
	}
	if ct := cg.Transform(); ct != nil {
		return ct, nil
	}
	// the GameObject does not list its transform
	ct, err := child.AsTransform().clone(s)
	if err != nil {
		return nil, err
	}
	if err = cg.AddLinkedComponent(ct); err != nil {
		return nil, err
	}
	return ct, nil
}

// detachHierarchy unlinks t from its parent and turns its children into roots.
func (t *Transform) detachHierarchy() {
	if p := t.Parent(); p != nil {
		_ = p.AsTransform().RemoveChild(t.self)
	}
	t.parent = 0
	t.orphanAll()
}

func (t *Transform) describe(d *ObjectDump) {
	d.GameObject = dumpPointer(t.GameObjectPtr)
	td := &TransformDump{
		Position: t.LocalPosition,
		Rotation: [4]float32{t.LocalRotation.X(), t.LocalRotation.Y(), t.LocalRotation.Z(), t.LocalRotation.W},
		Scale:    t.LocalScale,
		Parent:   t.parent,
		Children: t.ChildIDs(),
	}
	for _, p := range t.UnknownChilds {
		td.UnknownChildren = append(td.UnknownChildren, *dumpPointer(p))
	}
	if path, err := t.GetTransformPath(); err == nil {
		td.Path = path
	}
	if g := t.GameObject(); g != nil {
		d.Name = g.Name
	}
	d.Transform = td
}
