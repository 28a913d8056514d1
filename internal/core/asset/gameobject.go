package asset

import (
	"fmt"

	"github.com/zeusync/cabinet/internal/core/codec"
	"github.com/zeusync/cabinet/internal/core/observability/log"
)

// GameObject is a named container of components.
type GameObject struct {
	ObjectBase

	Components []*PPtr[Component]
	Layer      uint32
	Name       string
	Tag        uint16
	IsActive   bool
}

func newGameObject(file *Cabinet, pathID PathID, c1, c2 ClassID) *GameObject {
	return &GameObject{ObjectBase: newObjectBase(file, pathID, c1, c2), IsActive: true}
}

// NewGameObject creates an active GameObject with no components in file.
func NewGameObject(file *Cabinet, name string) (*GameObject, error) {
	g := newGameObject(file, 0, ClassGameObject, ClassGameObject)
	g.Name = name
	if err := file.ReplaceSubfile(-1, g, nil); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *GameObject) LoadFrom(r *codec.Reader) error {
	n, err := r.ReadInt32()
	if err != nil {
		return err
	}
	if n < 0 {
		return fmt.Errorf("component count %d: %w", n, codec.ErrNegativeLength)
	}
	g.Components = make([]*PPtr[Component], 0, min(int(n), 64))
	for i := int32(0); i < n; i++ {
		p, err := ReadPPtr[Component](r, g, fmt.Sprintf("m_Component[%d]", i))
		if err != nil {
			return err
		}
		g.Components = append(g.Components, p)
	}
	if g.Layer, err = r.ReadUint32(); err != nil {
		return err
	}
	if g.Name, err = r.ReadAlignedString(); err != nil {
		return err
	}
	if g.Tag, err = r.ReadUint16(); err != nil {
		return err
	}
	if g.IsActive, err = r.ReadBool(); err != nil {
		return err
	}
	return r.Align4()
}

func (g *GameObject) SaveTo(w *codec.Writer) error {
	w.WriteInt32(int32(len(g.Components)))
	for _, p := range g.Components {
		p.SaveTo(w)
	}
	w.WriteUint32(g.Layer)
	w.WriteAlignedString(g.Name)
	w.WriteUint16(g.Tag)
	w.WriteBool(g.IsActive)
	w.Align4()
	return w.Err()
}

// FindLinkedComponent returns the first attached component of the given
// class, or nil. Unresolved component pointers are skipped.
func (g *GameObject) FindLinkedComponent(classID ClassID) Component {
	for _, p := range g.Components {
		if c := p.Instance(); !isNilObject(c) && c.ClassID2() == classID {
			return c
		}
	}
	return nil
}

// Transform returns the attached transform, or nil.
func (g *GameObject) Transform() TransformNode {
	for _, p := range g.Components {
		if t, ok := p.Instance().(TransformNode); ok {
			return t
		}
	}
	return nil
}

// AddLinkedComponent attaches c, a component of the same cabinet not yet
// attached elsewhere, and points its GameObject back at g.
func (g *GameObject) AddLinkedComponent(c Component) error {
	if isNilObject(c) {
		return fmt.Errorf("link nil component: %w", ErrInvalidOperation)
	}
	if c.Cabinet() != g.file {
		return fmt.Errorf("link %s %d from another cabinet: %w", c.ClassID2(), c.PathID(), ErrInvalidOperation)
	}
	if g.indexOf(c) >= 0 {
		return fmt.Errorf("link %s %d: %w: already linked", c.ClassID2(), c.PathID(), ErrInvalidOperation)
	}
	if owner := c.GameObject(); owner != nil && owner != g {
		return fmt.Errorf("link %s %d: %w: attached to GameObject %d", c.ClassID2(), c.PathID(), ErrInvalidOperation, owner.pathID)
	}
	g.Components = append(g.Components, NewPPtr(c, g.file))
	c.setGameObject(g)
	return nil
}

// RemoveLinkedComponent detaches c and clears its GameObject pointer.
func (g *GameObject) RemoveLinkedComponent(c Component) error {
	idx := g.indexOf(c)
	if idx < 0 {
		return fmt.Errorf("unlink component: %w: not linked to GameObject %d", ErrInvalidOperation, g.pathID)
	}
	g.Components = append(g.Components[:idx], g.Components[idx+1:]...)
	if c.GameObject() == g {
		c.setGameObject(nil)
	}
	return nil
}

func (g *GameObject) indexOf(c Component) int {
	if isNilObject(c) {
		return -1
	}
	for i, p := range g.Components {
		if inst := p.Instance(); !isNilObject(inst) && Object(inst) == Object(c) {
			return i
		}
	}
	return -1
}

// Clone copies g into target together with every resolvable component that
// supports cloning. A transform component brings its children along.
func (g *GameObject) Clone(target *Cabinet) (*GameObject, error) {
	s, err := newCloneState(g.file, target)
	if err != nil {
		return nil, err
	}
	dst, err := g.clone(s)
	if err != nil {
		s.rollback()
		return nil, err
	}
	return dst, nil
}

func (g *GameObject) clone(s *cloneState) (*GameObject, error) {
	if err := s.enter(g); err != nil {
		return nil, err
	}
	defer s.leave(g)

	dst := newGameObject(s.target, 0, g.classID1, g.classID2)
	dst.Layer, dst.Name, dst.Tag, dst.IsActive = g.Layer, g.Name, g.Tag, g.IsActive
	if err := s.register(dst); err != nil {
		return nil, err
	}
	for _, p := range g.Components {
		c := p.Instance()
		if isNilObject(c) {
			continue
		}
		cc, ok := c.(componentCloner)
		if !ok {
			g.file.logger.Debug("component not cloned",
				log.String("game_object", g.Name),
				log.String("class", c.ClassID2().String()),
				log.Int32("path_id", int32(c.PathID())),
			)
			continue
		}
		cloned, err := cc.cloneComponent(s)
		if err != nil {
			return nil, err
		}
		if err = dst.AddLinkedComponent(cloned); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

func (g *GameObject) describe(d *ObjectDump) {
	d.Name = g.Name
	d.Layer = g.Layer
	d.Tag = g.Tag
	active := g.IsActive
	d.Active = &active
	for _, p := range g.Components {
		d.Components = append(d.Components, *dumpPointer(p))
	}
}
