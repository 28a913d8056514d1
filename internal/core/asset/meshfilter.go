package asset

import (
	"github.com/zeusync/cabinet/internal/core/codec"
)

// MeshFilter links a GameObject to a mesh, usually kept in a shared cabinet.
type MeshFilter struct {
	ComponentBase
	Mesh *PPtr[Object]
}

func newMeshFilter(file *Cabinet, pathID PathID, c1, c2 ClassID) *MeshFilter {
	m := &MeshFilter{}
	m.ObjectBase = newObjectBase(file, pathID, c1, c2)
	m.GameObjectPtr = NullPPtr[*GameObject](file)
	m.Mesh = NullPPtr[Object](file)
	return m
}

// NewMeshFilter creates a MeshFilter registered in file pointing at mesh,
// which may live in another cabinet.
func NewMeshFilter(file *Cabinet, mesh Object) (*MeshFilter, error) {
	m := newMeshFilter(file, 0, ClassMeshFilter, ClassMeshFilter)
	if err := file.ReplaceSubfile(-1, m, nil); err != nil {
		return nil, err
	}
	m.Mesh = NewPPtr(mesh, file)
	return m, nil
}

func (m *MeshFilter) LoadFrom(r *codec.Reader) error {
	var err error
	if m.GameObjectPtr, err = ReadPPtr[*GameObject](r, m, "m_GameObject"); err != nil {
		return err
	}
	m.Mesh, err = ReadPPtr[Object](r, m, "m_Mesh")
	return err
}

func (m *MeshFilter) SaveTo(w *codec.Writer) error {
	m.GameObjectPtr.SaveTo(w)
	m.Mesh.SaveTo(w)
	return w.Err()
}

func (m *MeshFilter) cloneComponent(s *cloneState) (Component, error) {
	dst := newMeshFilter(s.target, 0, m.classID1, m.classID2)
	if err := s.register(dst); err != nil {
		return nil, err
	}
	dst.Mesh = m.Mesh.Rebase(s.target)
	if !dst.Mesh.IsNull() {
		s.target.remember(dst.Mesh, dst, "m_Mesh")
	}
	return dst, nil
}

func (m *MeshFilter) describe(d *ObjectDump) {
	d.GameObject = dumpPointer(m.GameObjectPtr)
	d.Mesh = dumpPointer(m.Mesh)
}
