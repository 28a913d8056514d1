package asset

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/zeusync/cabinet/internal/core/codec"
)

// RectTransform is a Transform laid out against its parent's rectangle.
type RectTransform struct {
	Transform

	AnchorMin        mgl32.Vec2
	AnchorMax        mgl32.Vec2
	AnchoredPosition mgl32.Vec2
	SizeDelta        mgl32.Vec2
	Pivot            mgl32.Vec2
}

func newRectTransform(file *Cabinet, pathID PathID, c1, c2 ClassID) *RectTransform {
	rt := &RectTransform{Pivot: mgl32.Vec2{0.5, 0.5}}
	rt.init(file, pathID, c1, c2, rt)
	return rt
}

// NewRectTransform creates a root rect transform registered in file.
func NewRectTransform(file *Cabinet) (*RectTransform, error) {
	rt := newRectTransform(file, 0, ClassRectTransform, ClassRectTransform)
	if err := file.ReplaceSubfile(-1, rt, nil); err != nil {
		return nil, err
	}
	return rt, nil
}

func (rt *RectTransform) rect() []*mgl32.Vec2 {
	return []*mgl32.Vec2{&rt.AnchorMin, &rt.AnchorMax, &rt.AnchoredPosition, &rt.SizeDelta, &rt.Pivot}
}

func (rt *RectTransform) LoadFrom(r *codec.Reader) error {
	if err := rt.Transform.LoadFrom(r); err != nil {
		return err
	}
	for _, v := range rt.rect() {
		var err error
		if *v, err = r.ReadVector2(); err != nil {
			return err
		}
	}
	return nil
}

func (rt *RectTransform) SaveTo(w *codec.Writer) error {
	if err := rt.Transform.SaveTo(w); err != nil {
		return err
	}
	for _, v := range rt.rect() {
		w.WriteVector2(*v)
	}
	return w.Err()
}

func (rt *RectTransform) cloneShell(s *cloneState) (TransformNode, error) {
	dst := newRectTransform(s.target, 0, rt.classID1, rt.classID2)
	rt.copyLocal(&dst.Transform)
	dst.AnchorMin, dst.AnchorMax = rt.AnchorMin, rt.AnchorMax
	dst.AnchoredPosition, dst.SizeDelta, dst.Pivot = rt.AnchoredPosition, rt.SizeDelta, rt.Pivot
	if err := s.register(dst); err != nil {
		return nil, err
	}
	return dst, nil
}

func (rt *RectTransform) describe(d *ObjectDump) {
	rt.Transform.describe(d)
	d.Transform.Rect = &RectDump{
		AnchorMin:        rt.AnchorMin,
		AnchorMax:        rt.AnchorMax,
		AnchoredPosition: rt.AnchoredPosition,
		SizeDelta:        rt.SizeDelta,
		Pivot:            rt.Pivot,
	}
}
