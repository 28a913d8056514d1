package asset

import (
	"github.com/zeusync/cabinet/internal/core/codec"
)

// RawObject keeps the payload of a class with no registered decoder so it
// can be written back unchanged. Its pointers, if any, are not visible.
type RawObject struct {
	ObjectBase
	Payload []byte
}

func newRawObject(file *Cabinet, pathID PathID, c1, c2 ClassID) *RawObject {
	return &RawObject{ObjectBase: newObjectBase(file, pathID, c1, c2)}
}

func (o *RawObject) LoadFrom(r *codec.Reader) error {
	var err error
	o.Payload, err = r.ReadAll()
	return err
}

func (o *RawObject) SaveTo(w *codec.Writer) error {
	w.WriteBytes(o.Payload)
	return w.Err()
}

// GameObject is always nil: the owner is inside the opaque payload.
func (o *RawObject) GameObject() *GameObject { return nil }

func (o *RawObject) setGameObject(*GameObject) {}

func (o *RawObject) describe(d *ObjectDump) {
	d.Size = len(o.Payload)
}
