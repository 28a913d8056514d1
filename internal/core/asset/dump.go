package asset

import (
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// CabinetDump is a plain view of a cabinet's graph, for display and diffing.
type CabinetDump struct {
	Name         string           `yaml:"name"`
	Dependencies []DependencyDump `yaml:"dependencies,omitempty"`
	Objects      []ObjectDump     `yaml:"objects"`
	Unresolved   []UnresolvedDump `yaml:"unresolved,omitempty"`
}

type DependencyDump struct {
	FileID int32  `yaml:"file_id"`
	Name   string `yaml:"name"`
	Loaded bool   `yaml:"loaded"`
}

type ObjectDump struct {
	PathID   PathID     `yaml:"path_id"`
	Class    string     `yaml:"class"`
	ClassIDs [2]ClassID `yaml:"class_ids,flow"`
	Name     string     `yaml:"name,omitempty"`

	Layer      uint32        `yaml:"layer,omitempty"`
	Tag        uint16        `yaml:"tag,omitempty"`
	Active     *bool         `yaml:"active,omitempty"`
	Components []PointerDump `yaml:"components,omitempty"`

	GameObject *PointerDump   `yaml:"game_object,omitempty"`
	Transform  *TransformDump `yaml:"transform,omitempty"`
	Mesh       *PointerDump   `yaml:"mesh,omitempty"`
	Size       int            `yaml:"size,omitempty"`
}

type PointerDump struct {
	FileID   int32  `yaml:"file_id"`
	PathID   PathID `yaml:"path_id"`
	Resolved bool   `yaml:"resolved"`
}

type TransformDump struct {
	Position        mgl32.Vec3    `yaml:"position,flow"`
	Rotation        [4]float32    `yaml:"rotation,flow"`
	Scale           mgl32.Vec3    `yaml:"scale,flow"`
	Parent          PathID        `yaml:"parent,omitempty"`
	Children        []PathID      `yaml:"children,omitempty,flow"`
	UnknownChildren []PointerDump `yaml:"unknown_children,omitempty"`
	Path            string        `yaml:"path,omitempty"`
	Rect            *RectDump     `yaml:"rect,omitempty"`
}

type RectDump struct {
	AnchorMin        mgl32.Vec2 `yaml:"anchor_min,flow"`
	AnchorMax        mgl32.Vec2 `yaml:"anchor_max,flow"`
	AnchoredPosition mgl32.Vec2 `yaml:"anchored_position,flow"`
	SizeDelta        mgl32.Vec2 `yaml:"size_delta,flow"`
	Pivot            mgl32.Vec2 `yaml:"pivot,flow"`
}

type UnresolvedDump struct {
	Object PathID `yaml:"object"`
	Field  string `yaml:"field"`
	FileID int32  `yaml:"file_id"`
	PathID PathID `yaml:"path_id"`
	Reason string `yaml:"reason"`
}

func dumpPointer[T Object](p *PPtr[T]) *PointerDump {
	fileID, pathID := p.Raw()
	return &PointerDump{FileID: fileID, PathID: pathID, Resolved: p.IsResolved()}
}

// Dump builds the graph view of c in table order.
func (c *Cabinet) Dump() (*CabinetDump, error) {
	if c.closed {
		return nil, ErrClosed
	}
	d := &CabinetDump{Name: c.name, Objects: make([]ObjectDump, 0, len(c.order))}
	for i, dep := range c.deps {
		d.Dependencies = append(d.Dependencies, DependencyDump{
			FileID: int32(i + 1),
			Name:   dep.Name,
			Loaded: dep.cabinet != nil && !dep.cabinet.closed,
		})
	}
	for _, id := range c.order {
		obj := c.objects[id]
		od := ObjectDump{
			PathID:   id,
			Class:    obj.ClassID2().String(),
			ClassIDs: [2]ClassID{obj.ClassID1(), obj.ClassID2()},
		}
		if dd, ok := obj.(dumper); ok {
			dd.describe(&od)
		}
		d.Objects = append(d.Objects, od)
	}
	for _, w := range c.Unresolved() {
		d.Unresolved = append(d.Unresolved, UnresolvedDump{
			Object: w.Owner,
			Field:  w.Field,
			FileID: w.FileID,
			PathID: w.PathID,
			Reason: w.Reason,
		})
	}
	return d, nil
}

// WriteYAML encodes Dump to out.
func (c *Cabinet) WriteYAML(out io.Writer) error {
	d, err := c.Dump()
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err = enc.Encode(d); err != nil {
		return fmt.Errorf("encode dump of %q: %w", c.name, err)
	}
	return enc.Close()
}
