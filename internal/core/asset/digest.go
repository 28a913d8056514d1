package asset

import (
	"bytes"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/cabinet/internal/core/codec"
	"github.com/zeusync/cabinet/pkg/generic"
)

var digestBuffers = generic.NewPool(func() *bytes.Buffer { return new(bytes.Buffer) }, (*bytes.Buffer).Reset)

// Modified returns the live objects whose encoded form differs from what was
// loaded. Objects created after the load are always reported.
func (c *Cabinet) Modified() ([]Object, error) {
	if c.closed {
		return nil, ErrClosed
	}
	var out []Object
	for _, id := range c.order {
		obj := c.objects[id]
		sum, err := digestOf(obj)
		if err != nil {
			return nil, err
		}
		if prev, ok := c.digests[id]; !ok || prev != sum {
			out = append(out, obj)
		}
	}
	return out, nil
}

// Digest hashes the cabinet's saved form.
func (c *Cabinet) Digest() (uint64, error) {
	d := xxhash.New()
	if err := c.Save(d); err != nil {
		return 0, err
	}
	return d.Sum64(), nil
}

func digestOf(obj Object) (uint64, error) {
	return generic.With(digestBuffers, func(buf *bytes.Buffer) (uint64, error) {
		if err := encodeTo(codec.NewWriter(buf), obj); err != nil {
			return 0, err
		}
		return xxhash.Sum64(buf.Bytes()), nil
	})
}
