package asset

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/cabinet/internal/core/codec"
	"github.com/zeusync/cabinet/internal/core/observability/log"
)

const (
	FormatGeneration uint32 = 1

	maxPayloadSize = 1 << 30
)

var magic = [4]byte{'U', 'C', 'A', 'B'}

// loadState collects the pointers discovered while a load decodes fields.
type loadState struct {
	refs []*trackedRef
}

type record struct {
	offset   int64
	pathID   PathID
	classID1 ClassID
	classID2 ClassID
	payload  []byte
}

type snapshot struct {
	objects map[PathID]Object
	order   []PathID
	deps    []*Dependency
	refs    []*trackedRef
	digests map[PathID]uint64
}

// Load replaces the cabinet's content with the objects read from in.
//
// Objects are decoded first, then every pointer is resolved, then Transforms
// attach their children. Structural problems fail the whole load and leave
// the cabinet as it was. Pointers that do not resolve are not errors.
func (c *Cabinet) Load(in io.Reader) error {
	if c.closed {
		return ErrClosed
	}
	r := codec.NewReader(in)
	records, deps, err := c.readContainer(r)
	if err != nil {
		return err
	}

	prev := c.snapshot()
	c.objects = make(map[PathID]Object, len(records))
	c.order = make([]PathID, 0, len(records))
	c.deps = c.rebindDependencies(deps, prev.deps)
	c.refs = nil
	c.digests = make(map[PathID]uint64, len(records))
	c.loading = &loadState{}

	if err = c.decodeRecords(records); err != nil {
		c.loading = nil
		c.restore(prev)
		return err
	}

	// ids are observed only once the load can no longer fail
	for _, rec := range records {
		c.ids.Observe(rec.pathID)
	}
	refs := c.loading.refs
	c.loading = nil
	c.refs = refs
	unresolved := 0
	for _, t := range refs {
		switch c.resolveTracked(t) {
		case statusResolved, statusNull:
		default:
			unresolved++
		}
	}
	for _, id := range c.order {
		if p, ok := c.objects[id].(postResolver); ok {
			p.afterResolve()
		}
	}

	c.logger.Info("cabinet loaded",
		log.Int("objects", len(c.order)),
		log.Int("dependencies", len(c.deps)),
		log.Int("pointers", len(refs)),
		log.Int("unresolved", unresolved),
	)
	return nil
}

// malformed builds the error for a structural problem. A failing reader is
// reported as is, since the bytes it did deliver may be well formed.
func (c *Cabinet) malformed(offset int64, cause error, format string, args ...any) error {
	var re *codec.ReadError
	if errors.As(cause, &re) {
		return fmt.Errorf("load cabinet %q: %s: %w", c.name, fmt.Sprintf(format, args...), cause)
	}
	return &MalformedCabinetError{Cabinet: c.name, Offset: offset, Reason: fmt.Sprintf(format, args...), Cause: cause}
}

func (c *Cabinet) readContainer(r *codec.Reader) ([]record, []string, error) {
	head, err := r.ReadBytes(len(magic))
	if err != nil {
		return nil, nil, c.malformed(0, err, "header")
	}
	if !bytes.Equal(head, magic[:]) {
		return nil, nil, c.malformed(0, nil, "bad magic %q", head)
	}
	generation, err := r.ReadUint32()
	if err != nil {
		return nil, nil, c.malformed(r.Offset(), err, "header")
	}
	if generation != FormatGeneration {
		return nil, nil, c.malformed(4, nil, "unsupported generation %d", generation)
	}
	count, err := r.ReadInt32()
	if err != nil {
		return nil, nil, c.malformed(r.Offset(), err, "header")
	}
	if count < 0 {
		return nil, nil, c.malformed(8, nil, "negative object count %d", count)
	}

	records := make([]record, 0, min(int(count), 1024))
	seen := make(map[PathID]struct{}, min(int(count), 1024))
	for i := int32(0); i < count; i++ {
		rec, err := c.readRecord(r)
		if err != nil {
			return nil, nil, err
		}
		if rec.pathID == 0 {
			return nil, nil, c.malformed(rec.offset, nil, "object %d has path id 0", i)
		}
		if _, dup := seen[rec.pathID]; dup {
			return nil, nil, c.malformed(rec.offset, nil, "duplicate path id %d", rec.pathID)
		}
		seen[rec.pathID] = struct{}{}
		records = append(records, rec)
	}

	depOffset := r.Offset()
	depCount, err := r.ReadInt32()
	if err != nil {
		return nil, nil, c.malformed(depOffset, err, "dependency table")
	}
	if depCount < 0 {
		return nil, nil, c.malformed(depOffset, nil, "negative dependency count %d", depCount)
	}
	deps := make([]string, 0, min(int(depCount), 1024))
	for i := int32(0); i < depCount; i++ {
		name, err := r.ReadAlignedString()
		if err != nil {
			return nil, nil, c.malformed(r.Offset(), err, "dependency %d", i)
		}
		deps = append(deps, name)
	}

	end := r.Offset()
	if _, err = r.ReadBytes(1); err == nil {
		return nil, nil, c.malformed(end, nil, "trailing data after dependency table")
	} else if !errors.Is(err, codec.ErrTruncatedStream) {
		return nil, nil, c.malformed(end, err, "trailing data")
	}
	return records, deps, nil
}

func (c *Cabinet) readRecord(r *codec.Reader) (record, error) {
	rec := record{offset: r.Offset()}
	var ids [3]int32
	for i := range ids {
		v, err := r.ReadInt32()
		if err != nil {
			return rec, c.malformed(r.Offset(), err, "object header")
		}
		ids[i] = v
	}
	rec.pathID, rec.classID1, rec.classID2 = PathID(ids[0]), ClassID(ids[1]), ClassID(ids[2])
	size, err := r.ReadUint32()
	if err != nil {
		return rec, c.malformed(r.Offset(), err, "object header")
	}
	if size > maxPayloadSize {
		return rec, c.malformed(rec.offset, nil, "object %d payload of %d bytes", rec.pathID, size)
	}
	if rec.payload, err = r.ReadBytes(int(size)); err != nil {
		return rec, c.malformed(rec.offset, err, "object %d payload", rec.pathID)
	}
	return rec, nil
}

func (c *Cabinet) decodeRecords(records []record) error {
	objs := make([]Object, len(records))
	for i, rec := range records {
		obj, err := c.registry.build(c, c.unknown, rec.pathID, rec.classID1, rec.classID2)
		if err != nil {
			return c.malformed(rec.offset, err, "object %d", rec.pathID)
		}
		c.objects[rec.pathID] = obj
		c.order = append(c.order, rec.pathID)
		objs[i] = obj
	}
	for i, rec := range records {
		pr := codec.NewReader(bytes.NewReader(rec.payload))
		if err := objs[i].LoadFrom(pr); err != nil {
			return c.malformed(rec.offset+16+pr.Offset(), err, "decode %s %d", rec.classID2, rec.pathID)
		}
		if left := int64(len(rec.payload)) - pr.Offset(); left != 0 {
			return c.malformed(rec.offset+16+pr.Offset(), nil, "%d unread payload bytes in %s %d", left, rec.classID2, rec.pathID)
		}
		c.digests[rec.pathID] = xxhash.Sum64(rec.payload)
	}
	return nil
}

// rebindDependencies keeps cabinets already bound under the same name.
func (c *Cabinet) rebindDependencies(names []string, prev []*Dependency) []*Dependency {
	deps := make([]*Dependency, len(names))
	for i, name := range names {
		deps[i] = &Dependency{Name: name}
		for _, p := range prev {
			if p.Name == name {
				deps[i].cabinet = p.cabinet
				break
			}
		}
	}
	return deps
}

func (c *Cabinet) snapshot() snapshot {
	return snapshot{objects: c.objects, order: c.order, deps: c.deps, refs: c.refs, digests: c.digests}
}

func (c *Cabinet) restore(s snapshot) {
	c.objects, c.order, c.deps, c.refs, c.digests = s.objects, s.order, s.deps, s.refs, s.digests
}

// LoadFile loads the cabinet stored at path.
func (c *Cabinet) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open cabinet: %w", err)
	}
	defer func() { _ = f.Close() }()
	if err = c.Load(bufio.NewReader(f)); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Save writes every live object in table order, then the dependency table.
// Encoding a pointer may add a dependency, so payloads are encoded first.
func (c *Cabinet) Save(out io.Writer) error {
	if c.closed {
		return ErrClosed
	}
	payloads := make([][]byte, len(c.order))
	for i, id := range c.order {
		p, err := c.encode(c.objects[id])
		if err != nil {
			return err
		}
		payloads[i] = p
	}

	w := codec.NewWriter(out)
	w.WriteBytes(magic[:])
	w.WriteUint32(FormatGeneration)
	w.WriteInt32(int32(len(c.order)))
	for i, id := range c.order {
		obj := c.objects[id]
		w.WriteInt32(int32(id))
		w.WriteInt32(int32(obj.ClassID1()))
		w.WriteInt32(int32(obj.ClassID2()))
		w.WriteUint32(uint32(len(payloads[i])))
		w.WriteBytes(payloads[i])
	}
	w.WriteInt32(int32(len(c.deps)))
	for _, d := range c.deps {
		w.WriteAlignedString(d.Name)
	}
	if err := w.Err(); err != nil {
		return fmt.Errorf("save cabinet %q: %w", c.name, err)
	}
	c.logger.Debug("cabinet saved", log.Int("objects", len(c.order)), log.Int64("bytes", w.Written()))
	return nil
}

func (c *Cabinet) encode(obj Object) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeTo(codec.NewWriter(&buf), obj); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeTo(w *codec.Writer, obj Object) error {
	err := obj.SaveTo(w)
	if err == nil {
		err = w.Err()
	}
	if err != nil {
		return fmt.Errorf("encode %s %d: %w", obj.ClassID2(), obj.PathID(), err)
	}
	return nil
}

// SaveFile writes the cabinet next to path and renames it into place, so a
// failed save never leaves a partial file behind.
func (c *Cabinet) SaveFile(path string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = c.Save(bw); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", tmp.Name(), err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}
