package asset

import (
	"fmt"

	"github.com/zeusync/cabinet/internal/core/observability/log"
	"github.com/zeusync/cabinet/pkg/sequence"
)

// Dependency is an entry of a cabinet's external file table. fileID n refers
// to the (n-1)-th entry.
type Dependency struct {
	Name    string
	cabinet *Cabinet
}

// Cabinet returns the bound cabinet, or nil while the dependency is not loaded.
func (d *Dependency) Cabinet() *Cabinet {
	return d.cabinet
}

type trackedRef struct {
	ref   reference
	owner Object
	field string
}

// Cabinet owns a set of objects keyed by path id and the list of cabinets
// its pointers may reach into.
//
// A Cabinet is not safe for concurrent use; callers serialize access.
type Cabinet struct {
	name     string
	registry *Registry
	logger   log.Log
	ids      *IDAllocator
	unknown  UnknownClassPolicy

	objects map[PathID]Object
	order   []PathID
	deps    []*Dependency

	// pointers read by the last load, kept for Unresolved and late binding
	refs    []*trackedRef
	digests map[PathID]uint64

	loading *loadState
	closed  bool
}

type Option func(*Cabinet)

func WithRegistry(r *Registry) Option {
	return func(c *Cabinet) { c.registry = r }
}

func WithLogger(l log.Log) Option {
	return func(c *Cabinet) { c.logger = l }
}

// WithAllocator shares a path id allocator with other cabinets.
func WithAllocator(a *IDAllocator) Option {
	return func(c *Cabinet) { c.ids = a }
}

func WithUnknownClasses(p UnknownClassPolicy) Option {
	return func(c *Cabinet) { c.unknown = p }
}

// New creates an empty cabinet.
func New(name string, opts ...Option) *Cabinet {
	c := &Cabinet{
		name:    name,
		objects: make(map[PathID]Object),
		digests: make(map[PathID]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry == nil {
		c.registry = DefaultRegistry()
	}
	if c.logger == nil {
		c.logger = log.NewNop()
	}
	if c.ids == nil {
		c.ids = NewIDAllocator()
	}
	c.logger = c.logger.With(log.String("cabinet", name))
	return c
}

func (c *Cabinet) Name() string {
	return c.name
}

func (c *Cabinet) Len() int {
	return len(c.order)
}

func (c *Cabinet) IsClosed() bool {
	return c.closed
}

// Lookup returns the object with the given path id.
func (c *Cabinet) Lookup(id PathID) (Object, error) {
	if c.closed {
		return nil, ErrClosed
	}
	obj := c.lookup(id)
	if obj == nil {
		return nil, fmt.Errorf("path id %d in %q: %w", id, c.name, ErrNotFound)
	}
	return obj, nil
}

func (c *Cabinet) lookup(id PathID) Object {
	if c == nil || c.closed {
		return nil
	}
	return c.objects[id]
}

// Objects iterates the live objects in table order.
func (c *Cabinet) Objects() *sequence.Iterator[Object] {
	out := make([]Object, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.objects[id])
	}
	return sequence.From(out)
}

// ObjectsOfClass iterates the objects whose concrete class is id.
func (c *Cabinet) ObjectsOfClass(id ClassID) *sequence.Iterator[Object] {
	return c.Objects().Filter(func(o Object) bool { return o.ClassID2() == id })
}

// Dependencies returns the external file table; index i is fileID i+1.
func (c *Cabinet) Dependencies() []*Dependency {
	return append([]*Dependency(nil), c.deps...)
}

// AddDependency returns the fileID for name, appending an entry if absent.
func (c *Cabinet) AddDependency(name string) int32 {
	for i, d := range c.deps {
		if d.Name == name {
			return int32(i + 1)
		}
	}
	c.deps = append(c.deps, &Dependency{Name: name})
	return int32(len(c.deps))
}

// BindDependency makes a loaded cabinet available under name and resolves
// the pointers that were waiting for it. It reports how many resolved.
func (c *Cabinet) BindDependency(name string, dep *Cabinet) int {
	for i, d := range c.deps {
		if d.Name == name {
			return c.bindIndex(i, dep)
		}
	}
	return 0
}

func (c *Cabinet) bindIndex(i int, dep *Cabinet) int {
	c.deps[i].cabinet = dep
	fileID := int32(i + 1)
	resolved := 0
	for _, t := range c.refs {
		if f, _ := t.ref.Raw(); f != fileID || t.ref.IsResolved() || !c.owns(t.owner) {
			continue
		}
		if c.resolveTracked(t) == statusResolved {
			resolved++
		}
	}
	c.logger.Debug("dependency bound",
		log.String("dependency", c.deps[i].Name),
		log.Int32("file_id", fileID),
		log.Int("resolved", resolved),
	)
	return resolved
}

func (c *Cabinet) dependencyName(fileID int32) (string, bool) {
	if fileID < 1 || int(fileID) > len(c.deps) {
		return "", false
	}
	return c.deps[fileID-1].Name, true
}

// fileIDOf returns the fileID under which obj is reachable from c,
// registering obj's cabinet as a dependency if needed.
func (c *Cabinet) fileIDOf(obj Object) int32 {
	other := obj.Cabinet()
	if other == nil || other == c {
		return 0
	}
	for i, d := range c.deps {
		if d.cabinet == other {
			return int32(i + 1)
		}
	}
	for i, d := range c.deps {
		if d.cabinet == nil && d.Name == other.name {
			c.bindIndex(i, other)
			return int32(i + 1)
		}
	}
	c.deps = append(c.deps, &Dependency{Name: other.name, cabinet: other})
	return int32(len(c.deps))
}

func (c *Cabinet) locate(fileID int32, pathID PathID) (Object, resolveStatus) {
	if c.closed {
		return nil, statusClosed
	}
	target := c
	if fileID != 0 {
		if fileID < 0 || int(fileID) > len(c.deps) {
			return nil, statusNoDependency
		}
		target = c.deps[fileID-1].cabinet
		if target == nil {
			return nil, statusDeferred
		}
		if target.closed {
			return nil, statusClosed
		}
	}
	obj := target.objects[pathID]
	if obj == nil {
		return nil, statusMissing
	}
	return obj, statusResolved
}

func (c *Cabinet) owns(obj Object) bool {
	return !isNilObject(obj) && c.lookup(obj.PathID()) == obj
}

// track registers a pointer read from a stream. During a load it waits for the
// resolution pass; outside a load the table is complete and it resolves now.
func (c *Cabinet) track(ref reference, owner Object, field string) {
	t := &trackedRef{ref: ref, owner: owner, field: field}
	if c.loading != nil {
		c.loading.refs = append(c.loading.refs, t)
		return
	}
	c.refs = append(c.refs, t)
	c.resolveTracked(t)
}

func (c *Cabinet) resolveTracked(t *trackedRef) resolveStatus {
	status := t.ref.resolve()
	switch status {
	case statusResolved, statusNull:
	case statusDeferred:
		c.logger.Debug("reference deferred", c.refFields(t, status)...)
	default:
		c.logger.Warn("unresolved reference", c.refFields(t, status)...)
	}
	return status
}

func (c *Cabinet) refFields(t *trackedRef, status resolveStatus) []log.Field {
	fileID, pathID := t.ref.Raw()
	return []log.Field{
		log.Int32("object", int32(t.owner.PathID())),
		log.String("class", t.owner.ClassID2().String()),
		log.String("field", t.field),
		log.Int32("file_id", fileID),
		log.Int32("path_id", int32(pathID)),
		log.String("reason", status.String()),
	}
}

// Unresolved lists the non-null pointers of live objects that do not
// currently resolve.
func (c *Cabinet) Unresolved() []UnresolvedReferenceWarning {
	var out []UnresolvedReferenceWarning
	for _, t := range c.refs {
		if t.ref.IsNull() || !c.owns(t.owner) || t.ref.IsResolved() {
			continue
		}
		fileID, pathID := t.ref.Raw()
		_, status := c.locate(fileID, pathID)
		if status == statusResolved {
			status = statusTypeMismatch
		}
		out = append(out, UnresolvedReferenceWarning{
			Cabinet:    c.name,
			Owner:      t.owner.PathID(),
			OwnerClass: t.owner.ClassID2(),
			Field:      t.field,
			FileID:     fileID,
			PathID:     pathID,
			Reason:     status.String(),
		})
	}
	return out
}

// ReplaceSubfile registers obj.
//
// With previous set, obj takes previous's path id and table position and
// previous is detached. Otherwise obj keeps its path id, or gets a fresh one
// when it has none, and is inserted at index (-1 appends). An object already
// holding that path id is overwritten in place so ids stay unique.
func (c *Cabinet) ReplaceSubfile(index int, obj Object, previous Object) error {
	if c.closed {
		return ErrClosed
	}
	if isNilObject(obj) {
		return fmt.Errorf("replace subfile with nil object: %w", ErrInvalidOperation)
	}
	b := obj.base()
	if b.file != c {
		return fmt.Errorf("replace subfile: %w: object %d belongs to %q", ErrInvalidOperation, b.pathID, b.file.Name())
	}

	if !isNilObject(previous) {
		if !c.owns(previous) {
			return fmt.Errorf("replace object %d: %w", previous.PathID(), ErrNotFound)
		}
		if previous == obj {
			return nil
		}
		if c.owns(obj) {
			return fmt.Errorf("replace object %d: %w: replacement %d already registered", previous.PathID(), ErrInvalidOperation, b.pathID)
		}
		c.detach(previous)
		b.pathID = previous.PathID()
		c.objects[b.pathID] = obj
		delete(c.digests, b.pathID)
		return nil
	}

	if index < -1 || index > len(c.order) {
		return fmt.Errorf("insert at %d of %d: %w", index, len(c.order), ErrIndexOutOfRange)
	}
	if b.pathID == 0 {
		id, err := c.ids.Next()
		if err != nil {
			return fmt.Errorf("register %s in %q: %w", obj.ClassID2(), c.name, err)
		}
		b.pathID = id
	} else {
		c.ids.Observe(b.pathID)
	}

	if existing := c.objects[b.pathID]; existing != nil {
		if existing == obj {
			return nil
		}
		c.logger.Info("overwriting object with colliding path id",
			log.Int32("path_id", int32(b.pathID)),
			log.String("old_class", existing.ClassID2().String()),
			log.String("new_class", obj.ClassID2().String()),
		)
		c.detach(existing)
		c.objects[b.pathID] = obj
		delete(c.digests, b.pathID)
		return nil
	}

	switch {
	case index == -1 || index == len(c.order):
		c.order = append(c.order, b.pathID)
	default:
		c.order = append(c.order, 0)
		copy(c.order[index+1:], c.order[index:])
		c.order[index] = b.pathID
	}
	c.objects[b.pathID] = obj
	return nil
}

// RemoveSubfile drops obj from the table. It is detached from its parent,
// its children become roots, and pointers to it read as unresolved.
func (c *Cabinet) RemoveSubfile(obj Object) error {
	if c.closed {
		return ErrClosed
	}
	if !c.owns(obj) {
		return fmt.Errorf("remove object: %w", ErrNotFound)
	}
	c.detach(obj)
	id := obj.PathID()
	delete(c.objects, id)
	delete(c.digests, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (c *Cabinet) detach(obj Object) {
	if h, ok := obj.(hierarchyNode); ok {
		h.detachHierarchy()
	}
}

// Close ends the cabinet's lifetime. Every pointer into it degrades to
// unresolved; the cabinet cannot be used afterwards.
func (c *Cabinet) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.objects = nil
	c.order = nil
	c.refs = nil
	c.digests = nil
	for _, d := range c.deps {
		d.cabinet = nil
	}
}

// remember keeps a pointer that was resolved by its owner for Unresolved and
// late binding, without resolving or logging it again.
func (c *Cabinet) remember(ref reference, owner Object, field string) {
	c.refs = append(c.refs, &trackedRef{ref: ref, owner: owner, field: field})
}
