package asset

import (
	"github.com/zeusync/cabinet/internal/core/codec"
)

type resolveStatus uint8

const (
	statusResolved resolveStatus = iota
	statusNull
	statusMissing
	statusDeferred
	statusNoDependency
	statusTypeMismatch
	statusClosed
)

func (s resolveStatus) String() string {
	switch s {
	case statusResolved:
		return "resolved"
	case statusNull:
		return "null"
	case statusMissing:
		return "object not in cabinet"
	case statusDeferred:
		return "dependency not loaded"
	case statusNoDependency:
		return "file id outside dependency table"
	case statusTypeMismatch:
		return "target has unexpected class"
	case statusClosed:
		return "cabinet closed"
	default:
		return "unknown"
	}
}

// PPtr is a deferred reference to an object, possibly in another cabinet.
//
// The raw (fileID, pathID) pair read from disk or captured at construction is
// kept verbatim. The resolved instance is a cache over that pair: it is
// re-validated against the target's table on every access, so a pointer whose
// target was removed reads as unresolved instead of dangling.
type PPtr[T Object] struct {
	fileID int32
	pathID PathID

	file     *Cabinet // the referencing cabinet; fileID is relative to it
	instance T
	resolved bool

	classID1 ClassID
	classID2 ClassID
}

// reference is the type-erased view the cabinet keeps of tracked pointers.
type reference interface {
	Raw() (int32, PathID)
	IsNull() bool
	IsResolved() bool
	resolve() resolveStatus
}

// ReadPPtr reads fileID then pathID and registers the pointer with the owner's
// cabinet for the resolution pass. It never resolves.
func ReadPPtr[T Object](r *codec.Reader, owner Object, field string) (*PPtr[T], error) {
	p, err := readRawPPtr[T](r, owner.Cabinet())
	if err != nil {
		return nil, err
	}
	owner.Cabinet().track(p, owner, field)
	return p, nil
}

func readRawPPtr[T Object](r *codec.Reader, file *Cabinet) (*PPtr[T], error) {
	fileID, err := r.ReadInt32()
	if err != nil {
		return nil, err
	}
	pathID, err := r.ReadInt32()
	if err != nil {
		return nil, err
	}
	return &PPtr[T]{fileID: fileID, pathID: PathID(pathID), file: file}, nil
}

// NewPPtr points at obj from file. fileID is 0 when obj lives in file,
// otherwise the 1-based index of obj's cabinet in file's dependency list,
// which is extended when needed. A nil obj gives the null pointer.
func NewPPtr[T Object](obj T, file *Cabinet) *PPtr[T] {
	if isNilObject(obj) {
		return NullPPtr[T](file)
	}
	p := &PPtr[T]{
		fileID:   file.fileIDOf(obj),
		pathID:   obj.PathID(),
		file:     file,
		instance: obj,
		resolved: true,
		classID1: obj.ClassID1(),
		classID2: obj.ClassID2(),
	}
	return p
}

// NullPPtr is the (0, 0) pointer.
func NullPPtr[T Object](file *Cabinet) *PPtr[T] {
	return &PPtr[T]{file: file}
}

// Raw returns the stored pair, independent of resolution.
func (p *PPtr[T]) Raw() (int32, PathID) {
	if p == nil {
		return 0, 0
	}
	return p.fileID, p.pathID
}

func (p *PPtr[T]) FileID() int32 {
	fileID, _ := p.Raw()
	return fileID
}

func (p *PPtr[T]) PathID() PathID {
	_, pathID := p.Raw()
	return pathID
}

func (p *PPtr[T]) IsNull() bool {
	return p == nil || p.pathID == 0
}

// IsResolved reports whether Instance currently yields a live object.
func (p *PPtr[T]) IsResolved() bool {
	if p == nil || !p.resolved {
		return false
	}
	if p.live() {
		return true
	}
	return p.resolve() == statusResolved
}

// Instance returns the target, or the zero value while unresolved.
func (p *PPtr[T]) Instance() T {
	var zero T
	if !p.IsResolved() {
		return zero
	}
	return p.instance
}

// ClassIDs returns the class pair of the resolved target.
func (p *PPtr[T]) ClassIDs() (ClassID, ClassID, bool) {
	if !p.IsResolved() {
		return 0, 0, false
	}
	return p.classID1, p.classID2, true
}

// Set re-points p at obj. The raw pair follows the new target.
func (p *PPtr[T]) Set(obj T) {
	*p = *NewPPtr(obj, p.file)
}

func (p *PPtr[T]) live() bool {
	obj := Object(p.instance)
	if isNilObject(obj) {
		return false
	}
	f := obj.Cabinet()
	return f != nil && f.lookup(obj.PathID()) == obj
}

func (p *PPtr[T]) resolve() resolveStatus {
	var zero T
	p.instance, p.resolved = zero, false
	if p.pathID == 0 {
		return statusNull
	}
	if p.file == nil {
		return statusMissing
	}
	target, status := p.file.locate(p.fileID, p.pathID)
	if status != statusResolved {
		return status
	}
	typed, ok := target.(T)
	if !ok {
		return statusTypeMismatch
	}
	p.instance = typed
	p.resolved = true
	p.classID1 = target.ClassID1()
	p.classID2 = target.ClassID2()
	return statusResolved
}

// SaveTo writes the live target's ids when resolved, the raw pair otherwise.
func (p *PPtr[T]) SaveTo(w *codec.Writer) {
	fileID, pathID := p.Raw()
	if p.IsResolved() {
		fileID = p.file.fileIDOf(Object(p.instance))
		pathID = p.instance.PathID()
	}
	w.WriteInt32(fileID)
	w.WriteInt32(int32(pathID))
}

// Rebase expresses p relative to dst. Resolved targets are re-pointed,
// unresolved foreign pointers are carried over through the dependency name,
// unresolved local pointers cannot be expressed and become null.
func (p *PPtr[T]) Rebase(dst *Cabinet) *PPtr[T] {
	if p == nil {
		return NullPPtr[T](dst)
	}
	if p.IsResolved() {
		return NewPPtr(p.instance, dst)
	}
	if p.file == dst {
		cp := &PPtr[T]{fileID: p.fileID, pathID: p.pathID, file: dst}
		cp.resolve()
		return cp
	}
	if p.fileID == 0 || p.file == nil {
		return NullPPtr[T](dst)
	}
	name, ok := p.file.dependencyName(p.fileID)
	if !ok {
		return NullPPtr[T](dst)
	}
	cp := &PPtr[T]{fileID: dst.AddDependency(name), pathID: p.pathID, file: dst}
	cp.resolve()
	return cp
}
