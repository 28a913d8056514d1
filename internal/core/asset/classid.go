package asset

import "strconv"

// PathID identifies an object within one cabinet. 0 is the null pointer.
type PathID int32

// ClassID identifies an object kind. Every object carries two: ClassID1 is the
// type-tree slot it was serialized with and ClassID2 the concrete class.
// Decoders are selected by ClassID2.
type ClassID int32

const (
	ClassGameObject    ClassID = 1
	ClassTransform     ClassID = 4
	ClassMeshRenderer  ClassID = 23
	ClassMeshFilter    ClassID = 33
	ClassMesh          ClassID = 43
	ClassMonoBehaviour ClassID = 114
	ClassRectTransform ClassID = 224
)

var classNames = map[ClassID]string{
	ClassGameObject:    "GameObject",
	ClassTransform:     "Transform",
	ClassMeshRenderer:  "MeshRenderer",
	ClassMeshFilter:    "MeshFilter",
	ClassMesh:          "Mesh",
	ClassMonoBehaviour: "MonoBehaviour",
	ClassRectTransform: "RectTransform",
}

func (c ClassID) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return "Class" + strconv.Itoa(int(c))
}
