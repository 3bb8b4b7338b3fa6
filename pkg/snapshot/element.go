package snapshot

import (
	"strconv"

	"github.com/vango-dev/elemtree/pkg/registry"
)

// ElementID addresses one element in a Snapshot. IDs are assigned densely
// from zero and stay valid until the Snapshot is cleared.
type ElementID uint32

// String returns the decimal index.
func (id ElementID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Index returns id as a slice index.
func (id ElementID) Index() int {
	return int(id)
}

// Element is one node of the tree: a typed, opaque payload and its children.
type Element struct {
	TypeID   registry.TypeID // Type the element was created for
	Props    any             // Payload, owned by the element
	Children []ElementID     // In insertion order
}

// NewElement creates an element for type T carrying props.
func NewElement[T, P any](props P) Element {
	return Element{
		TypeID: registry.TypeOf[T](),
		Props:  props,
	}
}

// HasChildren reports whether the element has any children.
func (e *Element) HasChildren() bool {
	return len(e.Children) > 0
}
