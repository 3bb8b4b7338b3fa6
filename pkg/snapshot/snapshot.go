package snapshot

import (
	"github.com/vango-dev/elemtree/internal/errors"
	"github.com/vango-dev/elemtree/pkg/registry"
)

// Snapshot is an append-only arena of elements built with a push/pop stack.
type Snapshot struct {
	tree     []Element
	roots    []ElementID
	stack    []ElementID
	registry *registry.Registry
}

// New creates an empty Snapshot that renders diagnostics with reg.
// A nil reg is allowed; every element then renders as a placeholder.
func New(reg *registry.Registry) *Snapshot {
	return &Snapshot{registry: reg}
}

// Registry returns the registry the Snapshot was created with.
func (s *Snapshot) Registry() *registry.Registry {
	return s.registry
}

// Clear empties the tree, roots and stack. The stack is not required to
// be empty, so Clear also recovers from an aborted build.
func (s *Snapshot) Clear() {
	// Drop payload references so they can be collected.
	clear(s.tree)
	s.tree = s.tree[:0]
	s.roots = s.roots[:0]
	s.stack = s.stack[:0]
}

// Len returns the number of elements in the arena.
func (s *Snapshot) Len() int {
	return len(s.tree)
}

// Get returns the element for id, or false if id is not in the current
// arena. The pointer is valid until the next Insert, Push or Clear.
func (s *Snapshot) Get(id ElementID) (*Element, bool) {
	if id.Index() >= len(s.tree) {
		return nil, false
	}
	return &s.tree[id], true
}

// Roots returns a copy of the top-level element ids in build order.
func (s *Snapshot) Roots() []ElementID {
	return append([]ElementID(nil), s.roots...)
}

// Depth returns the number of open scopes.
func (s *Snapshot) Depth() int {
	return len(s.stack)
}

// Top returns the element that will parent the next insert.
func (s *Snapshot) Top() (ElementID, bool) {
	if len(s.stack) == 0 {
		return 0, false
	}
	return s.stack[len(s.stack)-1], true
}

// Insert appends el to the arena and links it under the element on top of
// the stack, or as a root when the stack is empty.
func (s *Snapshot) Insert(el Element) ElementID {
	id := ElementID(len(s.tree))

	if top, ok := s.Top(); ok {
		parent := &s.tree[top]
		parent.Children = append(parent.Children, id)
	} else {
		s.roots = append(s.roots, id)
	}

	s.tree = append(s.tree, el)
	return id
}

// Push inserts el and opens it as the parent of subsequent inserts.
func (s *Snapshot) Push(el Element) ElementID {
	id := s.Insert(el)
	s.stack = append(s.stack, id)
	return id
}

// Pop closes the scope opened by Push(id).
//
// Pop panics with an *errors.TreeError if the stack is empty (E201) or if
// id is not the element on top of the stack (E202).
func (s *Snapshot) Pop(id ElementID) {
	top, ok := s.Top()
	if !ok {
		panic(errors.New("E201").WithDetailf("Pop(%d) called with an empty stack.", id))
	}
	open := s.openChain()
	s.stack = s.stack[:len(s.stack)-1]
	if top != id {
		panic(errors.New("E202").
			WithDetailf("Pop(%d) called but %d is on top of the stack.", id, top).
			WithStack(open))
	}
}

// Scope pushes el, calls fn with its id, and pops it again when fn returns,
// however fn returns. A panic inside fn is not intercepted: it aborts the
// build pass and the stack is left for Clear.
func (s *Snapshot) Scope(el Element, fn func(id ElementID)) ElementID {
	id := s.Push(el)
	if fn != nil {
		fn(id)
	}
	s.Pop(id)
	return id
}

// Walk visits every element depth-first, roots in build order and children
// in insertion order. Returning false from fn skips the element's subtree.
func (s *Snapshot) Walk(fn func(id ElementID, depth int) bool) {
	for _, root := range s.roots {
		s.walk(root, 0, fn)
	}
}

func (s *Snapshot) walk(id ElementID, depth int, fn func(ElementID, int) bool) {
	if !fn(id, depth) {
		return
	}
	for _, child := range s.tree[id].Children {
		s.walk(child, depth+1, fn)
	}
}

// OpenChain returns the open ancestor chain, outermost first.
func (s *Snapshot) OpenChain() []ElementID {
	return append([]ElementID(nil), s.stack...)
}

func (s *Snapshot) openChain() []uint32 {
	chain := make([]uint32, len(s.stack))
	for i, id := range s.stack {
		chain[i] = uint32(id)
	}
	return chain
}
