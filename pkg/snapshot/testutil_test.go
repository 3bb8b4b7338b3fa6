package snapshot

import (
	"fmt"
	"testing"

	"github.com/vango-dev/elemtree/internal/errors"
	"github.com/vango-dev/elemtree/pkg/registry"
)

type box struct{}

type boxProps struct {
	Name string
}

type text struct{}

type unregistered struct{}

func testRegistry() *registry.Registry {
	reg := registry.New()
	registry.MustRegisterType[box](reg, "box", func(p boxProps) string {
		return "Box(" + p.Name + ")"
	})
	registry.MustRegisterType[text](reg, "text", func(s string) string {
		return fmt.Sprintf("Text(%s)", s)
	})
	return reg
}

func boxEl(name string) Element {
	return NewElement[box](boxProps{Name: name})
}

func textEl(s string) Element {
	return NewElement[text](s)
}

// catchTreeError runs fn and returns the *errors.TreeError it panicked with.
func catchTreeError(t *testing.T, fn func()) (te *errors.TreeError) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		var ok bool
		te, ok = r.(*errors.TreeError)
		if !ok {
			t.Fatalf("panic value = %#v, want *errors.TreeError", r)
		}
	}()
	fn()
	return nil
}

// checkPartition verifies that roots and all children cover every arena
// index exactly once.
func checkPartition(t *testing.T, s *Snapshot) {
	t.Helper()
	seen := make(map[ElementID]int, s.Len())
	for _, id := range s.Roots() {
		seen[id]++
	}
	for i := 0; i < s.Len(); i++ {
		el, _ := s.Get(ElementID(i))
		for _, child := range el.Children {
			if child <= ElementID(i) {
				t.Errorf("child %d of %d is not later-indexed", child, i)
			}
			seen[child]++
		}
	}
	if len(seen) != s.Len() {
		t.Errorf("partition covers %d ids, want %d", len(seen), s.Len())
	}
	for id, n := range seen {
		if id.Index() >= s.Len() {
			t.Errorf("dangling id %d", id)
		}
		if n != 1 {
			t.Errorf("id %d referenced %d times, want 1", id, n)
		}
	}
}
