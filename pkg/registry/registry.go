package registry

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/vango-dev/elemtree/internal/errors"
)

// TypeID identifies the concrete type an element was created for.
// The zero value identifies no type and is never registered.
type TypeID struct {
	t reflect.Type
}

// TypeOf returns the TypeID for T.
func TypeOf[T any]() TypeID {
	return TypeID{t: reflect.TypeOf((*T)(nil)).Elem()}
}

// IsZero reports whether id identifies no type.
func (id TypeID) IsZero() bool {
	return id.t == nil
}

// String returns the Go type name.
func (id TypeID) String() string {
	if id.t == nil {
		return "<nil>"
	}
	return id.t.String()
}

// Component is the behaviour registered for one element type.
type Component struct {
	// Name is a short human-readable name for the type.
	Name string

	// DebugProps renders an element's props for diagnostics.
	DebugProps func(props any) string
}

// Registry maps TypeIDs to Components.
type Registry struct {
	mu         sync.RWMutex
	components map[TypeID]Component
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		components: make(map[TypeID]Component),
	}
}

// Register adds a component for id. Registering the same id twice, or the
// zero id, is an error.
func (r *Registry) Register(id TypeID, c Component) error {
	if id.IsZero() {
		return errors.New("E212")
	}
	if c.DebugProps == nil {
		return errors.New("E211").WithDetailf("No DebugProps given for %s.", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.components[id]; ok {
		return errors.New("E210").WithDetailf("%s is already registered.", id)
	}
	if c.Name == "" {
		c.Name = id.String()
	}
	r.components[id] = c
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(id TypeID, c Component) {
	if err := r.Register(id, c); err != nil {
		panic(err)
	}
}

// GetByID returns the component registered for id.
// A nil Registry has no components.
func (r *Registry) GetByID(id TypeID) (Component, bool) {
	if r == nil {
		return Component{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.components[id]
	return c, ok
}

// Len returns the number of registered components.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.components)
}

// Names returns the registered component names, sorted.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.components))
	for _, c := range r.components {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names
}

// RegisterType registers a typed debug formatter for elements created for
// T whose props are P. Props of any other dynamic type are reported rather
// than formatted.
func RegisterType[T, P any](r *Registry, name string, debug func(P) string) error {
	if debug == nil {
		return r.Register(TypeOf[T](), Component{Name: name})
	}
	return r.Register(TypeOf[T](), Component{
		Name: name,
		DebugProps: func(props any) string {
			p, ok := props.(P)
			if !ok {
				return fmt.Sprintf("(props type mismatch: %T)", props)
			}
			return debug(p)
		},
	})
}

// MustRegisterType is like RegisterType but panics on error.
func MustRegisterType[T, P any](r *Registry, name string, debug func(P) string) {
	if err := RegisterType[T, P](r, name, debug); err != nil {
		panic(err)
	}
}

// GoString formats props with %#v. It suits payloads that implement no
// String method of their own.
func GoString(props any) string {
	return fmt.Sprintf("%#v", props)
}
