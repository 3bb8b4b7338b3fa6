package source

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/vango-dev/elemtree/pkg/registry"
	"github.com/vango-dev/elemtree/pkg/snapshot"
)

// Element types for the built-in kinds.
type (
	Box    struct{}
	Text   struct{}
	Button struct{}
	Image  struct{}

	// Unknown is used for kinds that have no mapping. It is never
	// registered for debugging.
	Unknown struct{}
)

// BoxProps are the props of a "box" node.
type BoxProps struct {
	Direction string  `json:"direction,omitempty"`
	Gap       float64 `json:"gap,omitempty"`
}

// TextProps are the props of a "text" node.
type TextProps struct {
	Value string `json:"value"`
}

// ButtonProps are the props of a "button" node.
type ButtonProps struct {
	Label    string `json:"label"`
	Disabled bool   `json:"disabled,omitempty"`
}

// ImageProps are the props of an "image" node.
type ImageProps struct {
	Src string `json:"src"`
	Alt string `json:"alt,omitempty"`
}

// UnknownProps keeps the raw props of an unmapped kind.
type UnknownProps struct {
	Kind  string
	Props json.RawMessage
}

// ElementFunc turns raw props into an element.
type ElementFunc func(props json.RawMessage) (snapshot.Element, error)

// Kinds maps node kinds to element constructors.
type Kinds struct {
	m map[string]ElementFunc
}

// NewKinds creates an empty mapping.
func NewKinds() *Kinds {
	return &Kinds{m: make(map[string]ElementFunc)}
}

// DefaultKinds returns the box, text, button and image kinds.
func DefaultKinds() *Kinds {
	k := NewKinds()
	Map[Box, BoxProps](k, "box")
	Map[Text, TextProps](k, "text")
	Map[Button, ButtonProps](k, "button")
	Map[Image, ImageProps](k, "image")
	return k
}

// Set maps kind to fn.
func (k *Kinds) Set(kind string, fn ElementFunc) {
	k.m[kind] = fn
}

// Names returns the mapped kinds, sorted.
func (k *Kinds) Names() []string {
	names := make([]string, 0, len(k.m))
	for name := range k.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Map maps kind to elements of type T whose props decode into P.
func Map[T, P any](k *Kinds, kind string) {
	k.Set(kind, func(raw json.RawMessage) (snapshot.Element, error) {
		var p P
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &p); err != nil {
				return snapshot.Element{}, fmt.Errorf("props of %q: %w", kind, err)
			}
		}
		return snapshot.NewElement[T](p), nil
	})
}

// Element builds the element for n. Unmapped kinds become Unknown.
func (k *Kinds) Element(n *Node) (snapshot.Element, error) {
	fn, ok := k.m[n.Kind]
	if !ok {
		return snapshot.NewElement[Unknown](UnknownProps{Kind: n.Kind, Props: n.Props}), nil
	}
	return fn(n.Props)
}

// RegisterDebug registers debug formatters for the built-in kinds.
func RegisterDebug(reg *registry.Registry) error {
	if err := registry.RegisterType[Box](reg, "box", func(p BoxProps) string {
		var attrs []string
		if p.Direction != "" {
			attrs = append(attrs, "direction="+p.Direction)
		}
		if p.Gap != 0 {
			attrs = append(attrs, fmt.Sprintf("gap=%g", p.Gap))
		}
		return "Box(" + strings.Join(attrs, " ") + ")"
	}); err != nil {
		return err
	}
	if err := registry.RegisterType[Text](reg, "text", func(p TextProps) string {
		return fmt.Sprintf("Text(%q)", p.Value)
	}); err != nil {
		return err
	}
	if err := registry.RegisterType[Button](reg, "button", func(p ButtonProps) string {
		if p.Disabled {
			return fmt.Sprintf("Button(%q, disabled)", p.Label)
		}
		return fmt.Sprintf("Button(%q)", p.Label)
	}); err != nil {
		return err
	}
	return registry.RegisterType[Image](reg, "image", func(p ImageProps) string {
		return fmt.Sprintf("Image(%s)", p.Src)
	})
}
