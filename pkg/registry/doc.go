// Package registry maps element payload types to debug behaviour.
//
// A Registry is populated once, typically at program start, and treated
// as read-only while snapshots are built. The snapshot package consults it
// only when rendering a diagnostic listing; it never affects tree
// structure.
//
//	reg := registry.New()
//	registry.MustRegisterType[Button](reg, "button", func(p ButtonProps) string {
//	    return fmt.Sprintf("Button(%q)", p.Label)
//	})
package registry
