package snapshot

import (
	"fmt"
	"strconv"
	"strings"
)

// MissingDebug is shown in place of props whose type has no registered
// debug formatter.
const MissingDebug = "(could not find debug impl)"

// DebugProps renders the props of the element at id using the registry.
// It returns MissingDebug when the type is not registered and false when
// id is out of range.
func (s *Snapshot) DebugProps(id ElementID) (string, bool) {
	el, ok := s.Get(id)
	if !ok {
		return "", false
	}
	return s.debugProps(el), true
}

func (s *Snapshot) debugProps(el *Element) string {
	c, ok := s.registry.GetByID(el.TypeID)
	if !ok {
		return MissingDebug
	}
	return c.DebugProps(el.Props)
}

// DebugLine renders one arena entry as "<index>: <props>, children: [...]".
// Registered output is written as is; MissingDebug is quoted.
func (s *Snapshot) DebugLine(id ElementID) (string, bool) {
	el, ok := s.Get(id)
	if !ok {
		return "", false
	}
	return s.debugLine(id, el), true
}

func (s *Snapshot) debugLine(id ElementID, el *Element) string {
	debug := s.debugProps(el)
	if debug == MissingDebug {
		debug = strconv.Quote(debug)
	}
	return fmt.Sprintf("%d: %s, children: %s", id, debug, formatIDs(el.Children))
}

// DebugLines renders every arena entry in index order. The format is meant
// for people and may change.
func (s *Snapshot) DebugLines() []string {
	lines := make([]string, len(s.tree))
	for i := range s.tree {
		lines[i] = s.debugLine(ElementID(i), &s.tree[i])
	}
	return lines
}

// MissingDebugTypes returns the number of elements whose type has no
// registered debug formatter.
func (s *Snapshot) MissingDebugTypes() int {
	n := 0
	for i := range s.tree {
		if _, ok := s.registry.GetByID(s.tree[i].TypeID); !ok {
			n++
		}
	}
	return n
}

// String renders the roots and the full listing on one line.
func (s *Snapshot) String() string {
	return fmt.Sprintf("Snapshot{roots: %s, tree: [%s]}",
		formatIDs(s.roots), strings.Join(s.DebugLines(), "; "))
}

// Format implements fmt.Formatter. %+v renders one element per line;
// every other verb renders String.
func (s *Snapshot) Format(f fmt.State, verb rune) {
	if verb == 'v' && f.Flag('+') {
		fmt.Fprint(f, s.pretty())
		return
	}
	fmt.Fprint(f, s.String())
}

func (s *Snapshot) pretty() string {
	var b strings.Builder
	b.WriteString("Snapshot\n")
	b.WriteString("  roots: ")
	b.WriteString(formatIDs(s.roots))
	b.WriteString("\n  tree:\n")
	for _, line := range s.DebugLines() {
		b.WriteString("    ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// Outline renders the tree shape, one element per line indented by depth.
func (s *Snapshot) Outline() string {
	var b strings.Builder
	s.Walk(func(id ElementID, depth int) bool {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(id.String())
		b.WriteString(" ")
		b.WriteString(s.debugProps(&s.tree[id]))
		b.WriteString("\n")
		return true
	})
	return b.String()
}

func formatIDs(ids []ElementID) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, id := range ids {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.FormatUint(uint64(id), 10))
	}
	b.WriteByte(']')
	return b.String()
}
