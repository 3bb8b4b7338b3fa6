// Package errors provides structured, coded errors for elemtree.
//
// Every failure elemtree reports carries a short code (e.g. "E202") that
// maps to a registered template with a category, a one-line message, a
// longer explanation and a documentation link.
//
// # Error Categories
//
//   - build: stack-discipline violations raised while a build pass runs
//   - registry: debug registry population mistakes
//   - source: tree descriptions that cannot be read or decoded
//   - config: elemtree.json problems
//   - cli: command-line usage errors
//
// # Fatal violations
//
// Stack-discipline violations (popping an empty stack, popping the wrong
// element) are programmer errors. The snapshot package panics with a
// *TreeError for them, and only the build driver recovers that panic to
// abort the pass.
//
// # Usage
//
//	err := errors.New("E202").
//	    WithDetail("expected 3 on top of the stack, found 4").
//	    WithSuggestion("Pop elements in the reverse order they were pushed")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E202: Popped the wrong element
//	//
//	//   expected 3 on top of the stack, found 4
//	//
//	//   Hint: Pop elements in the reverse order they were pushed
//	//
//	//   Learn more: https://elemtree.dev/docs/errors/E202
package errors
