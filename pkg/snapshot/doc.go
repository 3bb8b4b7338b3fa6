// Package snapshot records the element tree produced by one render pass.
//
// A Snapshot is a flat arena of Elements addressed by dense ElementIDs.
// Parent links are not passed explicitly; instead the builder opens a
// scope with Push, inserts children, and closes it with Pop. The element
// on top of the build stack is the parent of the next inserted element,
// and elements inserted with an empty stack become roots.
//
// # Building
//
//	snap := snapshot.New(reg)
//	app := snap.Push(snapshot.NewElement[Column](ColumnProps{}))
//	snap.Insert(snapshot.NewElement[Text](TextProps{Value: "hello"}))
//	snap.Pop(app)
//
// Scope does the same and pops on every return path of the callback:
//
//	snap.Scope(snapshot.NewElement[Column](ColumnProps{}), func(snapshot.ElementID) {
//	    snap.Insert(snapshot.NewElement[Text](TextProps{Value: "hello"}))
//	})
//
// Pop panics with an *errors.TreeError when the stack is empty or when the
// given id is not on top. These are bugs in the builder, not data
// conditions. Get, in contrast, reports a stale or out-of-range id with a
// false result.
//
// # Lifecycle
//
// A Snapshot lives as long as its render target. Clear empties it for the
// next build pass and keeps the registry and allocated capacity.
//
// # Concurrency
//
// A Snapshot is not safe for concurrent mutation. Once a build pass has
// finished, any number of goroutines may read it until the next Clear.
//
// # Diagnostics
//
// DebugLines and the fmt verbs %v and %+v render every element using the
// debug formatter registered for its type. Elements whose type has no
// registration show a placeholder and never stop the listing.
package snapshot
