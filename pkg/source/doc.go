// Package source reads tree descriptions and replays them into a
// snapshot.Snapshot.
//
// A description is a JSON document:
//
//	{
//	  "roots": [
//	    {"kind": "box", "props": {"direction": "column"}, "children": [
//	      {"kind": "text", "props": {"value": "Hello"}},
//	      {"kind": "button", "props": {"label": "OK"}}
//	    ]}
//	  ]
//	}
//
// Kinds maps each "kind" to an element type. Nodes with children are
// opened with Snapshot.Scope, leaves are inserted, so the traversal is a
// plain depth-first walk with no parent handles. Kinds that are not known
// become Unknown elements, which have no debug formatter and render as a
// placeholder in listings.
//
// Descriptions are loaded from local files or from s3://bucket/key.
package source
