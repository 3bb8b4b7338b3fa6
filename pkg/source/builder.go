package source

import (
	"context"

	"github.com/vango-dev/elemtree/internal/errors"
	"github.com/vango-dev/elemtree/pkg/build"
	"github.com/vango-dev/elemtree/pkg/snapshot"
)

// Builder replays Documents into snapshots.
type Builder struct {
	kinds    *Kinds
	maxDepth int
}

// NewBuilder creates a Builder. A maxDepth of zero or less means no limit.
func NewBuilder(kinds *Kinds, maxDepth int) *Builder {
	if kinds == nil {
		kinds = DefaultKinds()
	}
	return &Builder{kinds: kinds, maxDepth: maxDepth}
}

// Build inserts every node of doc into snap, depth-first.
func (b *Builder) Build(ctx context.Context, snap *snapshot.Snapshot, doc *Document) error {
	for i := range doc.Roots {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.node(snap, &doc.Roots[i], 1); err != nil {
			return err
		}
	}
	return nil
}

// Func binds doc for use with build.Driver.Run.
func (b *Builder) Func(doc *Document) build.Func {
	return func(ctx context.Context, snap *snapshot.Snapshot) error {
		return b.Build(ctx, snap, doc)
	}
}

func (b *Builder) node(snap *snapshot.Snapshot, n *Node, depth int) error {
	if b.maxDepth > 0 && depth > b.maxDepth {
		return errors.New("E223").
			WithDetailf("Node %q is at depth %d, the limit is %d.", n.Kind, depth, b.maxDepth)
	}

	el, err := b.kinds.Element(n)
	if err != nil {
		return errors.New("E221").Wrap(err)
	}

	if len(n.Children) == 0 {
		snap.Insert(el)
		return nil
	}

	snap.Scope(el, func(snapshot.ElementID) {
		for i := range n.Children {
			if err = b.node(snap, &n.Children[i], depth+1); err != nil {
				return
			}
		}
	})
	return err
}
