package panel

import (
	"go.uber.org/zap"

	"github.com/justyntemme/filespanel/internal/debug"
	"github.com/justyntemme/filespanel/internal/events"
	"github.com/justyntemme/filespanel/internal/gateway"
	"github.com/justyntemme/filespanel/internal/metrics"
	"github.com/justyntemme/filespanel/internal/pathutil"
	"github.com/justyntemme/filespanel/internal/tree"
)

// placement says where a moved node goes among its new siblings.
type placement struct {
	kind    string
	destKey string
	mode    tree.HitMode
}

// checkFree fails when another node already sits at newPath.
func (p *Panel) checkFree(n *tree.Node, newPath, kind string) error {
	if other := tree.FindByPath(p.tree, newPath); other != nil && other != n {
		metrics.RecordMove(kind, metrics.OutcomeRejected)
		return ErrPathExists
	}
	return nil
}

func (p *Panel) issueMove(n *tree.Node, newPath string, pl placement) {
	from := n.Item()
	p.setState(n.Key, PendingMove)
	metrics.SetPendingMoves(p.Pending())
	p.logger.Debug("move requested",
		zap.String("kind", pl.kind),
		zap.String("from", from.Path),
		zap.String("to", newPath))

	p.gw.Move(from, gateway.MoveSpec{Path: newPath}, func(err error) {
		p.completeMove(from, newPath, pl, err)
	})
}

func (p *Panel) completeMove(from tree.Item, newPath string, pl placement, err error) {
	if p.states[from.Key] == PendingMove {
		p.setState(from.Key, Idle)
	}
	metrics.SetPendingMoves(p.Pending())

	if err != nil {
		p.logger.Error("move failed",
			zap.String("kind", pl.kind),
			zap.String("from", from.Path),
			zap.String("to", newPath),
			zap.Error(err))
		metrics.RecordMove(pl.kind, metrics.OutcomeError)
		p.bus.Publish(events.MoveFailed{Item: from, NewPath: newPath, Err: err})
		return
	}

	item := from
	item.Path, item.Name = newPath, pathutil.Base(newPath)
	if n, ok := p.index[from.Key]; ok && !p.isRoot(n) {
		p.place(n, pl)
		tree.Rebase(n, newPath)
		item = n.Item()
	}

	p.logger.Info("moved",
		zap.String("kind", pl.kind),
		zap.String("from", from.Path),
		zap.String("to", newPath))
	metrics.RecordMove(pl.kind, metrics.OutcomeSuccess)
	p.bus.Publish(events.ItemMoved{Item: item, OldPath: from.Path, NewPath: newPath})
}

// movingAround returns the key of a node with a move in flight in n's line:
// n itself, anything above it or anything below it. Moves in one line may
// not overlap since each new path is fixed when its move is issued.
func (p *Panel) movingAround(n *tree.Node) (string, bool) {
	if k, ok := p.movingAbove(n); ok {
		return k, true
	}
	var found string
	tree.Walk(n, func(c *tree.Node, _ int) bool {
		if p.states[c.Key] == PendingMove {
			found = c.Key
		}
		return found == ""
	})
	return found, found != ""
}

// movingAbove is movingAround without the descendants.
func (p *Panel) movingAbove(n *tree.Node) (string, bool) {
	for c := n; c != nil; c = tree.Parent(p.tree, c.Key) {
		if p.states[c.Key] == PendingMove {
			return c.Key, true
		}
	}
	return "", false
}

// place reparents n in the model according to pl. Renames keep their slot.
func (p *Panel) place(n *tree.Node, pl placement) {
	if pl.destKey == "" {
		return
	}
	dest, ok := p.index[pl.destKey]
	if !ok || dest == n || tree.Contains(n, dest) {
		return
	}
	if tree.Detach(p.tree, n.Key) == nil {
		return
	}

	switch {
	case pl.mode == tree.Over:
		tree.Append(dest, n)
	case pl.mode == tree.Before && tree.InsertBefore(p.tree, dest, n):
	case pl.mode == tree.After && tree.InsertAfter(p.tree, dest, n):
	default:
		// dest vanished from the tree; fall back to its folder
		parent := tree.FindByPath(p.tree, pathutil.ParentPath(dest.Path, 1))
		if parent == nil {
			parent = p.tree
		}
		tree.Append(parent, n)
	}
	debug.Log(debug.TREE, "place: %s %s %s", n.Key, pl.mode, dest.Key)
}
