package panel

import (
	"go.uber.org/zap"

	"github.com/justyntemme/filespanel/internal/debug"
	"github.com/justyntemme/filespanel/internal/metrics"
	"github.com/justyntemme/filespanel/internal/pathutil"
	"github.com/justyntemme/filespanel/internal/tree"
)

// dragContext lives for one drop.
type dragContext struct {
	dragged *tree.Node
	dest    *tree.Node
	mode    tree.HitMode
}

// newParent is the folder the dragged node lands in.
func (dc dragContext) newParent() string {
	if dc.mode == tree.Over {
		return dc.dest.Path
	}
	return pathutil.ParentPath(dc.dest.Path, 1)
}

func (dc dragContext) newPath() string {
	return pathutil.Join(dc.newParent(), dc.dragged.Name)
}

// DragStart reports whether key may be dragged.
func (p *Panel) DragStart(key string) bool {
	n, ok := p.index[key]
	if !ok || p.isRoot(n) {
		return false
	}
	if p.states[key] != Idle {
		return false
	}
	_, busy := p.movingAround(n)
	return !busy
}

// DragEnter returns the hit modes allowed on destKey. Files accept
// siblings only and the root accepts children only.
func (p *Panel) DragEnter(destKey string) tree.HitModes {
	n, ok := p.index[destKey]
	switch {
	case !ok:
		return 0
	case p.isRoot(n):
		return tree.HitModes(tree.Over)
	case n.IsFolder:
		return tree.AllHitModes
	default:
		return tree.SiblingHitModes
	}
}

// DragDrop moves draggedKey relative to destKey.
func (p *Panel) DragDrop(destKey, draggedKey string, mode tree.HitMode) error {
	dest, err := p.node(destKey)
	if err != nil {
		return err
	}
	dragged, err := p.node(draggedKey)
	if err != nil {
		return err
	}
	if p.isRoot(dragged) {
		return ErrRootImmutable
	}
	switch p.states[draggedKey] {
	case PendingMove:
		return p.reject(draggedKey, metrics.KindDrop)
	case Editing:
		p.logger.Warn("drop rejected: node is being edited", zap.String("key", draggedKey))
		metrics.RecordMove(metrics.KindDrop, metrics.OutcomeRejected)
		return ErrInvalidDrop
	}
	if k, busy := p.movingAround(dragged); busy {
		return p.reject(k, metrics.KindDrop)
	}
	if k, busy := p.movingAbove(dest); busy {
		return p.reject(k, metrics.KindDrop)
	}
	if !p.DragEnter(destKey).Has(mode) || tree.Contains(dragged, dest) {
		metrics.RecordMove(metrics.KindDrop, metrics.OutcomeRejected)
		return ErrInvalidDrop
	}

	dc := dragContext{dragged: dragged, dest: dest, mode: mode}
	newPath := dc.newPath()
	pl := placement{kind: metrics.KindDrop, destKey: destKey, mode: mode}
	debug.Log(debug.TREE, "drop: %s %s %s -> %q", draggedKey, mode, destKey, newPath)

	if newPath == dragged.Path {
		// Same folder: reorder only.
		p.relocate(dc)
		p.place(dragged, pl)
		metrics.RecordMove(metrics.KindDrop, metrics.OutcomeVoid)
		return nil
	}

	if err := p.checkFree(dragged, newPath, metrics.KindDrop); err != nil {
		return err
	}
	p.relocate(dc)
	p.issueMove(dragged, newPath, pl)
	return nil
}

func (p *Panel) relocate(dc dragContext) {
	if r, ok := p.widget.(Relocator); ok {
		r.Relocate(dc.dragged.Key, dc.dest.Key, dc.mode)
	}
}
