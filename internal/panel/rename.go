package panel

import (
	"go.uber.org/zap"

	"github.com/justyntemme/filespanel/internal/metrics"
	"github.com/justyntemme/filespanel/internal/pathutil"
)

// StartRename opens the inline editor on key.
func (p *Panel) StartRename(key string) error {
	n, err := p.node(key)
	if err != nil {
		return err
	}
	if p.isRoot(n) {
		return ErrRootImmutable
	}
	switch p.states[key] {
	case PendingMove:
		return p.reject(key, metrics.KindRename)
	case Editing:
		return nil
	}
	if k, busy := p.movingAround(n); busy {
		return p.reject(k, metrics.KindRename)
	}

	p.focused = key
	p.setState(key, Editing)
	p.widget.StartEdit(key)
	return nil
}

// RenameFocused opens the inline editor on the focused node.
func (p *Panel) RenameFocused() error {
	if p.focused == "" {
		return ErrUnknownNode
	}
	return p.StartRename(p.focused)
}

// SubmitRename finishes an edit. An empty or unchanged name ends the edit
// without contacting the backend.
func (p *Panel) SubmitRename(key, newName string) error {
	n, err := p.node(key)
	if err != nil {
		return err
	}
	switch p.states[key] {
	case PendingMove:
		return p.reject(key, metrics.KindRename)
	case Idle:
		return ErrNotEditing
	}
	p.setState(key, Idle)

	if newName == "" || newName == n.Name {
		return nil
	}
	if !pathutil.ValidName(newName) {
		metrics.RecordMove(metrics.KindRename, metrics.OutcomeRejected)
		return ErrInvalidName
	}
	// a relative may have started moving while the editor was open
	if k, busy := p.movingAround(n); busy {
		return p.reject(k, metrics.KindRename)
	}

	newPath := pathutil.Join(pathutil.ParentPath(n.Path, 1), newName)
	if err := p.checkFree(n, newPath, metrics.KindRename); err != nil {
		return err
	}
	p.issueMove(n, newPath, placement{kind: metrics.KindRename})
	return nil
}

// CancelRename closes the editor on key and discards its text.
func (p *Panel) CancelRename(key string) error {
	if _, err := p.node(key); err != nil {
		return err
	}
	if p.states[key] != Editing {
		return ErrNotEditing
	}
	p.setState(key, Idle)
	p.widget.EndEdit(key)
	return nil
}

func (p *Panel) reject(key, kind string) error {
	p.logger.Warn("mutation rejected: move in flight", zap.String("key", key), zap.String("kind", kind))
	metrics.RecordMove(kind, metrics.OutcomeRejected)
	return ErrConflictingMutation
}
