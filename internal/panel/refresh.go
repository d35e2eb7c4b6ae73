package panel

import (
	"time"

	"go.uber.org/zap"

	"github.com/justyntemme/filespanel/internal/debug"
	"github.com/justyntemme/filespanel/internal/metrics"
	"github.com/justyntemme/filespanel/internal/tree"
)

// Refresh reads the root from the backend and populates the result. Only
// the most recent Refresh is applied; a project switch also invalidates
// reads in flight.
func (p *Panel) Refresh() {
	p.gen++
	gen, root := p.gen, p.root
	start := time.Now()
	debug.Log(debug.IO, "refresh: root=%q gen=%d", root, gen)

	p.gw.ReadDirectory(root, func(nodes []*tree.Node, err error) {
		if gen != p.gen {
			debug.Log(debug.IO, "refresh: dropping stale gen=%d (current %d)", gen, p.gen)
			metrics.RecordRefresh(metrics.OutcomeStale, 0)
			return
		}
		if err != nil {
			p.logger.Warn("read directory failed", zap.String("root", root), zap.Error(err))
			metrics.RecordRefresh(metrics.OutcomeError, time.Since(start))
			return
		}
		metrics.RecordRefresh(metrics.OutcomeSuccess, time.Since(start))
		p.Populate(nodes)
	})
}
