package canopy

import (
	"context"
	"errors"
	"log/slog"
)

// debugLog reports per-tick stats at debug level.
func (s *Scene) debugLog(stats TickStats) {
	s.logger.Debug("tick",
		"tick", stats.Tick,
		"flushed", stats.Flushed,
		"dirty_visits", stats.DirtyVisits,
		"queued", len(s.queue),
		"duration", stats.Duration)
}

// debugCheckTreeDepth warns if the tree depth at n exceeds the configured
// threshold.
func (s *Scene) debugCheckTreeDepth(n *Node) {
	depth := 0
	for p := n; p != nil; p = p.parent {
		depth++
	}
	if depth > s.config.MaxTreeDepth {
		s.logger.Warn("tree depth exceeds threshold",
			"depth", depth, "threshold", s.config.MaxTreeDepth, "node", n.Path())
	}
}

// debugCheckChildCount warns if n has more children than the configured
// threshold.
func (s *Scene) debugCheckChildCount(n *Node) {
	if len(n.children) > s.config.MaxChildCount {
		s.logger.Warn("child count exceeds threshold",
			"children", len(n.children), "threshold", s.config.MaxChildCount, "node", n.Path())
	}
}

// logHierarchyError emits a diagnostic naming the nodes involved in a failed
// tree operation. The error is still returned to the caller.
func (s *Scene) logHierarchyError(err *HierarchyError) {
	level := slog.LevelDebug
	if s.debug {
		level = slog.LevelWarn
	}
	attrs := []any{"op", err.Op}
	if err.Parent != "" {
		attrs = append(attrs, "parent", err.Parent)
	}
	if err.Child != "" {
		attrs = append(attrs, "child", err.Child)
	}
	if err.Path != "" {
		attrs = append(attrs, "path", err.Path)
	}
	if err.Reason != "" {
		attrs = append(attrs, "reason", err.Reason)
	}
	msg := "hierarchy error"
	if errors.Is(err, ErrNotFound) {
		msg = "node not found"
	}
	s.logger.Log(context.Background(), level, msg, attrs...)
}
