package canopy

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidHierarchy is returned when a tree operation would create a
	// cycle, attach a node that already has a parent, or use a destroyed node.
	ErrInvalidHierarchy = errors.New("canopy: invalid hierarchy")

	// ErrNotFound is returned when a child or path does not resolve.
	ErrNotFound = errors.New("canopy: not found")

	// ErrDetachedProxy reports a transform push into a render proxy that has
	// already been disposed. It always indicates a lifecycle bug.
	ErrDetachedProxy = errors.New("canopy: push to disposed render proxy")
)

// HierarchyError describes a failed tree operation and names the nodes
// involved. It wraps ErrInvalidHierarchy or ErrNotFound.
type HierarchyError struct {
	Op     string
	Parent string
	Child  string
	Path   string
	Reason string
	Err    error
}

func (e *HierarchyError) Error() string {
	msg := "canopy: " + e.Op
	if e.Parent != "" {
		msg += fmt.Sprintf(" parent=%q", e.Parent)
	}
	if e.Child != "" {
		msg += fmt.Sprintf(" child=%q", e.Child)
	}
	if e.Path != "" {
		msg += fmt.Sprintf(" path=%q", e.Path)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *HierarchyError) Unwrap() error { return e.Err }

func hierarchyErr(op string, parent, child *Node, reason string) *HierarchyError {
	return &HierarchyError{
		Op:     op,
		Parent: nodeLabel(parent),
		Child:  nodeLabel(child),
		Reason: reason,
		Err:    ErrInvalidHierarchy,
	}
}

func notFoundErr(op string, parent, child *Node, path string) *HierarchyError {
	return &HierarchyError{
		Op:     op,
		Parent: nodeLabel(parent),
		Child:  nodeLabel(child),
		Path:   path,
		Err:    ErrNotFound,
	}
}

func nodeLabel(n *Node) string {
	if n == nil {
		return ""
	}
	return n.Path()
}

// Must panics if err is non-nil. Use it where a malformed tree should stop the
// program rather than be handled.
func Must(err error) {
	if err != nil {
		panic(err)
	}
}
