package canopy

// dirtyVisits counts descendants examined by dirty propagation. Scene debug
// stats report its per-tick delta; tests use it to check pruning.
var dirtyVisits uint64

func (n *Node) hasTransform() bool {
	return n.x2 != nil || n.x3 != nil
}

// compatible reports whether child's global transform composes with
// parent's: both 2D or both 3D. Any other pairing breaks the chain and the
// child's global transform equals its local transform.
func compatible(parent, child *Node) bool {
	return (parent.x2 != nil && child.x2 != nil) || (parent.x3 != nil && child.x3 != nil)
}

// markTransformDirty is called by every local transform setter. It marks the
// node's local and global caches stale and invalidates the global cache of
// every compatible descendant. Descendants' local caches are left alone.
func markTransformDirty(n *Node) {
	n.localDirty = true
	flagGlobalDirty(n)
	for _, c := range n.children {
		propagateDirty(n, c)
	}
}

// invalidateGlobal marks n's global cache, and those of its compatible
// descendants, stale. Used when n is linked to or unlinked from a parent.
func invalidateGlobal(n *Node) {
	if !n.hasTransform() || n.globalDirty {
		return
	}
	flagGlobalDirty(n)
	for _, c := range n.children {
		propagateDirty(n, c)
	}
}

// propagateDirty walks child's subtree in pre-order. A node that is already
// globally dirty stops the descent: everything below it is dirty too, since
// a clean node always has clean ancestors.
func propagateDirty(parent, child *Node) {
	dirtyVisits++
	if !compatible(parent, child) || child.globalDirty {
		return
	}
	flagGlobalDirty(child)
	for _, c := range child.children {
		propagateDirty(child, c)
	}
}

func flagGlobalDirty(n *Node) {
	n.globalDirty = true
	if n.scene != nil {
		n.scene.enqueue(n)
	}
}

// MarkDirty forces the node's local and global transforms to be recomputed
// on the next read, and schedules a proxy push on the next Tick. Useful after
// a Behavior changes state that feeds a custom transform.
func (n *Node) MarkDirty() {
	if n.hasTransform() {
		markTransformDirty(n)
	}
}
