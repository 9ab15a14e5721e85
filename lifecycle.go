package canopy

// EnterTreeHook is implemented by behaviors that react to a node entering a
// scene. Called in pre-order: parents before children.
type EnterTreeHook interface {
	OnEnterTree(n *Node)
}

// ExitTreeHook is implemented by behaviors that react to a node leaving a
// scene. Called in post-order: children (last to first) before parents,
// while the node is still linked to its parent.
type ExitTreeHook interface {
	OnExitTree(n *Node)
}

// TransformChangedHook is called at most once per Scene.Tick for a node
// whose global transform was invalidated and has been recomputed.
type TransformChangedHook interface {
	OnTransformChanged(n *Node)
}

// BeforeDestroyHook is called in pre-order when Destroy starts, before the
// node exits the tree or releases its proxy.
type BeforeDestroyHook interface {
	OnBeforeDestroy(n *Node)
}

// IsRooted reports whether the node is currently part of a scene tree.
func (n *Node) IsRooted() bool { return n.scene != nil }

// Scene returns the scene the node is in, or nil when unrooted.
func (n *Node) Scene() *Scene { return n.scene }

// IsDestroyed reports whether Destroy has been called on this node or an ancestor.
func (n *Node) IsDestroyed() bool { return n.destroyed }

func (n *Node) enterTree(s *Scene) {
	releaseForeignProxies(n, s.renderer)
	n.propagateEnter(s)
}

func (n *Node) propagateEnter(s *Scene) {
	n.scene = s
	n.bindProxy()
	if n.hasTransform() {
		s.enqueue(n)
	}
	if h, ok := n.Behavior.(EnterTreeHook); ok {
		h.OnEnterTree(n)
	}
	n.emit(Event{Kind: SignalTreeEntered, Node: n})
	// Index loop: a hook may add children, which enter on their own.
	for i := 0; i < len(n.children); i++ {
		if c := n.children[i]; c.scene != s {
			c.propagateEnter(s)
		}
	}
}

func (n *Node) exitTree() {
	n.propagateExit(n)
}

func (n *Node) propagateExit(top *Node) {
	for i := len(n.children) - 1; i >= 0; i-- {
		if i < len(n.children) && n.children[i].scene != nil {
			n.children[i].propagateExit(top)
		}
	}
	if h, ok := n.Behavior.(ExitTreeHook); ok {
		h.OnExitTree(n)
	}
	n.emit(Event{Kind: SignalTreeExiting, Node: n})
	n.detachProxyLeaving(top)
	n.scene = nil
}

// Destroy tears down the node and its subtree. Before-destroy hooks run
// first (pre-order), then the node leaves its parent (firing exit-tree
// notifications if rooted), then every node releases its render proxy in
// post-order. Destroy is terminal and idempotent.
func (n *Node) Destroy() {
	if n.destroyed {
		return
	}
	n.beforeDestroy()
	switch {
	case n.parent != nil:
		n.parent.unlink(n)
	case n.scene != nil:
		n.exitTree()
	}
	n.destroy()
}

func (n *Node) beforeDestroy() {
	if h, ok := n.Behavior.(BeforeDestroyHook); ok {
		h.OnBeforeDestroy(n)
	}
	n.emit(Event{Kind: SignalDestroying, Node: n})
	for _, c := range n.children {
		c.beforeDestroy()
	}
}

func (n *Node) destroy() {
	for _, c := range n.children {
		c.destroy()
		c.parent = nil
	}
	n.releaseProxy()
	n.destroyed = true
	n.children = nil
	n.parent = nil
	n.scene = nil
	n.Behavior = nil
	n.signals = signalBus{}
}

// --- Visibility ---

// Visible reports the node's own visibility flag.
func (n *Node) Visible() bool { return n.visible }

// SetVisible sets the node's own visibility flag and forwards it to the
// render proxy when the renderer supports it.
func (n *Node) SetVisible(v bool) {
	if n.visible == v {
		return
	}
	n.visible = v
	n.proxy.pushVisible(n, v)
	n.emit(Event{Kind: SignalVisibilityChanged, Node: n, Payload: v})
}

// IsVisibleInTree reports whether this node and every ancestor are visible.
func (n *Node) IsVisibleInTree() bool {
	for p := n; p != nil; p = p.parent {
		if !p.visible {
			return false
		}
	}
	return true
}
