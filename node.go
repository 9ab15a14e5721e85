package canopy

import "iter"

// nodeIDCounter is a plain counter (no atomic, canopy is single-threaded).
var nodeIDCounter uint32

func nextNodeID() uint32 {
	nodeIDCounter++
	return nodeIDCounter
}

// Noder is implemented by every node type. Node2D, Control and Node3D embed
// Node and get AsNode for free, so any of them can be passed to tree methods.
type Noder interface {
	AsNode() *Node
}

// Node is the fundamental scene-tree element. It owns its children and an
// optional render proxy, and is embedded by the transform-carrying kinds
// Node2D, Control and Node3D.
//
// Nodes are not safe for concurrent use. Confine all tree and transform
// operations to one goroutine or add external synchronization.
type Node struct {
	// Identity
	ID   uint32
	Name string
	Kind NodeKind

	// Behavior attaches per-kind logic. It may implement any of
	// EnterTreeHook, ExitTreeHook, TransformChangedHook, BeforeDestroyHook
	// and ProxyKinder.
	Behavior any

	// Hierarchy
	parent   *Node
	children []*Node
	scene    *Scene

	// Transform caches; at most one is set and points at the enclosing value.
	x2 *Node2D
	x3 *Node3D

	localDirty  bool
	globalDirty bool
	queuedIn    *Scene // scene whose tick queue holds this node

	visible   bool
	proxy     proxyBinding
	signals   signalBus
	destroyed bool
}

func nodeDefaults(n *Node, name string, kind NodeKind) {
	n.ID = nextNodeID()
	n.Name = name
	n.Kind = kind
	n.visible = true
	n.localDirty = true
	n.globalDirty = true
}

// NewNode creates a plain node with no transform.
func NewNode(name string) *Node {
	n := &Node{}
	nodeDefaults(n, name, KindNode)
	return n
}

// AsNode returns n.
func (n *Node) AsNode() *Node { return n }

// As2D returns the Node2D (or Control's Node2D) this node belongs to, or nil.
func (n *Node) As2D() *Node2D { return n.x2 }

// As3D returns the Node3D this node belongs to, or nil.
func (n *Node) As3D() *Node3D { return n.x3 }

// --- Tree manipulation ---

// AddChild appends child to this node's children. It fails with
// ErrInvalidHierarchy if child is nil, destroyed, this node, an ancestor of
// this node, or already attached elsewhere (use Reparent). When this node is
// in a scene the child subtree enters the tree in pre-order.
func (n *Node) AddChild(child Noder) error {
	return n.insertChild(asNode(child), -1, "AddChild")
}

// AddChildAt inserts child at index with the same checks as AddChild.
func (n *Node) AddChildAt(child Noder, index int) error {
	return n.insertChild(asNode(child), index, "AddChildAt")
}

func (n *Node) insertChild(child *Node, index int, op string) error {
	if err := n.checkAttach(child, op, false); err != nil {
		return n.reportHierarchy(err)
	}
	if index < 0 {
		index = len(n.children)
	}
	if index > len(n.children) {
		return n.reportHierarchy(hierarchyErr(op, n, child, "index out of range"))
	}
	n.link(child, index)
	return nil
}

// RemoveChild detaches child. It fails with ErrNotFound if child is not a
// direct child. A rooted child subtree exits the tree before it is unlinked.
// The child is not destroyed.
func (n *Node) RemoveChild(child Noder) error {
	c := asNode(child)
	if c == nil || c.parent != n {
		return n.reportHierarchy(notFoundErr("RemoveChild", n, c, ""))
	}
	n.unlink(c)
	return nil
}

// RemoveFromParent detaches this node from its parent.
// No-op if this node has no parent.
func (n *Node) RemoveFromParent() {
	if n.parent != nil {
		n.parent.unlink(n)
	}
}

// Reparent moves this node under newParent. The move is validated before the
// node is detached, so a failed Reparent leaves the tree unchanged. Rooted
// nodes always receive an exit/enter pair, even when both parents share a
// scene. Reparenting to the current parent is a no-op.
func (n *Node) Reparent(newParent Noder) error {
	p := asNode(newParent)
	if p == nil {
		return n.reportHierarchy(hierarchyErr("Reparent", nil, n, "nil parent"))
	}
	if n.parent == p {
		return nil
	}
	if err := p.checkAttach(n, "Reparent", true); err != nil {
		return p.reportHierarchy(err)
	}
	if n.parent != nil {
		n.parent.unlink(n)
	}
	p.link(n, len(p.children))
	return nil
}

// MoveChild moves child to a new index among its siblings.
func (n *Node) MoveChild(child Noder, index int) error {
	c := asNode(child)
	if c == nil || c.parent != n {
		return n.reportHierarchy(notFoundErr("MoveChild", n, c, ""))
	}
	if index < 0 || index >= len(n.children) {
		return n.reportHierarchy(hierarchyErr("MoveChild", n, c, "index out of range"))
	}
	old := n.indexOf(c)
	if old == index {
		return nil
	}
	// Shift elements to fill the gap and open the target slot.
	if old < index {
		copy(n.children[old:], n.children[old+1:index+1])
	} else {
		copy(n.children[index+1:], n.children[index:old])
	}
	n.children[index] = c
	return nil
}

// Parent returns the parent node, or nil.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node { return n.children }

// NumChildren returns the number of children.
func (n *Node) NumChildren() int { return len(n.children) }

// ChildAt returns the child at the given index.
func (n *Node) ChildAt(index int) *Node { return n.children[index] }

// Root returns the topmost ancestor of n (n itself when it has no parent).
func (n *Node) Root() *Node {
	r := n
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Traverse returns a depth-first pre-order sequence over n and its
// descendants. Each call yields a fresh sequence. Mutating the tree while
// iterating is undefined behavior.
func (n *Node) Traverse() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		n.walk(yield)
	}
}

func (n *Node) walk(yield func(*Node) bool) bool {
	if !yield(n) {
		return false
	}
	for _, c := range n.children {
		if !c.walk(yield) {
			return false
		}
	}
	return true
}

// --- Helpers ---

func asNode(v Noder) *Node {
	if v == nil {
		return nil
	}
	return v.AsNode()
}

// checkAttach validates linking child under n. allowParented skips the
// "already has a parent" rule for Reparent.
func (n *Node) checkAttach(child *Node, op string, allowParented bool) *HierarchyError {
	switch {
	case child == nil:
		return hierarchyErr(op, n, nil, "nil child")
	case n.destroyed:
		return hierarchyErr(op, n, child, "parent is destroyed")
	case child.destroyed:
		return hierarchyErr(op, n, child, "child is destroyed")
	case child == n:
		return hierarchyErr(op, n, child, "node cannot be its own child")
	case isAncestor(child, n):
		return hierarchyErr(op, n, child, "child is an ancestor of parent")
	case child.parent == nil && child.scene != nil:
		return hierarchyErr(op, n, child, "child is a scene root")
	case child.parent != nil && !allowParented:
		return hierarchyErr(op, n, child, "child already has a parent")
	}
	return nil
}

func (n *Node) link(child *Node, index int) {
	child.parent = n
	n.children = append(n.children, nil)
	copy(n.children[index+1:], n.children[index:])
	n.children[index] = child
	invalidateGlobal(child)
	if n.scene != nil {
		child.enterTree(n.scene)
	}
	n.emit(Event{Kind: SignalChildAdded, Node: n, Other: child})
	if n.scene != nil && n.scene.debug {
		n.scene.debugCheckTreeDepth(child)
		n.scene.debugCheckChildCount(n)
	}
}

func (n *Node) unlink(child *Node) {
	if child.scene != nil {
		child.exitTree()
	} else {
		child.detachSubtreeProxies()
	}
	n.removeChildByPtr(child)
	child.parent = nil
	invalidateGlobal(child)
	n.emit(Event{Kind: SignalChildRemoved, Node: n, Other: child})
}

// isAncestor reports whether candidate is node or one of its ancestors.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.parent {
		if p == candidate {
			return true
		}
	}
	return false
}

func (n *Node) indexOf(child *Node) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}

// removeChildByPtr removes child from n.children without clearing child.parent.
// Uses copy+nil to avoid retaining a dangling pointer in the backing array.
func (n *Node) removeChildByPtr(child *Node) {
	i := n.indexOf(child)
	if i < 0 {
		return
	}
	copy(n.children[i:], n.children[i+1:])
	n.children[len(n.children)-1] = nil
	n.children = n.children[:len(n.children)-1]
}

// reportHierarchy logs err on the owning scene (if any) and returns it.
func (n *Node) reportHierarchy(err *HierarchyError) error {
	if s := n.sceneOrNil(); s != nil {
		s.logHierarchyError(err)
	}
	return err
}

func (n *Node) sceneOrNil() *Scene {
	if n == nil {
		return nil
	}
	return n.scene
}
