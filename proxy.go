package canopy

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"
)

// ProxyHandle is an opaque renderer-native object mirroring a node, for
// example a group, mesh or light in the renderer's own scene graph.
type ProxyHandle any

// Renderer is the collaborator that owns renderer-native objects. canopy
// calls it to mirror the node hierarchy into the renderer and to push
// computed transforms; it never inspects the handles it gets back.
type Renderer interface {
	// CreateProxy allocates a native object for a node of the given kind.
	CreateProxy(kind ProxyKind) ProxyHandle
	AttachProxyChild(parent, child ProxyHandle)
	DetachProxyChild(parent, child ProxyHandle)
	// SetProxyLocalTransform stores the node's transform relative to the
	// proxy's parent. 2D transforms are embedded in the XY plane.
	SetProxyLocalTransform(proxy ProxyHandle, m mgl64.Mat4)
	DisposeProxy(proxy ProxyHandle)
}

// VisibilitySetter is optionally implemented by a Renderer that can hide
// proxies.
type VisibilitySetter interface {
	SetProxyVisible(proxy ProxyHandle, visible bool)
}

// ProxyKinder is optionally implemented by a node Behavior to choose the
// native object created for the node. Returning ProxyNone suppresses the
// proxy. Nodes with a transform default to ProxyGroup; plain nodes to none.
type ProxyKinder interface {
	ProxyKind() ProxyKind
}

// proxyBinding is a node's 1:1 link to its render proxy.
type proxyBinding struct {
	renderer Renderer
	handle   ProxyHandle
	parent   ProxyHandle // handle this proxy is attached under
	owner    *Node       // node owning parent; nil for the scene root proxy
	attached bool
	released bool // disposed by Destroy; any later push is a lifecycle bug
}

// Proxy returns the node's render proxy, or nil if it has none.
func (n *Node) Proxy() ProxyHandle { return n.proxy.handle }

func proxyKindFor(n *Node) ProxyKind {
	if k, ok := n.Behavior.(ProxyKinder); ok {
		return k.ProxyKind()
	}
	if n.hasTransform() {
		return ProxyGroup
	}
	return ProxyNone
}

// bindProxy creates the node's proxy on first use and attaches it under the
// nearest ancestor proxy. Called in pre-order as the node enters a scene.
func (n *Node) bindProxy() {
	s := n.scene
	if s.renderer == nil {
		return
	}
	b := &n.proxy
	if b.handle == nil {
		kind := proxyKindFor(n)
		if kind == ProxyNone {
			return
		}
		b.renderer = s.renderer
		b.handle = s.renderer.CreateProxy(kind)
		b.released = false
		if !n.visible {
			b.pushVisible(n, false)
		}
	}
	if !b.attached {
		b.owner, b.parent = n.nearestProxyAncestor()
		b.renderer.AttachProxyChild(b.parent, b.handle)
		b.attached = true
	}
}

// nearestProxyAncestor walks up n's transform chain, stopping where the
// chain breaks, and returns the first ancestor with a proxy. Without one the
// proxy hangs under the scene root proxy.
func (n *Node) nearestProxyAncestor() (*Node, ProxyHandle) {
	for c, p := n, n.parent; p != nil && compatible(p, c); c, p = p, p.parent {
		if p.proxy.handle != nil {
			return p, p.proxy.handle
		}
	}
	return nil, n.scene.rootProxy
}

// detachProxyLeaving detaches the proxy when the node it hangs under is not
// part of the subtree rooted at top, which is leaving the scene. Proxies
// inside the subtree stay linked for re-entry.
func (n *Node) detachProxyLeaving(top *Node) {
	b := &n.proxy
	if !b.attached {
		return
	}
	if b.owner == nil || !isAncestor(top, b.owner) {
		b.renderer.DetachProxyChild(b.parent, b.handle)
		b.attached = false
		b.owner, b.parent = nil, nil
	}
}

// detachSubtreeProxies detaches every proxy in n's subtree that hangs under
// a node outside it. Called when an unrooted subtree is unlinked, so that
// proxies never stay attached under a former ancestor.
func (n *Node) detachSubtreeProxies() {
	for d := range n.Traverse() {
		d.detachProxyLeaving(n)
	}
}

// releaseProxy disposes the proxy. Called in post-order by Destroy.
func (n *Node) releaseProxy() {
	b := &n.proxy
	if b.handle == nil {
		return
	}
	if b.attached {
		b.renderer.DetachProxyChild(b.parent, b.handle)
	}
	b.renderer.DisposeProxy(b.handle)
	*b = proxyBinding{released: true}
}

// releaseForeignProxies disposes proxies in n's subtree that belong to a
// renderer other than r, children first, so they are recreated on entry.
// A nil r releases every proxy.
func releaseForeignProxies(n *Node, r Renderer) {
	for _, c := range n.children {
		releaseForeignProxies(c, r)
	}
	b := &n.proxy
	if b.handle != nil && b.renderer != r {
		if b.attached {
			b.renderer.DetachProxyChild(b.parent, b.handle)
		}
		b.renderer.DisposeProxy(b.handle)
		*b = proxyBinding{}
	}
}

// PushTransform resolves the node's global transform and writes it into the
// render proxy now rather than at the next Tick. No-op for nodes without a
// proxy. Pushing after Destroy is reported as ErrDetachedProxy: a panic in
// debug mode, an error log otherwise.
func (n *Node) PushTransform() {
	b := &n.proxy
	if b.released {
		reportDetachedProxy(n)
		return
	}
	if b.handle == nil {
		return
	}
	b.renderer.SetProxyLocalTransform(b.handle, n.proxyMatrix())
}

// proxyMatrix returns the node's transform relative to the node owning its
// proxy parent, so that composing the proxy chain reproduces every node's
// global transform. The owner is always in the node's transform chain.
func (n *Node) proxyMatrix() mgl64.Mat4 {
	owner := n.proxy.owner
	switch {
	case owner == nil:
		return n.globalMat4()
	case owner == n.parent && n.x2 != nil:
		return n.x2.LocalTransform().Mat4()
	case owner == n.parent:
		return n.x3.LocalTransform()
	case n.x2 != nil:
		return owner.x2.GlobalTransform().Inverse().Mul(n.x2.GlobalTransform()).Mat4()
	default:
		return owner.x3.GlobalTransform().Inv().Mul4(n.x3.GlobalTransform())
	}
}

// globalMat4 returns the global transform as a 4x4 matrix; the identity for
// plain nodes, which have none.
func (n *Node) globalMat4() mgl64.Mat4 {
	switch {
	case n.x2 != nil:
		return n.x2.GlobalTransform().Mat4()
	case n.x3 != nil:
		return n.x3.GlobalTransform()
	default:
		return mgl64.Ident4()
	}
}

func (b *proxyBinding) pushVisible(n *Node, v bool) {
	if b.released {
		reportDetachedProxy(n)
		return
	}
	if b.handle == nil {
		return
	}
	if vs, ok := b.renderer.(VisibilitySetter); ok {
		vs.SetProxyVisible(b.handle, v)
	}
}

func reportDetachedProxy(n *Node) {
	if globalDebug {
		panic(ErrDetachedProxy.Error() + ": node " + n.Name)
	}
	slog.Default().Error(ErrDetachedProxy.Error(), "component", "canopy", "node", n.Name, "id", n.ID)
}
