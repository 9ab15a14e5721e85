// Package proxytest provides a canopy.Renderer that records every call and
// mirrors the proxy hierarchy in memory, for tests of code built on canopy.
package proxytest

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/phanxgames/canopy"
)

// Proxy is the recorded native object.
type Proxy struct {
	ID        int
	Kind      canopy.ProxyKind
	Parent    *Proxy
	Children  []*Proxy
	Transform mgl64.Mat4
	Visible   bool
	Disposed  bool
	Pushes    int
}

// Global composes the transforms from the topmost ancestor down to p.
func (p *Proxy) Global() mgl64.Mat4 {
	m := p.Transform
	for a := p.Parent; a != nil; a = a.Parent {
		m = a.Transform.Mul4(m)
	}
	return m
}

// Call is one recorded Renderer call. Proxy and Other are proxy IDs; Other
// is the child for attach and detach, zero otherwise.
type Call struct {
	Op    string
	Proxy int
	Other int
}

func (c Call) String() string {
	if c.Other != 0 {
		return fmt.Sprintf("%s(%d,%d)", c.Op, c.Proxy, c.Other)
	}
	return fmt.Sprintf("%s(%d)", c.Op, c.Proxy)
}

// Recorder implements canopy.Renderer and canopy.VisibilitySetter. Misuse
// such as a push into a disposed proxy is collected in Violations rather
// than failing, so tests can assert on it.
type Recorder struct {
	Calls      []Call
	Violations []string

	proxies []*Proxy
}

var (
	_ canopy.Renderer         = (*Recorder)(nil)
	_ canopy.VisibilitySetter = (*Recorder)(nil)
)

// New returns an empty Recorder.
func New() *Recorder {
	return &Recorder{}
}

func (r *Recorder) record(op string, p, other *Proxy) {
	c := Call{Op: op}
	if p != nil {
		c.Proxy = p.ID
	}
	if other != nil {
		c.Other = other.ID
	}
	r.Calls = append(r.Calls, c)
}

func (r *Recorder) violate(format string, args ...any) {
	r.Violations = append(r.Violations, fmt.Sprintf(format, args...))
}

func (r *Recorder) proxy(h canopy.ProxyHandle) *Proxy {
	p, ok := h.(*Proxy)
	if !ok || p == nil {
		r.violate("foreign handle %v", h)
		return nil
	}
	return p
}

// CreateProxy allocates a new Proxy.
func (r *Recorder) CreateProxy(kind canopy.ProxyKind) canopy.ProxyHandle {
	p := &Proxy{ID: len(r.proxies) + 1, Kind: kind, Transform: mgl64.Ident4(), Visible: true}
	r.proxies = append(r.proxies, p)
	r.record("create", p, nil)
	return p
}

// AttachProxyChild links child under parent.
func (r *Recorder) AttachProxyChild(parent, child canopy.ProxyHandle) {
	pp, cp := r.proxy(parent), r.proxy(child)
	if pp == nil || cp == nil {
		return
	}
	r.record("attach", pp, cp)
	switch {
	case pp.Disposed || cp.Disposed:
		r.violate("attach %d under %d: disposed proxy", cp.ID, pp.ID)
	case cp.Parent != nil:
		r.violate("attach %d under %d: already attached under %d", cp.ID, pp.ID, cp.Parent.ID)
	}
	if cp.Parent != nil {
		cp.Parent.removeChild(cp)
	}
	cp.Parent = pp
	pp.Children = append(pp.Children, cp)
}

// DetachProxyChild unlinks child from parent.
func (r *Recorder) DetachProxyChild(parent, child canopy.ProxyHandle) {
	pp, cp := r.proxy(parent), r.proxy(child)
	if pp == nil || cp == nil {
		return
	}
	r.record("detach", pp, cp)
	if cp.Parent != pp {
		r.violate("detach %d from %d: not its parent", cp.ID, pp.ID)
		return
	}
	pp.removeChild(cp)
	cp.Parent = nil
}

// SetProxyLocalTransform stores m on the proxy.
func (r *Recorder) SetProxyLocalTransform(proxy canopy.ProxyHandle, m mgl64.Mat4) {
	p := r.proxy(proxy)
	if p == nil {
		return
	}
	r.record("push", p, nil)
	if p.Disposed {
		r.violate("push to disposed proxy %d", p.ID)
		return
	}
	p.Transform = m
	p.Pushes++
}

// SetProxyVisible stores the visibility flag on the proxy.
func (r *Recorder) SetProxyVisible(proxy canopy.ProxyHandle, visible bool) {
	p := r.proxy(proxy)
	if p == nil {
		return
	}
	r.record("visible", p, nil)
	if p.Disposed {
		r.violate("visibility change on disposed proxy %d", p.ID)
		return
	}
	p.Visible = visible
}

// DisposeProxy marks the proxy disposed.
func (r *Recorder) DisposeProxy(proxy canopy.ProxyHandle) {
	p := r.proxy(proxy)
	if p == nil {
		return
	}
	r.record("dispose", p, nil)
	switch {
	case p.Disposed:
		r.violate("dispose %d twice", p.ID)
	case p.Parent != nil:
		r.violate("dispose %d while attached under %d", p.ID, p.Parent.ID)
	}
	p.Disposed = true
}

// Of returns the recorded Proxy backing n, or nil when n has none.
func (r *Recorder) Of(n canopy.Noder) *Proxy {
	p, _ := n.AsNode().Proxy().(*Proxy)
	return p
}

// Proxies returns every proxy created so far, in creation order.
func (r *Recorder) Proxies() []*Proxy {
	return r.proxies
}

// Live returns the number of proxies not yet disposed.
func (r *Recorder) Live() int {
	live := 0
	for _, p := range r.proxies {
		if !p.Disposed {
			live++
		}
	}
	return live
}

// Ops returns the recorded operations with the given names, in order. With
// no names it returns all of them.
func (r *Recorder) Ops(names ...string) []Call {
	if len(names) == 0 {
		return r.Calls
	}
	var out []Call
	for _, c := range r.Calls {
		for _, name := range names {
			if c.Op == name {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Reset clears recorded calls and violations but keeps the proxies.
func (r *Recorder) Reset() {
	r.Calls = nil
	r.Violations = nil
}

// Dump renders the attached hierarchy under root as an indented list of
// proxy IDs and kinds.
func (r *Recorder) Dump(root canopy.ProxyHandle) string {
	p := r.proxy(root)
	if p == nil {
		return ""
	}
	var sb strings.Builder
	p.dump(&sb, 0)
	return sb.String()
}

func (p *Proxy) dump(sb *strings.Builder, depth int) {
	fmt.Fprintf(sb, "%s%d:%s\n", strings.Repeat("  ", depth), p.ID, p.Kind)
	for _, c := range p.Children {
		c.dump(sb, depth+1)
	}
}

func (p *Proxy) removeChild(c *Proxy) {
	for i, x := range p.Children {
		if x == c {
			p.Children = append(p.Children[:i], p.Children[i+1:]...)
			return
		}
	}
}
