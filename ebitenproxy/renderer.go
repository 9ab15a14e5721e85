// Package ebitenproxy draws a canopy scene with Ebitengine.
//
// Renderer implements canopy.Renderer with a retained tree of proxies. Each
// proxy holds a local geometry matrix pushed by canopy, plus an optional
// image and the keys used to order draws. 3D proxies are drawn by their
// XY-plane footprint; depth is ignored.
package ebitenproxy

import (
	"log/slog"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/canopy"
)

// Color is an RGBA tint with components in [0, 1]. The zero value draws
// the image untinted.
type Color struct {
	R, G, B, A float64
}

// premultiplied returns the color scale for DrawImage.
func (c Color) premultiplied() (r, g, b, a float32) {
	if c == (Color{}) {
		return 1, 1, 1, 1
	}
	a = float32(c.A)
	return float32(c.R) * a, float32(c.G) * a, float32(c.B) * a, a
}

// Proxy is the native object mirroring one canopy node.
type Proxy struct {
	Kind canopy.ProxyKind

	// Image is drawn with its top-left corner at the proxy origin. Proxies
	// without one only contribute their transform to descendants.
	Image *ebiten.Image
	Tint  Color
	Blend ebiten.Blend

	// Layer is the primary sort key, Order the secondary. Ties keep
	// tree order.
	Layer uint8
	Order int

	local    ebiten.GeoM
	visible  bool
	disposed bool
	parent   *Proxy
	children []*Proxy
}

// Parent returns the proxy p is attached under, or nil.
func (p *Proxy) Parent() *Proxy { return p.parent }

// Children returns the attached child proxies in attach order.
func (p *Proxy) Children() []*Proxy { return p.children }

// Visible reports whether p and its subtree are drawn.
func (p *Proxy) Visible() bool { return p.visible }

// Local returns the transform relative to the parent proxy.
func (p *Proxy) Local() ebiten.GeoM { return p.local }

// World composes the local transforms from the topmost ancestor down to p.
func (p *Proxy) World() ebiten.GeoM {
	m := p.local
	for a := p.parent; a != nil; a = a.parent {
		m.Concat(a.local)
	}
	return m
}

// Viewport is the screen rectangle the camera is centered in. The zero
// value maps the camera origin to the top-left corner of the target.
type Viewport struct {
	X, Y, Width, Height float64
}

// Renderer implements canopy.Renderer and canopy.VisibilitySetter.
type Renderer struct {
	Viewport Viewport

	logger    *slog.Logger
	live      int
	commands  []command
	drawCalls int
}

var (
	_ canopy.Renderer         = (*Renderer)(nil)
	_ canopy.VisibilitySetter = (*Renderer)(nil)
)

// New returns a Renderer logging misuse to logger, or to slog.Default when
// logger is nil.
func New(logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{logger: logger.With("component", "ebitenproxy")}
}

// Live returns the number of proxies created and not yet disposed.
func (r *Renderer) Live() int { return r.live }

// DrawCalls returns the number of images submitted by the last Draw.
func (r *Renderer) DrawCalls() int { return r.drawCalls }

// ProxyOf returns n's proxy when it belongs to an ebitenproxy Renderer.
func ProxyOf(n canopy.Noder) *Proxy {
	p, _ := n.AsNode().Proxy().(*Proxy)
	return p
}

// lookup resolves a handle, logging and returning nil for foreign or
// disposed proxies.
func (r *Renderer) lookup(op string, h canopy.ProxyHandle) *Proxy {
	p, ok := h.(*Proxy)
	switch {
	case !ok || p == nil:
		r.logger.Warn("foreign proxy handle", "op", op)
		return nil
	case p.disposed:
		r.logger.Warn("disposed proxy", "op", op, "kind", p.Kind)
		return nil
	}
	return p
}

func (r *Renderer) CreateProxy(kind canopy.ProxyKind) canopy.ProxyHandle {
	r.live++
	return &Proxy{Kind: kind, visible: true}
}

func (r *Renderer) AttachProxyChild(parent, child canopy.ProxyHandle) {
	pp, cp := r.lookup("attach", parent), r.lookup("attach", child)
	if pp == nil || cp == nil {
		return
	}
	if cp.parent != nil {
		r.logger.Warn("proxy already attached", "kind", cp.Kind)
		cp.parent.removeChild(cp)
	}
	cp.parent = pp
	pp.children = append(pp.children, cp)
}

func (r *Renderer) DetachProxyChild(parent, child canopy.ProxyHandle) {
	pp, cp := r.lookup("detach", parent), r.lookup("detach", child)
	if pp == nil || cp == nil {
		return
	}
	if cp.parent != pp {
		r.logger.Warn("detach from non-parent", "kind", cp.Kind)
		return
	}
	pp.removeChild(cp)
}

func (p *Proxy) removeChild(c *Proxy) {
	if i := slices.Index(p.children, c); i >= 0 {
		p.children = slices.Delete(p.children, i, i+1)
	}
	c.parent = nil
}

func (r *Renderer) SetProxyLocalTransform(proxy canopy.ProxyHandle, m mgl64.Mat4) {
	if p := r.lookup("push", proxy); p != nil {
		p.local = GeoMFromAffine(canopy.AffineFromMat4(m))
	}
}

func (r *Renderer) SetProxyVisible(proxy canopy.ProxyHandle, visible bool) {
	if p := r.lookup("visible", proxy); p != nil {
		p.visible = visible
	}
}

func (r *Renderer) DisposeProxy(proxy canopy.ProxyHandle) {
	p := r.lookup("dispose", proxy)
	if p == nil {
		return
	}
	if p.parent != nil {
		r.logger.Warn("dispose of attached proxy", "kind", p.Kind)
		p.parent.removeChild(p)
	}
	for _, c := range p.children {
		c.parent = nil
	}
	p.children = nil
	p.Image = nil
	p.disposed = true
	r.live--
}

// GeoMFromAffine converts a canopy affine matrix into an ebiten.GeoM.
func GeoMFromAffine(m canopy.Affine) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, m[0])
	g.SetElement(1, 0, m[1])
	g.SetElement(0, 1, m[2])
	g.SetElement(1, 1, m[3])
	g.SetElement(0, 2, m[4])
	g.SetElement(1, 2, m[5])
	return g
}
