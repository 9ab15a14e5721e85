package ebitenproxy

import (
	"cmp"
	"slices"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/canopy"
)

// command is one image draw collected from the proxy tree.
type command struct {
	image     *ebiten.Image
	geoM      ebiten.GeoM
	tint      Color
	blend     ebiten.Blend
	layer     uint8
	order     int
	treeOrder int
}

// Draw renders the scene's proxy tree onto target as seen from the scene
// camera. Hidden proxies are skipped with their subtrees.
func (r *Renderer) Draw(target *ebiten.Image, rc canopy.RenderContext) {
	r.collect(rc)
	view := r.ViewGeoM(rc)
	var op ebiten.DrawImageOptions
	for i := range r.commands {
		submit(target, &r.commands[i], view, &op)
	}
	r.drawCalls = len(r.commands)
}

// ViewGeoM returns the world-to-screen matrix: the camera's view followed by
// centering in the viewport.
func (r *Renderer) ViewGeoM(rc canopy.RenderContext) ebiten.GeoM {
	view := GeoMFromAffine(rc.View2D())
	if v := r.Viewport; v.Width > 0 && v.Height > 0 {
		view.Translate(v.X+v.Width/2, v.Y+v.Height/2)
	}
	return view
}

// WorldToScreen converts world coordinates to screen coordinates.
func (r *Renderer) WorldToScreen(rc canopy.RenderContext, p canopy.Vec2) canopy.Vec2 {
	view := r.ViewGeoM(rc)
	x, y := view.Apply(p.X, p.Y)
	return canopy.Vec2{X: x, Y: y}
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (r *Renderer) ScreenToWorld(rc canopy.RenderContext, p canopy.Vec2) canopy.Vec2 {
	view := r.ViewGeoM(rc)
	if !view.IsInvertible() {
		return p
	}
	view.Invert()
	x, y := view.Apply(p.X, p.Y)
	return canopy.Vec2{X: x, Y: y}
}

// collect fills r.commands in draw order.
func (r *Renderer) collect(rc canopy.RenderContext) {
	r.commands = r.commands[:0]
	if rc.Scene == nil {
		return
	}
	root, _ := rc.Scene.RootProxy().(*Proxy)
	if root == nil || root.disposed {
		return
	}
	treeOrder := 0
	r.traverse(root, ebiten.GeoM{}, &treeOrder)
	slices.SortStableFunc(r.commands, compareCommands)
}

func (r *Renderer) traverse(p *Proxy, parent ebiten.GeoM, treeOrder *int) {
	if !p.visible {
		return
	}
	world := p.local
	world.Concat(parent)
	if p.Image != nil {
		r.commands = append(r.commands, command{
			image:     p.Image,
			geoM:      world,
			tint:      p.Tint,
			blend:     p.Blend,
			layer:     p.Layer,
			order:     p.Order,
			treeOrder: *treeOrder,
		})
		*treeOrder++
	}
	for _, c := range p.children {
		r.traverse(c, world, treeOrder)
	}
}

func submit(target *ebiten.Image, cmd *command, view ebiten.GeoM, op *ebiten.DrawImageOptions) {
	op.GeoM = cmd.geoM
	op.GeoM.Concat(view)
	op.ColorScale.Reset()
	op.ColorScale.Scale(cmd.tint.premultiplied())
	op.Blend = cmd.blend
	target.DrawImage(cmd.image, op)
}

// compareCommands orders draws by layer, then order, then tree order.
func compareCommands(a, b command) int {
	return cmp.Or(
		cmp.Compare(a.layer, b.layer),
		cmp.Compare(a.order, b.order),
		cmp.Compare(a.treeOrder, b.treeOrder),
	)
}
