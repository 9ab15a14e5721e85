package canopy

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 4 transform components of a node simultaneously.
// Create one via the convenience constructors (TweenPosition, TweenScale,
// TweenRotation and their 3D variants) and call Update(dt) each frame. Values
// are written through the node's setters, so dirty propagation and proxy
// pushes happen as for any other mutation. If the target node is destroyed,
// the group stops immediately.
//
// There is no global animation manager. Users call Update themselves.
type TweenGroup struct {
	tweens [4]*gween.Tween
	values [4]float64
	count  int
	apply  func(v [4]float64)
	target *Node
	Done   bool
}

// Update advances all tweens by dt seconds and applies the values to the
// target. If the target node has been destroyed, Done is set to true and no
// writes occur.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	if g.target.IsDestroyed() {
		g.Done = true
		return
	}

	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		g.values[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone
	g.apply(g.values)
}

func newTweenGroup(target *Node, from, to []float64, duration float32, fn ease.TweenFunc, apply func([4]float64)) *TweenGroup {
	g := &TweenGroup{count: len(from), target: target, apply: apply}
	for i := range from {
		g.tweens[i] = gween.New(float32(from[i]), float32(to[i]), duration, fn)
		g.values[i] = from[i]
	}
	return g
}

// TweenPosition animates a 2D node's local position to `to`.
func TweenPosition(n *Node2D, to Vec2, duration float32, fn ease.TweenFunc) *TweenGroup {
	from := n.position
	return newTweenGroup(&n.Node, []float64{from.X, from.Y}, []float64{to.X, to.Y}, duration, fn,
		func(v [4]float64) { n.SetPosition(Vec2{v[0], v[1]}) })
}

// TweenScale animates a 2D node's local scale to `to`.
func TweenScale(n *Node2D, to Vec2, duration float32, fn ease.TweenFunc) *TweenGroup {
	from := n.scale
	return newTweenGroup(&n.Node, []float64{from.X, from.Y}, []float64{to.X, to.Y}, duration, fn,
		func(v [4]float64) { n.SetScale(Vec2{v[0], v[1]}) })
}

// TweenRotation animates a 2D node's local rotation to `to` radians.
func TweenRotation(n *Node2D, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	return newTweenGroup(&n.Node, []float64{n.rotation}, []float64{to}, duration, fn,
		func(v [4]float64) { n.SetRotation(v[0]) })
}

// TweenPosition3D animates a 3D node's local position to `to`.
func TweenPosition3D(n *Node3D, to mgl64.Vec3, duration float32, fn ease.TweenFunc) *TweenGroup {
	from := n.position
	return newTweenGroup(&n.Node, from[:], to[:], duration, fn,
		func(v [4]float64) { n.SetPosition(mgl64.Vec3{v[0], v[1], v[2]}) })
}

// TweenRotation3D animates a 3D node's local Euler rotation to `to`,
// component by component.
func TweenRotation3D(n *Node3D, to mgl64.Vec3, duration float32, fn ease.TweenFunc) *TweenGroup {
	from := n.rotation
	return newTweenGroup(&n.Node, from[:], to[:], duration, fn,
		func(v [4]float64) { n.SetRotation(mgl64.Vec3{v[0], v[1], v[2]}) })
}

// TweenScale3D animates a 3D node's local scale to `to`.
func TweenScale3D(n *Node3D, to mgl64.Vec3, duration float32, fn ease.TweenFunc) *TweenGroup {
	from := n.scale
	return newTweenGroup(&n.Node, from[:], to[:], duration, fn,
		func(v [4]float64) { n.SetScale(mgl64.Vec3{v[0], v[1], v[2]}) })
}
