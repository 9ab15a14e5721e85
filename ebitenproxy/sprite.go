package ebitenproxy

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/canopy"
)

// Sprite is a node Behavior that draws Image at the node. It requests a
// sprite proxy and copies its fields into the proxy whenever the node
// enters a scene drawn by a Renderer.
type Sprite struct {
	Image *ebiten.Image
	Tint  Color
	Blend ebiten.Blend
	Layer uint8
	Order int
}

func (s *Sprite) ProxyKind() canopy.ProxyKind { return canopy.ProxySprite }

func (s *Sprite) OnEnterTree(n *canopy.Node) {
	s.Apply(n)
}

// Apply copies the sprite fields into n's proxy. Call it after changing a
// sprite on a node that is already in a scene.
func (s *Sprite) Apply(n canopy.Noder) {
	p := ProxyOf(n)
	if p == nil {
		return
	}
	p.Image = s.Image
	p.Tint = s.Tint
	p.Blend = s.Blend
	p.Layer = s.Layer
	p.Order = s.Order
}

// NewSprite returns a Node2D named name drawing img.
func NewSprite(name string, img *ebiten.Image) (*canopy.Node2D, *Sprite) {
	n := canopy.NewNode2D(name)
	s := &Sprite{Image: img}
	n.Behavior = s
	return n, s
}
