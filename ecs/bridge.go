package ecs

import (
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
	"github.com/yohamta/donburi/filter"

	"github.com/phanxgames/canopy"
)

// NodeRef links an entity to its node.
type NodeRef struct {
	Node *canopy.Node
}

// NodeComponent is the component type holding a NodeRef.
var NodeComponent = donburi.NewComponentType[NodeRef]()

// NodeEvent is a node signal republished into the world.
type NodeEvent struct {
	Kind   canopy.SignalKind
	Entity donburi.Entity
	Node   *canopy.Node
}

// NodeEventType is the Donburi event type carrying NodeEvents.
var NodeEventType = events.NewEventType[NodeEvent]()

// BridgedSignals are the signals Bind republishes.
var BridgedSignals = []canopy.SignalKind{
	canopy.SignalTreeEntered,
	canopy.SignalTreeExiting,
	canopy.SignalTransformChanged,
	canopy.SignalVisibilityChanged,
	canopy.SignalDestroying,
}

// Binding is the link between one node and its entity.
type Binding struct {
	world  donburi.World
	entity donburi.Entity
	conns  []canopy.Connection
}

// Bind creates an entity for n and starts republishing n's signals.
func Bind(world donburi.World, n canopy.Noder) *Binding {
	node := n.AsNode()
	e := world.Create(NodeComponent)
	donburi.SetValue(world.Entry(e), NodeComponent, NodeRef{Node: node})

	b := &Binding{world: world, entity: e}
	for _, kind := range BridgedSignals {
		b.conns = append(b.conns, node.Connect(kind, b.publish))
	}
	return b
}

// BindTree binds n and every descendant, in pre-order.
func BindTree(world donburi.World, n canopy.Noder) []*Binding {
	var out []*Binding
	for node := range n.AsNode().Traverse() {
		out = append(out, Bind(world, node))
	}
	return out
}

// Entity returns the bound entity.
func (b *Binding) Entity() donburi.Entity { return b.entity }

// Unbind stops republishing and removes the entity.
func (b *Binding) Unbind() {
	for _, c := range b.conns {
		c.Disconnect()
	}
	b.conns = nil
	if b.world.Valid(b.entity) {
		b.world.Remove(b.entity)
	}
}

func (b *Binding) publish(ev canopy.Event) {
	if !b.world.Valid(b.entity) {
		return
	}
	NodeEventType.Publish(b.world, NodeEvent{Kind: ev.Kind, Entity: b.entity, Node: ev.Node})
}

var nodeQuery = donburi.NewQuery(filter.Contains(NodeComponent))

// Sweep removes entities whose node has been destroyed and returns how many
// it removed. Run it after processing events so handlers still see them.
func Sweep(world donburi.World) int {
	var dead []donburi.Entity
	nodeQuery.Each(world, func(entry *donburi.Entry) {
		if ref := NodeComponent.Get(entry); ref.Node == nil || ref.Node.IsDestroyed() {
			dead = append(dead, entry.Entity())
		}
	})
	for _, e := range dead {
		world.Remove(e)
	}
	return len(dead)
}

// NodeOf returns the node bound to e, or nil.
func NodeOf(world donburi.World, e donburi.Entity) *canopy.Node {
	if !world.Valid(e) {
		return nil
	}
	entry := world.Entry(e)
	if !entry.HasComponent(NodeComponent) {
		return nil
	}
	return NodeComponent.Get(entry).Node
}
