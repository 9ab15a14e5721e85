package canopy

import "fmt"

// SignalKind identifies a per-node event channel.
type SignalKind uint16

const (
	SignalTreeEntered       SignalKind = iota + 1 // node entered a scene (pre-order)
	SignalTreeExiting                             // node is about to leave a scene (post-order)
	SignalChildAdded                              // a child was linked; Event.Other is the child
	SignalChildRemoved                            // a child was unlinked; Event.Other is the child
	SignalTransformChanged                        // global transform was recomputed during Tick
	SignalVisibilityChanged                       // SetVisible changed the flag; Payload is the bool
	SignalDestroying                              // Destroy started (pre-order)

	firstUserSignal
)

var signalNames = map[SignalKind]string{
	SignalTreeEntered:       "tree_entered",
	SignalTreeExiting:       "tree_exiting",
	SignalChildAdded:        "child_added",
	SignalChildRemoved:      "child_removed",
	SignalTransformChanged:  "transform_changed",
	SignalVisibilityChanged: "visibility_changed",
	SignalDestroying:        "destroying",
}

var nextUserSignal = firstUserSignal

// RegisterSignal returns the SignalKind registered under name, creating it on
// first use. Register user signals during initialization; the registry is
// not safe for concurrent use.
func RegisterSignal(name string) SignalKind {
	for k, v := range signalNames {
		if v == name {
			return k
		}
	}
	k := nextUserSignal
	nextUserSignal++
	signalNames[k] = name
	return k
}

func (k SignalKind) String() string {
	if name, ok := signalNames[k]; ok {
		return name
	}
	return fmt.Sprintf("signal(%d)", uint16(k))
}

// Event is delivered to signal handlers.
type Event struct {
	Kind    SignalKind
	Node    *Node // emitter
	Other   *Node // related node, e.g. the child for SignalChildAdded
	Payload any
}

// Handler receives emitted events.
type Handler func(Event)

type subscriber struct {
	id uint64
	fn Handler
}

type signalBus struct {
	nextID uint64
	subs   map[SignalKind][]subscriber
}

// Connection identifies one subscription and can cancel it.
type Connection struct {
	node *Node
	kind SignalKind
	id   uint64
}

// Connect subscribes fn to kind on this node. Handlers run synchronously in
// registration order.
func (n *Node) Connect(kind SignalKind, fn Handler) Connection {
	if n.signals.subs == nil {
		n.signals.subs = make(map[SignalKind][]subscriber)
	}
	n.signals.nextID++
	id := n.signals.nextID
	n.signals.subs[kind] = append(n.signals.subs[kind], subscriber{id: id, fn: fn})
	return Connection{node: n, kind: kind, id: id}
}

// Disconnect removes the subscription. Safe to call more than once, and from
// inside the handler itself.
func (c Connection) Disconnect() {
	if c.node == nil {
		return
	}
	subs := c.node.signals.subs[c.kind]
	for i, s := range subs {
		if s.id == c.id {
			copy(subs[i:], subs[i+1:])
			subs[len(subs)-1] = subscriber{}
			c.node.signals.subs[c.kind] = subs[:len(subs)-1]
			return
		}
	}
}

// NumConnections returns the number of handlers subscribed to kind.
func (n *Node) NumConnections(kind SignalKind) int {
	return len(n.signals.subs[kind])
}

// Emit delivers payload to every handler subscribed to kind on this node.
// Handlers see the subscriber list as it was when Emit was called:
// connecting or disconnecting during dispatch affects the next emission only.
func (n *Node) Emit(kind SignalKind, payload any) {
	n.emit(Event{Kind: kind, Node: n, Payload: payload})
}

func (n *Node) emit(ev Event) {
	subs := n.signals.subs[ev.Kind]
	if len(subs) == 0 {
		return
	}
	snapshot := make([]subscriber, len(subs))
	copy(snapshot, subs)
	for _, s := range snapshot {
		s.fn(ev)
	}
}
