// Package ecs mirrors canopy nodes into a [Donburi] world.
//
// [Bind] creates an entity carrying a [NodeRef] for a node and republishes
// the node's lifecycle signals as [NodeEvent] values on [NodeEventType].
// Events are queued; systems consume them with events.Subscribe and
// ProcessEvents.
//
// Usage:
//
//	ecs.BindTree(world, scene.Root())
//	ecs.NodeEventType.Subscribe(world, onNodeEvent)
//	...
//	scene.Tick()
//	ecs.NodeEventType.ProcessEvents(world)
//	ecs.Sweep(world)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
