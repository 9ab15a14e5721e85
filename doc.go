// Package canopy is a retained-mode scene-graph core in the style of Godot's
// Node / Node2D / Node3D hierarchy, meant to sit in front of an external
// renderer.
//
// canopy maintains parent/child ownership, lazily recomputes local and
// global transforms, propagates dirty invalidation down the tree, and keeps
// a renderer's own objects ("render proxies") in sync through the small
// [Renderer] interface. It draws nothing itself; see package ebitenproxy for
// an Ebitengine-backed renderer and package proxytest for a recording one.
//
// # Quick start
//
//	scene := canopy.NewScene(canopy.WithRenderer(r))
//
//	arm := canopy.NewNode2D("arm")
//	arm.SetPosition(canopy.Vec2{X: 10})
//	canopy.Must(scene.Root().AddChild(arm))
//
//	hand := canopy.NewNode2D("hand")
//	hand.SetPosition(canopy.Vec2{Y: 5})
//	canopy.Must(arm.AddChild(hand))
//
//	hand.GlobalPosition() // {10 5}
//
//	// once per frame:
//	scene.Tick()
//
// # Scene tree
//
// Every element is a [Node]. [Node2D], [Control] and [Node3D] embed Node and
// add a transform; tree methods accept any of them through [Noder]. Nodes
// enter a tree when attached, directly or transitively, under a [Scene]
// root, and leave it when detached. Behaviors attached through
// [Node.Behavior] receive lifecycle hooks; every node also has a typed
// signal bus ([Node.Connect], [Node.Emit]).
//
// # Transforms
//
// Setters mark the node's local transform dirty and invalidate the cached
// global transform of every compatible descendant, stopping at subtrees
// that are already dirty. Global transforms are recomputed on read by
// composing with the parent's global transform. A 2D node's global
// transform composes with a 2D parent only, a 3D node's with a 3D parent
// only; any other parent breaks the chain. [Scene.Tick] pushes recomputed
// transforms into render proxies once per tick.
//
// # Concurrency
//
// canopy is single-threaded. Nothing is locked; confine all tree
// and transform operations to one goroutine, typically the game loop.
package canopy
