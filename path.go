package canopy

import "strings"

// FindChild returns the first immediate child named name, or nil.
func (n *Node) FindChild(name string) *Node {
	for _, c := range n.children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// FindDescendant resolves a slash-delimited path relative to n, for example
// "arm/hand". The segments "." and ".." refer to the current node and its
// parent; a leading "/" starts from the tree root, whose own name must be the
// first segment. Empty segments are ignored. Returns nil when the path does
// not resolve.
func (n *Node) FindDescendant(path string) *Node {
	cur := n
	if strings.HasPrefix(path, "/") {
		root := n.Root()
		path = strings.TrimPrefix(path, "/")
		first, rest, _ := strings.Cut(path, "/")
		if first != root.Name {
			return nil
		}
		cur, path = root, rest
	}
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			cur = cur.parent
		default:
			cur = cur.FindChild(seg)
		}
		if cur == nil {
			return nil
		}
	}
	return cur
}

// GetNode resolves path like FindDescendant but returns a HierarchyError
// wrapping ErrNotFound when nothing matches.
func (n *Node) GetNode(path string) (*Node, error) {
	if found := n.FindDescendant(path); found != nil {
		return found, nil
	}
	return nil, notFoundErr("GetNode", n, nil, path)
}

// Path returns the node's absolute path, "/root/arm/hand", built from the
// names of its ancestors.
func (n *Node) Path() string {
	depth := 0
	for p := n; p != nil; p = p.parent {
		depth++
	}
	names := make([]string, depth)
	for p := n; p != nil; p = p.parent {
		depth--
		names[depth] = p.Name
	}
	return "/" + strings.Join(names, "/")
}
