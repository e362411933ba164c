package domain

// Node represents an element of the traversal tree.
//
// A node does not own its parent; ownership of the tree belongs to whoever
// built it (usually a request). The parent chain must be acyclic.
type Node interface {
	// Name returns the traversal name of the node, or "" when it has not been set.
	Name() string
	// Parent returns the parent node, or nil for a root.
	Parent() Node
}

// Namer is implemented by nodes whose name can be assigned after construction.
type Namer interface {
	SetName(name string)
}
