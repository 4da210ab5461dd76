package tree

import "errors"

// SkipChildren returned from Visit on a folder stops the walk from descending into it.
var SkipChildren = errors.New("skip children")

// Visitor is called once per node in depth-first pre-order.
type Visitor interface {
	Visit(t *Tree, id NodeID) error
}

// VisitorFunc adapts a function to Visitor.
type VisitorFunc func(t *Tree, id NodeID) error

func (f VisitorFunc) Visit(t *Tree, id NodeID) error { return f(t, id) }

// Walk visits every node below the root. Visitors may change file content but
// must not add nodes; the child list is snapshotted before descending.
func (t *Tree) Walk(v Visitor) error {
	for _, c := range t.Children(Root) {
		if err := t.walk(c, v); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) walk(id NodeID, v Visitor) error {
	err := v.Visit(t, id)
	if errors.Is(err, SkipChildren) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, c := range t.Children(id) {
		if err := t.walk(c, v); err != nil {
			return err
		}
	}
	return nil
}

// FileNode is the JSON hand-off view of the tree: a File carries Content, a
// Folder carries Children.
type FileNode struct {
	Type     string     `json:"type"`
	Name     string     `json:"name"`
	Path     string     `json:"path"`
	Content  *string    `json:"content,omitempty"`
	Children []FileNode `json:"children,omitempty"`
}

// Snapshot converts the tree into nested FileNode values rooted at an unnamed folder.
func (t *Tree) Snapshot() FileNode {
	return t.snapshot(Root)
}

func (t *Tree) snapshot(id NodeID) FileNode {
	nd := t.nodes[id]
	if nd.kind == KindFile {
		content := nd.content
		return FileNode{Type: "file", Name: nd.name, Path: nd.path, Content: &content}
	}
	fn := FileNode{Type: "folder", Name: nd.name, Path: nd.path, Children: []FileNode{}}
	for _, c := range nd.children {
		fn.Children = append(fn.Children, t.snapshot(c))
	}
	return fn
}
