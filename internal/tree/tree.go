// Package tree assembles flat (path, content) records into a file/folder tree.
//
// Nodes live in an arena and reference each other by index, so passes can walk
// and rewrite the tree without holding pointers into it.
package tree

import (
	"fmt"
	"path"
	"strings"

	"sitegen_server/internal/types"
)

// Kind distinguishes files from folders.
type Kind int

const (
	KindFolder Kind = iota
	KindFile
)

// NodeID indexes a node in the arena. The root folder is always 0.
type NodeID int

const Root NodeID = 0

type node struct {
	kind     Kind
	name     string
	path     string
	content  string
	parent   NodeID
	children []NodeID
}

// Tree is a single-rooted file tree. The zero value is not usable; call New.
type Tree struct {
	nodes  []node
	byPath map[string]NodeID
}

// New returns a tree holding only the root folder.
func New() *Tree {
	return &Tree{
		nodes:  []node{{kind: KindFolder, parent: -1}},
		byPath: map[string]NodeID{"": Root},
	}
}

// FromRecords assembles a new tree from records.
func FromRecords(records []types.FileRecord) (*Tree, error) {
	t := New()
	if err := t.Merge(records); err != nil {
		return nil, err
	}
	return t, nil
}

// NormalizePath turns a generated path into the canonical slash-separated,
// root-relative form used as the tree key.
func NormalizePath(p string) string {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	p = strings.TrimLeft(p, "/")
	if p == "" {
		return ""
	}
	p = path.Clean(p)
	if p == "." {
		return ""
	}
	return p
}

// Merge upserts records in order. Nodes already present are reused, so merging
// a later stage does not touch what earlier stages assembled.
func (t *Tree) Merge(records []types.FileRecord) error {
	for _, r := range records {
		if _, err := t.Upsert(r.Path, r.Content); err != nil {
			return err
		}
	}
	return nil
}

// Upsert creates the file at p, creating intermediate folders, or replaces the
// content of an existing file in place. It reports whether the file already existed.
func (t *Tree) Upsert(p, content string) (bool, error) {
	p = NormalizePath(p)
	if p == "" || strings.HasPrefix(p, "../") || p == ".." {
		return false, fmt.Errorf("invalid file path %q", p)
	}
	if id, ok := t.byPath[p]; ok {
		if t.nodes[id].kind != KindFile {
			return false, fmt.Errorf("path %q is a folder", p)
		}
		t.nodes[id].content = content
		return true, nil
	}

	segments := strings.Split(p, "/")
	parent := Root
	for i, seg := range segments[:len(segments)-1] {
		dir := strings.Join(segments[:i+1], "/")
		id, ok := t.byPath[dir]
		if !ok {
			id = t.add(parent, KindFolder, seg, dir, "")
		} else if t.nodes[id].kind != KindFolder {
			return false, fmt.Errorf("path %q is a file, cannot hold %q", dir, p)
		}
		parent = id
	}
	t.add(parent, KindFile, segments[len(segments)-1], p, content)
	return false, nil
}

func (t *Tree) add(parent NodeID, kind Kind, name, p, content string) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, node{kind: kind, name: name, path: p, content: content, parent: parent})
	t.nodes[parent].children = append(t.nodes[parent].children, id)
	t.byPath[p] = id
	return id
}

// Lookup returns the node at p.
func (t *Tree) Lookup(p string) (NodeID, bool) {
	id, ok := t.byPath[NormalizePath(p)]
	return id, ok
}

// Exists reports whether a file exists at p.
func (t *Tree) Exists(p string) bool {
	id, ok := t.Lookup(p)
	return ok && t.nodes[id].kind == KindFile
}

// Content returns the content of the file at p.
func (t *Tree) Content(p string) (string, bool) {
	id, ok := t.Lookup(p)
	if !ok || t.nodes[id].kind != KindFile {
		return "", false
	}
	return t.nodes[id].content, true
}

// SetContent replaces the content of an existing file.
func (t *Tree) SetContent(p, content string) error {
	id, ok := t.Lookup(p)
	if !ok || t.nodes[id].kind != KindFile {
		return fmt.Errorf("no file at %q", p)
	}
	t.nodes[id].content = content
	return nil
}

// Kind returns the kind of the node.
func (t *Tree) Kind(id NodeID) Kind { return t.nodes[id].kind }

// Path returns the root-relative path of the node.
func (t *Tree) Path(id NodeID) string { return t.nodes[id].path }

// Name returns the last path segment of the node.
func (t *Tree) Name(id NodeID) string { return t.nodes[id].name }

// Parent returns the parent of the node; the root's parent is -1.
func (t *Tree) Parent(id NodeID) NodeID { return t.nodes[id].parent }

// Children returns a copy of the node's child list.
func (t *Tree) Children(id NodeID) []NodeID {
	out := make([]NodeID, len(t.nodes[id].children))
	copy(out, t.nodes[id].children)
	return out
}

// Len is the number of files in the tree.
func (t *Tree) Len() int {
	n := 0
	for _, nd := range t.nodes {
		if nd.kind == KindFile {
			n++
		}
	}
	return n
}

// Files lists all files depth-first in sibling insertion order.
func (t *Tree) Files() []types.FileRecord {
	var out []types.FileRecord
	t.Walk(VisitorFunc(func(t *Tree, id NodeID) error {
		if t.nodes[id].kind == KindFile {
			out = append(out, types.FileRecord{Path: t.nodes[id].path, Content: t.nodes[id].content})
		}
		return nil
	}))
	return out
}

// Paths lists all file paths in Files order.
func (t *Tree) Paths() []string {
	var out []string
	for _, f := range t.Files() {
		out = append(out, f.Path)
	}
	return out
}

// Clone returns a deep copy.
func (t *Tree) Clone() *Tree {
	c := &Tree{
		nodes:  make([]node, len(t.nodes)),
		byPath: make(map[string]NodeID, len(t.byPath)),
	}
	for i, nd := range t.nodes {
		nd.children = append([]NodeID(nil), nd.children...)
		c.nodes[i] = nd
	}
	for k, v := range t.byPath {
		c.byPath[k] = v
	}
	return c
}

// Equal reports whether both trees hold the same files and folders in the same order.
func (t *Tree) Equal(o *Tree) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.equalAt(Root, o, Root)
}

func (t *Tree) equalAt(a NodeID, o *Tree, b NodeID) bool {
	na, nb := t.nodes[a], o.nodes[b]
	if na.kind != nb.kind || na.name != nb.name || na.content != nb.content || len(na.children) != len(nb.children) {
		return false
	}
	for i := range na.children {
		if !t.equalAt(na.children[i], o, nb.children[i]) {
			return false
		}
	}
	return true
}
