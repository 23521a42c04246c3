package project

import "time"

// Kind distinguishes files from folders
type Kind string

const (
	KindFile   Kind = "file"
	KindFolder Kind = "folder"
)

// Node is a file or folder in the project tree. Nodes are created and
// mutated only through Tree; the accessors below are read-only views.
type Node struct {
	id         string
	name       string
	kind       Kind
	parentID   string // empty only for the root
	children   []*Node
	content    string
	language   string
	expanded   bool
	createdAt  time.Time
	modifiedAt time.Time
}

func (n *Node) ID() string            { return n.id }
func (n *Node) Name() string          { return n.name }
func (n *Node) Kind() Kind            { return n.kind }
func (n *Node) ParentID() string      { return n.parentID }
func (n *Node) IsFile() bool          { return n.kind == KindFile }
func (n *Node) IsFolder() bool        { return n.kind == KindFolder }
func (n *Node) IsRoot() bool          { return n.parentID == "" }
func (n *Node) Content() string       { return n.content }
func (n *Node) Language() string      { return n.language }
func (n *Node) Expanded() bool        { return n.expanded }
func (n *Node) CreatedAt() time.Time  { return n.createdAt }
func (n *Node) ModifiedAt() time.Time { return n.modifiedAt }

// Children returns a copy of the folder's ordered children, or nil for a file.
func (n *Node) Children() []*Node {
	if n.kind != KindFolder {
		return nil
	}
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

func (n *Node) indexOf(childID string) int {
	for i, c := range n.children {
		if c.id == childID {
			return i
		}
	}
	return -1
}

func (n *Node) removeChild(childID string) {
	if i := n.indexOf(childID); i >= 0 {
		n.children = append(n.children[:i], n.children[i+1:]...)
	}
}
