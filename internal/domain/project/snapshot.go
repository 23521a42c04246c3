package project

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"
)

// Snapshot is the persisted form of a tree plus the ids of its open files
type Snapshot struct {
	Root      *NodeSnapshot `json:"root"`
	OpenFiles []string      `json:"openFiles"`
}

// NodeSnapshot mirrors Node without back-references. ParentID is written
// for readers of the blob but rebuilt from nesting on load.
type NodeSnapshot struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Kind       Kind            `json:"kind"`
	ParentID   *string         `json:"parentId"`
	Children   []*NodeSnapshot `json:"children"`
	Content    *string         `json:"content"`
	Language   *string         `json:"language"`
	Expanded   bool            `json:"expanded"`
	CreatedAt  time.Time       `json:"createdAt"`
	ModifiedAt time.Time       `json:"modifiedAt"`
}

// Snapshot captures the tree. openFiles is copied; nil becomes empty.
func (t *Tree) Snapshot(openFiles []string) *Snapshot {
	open := make([]string, len(openFiles))
	copy(open, openFiles)
	return &Snapshot{
		Root:      snapshotNode(t.root),
		OpenFiles: open,
	}
}

// SnapshotNode captures the subtree rooted at id
func (t *Tree) SnapshotNode(id string) (*NodeSnapshot, error) {
	n := t.index[id]
	if n == nil {
		return nil, newError(OpRead, id, ErrNotFound)
	}
	return snapshotNode(n), nil
}

func snapshotNode(n *Node) *NodeSnapshot {
	s := &NodeSnapshot{
		ID:         n.id,
		Name:       n.name,
		Kind:       n.kind,
		Expanded:   n.expanded,
		CreatedAt:  n.createdAt,
		ModifiedAt: n.modifiedAt,
	}
	if n.parentID != "" {
		parent := n.parentID
		s.ParentID = &parent
	}
	if n.kind == KindFolder {
		s.Children = make([]*NodeSnapshot, 0, len(n.children))
		for _, c := range n.children {
			s.Children = append(s.Children, snapshotNode(c))
		}
		return s
	}
	content, language := n.content, n.language
	s.Content = &content
	s.Language = &language
	return s
}

// Deserialize rebuilds a tree from a snapshot. Any structural problem is
// reported as ErrDeserializationFailed and no tree is returned.
func Deserialize(snap *Snapshot) (*Tree, error) {
	if snap == nil || snap.Root == nil {
		return nil, deserializeError("missing root")
	}
	if snap.Root.Kind != KindFolder {
		return nil, deserializeError("root %q is not a folder", snap.Root.ID)
	}
	if snap.Root.ParentID != nil {
		return nil, deserializeError("root %q has a parent", snap.Root.ID)
	}

	t := &Tree{
		index: make(map[string]*Node),
		now:   utcNow,
	}
	root, err := t.restore(snap.Root, "")
	if err != nil {
		return nil, err
	}
	t.root = root
	return t, nil
}

func (t *Tree) restore(s *NodeSnapshot, parentID string) (*Node, error) {
	if s == nil {
		return nil, deserializeError("nil node under %q", parentID)
	}
	if s.ID == "" {
		return nil, deserializeError("node without id under %q", parentID)
	}
	if _, dup := t.index[s.ID]; dup {
		return nil, deserializeError("duplicate id %q", s.ID)
	}
	if blank(s.Name) {
		return nil, deserializeError("node %q has no name", s.ID)
	}

	n := &Node{
		id:         s.ID,
		name:       s.Name,
		kind:       s.Kind,
		parentID:   parentID,
		expanded:   s.Expanded,
		createdAt:  s.CreatedAt,
		modifiedAt: s.ModifiedAt,
	}
	t.index[n.id] = n

	switch s.Kind {
	case KindFolder:
		if s.Content != nil {
			return nil, deserializeError("folder %q has content", s.ID)
		}
		n.children = make([]*Node, 0, len(s.Children))
		for _, cs := range s.Children {
			child, err := t.restore(cs, n.id)
			if err != nil {
				return nil, err
			}
			n.children = append(n.children, child)
		}
	case KindFile:
		if len(s.Children) > 0 {
			return nil, deserializeError("file %q has children", s.ID)
		}
		if s.Content != nil {
			n.content = *s.Content
		}
		if s.Language != nil {
			n.language = *s.Language
		} else {
			n.language = InferLanguage(s.Name)
		}
		n.expanded = false
	default:
		return nil, deserializeError("node %q has unknown kind %q", s.ID, s.Kind)
	}
	return n, nil
}

func deserializeError(format string, args ...any) error {
	return newError(OpDeserialize, "", fmt.Errorf("%w: %s", ErrDeserializationFailed, fmt.Sprintf(format, args...)))
}

// EncodeSnapshot renders a snapshot as compact JSON
func EncodeSnapshot(snap *Snapshot) ([]byte, error) {
	return sonic.ConfigStd.Marshal(snap)
}

// EncodeSnapshotIndent renders a snapshot as indented JSON for export
func EncodeSnapshotIndent(snap *Snapshot) ([]byte, error) {
	return sonic.ConfigStd.MarshalIndent(snap, "", "  ")
}

// DecodeSnapshot parses JSON produced by EncodeSnapshot
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := sonic.ConfigStd.Unmarshal(data, &snap); err != nil {
		return nil, deserializeError("%v", err)
	}
	if snap.OpenFiles == nil {
		snap.OpenFiles = []string{}
	}
	return &snap, nil
}

// Load decodes and rebuilds a tree in one step
func Load(data []byte) (*Tree, *Snapshot, error) {
	snap, err := DecodeSnapshot(data)
	if err != nil {
		return nil, nil, err
	}
	t, err := Deserialize(snap)
	if err != nil {
		return nil, nil, err
	}
	return t, snap, nil
}
