package project

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RootName is the name given to the root folder of a new tree
const RootName = "root"

// DeleteObserver is notified for every node removed from a tree, including
// each descendant of a deleted folder.
type DeleteObserver interface {
	OnNodeDeleted(id string)
}

// Tree owns the node graph rooted at a single folder
type Tree struct {
	root      *Node
	index     map[string]*Node
	observers []DeleteObserver
	now       func() time.Time
}

// NewTree creates a tree holding only an empty root folder
func NewTree() *Tree {
	t := &Tree{
		index: make(map[string]*Node),
		now:   utcNow,
	}
	t.root = t.newNode(RootName, KindFolder)
	t.index[t.root.id] = t.root
	return t
}

func utcNow() time.Time {
	return time.Now().UTC()
}

func newID() string {
	return uuid.New().String()
}

func (t *Tree) newNode(name string, kind Kind) *Node {
	ts := t.now()
	n := &Node{
		id:         newID(),
		name:       name,
		kind:       kind,
		createdAt:  ts,
		modifiedAt: ts,
	}
	if kind == KindFolder {
		n.children = []*Node{}
	} else {
		n.language = InferLanguage(name)
	}
	return n
}

// Observe registers an observer for node deletions
func (t *Tree) Observe(o DeleteObserver) {
	t.observers = append(t.observers, o)
}

// Root returns the root folder
func (t *Tree) Root() *Node {
	return t.root
}

// Len returns the number of nodes including the root
func (t *Tree) Len() int {
	return len(t.index)
}

// FindNode returns the node with the given id, or nil
func (t *Tree) FindNode(id string) *Node {
	return t.index[id]
}

func (t *Tree) folder(op, id string) (*Node, error) {
	n := t.index[id]
	if n == nil || n.kind != KindFolder {
		return nil, newError(op, id, ErrInvalidParent)
	}
	return n, nil
}

func (t *Tree) file(op, id string) (*Node, error) {
	n := t.index[id]
	if n == nil {
		return nil, newError(op, id, ErrNotFound)
	}
	if n.kind != KindFile {
		return nil, newError(op, id, ErrNotAFile)
	}
	return n, nil
}

func blank(name string) bool {
	return strings.TrimSpace(name) == ""
}

func (t *Tree) attach(parent, child *Node) {
	child.parentID = parent.id
	parent.children = append(parent.children, child)
	t.index[child.id] = child
}

// CreateFile appends a new file to the folder parentID
func (t *Tree) CreateFile(parentID, name, content string) (*Node, error) {
	parent, err := t.folder(OpCreateFile, parentID)
	if err != nil {
		return nil, err
	}
	if blank(name) {
		return nil, newError(OpCreateFile, parentID, ErrEmptyName)
	}

	file := t.newNode(name, KindFile)
	file.content = content
	t.attach(parent, file)
	return file, nil
}

// CreateFolder appends a new, collapsed folder to the folder parentID
func (t *Tree) CreateFolder(parentID, name string) (*Node, error) {
	parent, err := t.folder(OpCreateFolder, parentID)
	if err != nil {
		return nil, err
	}
	if blank(name) {
		return nil, newError(OpCreateFolder, parentID, ErrEmptyName)
	}

	folder := t.newNode(name, KindFolder)
	t.attach(parent, folder)
	return folder, nil
}

// DeleteNode removes a node and, for a folder, its whole subtree. Observers
// are told about every removed node.
func (t *Tree) DeleteNode(id string) error {
	if id == t.root.id {
		return newError(OpDelete, id, ErrRootDeletionForbidden)
	}
	n := t.index[id]
	if n == nil {
		return newError(OpDelete, id, ErrNotFound)
	}

	if parent := t.index[n.parentID]; parent != nil {
		parent.removeChild(id)
	}

	var removed []string
	walk(n, func(d *Node) bool {
		removed = append(removed, d.id)
		return true
	})
	for _, rid := range removed {
		delete(t.index, rid)
	}
	for _, rid := range removed {
		for _, o := range t.observers {
			o.OnNodeDeleted(rid)
		}
	}
	return nil
}

// RenameNode changes a node's name, re-inferring the language of a file.
// Sibling names are not checked for collisions.
func (t *Tree) RenameNode(id, newName string) (*Node, error) {
	n := t.index[id]
	if n == nil {
		return nil, newError(OpRename, id, ErrNotFound)
	}
	if blank(newName) {
		return nil, newError(OpRename, id, ErrEmptyName)
	}

	n.name = newName
	if n.kind == KindFile {
		n.language = InferLanguage(newName)
	}
	n.modifiedAt = t.now()
	return n, nil
}

// UpdateFileContent replaces a file's content
func (t *Tree) UpdateFileContent(id, content string) (*Node, error) {
	n, err := t.file(OpUpdateContent, id)
	if err != nil {
		return nil, err
	}
	n.content = content
	n.modifiedAt = t.now()
	return n, nil
}

// FileContent returns the content of a file
func (t *Tree) FileContent(id string) (string, error) {
	n, err := t.file(OpRead, id)
	if err != nil {
		return "", err
	}
	return n.content, nil
}

// ToggleFolder flips a folder's expanded flag
func (t *Tree) ToggleFolder(id string) (*Node, error) {
	n := t.index[id]
	if n == nil {
		return nil, newError(OpToggle, id, ErrNotFound)
	}
	if n.kind != KindFolder {
		return nil, newError(OpToggle, id, ErrNotAFolder)
	}
	n.expanded = !n.expanded
	return n, nil
}

// MoveNode reparents a node under newParentID, appending it to the new
// parent's children. Moving a node to its current parent is a no-op.
func (t *Tree) MoveNode(id, newParentID string) (*Node, error) {
	n := t.index[id]
	if n == nil {
		return nil, newError(OpMove, id, ErrNotFound)
	}
	target, err := t.folder(OpMove, newParentID)
	if err != nil {
		return nil, err
	}
	if t.isAncestorOrSelf(n, target) {
		return nil, newError(OpMove, id, ErrCycleDetected)
	}
	if n.parentID == target.id {
		return n, nil
	}

	if old := t.index[n.parentID]; old != nil {
		old.removeChild(id)
	}
	n.parentID = target.id
	target.children = append(target.children, n)
	return n, nil
}

// isAncestorOrSelf reports whether a lies on the parent chain of b
func (t *Tree) isAncestorOrSelf(a, b *Node) bool {
	for cur := b; cur != nil; cur = t.index[cur.parentID] {
		if cur.id == a.id {
			return true
		}
		if cur.parentID == "" {
			break
		}
	}
	return false
}

// DuplicateFile creates a sibling copy named "<stem>_copy<ext>"
func (t *Tree) DuplicateFile(id string) (*Node, error) {
	src, err := t.file(OpDuplicate, id)
	if err != nil {
		return nil, err
	}
	parent := t.index[src.parentID]

	dup := t.newNode(copyName(src.name), KindFile)
	dup.content = src.content
	t.attach(parent, dup)
	return dup, nil
}

func copyName(name string) string {
	ext := Extension(name)
	if ext == "" {
		return name + "_copy"
	}
	// A leading-dot name is all extension: ".env" -> "_copy.env"
	stem := name[:len(name)-len(ext)-1]
	return stem + "_copy." + ext
}

// Reveal expands every folder on the path from the root to id
func (t *Tree) Reveal(id string) error {
	n := t.index[id]
	if n == nil {
		return newError(OpReveal, id, ErrNotFound)
	}
	for p := t.index[n.parentID]; p != nil; p = t.index[p.parentID] {
		p.expanded = true
		if p.parentID == "" {
			break
		}
	}
	return nil
}

// Path returns the slash-joined names from below the root down to id. The
// root itself has the empty path.
func (t *Tree) Path(id string) (string, error) {
	n := t.index[id]
	if n == nil {
		return "", newError(OpRead, id, ErrNotFound)
	}
	var parts []string
	for cur := n; cur != nil && cur.parentID != ""; cur = t.index[cur.parentID] {
		parts = append(parts, cur.name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/"), nil
}

// Walk visits every node depth-first in pre-order. Returning false from fn
// skips the node's children.
func (t *Tree) Walk(fn func(n *Node) bool) {
	walk(t.root, fn)
}

func walk(n *Node, fn func(n *Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		walk(c, fn)
	}
}

// Files returns every file in depth-first order
func (t *Tree) Files() []*Node {
	var files []*Node
	t.Walk(func(n *Node) bool {
		if n.kind == KindFile {
			files = append(files, n)
		}
		return true
	})
	return files
}
