package workspace

import (
	"github.com/GriffinCanCode/codepad/internal/domain/project"
)

// NodeView is a copy of a node's subtree plus its path
type NodeView struct {
	*project.NodeSnapshot
	Path string `json:"path"`
}

// SearchResult is one match of Glob or Filter
type SearchResult struct {
	ID   string       `json:"id"`
	Name string       `json:"name"`
	Kind project.Kind `json:"kind"`
	Path string       `json:"path"`
}

func (w *Workspace) view(id string) (*NodeView, error) {
	snap, err := w.tree.SnapshotNode(id)
	if err != nil {
		return nil, err
	}
	path, err := w.tree.Path(id)
	if err != nil {
		return nil, err
	}
	return &NodeView{NodeSnapshot: snap, Path: path}, nil
}

// RootID returns the id of the root folder
func (w *Workspace) RootID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tree.Root().ID()
}

// Snapshot returns the whole project with the open file ids
func (w *Workspace) Snapshot() *project.Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot()
}

// Node returns the node with the given id
func (w *Workspace) Node(id string) (*NodeView, error) {
	var v *NodeView
	err := w.run(project.OpRead, func() error {
		var err error
		v, err = w.view(id)
		return err
	})
	return v, err
}

// CreateFile adds a file under parentID
func (w *Workspace) CreateFile(parentID, name, content string) (*NodeView, error) {
	var v *NodeView
	err := w.run(project.OpCreateFile, func() error {
		n, err := w.tree.CreateFile(parentID, name, content)
		if err != nil {
			return err
		}
		w.changed(EventNodeCreated, n.ID())
		v, err = w.view(n.ID())
		return err
	})
	return v, err
}

// CreateFolder adds a folder under parentID
func (w *Workspace) CreateFolder(parentID, name string) (*NodeView, error) {
	var v *NodeView
	err := w.run(project.OpCreateFolder, func() error {
		n, err := w.tree.CreateFolder(parentID, name)
		if err != nil {
			return err
		}
		w.changed(EventNodeCreated, n.ID())
		v, err = w.view(n.ID())
		return err
	})
	return v, err
}

// Delete removes a node and its subtree, closing any open files inside it
func (w *Workspace) Delete(id string) error {
	return w.run(project.OpDelete, func() error {
		prevActive, prevOpen := w.session.Active(), w.session.Len()
		if err := w.tree.DeleteNode(id); err != nil {
			return err
		}
		w.changed(EventNodeDeleted, id)
		if w.session.Len() != prevOpen {
			w.events.publish(newEvent(EventSessionChanged))
		}
		w.markActive(prevActive)
		return nil
	})
}

// Rename renames a node
func (w *Workspace) Rename(id, name string) (*NodeView, error) {
	var v *NodeView
	err := w.run(project.OpRename, func() error {
		if _, err := w.tree.RenameNode(id, name); err != nil {
			return err
		}
		w.changed(EventNodeRenamed, id)
		var err error
		v, err = w.view(id)
		return err
	})
	return v, err
}

// UpdateContent replaces a file's content
func (w *Workspace) UpdateContent(id, content string) (*NodeView, error) {
	var v *NodeView
	err := w.run(project.OpUpdateContent, func() error {
		if _, err := w.tree.UpdateFileContent(id, content); err != nil {
			return err
		}
		w.changed(EventContentUpdated, id)
		var err error
		v, err = w.view(id)
		return err
	})
	return v, err
}

// Toggle flips a folder's expanded flag
func (w *Workspace) Toggle(id string) (*NodeView, error) {
	var v *NodeView
	err := w.run(project.OpToggle, func() error {
		if _, err := w.tree.ToggleFolder(id); err != nil {
			return err
		}
		w.changed(EventFolderToggled, id)
		var err error
		v, err = w.view(id)
		return err
	})
	return v, err
}

// Move reparents a node under parentID
func (w *Workspace) Move(id, parentID string) (*NodeView, error) {
	var v *NodeView
	err := w.run(project.OpMove, func() error {
		if _, err := w.tree.MoveNode(id, parentID); err != nil {
			return err
		}
		w.changed(EventNodeMoved, id)
		var err error
		v, err = w.view(id)
		return err
	})
	return v, err
}

// Duplicate copies a file next to itself
func (w *Workspace) Duplicate(id string) (*NodeView, error) {
	var v *NodeView
	err := w.run(project.OpDuplicate, func() error {
		n, err := w.tree.DuplicateFile(id)
		if err != nil {
			return err
		}
		w.changed(EventNodeCreated, n.ID())
		v, err = w.view(n.ID())
		return err
	})
	return v, err
}

// Reveal expands every folder above id
func (w *Workspace) Reveal(id string) error {
	return w.run(project.OpReveal, func() error {
		if err := w.tree.Reveal(id); err != nil {
			return err
		}
		w.changed(EventFolderToggled, id)
		return nil
	})
}

// Glob returns nodes whose path matches a doublestar pattern
func (w *Workspace) Glob(pattern string) []SearchResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.results(w.tree.Glob(pattern))
}

// Filter returns nodes whose name contains query
func (w *Workspace) Filter(query string) []SearchResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.results(w.tree.Filter(query))
}

func (w *Workspace) results(nodes []*project.Node) []SearchResult {
	out := make([]SearchResult, 0, len(nodes))
	for _, n := range nodes {
		path, _ := w.tree.Path(n.ID())
		out = append(out, SearchResult{ID: n.ID(), Name: n.Name(), Kind: n.Kind(), Path: path})
	}
	return out
}
