package session

import (
	"github.com/GriffinCanCode/codepad/internal/domain/project"
)

// Session is the ordered set of open files for one tree
type Session struct {
	tree   *project.Tree
	order  []string
	open   map[string]*project.Node
	active string
}

// New creates an empty session bound to tree and registers it for deletions
func New(tree *project.Tree) *Session {
	s := &Session{
		tree: tree,
		open: make(map[string]*project.Node),
	}
	tree.Observe(s)
	return s
}

func (s *Session) resolve(op, id string) (*project.Node, error) {
	n := s.tree.FindNode(id)
	if n == nil {
		return nil, &project.Error{Op: op, ID: id, Err: project.ErrNotFound}
	}
	if !n.IsFile() {
		return nil, &project.Error{Op: op, ID: id, Err: project.ErrNotAFile}
	}
	return n, nil
}

// Open adds a file to the end of the tab order. Opening an open file is a no-op.
func (s *Session) Open(id string) error {
	n, err := s.resolve(project.OpOpen, id)
	if err != nil {
		return err
	}
	if _, ok := s.open[id]; ok {
		return nil
	}
	s.open[id] = n
	s.order = append(s.order, id)
	return nil
}

// Close removes a file. Closing the active file activates the tab that
// takes its place, or the one before it when it was last.
func (s *Session) Close(id string) {
	if _, ok := s.open[id]; !ok {
		return
	}

	i := indexOf(s.order, id)
	delete(s.open, id)
	s.order = append(s.order[:i], s.order[i+1:]...)

	if s.active != id {
		return
	}
	switch {
	case len(s.order) == 0:
		s.active = ""
	case i < len(s.order):
		s.active = s.order[i]
	default:
		s.active = s.order[len(s.order)-1]
	}
}

// OnNodeDeleted closes the deleted node if it was open
func (s *Session) OnNodeDeleted(id string) {
	s.Close(id)
}

// SetActive opens the file if needed and makes it the active tab
func (s *Session) SetActive(id string) error {
	if err := s.Open(id); err != nil {
		return err
	}
	s.active = id
	return nil
}

// Active returns the active file id, or "" when none is active
func (s *Session) Active() string {
	return s.active
}

// IsOpen reports whether id is open
func (s *Session) IsOpen(id string) bool {
	_, ok := s.open[id]
	return ok
}

// List returns the open files in tab order
func (s *Session) List() []*project.Node {
	out := make([]*project.Node, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.open[id])
	}
	return out
}

// IDs returns the open file ids in tab order
func (s *Session) IDs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of open files
func (s *Session) Len() int {
	return len(s.order)
}

// Restore opens every id that resolves to a file and drops the others.
// It returns the number of ids dropped.
func (s *Session) Restore(ids []string, active string) int {
	dropped := 0
	for _, id := range ids {
		if err := s.Open(id); err != nil {
			dropped++
		}
	}
	if s.IsOpen(active) {
		s.active = active
	}
	return dropped
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
