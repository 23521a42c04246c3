// Package session tracks the files open in the editor.
//
// A Session is an insertion-ordered set of file ids layered on a project
// tree; the order is the tab order. One of the open files may be active.
// The session observes tree deletions and closes any file removed from the
// tree, so it never holds a dangling id.
//
// Restore Process:
//  1. Read the openFiles list from a snapshot
//  2. Re-open every id that still resolves to a file
//  3. Drop the rest silently
//  4. Restore the active file if it survived
//
// Example Usage:
//
//	s := session.New(tree)
//	err := s.Open(fileID)
//	s.Close(fileID)
//	for _, n := range s.List() { ... }
package session
