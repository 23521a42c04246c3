package project

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates an id that does not resolve to a node
	ErrNotFound = errors.New("node not found")

	// ErrInvalidParent indicates a parent id that is not an existing folder
	ErrInvalidParent = errors.New("invalid parent folder")

	// ErrNotAFile indicates a file-only operation on a folder
	ErrNotAFile = errors.New("node is not a file")

	// ErrNotAFolder indicates a folder-only operation on a file
	ErrNotAFolder = errors.New("node is not a folder")

	// ErrRootDeletionForbidden indicates an attempt to delete the root folder
	ErrRootDeletionForbidden = errors.New("cannot delete root folder")

	// ErrEmptyName indicates a blank node name
	ErrEmptyName = errors.New("name must not be empty")

	// ErrCycleDetected indicates a move of a folder into its own subtree
	ErrCycleDetected = errors.New("cannot move a folder into itself or its descendants")

	// ErrStoreWriteFailed indicates a persisted write did not reach the store
	ErrStoreWriteFailed = errors.New("store write failed")

	// ErrDeserializationFailed indicates a snapshot that cannot be rebuilt into a tree
	ErrDeserializationFailed = errors.New("snapshot deserialization failed")

	// ErrBinaryContent indicates uploaded bytes that are not text
	ErrBinaryContent = errors.New("binary content cannot be opened in the editor")

	// ErrUnknownTemplate indicates a template name with no definition
	ErrUnknownTemplate = errors.New("unknown template")
)

// Error wraps a project error with the operation and node it concerns.
type Error struct {
	Op  string // Operation that failed (e.g., "create_file", "move")
	ID  string // Node the operation addressed, if any
	Err error  // Underlying sentinel
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

// Unwrap exposes the sentinel to errors.Is/As
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op, id string, err error) *Error {
	return &Error{Op: op, ID: id, Err: err}
}

// Operation names used in errors and logs
const (
	OpCreateFile    = "create_file"
	OpCreateFolder  = "create_folder"
	OpDelete        = "delete"
	OpRename        = "rename"
	OpUpdateContent = "update_content"
	OpToggle        = "toggle"
	OpMove          = "move"
	OpDuplicate     = "duplicate"
	OpReveal        = "reveal"
	OpRead          = "read"
	OpDeserialize   = "deserialize"
	OpOpen          = "open"
	OpSave          = "save"
	OpImport        = "import"
	OpTemplate      = "template"
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrNotFound, "NotFound"},
	{ErrInvalidParent, "InvalidParent"},
	{ErrNotAFile, "NotAFile"},
	{ErrNotAFolder, "NotAFolder"},
	{ErrRootDeletionForbidden, "RootDeletionForbidden"},
	{ErrEmptyName, "EmptyName"},
	{ErrCycleDetected, "CycleDetected"},
	{ErrStoreWriteFailed, "StoreWriteFailed"},
	{ErrDeserializationFailed, "DeserializationFailed"},
	{ErrBinaryContent, "BinaryContent"},
	{ErrUnknownTemplate, "UnknownTemplate"},
}

// ErrorKind returns the stable kind name of err, or "Internal" for errors that
// did not originate in this package.
func ErrorKind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "Internal"
}
