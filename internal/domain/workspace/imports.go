package workspace

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/codepad/internal/domain/project"
	"github.com/GriffinCanCode/codepad/internal/domain/templates"
)

// MaxImportFileSize bounds a single imported file
const MaxImportFileSize = 2 << 20

// Directories never mirrored by ImportDirectory
var skippedDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
}

// ImportResult counts what ImportDirectory created
type ImportResult struct {
	Files   int `json:"files"`
	Folders int `json:"folders"`
	Skipped int `json:"skipped"`
}

// Export renders the project as indented JSON
func (w *Workspace) Export() ([]byte, error) {
	w.mu.Lock()
	snap := w.snapshot()
	w.mu.Unlock()
	return project.EncodeSnapshotIndent(snap)
}

// Import replaces the project with a snapshot. An invalid snapshot leaves
// the current project untouched.
func (w *Workspace) Import(data []byte) error {
	tree, snap, err := project.Load(data)
	if err != nil {
		return err
	}
	return w.run(project.OpImport, func() error {
		w.replace(tree, snap.OpenFiles, "")
		return nil
	})
}

// Templates lists the starter projects
func (w *Workspace) Templates() []*templates.Template {
	if w.templates == nil {
		return nil
	}
	return w.templates.List()
}

// ApplyTemplate replaces the project with a named template and opens its
// first source file
func (w *Workspace) ApplyTemplate(name string) error {
	if w.templates == nil {
		return &project.Error{Op: project.OpTemplate, ID: name, Err: project.ErrUnknownTemplate}
	}
	tmpl, err := w.templates.Get(name)
	if err != nil {
		return err
	}
	tree, first, err := tmpl.Build()
	if err != nil {
		return err
	}

	var open []string
	if first != "" {
		open = []string{first}
	}
	return w.run(project.OpTemplate, func() error {
		w.replace(tree, open, first)
		w.logger.Info("Applied template", zap.String("template", name), zap.Int("nodes", tree.Len()))
		return nil
	})
}

// replace swaps in a new tree; callers hold w.mu
func (w *Workspace) replace(tree *project.Tree, open []string, active string) {
	prev := w.session.Active()
	w.install(tree)
	w.session.Restore(open, active)
	w.changed(EventProjectReplaced, "")
	w.markActive(prev)
}

// ImportFile adds uploaded bytes as a file under parentID. Binary data is
// rejected and other text encodings are converted to UTF-8.
func (w *Workspace) ImportFile(parentID, name string, data []byte) (*NodeView, error) {
	content, err := decodeText(data)
	if err != nil {
		return nil, &project.Error{Op: project.OpImport, ID: name, Err: err}
	}
	return w.CreateFile(parentID, name, content)
}

type importEntry struct {
	rel     string
	dir     bool
	content string
}

// ImportDirectory mirrors a directory on disk under parentID. Files that
// are binary, oversized, or unreadable are counted as skipped.
func (w *Workspace) ImportDirectory(ctx context.Context, parentID, dir string) (ImportResult, error) {
	var (
		mu      sync.Mutex
		entries []importEntry
		result  ImportResult
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, dir, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil || path == dir {
			return nil
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		// Blank names cannot become nodes; a blank folder takes its subtree with it
		if strings.TrimSpace(d.Name()) == "" {
			mu.Lock()
			result.Skipped++
			mu.Unlock()
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if skippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			mu.Lock()
			entries = append(entries, importEntry{rel: rel, dir: true})
			mu.Unlock()
			return nil
		}

		content, ok := readText(path, d)
		mu.Lock()
		if ok {
			entries = append(entries, importEntry{rel: rel, content: content})
		} else {
			result.Skipped++
		}
		mu.Unlock()
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	// Parents sort before their children
	sort.Slice(entries, func(i, j int) bool { return entries[i].rel < entries[j].rel })

	err = w.run(project.OpImport, func() error {
		parent := w.tree.FindNode(parentID)
		if parent == nil || !parent.IsFolder() {
			return &project.Error{Op: project.OpImport, ID: parentID, Err: project.ErrInvalidParent}
		}

		if err := w.mirror(parentID, entries, &result); err != nil {
			return err
		}
		if result.Files+result.Folders > 0 {
			w.changed(EventNodeCreated, parentID)
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	w.logger.Info("Imported directory",
		zap.String("dir", dir),
		zap.Int("files", result.Files),
		zap.Int("folders", result.Folders),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

// mirror creates entries under parentID. On failure every node it created is
// removed again. Callers hold w.mu.
func (w *Workspace) mirror(parentID string, entries []importEntry, result *ImportResult) (err error) {
	var top []string
	defer func() {
		if err != nil {
			for _, id := range top {
				_ = w.tree.DeleteNode(id)
			}
		}
	}()

	folders := map[string]string{".": parentID}
	for _, e := range entries {
		parentOf, ok := folders[filepath.Dir(e.rel)]
		if !ok {
			result.Skipped++
			continue
		}
		name := e.rel[strings.LastIndex(e.rel, "/")+1:]

		var n *project.Node
		if e.dir {
			n, err = w.tree.CreateFolder(parentOf, name)
		} else {
			n, err = w.tree.CreateFile(parentOf, name, e.content)
		}
		if err != nil {
			return err
		}
		if parentOf == parentID {
			top = append(top, n.ID())
		}
		if e.dir {
			folders[e.rel] = n.ID()
			result.Folders++
		} else {
			result.Files++
		}
	}
	return nil
}

func readText(path string, d fs.DirEntry) (string, bool) {
	if !d.Type().IsRegular() {
		return "", false
	}
	info, err := d.Info()
	if err != nil || info.Size() > MaxImportFileSize {
		return "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	content, err := decodeText(data)
	if err != nil {
		return "", false
	}
	return content, true
}
