package workspace

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/codepad/internal/domain/project"
	"github.com/GriffinCanCode/codepad/internal/domain/settings"
	"github.com/GriffinCanCode/codepad/internal/domain/templates"
	"github.com/GriffinCanCode/codepad/internal/infrastructure/autosave"
	"github.com/GriffinCanCode/codepad/internal/infrastructure/store"
)

func openWorkspace(t *testing.T, st store.Store) (*Workspace, clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	reg, err := templates.Load()
	require.NoError(t, err)

	w, err := Open(context.Background(), Options{
		Store:     st,
		Autosave:  autosave.Options{Clock: clock},
		Templates: reg,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close(context.Background()) })
	return w, clock
}

func findByPath(t *testing.T, w *Workspace, path string) string {
	t.Helper()
	res := w.Glob(path)
	require.Len(t, res, 1, "no node at %s", path)
	return res[0].ID
}

func TestOpenColdStoreUsesDefaultProject(t *testing.T) {
	w, _ := openWorkspace(t, store.NewMemory(0))

	st := w.Status()
	assert.False(t, st.Restored)
	assert.Equal(t, 4, st.Nodes)
	assert.True(t, st.Saving, "default project should be scheduled for saving")

	findByPath(t, w, "src/index.js")
	findByPath(t, w, "README.md")
}

func TestSaveAndReopenRestoresProject(t *testing.T) {
	mem := store.NewMemory(0)
	w, _ := openWorkspace(t, mem)

	file, err := w.CreateFile(w.RootID(), "notes.txt", "hello")
	require.NoError(t, err)
	_, err = w.SetActive(file.ID)
	require.NoError(t, err)
	require.NoError(t, w.Save(context.Background()))

	st := w.Status()
	assert.False(t, st.Saving)
	assert.NotNil(t, st.LastSaved)
	require.NoError(t, w.Close(context.Background()))

	again, _ := openWorkspace(t, mem)
	assert.True(t, again.Status().Restored)

	node, err := again.Node(file.ID)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", node.Name)
	assert.Equal(t, "notes.txt", node.Path)

	sess := again.Session()
	require.Len(t, sess.OpenFiles, 1)
	assert.Equal(t, file.ID, sess.Active)
	assert.Equal(t, "plaintext", sess.OpenFiles[0].Language)
}

func TestOpenInvalidSnapshotFallsBack(t *testing.T) {
	mem := store.NewMemory(0)
	require.NoError(t, mem.Save(context.Background(), SlotTree, []byte(`{"root":{"id":"","kind":"file"}}`)))

	w, _ := openWorkspace(t, mem)
	assert.False(t, w.Status().Restored)
	findByPath(t, w, "src/index.js")
}

func TestOpenRequiresStore(t *testing.T) {
	_, err := Open(context.Background(), Options{})
	assert.Error(t, err)
}

func TestTreeOperations(t *testing.T) {
	w, _ := openWorkspace(t, store.NewMemory(0))
	root := w.RootID()

	folder, err := w.CreateFolder(root, "lib")
	require.NoError(t, err)
	file, err := w.CreateFile(folder.ID, "util.ts", "export {}")
	require.NoError(t, err)
	assert.Equal(t, "typescript", *file.Language)
	assert.Equal(t, "lib/util.ts", file.Path)

	renamed, err := w.Rename(file.ID, "util.py")
	require.NoError(t, err)
	assert.Equal(t, "python", *renamed.Language)

	updated, err := w.UpdateContent(file.ID, "print(1)")
	require.NoError(t, err)
	assert.Equal(t, "print(1)", *updated.Content)

	dup, err := w.Duplicate(file.ID)
	require.NoError(t, err)
	assert.Equal(t, "util_copy.py", dup.Name)

	moved, err := w.Move(dup.ID, root)
	require.NoError(t, err)
	assert.Equal(t, "util_copy.py", moved.Path)

	toggled, err := w.Toggle(folder.ID)
	require.NoError(t, err)
	assert.Equal(t, !folder.Expanded, toggled.Expanded)

	_, err = w.Move(folder.ID, folder.ID)
	assert.ErrorIs(t, err, project.ErrCycleDetected)

	_, err = w.Toggle(file.ID)
	assert.ErrorIs(t, err, project.ErrNotAFolder)

	assert.ErrorIs(t, w.Delete(root), project.ErrRootDeletionForbidden)
	require.NoError(t, w.Delete(folder.ID))
	_, err = w.Node(file.ID)
	assert.ErrorIs(t, err, project.ErrNotFound)
}

func TestRevealExpandsAncestors(t *testing.T) {
	w, _ := openWorkspace(t, store.NewMemory(0))
	index := findByPath(t, w, "src/index.js")
	src := findByPath(t, w, "src")

	require.NoError(t, w.Reveal(index))
	node, err := w.Node(src)
	require.NoError(t, err)
	assert.True(t, node.Expanded)
}

func TestSearch(t *testing.T) {
	w, _ := openWorkspace(t, store.NewMemory(0))

	res := w.Glob("**/*.js")
	require.Len(t, res, 1)
	assert.Equal(t, "src/index.js", res[0].Path)

	res = w.Filter("READ")
	require.Len(t, res, 1)
	assert.Equal(t, "README.md", res[0].Name)
	assert.Equal(t, project.KindFile, res[0].Kind)
}

func TestDeleteClosesOpenFiles(t *testing.T) {
	w, _ := openWorkspace(t, store.NewMemory(0))
	index := findByPath(t, w, "src/index.js")
	readme := findByPath(t, w, "README.md")

	_, err := w.OpenFile(readme)
	require.NoError(t, err)
	_, err = w.SetActive(index)
	require.NoError(t, err)

	require.NoError(t, w.Delete(findByPath(t, w, "src")))

	sess := w.Session()
	require.Len(t, sess.OpenFiles, 1)
	assert.Equal(t, readme, sess.OpenFiles[0].ID)
	assert.Equal(t, readme, sess.Active)
}

func TestSessionOperations(t *testing.T) {
	w, _ := openWorkspace(t, store.NewMemory(0))
	index := findByPath(t, w, "src/index.js")

	_, err := w.OpenFile(findByPath(t, w, "src"))
	assert.ErrorIs(t, err, project.ErrNotAFile)
	_, err = w.OpenFile("missing")
	assert.ErrorIs(t, err, project.ErrNotFound)

	sess, err := w.OpenFile(index)
	require.NoError(t, err)
	require.Len(t, sess.OpenFiles, 1)
	assert.Equal(t, "src/index.js", sess.OpenFiles[0].Path)

	sess, err = w.OpenFile(index)
	require.NoError(t, err)
	assert.Len(t, sess.OpenFiles, 1)

	sess = w.CloseFile(index)
	assert.Empty(t, sess.OpenFiles)
	assert.Empty(t, sess.Active)

	sess = w.CloseFile(index)
	assert.Empty(t, sess.OpenFiles)
}

func TestEventsArePublished(t *testing.T) {
	w, _ := openWorkspace(t, store.NewMemory(0))
	events, cancel := w.Subscribe(8)
	defer cancel()

	file, err := w.CreateFile(w.RootID(), "a.js", "")
	require.NoError(t, err)

	select {
	case e := <-events:
		assert.Equal(t, EventNodeCreated, e.Type)
		assert.Equal(t, file.ID, e.NodeID)
		assert.True(t, strings.HasPrefix(e.ID, "evt_"))
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestCloseEndsSubscriptions(t *testing.T) {
	w, _ := openWorkspace(t, store.NewMemory(0))
	events, _ := w.Subscribe(4)

	// Close flushes the pending default project first
	require.NoError(t, w.Close(context.Background()))
	for e := range events {
		assert.Equal(t, EventSaved, e.Type)
		assert.Equal(t, SlotTree, e.Slot)
	}
}

func TestMutationsAreDebounced(t *testing.T) {
	mem := store.NewMemory(0)
	w, clock := openWorkspace(t, mem)
	require.NoError(t, w.Save(context.Background()))

	file, err := w.CreateFile(w.RootID(), "a.js", "1")
	require.NoError(t, err)
	_, err = w.UpdateContent(file.ID, "2")
	require.NoError(t, err)
	assert.True(t, w.Status().Saving)

	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return !w.Status().Saving }, time.Second, 5*time.Millisecond)

	data, err := mem.Load(context.Background(), SlotTree)
	require.NoError(t, err)
	tree, _, err := project.Load(data)
	require.NoError(t, err)
	content, err := tree.FileContent(file.ID)
	require.NoError(t, err)
	assert.Equal(t, "2", content)
}

func TestAutoSaveOffDefersTreeWrites(t *testing.T) {
	w, _ := openWorkspace(t, store.NewMemory(0))
	require.NoError(t, w.Save(context.Background()))

	s := w.Settings()
	s.AutoSave = false
	_, err := w.UpdateSettings(s)
	require.NoError(t, err)
	require.NoError(t, w.Save(context.Background()))

	_, err = w.CreateFile(w.RootID(), "a.js", "")
	require.NoError(t, err)
	st := w.Status()
	assert.True(t, st.Unsaved)
	assert.False(t, st.Saving)

	s.AutoSave = true
	_, err = w.UpdateSettings(s)
	require.NoError(t, err)
	st = w.Status()
	assert.False(t, st.Unsaved)
	assert.True(t, st.Saving)
}

func storedFile(t *testing.T, st store.Store, id string) bool {
	t.Helper()
	data, err := st.Load(context.Background(), SlotTree)
	if err != nil {
		return false
	}
	tree, _, err := project.Load(data)
	require.NoError(t, err)
	return tree.FindNode(id) != nil
}

func TestReopenKeepsSavedAutoSaveDelay(t *testing.T) {
	mem := store.NewMemory(0)
	w, _ := openWorkspace(t, mem)
	s := w.Settings()
	s.AutoSaveDelay = 5000
	_, err := w.UpdateSettings(s)
	require.NoError(t, err)
	require.NoError(t, w.Close(context.Background()))

	clock := clockwork.NewFakeClock()
	again, err := Open(context.Background(), Options{
		Store:    mem,
		Autosave: autosave.Options{Clock: clock, Delay: time.Second},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = again.Close(context.Background()) })
	require.Equal(t, 5000, again.Settings().AutoSaveDelay)

	file, err := again.CreateFile(again.RootID(), "late.js", "")
	require.NoError(t, err)

	clock.Advance(1100 * time.Millisecond)
	assert.Never(t, func() bool { return storedFile(t, mem, file.ID) }, 100*time.Millisecond, 10*time.Millisecond)

	clock.Advance(4 * time.Second)
	assert.Eventually(t, func() bool { return storedFile(t, mem, file.ID) }, time.Second, 5*time.Millisecond)
}

func TestUpdateSettingsValidates(t *testing.T) {
	w, _ := openWorkspace(t, store.NewMemory(0))

	bad := w.Settings()
	bad.FontSize = 2
	_, err := w.UpdateSettings(bad)
	assert.ErrorIs(t, err, settings.ErrInvalid)
	assert.Equal(t, settings.Default(), w.Settings())
}

func TestSettingsPersist(t *testing.T) {
	mem := store.NewMemory(0)
	w, _ := openWorkspace(t, mem)

	s := w.Settings()
	s.FontSize = 18
	s.WordWrap = settings.WrapOff
	_, err := w.UpdateSettings(s)
	require.NoError(t, err)
	require.NoError(t, w.Close(context.Background()))

	again, _ := openWorkspace(t, mem)
	assert.Equal(t, s, again.Settings())
}

func TestExportImport(t *testing.T) {
	w, _ := openWorkspace(t, store.NewMemory(0))
	index := findByPath(t, w, "src/index.js")
	_, err := w.OpenFile(index)
	require.NoError(t, err)

	data, err := w.Export()
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"root\"")

	other, _ := openWorkspace(t, store.NewMemory(0))
	require.NoError(t, other.Import(data))
	_, err = other.Node(index)
	require.NoError(t, err)
	assert.Len(t, other.Session().OpenFiles, 1)

	before := other.Snapshot()
	err = other.Import([]byte(`{"root":null}`))
	assert.ErrorIs(t, err, project.ErrDeserializationFailed)
	assert.Equal(t, before, other.Snapshot())
}

func TestApplyTemplate(t *testing.T) {
	w, _ := openWorkspace(t, store.NewMemory(0))

	require.NoError(t, w.ApplyTemplate("javascript"))
	main := findByPath(t, w, "src/main.js")
	sess := w.Session()
	assert.Equal(t, main, sess.Active)
	require.Len(t, sess.OpenFiles, 1)

	err := w.ApplyTemplate("cobol")
	assert.ErrorIs(t, err, project.ErrUnknownTemplate)
	assert.NotEmpty(t, w.Templates())
}

func TestImportFile(t *testing.T) {
	w, _ := openWorkspace(t, store.NewMemory(0))
	root := w.RootID()

	node, err := w.ImportFile(root, "app.js", []byte("\xef\xbb\xbfconst a = 1;\n"))
	require.NoError(t, err)
	assert.Equal(t, "const a = 1;\n", *node.Content)

	latin := []byte(strings.Repeat("caf\xe9 ", 40))
	node, err = w.ImportFile(root, "menu.txt", latin)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(*node.Content))
	assert.Contains(t, *node.Content, "é")

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
	_, err = w.ImportFile(root, "logo.png", png)
	assert.ErrorIs(t, err, project.ErrBinaryContent)
	assert.Equal(t, "BinaryContent", project.ErrorKind(err))
}

func TestImportDirectory(t *testing.T) {
	dir := t.TempDir()
	write := func(rel string, data []byte) {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, data, 0o644))
	}
	write("main.go", []byte("package main\n"))
	write("pkg/util/util.go", []byte("package util\n"))
	write("assets/logo.png", append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...))
	write(".git/HEAD", []byte("ref: refs/heads/main\n"))

	w, _ := openWorkspace(t, store.NewMemory(0))
	folder, err := w.CreateFolder(w.RootID(), "imported")
	require.NoError(t, err)

	res, err := w.ImportDirectory(context.Background(), folder.ID, dir)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Files)
	assert.Equal(t, 3, res.Folders)
	assert.Equal(t, 1, res.Skipped)

	util := findByPath(t, w, "imported/pkg/util/util.go")
	node, err := w.Node(util)
	require.NoError(t, err)
	assert.Equal(t, project.PlainText, *node.Language)
	assert.Empty(t, w.Glob("imported/.git/**"))

	_, err = w.ImportDirectory(context.Background(), util, dir)
	assert.ErrorIs(t, err, project.ErrInvalidParent)
}

func TestImportDirectorySkipsBlankNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "z", " "), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "z", " ", "b.txt"), []byte("b\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "z", "  "), []byte("c\n"), 0o644))

	w, _ := openWorkspace(t, store.NewMemory(0))
	before := w.Status().Nodes

	res, err := w.ImportDirectory(context.Background(), w.RootID(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Files)
	assert.Equal(t, 1, res.Folders)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, before+2, w.Status().Nodes)
	assert.Empty(t, w.Glob("z/*"))
}

func TestImportDirectoryFailureLeavesTreeUnchanged(t *testing.T) {
	w, _ := openWorkspace(t, store.NewMemory(0))
	before := w.Snapshot()

	entries := []importEntry{
		{rel: "a.txt", content: "a"},
		{rel: "z", dir: true},
		{rel: "z/ok.txt", content: "ok"},
		{rel: "z/ ", content: "blank"},
	}
	var res ImportResult
	w.mu.Lock()
	err := w.mirror(w.RootID(), entries, &res)
	w.mu.Unlock()

	assert.ErrorIs(t, err, project.ErrEmptyName)
	assert.Equal(t, before, w.Snapshot())
}
