package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree(t *testing.T) *Tree {
	t.Helper()
	tree := NewDefaultProject()
	utils, err := tree.CreateFolder(tree.Root().ID(), "utils")
	require.NoError(t, err)
	_, err = tree.CreateFile(utils.ID(), "helpers.js", "export const x = 1;")
	require.NoError(t, err)
	_, err = tree.CreateFolder(utils.ID(), "empty")
	require.NoError(t, err)
	_, err = tree.ToggleFolder(utils.ID())
	require.NoError(t, err)
	return tree
}

func TestSnapshotShape(t *testing.T) {
	tree := sampleTree(t)
	snap := tree.Snapshot(nil)

	require.NotNil(t, snap.OpenFiles)
	assert.Empty(t, snap.OpenFiles)
	assert.Nil(t, snap.Root.ParentID)
	assert.Nil(t, snap.Root.Content)

	file := snap.Root.Children[0].Children[0]
	assert.Equal(t, KindFile, file.Kind)
	assert.Nil(t, file.Children)
	require.NotNil(t, file.Content)
	require.NotNil(t, file.Language)
	require.NotNil(t, file.ParentID)
	assert.Equal(t, snap.Root.Children[0].ID, *file.ParentID)
}

func TestRoundTrip(t *testing.T) {
	tree := sampleTree(t)
	open := []string{tree.Files()[0].ID()}

	data, err := EncodeSnapshot(tree.Snapshot(open))
	require.NoError(t, err)

	restored, snap, err := Load(data)
	require.NoError(t, err)
	assert.Equal(t, open, snap.OpenFiles)
	assert.Equal(t, tree.Len(), restored.Len())

	tree.Walk(func(n *Node) bool {
		got := restored.FindNode(n.ID())
		require.NotNil(t, got, n.Name())
		assert.Equal(t, n.Name(), got.Name())
		assert.Equal(t, n.Kind(), got.Kind())
		assert.Equal(t, n.ParentID(), got.ParentID())
		assert.Equal(t, n.Content(), got.Content())
		assert.Equal(t, n.Language(), got.Language())
		assert.Equal(t, n.Expanded(), got.Expanded())
		assert.True(t, n.CreatedAt().Equal(got.CreatedAt()))
		assert.True(t, n.ModifiedAt().Equal(got.ModifiedAt()))

		want := n.Children()
		have := got.Children()
		require.Len(t, have, len(want))
		for i := range want {
			assert.Equal(t, want[i].ID(), have[i].ID())
		}
		return true
	})
}

func TestRoundTripIsByteStable(t *testing.T) {
	tree := sampleTree(t)

	first, err := EncodeSnapshot(tree.Snapshot([]string{"x"}))
	require.NoError(t, err)

	restored, snap, err := Load(first)
	require.NoError(t, err)
	second, err := EncodeSnapshot(restored.Snapshot(snap.OpenFiles))
	require.NoError(t, err)

	again, snap2, err := Load(second)
	require.NoError(t, err)
	third, err := EncodeSnapshot(again.Snapshot(snap2.OpenFiles))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.Equal(t, string(second), string(third))
}

func TestSnapshotFieldNames(t *testing.T) {
	tree := NewTree()
	_, err := tree.CreateFile(tree.Root().ID(), "a.md", "hi")
	require.NoError(t, err)

	data, err := EncodeSnapshot(tree.Snapshot([]string{}))
	require.NoError(t, err)

	for _, field := range []string{
		`"root"`, `"openFiles":[]`, `"id"`, `"name"`, `"kind":"folder"`, `"kind":"file"`,
		`"parentId":null`, `"children"`, `"content":"hi"`, `"language":"markdown"`,
		`"expanded"`, `"createdAt"`, `"modifiedAt"`,
	} {
		assert.Contains(t, string(data), field)
	}
}

func TestHelpersScenario(t *testing.T) {
	tree := NewDefaultProject()
	utils, err := tree.CreateFolder(tree.Root().ID(), "utils")
	require.NoError(t, err)
	helpers, err := tree.CreateFile(utils.ID(), "helpers.js", "export const x = 1;")
	require.NoError(t, err)

	restored, err := Deserialize(tree.Snapshot(nil))
	require.NoError(t, err)

	got := restored.FindNode(helpers.ID())
	require.NotNil(t, got)
	assert.Equal(t, "helpers.js", got.Name())
	assert.Equal(t, "export const x = 1;", got.Content())
	assert.Equal(t, "javascript", got.Language())

	path, err := restored.Path(got.ID())
	require.NoError(t, err)
	assert.Equal(t, "utils/helpers.js", path)
}

func TestDeserializeRebuildsParents(t *testing.T) {
	tree := sampleTree(t)
	snap := tree.Snapshot(nil)
	bogus := "somewhere-else"
	snap.Root.Children[0].ParentID = &bogus

	restored, err := Deserialize(snap)
	require.NoError(t, err)
	assert.Equal(t, restored.Root().ID(), restored.FindNode(snap.Root.Children[0].ID).ParentID())
}

func TestDeserializeRejectsInvalid(t *testing.T) {
	content := "x"
	parent := "p"

	tests := []struct {
		name   string
		mutate func(s *Snapshot)
	}{
		{"nil root", func(s *Snapshot) { s.Root = nil }},
		{"file root", func(s *Snapshot) { s.Root.Kind = KindFile }},
		{"root with parent", func(s *Snapshot) { s.Root.ParentID = &parent }},
		{"duplicate id", func(s *Snapshot) { s.Root.Children[1].ID = s.Root.Children[0].ID }},
		{"empty id", func(s *Snapshot) { s.Root.Children[0].ID = "" }},
		{"empty name", func(s *Snapshot) { s.Root.Children[0].Name = "" }},
		{"unknown kind", func(s *Snapshot) { s.Root.Children[0].Kind = "link" }},
		{"folder content", func(s *Snapshot) { s.Root.Children[0].Content = &content }},
		{"file children", func(s *Snapshot) {
			s.Root.Children[1].Children = []*NodeSnapshot{{ID: "c", Name: "c", Kind: KindFile}}
		}},
		{"nil child", func(s *Snapshot) { s.Root.Children = append(s.Root.Children, nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := NewDefaultProject().Snapshot(nil)
			tt.mutate(snap)

			tree, err := Deserialize(snap)
			assert.Nil(t, tree)
			assert.ErrorIs(t, err, ErrDeserializationFailed)
			assert.Equal(t, "DeserializationFailed", ErrorKind(err))
		})
	}
}

func TestDecodeSnapshotGarbage(t *testing.T) {
	_, err := DecodeSnapshot([]byte("{not json"))
	assert.ErrorIs(t, err, ErrDeserializationFailed)

	snap, err := DecodeSnapshot([]byte(`{"root":null}`))
	require.NoError(t, err)
	assert.NotNil(t, snap.OpenFiles)
	_, err = Deserialize(snap)
	assert.ErrorIs(t, err, ErrDeserializationFailed)
}

func TestDeserializeInfersMissingLanguage(t *testing.T) {
	snap := NewDefaultProject().Snapshot(nil)
	readme := snap.Root.Children[1]
	readme.Language = nil
	readme.Content = nil

	tree, err := Deserialize(snap)
	require.NoError(t, err)
	got := tree.FindNode(readme.ID)
	assert.Equal(t, "markdown", got.Language())
	assert.Empty(t, got.Content())
}

func TestSnapshotNode(t *testing.T) {
	tree := sampleTree(t)
	utils := tree.Glob("utils")[0]

	snap, err := tree.SnapshotNode(utils.ID())
	require.NoError(t, err)
	assert.Equal(t, "utils", snap.Name)
	assert.True(t, snap.Expanded)
	require.Len(t, snap.Children, 2)
	assert.Equal(t, "helpers.js", snap.Children[0].Name)

	_, err = tree.SnapshotNode("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
