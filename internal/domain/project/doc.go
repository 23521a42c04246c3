// Package project implements the editor's in-memory project model.
//
// A Tree owns a single root Folder and every Node beneath it. Nodes are
// addressed by identity: each node records its parent's id rather than a
// pointer to it, and the Tree keeps a flat id index next to the nested
// children slices. All mutation goes through Tree methods, which validate
// completely before touching state so a failed call never leaves a partial
// change behind.
//
// Components:
//   - Node: a File or Folder with identity, metadata and (for folders) children
//   - Tree: create, delete, rename, move, toggle, search and serialize
//   - Snapshot: the persisted form of a Tree plus the ids of open files
//   - InferLanguage: extension to editor language mapping
//   - NewDefaultProject: the starter project used on a cold store
//
// Example Usage:
//
//	tree := project.NewDefaultProject()
//	utils, _ := tree.CreateFolder(tree.Root().ID(), "utils")
//	file, _ := tree.CreateFile(utils.ID(), "helpers.js", "export const x = 1;")
//	snap := tree.Snapshot(nil)
//	restored, err := project.Deserialize(snap)
package project
