// Package workspace is the project model service behind the HTTP API.
//
// A Workspace owns one project tree, the session of open files, the editor
// settings, and the autosave scheduler that persists them. Every mutation
// runs under one lock, publishes a change Event, and marks the affected
// slots dirty so the scheduler writes them after a quiet period.
//
// Slots:
//   - tree: project.Snapshot of the tree plus open file ids
//   - activeFileId: id of the active tab, "" when none
//   - settings: settings.Settings
//
// Startup:
//  1. Load the tree slot and rebuild the tree
//  2. Fall back to the default project on a cold store or a bad snapshot
//  3. Re-open the saved tabs that still resolve to files
//  4. Load settings, keeping defaults for anything invalid
//
// Example Usage:
//
//	ws, err := workspace.Open(ctx, workspace.Options{Store: st, Logger: log})
//	node, err := ws.CreateFile(rootID, "main.go", "package main")
//	defer ws.Close(ctx)
package workspace
