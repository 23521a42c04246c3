/*
Package store persists opaque blobs by key.

# Overview

A Store is the external key-value transport behind the autosave scheduler.
Values are already-encoded bytes; the store never inspects them.

# Drivers

  - Memory: in-process map with an optional byte quota
  - File: one file per key with atomic replace and rotated backups
  - SQLite: a single key/value table

# Wrappers

  - Compressed: zstd-compresses values transparently
  - Guard: stops writes for a cooldown after repeated failures
  - Prefixed: namespaces every key

# Usage

	base, err := store.NewFile(dir, store.FileOptions{Backups: 5}, logger)
	s := store.Prefixed(store.NewGuard(base, store.GuardSettings{}), "codepad_")
	err = s.Save(ctx, "tree", data)
	data, err = s.Load(ctx, "tree")
*/
package store
