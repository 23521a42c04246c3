/*
Package autosave debounces writes of named slots to a store.

# Overview

Callers mark a slot dirty with its latest value. Each slot has its own
countdown: a new mark restarts it and replaces the pending value, and the
store is written once the slot has been quiet for its delay. Only the most
recent value is ever written.

# Guarantees

  - A nil value never triggers a write
  - At most one write per slot is in flight; a mark during a write is
    written after it settles
  - Flush writes every pending slot immediately; Close flushes and refuses
    further marks

# Usage

	s := autosave.New(st, autosave.Options{
		Delay:  time.Second,
		Delays: map[string]time.Duration{"activeFileId": 500 * time.Millisecond},
		Logger: logger,
	})
	s.Mark("tree", snapshot)
	defer s.Close(ctx)
*/
package autosave
