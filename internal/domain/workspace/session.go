package workspace

import (
	"fmt"

	"github.com/GriffinCanCode/codepad/internal/domain/project"
	"github.com/GriffinCanCode/codepad/internal/domain/settings"
)

// FileTab describes one open file
type FileTab struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	Language string `json:"language"`
}

// SessionState lists open files in tab order plus the active one
type SessionState struct {
	OpenFiles []FileTab `json:"openFiles"`
	Active    string    `json:"activeFileId"`
}

func (w *Workspace) sessionState() SessionState {
	nodes := w.session.List()
	st := SessionState{OpenFiles: make([]FileTab, 0, len(nodes)), Active: w.session.Active()}
	for _, n := range nodes {
		path, _ := w.tree.Path(n.ID())
		st.OpenFiles = append(st.OpenFiles, FileTab{
			ID:       n.ID(),
			Name:     n.Name(),
			Path:     path,
			Language: n.Language(),
		})
	}
	return st
}

// Session returns the open files
func (w *Workspace) Session() SessionState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sessionState()
}

// OpenFile adds a file to the session
func (w *Workspace) OpenFile(id string) (SessionState, error) {
	var st SessionState
	err := w.run(project.OpOpen, func() error {
		if w.session.IsOpen(id) {
			st = w.sessionState()
			return nil
		}
		prev := w.session.Active()
		if err := w.session.Open(id); err != nil {
			return err
		}
		w.changed(EventSessionChanged, id)
		w.markActive(prev)
		st = w.sessionState()
		return nil
	})
	return st, err
}

// CloseFile removes a file from the session; closing a file that is not
// open does nothing
func (w *Workspace) CloseFile(id string) SessionState {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.session.IsOpen(id) {
		prev := w.session.Active()
		w.session.Close(id)
		w.changed(EventSessionChanged, id)
		w.markActive(prev)
	}
	return w.sessionState()
}

// SetActive opens id if needed and makes it the active file
func (w *Workspace) SetActive(id string) (SessionState, error) {
	var st SessionState
	err := w.run(project.OpOpen, func() error {
		prev, wasOpen := w.session.Active(), w.session.IsOpen(id)
		if err := w.session.SetActive(id); err != nil {
			return err
		}
		if !wasOpen {
			w.changed(EventSessionChanged, id)
		} else if prev != id {
			w.events.publish(newEvent(EventSessionChanged))
		}
		w.markActive(prev)
		st = w.sessionState()
		return nil
	})
	return st, err
}

// Settings returns the current editor preferences
func (w *Workspace) Settings() settings.Settings {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.settings
}

// UpdateSettings validates and applies new preferences. Turning auto save
// back on schedules any changes made while it was off.
func (w *Workspace) UpdateSettings(s settings.Settings) (settings.Settings, error) {
	if err := s.Validate(); err != nil {
		return w.Settings(), fmt.Errorf("update settings: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	resume := s.AutoSave && !w.settings.AutoSave && w.unsaved
	w.settings = s
	w.scheduler.SetDelay(s.Delay())
	w.scheduler.Mark(SlotSettings, s)
	if resume {
		w.unsaved = false
		w.scheduler.Mark(SlotTree, w.snapshot())
	}
	w.events.publish(newEvent(EventSettingsChanged))
	return s, nil
}
