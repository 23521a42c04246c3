package workspace

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/codepad/internal/domain/project"
	"github.com/GriffinCanCode/codepad/internal/domain/session"
	"github.com/GriffinCanCode/codepad/internal/domain/settings"
	"github.com/GriffinCanCode/codepad/internal/domain/templates"
	"github.com/GriffinCanCode/codepad/internal/infrastructure/autosave"
	"github.com/GriffinCanCode/codepad/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/codepad/internal/infrastructure/store"
)

// Persisted slot names
const (
	SlotTree       = "tree"
	SlotActiveFile = "activeFileId"
	SlotSettings   = "settings"
)

// Options configures Open
type Options struct {
	// Store holds the persisted slots; required
	Store store.Store
	// Autosave configures the scheduler. OnError and OnSaved are chained
	// after the workspace's own handlers.
	Autosave autosave.Options
	// Settings are used when no valid settings are persisted; nil means settings.Default()
	Settings  *settings.Settings
	Templates *templates.Registry
	Metrics   *monitoring.Metrics
	Logger    *zap.Logger
}

// Workspace is the project model service
type Workspace struct {
	mu       sync.Mutex
	tree     *project.Tree
	session  *session.Session
	settings settings.Settings
	unsaved  bool
	restored bool
	closed   bool

	store     store.Store
	scheduler *autosave.Scheduler
	templates *templates.Registry
	metrics   *monitoring.Metrics
	logger    *zap.Logger
	events    *hub
}

// Status summarises persistence and model size
type Status struct {
	Saving    bool       `json:"saving"`
	LastSaved *time.Time `json:"lastSaved"`
	LastError string     `json:"lastError,omitempty"`
	Unsaved   bool       `json:"unsaved"`
	AutoSave  bool       `json:"autoSave"`
	Restored  bool       `json:"restored"`
	Nodes     int        `json:"nodes"`
	OpenFiles int        `json:"openFiles"`
}

// Open rehydrates a workspace from opts.Store. A cold store or an unreadable
// snapshot yields the default project; neither is an error.
func Open(ctx context.Context, opts Options) (*Workspace, error) {
	if opts.Store == nil {
		return nil, errors.New("workspace: store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := settings.Default()
	if opts.Settings != nil {
		defaults = *opts.Settings
	}

	w := &Workspace{
		store:     opts.Store,
		templates: opts.Templates,
		metrics:   opts.Metrics,
		logger:    logger,
		events:    newHub(logger),
	}

	var savedSettings bool
	w.settings, savedSettings = w.loadSettings(ctx, defaults)
	tree, snap := w.loadTree(ctx)
	w.install(tree)

	dropped := 0
	if snap != nil {
		w.restored = true
		dropped = w.session.Restore(snap.OpenFiles, w.loadActive(ctx))
		if dropped > 0 {
			logger.Info("Dropped stale open files", zap.Int("count", dropped))
		}
	}

	aopts := opts.Autosave
	aopts.Logger = logger.Named("autosave")
	if aopts.Delay <= 0 {
		aopts.Delay = w.settings.Delay()
	}
	userErr, userSaved := aopts.OnError, aopts.OnSaved
	aopts.OnError = func(slot string, err error) {
		w.onSaveError(slot, err)
		if userErr != nil {
			userErr(slot, err)
		}
	}
	aopts.OnSaved = func(slot string, size int, took time.Duration) {
		w.onSaved(slot, size, took)
		if userSaved != nil {
			userSaved(slot, size, took)
		}
	}
	w.scheduler = autosave.New(opts.Store, aopts)
	if savedSettings {
		// A persisted preference outranks the configured default
		w.scheduler.SetDelay(w.settings.Delay())
	}

	// Persist what startup produced so a cold store is warm next time
	if !w.restored || dropped > 0 {
		w.scheduler.Mark(SlotTree, w.snapshot())
	}
	w.observe()
	return w, nil
}

func (w *Workspace) loadTree(ctx context.Context) (*project.Tree, *project.Snapshot) {
	data, err := w.store.Load(ctx, SlotTree)
	if errors.Is(err, store.ErrNotFound) {
		w.logger.Info("No saved project, starting from default")
		return project.NewDefaultProject(), nil
	}
	if err != nil {
		w.logger.Warn("Failed to read saved project, starting from default",
			zap.String("slot", SlotTree), zap.Error(err))
		return project.NewDefaultProject(), nil
	}

	tree, snap, err := project.Load(data)
	if err != nil {
		w.logger.Warn("Saved project is invalid, starting from default",
			zap.String("slot", SlotTree), zap.Error(err))
		return project.NewDefaultProject(), nil
	}
	w.logger.Info("Restored project", zap.Int("nodes", tree.Len()))
	return tree, snap
}

func (w *Workspace) loadActive(ctx context.Context) string {
	data, err := w.store.Load(ctx, SlotActiveFile)
	if err != nil {
		return ""
	}
	var active string
	if err := store.JSON.Unmarshal(data, &active); err != nil {
		w.logger.Warn("Ignoring invalid active file", zap.String("slot", SlotActiveFile), zap.Error(err))
		return ""
	}
	return active
}

// loadSettings reports whether the returned settings came from the store
func (w *Workspace) loadSettings(ctx context.Context, defaults settings.Settings) (settings.Settings, bool) {
	data, err := w.store.Load(ctx, SlotSettings)
	if err != nil {
		return defaults, false
	}
	s := defaults
	if err := store.JSON.Unmarshal(data, &s); err != nil {
		w.logger.Warn("Ignoring unreadable settings", zap.String("slot", SlotSettings), zap.Error(err))
		return defaults, false
	}
	if err := s.Validate(); err != nil {
		w.logger.Warn("Ignoring invalid settings", zap.String("slot", SlotSettings), zap.Error(err))
		return defaults, false
	}
	return s, true
}

// install makes tree current with a fresh session; callers hold w.mu or
// have not yet shared w
func (w *Workspace) install(tree *project.Tree) {
	w.tree = tree
	w.session = session.New(tree)
}

func (w *Workspace) snapshot() *project.Snapshot {
	return w.tree.Snapshot(w.session.IDs())
}

func (w *Workspace) observe() {
	if w.metrics != nil {
		w.metrics.SetModelSize(w.tree.Len(), w.session.Len())
	}
}

// changed publishes an event and schedules the tree slot; callers hold w.mu
func (w *Workspace) changed(t EventType, nodeID string) {
	e := newEvent(t)
	e.NodeID = nodeID
	w.events.publish(e)
	w.markTree()
	w.observe()
}

func (w *Workspace) markTree() {
	if !w.settings.AutoSave {
		w.unsaved = true
		return
	}
	w.scheduler.Mark(SlotTree, w.snapshot())
}

// markActive schedules the active file slot if it differs from prev
func (w *Workspace) markActive(prev string) {
	if active := w.session.Active(); active != prev {
		w.scheduler.Mark(SlotActiveFile, active)
	}
}

func (w *Workspace) onSaveError(slot string, err error) {
	if w.metrics != nil {
		w.metrics.RecordSlotFailure(slot)
	}
	e := newEvent(EventSaveFailed)
	e.Slot = slot
	e.Error = err.Error()
	w.events.publish(e)
}

func (w *Workspace) onSaved(slot string, size int, took time.Duration) {
	if w.metrics != nil {
		w.metrics.RecordSlotWrite(slot, size, took)
	}
	e := newEvent(EventSaved)
	e.Slot = slot
	w.events.publish(e)
}

// run times op under the workspace lock
func (w *Workspace) run(op string, fn func() error) error {
	timer := monitoring.NewTimer(w.metrics, op)
	w.mu.Lock()
	err := fn()
	w.mu.Unlock()

	kind := ""
	if err != nil {
		kind = project.ErrorKind(err)
	}
	timer.Stop(kind)
	return err
}

// Subscribe returns a channel of change events and a func that ends the
// subscription. The channel is closed when the workspace closes.
func (w *Workspace) Subscribe(buffer int) (<-chan Event, func()) {
	return w.events.subscribe(buffer)
}

// Status reports persistence state and model size
func (w *Workspace) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()

	st := Status{
		Saving:    w.scheduler.Saving(),
		Unsaved:   w.unsaved,
		AutoSave:  w.settings.AutoSave,
		Restored:  w.restored,
		Nodes:     w.tree.Len(),
		OpenFiles: w.session.Len(),
	}
	if t := w.scheduler.LastSaved(); !t.IsZero() {
		st.LastSaved = &t
	}
	if err := w.scheduler.LastError(); err != nil {
		st.LastError = err.Error()
	}
	return st
}

// Save schedules every slot with its current value and writes them now
func (w *Workspace) Save(ctx context.Context) error {
	w.mu.Lock()
	w.scheduler.Mark(SlotTree, w.snapshot())
	w.scheduler.Mark(SlotActiveFile, w.session.Active())
	w.scheduler.Mark(SlotSettings, w.settings)
	w.unsaved = false
	w.mu.Unlock()

	return w.scheduler.Flush(ctx)
}

// Close flushes pending writes, stops the scheduler, and ends every
// subscription. The store stays open; it belongs to the caller.
func (w *Workspace) Close(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	err := w.scheduler.Close(ctx)
	w.events.closeAll()
	return err
}
