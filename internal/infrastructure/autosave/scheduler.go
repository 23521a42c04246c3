package autosave

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/codepad/internal/domain/project"
	"github.com/GriffinCanCode/codepad/internal/infrastructure/store"
)

// ErrClosed is returned by Flush on a scheduler whose Close has completed
var ErrClosed = errors.New("scheduler is closed")

// Options configures a Scheduler
type Options struct {
	// Delay is the quiet period before a slot is written
	Delay time.Duration
	// Delays overrides Delay per slot
	Delays map[string]time.Duration
	// WriteTimeout bounds each store write started by a timer
	WriteTimeout time.Duration
	// Codec encodes slot values; defaults to store.JSON
	Codec store.Codec
	// OnError receives failed writes, wrapped as project.ErrStoreWriteFailed
	OnError func(slot string, err error)
	// OnSaved is called after each successful write
	OnSaved func(slot string, size int, took time.Duration)
	Clock   clockwork.Clock
	Logger  *zap.Logger
}

type slot struct {
	name    string
	value   interface{}
	gen     uint64
	timer   clockwork.Timer
	pending bool
	writing bool
	dirty   bool
	done    chan struct{}
}

// Scheduler coalesces marks per slot into debounced store writes
type Scheduler struct {
	store  store.Store
	opts   Options
	logger *zap.Logger

	mu        sync.Mutex
	slots     map[string]*slot
	lastSaved time.Time
	lastErr   error
	closing   bool
	closed    bool
}

// New creates a scheduler writing to st
func New(st store.Store, opts Options) *Scheduler {
	if opts.Delay <= 0 {
		opts.Delay = time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	if opts.Codec == nil {
		opts.Codec = store.JSON
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	delays := make(map[string]time.Duration, len(opts.Delays))
	for k, v := range opts.Delays {
		delays[k] = v
	}
	opts.Delays = delays

	return &Scheduler{
		store:  st,
		opts:   opts,
		logger: opts.Logger,
		slots:  make(map[string]*slot),
	}
}

// SetDelay changes the default delay for marks made from now on
func (s *Scheduler) SetDelay(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	s.opts.Delay = d
	s.mu.Unlock()
}

func (s *Scheduler) delayFor(name string) time.Duration {
	if d, ok := s.opts.Delays[name]; ok {
		return d
	}
	return s.opts.Delay
}

// Mark records the latest value of a slot and restarts its countdown.
// A nil value is ignored, as are marks after Close.
func (s *Scheduler) Mark(name string, value interface{}) {
	if isNil(value) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closing {
		return
	}
	sl := s.slots[name]
	if sl == nil {
		sl = &slot{name: name}
		s.slots[name] = sl
	}

	sl.value = value
	sl.pending = true
	if sl.writing {
		sl.dirty = true
		return
	}
	s.arm(sl)
}

// arm (re)starts the countdown of sl; callers hold s.mu
func (s *Scheduler) arm(sl *slot) {
	if sl.timer != nil {
		sl.timer.Stop()
	}
	sl.gen++
	gen := sl.gen
	sl.timer = s.opts.Clock.AfterFunc(s.delayFor(sl.name), func() {
		s.fire(sl, gen)
	})
}

func (s *Scheduler) fire(sl *slot, gen uint64) {
	s.mu.Lock()
	if sl.gen != gen || sl.writing || !sl.pending {
		s.mu.Unlock()
		return
	}
	value := s.begin(sl)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.WriteTimeout)
	defer cancel()
	s.finish(sl, s.write(ctx, sl.name, value))
}

// begin takes the pending value of sl for writing; callers hold s.mu
func (s *Scheduler) begin(sl *slot) interface{} {
	if sl.timer != nil {
		sl.timer.Stop()
		sl.timer = nil
	}
	sl.gen++
	sl.pending = false
	sl.writing = true
	sl.done = make(chan struct{})
	return sl.value
}

func (s *Scheduler) write(ctx context.Context, name string, value interface{}) error {
	start := s.opts.Clock.Now()

	data, err := s.opts.Codec.Marshal(value)
	if err != nil {
		return writeError(name, fmt.Errorf("encode: %w", err))
	}
	if err := s.store.Save(ctx, name, data); err != nil {
		return writeError(name, err)
	}

	if s.opts.OnSaved != nil {
		s.opts.OnSaved(name, len(data), s.opts.Clock.Since(start))
	}
	s.logger.Debug("Slot saved", zap.String("slot", name), zap.Int("bytes", len(data)))
	return nil
}

func writeError(name string, err error) error {
	return &project.Error{
		Op:  project.OpSave,
		ID:  name,
		Err: fmt.Errorf("%w: %v", project.ErrStoreWriteFailed, err),
	}
}

// finish settles a write and re-arms the slot if it was marked meanwhile
func (s *Scheduler) finish(sl *slot, err error) {
	s.mu.Lock()
	sl.writing = false
	close(sl.done)
	sl.done = nil
	if err == nil {
		s.lastSaved = s.opts.Clock.Now()
		s.lastErr = nil
	} else {
		s.lastErr = err
	}
	if sl.dirty {
		sl.dirty = false
		if !s.closing {
			s.arm(sl)
		}
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("Slot write failed", zap.String("slot", sl.name), zap.Error(err))
		if s.opts.OnError != nil {
			s.opts.OnError(sl.name, err)
		}
	}
}

// Flush writes every pending slot now and waits for in-flight writes. It
// returns the first write error.
func (s *Scheduler) Flush(ctx context.Context) error {
	var firstErr error
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return ErrClosed
		}

		var ready []*slot
		var values []interface{}
		var waits []chan struct{}
		for _, sl := range s.slots {
			switch {
			case sl.writing:
				waits = append(waits, sl.done)
			case sl.pending:
				ready = append(ready, sl)
				values = append(values, s.begin(sl))
			}
		}
		s.mu.Unlock()

		if len(ready) == 0 && len(waits) == 0 {
			return firstErr
		}

		for i, sl := range ready {
			err := s.write(ctx, sl.name, values[i])
			s.finish(sl, err)
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}
		for _, ch := range waits {
			select {
			case <-ch:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Close stops accepting marks, flushes pending slots, and stops all timers.
func (s *Scheduler) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closing = true
	s.mu.Unlock()

	err := s.Flush(ctx)

	s.mu.Lock()
	for _, sl := range s.slots {
		if sl.timer != nil {
			sl.timer.Stop()
			sl.timer = nil
		}
	}
	s.closed = true
	s.mu.Unlock()
	return err
}

// Saving reports whether any slot has a pending or in-flight write
func (s *Scheduler) Saving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sl := range s.slots {
		if sl.pending || sl.writing {
			return true
		}
	}
	return false
}

// SlotSaving reports whether the named slot has a pending or in-flight write
func (s *Scheduler) SlotSaving(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl := s.slots[name]
	return sl != nil && (sl.pending || sl.writing)
}

// LastSaved returns the time of the most recent successful write
func (s *Scheduler) LastSaved() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSaved
}

// LastError returns the error of the most recent write, or nil after a success
func (s *Scheduler) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
