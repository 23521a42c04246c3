package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// ErrGuardOpen is returned by Save while the guard is refusing writes
var ErrGuardOpen = errors.New("store writes suspended after repeated failures")

// GuardState is the write state of a Guard
type GuardState int

const (
	GuardClosed GuardState = iota
	GuardHalfOpen
	GuardOpen
)

func (s GuardState) String() string {
	switch s {
	case GuardClosed:
		return "closed"
	case GuardHalfOpen:
		return "half-open"
	case GuardOpen:
		return "open"
	default:
		return "unknown"
	}
}

// GuardSettings configures a Guard
type GuardSettings struct {
	// FailureThreshold is the number of consecutive failed writes that opens the guard
	FailureThreshold int
	// Cooldown is how long writes are refused before a trial write is allowed
	Cooldown time.Duration
	// OnStateChange is called whenever the state changes, with the guard locked
	OnStateChange func(from, to GuardState)
	Clock         clockwork.Clock
}

// Guard stops hammering a failing store. After FailureThreshold consecutive
// failed writes it rejects Save with ErrGuardOpen for Cooldown, then lets a
// single trial write through: success closes the guard, failure reopens it.
type Guard struct {
	Store
	settings GuardSettings

	mu       sync.Mutex
	state    GuardState
	failures int
	trial    bool
	openedAt time.Time
}

// NewGuard wraps s. Zero settings default to 5 failures and a 30s cooldown.
func NewGuard(s Store, settings GuardSettings) *Guard {
	if settings.FailureThreshold <= 0 {
		settings.FailureThreshold = 5
	}
	if settings.Cooldown <= 0 {
		settings.Cooldown = 30 * time.Second
	}
	if settings.Clock == nil {
		settings.Clock = clockwork.NewRealClock()
	}
	return &Guard{Store: s, settings: settings}
}

// State returns the current state
func (g *Guard) State() GuardState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current()
}

// Failures returns the current run of consecutive failed writes
func (g *Guard) Failures() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.failures
}

func (g *Guard) Save(ctx context.Context, key string, data []byte) error {
	if err := g.before(); err != nil {
		return err
	}
	err := g.Store.Save(ctx, key, data)
	g.after(err == nil)
	return err
}

func (g *Guard) before() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.current() {
	case GuardOpen:
		return ErrGuardOpen
	case GuardHalfOpen:
		if g.trial {
			return ErrGuardOpen
		}
		g.trial = true
	}
	return nil
}

func (g *Guard) after(success bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	state := g.current()
	if success {
		g.failures = 0
		if state != GuardClosed {
			g.setState(GuardClosed)
		}
		return
	}

	g.failures++
	if state == GuardHalfOpen || g.failures >= g.settings.FailureThreshold {
		g.setState(GuardOpen)
	}
}

// current advances an expired open guard to half-open
func (g *Guard) current() GuardState {
	if g.state == GuardOpen && !g.settings.Clock.Now().Before(g.openedAt.Add(g.settings.Cooldown)) {
		g.setState(GuardHalfOpen)
	}
	return g.state
}

func (g *Guard) setState(state GuardState) {
	if g.state == state {
		return
	}
	prev := g.state
	g.state = state
	g.trial = false

	switch state {
	case GuardOpen:
		g.openedAt = g.settings.Clock.Now()
	case GuardClosed:
		g.failures = 0
	}

	if g.settings.OnStateChange != nil {
		g.settings.OnStateChange(prev, state)
	}
}
