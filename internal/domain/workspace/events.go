package workspace

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/codepad/internal/shared/id"
)

// EventType names a kind of change
type EventType string

const (
	EventNodeCreated     EventType = "node.created"
	EventNodeDeleted     EventType = "node.deleted"
	EventNodeRenamed     EventType = "node.renamed"
	EventNodeMoved       EventType = "node.moved"
	EventContentUpdated  EventType = "node.content"
	EventFolderToggled   EventType = "node.toggled"
	EventSessionChanged  EventType = "session.changed"
	EventSettingsChanged EventType = "settings.changed"
	EventProjectReplaced EventType = "project.replaced"
	EventSaved           EventType = "save.completed"
	EventSaveFailed      EventType = "save.failed"
)

// Event describes one change to the workspace
type Event struct {
	ID     string    `json:"id"`
	Type   EventType `json:"type"`
	NodeID string    `json:"nodeId,omitempty"`
	Slot   string    `json:"slot,omitempty"`
	Error  string    `json:"error,omitempty"`
	At     time.Time `json:"at"`
}

func newEvent(t EventType) Event {
	return Event{
		ID:   id.NewEventID().String(),
		Type: t,
		At:   time.Now().UTC(),
	}
}

// hub fans events out to subscribers. Slow subscribers lose events rather
// than stall the publisher.
type hub struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	next   int
	logger *zap.Logger
}

func newHub(logger *zap.Logger) *hub {
	return &hub{subs: make(map[int]chan Event), logger: logger}
}

func (h *hub) subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Event, buffer)

	h.mu.Lock()
	key := h.next
	h.next++
	h.subs[key] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[key]; ok {
				delete(h.subs, key)
				close(c)
			}
		})
	}
}

func (h *hub) publish(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subs {
		select {
		case ch <- e:
		default:
			h.logger.Debug("Dropped event for slow subscriber", zap.String("type", string(e.Type)))
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for key, ch := range h.subs {
		delete(h.subs, key)
		close(ch)
	}
}
