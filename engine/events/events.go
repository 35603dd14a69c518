// Package events defines the events a step can raise and a small recorder
// the engine collects them into. Listeners are notified in a single pass.
package events

import "github.com/nathoo/questline/types"

// Event types.
const (
	DialogueOpened  = "dialogue_opened"
	DialogueClosed  = "dialogue_closed"
	DialogueDropped = "dialogue_dropped"
	RewardGranted   = "reward_granted"
	ItemCollected   = "item_collected"
	ItemUsed        = "item_used"
	FocusChanged    = "focus_changed"
	InventoryChange = "inventory_changed"
)

// Handler receives dispatched events.
type Handler func(types.Event)

// Recorder accumulates the events raised during one step.
type Recorder struct {
	events   []types.Event
	handlers map[string][]Handler
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{handlers: map[string][]Handler{}}
}

// On registers h for events of the given type. An empty type matches all.
func (r *Recorder) On(eventType string, h Handler) {
	r.handlers[eventType] = append(r.handlers[eventType], h)
}

// Emit records an event.
func (r *Recorder) Emit(eventType string, data map[string]any) {
	r.events = append(r.events, types.Event{Type: eventType, Data: data})
}

// Drain returns the recorded events, dispatches them to handlers once and
// resets the recorder. Handlers that emit do not see their own events until
// the next drain.
func (r *Recorder) Drain() []types.Event {
	evts := r.events
	r.events = nil
	Dispatch(evts, r.handlers)
	return evts
}

// Dispatch runs handlers against events. Single pass, no recursion.
func Dispatch(evts []types.Event, handlers map[string][]Handler) {
	for _, ev := range evts {
		for _, h := range handlers[ev.Type] {
			h(ev)
		}
		for _, h := range handlers[""] {
			h(ev)
		}
	}
}
