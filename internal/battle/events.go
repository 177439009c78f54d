package battle

import "sync"

// EventKind names the presentation callback an Event stands for.
type EventKind string

const (
	EventText  EventKind = "text"
	EventHP    EventKind = "hp"
	EventPhase EventKind = "phase"
	EventInput EventKind = "input"
)

// Event is one entry of the ordered presentation stream. Only the fields that
// belong to Kind are set.
type Event struct {
	Seq  uint64
	Kind EventKind

	Text string

	Who   Side
	HP    int
	MaxHP int

	Phase        Phase
	InputEnabled bool
}

// Presenter consumes engine events in sequence order. Present is called without
// the engine lock held, but must not call mutating engine operations synchronously.
type Presenter interface {
	Present(Event)
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(Event)

// Present implements Presenter.
func (f PresenterFunc) Present(ev Event) { f(ev) }

type discardPresenter struct{}

func (discardPresenter) Present(Event) {}

// Recorder keeps every presented event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Present implements Presenter.
func (r *Recorder) Present(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

// Events returns a copy of the recorded stream.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Texts returns the recorded text messages in order.
func (r *Recorder) Texts() []string {
	var out []string
	for _, ev := range r.Events() {
		if ev.Kind == EventText {
			out = append(out, ev.Text)
		}
	}
	return out
}

// Phases returns the recorded phase transitions in order.
func (r *Recorder) Phases() []Phase {
	var out []Phase
	for _, ev := range r.Events() {
		if ev.Kind == EventPhase {
			out = append(out, ev.Phase)
		}
	}
	return out
}

// Reset drops everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
