package realtime

import "sync"

type emitted struct {
	Scope   string // "room", "all", or "connection"
	Target  string
	Event   string
	Payload any
}

// fakeEmitter records emissions for assertions.
type fakeEmitter struct {
	mu     sync.Mutex
	events []emitted
}

func (f *fakeEmitter) ToRoom(room, event string, payload any) {
	f.record(emitted{Scope: "room", Target: room, Event: event, Payload: payload})
}

func (f *fakeEmitter) ToAll(event string, payload any) {
	f.record(emitted{Scope: "all", Event: event, Payload: payload})
}

func (f *fakeEmitter) ToConnection(id, event string, payload any) {
	f.record(emitted{Scope: "connection", Target: id, Event: event, Payload: payload})
}

func (f *fakeEmitter) record(e emitted) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
}

func (f *fakeEmitter) all() []emitted {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]emitted, len(f.events))
	copy(out, f.events)
	return out
}

func (f *fakeEmitter) last() (emitted, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) == 0 {
		return emitted{}, false
	}
	return f.events[len(f.events)-1], true
}
