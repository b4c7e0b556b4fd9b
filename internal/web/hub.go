package web

import (
	"sync"

	"github.com/julianstephens/clinichat/internal/chat"
)

// hub fans runtime events out to the websocket streams of each session.
type hub struct {
	mu   sync.Mutex
	subs map[string]map[chan chat.Event]struct{}
}

func newHub() *hub {
	return &hub{subs: map[string]map[chan chat.Event]struct{}{}}
}

// run forwards events until src is closed.
func (h *hub) run(src <-chan chat.Event) {
	for ev := range src {
		h.mu.Lock()
		for ch := range h.subs[ev.SessionID] {
			select {
			case ch <- ev:
			default:
			}
		}
		h.mu.Unlock()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, set := range h.subs {
		for ch := range set {
			close(ch)
		}
		delete(h.subs, id)
	}
}

func (h *hub) subscribe(sessionID string) chan chat.Event {
	ch := make(chan chat.Event, 8)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = map[chan chat.Event]struct{}{}
	}
	h.subs[sessionID][ch] = struct{}{}
	return ch
}

func (h *hub) unsubscribe(sessionID string, ch chan chat.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[sessionID]
	if !ok {
		return
	}
	if _, ok := set[ch]; !ok {
		return
	}
	delete(set, ch)
	close(ch)
	if len(set) == 0 {
		delete(h.subs, sessionID)
	}
}
