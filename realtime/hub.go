package realtime

import (
	"sort"
	"sync"
)

// Emitter delivers events to connected clients. The socket.io server
// satisfies it through an adapter; tests substitute a recording fake.
type Emitter interface {
	// ToRoom emits to every connection currently joined to room.
	ToRoom(room, event string, payload any)
	// ToAll emits to every connected session in this process.
	ToAll(event string, payload any)
	// ToConnection emits to a single connection by id.
	ToConnection(id, event string, payload any)
}

// Session is the per-connection state the gateway keeps: where the
// connection came from, which credential it presented, and who it is
// acting as. User is provisional until identity resolution completes.
type Session struct {
	ID            string
	Site          string
	SID           string
	User          string
	UserType      string
	Authenticated bool
}

type member struct {
	session Session
	rooms   map[string]struct{}
}

// Hub is the single owner of the connection registry and the room
// membership index. Both structures are mutated together under one lock,
// so a session's joined-set and the per-room view can never disagree.
// Rooms have no object of their own; an empty membership set is deleted.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*member
	rooms    map[string]map[string]struct{}
}

func NewHub() *Hub {
	return &Hub{
		sessions: make(map[string]*member),
		rooms:    make(map[string]map[string]struct{}),
	}
}

// Register adds a newly accepted connection. Re-registering an id replaces
// the previous session and drops its memberships.
func (h *Hub) Register(s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.sessions[s.ID]; ok {
		for room := range old.rooms {
			h.dropMember(room, s.ID)
		}
	}
	h.sessions[s.ID] = &member{session: s, rooms: make(map[string]struct{})}
}

// Unregister removes a connection from the registry and from every room it
// joined, returning those rooms so the caller can recompute any presence
// lists the departure affects. The returned slice is sorted for stable
// iteration. A second call for the same id returns nil.
func (h *Hub) Unregister(id string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.sessions[id]
	if !ok {
		return nil
	}
	rooms := make([]string, 0, len(m.rooms))
	for room := range m.rooms {
		h.dropMember(room, id)
		rooms = append(rooms, room)
	}
	delete(h.sessions, id)
	sort.Strings(rooms)
	return rooms
}

// Join records room membership for a live connection. It reports false for
// unknown ids so that completions racing a disconnect become no-ops.
func (h *Hub) Join(id, room string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.sessions[id]
	if !ok {
		return false
	}
	m.rooms[room] = struct{}{}
	set, ok := h.rooms[room]
	if !ok {
		set = make(map[string]struct{})
		h.rooms[room] = set
	}
	set[id] = struct{}{}
	return true
}

// Leave removes room membership. Unknown ids and rooms are no-ops.
func (h *Hub) Leave(id, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.sessions[id]
	if !ok {
		return
	}
	delete(m.rooms, room)
	h.dropMember(room, id)
}

func (h *Hub) dropMember(room, id string) {
	set, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(h.rooms, room)
	}
}

// SetIdentity records the resolved identity for a session. It reports
// false when the session has already disconnected; the caller must then
// discard the result rather than act on stale state.
func (h *Hub) SetIdentity(id, user, userType string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.sessions[id]
	if !ok {
		return false
	}
	m.session.User = user
	m.session.UserType = userType
	m.session.Authenticated = true
	return true
}

// Session returns a copy of the session for id.
func (h *Hub) Session(id string) (Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	m, ok := h.sessions[id]
	if !ok {
		return Session{}, false
	}
	return m.session, true
}

// InRoom reports whether connection id is currently joined to room.
func (h *Hub) InRoom(id, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	m, ok := h.sessions[id]
	if !ok {
		return false
	}
	_, ok = m.rooms[room]
	return ok
}

// UsersInRoom returns the acting user identities of the room's members,
// deduplicated and sorted. A user with several connections in the room
// appears once.
func (h *Hub) UsersInRoom(room string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[string]struct{})
	for id := range h.rooms[room] {
		if m, ok := h.sessions[id]; ok && m.session.User != "" {
			seen[m.session.User] = struct{}{}
		}
	}
	users := make([]string, 0, len(seen))
	for user := range seen {
		users = append(users, user)
	}
	sort.Strings(users)
	return users
}

// RoomSizes returns a snapshot of every non-empty room and its member count.
func (h *Hub) RoomSizes() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	sizes := make(map[string]int, len(h.rooms))
	for room, set := range h.rooms {
		sizes[room] = len(set)
	}
	return sizes
}

// SessionCount returns the number of connected sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}
