package realtime

import (
	"realtime-gateway/core"
)

// Presence derives "who is viewing / who is typing" lists from live room
// membership. Nothing is stored: every broadcast recomputes the list from
// the hub, so state cannot survive a restart or drift from membership.
type Presence struct {
	hub  *Hub
	emit Emitter
}

func NewPresence(hub *Hub, emit Emitter) *Presence {
	return &Presence{hub: hub, emit: emit}
}

// BroadcastViewers recomputes the viewer list for a document and emits a
// doc_viewers event to its open-doc room.
func (p *Presence) BroadcastViewers(site, doctype, docname string) {
	p.broadcast(site, doctype, docname, core.PresenceView)
}

// BroadcastTypers recomputes the typer list for a document and emits a
// doc_typers event. Typer updates also go to the open-doc room: viewers
// want to know who is typing, typers already see themselves.
func (p *Presence) BroadcastTypers(site, doctype, docname string) {
	p.broadcast(site, doctype, docname, core.PresenceType)
}

// BroadcastFor recomputes the list a presence room contributes to. It is
// used on disconnect, where only the departed room names are known.
func (p *Presence) BroadcastFor(room string) {
	site, kind, doctype, docname, ok := core.ParsePresenceRoom(room)
	if !ok {
		return
	}
	p.broadcast(site, doctype, docname, kind)
}

func (p *Presence) broadcast(site, doctype, docname string, kind core.PresenceKind) {
	var room, event string
	if kind == core.PresenceView {
		room = core.OpenDocRoom(site, doctype, docname)
		event = core.EventDocViewers
	} else {
		room = core.TypingRoom(site, doctype, docname)
		event = core.EventDocTypers
	}
	users := p.hub.UsersInRoom(room)
	p.emit.ToRoom(core.OpenDocRoom(site, doctype, docname), event, core.DocPresence{
		Doctype: doctype,
		Docname: docname,
		Users:   users,
	})
}
