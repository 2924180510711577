package websocket

import (
	socketio "github.com/zishang520/socket.io/v2/socket"
)

// serverEmitter adapts the socket.io server to the realtime.Emitter
// interface so the presence tracker and the relay never touch the
// transport directly.
type serverEmitter struct {
	srv *socketio.Server
}

func NewEmitter(srv *socketio.Server) *serverEmitter {
	return &serverEmitter{srv: srv}
}

func (e *serverEmitter) ToRoom(room, event string, payload any) {
	_ = e.srv.To(socketio.Room(room)).Emit(event, payload)
}

func (e *serverEmitter) ToAll(event string, payload any) {
	// Server.Emit broadcasts to every connected socket and returns nothing,
	// unlike BroadcastOperator.Emit.
	e.srv.Emit(event, payload)
}

// ToConnection targets a single socket through its private room, which
// socket.io keeps joined to the socket id for the connection's lifetime.
func (e *serverEmitter) ToConnection(id, event string, payload any) {
	_ = e.srv.To(socketio.Room(id)).Emit(event, payload)
}
