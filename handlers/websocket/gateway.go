package websocket

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zishang520/engine.io/v2/types"
	socketio "github.com/zishang520/socket.io/v2/socket"

	"realtime-gateway/core"
	"realtime-gateway/realtime"
	"realtime-gateway/stores"
)

// Connection-refusal reasons surfaced to the client. Everything that goes
// wrong later is swallowed from the client's perspective and only visible
// in server logs.
var (
	ErrInvalidOrigin      = errors.New("invalid origin")
	ErrMissingCredentials = errors.New("missing credentials")
)

const serviceCallTimeout = 15 * time.Second

// Gateway wires the room, authorization and presence core to a socket.io
// server. All membership state lives in the hub; the transport's own room
// bookkeeping is kept in lockstep so emits reach the right sockets.
type Gateway struct {
	hub         *realtime.Hub
	presence    *realtime.Presence
	relay       *realtime.Relay
	client      *realtime.APIClient
	taskLogs    stores.TaskLogStore
	emit        realtime.Emitter
	defaultSite string
}

func NewGateway(
	hub *realtime.Hub,
	presence *realtime.Presence,
	relay *realtime.Relay,
	client *realtime.APIClient,
	taskLogs stores.TaskLogStore,
	emit realtime.Emitter,
	defaultSite string,
) *Gateway {
	return &Gateway{
		hub:         hub,
		presence:    presence,
		relay:       relay,
		client:      client,
		taskLogs:    taskLogs,
		emit:        emit,
		defaultSite: defaultSite,
	}
}

// NewServer builds the socket.io server the gateway attaches to.
func NewServer() *socketio.Server {
	opts := socketio.DefaultServerOptions()
	opts.SetPath("/socket.io")
	opts.SetAllowEIO3(true)
	// Origins are open here; the gateway refuses any connection whose
	// origin hostname does not match its host hostname before listeners
	// are registered.
	opts.SetCors(&types.Cors{
		Origin:      true,
		Credentials: true,
	})
	return socketio.NewServer(nil, opts)
}

// Attach registers the authentication gate and the connection handler.
func (g *Gateway) Attach(srv *socketio.Server) {
	srv.Use(g.authenticate)
	srv.On("connection", func(clients ...any) {
		socket, ok := clients[0].(*socketio.Socket)
		if !ok {
			return
		}
		g.handleConnection(socket)
	})
}

// authenticate is the connection-time gate. Origin and credential checks
// refuse synchronously; identity resolution is kicked off from the
// connection handler and completes in the background (optimistic accept:
// the session acts under its provisional cookie identity until then).
func (g *Gateway) authenticate(socket *socketio.Socket, next func(*socketio.ExtendedError)) {
	headers := socket.Handshake().Headers
	if err := refuseConnection(headers); err != nil {
		logrus.WithFields(logrus.Fields{
			"host":   headerValue(headers, "Host"),
			"origin": headerValue(headers, "Origin"),
		}).WithError(err).Warn("refusing connection")
		next(socketio.NewExtendedError(err.Error(), nil))
		return
	}
	next(nil)
}

// refuseConnection decides whether a handshake is admissible from its
// headers alone. A non-nil error names the refusal reason sent back to
// the client.
func refuseConnection(headers map[string][]string) error {
	host := headerValue(headers, "Host")
	origin := headerValue(headers, "Origin")
	if core.Hostname(host) != core.Hostname(origin) {
		return ErrInvalidOrigin
	}
	if parseCookies(headerValue(headers, "Cookie"))["sid"] == "" {
		return ErrMissingCredentials
	}
	return nil
}

func (g *Gateway) handleConnection(socket *socketio.Socket) {
	headers := socket.Handshake().Headers
	origin := headerValue(headers, "Origin")
	cookies := parseCookies(headerValue(headers, "Cookie"))

	sess := realtime.Session{
		ID:   string(socket.Id()),
		Site: core.SiteName(headerValue(headers, "Host"), headerValue(headers, siteNameHeader), origin, g.defaultSite),
		SID:  cookies["sid"],
		// Provisional until the identity service answers.
		User: cookies["user_id"],
	}
	g.hub.Register(sess)
	logrus.WithFields(logrus.Fields{
		"socket": sess.ID,
		"site":   sess.Site,
	}).Debug("connection accepted")

	go g.resolveIdentity(socket, sess.Site, origin, sess.SID)

	socket.On(core.EventTaskSubscribe, func(datas ...any) {
		args, ok := stringArgs(datas, 1)
		if !ok {
			return
		}
		g.join(socket, core.TaskRoom(sess.Site, args[0]))
	})

	socket.On(core.EventTaskUnsubscribe, func(datas ...any) {
		args, ok := stringArgs(datas, 1)
		if !ok {
			return
		}
		g.leave(socket, core.TaskRoom(sess.Site, args[0]))
	})

	socket.On(core.EventProgressSubscribe, func(datas ...any) {
		args, ok := stringArgs(datas, 1)
		if !ok {
			return
		}
		taskID := args[0]
		if g.join(socket, core.TaskRoom(sess.Site, taskID)) {
			go g.replayTaskLog(sess.ID, taskID)
		}
	})

	socket.On(core.EventDocSubscribe, func(datas ...any) {
		args, ok := stringArgs(datas, 2)
		if !ok {
			return
		}
		doctype, docname := args[0], args[1]
		go g.authorizeDoc(origin, sess.SID, doctype, docname, func() {
			g.join(socket, core.DocRoom(sess.Site, doctype, docname))
		})
	})

	socket.On(core.EventDocUnsubscribe, func(datas ...any) {
		args, ok := stringArgs(datas, 2)
		if !ok {
			return
		}
		g.leave(socket, core.DocRoom(sess.Site, args[0], args[1]))
	})

	socket.On(core.EventDocOpen, func(datas ...any) {
		args, ok := stringArgs(datas, 2)
		if !ok {
			return
		}
		doctype, docname := args[0], args[1]
		go g.authorizeDoc(origin, sess.SID, doctype, docname, func() {
			if !g.join(socket, core.OpenDocRoom(sess.Site, doctype, docname)) {
				return
			}
			g.presence.BroadcastViewers(sess.Site, doctype, docname)
			g.presence.BroadcastTypers(sess.Site, doctype, docname)
		})
	})

	socket.On(core.EventDocClose, func(datas ...any) {
		args, ok := stringArgs(datas, 2)
		if !ok {
			return
		}
		doctype, docname := args[0], args[1]
		g.leave(socket, core.OpenDocRoom(sess.Site, doctype, docname))
		g.presence.BroadcastViewers(sess.Site, doctype, docname)
	})

	socket.On(core.EventDocTyping, func(datas ...any) {
		args, ok := stringArgs(datas, 2)
		if !ok {
			return
		}
		doctype, docname := args[0], args[1]
		room := core.TypingRoom(sess.Site, doctype, docname)
		// Typing fires on every keystroke burst; a connection already in
		// the room has been authorized and only needs the rebroadcast.
		if g.hub.InRoom(sess.ID, room) {
			g.presence.BroadcastTypers(sess.Site, doctype, docname)
			return
		}
		go g.authorizeDoc(origin, sess.SID, doctype, docname, func() {
			if g.join(socket, room) {
				g.presence.BroadcastTypers(sess.Site, doctype, docname)
			}
		})
	})

	socket.On(core.EventDocTypingStopped, func(datas ...any) {
		args, ok := stringArgs(datas, 2)
		if !ok {
			return
		}
		doctype, docname := args[0], args[1]
		g.leave(socket, core.TypingRoom(sess.Site, doctype, docname))
		g.presence.BroadcastTypers(sess.Site, doctype, docname)
	})

	socket.On(core.EventOpenInEditor, func(datas ...any) {
		if len(datas) == 0 {
			return
		}
		go g.relay.PublishOpenInEditor(context.Background(), datas[0])
	})

	socket.On("disconnecting", func(datas ...any) {
		rooms := g.hub.Unregister(sess.ID)
		// Presence rooms the session belonged to need fresh snapshots,
		// or the departed user lingers in viewer/typer lists forever.
		for _, room := range rooms {
			g.presence.BroadcastFor(room)
		}
		logrus.WithField("socket", sess.ID).Debug("connection closed")
	})

	socket.On("disconnect", func(datas ...any) {
		socket.RemoveAllListeners("")
		socket.Disconnect(true)
	})
}

// join records membership in the hub first, then mirrors it into the
// transport. The hub refusing means the session is already gone and the
// transport join must not happen either.
func (g *Gateway) join(socket *socketio.Socket, room string) bool {
	if !g.hub.Join(string(socket.Id()), room) {
		return false
	}
	socket.Join(socketio.Room(room))
	return true
}

func (g *Gateway) leave(socket *socketio.Socket, room string) {
	g.hub.Leave(string(socket.Id()), room)
	socket.Leave(socketio.Room(room))
}

// resolveIdentity exchanges the session token for the canonical user
// identity. Failure degrades the session to unauthenticated instead of
// dropping it. The privileged joins happen only here, after the identity
// service has answered, and only if the session is still connected.
func (g *Gateway) resolveIdentity(socket *socketio.Socket, site, origin, sid string) {
	ctx, cancel := context.WithTimeout(context.Background(), serviceCallTimeout)
	defer cancel()

	info, err := g.client.GetUserInfo(ctx, origin, sid)
	id := string(socket.Id())
	if err != nil {
		logrus.WithError(err).WithField("socket", id).Warn("identity resolution failed, session stays unauthenticated")
		return
	}
	if !g.hub.SetIdentity(id, info.User, info.UserType) {
		// Disconnected while the call was in flight.
		return
	}
	g.join(socket, core.UserRoom(site, info.User))
	if info.UserType == core.SystemUser {
		g.join(socket, core.SiteRoom(site))
	}
	logrus.WithFields(logrus.Fields{
		"socket": id,
		"user":   info.User,
	}).Info("user resolved")
}

// authorizeDoc runs the permission check and invokes grant only on an
// explicit 200. Denials are silent: they are expected, and reporting them
// to the client would leak access-control information.
func (g *Gateway) authorizeDoc(origin, sid, doctype, docname string, grant func()) {
	ctx, cancel := context.WithTimeout(context.Background(), serviceCallTimeout)
	defer cancel()

	allowed, err := g.client.CanSubscribeDoc(ctx, origin, sid, doctype, docname)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"doctype": doctype,
			"docname": docname,
		}).Error("permission check failed")
		return
	}
	if !allowed {
		return
	}
	grant()
}

// replayTaskLog sends the task's buffered history to one late subscriber
// before live relay updates arrive.
func (g *Gateway) replayTaskLog(sessionID, taskID string) {
	ctx, cancel := context.WithTimeout(context.Background(), serviceCallTimeout)
	defer cancel()

	lines, err := g.taskLogs.Lines(ctx, taskID)
	if err != nil {
		logrus.WithError(err).WithField("task", taskID).Error("reading buffered task log")
		return
	}
	g.emit.ToConnection(sessionID, core.EventTaskProgress, core.TaskProgress{
		TaskID:  taskID,
		Message: core.TaskLog{Lines: lines},
	})
}
