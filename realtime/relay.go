package realtime

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"realtime-gateway/core"
)

const (
	// EventsChannel carries relay messages published by backend workers.
	EventsChannel = "events"
	// EditorChannel receives open_in_editor requests republished verbatim
	// for a development-tooling consumer outside this process.
	EditorChannel = "open_in_editor"
)

// Relay is the single long-lived subscriber that fans externally published
// events out to local connections. One Relay runs per gateway process;
// messages are dispatched in the order the subscription delivers them.
type Relay struct {
	rdb  *redis.Client
	emit Emitter
}

func NewRelay(rdb *redis.Client, emit Emitter) *Relay {
	return &Relay{rdb: rdb, emit: emit}
}

// Run subscribes to the events channel and dispatches until ctx is
// cancelled or the subscription closes.
func (r *Relay) Run(ctx context.Context) error {
	sub := r.rdb.Subscribe(ctx, EventsChannel)
	defer func() {
		if err := sub.Close(); err != nil {
			logrus.WithError(err).Warn("closing relay subscription")
		}
	}()

	logrus.WithField("channel", EventsChannel).Info("relay subscriber started")
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.Dispatch([]byte(msg.Payload))
		}
	}
}

// Dispatch parses one relay payload and emits it: to the target room when
// one is set, otherwise to every connected session. Malformed payloads are
// logged and dropped; there is nobody to report the error to.
func (r *Relay) Dispatch(payload []byte) {
	var m core.RelayMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		logrus.WithError(err).Warn("dropping undecodable relay message")
		return
	}
	if m.Event == "" {
		logrus.Warn("dropping relay message without event name")
		return
	}
	if m.Room != "" {
		r.emit.ToRoom(m.Room, m.Event, m.Message)
		return
	}
	r.emit.ToAll(m.Event, m.Message)
}

// PublishOpenInEditor forwards an open_in_editor request to the shared
// editor channel. The payload is client-supplied and passed through as is.
func (r *Relay) PublishOpenInEditor(ctx context.Context, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		logrus.WithError(err).Warn("dropping unencodable open_in_editor payload")
		return
	}
	if err := r.rdb.Publish(ctx, EditorChannel, payload).Err(); err != nil {
		logrus.WithError(err).Error("publishing open_in_editor")
	}
}
