package core

// SystemUser is the privileged user type that may join the site-wide room.
const SystemUser = "System User"

// Events consumed from clients.
const (
	EventTaskSubscribe     = "task_subscribe"
	EventTaskUnsubscribe   = "task_unsubscribe"
	EventProgressSubscribe = "progress_subscribe"
	EventDocSubscribe      = "doc_subscribe"
	EventDocUnsubscribe    = "doc_unsubscribe"
	EventDocOpen           = "doc_open"
	EventDocClose          = "doc_close"
	EventDocTyping         = "doc_typing"
	EventDocTypingStopped  = "doc_typing_stopped"
	EventOpenInEditor      = "open_in_editor"
)

// Events emitted to clients.
const (
	EventTaskProgress = "task_progress"
	EventDocViewers   = "doc_viewers"
	EventDocTypers    = "doc_typers"
)

type (
	// RelayMessage is the wire format of the shared "events" pub/sub
	// channel. A message with a room is delivered only to that room's
	// members; without one it is broadcast to every connected session.
	RelayMessage struct {
		Room    string `json:"room,omitempty"`
		Event   string `json:"event"`
		Message any    `json:"message"`
	}

	// DocPresence is the payload of doc_viewers and doc_typers events:
	// the deduplicated set of users currently viewing or typing.
	DocPresence struct {
		Doctype string   `json:"doctype"`
		Docname string   `json:"docname"`
		Users   []string `json:"users"`
	}

	// TaskProgress replays buffered task log lines to a late subscriber.
	TaskProgress struct {
		TaskID  string  `json:"task_id"`
		Message TaskLog `json:"message"`
	}

	TaskLog struct {
		Lines map[string]string `json:"lines"`
	}
)
