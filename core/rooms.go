package core

import "strings"

// Room kind segments. Rooms live in a flat namespace; the kind segment
// keeps names from different kinds disjoint even when their keys match.
const (
	kindSite    = "all"
	kindUser    = "user"
	kindTask    = "task_progress"
	kindDoc     = "doc"
	kindOpenDoc = "open_doc"
	kindTyping  = "typing"
)

// Hostname extracts the bare hostname from a URL-shaped value: scheme and
// path are stripped, then any trailing port. Empty input yields "".
func Hostname(raw string) string {
	if raw == "" {
		return ""
	}
	if idx := strings.Index(raw, "://"); idx != -1 {
		raw = raw[idx+len("://"):]
	}
	if idx := strings.IndexByte(raw, '/'); idx != -1 {
		raw = raw[:idx]
	}
	if idx := strings.IndexByte(raw, ':'); idx != -1 {
		raw = raw[:idx]
	}
	return raw
}

func isLoopback(hostname string) bool {
	return hostname == "localhost" || hostname == "127.0.0.1"
}

// SiteName derives the tenant for a connection from its handshake headers.
// An explicit site-name header always wins. Loopback hosts fall back to the
// configured default site, since local deployments cannot rely on DNS-based
// detection. After that the origin is preferred over the host header.
func SiteName(host, siteHeader, origin, defaultSite string) string {
	if siteHeader != "" {
		return Hostname(siteHeader)
	}
	if isLoopback(Hostname(host)) && defaultSite != "" {
		return defaultSite
	}
	if origin != "" {
		return Hostname(origin)
	}
	return Hostname(host)
}

// SiteRoom is the site-wide broadcast room.
func SiteRoom(site string) string {
	return site + ":" + kindSite
}

// UserRoom addresses every connection a single user holds on a site.
func UserRoom(site, user string) string {
	return site + ":" + kindUser + ":" + user
}

// TaskRoom carries progress updates for one background task.
func TaskRoom(site, taskID string) string {
	return site + ":" + kindTask + ":" + taskID
}

// DocRoom carries change events for one document.
func DocRoom(site, doctype, docname string) string {
	return site + ":" + kindDoc + ":" + doctype + "/" + docname
}

// OpenDocRoom holds the connections currently viewing a document. Presence
// events for the document are always emitted here, for both kinds.
func OpenDocRoom(site, doctype, docname string) string {
	return site + ":" + kindOpenDoc + ":" + doctype + "/" + docname
}

// TypingRoom holds the connections currently typing into a document.
func TypingRoom(site, doctype, docname string) string {
	return site + ":" + kindTyping + ":" + doctype + "/" + docname
}

// PresenceKind identifies which presence list a room contributes to.
type PresenceKind string

const (
	PresenceView PresenceKind = "view"
	PresenceType PresenceKind = "type"
)

// ParsePresenceRoom inverts OpenDocRoom and TypingRoom. It reports ok=false
// for rooms of any other kind. Docnames may contain slashes; doctypes may not.
func ParsePresenceRoom(room string) (site string, kind PresenceKind, doctype, docname string, ok bool) {
	parts := strings.SplitN(room, ":", 3)
	if len(parts) != 3 {
		return "", "", "", "", false
	}
	switch parts[1] {
	case kindOpenDoc:
		kind = PresenceView
	case kindTyping:
		kind = PresenceType
	default:
		return "", "", "", "", false
	}
	doc := strings.SplitN(parts[2], "/", 2)
	if len(doc) != 2 || doc[0] == "" || doc[1] == "" {
		return "", "", "", "", false
	}
	return parts[0], kind, doc[0], doc[1], true
}
