package rooms

import (
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/render"

	"realtime-gateway/realtime"
)

type (
	RoomInfo struct {
		ID    string `json:"id"`
		Users int    `json:"users"`
	}

	Stats struct {
		Instance string `json:"instance"`
		Sessions int    `json:"sessions"`
		Rooms    int    `json:"rooms"`
		UptimeS  int64  `json:"uptimeSeconds"`
	}
)

// HandleList reports every non-empty room and its member count, largest
// first. Membership comes straight from the hub; there is no other record
// of rooms to consult.
func HandleList(hub *realtime.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sizes := hub.RoomSizes()
		list := make([]RoomInfo, 0, len(sizes))
		for id, users := range sizes {
			list = append(list, RoomInfo{ID: id, Users: users})
		}
		sort.Slice(list, func(i, j int) bool {
			if list[i].Users == list[j].Users {
				return list[i].ID < list[j].ID
			}
			return list[i].Users > list[j].Users
		})
		render.JSON(w, r, list)
	}
}

// HandleStats reports process-level gateway counters.
func HandleStats(hub *realtime.Hub, instanceID string, startedAt time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, Stats{
			Instance: instanceID,
			Sessions: hub.SessionCount(),
			Rooms:    len(hub.RoomSizes()),
			UptimeS:  int64(time.Since(startedAt).Seconds()),
		})
	}
}
