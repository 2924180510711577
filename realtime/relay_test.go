package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchTargetsRoom(t *testing.T) {
	emit := &fakeEmitter{}
	relay := NewRelay(nil, emit)

	relay.Dispatch([]byte(`{"room":"site1:task_progress:42","event":"task_progress","message":{"lines":["a","b"]}}`))

	e, ok := emit.last()
	require.True(t, ok)
	assert.Equal(t, "room", e.Scope)
	assert.Equal(t, "site1:task_progress:42", e.Target)
	assert.Equal(t, "task_progress", e.Event)
	assert.Equal(t, map[string]any{"lines": []any{"a", "b"}}, e.Payload)
}

func TestDispatchWithoutRoomBroadcasts(t *testing.T) {
	emit := &fakeEmitter{}
	relay := NewRelay(nil, emit)

	relay.Dispatch([]byte(`{"event":"maintenance_notice","message":"back in 5"}`))

	e, ok := emit.last()
	require.True(t, ok)
	assert.Equal(t, "all", e.Scope)
	assert.Equal(t, "maintenance_notice", e.Event)
	assert.Equal(t, "back in 5", e.Payload)
}

func TestDispatchDropsMalformedPayloads(t *testing.T) {
	emit := &fakeEmitter{}
	relay := NewRelay(nil, emit)

	relay.Dispatch([]byte(`{not json`))
	relay.Dispatch([]byte(`{"room":"site1:all","message":"no event name"}`))

	assert.Empty(t, emit.all())
}

func TestRelayRunDeliversPublishedMessages(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	emit := &fakeEmitter{}
	relay := NewRelay(rdb, emit)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = relay.Run(ctx) }()

	payload := `{"room":"site1:task_progress:42","event":"task_progress","message":{"lines":{"1":"building"}}}`
	// The subscription is established asynchronously; republishing until
	// the emitter sees the message keeps the test deterministic.
	require.Eventually(t, func() bool {
		rdb.Publish(context.Background(), EventsChannel, payload)
		return len(emit.all()) > 0
	}, 5*time.Second, 20*time.Millisecond)

	e, _ := emit.last()
	assert.Equal(t, "site1:task_progress:42", e.Target)
	assert.Equal(t, "task_progress", e.Event)
}

func TestPublishOpenInEditor(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	sub := rdb.Subscribe(context.Background(), EditorChannel)
	defer sub.Close()
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)

	relay := NewRelay(rdb, &fakeEmitter{})
	relay.PublishOpenInEditor(context.Background(), map[string]any{"file": "app/hooks.py", "line": 12})

	select {
	case msg := <-sub.Channel():
		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, "app/hooks.py", got["file"])
		assert.Equal(t, float64(12), got["line"])
	case <-time.After(5 * time.Second):
		t.Fatal("no open_in_editor message received")
	}
}
