package realtime

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslink/backend/internal/logger"
	"github.com/campuslink/backend/internal/models"
)

func TestMain(m *testing.M) {
	_ = logger.Initialize("error", os.DevNull)
	os.Exit(m.Run())
}

// fakeSession records the events routed to it and answers with canned
// accept/reject decisions.
type fakeSession struct {
	acceptInserts bool
	acceptDeletes bool
	inserted      []string
	deleted       []string
	closed        bool
}

func (s *fakeSession) HandleInsert(post models.Post) bool {
	s.inserted = append(s.inserted, post.ID)
	return s.acceptInserts
}

func (s *fakeSession) HandleDelete(postID string) bool {
	s.deleted = append(s.deleted, postID)
	return s.acceptDeletes
}

func (s *fakeSession) Close() { s.closed = true }

func newTestClient(hub *Hub, userID string, session *fakeSession) *Client {
	c := NewClient(hub, nil, userID)
	c.Session = session
	return c
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(5, 10)

	for i := 0; i < 10; i++ {
		assert.True(t, rl.Allow(), "request %d should be allowed", i+1)
	}
	assert.False(t, rl.Allow(), "request past the burst should be denied")

	time.Sleep(300 * time.Millisecond)
	assert.True(t, rl.Allow(), "tokens refill over time")
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage(MessageTypeNewPost, map[string]string{"post_id": "p1"})

	assert.Equal(t, MessageTypeNewPost, msg.Type)
	assert.NotNil(t, msg.Payload)
	assert.False(t, msg.Timestamp.IsZero())
}

func TestNewErrorMessage(t *testing.T) {
	msg := NewErrorMessage("feed_error", "something went wrong")

	assert.Equal(t, MessageTypeError, msg.Type)
	payload, ok := msg.Payload.(ErrorPayload)
	require.True(t, ok)
	assert.Equal(t, "feed_error", payload.Code)
	assert.Equal(t, "something went wrong", payload.Message)
}

func TestMessageParsePayload(t *testing.T) {
	msg := NewMessage(MessageTypePing, map[string]interface{}{
		"client_time": float64(1234567890),
	})

	var ping PingPayload
	require.NoError(t, msg.ParsePayload(&ping))
	assert.Equal(t, int64(1234567890), ping.ClientTime)
}

func TestFlexibleTimeAcceptsBothFormats(t *testing.T) {
	var ft FlexibleTime
	require.NoError(t, json.Unmarshal([]byte("1700000000000"), &ft))
	assert.Equal(t, int64(1700000000000), ft.UnixMilli())

	require.NoError(t, json.Unmarshal([]byte(`"2026-02-14T10:00:00Z"`), &ft))
	assert.Equal(t, 2026, ft.Year())

	require.Error(t, json.Unmarshal([]byte(`"not a time"`), &ft))
}

func TestHubRegisterHandler(t *testing.T) {
	hub := NewHub()

	hub.RegisterHandler("test_type", func(client *Client, msg *Message) error {
		return nil
	})

	handler, ok := hub.GetHandler("test_type")
	assert.True(t, ok)
	assert.NotNil(t, handler)

	_, ok = hub.GetHandler("nonexistent")
	assert.False(t, ok)
}

func TestHubMetrics(t *testing.T) {
	hub := NewHub()

	metrics := hub.GetMetrics()
	assert.Equal(t, int64(0), metrics.TotalConnections)
	assert.Equal(t, int64(0), metrics.ActiveConnections)
}

func TestRegisterTracksUserPresence(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "user-1", &fakeSession{})

	hub.registerClient(client)
	assert.True(t, hub.IsUserOnline("user-1"))
	assert.Equal(t, int64(1), hub.GetMetrics().ActiveConnections)

	hub.unregisterClient(client)
	assert.False(t, hub.IsUserOnline("user-1"))
	assert.Equal(t, int64(0), hub.GetMetrics().ActiveConnections)
}

func TestUnregisterClosesSession(t *testing.T) {
	hub := NewHub()
	session := &fakeSession{}
	client := newTestClient(hub, "user-1", session)

	hub.registerClient(client)
	hub.unregisterClient(client)
	assert.True(t, session.closed)

	// A second unregister of the same client is a no-op, not a double close.
	hub.unregisterClient(client)
}

func TestFanOutOnlyNotifiesAcceptingSessions(t *testing.T) {
	hub := NewHub()

	follower := &fakeSession{acceptInserts: true}
	stranger := &fakeSession{acceptInserts: false}
	followerClient := newTestClient(hub, "follower", follower)
	strangerClient := newTestClient(hub, "stranger", stranger)
	hub.registerClient(followerClient)
	hub.registerClient(strangerClient)

	hub.fanOutPostEvent(&postEvent{post: &models.Post{ID: "p1", UserID: "someone"}})

	// Both sessions were consulted, only the accepting one got a frame.
	assert.Equal(t, []string{"p1"}, follower.inserted)
	assert.Equal(t, []string{"p1"}, stranger.inserted)

	select {
	case data := <-followerClient.send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, MessageTypeNewPost, msg.Type)
	default:
		t.Fatal("expected a new_post frame for the accepting session")
	}

	select {
	case <-strangerClient.send:
		t.Fatal("rejecting session must not receive a frame")
	default:
	}
}

func TestFanOutDeleteEvents(t *testing.T) {
	hub := NewHub()
	session := &fakeSession{acceptDeletes: true}
	client := newTestClient(hub, "viewer", session)
	hub.registerClient(client)

	hub.fanOutPostEvent(&postEvent{deleted: "p9"})

	assert.Equal(t, []string{"p9"}, session.deleted)
	select {
	case data := <-client.send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, MessageTypePostDeleted, msg.Type)
	default:
		t.Fatal("expected a post_deleted frame")
	}
}

func TestSendToUserTargetsAllConnections(t *testing.T) {
	hub := NewHub()
	first := newTestClient(hub, "user-1", &fakeSession{})
	second := newTestClient(hub, "user-1", &fakeSession{})
	other := newTestClient(hub, "user-2", &fakeSession{})
	hub.registerClient(first)
	hub.registerClient(second)
	hub.registerClient(other)

	hub.SendToUser("user-1", NewMessage(MessageTypeSystem, map[string]string{"event": "hello"}))

	assert.Len(t, first.send, 1)
	assert.Len(t, second.send, 1)
	assert.Len(t, other.send, 0)
}

func TestMessageTypesUnique(t *testing.T) {
	types := []string{
		MessageTypeSystem, MessageTypePing, MessageTypePong, MessageTypeError,
		MessageTypeNewPost, MessageTypePostDeleted, MessageTypeFeedPage, MessageTypePostUpdate,
		MessageTypeFeedLoad, MessageTypeFeedMore, MessageTypeFeedTab, MessageTypeFeedFilters,
		MessageTypeToggleLike, MessageTypeToggleRepost, MessageTypeToggleBookmark, MessageTypeToggleReaction,
	}

	seen := make(map[string]bool)
	for _, typ := range types {
		assert.NotEmpty(t, typ)
		assert.False(t, seen[typ], "duplicate message type: %s", typ)
		seen[typ] = true
	}
}
