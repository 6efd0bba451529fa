package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/SVan22447/SSD-squad-Hak-remind/internal/dialogue"
)

type recordingHandler struct {
	mu     sync.Mutex
	events []dialogue.Event
}

func (r *recordingHandler) Handle(_ context.Context, ev dialogue.Event) dialogue.Reply {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return dialogue.Reply{Text: "echo " + string(ev.Kind) + " " + ev.Token + ev.Text}
}

func (r *recordingHandler) recorded() []dialogue.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]dialogue.Event(nil), r.events...)
}

func startHub(t *testing.T, opts ...Option) (*Hub, *recordingHandler, string) {
	t.Helper()

	handler := &recordingHandler{}
	hub := NewHub(handler, opts...)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
		if err != nil {
			http.Error(w, "bad user", http.StatusBadRequest)
			return
		}
		hub.Serve(userID, r.URL.Query().Get("username"), w, r)
	}))
	t.Cleanup(server.Close)

	return hub, handler, "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) ServerFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame ServerFrame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestHubRoutesFramesToHandler(t *testing.T) {
	_, handler, url := startHub(t)
	conn := dial(t, url+"?user_id=42&username=bob")

	require.NoError(t, conn.WriteJSON(map[string]string{"kind": "menu", "token": "menu:teams"}))
	frame := readFrame(t, conn)
	require.Equal(t, EventPrompt, frame.Event)
	require.NotNil(t, frame.Prompt)
	require.Equal(t, "echo menu menu:teams", frame.Prompt.Text)

	require.NoError(t, conn.WriteJSON(map[string]string{"kind": "command", "command": "/start"}))
	frame = readFrame(t, conn)
	require.Equal(t, "echo command start", frame.Prompt.Text)

	events := handler.recorded()
	require.Len(t, events, 2)
	require.Equal(t, int64(42), events[0].UserID)
	require.Equal(t, "bob", events[0].Username)
}

func TestHubRejectsInvalidFrames(t *testing.T) {
	_, handler, url := startHub(t)
	conn := dial(t, url+"?user_id=7")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	frame := readFrame(t, conn)
	require.Equal(t, EventError, frame.Event)
	require.Equal(t, "malformed frame", frame.Error)

	require.NoError(t, conn.WriteJSON(map[string]string{"kind": "text"}))
	frame = readFrame(t, conn)
	require.Equal(t, EventError, frame.Event)
	require.Contains(t, frame.Error, "text failed on required_if")

	require.NoError(t, conn.WriteJSON(map[string]string{"kind": "shout", "text": "hi"}))
	frame = readFrame(t, conn)
	require.Contains(t, frame.Error, "kind failed on oneof")

	require.Empty(t, handler.recorded())
}

func TestHubRateLimitsPerUser(t *testing.T) {
	_, handler, url := startHub(t, WithRateLimit(0.001, 1))
	conn := dial(t, url+"?user_id=9")

	require.NoError(t, conn.WriteJSON(map[string]string{"kind": "text", "text": "one"}))
	require.Equal(t, EventPrompt, readFrame(t, conn).Event)

	require.NoError(t, conn.WriteJSON(map[string]string{"kind": "text", "text": "two"}))
	frame := readFrame(t, conn)
	require.Equal(t, EventError, frame.Event)
	require.Contains(t, frame.Error, "slow down")
	require.Len(t, handler.recorded(), 1)
}

func TestHubPushesRemindersToEveryConnection(t *testing.T) {
	hub, _, url := startHub(t)
	first := dial(t, url+"?user_id=5")
	second := dial(t, url+"?user_id=5")
	dial(t, url+"?user_id=6")

	require.Eventually(t, func() bool { return hub.Connections() == 3 }, 2*time.Second, 10*time.Millisecond)

	require.Equal(t, 2, hub.PushReminder(5, "⏰ Reminder:\n\nStandup"))
	for _, conn := range []*websocket.Conn{first, second} {
		frame := readFrame(t, conn)
		require.Equal(t, EventReminder, frame.Event)
		require.Equal(t, "⏰ Reminder:\n\nStandup", frame.Text)
	}

	require.Zero(t, hub.PushReminder(99, "nobody"))
}

func TestHubUnregistersClosedConnections(t *testing.T) {
	hub, _, url := startHub(t)
	conn := dial(t, url+"?user_id=11")
	require.Eventually(t, func() bool { return hub.Connections() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Connections() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	hub, _, url := startHub(t)
	conn := dial(t, url+"?user_id=12")
	require.Eventually(t, func() bool { return hub.Connections() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Close(context.Background()))
	require.Zero(t, hub.Connections())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)

	late := dial(t, url+"?user_id=13")
	require.NoError(t, late.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = late.ReadMessage()
	require.Error(t, err)
	require.Zero(t, hub.Connections())
}

type blockingHandler struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingHandler) Handle(context.Context, dialogue.Event) dialogue.Reply {
	close(b.started)
	<-b.release
	return dialogue.Reply{Text: "late"}
}

func TestHubCloseWaitsForRunningTurn(t *testing.T) {
	handler := &blockingHandler{started: make(chan struct{}), release: make(chan struct{})}
	hub := NewHub(handler)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(21, "dora", w, r)
	}))
	t.Cleanup(server.Close)

	conn := dial(t, "ws"+strings.TrimPrefix(server.URL, "http"))
	require.NoError(t, conn.WriteJSON(map[string]string{"kind": "text", "text": "hi"}))
	<-handler.started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, hub.Close(ctx), context.DeadlineExceeded)

	done := make(chan error, 1)
	go func() { done <- hub.Close(context.Background()) }()
	close(handler.release)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not close after the turn finished")
	}
}

func TestClientFrameEvent(t *testing.T) {
	ev := ClientFrame{Kind: "text", Text: "Alpha"}.Event(1, "al")
	require.Equal(t, dialogue.Text(1, "al", "Alpha"), ev)

	ev = ClientFrame{Kind: "menu", Token: "back"}.Event(1, "al")
	require.Equal(t, dialogue.Menu(1, "al", "back"), ev)
}
