package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/SVan22447/SSD-squad-Hak-remind/internal/dialogue"
	"github.com/SVan22447/SSD-squad-Hak-remind/internal/realtime"
	"github.com/SVan22447/SSD-squad-Hak-remind/pkg/response"
	appValidator "github.com/SVan22447/SSD-squad-Hak-remind/pkg/validator"
)

type echoHandler struct{}

func (echoHandler) Handle(_ context.Context, ev dialogue.Event) dialogue.Reply {
	return dialogue.Reply{Text: ev.Username + ":" + ev.Token}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var payload response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	return payload
}

func TestChatStreamValidatesQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/chat", NewChatHandler(realtime.NewHub(echoHandler{})).Stream)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws/chat", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, decode(t, w).Error.Message, "user id is required")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws/chat?user_id=5&username=a", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, decode(t, w).Error.Message, "username must be a chat username")
}

func TestChatStreamWithoutHub(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/chat", NewChatHandler(nil).Stream)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws/chat?user_id=5", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestChatStreamNormalisesUsername(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/chat", NewChatHandler(realtime.NewHub(echoHandler{})).Stream)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/chat?user_id=5&username=@Alice"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, conn.WriteJSON(realtime.ClientFrame{Kind: "menu", Token: dialogue.TokenMainMenu}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var frame realtime.ServerFrame
	require.NoError(t, conn.ReadJSON(&frame))
	require.Equal(t, realtime.EventPrompt, frame.Event)
	require.Equal(t, "alice:"+dialogue.TokenMainMenu, frame.Prompt.Text)
}

func TestFormatValidationError(t *testing.T) {
	require.Equal(t, "invalid request", formatValidationError(nil))
	require.Equal(t, "invalid request", formatValidationError(appValidator.ValidationErrors{}))

	msg := formatValidationError(appValidator.ValidationErrors{
		{Field: "per_page", Tag: "max", Param: "500"},
		{Field: "team_id", Tag: "uuid4"},
		{Field: "result", Tag: "oneof", Param: "success failure"},
	})
	require.Equal(t, "per page must be at most 500 characters; team id must be a valid UUID; result failed validation: oneof=success failure", msg)
}
