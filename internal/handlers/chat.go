package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/SVan22447/SSD-squad-Hak-remind/internal/realtime"
	"github.com/SVan22447/SSD-squad-Hak-remind/internal/services"
	"github.com/SVan22447/SSD-squad-Hak-remind/pkg/errors"
	"github.com/SVan22447/SSD-squad-Hak-remind/pkg/response"
)

// ChatHandler upgrades HTTP connections into chat sessions on the gateway.
type ChatHandler struct {
	hub *realtime.Hub
}

type chatQuery struct {
	UserID   int64  `form:"user_id" json:"user_id" validate:"required,gt=0"`
	Username string `form:"username" json:"username" validate:"omitempty,username"`
}

func NewChatHandler(hub *realtime.Hub) *ChatHandler {
	return &ChatHandler{hub: hub}
}

// GET /ws/chat?user_id=&username=
func (h *ChatHandler) Stream(c *gin.Context) {
	if h.hub == nil {
		response.Error(c, errors.ErrNotFound)
		return
	}

	var query chatQuery
	if !bindQuery(c, &query) {
		return
	}

	h.hub.Serve(query.UserID, services.NormaliseUsername(query.Username), c.Writer, c.Request)
}
