package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/SVan22447/SSD-squad-Hak-remind/internal/services"
	"github.com/SVan22447/SSD-squad-Hak-remind/internal/store"
	"github.com/SVan22447/SSD-squad-Hak-remind/pkg/response"
)

type InviteHandler struct {
	svc *services.TeamService
}

type inviteQuery struct {
	Username string `form:"username" json:"username" validate:"omitempty,username"`
	TeamID   string `form:"team_id" json:"team_id" validate:"omitempty,uuid4"`
}

func NewInviteHandler(svc *services.TeamService) *InviteHandler {
	return &InviteHandler{svc: svc}
}

// GET /api/invites lists pending invites.
func (h *InviteHandler) List(c *gin.Context) {
	var query inviteQuery
	if !bindQuery(c, &query) {
		return
	}

	invites, err := h.svc.ListPendingInvites(requestContext(c), store.InviteFilter{
		Username: query.Username,
		TeamID:   query.TeamID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, invites)
}
