package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SVan22447/SSD-squad-Hak-remind/internal/services"
	"github.com/SVan22447/SSD-squad-Hak-remind/internal/store"
	"github.com/SVan22447/SSD-squad-Hak-remind/pkg/response"
)

type ReminderHandler struct {
	svc *services.ReminderService
}

type reminderQuery struct {
	Owner    *int64 `form:"owner" json:"owner" validate:"omitempty,gt=0"`
	Team     string `form:"team" json:"team" validate:"omitempty,max=64"`
	Personal bool   `form:"personal" json:"personal" validate:"excluded_with=Team"`
	Pending  bool   `form:"pending" json:"pending"`
}

func NewReminderHandler(svc *services.ReminderService) *ReminderHandler {
	return &ReminderHandler{svc: svc}
}

// GET /api/reminders
func (h *ReminderHandler) List(c *gin.Context) {
	var query reminderQuery
	if !bindQuery(c, &query) {
		return
	}

	filter := store.ReminderFilter{
		Owner:       query.Owner,
		Personal:    query.Personal,
		Undelivered: query.Pending,
	}
	if team := strings.TrimSpace(query.Team); team != "" {
		filter.TeamName = &team
	}

	reminders, err := h.svc.List(requestContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, reminders)
}
