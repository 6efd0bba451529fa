package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SVan22447/SSD-squad-Hak-remind/internal/services"
	"github.com/SVan22447/SSD-squad-Hak-remind/internal/store"
	"github.com/SVan22447/SSD-squad-Hak-remind/pkg/response"
)

type TeamHandler struct {
	svc *services.TeamService
}

type teamQuery struct {
	Member *int64 `form:"member" json:"member" validate:"omitempty,gt=0"`
	Name   string `form:"name" json:"name" validate:"omitempty,max=64"`
}

func NewTeamHandler(svc *services.TeamService) *TeamHandler {
	return &TeamHandler{svc: svc}
}

// GET /api/teams
func (h *TeamHandler) List(c *gin.Context) {
	var query teamQuery
	if !bindQuery(c, &query) {
		return
	}

	teams, err := h.svc.List(requestContext(c), store.TeamFilter{
		Member: query.Member,
		Name:   strings.TrimSpace(query.Name),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, teams)
}

// GET /api/teams/:id
func (h *TeamHandler) Get(c *gin.Context) {
	team, err := h.svc.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, team)
}
