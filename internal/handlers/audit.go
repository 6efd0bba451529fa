package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SVan22447/SSD-squad-Hak-remind/internal/services"
	"github.com/SVan22447/SSD-squad-Hak-remind/pkg/errors"
	"github.com/SVan22447/SSD-squad-Hak-remind/pkg/response"
)

type AuditHandler struct {
	svc *services.AuditService
}

type auditQuery struct {
	Page     int        `form:"page" json:"page" validate:"omitempty,gt=0"`
	PerPage  int        `form:"per_page" json:"per_page" validate:"omitempty,gt=0,max=500"`
	Actor    *int64     `form:"actor" json:"actor" validate:"omitempty,gt=0"`
	Action   string     `form:"action" json:"action" validate:"omitempty,max=64"`
	Result   string     `form:"result" json:"result" validate:"omitempty,oneof=success failure"`
	Resource string     `form:"resource" json:"resource" validate:"omitempty,max=64"`
	Since    *time.Time `form:"since" json:"since" time_format:"2006-01-02T15:04:05Z07:00"`
	Until    *time.Time `form:"until" json:"until" time_format:"2006-01-02T15:04:05Z07:00"`
}

func NewAuditHandler(svc *services.AuditService) *AuditHandler {
	return &AuditHandler{svc: svc}
}

// GET /api/audit
func (h *AuditHandler) List(c *gin.Context) {
	var query auditQuery
	if !bindQuery(c, &query) {
		return
	}
	if query.Page == 0 {
		query.Page = 1
	}
	if query.PerPage == 0 {
		query.PerPage = 50
	}

	logs, total, err := h.svc.List(requestContext(c), services.AuditListOptions{
		Page:     query.Page,
		PageSize: query.PerPage,
		Filters: services.AuditFilters{
			ActorID:  query.Actor,
			Action:   query.Action,
			Result:   query.Result,
			Resource: query.Resource,
			Since:    query.Since,
			Until:    query.Until,
		},
	})
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}

	response.Page(c, logs, query.Page, query.PerPage, int(total))
}
