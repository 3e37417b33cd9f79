package memberships

import (
	"net/http"

	"kreede/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// GetCredits handles GET /api/v1/admin/memberships/:userId/credits
func (c *Controller) GetCredits(ctx *gin.Context) {
	userID, err := uuid.Parse(ctx.Param("userId"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid user ID", nil, nil)
		return
	}

	summary, err := c.service.GetCredits(ctx.Request.Context(), userID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Membership credits retrieved", summary, nil)
}

// ConsumeCredits handles POST /api/v1/admin/memberships/:userId/consume
func (c *Controller) ConsumeCredits(ctx *gin.Context) {
	userID, err := uuid.Parse(ctx.Param("userId"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid user ID", nil, nil)
		return
	}

	var req ConsumeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	consumed, err := c.service.ConsumeCredits(ctx.Request.Context(), userID, req.Count)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Consume processed", gin.H{"consumed": consumed}, nil)
}

// RestoreCredit handles POST /api/v1/admin/memberships/:userId/restore
func (c *Controller) RestoreCredit(ctx *gin.Context) {
	userID, err := uuid.Parse(ctx.Param("userId"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid user ID", nil, nil)
		return
	}

	restored, err := c.service.RestoreOneCredit(ctx.Request.Context(), userID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Restore processed", gin.H{"restored": restored}, nil)
}
