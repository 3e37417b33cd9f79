package cancellation

import (
	"errors"
	"io"
	"net/http"

	"kreede/internal/shared/apperror"
	"kreede/internal/shared/middleware"
	"kreede/internal/shared/utils/response"
	"kreede/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	reconciler Reconciler
}

func NewController(reconciler Reconciler) *Controller {
	return &Controller{reconciler: reconciler}
}

// CancelSlot handles POST /api/v1/admin/bookings/:id/slots/cancel
func (c *Controller) CancelSlot(ctx *gin.Context) {
	bookingID, ok := parseID(ctx, "invalid booking id")
	if !ok {
		return
	}

	var req CancelSlotRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	out, err := c.reconciler.CancelSlot(ctx.Request.Context(), bookingID, req.Selector(), Meta{
		Operator: middleware.Operator(ctx),
		Reason:   req.Reason,
	})
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, SlotCancelResponse{
		OK:           true,
		Action:       "slot_cancelled",
		Refunded:     out.Refunded,
		Currency:     out.Currency,
		RefundStatus: out.RefundStatus,
	})
}

// CancelBooking handles POST /api/v1/admin/bookings/:id/cancel
func (c *Controller) CancelBooking(ctx *gin.Context) {
	bookingID, ok := parseID(ctx, "invalid booking id")
	if !ok {
		return
	}

	req, ok := bindOptional(ctx)
	if !ok {
		return
	}

	out, err := c.reconciler.CancelBooking(ctx.Request.Context(), bookingID, Meta{
		Operator: middleware.Operator(ctx),
		Reason:   req.Reason,
	})
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, BookingCancelResponse{
		OK:           true,
		DeletedID:    out.BookingID,
		Refunded:     out.Refunded,
		Currency:     out.Currency,
		RefundStatus: out.RefundStatus,
	})
}

// CancelRegistration handles POST /api/v1/admin/registrations/:id/cancel
func (c *Controller) CancelRegistration(ctx *gin.Context) {
	registrationID, ok := parseID(ctx, "invalid registration id")
	if !ok {
		return
	}

	req, ok := bindOptional(ctx)
	if !ok {
		return
	}

	out, err := c.reconciler.CancelRegistration(ctx.Request.Context(), registrationID, Meta{
		Operator: middleware.Operator(ctx),
		Reason:   req.Reason,
	})
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, RegistrationCancelResponse{
		OK:           true,
		CancelledID:  out.BookingID,
		Refunded:     out.Refunded,
		Currency:     out.Currency,
		RefundStatus: out.RefundStatus,
	})
}

func parseID(ctx *gin.Context, message string) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondError(ctx, apperror.Validation(message))
		return uuid.Nil, false
	}
	return id, true
}

// bindOptional reads a CancelRequest when a body is present. Whole cancels
// take no body, so an empty one is fine.
func bindOptional(ctx *gin.Context) (CancelRequest, bool) {
	var req CancelRequest
	if ctx.Request.Body == nil || ctx.Request.ContentLength == 0 {
		return req, true
	}
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondBindError(ctx, err)
		return req, false
	}
	return req, true
}

func respondBindError(ctx *gin.Context, err error) {
	messages := validation.Messages(err)
	appErr := apperror.Validation(validation.Format(messages))
	appErr.Details = messages
	response.RespondError(ctx, appErr)
}
