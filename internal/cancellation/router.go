package cancellation

import (
	"kreede/pkg/validation"

	"github.com/gin-gonic/gin"
)

// RegisterValidators attaches the slot selector rule to gin's validator.
// Call once before serving.
func RegisterValidators() error {
	return validation.RegisterStructRule(slotSelectorRule, CancelSlotRequest{})
}

func SetupCancellationRoutes(rg *gin.RouterGroup, controller *Controller) {
	bookings := rg.Group("/bookings")
	{
		bookings.POST("/:id/slots/cancel", controller.CancelSlot) // POST /api/v1/admin/bookings/:id/slots/cancel
		bookings.POST("/:id/cancel", controller.CancelBooking)    // POST /api/v1/admin/bookings/:id/cancel
	}

	registrations := rg.Group("/registrations")
	{
		registrations.POST("/:id/cancel", controller.CancelRegistration) // POST /api/v1/admin/registrations/:id/cancel
	}
}
