package bookings

import (
	"kreede/internal/shared/apperror"

	"github.com/gin-gonic/gin"
)

var errInvalidID = apperror.Validation("invalid booking id")

// SetupBookingRoutes registers booking reads and payment flags. Cancellation
// routes live with the reconciler.
func SetupBookingRoutes(rg *gin.RouterGroup, controller *Controller) {
	bookings := rg.Group("/bookings")
	{
		bookings.GET("/:id", controller.GetBooking)          // GET /api/v1/admin/bookings/:id
		bookings.POST("/:id/mark-paid", controller.MarkPaid) // POST /api/v1/admin/bookings/:id/mark-paid
	}
}
