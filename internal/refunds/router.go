package refunds

import (
	"github.com/gin-gonic/gin"
)

func SetupRefundRoutes(rg *gin.RouterGroup, controller *Controller) {
	refunds := rg.Group("/refunds")
	{
		refunds.GET("", controller.ListRefunds)          // GET /api/v1/admin/refunds
		refunds.GET("/:id", controller.GetRefund)        // GET /api/v1/admin/refunds/:id
		refunds.POST("/:id/sync", controller.SyncRefund) // POST /api/v1/admin/refunds/:id/sync
	}
}
