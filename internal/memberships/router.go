package memberships

import (
	"github.com/gin-gonic/gin"
)

// SetupMembershipRoutes expects rg to already carry admin authentication.
func SetupMembershipRoutes(rg *gin.RouterGroup, controller *Controller) {
	memberships := rg.Group("/memberships")
	{
		memberships.GET("/:userId/credits", controller.GetCredits)      // GET /api/v1/admin/memberships/:userId/credits
		memberships.POST("/:userId/consume", controller.ConsumeCredits) // POST /api/v1/admin/memberships/:userId/consume
		memberships.POST("/:userId/restore", controller.RestoreCredit)  // POST /api/v1/admin/memberships/:userId/restore
	}
}
