package response

import (
	"kreede/internal/shared/apperror"

	"github.com/gin-gonic/gin"
)

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}

// RespondError renders err using its apperror classification.
func RespondError(c *gin.Context, err error) {
	appErr := apperror.From(err)
	// Recorded for the access log
	_ = c.Error(err)
	c.JSON(appErr.Status, ErrorResponse{
		OK:             false,
		Error:          appErr.Message,
		Code:           string(appErr.Code),
		UpstreamStatus: appErr.UpstreamStatus,
		Details:        appErr.Details,
	})
}
