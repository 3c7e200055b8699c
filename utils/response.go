package utils

import (
	"errors"
	"net/http"

	"lab-loan-backend/apperr"

	"github.com/gin-gonic/gin"
)

func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"data": data})
}

// Fail maps the error taxonomy onto the response. Validation errors keep
// their field message; everything else gets a flat error string so denials
// never leak resource detail.
func Fail(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	var ae *apperr.Error
	if errors.As(err, &ae) {
		resp := gin.H{"error": ae.Message}
		if ae.Field != "" {
			resp["field"] = ae.Field
		}
		c.JSON(status, resp)
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
