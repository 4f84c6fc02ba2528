package handler

import (
	"github.com/gin-gonic/gin"

	apperrors "notepomo/internal/errors"
	"notepomo/internal/middleware"
)

func writeError(c *gin.Context, apiErr *apperrors.APIError) {
	if apiErr == nil {
		apiErr = apperrors.Internal("")
	}

	errorBody := gin.H{
		"code":    apiErr.Code,
		"message": apiErr.Message,
	}
	if apiErr.Details != nil {
		errorBody["details"] = apiErr.Details
	}

	c.JSON(apiErr.Status, gin.H{
		"ok":    false,
		"error": errorBody,
	})
}

// writeOK merges body into {"ok": true}.
func writeOK(c *gin.Context, status int, body gin.H) {
	payload := gin.H{"ok": true}
	for k, v := range body {
		payload[k] = v
	}
	c.JSON(status, payload)
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeError(c, apperrors.BadRequest("invalid_json", "invalid request body"))
		return false
	}
	return true
}

func requireUser(c *gin.Context) (string, bool) {
	userID := middleware.UserID(c)
	if userID == "" {
		writeError(c, apperrors.Unauthorized(""))
		return "", false
	}
	return userID, true
}
