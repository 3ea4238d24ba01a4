package controllers

import (
	"net/http"

	apperrors "catalog-service/common/errors"
	"catalog-service/common/logger"

	"github.com/gin-gonic/gin"
)

// envelopeStatus maps an HTTP status to the envelope's status field.
func envelopeStatus(code int) string {
	switch {
	case code >= http.StatusInternalServerError:
		return "error"
	case code >= http.StatusBadRequest:
		return "fail"
	default:
		return "success"
	}
}

func dataResponse(code int, message string, data interface{}) gin.H {
	return gin.H{
		"status":  envelopeStatus(code),
		"message": message,
		"data":    data,
	}
}

func listResponse(message string, data interface{}, results int) gin.H {
	resp := dataResponse(http.StatusOK, message, data)
	resp["results"] = results
	return resp
}

// respondError writes err as an envelope. Unclassified errors become 500.
func respondError(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	if appErr.Code >= http.StatusInternalServerError {
		logger.Error(c, "Request failed", err)
	}

	body := gin.H{
		"status":  envelopeStatus(appErr.Code),
		"message": appErr.Message,
	}
	if appErr.Reason != "" {
		body["reason"] = appErr.Reason
	}
	c.AbortWithStatusJSON(appErr.Code, body)
}
