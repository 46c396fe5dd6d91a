package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderXHospitalID = "X-Hospital-ID"
	ContextHospitalID = "hospital_id"
)

// HospitalContext resolves the tenant from the X-Hospital-ID header.
// Every queue route is scoped to exactly one hospital; requests
// without a valid hospital ID never reach a handler.
func HospitalContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(HeaderXHospitalID)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
				Code:    http.StatusBadRequest,
				Message: "missing " + HeaderXHospitalID + " header",
				TraceID: c.GetString(ContextRequestID),
			})
			return
		}

		hospitalID, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
				Code:    http.StatusBadRequest,
				Message: "invalid " + HeaderXHospitalID + " header",
				TraceID: c.GetString(ContextRequestID),
			})
			return
		}

		c.Set(ContextHospitalID, hospitalID)
		c.Next()
	}
}

// HospitalID reads the tenant set by HospitalContext.
func HospitalID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(ContextHospitalID); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
