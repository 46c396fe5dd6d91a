package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/clinic-queue/internal/model"
	"github.com/jwalitptl/clinic-queue/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// Error writes the error with the HTTP status its class maps to.
// Concurrency errors are retryable and carry a Retry-After hint.
func Error(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch errors.Code(err) {
	case errors.ErrNotFound:
		status = http.StatusNotFound
	case errors.ErrBadRequest:
		status = http.StatusBadRequest
	case errors.ErrConflict:
		status = http.StatusConflict
	case errors.ErrTiming:
		status = http.StatusUnprocessableEntity
	case errors.ErrConcurrency:
		status = http.StatusConflict
		c.Header("Retry-After", "1")
	case errors.ErrCapacity:
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, NewErrorResponse(err.Error()))
}

// RegisterValidators installs the custom binding validations. Must run
// once before the router starts serving.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterValidation("visit_priority", func(fl validator.FieldLevel) bool {
		switch model.VisitPriority(fl.Field().String()) {
		case model.VisitPriorityNormal, model.VisitPriorityVIP, model.VisitPriorityUrgent:
			return true
		}
		return false
	})
}
