package queue

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-queue/internal/handler"
	"github.com/jwalitptl/clinic-queue/internal/middleware"
	"github.com/jwalitptl/clinic-queue/internal/service/visit"
	"github.com/jwalitptl/clinic-queue/internal/worker"
)

type Handler struct {
	service *visit.Service
	sweeper *worker.CarryoverWorker
}

func NewHandler(service *visit.Service, sweeper *worker.CarryoverWorker) *Handler {
	return &Handler{service: service, sweeper: sweeper}
}

// CallNext advances the doctor's queue to the next patient.
func (h *Handler) CallNext(c *gin.Context) {
	doctorID, err := uuid.Parse(c.Param("doctorID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
		return
	}

	v, err := h.service.CallNext(c.Request.Context(), middleware.HospitalID(c), doctorID)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(v))
}

// Get returns the live ordered queue for a doctor or a department.
func (h *Handler) Get(c *gin.Context) {
	hospitalID := middleware.HospitalID(c)

	if raw := c.Query("doctor_id"); raw != "" {
		doctorID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
			return
		}
		snapshot, err := h.service.GetDoctorQueue(c.Request.Context(), hospitalID, doctorID)
		if err != nil {
			handler.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, handler.NewSuccessResponse(snapshot))
		return
	}

	raw := c.Query("department_id")
	if raw == "" {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("doctor_id or department_id is required"))
		return
	}
	departmentID, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid department ID"))
		return
	}

	snapshot, err := h.service.GetDepartmentQueue(c.Request.Context(), hospitalID, departmentID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(snapshot))
}

// SweepCarryover manually triggers the carryover sweep for the
// caller's hospital.
func (h *Handler) SweepCarryover(c *gin.Context) {
	swept, err := h.sweeper.SweepHospital(c.Request.Context(), middleware.HospitalID(c))
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"swept": swept}))
}

// History lists a doctor's archived visits for one day.
func (h *Handler) History(c *gin.Context) {
	doctorID, err := uuid.Parse(c.Param("doctorID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
		return
	}

	day := time.Now()
	if raw := c.Query("date"); raw != "" {
		day, err = time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid date, expected YYYY-MM-DD"))
			return
		}
	}

	records, err := h.service.DoctorHistory(c.Request.Context(), doctorID, day)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(records))
}
