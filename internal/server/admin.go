package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aldosari/medbooking_bot/internal/apperror"
)

type addCenterRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

func (s *Server) handleAddCenter(c *gin.Context) {
	var req addCenterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, apperror.Validation("invalid request body"))
		return
	}

	center, err := s.admin.AddCenter(c.Request.Context(), req.Name, req.Address, req.Phone)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.ok(c, http.StatusCreated, center)
}

func (s *Server) handleListCenters(c *gin.Context) {
	centers, err := s.admin.ListCenters(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	s.ok(c, http.StatusOK, centers)
}

type addClinicRequest struct {
	Name        string `json:"name" binding:"required"`
	CenterName  string `json:"centerName" binding:"required"`
	Description string `json:"description"`
}

func (s *Server) handleAddClinic(c *gin.Context) {
	var req addClinicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, apperror.Validation("invalid request body"))
		return
	}

	clinic, err := s.admin.AddClinic(c.Request.Context(), req.CenterName, req.Name, req.Description)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.ok(c, http.StatusCreated, clinic)
}

func (s *Server) handleListClinics(c *gin.Context) {
	clinics, err := s.admin.ListClinics(c.Request.Context(), c.Param("centerName"))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.ok(c, http.StatusOK, clinics)
}

type addSlotsRequest struct {
	CenterName string `json:"centerName" binding:"required"`
	ClinicName string `json:"clinicName" binding:"required"`
	Date       string `json:"date" binding:"required"`
	StartTime  string `json:"startTime" binding:"required"`
	EndTime    string `json:"endTime" binding:"required"`
	Duration   int    `json:"duration"`
}

func (s *Server) handleAddSlots(c *gin.Context) {
	var req addSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, apperror.Validation("invalid request body"))
		return
	}
	if req.Duration == 0 {
		req.Duration = 30
	}

	slots, err := s.admin.GenerateSlots(c.Request.Context(), req.CenterName, req.ClinicName, req.Date, req.StartTime, req.EndTime, req.Duration)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.ok(c, http.StatusCreated, slots)
}

func (s *Server) handleListSlots(c *gin.Context) {
	slots, err := s.admin.ListSlots(c.Request.Context(), c.Param("centerName"), c.Param("clinicName"), c.Param("date"))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.ok(c, http.StatusOK, slots)
}

func (s *Server) handleListAppointments(c *gin.Context) {
	appointments, err := s.admin.ListAppointments(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	s.ok(c, http.StatusOK, appointments)
}

func (s *Server) handleListAppointmentsByRange(c *gin.Context) {
	start := c.Query("startDate")
	end := c.Query("endDate")
	if start == "" || end == "" {
		s.fail(c, apperror.Validation("startDate and endDate are required"))
		return
	}

	appointments, err := s.admin.ListAppointmentsByRange(c.Request.Context(), start, end)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.ok(c, http.StatusOK, appointments)
}

func (s *Server) handleCancelAppointment(c *gin.Context) {
	apt, err := s.booking.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.ok(c, http.StatusOK, apt)
}
