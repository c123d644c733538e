package handlers

import (
	"errors"
	"net/http"
	"time"

	ledgerRepo "medinet/database/repository/ledger"
	"medinet/models"
	"medinet/services/booking"
	"medinet/services/orchestrator"
	"medinet/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ConsultationHandler serves the read-only consultation API.
type ConsultationHandler struct {
	Ledger       ledgerRepo.Ledger
	Orchestrator orchestrator.Service
	Scheduler    booking.SchedulingEngine
}

// GetConsultation returns the durable record of one consultation.
func (h *ConsultationHandler) GetConsultation(c *gin.Context) {
	consultation, err := h.Ledger.GetConsultation(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ledgerRepo.ErrNotFound) {
		utils.JSONError(c, http.StatusNotFound, "Consultation not found", c.Param("id"))
		return
	}
	if err != nil {
		getLogger(c).Error("Failed to fetch consultation", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to fetch consultation", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"consultation": consultation})
}

// GetConsultationLogs returns the ledger entries in write order.
func (h *ConsultationHandler) GetConsultationLogs(c *gin.Context) {
	logs, err := h.Ledger.ListTurns(c.Request.Context(), c.Param("id"))
	if err != nil {
		getLogger(c).Error("Failed to fetch logs", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to fetch logs", err.Error())
		return
	}
	if logs == nil {
		logs = []models.ConversationLog{}
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

func (h *ConsultationHandler) GetPatientConsultations(c *gin.Context) {
	history, err := h.Orchestrator.PatientHistory(c.Request.Context(), c.Param("patientId"))
	if err != nil {
		getLogger(c).Error("Failed to fetch patient consultations", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to fetch patient consultations", err.Error())
		return
	}
	if history == nil {
		history = []models.ConsultationSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"consultations": history})
}

// GetSession shows a live in-memory session.
func (h *ConsultationHandler) GetSession(c *gin.Context) {
	view, ok := h.Orchestrator.Session(c.Param("sessionId"))
	if !ok {
		utils.JSONError(c, http.StatusNotFound, "Session not found", c.Param("sessionId"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": view})
}

// GetDoctorSlots lists free half-hour slots for ?date=YYYY-MM-DD (default today).
func (h *ConsultationHandler) GetDoctorSlots(c *gin.Context) {
	date := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Invalid date", "expected YYYY-MM-DD")
			return
		}
		date = parsed
	}

	slots, err := h.Scheduler.AvailableSlots(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		getLogger(c).Error("Failed to fetch slots", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to fetch slots", err.Error())
		return
	}
	if slots == nil {
		slots = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"doctorId": c.Param("id"), "date": date.Format("2006-01-02"), "slots": slots})
}
