package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Realtime
	RealtimeHandler      gin.HandlerFunc
	RealtimeStatsHandler gin.HandlerFunc

	// Consultation endpoints
	GetConsultationHandler         gin.HandlerFunc
	GetConsultationLogsHandler     gin.HandlerFunc
	GetPatientConsultationsHandler gin.HandlerFunc
	GetSessionHandler              gin.HandlerFunc
	GetDoctorSlotsHandler          gin.HandlerFunc

	// System endpoints
	HealthHandler             gin.HandlerFunc
	NotificationStatusHandler gin.HandlerFunc
}

// NewHandlerBundle wires handler methods into a bundle for the router.
func NewHandlerBundle(gw *RealtimeGateway, consultations *ConsultationHandler, system *SystemHandler) *HandlerBundle {
	return &HandlerBundle{
		RealtimeHandler:      gw.Handle,
		RealtimeStatsHandler: gw.StatsHandler,

		GetConsultationHandler:         consultations.GetConsultation,
		GetConsultationLogsHandler:     consultations.GetConsultationLogs,
		GetPatientConsultationsHandler: consultations.GetPatientConsultations,
		GetSessionHandler:              consultations.GetSession,
		GetDoctorSlotsHandler:          consultations.GetDoctorSlots,

		HealthHandler:             system.Health,
		NotificationStatusHandler: system.NotificationStatus,
	}
}
