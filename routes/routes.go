package routes

import (
	"net/http"
	"time"

	"medinet/config"
	"medinet/handlers"
	"medinet/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterRealtimeRoutes registers the consultation websocket.
func RegisterRealtimeRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/ws", hb.RealtimeHandler)
	r.GET("/api/realtime/stats", hb.RealtimeStatsHandler)
}

// RegisterConsultationRoutes registers the read-only consultation API.
func RegisterConsultationRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api")
	api.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin))
	{
		api.GET("/consultations/patient/:patientId", hb.GetPatientConsultationsHandler)
		api.GET("/consultations/:id", hb.GetConsultationHandler)
		api.GET("/consultations/:id/logs", hb.GetConsultationLogsHandler)
		api.GET("/sessions/:sessionId", hb.GetSessionHandler)
		api.GET("/doctors/:id/slots", hb.GetDoctorSlotsHandler)
		api.GET("/notifications/status", hb.NotificationStatusHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.HealthHandler)
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Medinet consultation service"})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	RegisterRealtimeRoutes(r, hb)
	RegisterConsultationRoutes(r, hb)
	RegisterHealthRoute(r, hb)
}
