package handlers

import (
	"context"
	"net/http"
	"time"

	"medinet/services/notification"
	"medinet/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
)

// SystemHandler reports service health and channel configuration.
type SystemHandler struct {
	RedisClients []*redis.Client
	MongoClient  *mongo.Client
	Notifier     notification.NotificationService
	Gateway      *RealtimeGateway
}

// Health pings dependencies; it answers 503 when Mongo is unreachable.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := utils.CheckHealth(ctx, h.RedisClients, h.MongoClient)
	body := gin.H{"status": "ok", "dependencies": status}
	if h.Gateway != nil {
		body["realtime"] = h.Gateway.Stats()
	}

	code := http.StatusOK
	if h.MongoClient != nil && !status.Mongo {
		code = http.StatusServiceUnavailable
		body["status"] = "degraded"
	}
	c.JSON(code, body)
}

func (h *SystemHandler) NotificationStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"channels": h.Notifier.Status()})
}
