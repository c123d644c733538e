package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"medinet/models"
	"medinet/services/orchestrator"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	maxInboundBytes = 16 << 10
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = (pongWait * 9) / 10
	jobQueueSize    = 8
)

// RealtimeGateway maps websocket connections onto orchestrator sessions.
type RealtimeGateway struct {
	Orchestrator orchestrator.Service
	Logger       *zap.Logger
	Upgrader     websocket.Upgrader
	// Per-connection inbound limit, keepalive pings excluded.
	MessageRate  rate.Limit
	MessageBurst int

	connections atomic.Int64
	sessions    atomic.Int64
}

// GatewayStats is a point-in-time view of the gateway.
type GatewayStats struct {
	Connections int64 `json:"connections"`
	Sessions    int64 `json:"activeSessions"`
}

func NewRealtimeGateway(orch orchestrator.Service, logger *zap.Logger) *RealtimeGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RealtimeGateway{
		Orchestrator: orch,
		Logger:       logger,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		MessageRate:  rate.Every(time.Second / 2),
		MessageBurst: 5,
	}
}

func (g *RealtimeGateway) Stats() GatewayStats {
	return GatewayStats{Connections: g.connections.Load(), Sessions: g.sessions.Load()}
}

// StatsHandler reports connection counts.
func (g *RealtimeGateway) StatsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, g.Stats())
}

// wsClient is one connection. The read loop owns conn reads; the worker runs
// orchestrator calls one at a time; writes go through send.
type wsClient struct {
	gw      *RealtimeGateway
	conn    *websocket.Conn
	log     *zap.Logger
	limiter *rate.Limiter
	jobs    chan models.InboundEvent
	ctx     context.Context

	writeMu   sync.Mutex
	sessionMu sync.Mutex
	sessionID string

	// gone is set once the read loop exits; queued events are dropped after that.
	gone atomic.Bool
}

// Handle upgrades the request and serves the connection until it closes.
func (g *RealtimeGateway) Handle(c *gin.Context) {
	conn, err := g.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		g.Logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &wsClient{
		gw:      g,
		conn:    conn,
		log:     g.Logger.With(zap.String("remote", c.ClientIP())),
		limiter: rate.NewLimiter(g.MessageRate, g.MessageBurst),
		jobs:    make(chan models.InboundEvent, jobQueueSize),
		// Pipeline steps run to completion even if the client disconnects.
		ctx: context.WithoutCancel(c.Request.Context()),
	}

	g.connections.Add(1)
	defer g.connections.Add(-1)
	cl.log.Info("Websocket connection established")

	cl.serve()
}

func (cl *wsClient) serve() {
	defer cl.conn.Close()

	cl.conn.SetReadLimit(maxInboundBytes)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		for ev := range cl.jobs {
			if cl.gone.Load() {
				cl.log.Debug("Dropping queued event after disconnect", zap.String("type", ev.Type))
				continue
			}
			cl.dispatch(ev)
		}
	}()

	stopPing := make(chan struct{})
	go cl.keepalive(stopPing)

	cl.send(models.EventConnected, models.ConnectedPayload{Message: "Connected to Medical AI System"})
	cl.readLoop()
	cl.gone.Store(true)

	close(stopPing)
	close(cl.jobs)
	<-workerDone

	if id := cl.session(); id != "" {
		if err := cl.gw.Orchestrator.EndSession(cl.ctx, id); err != nil {
			cl.log.Warn("Failed to end session on disconnect", zap.String("sessionID", id), zap.Error(err))
		}
		cl.setSession("")
	}
	cl.log.Info("Websocket connection closed")
}

func (cl *wsClient) readLoop() {
	for {
		_, data, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				cl.log.Warn("Websocket read failed", zap.Error(err))
			}
			return
		}

		var ev models.InboundEvent
		if err := json.Unmarshal(data, &ev); err != nil || ev.Type == "" {
			cl.sendError("Invalid message format")
			continue
		}

		if ev.Type == models.EventPing {
			cl.send(models.EventPong, nil)
			continue
		}
		if !cl.limiter.Allow() {
			cl.sendError("Too many messages. Please slow down.")
			continue
		}

		select {
		case cl.jobs <- ev:
		default:
			cl.sendError("Still working on your previous message. Please wait.")
		}
	}
}

func (cl *wsClient) keepalive(stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			cl.writeMu.Lock()
			err := cl.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			cl.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (cl *wsClient) dispatch(ev models.InboundEvent) {
	defer func() {
		if r := recover(); r != nil {
			cl.log.Error("Realtime handler panicked", zap.String("type", ev.Type), zap.Any("panic", r))
			cl.sendError("Internal error")
		}
	}()

	switch ev.Type {
	case models.EventStart:
		cl.handleStart(ev.Payload)
	case models.EventMessage:
		cl.handleMessage(ev.Payload)
	case models.EventLocation:
		cl.handleLocation(ev.Payload)
	case models.EventEnd:
		cl.handleEnd()
	case models.EventHistory:
		cl.handleHistory(ev.Payload)
	default:
		cl.sendError("Unknown message type")
	}
}

func (cl *wsClient) handleStart(raw json.RawMessage) {
	var p models.StartPayload
	if err := decodePayload(raw, &p); err != nil || p.PatientID == "" {
		cl.sendError("Patient ID is required")
		return
	}

	// A second start replaces the previous consultation.
	if prev := cl.session(); prev != "" {
		_ = cl.gw.Orchestrator.EndSession(cl.ctx, prev)
		cl.setSession("")
	}

	res, err := cl.gw.Orchestrator.StartSession(cl.ctx, p.PatientID, p.PatientName)
	if err != nil {
		cl.log.Error("Failed to start session", zap.String("patientID", p.PatientID), zap.Error(err))
		cl.sendError("Failed to start session")
		return
	}
	cl.setSession(res.SessionID)

	cl.send(models.EventSessionStarted, models.SessionStartedPayload{
		SessionID:      res.SessionID,
		ConsultationID: res.ConsultationID,
		Message:        res.Greeting,
		Timestamp:      time.Now(),
	})
}

func (cl *wsClient) handleMessage(raw json.RawMessage) {
	id := cl.session()
	if id == "" {
		cl.sendError("No active session. Please start a session first.")
		return
	}
	var p models.MessagePayload
	if err := decodePayload(raw, &p); err != nil || p.Message == "" {
		cl.sendError("Message content is required")
		return
	}

	res, err := cl.gw.Orchestrator.ProcessMessage(cl.ctx, id, p.Message)
	switch {
	case errors.Is(err, orchestrator.ErrSessionNotFound):
		cl.setSession("")
		cl.sendError("Your session has expired. Please start a new session.")
		return
	case errors.Is(err, orchestrator.ErrSessionClosed):
		cl.sendError("This consultation has ended. Please start a new session.")
		return
	case errors.Is(err, orchestrator.ErrEmptyMessage):
		cl.sendError("Message content is required")
		return
	case err != nil:
		cl.log.Error("Failed to process message", zap.String("sessionID", id), zap.Error(err))
		cl.sendError("Failed to process message")
		return
	}

	now := time.Now()
	cl.send(models.EventMessage, models.AssistantMessagePayload{
		SessionID: res.SessionID,
		Message:   res.ResponseText,
		State:     res.State,
		Timestamp: now,
	})
	if res.Diagnosis != nil {
		cl.send(models.EventDiagnosis, models.DiagnosisPayload{Diagnosis: *res.Diagnosis, Timestamp: now})
	}
	if res.Appointment != nil {
		cl.send(models.EventAppointment, models.AppointmentPayload{Appointment: *res.Appointment, Location: res.Location, Timestamp: now})
	}
}

func (cl *wsClient) handleLocation(raw json.RawMessage) {
	id := cl.session()
	if id == "" {
		cl.sendError("No active session. Please start a session first.")
		return
	}
	var p models.LocationPayload
	if err := decodePayload(raw, &p); err != nil || p.Latitude == nil || p.Longitude == nil {
		cl.sendError("Invalid location coordinates")
		return
	}
	if err := cl.gw.Orchestrator.UpdatePatientLocation(id, models.Location{Latitude: *p.Latitude, Longitude: *p.Longitude}); err != nil {
		cl.sendError("Invalid location coordinates")
		return
	}
	cl.send(models.EventMessage, models.AssistantMessagePayload{
		SessionID: id,
		Message:   "Location received successfully",
		Timestamp: time.Now(),
	})
}

func (cl *wsClient) handleEnd() {
	id := cl.session()
	if id == "" {
		return
	}
	if err := cl.gw.Orchestrator.EndSession(cl.ctx, id); err != nil {
		cl.log.Warn("Failed to end session", zap.String("sessionID", id), zap.Error(err))
		cl.sendError("Failed to end session")
		return
	}
	cl.setSession("")
	cl.send(models.EventMessage, models.AssistantMessagePayload{
		SessionID: id,
		Message:   "Thank you for using our service. Take care!",
		State:     models.StateCompleted,
		Timestamp: time.Now(),
	})
}

func (cl *wsClient) handleHistory(raw json.RawMessage) {
	var p models.HistoryPayload
	if err := decodePayload(raw, &p); err != nil || p.PatientID == "" {
		cl.sendError("Patient ID is required")
		return
	}
	history, err := cl.gw.Orchestrator.PatientHistory(cl.ctx, p.PatientID)
	if err != nil {
		cl.log.Error("Failed to fetch history", zap.String("patientID", p.PatientID), zap.Error(err))
		cl.sendError("Failed to fetch history")
		return
	}
	if history == nil {
		history = []models.ConsultationSummary{}
	}
	cl.send(models.EventHistory, models.HistoryResultPayload{History: history})
}

func (cl *wsClient) session() string {
	cl.sessionMu.Lock()
	defer cl.sessionMu.Unlock()
	return cl.sessionID
}

func (cl *wsClient) setSession(id string) {
	cl.sessionMu.Lock()
	defer cl.sessionMu.Unlock()
	switch {
	case cl.sessionID == "" && id != "":
		cl.gw.sessions.Add(1)
	case cl.sessionID != "" && id == "":
		cl.gw.sessions.Add(-1)
	}
	cl.sessionID = id
}

func (cl *wsClient) send(eventType string, payload interface{}) {
	cl.writeMu.Lock()
	defer cl.writeMu.Unlock()
	_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := cl.conn.WriteJSON(models.OutboundEvent{Type: eventType, Payload: payload}); err != nil {
		cl.log.Debug("Websocket write failed", zap.String("type", eventType), zap.Error(err))
	}
}

func (cl *wsClient) sendError(msg string) {
	cl.send(models.EventError, models.ErrorPayload{Error: msg})
}

func decodePayload(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return errors.New("missing payload")
	}
	return json.Unmarshal(raw, v)
}
