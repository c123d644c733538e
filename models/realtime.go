package models

import (
	"encoding/json"
	"time"
)

// Inbound event types accepted by the realtime gateway.
const (
	EventStart    = "start"
	EventMessage  = "message"
	EventLocation = "location"
	EventEnd      = "end"
	EventHistory  = "history"
	EventPing     = "ping"
)

// Outbound event types. EventMessage and EventHistory are used in both directions.
const (
	EventConnected      = "connected"
	EventSessionStarted = "session_started"
	EventDiagnosis      = "diagnosis"
	EventAppointment    = "appointment"
	EventError          = "error"
	EventPong           = "pong"
)

type InboundEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type OutboundEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type StartPayload struct {
	PatientID   string `json:"patientId"`
	PatientName string `json:"patientName,omitempty"`
}

type MessagePayload struct {
	Message string `json:"message"`
}

type LocationPayload struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type HistoryPayload struct {
	PatientID string `json:"patientId"`
}

type ConnectedPayload struct {
	Message string `json:"message"`
}

type SessionStartedPayload struct {
	SessionID      string    `json:"sessionId"`
	ConsultationID string    `json:"consultationId"`
	Message        string    `json:"message"`
	Timestamp      time.Time `json:"timestamp"`
}

// AssistantMessagePayload carries assistant text and gateway acknowledgements.
type AssistantMessagePayload struct {
	SessionID string            `json:"sessionId,omitempty"`
	Message   string            `json:"message"`
	State     ConsultationState `json:"state,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

type DiagnosisPayload struct {
	Diagnosis DiagnosisOutcome `json:"diagnosis"`
	Timestamp time.Time        `json:"timestamp"`
}

type AppointmentPayload struct {
	Appointment Appointment     `json:"appointment"`
	Location    *DistanceResult `json:"location,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}

type HistoryResultPayload struct {
	History []ConsultationSummary `json:"history"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}
