package models

import (
	"encoding/json"
	"time"
)

// Role identifies who produced a Turn.
type Role string

const (
	RolePatient   Role = "patient"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Turn is a single utterance in a consultation transcript. Turns are never
// edited after they are appended.
type Turn struct {
	ID        string          `bson:"id" json:"id"`
	Role      Role            `bson:"role" json:"role"`
	Content   string          `bson:"content" json:"content"`
	Timestamp time.Time       `bson:"timestamp" json:"timestamp"`
	Metadata  json.RawMessage `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

// Terminal reports whether no further mutation is allowed.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionCancelled
}

// ConsultationState is the pipeline position of a session.
type ConsultationState string

const (
	StateGreeting    ConsultationState = "greeting"
	StateQuestioning ConsultationState = "questioning"
	StateDiagnosing  ConsultationState = "diagnosing"
	StateBooking     ConsultationState = "booking"
	StateNotifying   ConsultationState = "notifying"
	StateCompleted   ConsultationState = "completed"
	StateCancelled   ConsultationState = "cancelled"
)

// Consultation is the durable record of one session.
type Consultation struct {
	ID            string        `bson:"id" json:"id"`
	PatientID     string        `bson:"patientId" json:"patientId"`
	InitialNote   string        `bson:"initialNote,omitempty" json:"initialNote,omitempty"`
	Diseases      []Disease     `bson:"diseases,omitempty" json:"diseases,omitempty"`
	SeverityScore int           `bson:"severityScore" json:"severityScore"`
	Urgency       UrgencyLevel  `bson:"urgency,omitempty" json:"urgency,omitempty"`
	Specialty     string        `bson:"specialty,omitempty" json:"specialty,omitempty"`
	Status        SessionStatus `bson:"status" json:"status"`
	CreatedAt     time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time     `bson:"updatedAt" json:"updatedAt"`
	ClosedAt      *time.Time    `bson:"closedAt,omitempty" json:"closedAt,omitempty"`
}

// ConsultationSummary is the history view returned to a patient.
type ConsultationSummary struct {
	ID              string        `bson:"id" json:"id"`
	Status          SessionStatus `bson:"status" json:"status"`
	Specialty       string        `bson:"specialty,omitempty" json:"specialty,omitempty"`
	SeverityScore   int           `bson:"severityScore" json:"severityScore"`
	Urgency         UrgencyLevel  `bson:"urgency,omitempty" json:"urgency,omitempty"`
	TopDisease      string        `bson:"topDisease,omitempty" json:"topDisease,omitempty"`
	AppointmentDate string        `bson:"appointmentDate,omitempty" json:"appointmentDate,omitempty"`
	AppointmentTime string        `bson:"appointmentTime,omitempty" json:"appointmentTime,omitempty"`
	CreatedAt       time.Time     `bson:"createdAt" json:"createdAt"`
}

// ConversationLog is one ledger entry for a consultation.
type ConversationLog struct {
	ID             string          `bson:"id" json:"id"`
	ConsultationID string          `bson:"consultationId" json:"consultationId"`
	Role           Role            `bson:"role" json:"role"`
	Message        string          `bson:"message" json:"message"`
	Metadata       json.RawMessage `bson:"metadata,omitempty" json:"metadata,omitempty"`
	Timestamp      time.Time       `bson:"timestamp" json:"timestamp"`
}
