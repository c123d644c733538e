package orchestrator

import (
	"sync"
	"time"

	"medinet/models"
)

// Session is the in-memory state of one live consultation. All fields are
// guarded by mu; the session table only ever hands out pointers.
type Session struct {
	mu sync.Mutex

	ID             string
	ConsultationID string
	PatientID      string
	PatientName    string
	Transcript     []models.Turn
	Status         models.SessionStatus
	State          models.ConsultationState
	TurnCount      int
	Location       *models.Location
	StartedAt      time.Time
	LastActivity   time.Time
}

// SessionView is a copy of a session safe to hand to callers.
type SessionView struct {
	ID             string                   `json:"sessionId"`
	ConsultationID string                   `json:"consultationId"`
	PatientID      string                   `json:"patientId"`
	Status         models.SessionStatus     `json:"status"`
	State          models.ConsultationState `json:"state"`
	TurnCount      int                      `json:"turnCount"`
	Messages       int                      `json:"messages"`
	StartedAt      time.Time                `json:"startedAt"`
	LastActivity   time.Time                `json:"lastActivity"`
}

func (s *Session) view() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionView{
		ID:             s.ID,
		ConsultationID: s.ConsultationID,
		PatientID:      s.PatientID,
		Status:         s.Status,
		State:          s.State,
		TurnCount:      s.TurnCount,
		Messages:       len(s.Transcript),
		StartedAt:      s.StartedAt,
		LastActivity:   s.LastActivity,
	}
}

// patientUtterances joins what the patient said, oldest first.
func (s *Session) patientUtterances() []string {
	var out []string
	for _, t := range s.Transcript {
		if t.Role == models.RolePatient {
			out = append(out, t.Content)
		}
	}
	return out
}

func (s *Session) transcriptCopy() []models.Turn {
	out := make([]models.Turn, len(s.Transcript))
	copy(out, s.Transcript)
	return out
}
