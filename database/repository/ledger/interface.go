package ledgerRepo

import (
	"context"
	"encoding/json"
	"errors"

	"medinet/models"
)

// ErrNotFound is returned by lookups that match nothing.
var ErrNotFound = errors.New("ledger: not found")

// Ledger is the durable audit log of consultations.
type Ledger interface {
	CreateConsultation(ctx context.Context, patientID, initialNote string) (string, error)
	AppendTurn(ctx context.Context, consultationID string, role models.Role, text string, metadata interface{}) error
	RecordDiagnosis(ctx context.Context, consultationID string, outcome models.DiagnosisOutcome) error
	CloseConsultation(ctx context.Context, consultationID string, status models.SessionStatus) error
	ListConsultations(ctx context.Context, patientID string) ([]models.ConsultationSummary, error)
	GetConsultation(ctx context.Context, consultationID string) (*models.Consultation, error)
	ListTurns(ctx context.Context, consultationID string) ([]models.ConversationLog, error)
}

// AppointmentRepository persists appointments produced by the scheduler.
type AppointmentRepository interface {
	CreateAppointment(ctx context.Context, appt *models.Appointment) error
	GetAppointment(ctx context.Context, appointmentID string) (*models.Appointment, error)
	// BookedTimes lists HH:MM times already scheduled for a doctor on date (YYYY-MM-DD).
	BookedTimes(ctx context.Context, doctorID, date string) ([]string, error)
}

// Store is the full persistence surface used by the consultation core.
type Store interface {
	Ledger
	AppointmentRepository
}

func encodeMetadata(metadata interface{}) (json.RawMessage, error) {
	switch m := metadata.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return m, nil
	case []byte:
		return json.RawMessage(m), nil
	default:
		return json.Marshal(m)
	}
}
