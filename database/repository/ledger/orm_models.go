package ledgerRepo

import (
	"encoding/json"
	"time"

	"medinet/models"
)

type consultationRow struct {
	ID            string     `gorm:"primaryKey;size:64"`
	PatientID     string     `gorm:"size:191;index:idx_consultations_patient"`
	InitialNote   string     `gorm:"type:text"`
	DiseasesJSON  string     `gorm:"column:diseases_json;type:text"`
	SeverityScore int        `gorm:"not null;default:0"`
	Urgency       string     `gorm:"size:16"`
	Specialty     string     `gorm:"size:64"`
	Status        string     `gorm:"size:16;not null"`
	CreatedAt     time.Time  `gorm:"not null;index:idx_consultations_patient"`
	UpdatedAt     time.Time  `gorm:"not null"`
	ClosedAt      *time.Time
}

func (consultationRow) TableName() string {
	return "consultations"
}

func (r consultationRow) toModel() models.Consultation {
	c := models.Consultation{
		ID:            r.ID,
		PatientID:     r.PatientID,
		InitialNote:   r.InitialNote,
		SeverityScore: r.SeverityScore,
		Urgency:       models.UrgencyLevel(r.Urgency),
		Specialty:     r.Specialty,
		Status:        models.SessionStatus(r.Status),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		ClosedAt:      r.ClosedAt,
	}
	if r.DiseasesJSON != "" {
		_ = json.Unmarshal([]byte(r.DiseasesJSON), &c.Diseases)
	}
	return c
}

type conversationLogRow struct {
	ID             string    `gorm:"primaryKey;size:64"`
	ConsultationID string    `gorm:"size:64;index:idx_logs_consultation,priority:1"`
	Sequence       int64     `gorm:"not null;index:idx_logs_consultation,priority:2"`
	Role           string    `gorm:"size:16;not null"`
	Message        string    `gorm:"type:text"`
	Metadata       string    `gorm:"type:text"`
	Timestamp      time.Time `gorm:"not null"`
}

func (conversationLogRow) TableName() string {
	return "conversation_logs"
}

func (r conversationLogRow) toModel() models.ConversationLog {
	entry := models.ConversationLog{
		ID:             r.ID,
		ConsultationID: r.ConsultationID,
		Role:           models.Role(r.Role),
		Message:        r.Message,
		Timestamp:      r.Timestamp,
	}
	if r.Metadata != "" {
		entry.Metadata = json.RawMessage(r.Metadata)
	}
	return entry
}

type diagnosisRow struct {
	ID             string    `gorm:"primaryKey;size:64"`
	ConsultationID string    `gorm:"size:64;index"`
	DiseaseName    string    `gorm:"size:255;not null"`
	Confidence     int       `gorm:"not null"`
	SeverityLevel  int       `gorm:"not null"`
	ActionsJSON    string    `gorm:"column:actions_json;type:text"`
	CreatedAt      time.Time `gorm:"not null"`
}

func (diagnosisRow) TableName() string {
	return "diagnoses"
}

type appointmentRow struct {
	ID             string    `gorm:"primaryKey;size:64"`
	ConsultationID string    `gorm:"size:64;index"`
	PatientID      string    `gorm:"size:191"`
	DoctorID       string    `gorm:"size:191;index:idx_appointments_doctor_day,priority:1"`
	DoctorName     string    `gorm:"size:255"`
	Specialty      string    `gorm:"size:64"`
	Date           time.Time `gorm:"not null"`
	DateKey        string    `gorm:"size:10;index:idx_appointments_doctor_day,priority:2"`
	Time           string    `gorm:"size:5;not null"`
	PriorityRank   int       `gorm:"not null"`
	Status         string    `gorm:"size:16;not null"`
	Notes          string    `gorm:"type:text"`
	CreatedAt      time.Time `gorm:"not null"`
}

func (appointmentRow) TableName() string {
	return "appointments"
}

func appointmentRowFromModel(a models.Appointment) appointmentRow {
	return appointmentRow{
		ID:             a.ID,
		ConsultationID: a.ConsultationID,
		PatientID:      a.PatientID,
		DoctorID:       a.DoctorID,
		DoctorName:     a.DoctorName,
		Specialty:      a.Specialty,
		Date:           a.Date,
		DateKey:        a.DateString(),
		Time:           a.Time,
		PriorityRank:   a.PriorityRank,
		Status:         string(a.Status),
		Notes:          a.Notes,
		CreatedAt:      a.CreatedAt,
	}
}

func (r appointmentRow) toModel() models.Appointment {
	return models.Appointment{
		ID:             r.ID,
		ConsultationID: r.ConsultationID,
		PatientID:      r.PatientID,
		DoctorID:       r.DoctorID,
		DoctorName:     r.DoctorName,
		Specialty:      r.Specialty,
		Date:           r.Date,
		Time:           r.Time,
		PriorityRank:   r.PriorityRank,
		Status:         models.AppointmentStatus(r.Status),
		Notes:          r.Notes,
		CreatedAt:      r.CreatedAt,
	}
}
