package models

import "time"

type AppointmentStatus string

const (
	AppointmentScheduled   AppointmentStatus = "scheduled"
	AppointmentCompleted   AppointmentStatus = "completed"
	AppointmentCancelled   AppointmentStatus = "cancelled"
	AppointmentRescheduled AppointmentStatus = "rescheduled"
)

// Appointment is created once per completed diagnosis and not mutated afterwards.
type Appointment struct {
	ID             string            `bson:"id" json:"id"`
	ConsultationID string            `bson:"consultationId" json:"consultationId"`
	PatientID      string            `bson:"patientId" json:"patientId"`
	DoctorID       string            `bson:"doctorId" json:"doctorId"`
	DoctorName     string            `bson:"doctorName" json:"doctorName"`
	Specialty      string            `bson:"specialty" json:"specialty"`
	Date           time.Time         `bson:"date" json:"date"`
	Time           string            `bson:"time" json:"time"` // HH:MM
	PriorityRank   int               `bson:"priorityRank" json:"priorityRank"`
	Status         AppointmentStatus `bson:"status" json:"status"`
	Notes          string            `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt      time.Time         `bson:"createdAt" json:"createdAt"`
}

// DateString returns the appointment day as YYYY-MM-DD.
func (a Appointment) DateString() string {
	return a.Date.Format("2006-01-02")
}

// StartsAt combines Date and Time into a single instant in Date's location.
func (a Appointment) StartsAt() time.Time {
	t, err := time.ParseInLocation("15:04", a.Time, a.Date.Location())
	if err != nil {
		return a.Date
	}
	return time.Date(a.Date.Year(), a.Date.Month(), a.Date.Day(), t.Hour(), t.Minute(), 0, 0, a.Date.Location())
}
