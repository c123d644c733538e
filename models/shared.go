package models

// ReminderPayload is the task body of an appointment reminder.
type ReminderPayload struct {
	AppointmentID string `json:"appointmentId"`
	DoctorID      string `json:"doctorId"`
	PatientName   string `json:"patientName"`
	Title         string `json:"title"`
	Body          string `json:"body"`
	FireDate      string `json:"fireDate"` // RFC3339
}
