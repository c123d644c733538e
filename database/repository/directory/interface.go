package directoryRepo

import (
	"context"
	"errors"

	"medinet/models"
)

var ErrNotFound = errors.New("directory: not found")

// DoctorDirectory is read-only to the consultation core.
type DoctorDirectory interface {
	// FindBySpecialty returns available doctors, most experienced first.
	FindBySpecialty(ctx context.Context, specialty string) ([]models.Doctor, error)
	GetDoctor(ctx context.Context, doctorID string) (*models.Doctor, error)
}

type PatientDirectory interface {
	GetPatient(ctx context.Context, patientID string) (*models.Patient, error)
}
