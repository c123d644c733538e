package booking

import (
	"context"
	"fmt"
	"time"

	directoryRepo "medinet/database/repository/directory"
	ledgerRepo "medinet/database/repository/ledger"
	"medinet/models"
	"medinet/services/diagnosis"

	"go.uber.org/zap"
)

// SchedulingEngine picks a doctor and slot for a finished diagnosis.
type SchedulingEngine interface {
	// ScheduleAppointment returns nil when no doctor can be booked.
	ScheduleAppointment(ctx context.Context, consultationID, patientID string, outcome models.DiagnosisOutcome) *models.Appointment
	AvailableSlots(ctx context.Context, doctorID string, date time.Time) ([]string, error)
}

type DefaultSchedulingEngine struct {
	Directory directoryRepo.DoctorDirectory
	Repo      ledgerRepo.AppointmentRepository
	Now       func() time.Time
	Logger    *zap.Logger
}

func NewSchedulingEngine(dir directoryRepo.DoctorDirectory, repo ledgerRepo.AppointmentRepository, logger *zap.Logger) *DefaultSchedulingEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultSchedulingEngine{Directory: dir, Repo: repo, Now: time.Now, Logger: logger}
}

func (se *DefaultSchedulingEngine) ScheduleAppointment(ctx context.Context, consultationID, patientID string, outcome models.DiagnosisOutcome) *models.Appointment {
	log := se.Logger.With(zap.String("consultationID", consultationID), zap.String("specialty", outcome.Specialty))

	doctor, err := se.pickDoctor(ctx, outcome.Specialty)
	if err != nil {
		log.Warn("No doctor available for appointment", zap.Error(err))
		return nil
	}

	urgency := outcome.Urgency
	if !urgency.Valid() {
		urgency = models.UrgencyLow
	}
	now := se.Now()
	date, slot := SlotFor(urgency, now)

	appt := &models.Appointment{
		ConsultationID: consultationID,
		PatientID:      patientID,
		DoctorID:       doctor.ID,
		DoctorName:     doctor.Name,
		Specialty:      doctor.Specialty,
		Date:           date,
		Time:           slot,
		PriorityRank:   PriorityForUrgency(urgency),
		Status:         models.AppointmentScheduled,
		Notes:          fmt.Sprintf("Auto-scheduled based on %s urgency with Dr. %s (%s)", urgency, doctor.Name, doctor.Specialty),
		CreatedAt:      now,
	}
	if err := se.Repo.CreateAppointment(ctx, appt); err != nil {
		log.Error("Failed to persist appointment", zap.Error(err))
		return nil
	}

	log.Info("Appointment scheduled",
		zap.String("appointmentID", appt.ID),
		zap.String("doctorID", doctor.ID),
		zap.String("date", appt.DateString()),
		zap.String("time", appt.Time),
		zap.Int("priority", appt.PriorityRank))
	return appt
}

func (se *DefaultSchedulingEngine) pickDoctor(ctx context.Context, specialty string) (*models.Doctor, error) {
	doctors, err := se.Directory.FindBySpecialty(ctx, specialty)
	if err != nil {
		se.Logger.Warn("Doctor lookup failed", zap.String("specialty", specialty), zap.Error(err))
	}
	if best := mostExperienced(doctors); best != nil {
		return best, nil
	}
	if specialty == diagnosis.GeneralMedicine {
		return nil, NewMatchError("no available doctors")
	}

	doctors, err = se.Directory.FindBySpecialty(ctx, diagnosis.GeneralMedicine)
	if err != nil {
		return nil, fmt.Errorf("general medicine lookup: %w", err)
	}
	if best := mostExperienced(doctors); best != nil {
		return best, nil
	}
	return nil, NewMatchError("no available doctors in " + specialty + " or " + diagnosis.GeneralMedicine)
}

// mostExperienced keeps the first doctor among equals.
func mostExperienced(doctors []models.Doctor) *models.Doctor {
	var best *models.Doctor
	for i := range doctors {
		d := &doctors[i]
		if !d.Available {
			continue
		}
		if best == nil || d.ExperienceYears > best.ExperienceYears {
			best = d
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}

// SlotFor maps an urgency tier to an appointment day and HH:MM time.
func SlotFor(urgency models.UrgencyLevel, now time.Time) (time.Time, string) {
	day := func(offset int) time.Time {
		return time.Date(now.Year(), now.Month(), now.Day()+offset, 0, 0, 0, 0, now.Location())
	}
	switch urgency {
	case models.UrgencyCritical:
		next := now.Add(time.Hour)
		next = time.Date(next.Year(), next.Month(), next.Day(), next.Hour(), 0, 0, 0, next.Location())
		return time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, next.Location()), next.Format("15:04")
	case models.UrgencyHigh:
		return day(1), "09:00"
	case models.UrgencyMedium:
		return day(3), "10:00"
	default:
		return day(7), "14:00"
	}
}

func PriorityForUrgency(urgency models.UrgencyLevel) int {
	switch urgency {
	case models.UrgencyCritical:
		return 1
	case models.UrgencyHigh:
		return 2
	case models.UrgencyMedium:
		return 3
	default:
		return 4
	}
}

// AvailableSlots lists free half-hour slots between 09:00 and 17:00.
func (se *DefaultSchedulingEngine) AvailableSlots(ctx context.Context, doctorID string, date time.Time) ([]string, error) {
	booked, err := se.Repo.BookedTimes(ctx, doctorID, date.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("load booked times: %w", err)
	}
	taken := make(map[string]struct{}, len(booked))
	for _, b := range booked {
		taken[b] = struct{}{}
	}

	var slots []string
	for hour := 9; hour < 17; hour++ {
		for _, minute := range []int{0, 30} {
			s := fmt.Sprintf("%02d:%02d", hour, minute)
			if _, ok := taken[s]; !ok {
				slots = append(slots, s)
			}
		}
	}
	return slots, nil
}
