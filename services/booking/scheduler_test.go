package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"medinet/models"
	"medinet/services/diagnosis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirectory struct {
	bySpecialty map[string][]models.Doctor
	queried     []string
}

func (f *fakeDirectory) FindBySpecialty(_ context.Context, specialty string) ([]models.Doctor, error) {
	f.queried = append(f.queried, specialty)
	return f.bySpecialty[specialty], nil
}

func (f *fakeDirectory) GetDoctor(context.Context, string) (*models.Doctor, error) {
	return nil, errors.New("not used")
}

type fakeAppointments struct {
	mu      sync.Mutex
	created []models.Appointment
	booked  []string
	err     error
}

func (f *fakeAppointments) CreateAppointment(_ context.Context, appt *models.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	appt.ID = "appt-1"
	f.created = append(f.created, *appt)
	return nil
}

func (f *fakeAppointments) GetAppointment(context.Context, string) (*models.Appointment, error) {
	return nil, errors.New("not used")
}

func (f *fakeAppointments) BookedTimes(context.Context, string, string) ([]string, error) {
	return f.booked, nil
}

var refTime = time.Date(2025, 6, 10, 15, 42, 10, 0, time.UTC)

func newEngine(dir *fakeDirectory, repo *fakeAppointments) *DefaultSchedulingEngine {
	se := NewSchedulingEngine(dir, repo, nil)
	se.Now = func() time.Time { return refTime }
	return se
}

func TestSlotForUrgency(t *testing.T) {
	t.Parallel()

	cases := []struct {
		urgency models.UrgencyLevel
		date    time.Time
		slot    string
		rank    int
	}{
		{models.UrgencyCritical, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), "16:00", 1},
		{models.UrgencyHigh, time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC), "09:00", 2},
		{models.UrgencyMedium, time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC), "10:00", 3},
		{models.UrgencyLow, time.Date(2025, 6, 17, 0, 0, 0, 0, time.UTC), "14:00", 4},
	}
	for _, tc := range cases {
		date, slot := SlotFor(tc.urgency, refTime)
		assert.Equal(t, tc.date, date, tc.urgency)
		assert.Equal(t, tc.slot, slot, tc.urgency)
		assert.Equal(t, tc.rank, PriorityForUrgency(tc.urgency))
	}
}

func TestSlotForCriticalLateEveningRollsOver(t *testing.T) {
	t.Parallel()

	late := time.Date(2025, 12, 31, 23, 20, 0, 0, time.UTC)
	date, slot := SlotFor(models.UrgencyCritical, late)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), date)
	assert.Equal(t, "00:00", slot)
}

func TestScheduleHighUrgencyPicksMostExperienced(t *testing.T) {
	t.Parallel()

	dir := &fakeDirectory{bySpecialty: map[string][]models.Doctor{
		"Neurology": {
			{ID: "n1", Name: "Lee", Specialty: "Neurology", Available: true, ExperienceYears: 8},
			{ID: "n2", Name: "Kim", Specialty: "Neurology", Available: true, ExperienceYears: 15},
			{ID: "n3", Name: "Roe", Specialty: "Neurology", Available: true, ExperienceYears: 15},
		},
	}}
	repo := &fakeAppointments{}
	se := newEngine(dir, repo)

	appt := se.ScheduleAppointment(context.Background(), "c1", "p1", models.DiagnosisOutcome{
		Specialty: "Neurology",
		Urgency:   models.UrgencyHigh,
	})
	require.NotNil(t, appt)
	assert.Equal(t, "n2", appt.DoctorID)
	assert.Equal(t, "2025-06-11", appt.DateString())
	assert.Equal(t, "09:00", appt.Time)
	assert.Equal(t, 2, appt.PriorityRank)
	assert.Equal(t, models.AppointmentScheduled, appt.Status)
	assert.Equal(t, "c1", appt.ConsultationID)
	require.Len(t, repo.created, 1)
	assert.Equal(t, []string{"Neurology"}, dir.queried)
}

func TestScheduleFallsBackToGeneralMedicine(t *testing.T) {
	t.Parallel()

	dir := &fakeDirectory{bySpecialty: map[string][]models.Doctor{
		diagnosis.GeneralMedicine: {{ID: "g1", Name: "Gp", Specialty: diagnosis.GeneralMedicine, Available: true, ExperienceYears: 3}},
	}}
	se := newEngine(dir, &fakeAppointments{})

	appt := se.ScheduleAppointment(context.Background(), "c1", "p1", models.DiagnosisOutcome{Specialty: "ENT", Urgency: models.UrgencyMedium})
	require.NotNil(t, appt)
	assert.Equal(t, "g1", appt.DoctorID)
	assert.Equal(t, diagnosis.GeneralMedicine, appt.Specialty)
	assert.Equal(t, []string{"ENT", diagnosis.GeneralMedicine}, dir.queried)
}

func TestScheduleNoDoctorReturnsNil(t *testing.T) {
	t.Parallel()

	repo := &fakeAppointments{}
	se := newEngine(&fakeDirectory{}, repo)

	appt := se.ScheduleAppointment(context.Background(), "c1", "p1", models.DiagnosisOutcome{Specialty: "Cardiology", Urgency: models.UrgencyCritical})
	assert.Nil(t, appt)
	assert.Empty(t, repo.created)
}

func TestSchedulePersistenceFailureReturnsNil(t *testing.T) {
	t.Parallel()

	dir := &fakeDirectory{bySpecialty: map[string][]models.Doctor{
		"Cardiology": {{ID: "c1", Name: "Heart", Specialty: "Cardiology", Available: true}},
	}}
	se := newEngine(dir, &fakeAppointments{err: errors.New("write failed")})

	assert.Nil(t, se.ScheduleAppointment(context.Background(), "c1", "p1", models.DiagnosisOutcome{Specialty: "Cardiology"}))
}

func TestAvailableSlotsExcludesBooked(t *testing.T) {
	t.Parallel()

	se := newEngine(&fakeDirectory{}, &fakeAppointments{booked: []string{"09:00", "12:30", "16:30"}})
	slots, err := se.AvailableSlots(context.Background(), "d1", refTime)
	require.NoError(t, err)
	assert.Len(t, slots, 13)
	assert.Equal(t, "09:30", slots[0])
	assert.Equal(t, "16:00", slots[len(slots)-1])
	assert.NotContains(t, slots, "12:30")
}

func TestConfirmationText(t *testing.T) {
	t.Parallel()

	text := Confirmation(models.Appointment{
		DoctorName:   "Kim",
		Specialty:    "Neurology",
		Date:         time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC),
		Time:         "09:00",
		PriorityRank: 2,
	})
	assert.Contains(t, text, "Dr. Kim")
	assert.Contains(t, text, "June 11, 2025")
	assert.Contains(t, text, "High Priority")
	assert.Equal(t, "Standard", PriorityLabel(9))
}
