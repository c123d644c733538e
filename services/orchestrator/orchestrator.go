package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	directoryRepo "medinet/database/repository/directory"
	ledgerRepo "medinet/database/repository/ledger"
	"medinet/models"
	"medinet/services/booking"
	"medinet/services/diagnosis"
	"medinet/services/dialogue"
	"medinet/services/location"
	"medinet/services/notification"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultSessionTimeout = 30 * time.Minute

var ErrEmptyMessage = errors.New("message text is empty")

// Result is what one patient message produces.
type Result struct {
	SessionID     string                   `json:"sessionId"`
	ResponseText  string                   `json:"message"`
	State         models.ConsultationState `json:"state"`
	Diagnosis     *models.DiagnosisOutcome `json:"diagnosis,omitempty"`
	Appointment   *models.Appointment      `json:"appointment,omitempty"`
	Location      *models.DistanceResult   `json:"location,omitempty"`
	Notifications *notification.Result     `json:"notifications,omitempty"`
}

// StartResult identifies a freshly opened session.
type StartResult struct {
	SessionID      string `json:"sessionId"`
	ConsultationID string `json:"consultationId"`
	Greeting       string `json:"message"`
}

// ReminderScheduler queues a reminder for the doctor ahead of an appointment.
type ReminderScheduler interface {
	ScheduleReminder(ctx context.Context, appt models.Appointment, doctor models.Doctor, patientName string) error
}

// Service drives consultations from greeting to booked appointment.
type Service interface {
	StartSession(ctx context.Context, patientID, name string) (*StartResult, error)
	ProcessMessage(ctx context.Context, sessionID, text string) (*Result, error)
	EndSession(ctx context.Context, sessionID string) error
	UpdatePatientLocation(sessionID string, loc models.Location) error
	CleanupInactiveSessions(ctx context.Context) int
	PatientHistory(ctx context.Context, patientID string) ([]models.ConsultationSummary, error)
	Session(sessionID string) (SessionView, bool)
	ActiveSessions() int
}

// Dependencies are the collaborators of DefaultOrchestrator. Ledger, Dialogue,
// Classifier, Resolver and Scheduler are required; the rest may be nil.
type Dependencies struct {
	Ledger     ledgerRepo.Ledger
	Dialogue   dialogue.DialogueService
	Classifier diagnosis.Classifier
	Resolver   diagnosis.SpecialtyResolver
	Scheduler  booking.SchedulingEngine
	Doctors    directoryRepo.DoctorDirectory
	Patients   directoryRepo.PatientDirectory
	Notifier   notification.NotificationService
	Locations  location.LocationService
	Reminders  ReminderScheduler
}

type DefaultOrchestrator struct {
	Dependencies
	SessionTimeout time.Duration
	Now            func() time.Time
	Logger         *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewOrchestrator(deps Dependencies, sessionTimeout time.Duration, logger *zap.Logger) *DefaultOrchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sessionTimeout <= 0 {
		sessionTimeout = DefaultSessionTimeout
	}
	return &DefaultOrchestrator{
		Dependencies:   deps,
		SessionTimeout: sessionTimeout,
		Now:            time.Now,
		Logger:         logger,
		sessions:       make(map[string]*Session),
	}
}

func (o *DefaultOrchestrator) StartSession(ctx context.Context, patientID, name string) (*StartResult, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, &SessionCreationError{Err: errors.New("patient id is required")}
	}

	consultationID, err := o.Ledger.CreateConsultation(ctx, patientID, "AI consultation started")
	if err != nil {
		o.Logger.Error("Failed to create consultation", zap.String("patientID", patientID), zap.Error(err))
		return nil, &SessionCreationError{PatientID: patientID, Err: err}
	}

	now := o.Now()
	s := &Session{
		ID:             uuid.New().String(),
		ConsultationID: consultationID,
		PatientID:      patientID,
		PatientName:    strings.TrimSpace(name),
		Status:         models.SessionActive,
		State:          models.StateGreeting,
		StartedAt:      now,
		LastActivity:   now,
	}

	greeting := o.Dialogue.Greet(s.PatientName)
	o.appendTurn(ctx, s, models.RoleAssistant, greeting)
	s.State = models.StateQuestioning

	o.mu.Lock()
	o.sessions[s.ID] = s
	o.mu.Unlock()

	o.Logger.Info("Session started",
		zap.String("sessionID", s.ID),
		zap.String("consultationID", consultationID),
		zap.String("patientID", patientID))

	return &StartResult{SessionID: s.ID, ConsultationID: consultationID, Greeting: greeting}, nil
}

// ProcessMessage holds the session lock for the whole call, so a second
// message for the same session waits for the first to finish.
func (o *DefaultOrchestrator) ProcessMessage(ctx context.Context, sessionID, text string) (*Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	s, ok := o.lookup(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status.Terminal() {
		return nil, ErrSessionClosed
	}
	s.LastActivity = o.Now()

	o.appendTurn(ctx, s, models.RolePatient, text)
	s.TurnCount++

	reply := o.Dialogue.NextTurn(ctx, s.transcriptCopy(), s.TurnCount)
	o.appendTurn(ctx, s, models.RoleAssistant, reply.Text)

	if !reply.ReadyForDiagnosis {
		s.State = models.StateQuestioning
		return &Result{SessionID: s.ID, ResponseText: reply.Text, State: s.State}, nil
	}

	o.Logger.Info("Diagnosis phase reached",
		zap.String("sessionID", s.ID),
		zap.Int("turns", s.TurnCount),
		zap.Int("messages", len(s.Transcript)))

	return o.runPipeline(ctx, s, reply.Text), nil
}

// runPipeline takes a ready session through diagnosis, booking and
// notification. Every stage degrades on failure; the caller always gets text.
// s.mu must be held.
func (o *DefaultOrchestrator) runPipeline(ctx context.Context, s *Session, assistantText string) *Result {
	log := o.Logger.With(zap.String("sessionID", s.ID), zap.String("consultationID", s.ConsultationID))
	res := &Result{SessionID: s.ID}

	s.State = models.StateDiagnosing
	outcome := o.Classifier.Classify(ctx, s.transcriptCopy())
	outcome.Specialty = o.Resolver.Resolve(ctx, outcome.Diseases)
	res.Diagnosis = &outcome

	if err := o.Ledger.RecordDiagnosis(ctx, s.ConsultationID, outcome); err != nil {
		log.Warn("Failed to record diagnosis", zap.Error(err))
	}
	summary := diagnosis.Summary(outcome)
	o.logSystem(ctx, s, summary, map[string]interface{}{"diagnosis": outcome})

	parts := []string{assistantText, summary}

	s.State = models.StateBooking
	appt := o.Scheduler.ScheduleAppointment(ctx, s.ConsultationID, s.PatientID, outcome)
	if appt != nil {
		res.Appointment = appt
		parts = append(parts, booking.Confirmation(*appt))
		o.logSystem(ctx, s, "AppointmentScheduled", map[string]interface{}{"appointment": appt})

		doctor := o.doctorFor(ctx, *appt)

		if loc := o.distanceTo(ctx, s, doctor); loc != nil {
			res.Location = loc
			parts = append(parts, location.Summary(doctor.ClinicAddress, *loc))
			o.logSystem(ctx, s, "LocationCalculated", map[string]interface{}{"location": loc})
		}

		s.State = models.StateNotifying
		if sent := o.notify(ctx, s, outcome, *appt, doctor, res.Location); sent != nil {
			res.Notifications = sent
			if ack := acknowledgement(doctor.Name, *sent); ack != "" {
				parts = append(parts, ack)
			}
		}

		if o.Reminders != nil {
			if err := o.Reminders.ScheduleReminder(ctx, *appt, doctor, o.patientName(ctx, s)); err != nil {
				log.Warn("Failed to schedule appointment reminder", zap.Error(err))
			}
		}
	} else {
		log.Warn("No appointment could be scheduled", zap.String("specialty", outcome.Specialty))
	}

	s.Status = models.SessionCompleted
	s.State = models.StateCompleted
	if err := o.Ledger.CloseConsultation(ctx, s.ConsultationID, models.SessionCompleted); err != nil {
		log.Warn("Failed to close consultation", zap.Error(err))
	}

	fields := []zap.Field{zap.String("urgency", string(outcome.Urgency)), zap.String("specialty", outcome.Specialty)}
	if top, ok := outcome.TopDisease(); ok {
		fields = append(fields, zap.String("topDisease", top.Name))
	}
	log.Info("Session completed", fields...)

	res.State = s.State
	res.ResponseText = strings.Join(parts, "\n\n")
	return res
}

// doctorFor looks the doctor up for contact and clinic details, falling back
// to what the appointment carries.
func (o *DefaultOrchestrator) doctorFor(ctx context.Context, appt models.Appointment) models.Doctor {
	fallback := models.Doctor{ID: appt.DoctorID, Name: appt.DoctorName, Specialty: appt.Specialty}
	if o.Doctors == nil {
		return fallback
	}
	doc, err := o.Doctors.GetDoctor(ctx, appt.DoctorID)
	if err != nil || doc == nil {
		o.Logger.Warn("Doctor lookup failed", zap.String("doctorID", appt.DoctorID), zap.Error(err))
		return fallback
	}
	return *doc
}

func (o *DefaultOrchestrator) distanceTo(ctx context.Context, s *Session, doctor models.Doctor) *models.DistanceResult {
	if o.Locations == nil || s.Location == nil || doctor.ClinicLocation == nil {
		return nil
	}
	res, err := o.Locations.Distance(ctx, *s.Location, *doctor.ClinicLocation)
	if err != nil {
		o.Logger.Warn("Distance calculation failed", zap.String("sessionID", s.ID), zap.Error(err))
		return nil
	}
	return res
}

func (o *DefaultOrchestrator) patientDetails(ctx context.Context, s *Session) models.Patient {
	p := models.Patient{ID: s.PatientID, Name: s.PatientName}
	if o.Patients == nil {
		return p
	}
	found, err := o.Patients.GetPatient(ctx, s.PatientID)
	if err != nil || found == nil {
		if !errors.Is(err, directoryRepo.ErrNotFound) {
			o.Logger.Warn("Patient lookup failed", zap.String("patientID", s.PatientID), zap.Error(err))
		}
		return p
	}
	if found.Name == "" {
		found.Name = s.PatientName
	}
	return *found
}

func (o *DefaultOrchestrator) patientName(ctx context.Context, s *Session) string {
	if s.PatientName != "" {
		return s.PatientName
	}
	if p := o.patientDetails(ctx, s); p.Name != "" {
		return p.Name
	}
	return s.PatientID
}

func (o *DefaultOrchestrator) notify(ctx context.Context, s *Session, outcome models.DiagnosisOutcome, appt models.Appointment, doctor models.Doctor, loc *models.DistanceResult) *notification.Result {
	if o.Notifier == nil {
		return nil
	}
	patient := o.patientDetails(ctx, s)
	if patient.Name == "" {
		patient.Name = s.PatientID
	}

	sent := o.Notifier.SendReport(ctx, notification.Report{
		ConsultationID: s.ConsultationID,
		Patient:        patient,
		Symptoms:       strings.Join(s.patientUtterances(), " | "),
		Transcript:     s.transcriptCopy(),
		Diagnosis:      outcome,
		Appointment:    appt,
		Doctor:         doctor,
		Location:       loc,
		GeneratedAt:    o.Now(),
	})
	o.logSystem(ctx, s, "ReportSent", map[string]interface{}{
		"emailSent":     sent.EmailSent(),
		"messagingSent": sent.MessagingSent(),
		"channels":      sent.Channels,
	})
	return &sent
}

var channelLabels = map[string]string{
	notification.ChannelEmail:    "email",
	notification.ChannelWhatsApp: "WhatsApp",
	notification.ChannelPush:     "push notification",
}

func acknowledgement(doctorName string, sent notification.Result) string {
	via := sent.SentVia([]string{notification.ChannelEmail, notification.ChannelWhatsApp, notification.ChannelPush})
	if len(via) == 0 {
		return ""
	}
	labels := make([]string, len(via))
	for i, name := range via {
		labels[i] = channelLabels[name]
	}
	return fmt.Sprintf("Medical report has been sent to Dr. %s via %s.", doctorName, strings.Join(labels, " and "))
}

// appendTurn records a turn in memory and in the ledger. Ledger errors are
// logged only. s.mu must be held.
func (o *DefaultOrchestrator) appendTurn(ctx context.Context, s *Session, role models.Role, text string) {
	s.Transcript = append(s.Transcript, models.Turn{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   text,
		Timestamp: o.Now(),
	})
	if err := o.Ledger.AppendTurn(ctx, s.ConsultationID, role, text, nil); err != nil {
		o.Logger.Warn("Failed to persist turn",
			zap.String("sessionID", s.ID),
			zap.String("role", string(role)),
			zap.Error(err))
	}
}

// logSystem writes a ledger-only system entry; the transcript is untouched.
func (o *DefaultOrchestrator) logSystem(ctx context.Context, s *Session, text string, metadata interface{}) {
	if err := o.Ledger.AppendTurn(ctx, s.ConsultationID, models.RoleSystem, text, metadata); err != nil {
		o.Logger.Warn("Failed to persist system event",
			zap.String("sessionID", s.ID),
			zap.String("event", firstLine(text)),
			zap.Error(err))
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// EndSession is idempotent: unknown ids are not an error.
func (o *DefaultOrchestrator) EndSession(ctx context.Context, sessionID string) error {
	s, ok := o.lookup(sessionID)
	if !ok {
		return nil
	}
	s.mu.Lock()
	o.close(ctx, s, models.SessionCompleted, "ended")
	s.mu.Unlock()

	o.evict(sessionID)
	return nil
}

// close persists closure of a non-terminal session. s.mu must be held.
func (o *DefaultOrchestrator) close(ctx context.Context, s *Session, status models.SessionStatus, reason string) {
	if s.Status.Terminal() {
		return
	}
	if s.State != models.StateCompleted {
		s.State = models.StateCancelled
	}
	s.Status = status
	if err := o.Ledger.CloseConsultation(ctx, s.ConsultationID, status); err != nil {
		o.Logger.Warn("Failed to close consultation", zap.String("sessionID", s.ID), zap.Error(err))
	}
	o.Logger.Info("Session closed",
		zap.String("sessionID", s.ID),
		zap.String("reason", reason),
		zap.String("status", string(status)))
}

func (o *DefaultOrchestrator) UpdatePatientLocation(sessionID string, loc models.Location) error {
	if !loc.Valid() {
		return location.ErrInvalidCoordinates
	}
	s, ok := o.lookup(sessionID)
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Status.Terminal() {
		return nil
	}
	s.Location = &loc
	return nil
}

// CleanupInactiveSessions cancels active sessions older than SessionTimeout
// and evicts finished ones. Sessions busy with a message are left for the
// next sweep. It returns how many sessions were evicted.
func (o *DefaultOrchestrator) CleanupInactiveSessions(ctx context.Context) int {
	now := o.Now()

	o.mu.RLock()
	snapshot := make([]*Session, 0, len(o.sessions))
	for _, s := range o.sessions {
		snapshot = append(snapshot, s)
	}
	o.mu.RUnlock()

	evicted := 0
	for _, s := range snapshot {
		if !s.mu.TryLock() {
			continue
		}
		expired := now.Sub(s.StartedAt) > o.SessionTimeout
		if expired && s.Status == models.SessionActive {
			o.close(ctx, s, models.SessionCancelled, "timeout")
		}
		remove := s.Status.Terminal() && (expired || now.Sub(s.LastActivity) > o.SessionTimeout)
		id := s.ID
		s.mu.Unlock()

		if remove {
			o.evict(id)
			evicted++
		}
	}

	if evicted > 0 {
		o.Logger.Info("Inactive sessions cleaned up", zap.Int("evicted", evicted), zap.Int("remaining", o.ActiveSessions()))
	}
	return evicted
}

func (o *DefaultOrchestrator) PatientHistory(ctx context.Context, patientID string) ([]models.ConsultationSummary, error) {
	history, err := o.Ledger.ListConsultations(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("PatientHistory: %w", err)
	}
	return history, nil
}

// Session returns a snapshot of a held session, including completed ones not yet evicted.
func (o *DefaultOrchestrator) Session(sessionID string) (SessionView, bool) {
	s, ok := o.lookup(sessionID)
	if !ok {
		return SessionView{}, false
	}
	return s.view(), true
}

// ActiveSessions counts sessions currently held in memory. A session whose
// pipeline has completed stays held, readable through Session, until
// EndSession or the next cleanup sweep past the timeout evicts it.
func (o *DefaultOrchestrator) ActiveSessions() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.sessions)
}

func (o *DefaultOrchestrator) lookup(sessionID string) (*Session, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	s, ok := o.sessions[sessionID]
	return s, ok
}

func (o *DefaultOrchestrator) evict(sessionID string) {
	o.mu.Lock()
	delete(o.sessions, sessionID)
	o.mu.Unlock()
}
