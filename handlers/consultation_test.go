package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	ledgerRepo "medinet/database/repository/ledger"
	"medinet/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLedger struct {
	ledgerRepo.Ledger
	consultation *models.Consultation
}

func (s stubLedger) GetConsultation(_ context.Context, id string) (*models.Consultation, error) {
	if s.consultation == nil || s.consultation.ID != id {
		return nil, ledgerRepo.ErrNotFound
	}
	return s.consultation, nil
}

func (s stubLedger) ListTurns(context.Context, string) ([]models.ConversationLog, error) {
	return nil, nil
}

type stubScheduler struct{ gotDate time.Time }

func (s *stubScheduler) ScheduleAppointment(context.Context, string, string, models.DiagnosisOutcome) *models.Appointment {
	return nil
}

func (s *stubScheduler) AvailableSlots(_ context.Context, _ string, date time.Time) ([]string, error) {
	s.gotDate = date
	return []string{"09:00", "09:30"}, nil
}

func newConsultationRouter(h *ConsultationHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/consultations/patient/:patientId", h.GetPatientConsultations)
	r.GET("/api/consultations/:id", h.GetConsultation)
	r.GET("/api/consultations/:id/logs", h.GetConsultationLogs)
	r.GET("/api/sessions/:sessionId", h.GetSession)
	r.GET("/api/doctors/:id/slots", h.GetDoctorSlots)
	return r
}

func get(t *testing.T, r http.Handler, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return rr, body
}

func TestConsultationEndpoints(t *testing.T) {
	sched := &stubScheduler{}
	h := &ConsultationHandler{
		Ledger:       stubLedger{consultation: &models.Consultation{ID: "c1", PatientID: "p1", Status: models.SessionActive}},
		Orchestrator: &fakeOrchestrator{},
		Scheduler:    sched,
	}
	r := newConsultationRouter(h)

	rr, body := get(t, r, "/api/consultations/c1")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotNil(t, body["consultation"])

	rr, body = get(t, r, "/api/consultations/missing")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Consultation not found", body["message"])

	rr, body = get(t, r, "/api/consultations/c1/logs")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []interface{}{}, body["logs"])

	rr, body = get(t, r, "/api/consultations/patient/p1")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, body["consultations"], 1)

	rr, _ = get(t, r, "/api/sessions/unknown")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDoctorSlotsEndpoint(t *testing.T) {
	sched := &stubScheduler{}
	r := newConsultationRouter(&ConsultationHandler{Scheduler: sched, Orchestrator: &fakeOrchestrator{}})

	rr, body := get(t, r, "/api/doctors/d1/slots?date=2025-03-12")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "2025-03-12", body["date"])
	assert.Equal(t, []interface{}{"09:00", "09:30"}, body["slots"])
	assert.Equal(t, 12, sched.gotDate.Day())

	rr, _ = get(t, r, "/api/doctors/d1/slots?date=12-03-2025")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
