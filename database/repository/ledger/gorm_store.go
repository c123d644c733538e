package ledgerRepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	dbpkg "medinet/database"
	"medinet/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLedger is a relational Store for sqlite or postgres deployments.
type GormLedger struct {
	db  *gorm.DB
	seq atomic.Int64
	now func() time.Time
}

func NewGormLedger(driver, dsn string) (*GormLedger, error) {
	gormDB, err := dbpkg.OpenGorm(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open gorm ledger: %w", err)
	}
	return NewGormLedgerFromDB(gormDB)
}

func NewGormLedgerFromDB(gormDB *gorm.DB) (*GormLedger, error) {
	l := &GormLedger{db: gormDB, now: func() time.Time { return time.Now().UTC() }}
	if err := l.migrate(); err != nil {
		return nil, err
	}
	l.seq.Store(l.now().UnixNano())
	return l, nil
}

func (l *GormLedger) migrate() error {
	return l.db.AutoMigrate(&consultationRow{}, &conversationLogRow{}, &diagnosisRow{}, &appointmentRow{})
}

func (l *GormLedger) CreateConsultation(ctx context.Context, patientID, initialNote string) (string, error) {
	now := l.now()
	row := consultationRow{
		ID:          uuid.New().String(),
		PatientID:   patientID,
		InitialNote: initialNote,
		Status:      string(models.SessionActive),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("create consultation: %w", err)
	}
	return row.ID, nil
}

func (l *GormLedger) AppendTurn(ctx context.Context, consultationID string, role models.Role, text string, metadata interface{}) error {
	meta, err := encodeMetadata(metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	row := conversationLogRow{
		ID:             uuid.New().String(),
		ConsultationID: consultationID,
		Sequence:       l.seq.Add(1),
		Role:           string(role),
		Message:        text,
		Metadata:       string(meta),
		Timestamp:      l.now(),
	}
	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

func (l *GormLedger) RecordDiagnosis(ctx context.Context, consultationID string, outcome models.DiagnosisOutcome) error {
	diseases, err := json.Marshal(outcome.Diseases)
	if err != nil {
		return err
	}
	actions, err := json.Marshal(outcome.RecommendedActions)
	if err != nil {
		return err
	}
	now := l.now()

	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&consultationRow{}).Where("id = ?", consultationID).Updates(map[string]any{
			"diseases_json":  string(diseases),
			"severity_score": outcome.SeverityScore,
			"urgency":        string(outcome.Urgency),
			"specialty":      outcome.Specialty,
			"updated_at":     now,
		})
		if res.Error != nil {
			return fmt.Errorf("update consultation: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		for _, d := range outcome.Diseases {
			row := diagnosisRow{
				ID:             uuid.New().String(),
				ConsultationID: consultationID,
				DiseaseName:    d.Name,
				Confidence:     d.Confidence,
				SeverityLevel:  d.Severity,
				ActionsJSON:    string(actions),
				CreatedAt:      now,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("insert diagnosis: %w", err)
			}
		}
		return nil
	})
}

func (l *GormLedger) CloseConsultation(ctx context.Context, consultationID string, status models.SessionStatus) error {
	now := l.now()
	res := l.db.WithContext(ctx).Model(&consultationRow{}).Where("id = ?", consultationID).Updates(map[string]any{
		"status":     string(status),
		"updated_at": now,
		"closed_at":  now,
	})
	if res.Error != nil {
		return fmt.Errorf("close consultation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (l *GormLedger) GetConsultation(ctx context.Context, consultationID string) (*models.Consultation, error) {
	var row consultationRow
	err := l.db.WithContext(ctx).Where("id = ?", consultationID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get consultation: %w", err)
	}
	c := row.toModel()
	return &c, nil
}

func (l *GormLedger) ListConsultations(ctx context.Context, patientID string) ([]models.ConsultationSummary, error) {
	var rows []consultationRow
	err := l.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list consultations: %w", err)
	}

	summaries := make([]models.ConsultationSummary, 0, len(rows))
	for _, row := range rows {
		s := summarize(row.toModel())
		var appt appointmentRow
		err := l.db.WithContext(ctx).Where("consultation_id = ?", row.ID).Take(&appt).Error
		switch {
		case err == nil:
			s.AppointmentDate = appt.DateKey
			s.AppointmentTime = appt.Time
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, fmt.Errorf("load appointment: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

func (l *GormLedger) ListTurns(ctx context.Context, consultationID string) ([]models.ConversationLog, error) {
	var rows []conversationLogRow
	err := l.db.WithContext(ctx).
		Where("consultation_id = ?", consultationID).
		Order("sequence ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	out := make([]models.ConversationLog, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (l *GormLedger) CreateAppointment(ctx context.Context, appt *models.Appointment) error {
	if appt.ID == "" {
		appt.ID = uuid.New().String()
	}
	if appt.CreatedAt.IsZero() {
		appt.CreatedAt = l.now()
	}
	row := appointmentRowFromModel(*appt)
	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}
	return nil
}

func (l *GormLedger) GetAppointment(ctx context.Context, appointmentID string) (*models.Appointment, error) {
	var row appointmentRow
	err := l.db.WithContext(ctx).Where("id = ?", appointmentID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	a := row.toModel()
	return &a, nil
}

func (l *GormLedger) BookedTimes(ctx context.Context, doctorID, date string) ([]string, error) {
	var times []string
	err := l.db.WithContext(ctx).
		Model(&appointmentRow{}).
		Where("doctor_id = ? AND date_key = ? AND status = ?", doctorID, date, string(models.AppointmentScheduled)).
		Order("time ASC").
		Pluck("time", &times).Error
	if err != nil {
		return nil, fmt.Errorf("booked times: %w", err)
	}
	return times, nil
}

// Close releases the underlying connection pool.
func (l *GormLedger) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
