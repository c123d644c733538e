package ledgerRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medinet/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoLedger struct {
	consultations *mongo.Collection
	logs          *mongo.Collection
	diagnoses     *mongo.Collection
	appointments  *mongo.Collection
	now           func() time.Time
}

// NewMongoLedger returns a Store backed by db and makes sure its indexes exist.
func NewMongoLedger(db *mongo.Database) (*MongoLedger, error) {
	l := &MongoLedger{
		consultations: db.Collection("consultations"),
		logs:          db.Collection("conversation_logs"),
		diagnoses:     db.Collection("diagnoses"),
		appointments:  db.Collection("appointments"),
		now:           time.Now,
	}
	if err := l.ensureIndexes(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *MongoLedger) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	unique := options.Index().SetUnique(true)
	sets := map[*mongo.Collection][]mongo.IndexModel{
		l.consultations: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "patientId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		l.logs: {
			{Keys: bson.D{{Key: "consultationId", Value: 1}, {Key: "timestamp", Value: 1}}},
		},
		l.diagnoses: {
			{Keys: bson.D{{Key: "consultationId", Value: 1}}},
		},
		l.appointments: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "doctorId", Value: 1}, {Key: "dateKey", Value: 1}}},
			{Keys: bson.D{{Key: "consultationId", Value: 1}}},
		},
	}
	for coll, idx := range sets {
		if _, err := coll.Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

func (l *MongoLedger) CreateConsultation(ctx context.Context, patientID, initialNote string) (string, error) {
	now := l.now()
	c := models.Consultation{
		ID:          uuid.New().String(),
		PatientID:   patientID,
		InitialNote: initialNote,
		Status:      models.SessionActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := l.consultations.InsertOne(ctx, c); err != nil {
		return "", fmt.Errorf("insert consultation: %w", err)
	}
	return c.ID, nil
}

func (l *MongoLedger) AppendTurn(ctx context.Context, consultationID string, role models.Role, text string, metadata interface{}) error {
	meta, err := encodeMetadata(metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	entry := models.ConversationLog{
		ID:             uuid.New().String(),
		ConsultationID: consultationID,
		Role:           role,
		Message:        text,
		Metadata:       meta,
		Timestamp:      l.now(),
	}
	_, err = l.logs.InsertOne(ctx, entry)
	return err
}

func (l *MongoLedger) RecordDiagnosis(ctx context.Context, consultationID string, outcome models.DiagnosisOutcome) error {
	now := l.now()
	res, err := l.consultations.UpdateOne(ctx, bson.M{"id": consultationID}, bson.M{"$set": bson.M{
		"diseases":      outcome.Diseases,
		"severityScore": outcome.SeverityScore,
		"urgency":       outcome.Urgency,
		"specialty":     outcome.Specialty,
		"updatedAt":     now,
	}})
	if err != nil {
		return fmt.Errorf("update consultation: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}

	docs := make([]interface{}, 0, len(outcome.Diseases))
	for _, d := range outcome.Diseases {
		docs = append(docs, models.DiagnosisRecord{
			ID:             uuid.New().String(),
			ConsultationID: consultationID,
			DiseaseName:    d.Name,
			Confidence:     d.Confidence,
			SeverityLevel:  d.Severity,
			Actions:        outcome.RecommendedActions,
			CreatedAt:      now,
		})
	}
	if len(docs) == 0 {
		return nil
	}
	_, err = l.diagnoses.InsertMany(ctx, docs)
	return err
}

func (l *MongoLedger) CloseConsultation(ctx context.Context, consultationID string, status models.SessionStatus) error {
	now := l.now()
	res, err := l.consultations.UpdateOne(ctx, bson.M{"id": consultationID}, bson.M{"$set": bson.M{
		"status":    status,
		"updatedAt": now,
		"closedAt":  now,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (l *MongoLedger) GetConsultation(ctx context.Context, consultationID string) (*models.Consultation, error) {
	var c models.Consultation
	err := l.consultations.FindOne(ctx, bson.M{"id": consultationID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (l *MongoLedger) ListConsultations(ctx context.Context, patientID string) ([]models.ConsultationSummary, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := l.consultations.Find(ctx, bson.M{"patientId": patientID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var consultations []models.Consultation
	if err := cursor.All(ctx, &consultations); err != nil {
		return nil, err
	}

	summaries := make([]models.ConsultationSummary, 0, len(consultations))
	for _, c := range consultations {
		s := summarize(c)
		var appt models.Appointment
		err := l.appointments.FindOne(ctx, bson.M{"consultationId": c.ID}).Decode(&appt)
		if err == nil {
			s.AppointmentDate = appt.DateString()
			s.AppointmentTime = appt.Time
		} else if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

func (l *MongoLedger) ListTurns(ctx context.Context, consultationID string) ([]models.ConversationLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cursor, err := l.logs.Find(ctx, bson.M{"consultationId": consultationID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.ConversationLog
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// appointmentDoc adds a day key so bookings can be looked up per calendar day.
type appointmentDoc struct {
	models.Appointment `bson:",inline"`
	DateKey            string `bson:"dateKey"`
}

func (l *MongoLedger) CreateAppointment(ctx context.Context, appt *models.Appointment) error {
	if appt.ID == "" {
		appt.ID = uuid.New().String()
	}
	if appt.CreatedAt.IsZero() {
		appt.CreatedAt = l.now()
	}
	_, err := l.appointments.InsertOne(ctx, appointmentDoc{Appointment: *appt, DateKey: appt.DateString()})
	return err
}

func (l *MongoLedger) GetAppointment(ctx context.Context, appointmentID string) (*models.Appointment, error) {
	var doc appointmentDoc
	err := l.appointments.FindOne(ctx, bson.M{"id": appointmentID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc.Appointment, nil
}

func (l *MongoLedger) BookedTimes(ctx context.Context, doctorID, date string) ([]string, error) {
	filter := bson.M{"doctorId": doctorID, "dateKey": date, "status": models.AppointmentScheduled}
	opts := options.Find().SetProjection(bson.M{"time": 1})
	cursor, err := l.appointments.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Time string `bson:"time"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	times := make([]string, 0, len(rows))
	for _, r := range rows {
		times = append(times, r.Time)
	}
	return times, nil
}

func summarize(c models.Consultation) models.ConsultationSummary {
	s := models.ConsultationSummary{
		ID:            c.ID,
		Status:        c.Status,
		Specialty:     c.Specialty,
		SeverityScore: c.SeverityScore,
		Urgency:       c.Urgency,
		CreatedAt:     c.CreatedAt,
	}
	if top, ok := (models.DiagnosisOutcome{Diseases: c.Diseases}).TopDisease(); ok {
		s.TopDisease = top.Name
	}
	return s
}
