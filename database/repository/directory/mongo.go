package directoryRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medinet/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoDirectory struct {
	doctors  *mongo.Collection
	patients *mongo.Collection
}

func NewMongoDirectory(db *mongo.Database) (*MongoDirectory, error) {
	d := &MongoDirectory{
		doctors:  db.Collection("doctors"),
		patients: db.Collection("patients"),
	}
	if err := d.ensureIndexes(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *MongoDirectory) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	doctorIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{
			{Key: "specialty", Value: 1},
			{Key: "available", Value: 1},
			{Key: "experienceYears", Value: -1},
		}},
	}
	if _, err := d.doctors.Indexes().CreateMany(ctx, doctorIdx); err != nil {
		return fmt.Errorf("failed to create doctor indexes: %w", err)
	}
	patientIdx := mongo.IndexModel{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)}
	if _, err := d.patients.Indexes().CreateOne(ctx, patientIdx); err != nil {
		return fmt.Errorf("failed to create patient indexes: %w", err)
	}
	return nil
}

func (d *MongoDirectory) FindBySpecialty(ctx context.Context, specialty string) ([]models.Doctor, error) {
	filter := bson.M{"specialty": specialty, "available": true}
	opts := options.Find().SetSort(bson.D{{Key: "experienceYears", Value: -1}, {Key: "_id", Value: 1}})
	cursor, err := d.doctors.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var doctors []models.Doctor
	if err := cursor.All(ctx, &doctors); err != nil {
		return nil, err
	}
	return doctors, nil
}

func (d *MongoDirectory) GetDoctor(ctx context.Context, doctorID string) (*models.Doctor, error) {
	var doc models.Doctor
	err := d.doctors.FindOne(ctx, bson.M{"id": doctorID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *MongoDirectory) GetPatient(ctx context.Context, patientID string) (*models.Patient, error) {
	var p models.Patient
	err := d.patients.FindOne(ctx, bson.M{"id": patientID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertDoctor inserts or replaces a doctor keyed by ID.
func (d *MongoDirectory) UpsertDoctor(ctx context.Context, doc models.Doctor) error {
	_, err := d.doctors.ReplaceOne(ctx, bson.M{"id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (d *MongoDirectory) UpsertPatient(ctx context.Context, p models.Patient) error {
	_, err := d.patients.ReplaceOne(ctx, bson.M{"id": p.ID}, p, options.Replace().SetUpsert(true))
	return err
}
