// Command seed fills the doctor directory with sample doctors around a fixed
// point so the consultation flow can be exercised locally.
package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"medinet/config"
	"medinet/database"
	directoryRepo "medinet/database/repository/directory"
	"medinet/models"
	"medinet/services/diagnosis"
	"medinet/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	dir, err := directoryRepo.NewMongoDirectory(database.Database())
	if err != nil {
		logger.Fatal("seed: directory init failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Fixed patient point for simulation (Nairobi CBD).
	originLat, originLon := -1.2864, 36.8172
	doctorsPerSpecialty := 3
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	count := 0
	for _, specialty := range diagnosis.Specialties {
		for i := 0; i < doctorsPerSpecialty; i++ {
			// Spread clinics up to ~8 km away.
			distKm := 0.5 + rng.Float64()*7.5
			angle := rng.Float64() * 2 * math.Pi
			lat := originLat + (distKm/111.0)*math.Cos(angle)
			lon := originLon + (distKm/(111.0*math.Cos(originLat*math.Pi/180)))*math.Sin(angle)

			n := count + 1
			doc := models.Doctor{
				ID:              uuid.New().String(),
				Name:            fmt.Sprintf("Doctor %02d", n),
				Specialty:       specialty,
				Available:       i < doctorsPerSpecialty-1,
				ExperienceYears: 3 + rng.Intn(25),
				Email:           fmt.Sprintf("doctor%02d@medinet.local", n),
				Phone:           fmt.Sprintf("+2547000000%02d", n),
				WhatsApp:        fmt.Sprintf("+2547000000%02d", n),
				ClinicAddress:   fmt.Sprintf("%s Clinic, Suite %d", specialty, n),
				ClinicLocation:  &models.Location{Latitude: lat, Longitude: lon},
			}
			if err := dir.UpsertDoctor(ctx, doc); err != nil {
				logger.Fatal("seed: upsert doctor failed", zap.String("specialty", specialty), zap.Error(err))
			}
			count++
		}
	}

	patient := models.Patient{ID: "demo-patient", Name: "Demo Patient", Email: "patient@medinet.local", Age: 34, Gender: "female"}
	if err := dir.UpsertPatient(ctx, patient); err != nil {
		logger.Fatal("seed: upsert patient failed", zap.Error(err))
	}

	logger.Info("seed: directory populated", zap.Int("doctors", count), zap.String("patientID", patient.ID))
}
