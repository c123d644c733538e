package directoryRepo

import (
	"context"
	"errors"
	"testing"
	"time"

	"medinet/models"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingDirectory struct {
	doctors []models.Doctor
	err     error
	calls   int
}

func (d *countingDirectory) FindBySpecialty(context.Context, string) ([]models.Doctor, error) {
	d.calls++
	return d.doctors, d.err
}

func (d *countingDirectory) GetDoctor(_ context.Context, id string) (*models.Doctor, error) {
	for _, doc := range d.doctors {
		if doc.ID == id {
			return &doc, nil
		}
	}
	return nil, ErrNotFound
}

// Points at a closed port so every cache call fails fast.
func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestCachedDirectoryFallsThroughWhenCacheDown(t *testing.T) {
	t.Parallel()

	next := &countingDirectory{doctors: []models.Doctor{{ID: "d1", Name: "Ada", Specialty: "Cardiology"}}}
	cached := NewCachedDoctorDirectory(next, unreachableRedis(), time.Minute, nil)

	docs, err := cached.FindBySpecialty(context.Background(), "Cardiology")
	require.NoError(t, err)
	assert.Equal(t, next.doctors, docs)
	assert.Equal(t, 1, next.calls)

	doc, err := cached.GetDoctor(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", doc.Name)
}

func TestCachedDirectoryPropagatesBackingError(t *testing.T) {
	t.Parallel()

	next := &countingDirectory{err: errors.New("mongo down")}
	cached := NewCachedDoctorDirectory(next, unreachableRedis(), 0, nil)

	_, err := cached.FindBySpecialty(context.Background(), "ENT")
	assert.EqualError(t, err, "mongo down")
}
