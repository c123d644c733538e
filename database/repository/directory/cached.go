package directoryRepo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"medinet/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const doctorCachePrefix = "directory:specialty:"

// CachedDoctorDirectory keeps specialty lookups in redis for a short TTL.
// Cache failures never fail a lookup.
type CachedDoctorDirectory struct {
	next   DoctorDirectory
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedDoctorDirectory(next DoctorDirectory, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedDoctorDirectory {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedDoctorDirectory{next: next, client: client, ttl: ttl, logger: logger}
}

func (c *CachedDoctorDirectory) FindBySpecialty(ctx context.Context, specialty string) ([]models.Doctor, error) {
	key := doctorCachePrefix + specialty

	data, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		var doctors []models.Doctor
		if jsonErr := json.Unmarshal([]byte(data), &doctors); jsonErr == nil {
			return doctors, nil
		}
		c.logger.Warn("Discarding corrupt directory cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("Directory cache read failed", zap.String("key", key), zap.Error(err))
	}

	doctors, err := c.next.FindBySpecialty(ctx, specialty)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(doctors); err == nil {
		if err := c.client.Set(ctx, key, b, c.ttl).Err(); err != nil {
			c.logger.Warn("Directory cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return doctors, nil
}

func (c *CachedDoctorDirectory) GetDoctor(ctx context.Context, doctorID string) (*models.Doctor, error) {
	return c.next.GetDoctor(ctx, doctorID)
}

// Invalidate drops the cached list for a specialty.
func (c *CachedDoctorDirectory) Invalidate(ctx context.Context, specialty string) error {
	return c.client.Del(ctx, doctorCachePrefix+specialty).Err()
}
