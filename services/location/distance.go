package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"medinet/models"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://maps.googleapis.com/maps/api/distancematrix/json"

	// fallbackSpeedKmh is the assumed average driving speed for straight-line estimates.
	fallbackSpeedKmh = 40.0
)

var ErrInvalidCoordinates = errors.New("invalid coordinates")

// LocationService computes travel distance from a patient to a clinic.
type LocationService interface {
	Distance(ctx context.Context, origin, dest models.Location) (*models.DistanceResult, error)
	Configured() bool
}

type DefaultLocationService struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
	Logger  *zap.Logger
}

func NewLocationService(apiKey string, logger *zap.Logger) *DefaultLocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultLocationService{
		APIKey:  apiKey,
		BaseURL: DefaultBaseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
		Logger:  logger,
	}
}

func (s *DefaultLocationService) Configured() bool {
	return s.APIKey != ""
}

// Distance asks the Distance Matrix API and falls back to a straight-line
// estimate when the key is missing or the API answers with anything but OK.
func (s *DefaultLocationService) Distance(ctx context.Context, origin, dest models.Location) (*models.DistanceResult, error) {
	if !origin.Valid() || !dest.Valid() {
		return nil, ErrInvalidCoordinates
	}
	if s.Configured() {
		res, err := s.matrix(ctx, origin, dest)
		if err == nil {
			return res, nil
		}
		s.Logger.Warn("Distance matrix lookup failed, using straight-line estimate", zap.Error(err))
	}
	return Estimate(origin, dest), nil
}

type matrixResponse struct {
	Status string `json:"status"`
	Rows   []struct {
		Elements []struct {
			Status   string `json:"status"`
			Distance struct {
				Text  string `json:"text"`
				Value int    `json:"value"`
			} `json:"distance"`
			Duration struct {
				Text  string `json:"text"`
				Value int    `json:"value"`
			} `json:"duration"`
		} `json:"elements"`
	} `json:"rows"`
}

func (s *DefaultLocationService) matrix(ctx context.Context, origin, dest models.Location) (*models.DistanceResult, error) {
	q := url.Values{}
	q.Set("origins", coords(origin))
	q.Set("destinations", coords(dest))
	q.Set("mode", "driving")
	q.Set("units", "metric")
	q.Set("key", s.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("distance matrix http %d", resp.StatusCode)
	}
	var body matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode distance matrix: %w", err)
	}
	if body.Status != "OK" || len(body.Rows) == 0 || len(body.Rows[0].Elements) == 0 {
		return nil, fmt.Errorf("distance matrix status %q", body.Status)
	}
	el := body.Rows[0].Elements[0]
	if el.Status != "OK" {
		return nil, fmt.Errorf("distance matrix element status %q", el.Status)
	}
	return &models.DistanceResult{
		DistanceKm:    float64(el.Distance.Value) / 1000,
		DistanceText:  el.Distance.Text,
		DurationMin:   int(math.Round(float64(el.Duration.Value) / 60)),
		DurationText:  el.Duration.Text,
		NavigationURL: NavigationURL(origin, dest),
	}, nil
}

// Estimate is the straight-line distance driven at fallbackSpeedKmh.
func Estimate(origin, dest models.Location) *models.DistanceResult {
	km := Haversine(origin, dest)
	minutes := int(math.Round(km / fallbackSpeedKmh * 60))
	return &models.DistanceResult{
		DistanceKm:    km,
		DistanceText:  fmt.Sprintf("%.1f km", km),
		DurationMin:   minutes,
		DurationText:  fmt.Sprintf("%d min", minutes),
		NavigationURL: NavigationURL(origin, dest),
		Estimated:     true,
	}
}

// Haversine calculates the great-circle distance (in km) between two points.
func Haversine(a, b models.Location) float64 {
	const R = 6371
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180
	lat1Rad := a.Latitude * math.Pi / 180
	lat2Rad := b.Latitude * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return R * c
}

func NavigationURL(origin, dest models.Location) string {
	return fmt.Sprintf("https://www.google.com/maps/dir/?api=1&origin=%s&destination=%s&travelmode=driving", coords(origin), coords(dest))
}

func coords(l models.Location) string {
	return fmt.Sprintf("%g,%g", l.Latitude, l.Longitude)
}

// Summary renders the patient-facing location block.
func Summary(address string, res models.DistanceResult) string {
	if address == "" {
		address = "See navigation link"
	}
	return fmt.Sprintf("**Clinic Location**\n\n**Address**: %s\n\n**Distance from your location**: %s\n**Estimated travel time**: %s\n\n**[Open navigation in Google Maps](%s)**",
		address, res.DistanceText, res.DurationText, res.NavigationURL)
}
