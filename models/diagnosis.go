package models

import "time"

type UrgencyLevel string

const (
	UrgencyLow      UrgencyLevel = "low"
	UrgencyMedium   UrgencyLevel = "medium"
	UrgencyHigh     UrgencyLevel = "high"
	UrgencyCritical UrgencyLevel = "critical"
)

// Valid reports whether u is one of the four known tiers.
func (u UrgencyLevel) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}

// Disease is one ranked candidate. Confidence and Severity are 0-100.
type Disease struct {
	Name        string `bson:"name" json:"name"`
	Confidence  int    `bson:"confidence" json:"confidence"`
	Severity    int    `bson:"severity" json:"severity"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
}

// DiagnosisOutcome is produced once per consultation when questioning ends.
// Specialty stays empty until the specialty resolver has run.
type DiagnosisOutcome struct {
	Diseases           []Disease    `bson:"diseases" json:"diseases"`
	SeverityScore      int          `bson:"severityScore" json:"severityScore"`
	Urgency            UrgencyLevel `bson:"urgency" json:"urgency"`
	Specialty          string       `bson:"specialty" json:"specialty"`
	RecommendedActions []string     `bson:"recommendedActions" json:"recommendedActions"`
}

// TopDisease returns the highest-confidence disease, first one wins on ties.
func (d DiagnosisOutcome) TopDisease() (Disease, bool) {
	if len(d.Diseases) == 0 {
		return Disease{}, false
	}
	top := d.Diseases[0]
	for _, dz := range d.Diseases[1:] {
		if dz.Confidence > top.Confidence {
			top = dz
		}
	}
	return top, true
}

// DiagnosisRecord is the persisted row for one disease of an outcome.
type DiagnosisRecord struct {
	ID             string    `bson:"id" json:"id"`
	ConsultationID string    `bson:"consultationId" json:"consultationId"`
	DiseaseName    string    `bson:"diseaseName" json:"diseaseName"`
	Confidence     int       `bson:"confidence" json:"confidence"`
	SeverityLevel  int       `bson:"severityLevel" json:"severityLevel"`
	Actions        []string  `bson:"actions" json:"actions"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
}
