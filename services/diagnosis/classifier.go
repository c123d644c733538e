package diagnosis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"medinet/models"
	ai "medinet/services/intelligence"

	"go.uber.org/zap"
)

// DefaultAggregateSeverity is used when no disease carries any confidence.
const DefaultAggregateSeverity = 50

const defaultDiseaseScore = 50

var defaultActions = []string{
	"Consult with a medical professional",
	"Monitor your symptoms",
}

var errNoDiagnosis = errors.New("no usable diagnosis in completion")

const diagnosisInstructions = `You are a medical AI that analyzes symptoms and predicts possible diseases. Given a list of symptoms, you must:
1. Identify 3-5 most likely diseases/conditions
2. Assign a confidence score (0-100) and a severity score (0-100) for each disease
3. Calculate an overall severity score (0-100) based on symptom urgency
4. Categorize urgency as: low, medium, high, or critical

Format your response as JSON:
{
  "diseases": [{"name": "Disease Name", "confidence": 85, "severity": 60, "description": "Brief explanation"}],
  "overallSeverity": 65,
  "urgencyLevel": "medium",
  "recommendedActions": ["Action 1", "Action 2"]
}

Base your analysis on medical knowledge but always note this is preliminary screening, not a diagnosis.`

// Thresholds are the inclusive lower bounds of each urgency tier.
type Thresholds struct {
	Critical int
	High     int
	Medium   int
}

var DefaultThresholds = Thresholds{Critical: 85, High: 70, Medium: 50}

// Urgency maps an aggregate severity onto a tier.
func (t Thresholds) Urgency(score int) models.UrgencyLevel {
	switch {
	case score >= t.Critical:
		return models.UrgencyCritical
	case score >= t.High:
		return models.UrgencyHigh
	case score >= t.Medium:
		return models.UrgencyMedium
	default:
		return models.UrgencyLow
	}
}

// Classifier turns a transcript into a ranked outcome. It never fails: every
// internal problem degrades to FallbackOutcome.
type Classifier interface {
	Classify(ctx context.Context, transcript []models.Turn) models.DiagnosisOutcome
}

type DefaultClassifier struct {
	Completion ai.CompletionClient
	Thresholds Thresholds
	Logger     *zap.Logger
}

func NewClassifier(completion ai.CompletionClient, thresholds Thresholds, logger *zap.Logger) *DefaultClassifier {
	if thresholds == (Thresholds{}) {
		thresholds = DefaultThresholds
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultClassifier{Completion: completion, Thresholds: thresholds, Logger: logger}
}

func (c *DefaultClassifier) Classify(ctx context.Context, transcript []models.Turn) models.DiagnosisOutcome {
	raw, err := c.Completion.Complete(ctx, buildDiagnosisPrompt(transcript), diagnosisInstructions)
	if err != nil {
		c.Logger.Warn("Diagnosis completion failed, using fallback outcome", zap.Error(err))
		return FallbackOutcome()
	}

	outcome, err := ParseOutcome(raw, c.Thresholds)
	if err != nil {
		c.Logger.Warn("Diagnosis response unusable, using fallback outcome", zap.Error(err))
		return FallbackOutcome()
	}

	c.Logger.Info("Diagnosis classified",
		zap.Int("diseases", len(outcome.Diseases)),
		zap.Int("severity", outcome.SeverityScore),
		zap.String("urgency", string(outcome.Urgency)))
	return outcome
}

// FallbackOutcome is the fixed low-severity result used whenever
// classification cannot complete.
func FallbackOutcome() models.DiagnosisOutcome {
	return models.DiagnosisOutcome{
		Diseases: []models.Disease{{
			Name:        "Common Viral Infection",
			Confidence:  60,
			Severity:    40,
			Description: "Based on general symptoms",
		}},
		SeverityScore: 40,
		Urgency:       models.UrgencyLow,
		RecommendedActions: []string{
			"Rest and stay hydrated",
			"Monitor symptoms",
			"Consult a doctor if symptoms worsen",
		},
	}
}

type rawDisease struct {
	Name        string   `json:"name"`
	Confidence  *float64 `json:"confidence"`
	Severity    *float64 `json:"severity"`
	Description string   `json:"description"`
}

type rawOutcome struct {
	Diseases           []rawDisease `json:"diseases"`
	OverallSeverity    *float64     `json:"overallSeverity"`
	UrgencyLevel       string       `json:"urgencyLevel"`
	RecommendedActions []string     `json:"recommendedActions"`
}

// ParseOutcome reads the first well-formed JSON object in text that carries
// at least one named disease.
func ParseOutcome(text string, thresholds Thresholds) (models.DiagnosisOutcome, error) {
	raw, err := firstOutcomeBlock(text)
	if err != nil {
		return models.DiagnosisOutcome{}, err
	}

	var diseases []models.Disease
	for _, d := range raw.Diseases {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			continue
		}
		diseases = append(diseases, models.Disease{
			Name:        name,
			Confidence:  scoreOrDefault(d.Confidence),
			Severity:    scoreOrDefault(d.Severity),
			Description: strings.TrimSpace(d.Description),
		})
	}
	if len(diseases) == 0 {
		return models.DiagnosisOutcome{}, errNoDiagnosis
	}

	score := AggregateSeverity(diseases)
	if raw.OverallSeverity != nil {
		score = clampScore(*raw.OverallSeverity)
	}

	urgency := models.UrgencyLevel(strings.ToLower(strings.TrimSpace(raw.UrgencyLevel)))
	if !urgency.Valid() {
		urgency = thresholds.Urgency(score)
	}

	var actions []string
	for _, a := range raw.RecommendedActions {
		if a = strings.TrimSpace(a); a != "" {
			actions = append(actions, a)
		}
	}
	if len(actions) == 0 {
		actions = append([]string(nil), defaultActions...)
	}

	return models.DiagnosisOutcome{
		Diseases:           diseases,
		SeverityScore:      score,
		Urgency:            urgency,
		RecommendedActions: actions,
	}, nil
}

func firstOutcomeBlock(text string) (rawOutcome, error) {
	for i := strings.IndexByte(text, '{'); i >= 0; {
		var out rawOutcome
		dec := json.NewDecoder(strings.NewReader(text[i:]))
		if err := dec.Decode(&out); err == nil && len(out.Diseases) > 0 {
			return out, nil
		}
		next := strings.IndexByte(text[i+1:], '{')
		if next < 0 {
			break
		}
		i += next + 1
	}
	return rawOutcome{}, fmt.Errorf("%w: no JSON block with diseases", errNoDiagnosis)
}

// AggregateSeverity is the confidence-weighted mean severity, rounded. When
// the total confidence is zero it returns DefaultAggregateSeverity.
func AggregateSeverity(diseases []models.Disease) int {
	var weighted, total float64
	for _, d := range diseases {
		weighted += float64(d.Confidence) * float64(d.Severity)
		total += float64(d.Confidence)
	}
	if total == 0 {
		return DefaultAggregateSeverity
	}
	return int(math.Round(weighted / total))
}

func scoreOrDefault(v *float64) int {
	if v == nil {
		return defaultDiseaseScore
	}
	return clampScore(*v)
}

func clampScore(v float64) int {
	if math.IsNaN(v) {
		return defaultDiseaseScore
	}
	return int(math.Round(math.Max(0, math.Min(100, v))))
}

func buildDiagnosisPrompt(transcript []models.Turn) string {
	var patient []string
	var full strings.Builder
	for _, t := range transcript {
		switch t.Role {
		case models.RolePatient:
			patient = append(patient, t.Content)
			full.WriteString("Patient: ")
		case models.RoleAssistant:
			full.WriteString("Doctor: ")
		default:
			continue
		}
		full.WriteString(t.Content)
		full.WriteString("\n")
	}

	return fmt.Sprintf(`Analyze these symptoms and provide a diagnosis in JSON format:

Symptoms: Patient Symptoms Summary: %s

Full Conversation Context:
%s
Respond with JSON in this format:
{
  "diseases": [{"name": "Disease Name", "confidence": 85, "severity": 60, "description": "Brief explanation"}],
  "overallSeverity": 65,
  "urgencyLevel": "medium",
  "recommendedActions": ["Action 1", "Action 2"]
}`, strings.Join(patient, " | "), full.String())
}
