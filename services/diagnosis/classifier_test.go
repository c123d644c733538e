package diagnosis

import (
	"context"
	"errors"
	"testing"

	"medinet/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompletion struct {
	reply string
	err   error
	calls int
}

func (s *stubCompletion) Complete(context.Context, string, string) (string, error) {
	s.calls++
	return s.reply, s.err
}

func TestAggregateSeverityWeightedMean(t *testing.T) {
	t.Parallel()

	got := AggregateSeverity([]models.Disease{
		{Name: "a", Confidence: 80, Severity: 60},
		{Name: "b", Confidence: 20, Severity: 90},
	})
	assert.Equal(t, 66, got)
}

func TestAggregateSeverityZeroConfidence(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultAggregateSeverity, AggregateSeverity(nil))
	assert.Equal(t, DefaultAggregateSeverity, AggregateSeverity([]models.Disease{{Name: "x", Confidence: 0, Severity: 90}}))
}

func TestUrgencyThresholds(t *testing.T) {
	t.Parallel()

	cases := map[int]models.UrgencyLevel{
		100: models.UrgencyCritical,
		85:  models.UrgencyCritical,
		84:  models.UrgencyHigh,
		70:  models.UrgencyHigh,
		69:  models.UrgencyMedium,
		50:  models.UrgencyMedium,
		49:  models.UrgencyLow,
		0:   models.UrgencyLow,
	}
	for score, want := range cases {
		assert.Equal(t, want, DefaultThresholds.Urgency(score), "score %d", score)
	}
}

func TestParseOutcomeComputesMissingAggregate(t *testing.T) {
	t.Parallel()

	text := `Here is my analysis:
{"diseases":[{"name":"Influenza","confidence":80,"severity":60},{"name":"Strep throat","confidence":20,"severity":90}],
 "recommendedActions":["Rest"]}
Take care.`
	out, err := ParseOutcome(text, DefaultThresholds)
	require.NoError(t, err)
	assert.Len(t, out.Diseases, 2)
	assert.Equal(t, 66, out.SeverityScore)
	assert.Equal(t, models.UrgencyMedium, out.Urgency)
	assert.Equal(t, []string{"Rest"}, out.RecommendedActions)
	assert.Empty(t, out.Specialty)
}

func TestParseOutcomeKeepsSuppliedTierAndScore(t *testing.T) {
	t.Parallel()

	text := "```json\n{\"diseases\":[{\"name\":\"Angina\",\"confidence\":70,\"severity\":80}],\"overallSeverity\":72,\"urgencyLevel\":\"Critical\"}\n```"
	out, err := ParseOutcome(text, DefaultThresholds)
	require.NoError(t, err)
	assert.Equal(t, 72, out.SeverityScore)
	assert.Equal(t, models.UrgencyCritical, out.Urgency)
	assert.Equal(t, defaultActions, out.RecommendedActions)
}

func TestParseOutcomeDefaultsAndClamps(t *testing.T) {
	t.Parallel()

	text := `{"diseases":[{"name":"Thing"},{"name":""},{"name":"Other","confidence":150,"severity":-3}],"urgencyLevel":"whenever"}`
	out, err := ParseOutcome(text, DefaultThresholds)
	require.NoError(t, err)
	require.Len(t, out.Diseases, 2)
	assert.Equal(t, 50, out.Diseases[0].Confidence)
	assert.Equal(t, 50, out.Diseases[0].Severity)
	assert.Equal(t, 100, out.Diseases[1].Confidence)
	assert.Equal(t, 0, out.Diseases[1].Severity)
	assert.True(t, out.Urgency.Valid())
}

func TestParseOutcomeSkipsLeadingNonDiagnosisObject(t *testing.T) {
	t.Parallel()

	text := `{"note":"ignore me"} then {"diseases":[{"name":"Asthma","confidence":90,"severity":40}]}`
	out, err := ParseOutcome(text, DefaultThresholds)
	require.NoError(t, err)
	assert.Equal(t, "Asthma", out.Diseases[0].Name)
	assert.Equal(t, models.UrgencyLow, out.Urgency)
}

func TestParseOutcomeRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"", "no json here", `{"diseases":[]}`, `{"diseases":[{"name":"  "}]}`, `{broken`} {
		_, err := ParseOutcome(text, DefaultThresholds)
		assert.Error(t, err, text)
	}
}

func TestClassifyFallsBackOnFailure(t *testing.T) {
	t.Parallel()

	c := NewClassifier(&stubCompletion{err: errors.New("timeout")}, Thresholds{}, nil)
	out := c.Classify(context.Background(), nil)
	assert.Equal(t, FallbackOutcome(), out)

	c = NewClassifier(&stubCompletion{reply: "I cannot help with that"}, Thresholds{}, nil)
	out = c.Classify(context.Background(), nil)
	assert.Equal(t, "Common Viral Infection", out.Diseases[0].Name)
	assert.Equal(t, models.UrgencyLow, out.Urgency)
	assert.Equal(t, 40, out.SeverityScore)
}

func TestClassifyUsesCustomThresholds(t *testing.T) {
	t.Parallel()

	stub := &stubCompletion{reply: `{"diseases":[{"name":"X","confidence":50,"severity":60}]}`}
	c := NewClassifier(stub, Thresholds{Critical: 60, High: 40, Medium: 20}, nil)
	out := c.Classify(context.Background(), []models.Turn{{Role: models.RolePatient, Content: "pain"}})
	assert.Equal(t, models.UrgencyCritical, out.Urgency)
	assert.Equal(t, 1, stub.calls)
}
