package dialogue

import (
	"context"
	"errors"
	"sync"
	"testing"

	"medinet/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedCompletion struct {
	mu      sync.Mutex
	replies []string
	err     error
	prompts []string
}

func (c *scriptedCompletion) Complete(_ context.Context, prompt, _ string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	if c.err != nil {
		return "", c.err
	}
	if len(c.replies) == 0 {
		return "Anything else?", nil
	}
	r := c.replies[0]
	c.replies = c.replies[1:]
	return r, nil
}

func transcript(texts ...string) []models.Turn {
	out := make([]models.Turn, 0, len(texts))
	for i, txt := range texts {
		role := models.RolePatient
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		out = append(out, models.Turn{Role: role, Content: txt})
	}
	return out
}

func TestGreet(t *testing.T) {
	t.Parallel()

	svc := NewDialogueService(&scriptedCompletion{}, 0, 0, nil)
	assert.Contains(t, svc.Greet("Ana"), "Hello Ana!")
	assert.Contains(t, svc.Greet(""), "Hello!")
	assert.Equal(t, svc.Greet("Ana"), svc.Greet("Ana"))
}

func TestNextTurnAsksQuestionBeforeReady(t *testing.T) {
	t.Parallel()

	c := &scriptedCompletion{replies: []string{"How long has this lasted?"}}
	svc := NewDialogueService(c, 3, 6, nil)

	reply := svc.NextTurn(context.Background(), transcript("I have a fever"), 1)
	assert.False(t, reply.ReadyForDiagnosis)
	assert.Equal(t, "How long has this lasted?", reply.Text)
	require.Len(t, c.prompts, 1)
	assert.Contains(t, c.prompts[0], "Patient: I have a fever")
	assert.Contains(t, c.prompts[0], "1/6")
}

func TestNextTurnSentinelBelowMinTurnsIsNotReady(t *testing.T) {
	t.Parallel()

	c := &scriptedCompletion{replies: []string{"DIAGNOSIS_READY: Any allergies?"}}
	svc := NewDialogueService(c, 3, 6, nil)

	reply := svc.NextTurn(context.Background(), transcript("fever"), 1)
	assert.False(t, reply.ReadyForDiagnosis)
	assert.Equal(t, "Any allergies?", reply.Text)
}

func TestNextTurnSentinelAtMinTurnsIsReady(t *testing.T) {
	t.Parallel()

	c := &scriptedCompletion{replies: []string{"diagnosis_ready Thanks, I have what I need."}}
	svc := NewDialogueService(c, 3, 6, nil)

	reply := svc.NextTurn(context.Background(), transcript("a", "b", "c"), 3)
	assert.True(t, reply.ReadyForDiagnosis)
	assert.Equal(t, "Thanks, I have what I need.", reply.Text)
}

func TestNextTurnBareSentinelUsesTransition(t *testing.T) {
	t.Parallel()

	c := &scriptedCompletion{replies: []string{"DIAGNOSIS_READY"}}
	svc := NewDialogueService(c, 3, 6, nil)

	reply := svc.NextTurn(context.Background(), nil, 4)
	assert.True(t, reply.ReadyForDiagnosis)
	assert.Equal(t, TransitionText, reply.Text)
}

func TestNextTurnMaxTurnsForcesReadiness(t *testing.T) {
	t.Parallel()

	c := &scriptedCompletion{replies: []string{"One more question?"}}
	svc := NewDialogueService(c, 3, 6, nil)

	reply := svc.NextTurn(context.Background(), nil, 6)
	assert.True(t, reply.ReadyForDiagnosis)
	assert.Equal(t, TransitionText, reply.Text)
}

func TestNextTurnCompletionFailureUsesFallback(t *testing.T) {
	t.Parallel()

	c := &scriptedCompletion{err: errors.New("quota exceeded")}
	svc := NewDialogueService(c, 3, 6, nil)

	for turn := 1; turn <= 5; turn++ {
		reply := svc.NextTurn(context.Background(), nil, turn)
		assert.False(t, reply.ReadyForDiagnosis, "turn %d", turn)
		assert.Equal(t, fallbackQuestions[turn-1], reply.Text)
	}
	reply := svc.NextTurn(context.Background(), nil, 6)
	assert.True(t, reply.ReadyForDiagnosis)
	assert.Equal(t, fallbackQuestions[5], reply.Text)
}

func TestReadinessBoundRegardlessOfOutput(t *testing.T) {
	t.Parallel()

	outputs := []string{"", "   ", "DIAGNOSIS_READY", "what?", "diagnosis_ready: ok"}
	for _, out := range outputs {
		c := &scriptedCompletion{replies: []string{out, out, out, out, out, out}}
		svc := NewDialogueService(c, 3, 6, nil)
		ready := false
		for turn := 1; turn <= 6 && !ready; turn++ {
			r := svc.NextTurn(context.Background(), nil, turn)
			ready = r.ReadyForDiagnosis
			assert.NotEmpty(t, r.Text)
		}
		assert.True(t, ready, "output %q never became ready", out)
	}
}

func TestFallbackQuestionClamps(t *testing.T) {
	t.Parallel()

	assert.Equal(t, fallbackQuestions[0], FallbackQuestion(0))
	assert.Equal(t, fallbackQuestions[5], FallbackQuestion(42))
}
