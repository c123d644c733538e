package dialogue

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"medinet/models"
	ai "medinet/services/intelligence"

	"go.uber.org/zap"
)

const (
	DefaultMinTurns = 3
	DefaultMaxTurns = 6

	// ReadySentinel prefixes a completion when the model has gathered enough.
	ReadySentinel = "DIAGNOSIS_READY"

	TransitionText = "Thank you for providing detailed information. Let me analyze your symptoms now."
)

var sentinelPattern = regexp.MustCompile(`(?i)^` + ReadySentinel + `[:\s]*`)

var fallbackQuestions = []string{
	"I understand. How long have you been experiencing these symptoms?",
	"On a scale of 1-10, how severe is your discomfort?",
	"Have you noticed any other symptoms along with this?",
	"Does anything make your symptoms better or worse?",
	"Have you had similar issues in the past?",
	"Thank you for sharing. Let me analyze this information.",
}

const doctorInstructions = `You are an empathetic AI medical assistant conducting a preliminary consultation.

Ask ONE clear, focused follow-up question at a time about:
- Duration of symptoms (how long?)
- Severity/intensity (mild, moderate, severe?)
- Associated symptoms (anything else?)
- Triggering factors (what makes it worse/better?)
- Previous medical history (had this before?)

Be conversational and caring. Never ask multiple questions at once.
When duration, severity, associated symptoms, triggers and history are known, start your response with "DIAGNOSIS_READY".

You are gathering information only, not diagnosing. Keep responses under 2 sentences.`

// Reply is the outcome of one dialogue step.
type Reply struct {
	Text              string
	ReadyForDiagnosis bool
}

// DialogueService asks follow-up questions until enough is known to diagnose.
// The turn counter belongs to the caller's session and is passed in.
type DialogueService interface {
	Greet(name string) string
	NextTurn(ctx context.Context, transcript []models.Turn, turnCount int) Reply
}

type DefaultDialogueService struct {
	Completion ai.CompletionClient
	MinTurns   int
	MaxTurns   int
	Logger     *zap.Logger
}

func NewDialogueService(completion ai.CompletionClient, minTurns, maxTurns int, logger *zap.Logger) *DefaultDialogueService {
	if minTurns <= 0 {
		minTurns = DefaultMinTurns
	}
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	if maxTurns < minTurns {
		maxTurns = minTurns
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultDialogueService{Completion: completion, MinTurns: minTurns, MaxTurns: maxTurns, Logger: logger}
}

// Greet opens a consultation. It never calls the model.
func (s *DefaultDialogueService) Greet(name string) string {
	name = strings.TrimSpace(name)
	hello := "Hello!"
	if name != "" {
		hello = fmt.Sprintf("Hello %s!", name)
	}
	return hello + " I'm your AI medical assistant. I'm here to help understand your health concerns and guide you to the right specialist.\n\n" +
		"Please describe your main symptoms or what's bothering you today.\n\n" +
		"Note: This is a preliminary screening tool, not a substitute for professional medical advice."
}

// NextTurn produces the assistant's next utterance. turnCount is the already
// incremented count for this step (1 on the first patient message).
func (s *DefaultDialogueService) NextTurn(ctx context.Context, transcript []models.Turn, turnCount int) Reply {
	reachedMax := turnCount >= s.MaxTurns

	raw, err := s.Completion.Complete(ctx, s.buildPrompt(transcript, turnCount), doctorInstructions)
	if err != nil {
		s.Logger.Warn("Dialogue completion failed, using fallback question",
			zap.Int("turn", turnCount), zap.Error(err))
		return Reply{Text: FallbackQuestion(turnCount), ReadyForDiagnosis: reachedMax}
	}

	trimmed := strings.TrimSpace(raw)
	hasSentinel := sentinelPattern.MatchString(trimmed)
	ready := (hasSentinel && turnCount >= s.MinTurns) || reachedMax

	text := strings.TrimSpace(sentinelPattern.ReplaceAllString(trimmed, ""))
	switch {
	case reachedMax && !hasSentinel:
		text = TransitionText
	case text == "" && ready:
		text = TransitionText
	case text == "":
		text = FallbackQuestion(turnCount)
	}

	s.Logger.Debug("Dialogue step",
		zap.Int("turn", turnCount),
		zap.Int("maxTurns", s.MaxTurns),
		zap.Bool("sentinel", hasSentinel),
		zap.Bool("ready", ready))

	return Reply{Text: text, ReadyForDiagnosis: ready}
}

func (s *DefaultDialogueService) buildPrompt(transcript []models.Turn, turnCount int) string {
	var sb strings.Builder
	sb.WriteString("You are conducting a medical consultation. Review the conversation and decide:\n")
	sb.WriteString("1. If you need more information, ask ONE specific follow-up question\n")
	sb.WriteString(fmt.Sprintf("2. If you have enough information, respond with %q at the start\n\n", ReadySentinel))
	sb.WriteString(fmt.Sprintf("Current question count: %d/%d\n\nConversation:\n", turnCount, s.MaxTurns))
	sb.WriteString(FormatTranscript(transcript))
	sb.WriteString(fmt.Sprintf("\nYour response (if ready for diagnosis, start with %q):", ReadySentinel))
	return sb.String()
}

// FallbackQuestion picks a fixed question by 1-based turn index.
func FallbackQuestion(turnCount int) string {
	idx := turnCount - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(fallbackQuestions) {
		idx = len(fallbackQuestions) - 1
	}
	return fallbackQuestions[idx]
}

// FormatTranscript renders patient and assistant turns one per line.
func FormatTranscript(transcript []models.Turn) string {
	var sb strings.Builder
	for _, t := range transcript {
		switch t.Role {
		case models.RolePatient:
			sb.WriteString("Patient: ")
		case models.RoleAssistant:
			sb.WriteString("AI Doctor: ")
		default:
			continue
		}
		sb.WriteString(t.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}
