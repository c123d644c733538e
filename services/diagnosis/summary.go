package diagnosis

import (
	"fmt"
	"strings"

	"medinet/models"
)

// Summary renders the patient-facing diagnosis text.
func Summary(outcome models.DiagnosisOutcome) string {
	var sb strings.Builder
	if top, ok := outcome.TopDisease(); ok {
		fmt.Fprintf(&sb, "Based on our conversation, the most likely condition is **%s** (%d%% confidence).\n\n", top.Name, top.Confidence)
	}
	fmt.Fprintf(&sb, "**Severity Level**: %s (%d/100)\n", strings.ToUpper(string(outcome.Urgency)), outcome.SeverityScore)
	fmt.Fprintf(&sb, "**Recommended Specialty**: %s\n\n", outcome.Specialty)
	sb.WriteString("**Recommended Actions**:\n")
	for i, a := range outcome.RecommendedActions {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, a)
	}
	sb.WriteString("\n**Important**: This is an AI-generated preliminary assessment, not a medical diagnosis. ")
	sb.WriteString("Please consult with a healthcare professional for accurate diagnosis and treatment.")
	return sb.String()
}
