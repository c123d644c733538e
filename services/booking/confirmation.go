package booking

import (
	"fmt"
	"strings"

	"medinet/models"
)

// PriorityLabel is the human label for a priority rank.
func PriorityLabel(rank int) string {
	switch rank {
	case 1:
		return "Critical (Urgent)"
	case 2:
		return "High Priority"
	case 3:
		return "Medium Priority"
	case 4:
		return "Low Priority"
	default:
		return "Standard"
	}
}

// Confirmation renders the patient-facing booking message.
func Confirmation(appt models.Appointment) string {
	var sb strings.Builder
	sb.WriteString("**Appointment Scheduled Successfully!**\n\n")
	fmt.Fprintf(&sb, "**Doctor**: Dr. %s\n", appt.DoctorName)
	fmt.Fprintf(&sb, "**Specialty**: %s\n", appt.Specialty)
	fmt.Fprintf(&sb, "**Date**: %s\n", appt.Date.Format("January 02, 2006"))
	fmt.Fprintf(&sb, "**Time**: %s\n", appt.Time)
	fmt.Fprintf(&sb, "**Priority**: %s\n\n", PriorityLabel(appt.PriorityRank))
	sb.WriteString("Please arrive 10 minutes before your appointment time.\n\n")
	sb.WriteString("**Important Reminders**:\n")
	sb.WriteString("- Bring any relevant medical records\n")
	sb.WriteString("- List your current medications\n")
	sb.WriteString("- Prepare questions you want to ask the doctor\n\n")
	sb.WriteString("If you need to reschedule, please contact us at least 24 hours in advance.")
	return sb.String()
}
