package notification

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"medinet/models"
	"medinet/services/booking"
)

// Report is everything a doctor receives about a booked consultation.
type Report struct {
	ConsultationID string
	Patient        models.Patient
	Symptoms       string
	Transcript     []models.Turn
	Diagnosis      models.DiagnosisOutcome
	Appointment    models.Appointment
	Doctor         models.Doctor
	Location       *models.DistanceResult
	GeneratedAt    time.Time
}

const rule = "==================================================="

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func ageText(age int) string {
	if age <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%d", age)
}

func section(sb *strings.Builder, title string) {
	fmt.Fprintf(sb, "%s\n%s\n%s\n\n", rule, title, rule)
}

// RenderText is the long-form plain text report.
func RenderText(r Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n            MEDICAL CONSULTATION REPORT\n%s\n\n", rule, rule)
	fmt.Fprintf(&sb, "Report ID: %s\nGenerated: %s\n\n", r.ConsultationID, r.GeneratedAt.Format("Jan 2, 2006 3:04 PM"))

	section(&sb, "PATIENT INFORMATION")
	fmt.Fprintf(&sb, "Name:        %s\n", orNA(r.Patient.Name))
	fmt.Fprintf(&sb, "Email:       %s\n", orNA(r.Patient.Email))
	fmt.Fprintf(&sb, "Phone:       %s\n", orNA(r.Patient.Phone))
	fmt.Fprintf(&sb, "Age:         %s\n", ageText(r.Patient.Age))
	fmt.Fprintf(&sb, "Gender:      %s\n\n", orNA(r.Patient.Gender))

	section(&sb, "SYMPTOM SUMMARY")
	sb.WriteString(orNA(r.Symptoms))
	sb.WriteString("\n\n")

	section(&sb, "AI DIAGNOSIS ANALYSIS")
	sb.WriteString("Predicted Conditions:\n")
	for i, d := range r.Diagnosis.Diseases {
		fmt.Fprintf(&sb, "%d. %s (Confidence: %d%%, Severity: %d/100)\n", i+1, d.Name, d.Confidence, d.Severity)
	}
	fmt.Fprintf(&sb, "\nOverall Severity Score: %d/100\n", r.Diagnosis.SeverityScore)
	fmt.Fprintf(&sb, "Urgency Level: %s\n", strings.ToUpper(string(r.Diagnosis.Urgency)))
	fmt.Fprintf(&sb, "Recommended Specialty: %s\n\nRecommended Actions:\n", r.Diagnosis.Specialty)
	for i, a := range r.Diagnosis.RecommendedActions {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, a)
	}
	sb.WriteString("\n")

	section(&sb, "APPOINTMENT DETAILS")
	fmt.Fprintf(&sb, "Doctor:      Dr. %s\n", r.Doctor.Name)
	fmt.Fprintf(&sb, "Specialty:   %s\n", r.Doctor.Specialty)
	fmt.Fprintf(&sb, "Date:        %s\n", r.Appointment.Date.Format("Monday, January 02, 2006"))
	fmt.Fprintf(&sb, "Time:        %s\n", r.Appointment.Time)
	fmt.Fprintf(&sb, "Priority:    %s\n\n", booking.PriorityLabel(r.Appointment.PriorityRank))

	if r.Location != nil {
		section(&sb, "CLINIC LOCATION & NAVIGATION")
		fmt.Fprintf(&sb, "Address:          %s\n", orNA(r.Doctor.ClinicAddress))
		fmt.Fprintf(&sb, "Distance:         %s\n", r.Location.DistanceText)
		fmt.Fprintf(&sb, "Travel Time:      %s\n\n", r.Location.DurationText)
		fmt.Fprintf(&sb, "Navigation Link:  %s\n\n", r.Location.NavigationURL)
	}

	section(&sb, "CONVERSATION HISTORY")
	sb.WriteString(transcriptText(r.Transcript))
	sb.WriteString("\n")

	section(&sb, "IMPORTANT NOTES")
	sb.WriteString("- This is an AI-generated preliminary assessment.\n")
	sb.WriteString("- Final diagnosis must be confirmed by the consulting doctor.\n")
	sb.WriteString("- The patient has been asked to bring relevant medical records.\n")
	return sb.String()
}

// RenderShort fits constrained channels such as WhatsApp or push.
func RenderShort(r Report) string {
	var sb strings.Builder
	sb.WriteString("*NEW PATIENT APPOINTMENT*\n\n")
	fmt.Fprintf(&sb, "*Patient*: %s\nEmail: %s\nPhone: %s\n\n", orNA(r.Patient.Name), orNA(r.Patient.Email), orNA(r.Patient.Phone))
	if top, ok := r.Diagnosis.TopDisease(); ok {
		fmt.Fprintf(&sb, "*Top Diagnosis*: %s (%d%%)\n", top.Name, top.Confidence)
	}
	fmt.Fprintf(&sb, "*Urgency*: %s\n*Severity Score*: %d/100\n\n", strings.ToUpper(string(r.Diagnosis.Urgency)), r.Diagnosis.SeverityScore)
	fmt.Fprintf(&sb, "*Appointment*\nDate: %s\nTime: %s\nPriority: %s\n\n",
		r.Appointment.Date.Format("Jan 02, 2006"), r.Appointment.Time, booking.PriorityLabel(r.Appointment.PriorityRank))
	if r.Location != nil {
		fmt.Fprintf(&sb, "*Clinic Distance*: %s\n*Travel Time*: %s\nNavigation: %s\n\n",
			r.Location.DistanceText, r.Location.DurationText, r.Location.NavigationURL)
	}
	fmt.Fprintf(&sb, "*Symptoms*: %s\n\n", truncate(r.Symptoms, 150))
	sb.WriteString("_AI Medical Consultation System_")
	return sb.String()
}

func Subject(r Report) string {
	id := r.ConsultationID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("New Patient Report - %s | Consultation %s", orNA(r.Patient.Name), id)
}

var htmlReport = template.Must(template.New("report").Funcs(template.FuncMap{
	"inc":      func(i int) int { return i + 1 },
	"upper":    func(u models.UrgencyLevel) string { return strings.ToUpper(string(u)) },
	"na":       orNA,
	"age":      ageText,
	"priority": booking.PriorityLabel,
	"longdate": func(t time.Time) string { return t.Format("Monday, January 02, 2006") },
	"stamp":    func(t time.Time) string { return t.Format("Jan 2, 2006 3:04 PM") },
	"speaker":  speaker,
}).Parse(`<!DOCTYPE html>
<html>
<head>
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 800px; margin: 0 auto; padding: 20px; }
.header { background: #667eea; color: white; padding: 30px; border-radius: 10px; text-align: center; }
.section { background: #f9f9f9; padding: 20px; margin: 20px 0; border-left: 4px solid #667eea; }
.title { color: #667eea; font-size: 18px; font-weight: bold; }
.urgency-critical, .urgency-high { color: #c0392b; font-weight: bold; }
.urgency-medium { color: #f39c12; font-weight: bold; }
.urgency-low { color: #27ae60; font-weight: bold; }
</style>
</head>
<body>
<div class="header">
<h1>Medical Consultation Report</h1>
<p>Consultation ID: {{.ConsultationID}}</p>
<p>{{stamp .GeneratedAt}}</p>
</div>
<div class="section">
<div class="title">Patient Information</div>
<p><b>Name:</b> {{na .Patient.Name}}<br><b>Email:</b> {{na .Patient.Email}}<br><b>Phone:</b> {{na .Patient.Phone}}<br>
<b>Age:</b> {{age .Patient.Age}}<br><b>Gender:</b> {{na .Patient.Gender}}</p>
</div>
<div class="section">
<div class="title">Symptoms</div>
<p>{{na .Symptoms}}</p>
</div>
<div class="section">
<div class="title">AI Diagnosis</div>
{{range $i, $d := .Diagnosis.Diseases}}<p><b>{{inc $i}}. {{$d.Name}}</b><br>Confidence: {{$d.Confidence}}% | Severity: {{$d.Severity}}/100</p>
{{end}}<p><b>Severity Score:</b> {{.Diagnosis.SeverityScore}}/100<br>
<b>Urgency:</b> <span class="urgency-{{.Diagnosis.Urgency}}">{{upper .Diagnosis.Urgency}}</span><br>
<b>Recommended Specialty:</b> {{.Diagnosis.Specialty}}</p>
<ol>{{range .Diagnosis.RecommendedActions}}<li>{{.}}</li>{{end}}</ol>
</div>
<div class="section">
<div class="title">Appointment Details</div>
<p><b>Doctor:</b> Dr. {{.Doctor.Name}} ({{.Doctor.Specialty}})<br><b>Date:</b> {{longdate .Appointment.Date}}<br>
<b>Time:</b> {{.Appointment.Time}}<br><b>Priority:</b> {{priority .Appointment.PriorityRank}}</p>
</div>
{{with .Location}}<div class="section">
<div class="title">Clinic Location</div>
<p><b>Address:</b> {{na $.Doctor.ClinicAddress}}<br><b>Distance:</b> {{.DistanceText}}<br><b>Travel Time:</b> {{.DurationText}}</p>
<p><a href="{{.NavigationURL}}">Open navigation</a></p>
</div>{{end}}
<div class="section">
<div class="title">Conversation History</div>
{{range .Transcript}}<p><b>{{speaker .Role}}:</b> {{.Content}}</p>
{{end}}</div>
<p style="font-size:12px;text-align:center">This is an AI-generated preliminary assessment. Final diagnosis must be confirmed by the consulting doctor.</p>
</body>
</html>`))

// RenderHTML is the email HTML alternative. Content is escaped by html/template.
func RenderHTML(r Report) (string, error) {
	var buf bytes.Buffer
	if err := htmlReport.Execute(&buf, r); err != nil {
		return "", fmt.Errorf("render html report: %w", err)
	}
	return buf.String(), nil
}

func speaker(role models.Role) string {
	switch role {
	case models.RolePatient:
		return "Patient"
	case models.RoleAssistant:
		return "AI Doctor"
	default:
		return "System"
	}
}

func transcriptText(turns []models.Turn) string {
	var sb strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&sb, "%s: %s\n\n", speaker(t.Role), t.Content)
	}
	return sb.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
