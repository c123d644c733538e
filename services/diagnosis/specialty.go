package diagnosis

import (
	"context"
	"fmt"
	"strings"

	"medinet/models"
	ai "medinet/services/intelligence"

	"go.uber.org/zap"
)

const GeneralMedicine = "General Medicine"

// Specialties is the closed list every resolution must land in.
var Specialties = []string{
	GeneralMedicine,
	"Cardiology",
	"Dermatology",
	"Orthopedics",
	"Neurology",
	"Gastroenterology",
	"Pulmonology",
	"Pediatrics",
	"Psychiatry",
	"ENT",
}

var specialtyDescriptions = map[string]string{
	GeneralMedicine:    "Handles common health conditions and provides primary care",
	"Cardiology":       "Specializes in heart and cardiovascular conditions",
	"Dermatology":      "Focuses on skin, hair, and nail disorders",
	"Orthopedics":      "Treats bone, joint, and musculoskeletal issues",
	"Neurology":        "Deals with brain, spine, and nervous system disorders",
	"Gastroenterology": "Specializes in digestive system and related organs",
	"Pulmonology":      "Focuses on respiratory system and lung conditions",
	"Pediatrics":       "Specialized care for infants, children, and adolescents",
	"Psychiatry":       "Addresses mental health and behavioral disorders",
	"ENT":              "Treats ear, nose, and throat conditions",
}

type keywordRule struct {
	keyword   string
	specialty string
}

// Scanned in order; the first substring hit wins.
var keywordTable = []keywordRule{
	{"hypertension", "Cardiology"},
	{"heart attack", "Cardiology"},
	{"arrhythmia", "Cardiology"},
	{"chest pain", "Cardiology"},
	{"coronary artery disease", "Cardiology"},

	{"eczema", "Dermatology"},
	{"psoriasis", "Dermatology"},
	{"acne", "Dermatology"},
	{"skin rash", "Dermatology"},
	{"allergic reaction", "Dermatology"},

	{"fracture", "Orthopedics"},
	{"arthritis", "Orthopedics"},
	{"back pain", "Orthopedics"},
	{"joint pain", "Orthopedics"},
	{"sprain", "Orthopedics"},

	{"migraine", "Neurology"},
	{"seizure", "Neurology"},
	{"stroke", "Neurology"},
	{"headache", "Neurology"},
	{"neuropathy", "Neurology"},

	{"gastritis", "Gastroenterology"},
	{"ibs", "Gastroenterology"},
	{"ulcer", "Gastroenterology"},
	{"constipation", "Gastroenterology"},
	{"diarrhea", "Gastroenterology"},

	{"asthma", "Pulmonology"},
	{"copd", "Pulmonology"},
	{"pneumonia", "Pulmonology"},
	{"bronchitis", "Pulmonology"},
	{"respiratory infection", "Pulmonology"},

	{"depression", "Psychiatry"},
	{"anxiety", "Psychiatry"},
	{"panic attack", "Psychiatry"},
	{"insomnia", "Psychiatry"},
	{"bipolar disorder", "Psychiatry"},

	{"sinusitis", "ENT"},
	{"ear infection", "ENT"},
	{"tonsillitis", "ENT"},
	{"hearing loss", "ENT"},
	{"vertigo", "ENT"},

	{"fever", GeneralMedicine},
	{"common cold", GeneralMedicine},
	{"flu", GeneralMedicine},
	{"fatigue", GeneralMedicine},
}

const specialtyInstructions = `You are a medical specialty classifier. Given diseases, map them to appropriate medical specialties:
- General Medicine: Common conditions, fever, infections
- Cardiology: Heart, blood pressure, chest pain
- Dermatology: Skin, rashes, allergies
- Orthopedics: Bones, joints, fractures
- Neurology: Headaches, seizures, nerve issues
- Gastroenterology: Digestive issues, stomach pain
- Pulmonology: Breathing, cough, lungs
- Psychiatry: Mental health, anxiety, depression
- ENT: Ear, nose, throat issues
- Pediatrics: Children-specific conditions

Return only the specialty name.`

// SpecialtyResolver always returns a member of Specialties.
type SpecialtyResolver interface {
	Resolve(ctx context.Context, diseases []models.Disease) string
}

type DefaultSpecialtyResolver struct {
	Completion ai.CompletionClient
	Logger     *zap.Logger
}

func NewSpecialtyResolver(completion ai.CompletionClient, logger *zap.Logger) *DefaultSpecialtyResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultSpecialtyResolver{Completion: completion, Logger: logger}
}

func (r *DefaultSpecialtyResolver) Resolve(ctx context.Context, diseases []models.Disease) string {
	if len(diseases) == 0 {
		return GeneralMedicine
	}

	top, _ := models.DiagnosisOutcome{Diseases: diseases}.TopDisease()
	if s := MatchKeyword(top.Name); s != GeneralMedicine {
		return s
	}

	names := make([]string, 0, len(diseases))
	for _, d := range diseases {
		names = append(names, d.Name)
	}
	prompt := fmt.Sprintf("Map these diseases to the most appropriate medical specialty: %s\n\nOnly respond with the specialty name, nothing else.",
		strings.Join(names, ", "))

	answer, err := r.Completion.Complete(ctx, prompt, specialtyInstructions)
	if err != nil {
		r.Logger.Warn("Specialty completion failed, defaulting", zap.Error(err))
		return GeneralMedicine
	}
	return ValidateSpecialty(answer)
}

// MatchKeyword returns the specialty of the first keyword contained in name,
// or General Medicine when none match.
func MatchKeyword(name string) string {
	lower := strings.ToLower(name)
	for _, rule := range keywordTable {
		if strings.Contains(lower, rule.keyword) {
			return rule.specialty
		}
	}
	return GeneralMedicine
}

// ValidateSpecialty canonicalises a free-text answer against Specialties.
func ValidateSpecialty(answer string) string {
	cleaned := strings.Trim(strings.TrimSpace(answer), ".\"'*` \n\t")
	for _, s := range Specialties {
		if strings.EqualFold(s, cleaned) {
			return s
		}
	}
	return GeneralMedicine
}

func SpecialtyDescription(specialty string) string {
	if d, ok := specialtyDescriptions[specialty]; ok {
		return d
	}
	return specialtyDescriptions[GeneralMedicine]
}
