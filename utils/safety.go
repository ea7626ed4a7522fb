package utils

import (
	"fmt"
	"strings"

	"backend/models"
)

// WarningSeverity categorizes how serious the flag is.
type WarningSeverity string

const (
	SeverityWarning WarningSeverity = "warning"
	SeverityDanger  WarningSeverity = "danger"
)

const (
	SafetyUnknown = "unknown"
	SafetySafe    = "safe"
	SafetyWarning = "warning"
	SafetyDanger  = "danger"
)

// defaultDailyCarbLimit applies when a profile exists but no limit was set.
const defaultDailyCarbLimit = 200

// Warning is a structured finding you can show in your API / UI.
type Warning struct {
	Severity WarningSeverity `json:"severity"`
	Message  string          `json:"message"`
}

// SafetyVerdict is computed per request and never persisted.
type SafetyVerdict struct {
	OverallSafety    string    `json:"overallSafety"`
	AllergenWarnings []Warning `json:"allergenWarnings"`
	DiabetesWarnings []Warning `json:"diabetesWarnings"`
	Recommendations  []string  `json:"recommendations"`
}

// CategorizeCarbs maps carb/fiber/sugar ratios to a coarse quality tag.
// The fiber-dominant check runs first: a product that is both high-fiber
// and high-sugar still counts as slow.
func CategorizeCarbs(totalCarbs, fiber, sugar float64) models.CarbQuality {
	if totalCarbs == 0 {
		return models.CarbQualityNone
	}

	fiberRatio := fiber / totalCarbs
	sugarRatio := sugar / totalCarbs

	if fiberRatio > 0.3 && sugarRatio < 0.2 {
		return models.CarbQualitySlow
	}
	if sugarRatio > 0.5 {
		return models.CarbQualityFast
	}
	return models.CarbQualityMedium
}

// AnalyzeSafety combines a resolved product with a user health profile into
// allergen and diabetes warnings plus an aggregate verdict. Pure; no I/O.
func AnalyzeSafety(product *models.Product, profile *models.HealthProfile) *SafetyVerdict {
	if profile == nil {
		return &SafetyVerdict{
			OverallSafety:    SafetyUnknown,
			AllergenWarnings: []Warning{},
			DiabetesWarnings: []Warning{},
			Recommendations:  []string{"Please set up your health profile for personalized recommendations"},
		}
	}

	allergenWarnings := []Warning{}
	for _, allergy := range profile.Allergies {
		switch {
		case containsAllergen(product.Allergens.Contains, allergy):
			allergenWarnings = append(allergenWarnings, Warning{
				Severity: SeverityDanger,
				Message:  fmt.Sprintf("Contains %s! Do not consume!", strings.ToUpper(allergy)),
			})
		case containsAllergen(product.Allergens.MayContain, allergy):
			allergenWarnings = append(allergenWarnings, Warning{
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("May contain %s. Use caution.", allergy),
			})
		}
	}

	netCarbs := product.Nutrition.NetCarbs
	dailyCarbLimit := profile.DailyCarbLimit
	if dailyCarbLimit <= 0 {
		dailyCarbLimit = defaultDailyCarbLimit
	}
	carbQuality := product.DiabetesInfo.CarbQuality

	diabetesWarnings := []Warning{}
	if netCarbs > dailyCarbLimit*0.5 {
		diabetesWarnings = append(diabetesWarnings, Warning{
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("High carbs: %.1fg net carbs per serving", netCarbs),
		})
	}
	if carbQuality == models.CarbQualityFast {
		diabetesWarnings = append(diabetesWarnings, Warning{
			Severity: SeverityWarning,
			Message:  "Fast-acting carbs (high sugar). May spike blood glucose.",
		})
	}

	overall := SafetySafe
	for _, w := range allergenWarnings {
		if w.Severity == SeverityDanger {
			overall = SafetyDanger
			break
		}
	}
	if overall == SafetySafe && (len(allergenWarnings) > 0 || len(diabetesWarnings) > 0) {
		overall = SafetyWarning
	}

	recommendations := []string{}
	if overall == SafetySafe {
		recommendations = append(recommendations, "This product is safe for you!")
	}
	if netCarbs < dailyCarbLimit*0.2 && carbQuality == models.CarbQualitySlow {
		recommendations = append(recommendations, "Good choice! Low net carbs and slow-releasing.")
	}
	if len(recommendations) == 0 {
		recommendations = append(recommendations, "Product analyzed. Check details above.")
	}

	return &SafetyVerdict{
		OverallSafety:    overall,
		AllergenWarnings: allergenWarnings,
		DiabetesWarnings: diabetesWarnings,
		Recommendations:  recommendations,
	}
}

// containsAllergen does a case-insensitive substring match, so a profile
// allergy "peanuts" matches a tag like "roasted-peanuts".
func containsAllergen(tags []string, allergy string) bool {
	needle := strings.ToLower(allergy)
	for _, t := range tags {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return false
}
