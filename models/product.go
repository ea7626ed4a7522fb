package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type CarbQuality string

const (
	CarbQualityNone   CarbQuality = "none"
	CarbQualitySlow   CarbQuality = "slow"
	CarbQualityMedium CarbQuality = "medium"
	CarbQualityFast   CarbQuality = "fast"
)

// Product is the canonical catalog entry, keyed globally by barcode.
// Region-specific observations hang off it as RegionEntry rows; the base
// record is never deleted, only appended to or verified.
type Product struct {
	gorm.Model
	Code        string   `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	Name        string   `gorm:"not null" json:"name"`
	Brand       string   `json:"brand"`
	Category    string   `json:"category"`
	Ingredients []string `gorm:"serializer:json" json:"ingredients"`
	Images      []string `gorm:"serializer:json" json:"images"`

	Nutrition    NutritionFacts `gorm:"embedded;embeddedPrefix:nutrition_" json:"nutrition"`
	DiabetesInfo DiabetesInfo   `gorm:"embedded;embeddedPrefix:diabetes_" json:"diabetesInfo"`
	Allergens    AllergenInfo   `gorm:"embedded;embeddedPrefix:allergen_" json:"allergens"`

	Regions []RegionEntry `json:"regions"`

	Source        string `json:"source"`
	UserSubmitted bool   `json:"userSubmitted"`
	Verified      bool   `json:"verified"`
}

// RegionEntry is one per-country observation of a product. Owned by its
// parent Product; appended, never replaced.
type RegionEntry struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	ProductID   uint      `gorm:"index:idx_region_product_country,unique" json:"-"`
	Country     string    `gorm:"size:8;index:idx_region_product_country,unique" json:"country"`
	Available   bool      `json:"available"`
	Barcode     string    `json:"barcode"`
	LocalName   string    `json:"localName"`
	LocalBrand  string    `json:"localBrand"`
	Stores      []string  `gorm:"serializer:json" json:"stores"`
	Source      string    `json:"source"`
	LastUpdated time.Time `json:"lastUpdated"`
}

type NutritionFacts struct {
	ServingSize string  `json:"servingSize"`
	Calories    float64 `json:"calories"`
	TotalCarbs  float64 `json:"totalCarbs"`
	Fiber       float64 `json:"fiber"`
	Sugar       float64 `json:"sugar"`
	NetCarbs    float64 `json:"netCarbs"`
	Protein     float64 `json:"protein"`
	Fat         float64 `json:"fat"`
}

// NewNutritionFacts derives net carbs from totals; source-provided net carb
// values are never trusted.
func NewNutritionFacts(servingSize string, calories, totalCarbs, fiber, sugar, protein, fat float64) NutritionFacts {
	net := totalCarbs - fiber
	if net < 0 {
		net = 0
	}
	return NutritionFacts{
		ServingSize: servingSize,
		Calories:    calories,
		TotalCarbs:  totalCarbs,
		Fiber:       fiber,
		Sugar:       sugar,
		NetCarbs:    net,
		Protein:     protein,
		Fat:         fat,
	}
}

// DiabetesInfo carries blood-glucose metrics. Glycemic index and load stay
// nullable: most public sources simply do not have them.
type DiabetesInfo struct {
	GlycemicIndex *float64    `json:"glycemicIndex"`
	GlycemicLoad  *float64    `json:"glycemicLoad"`
	CarbQuality   CarbQuality `gorm:"size:10" json:"carbQuality"`
}

// AllergenInfo splits definite ingredient presence from cross-contamination
// risk; the two sets drive different warning severities.
type AllergenInfo struct {
	Contains    []string `gorm:"serializer:json" json:"contains"`
	MayContain  []string `gorm:"serializer:json" json:"mayContain"`
	ProcessedIn []string `gorm:"serializer:json" json:"processedIn"`
}

func NewAllergenInfo(contains, mayContain []string) AllergenInfo {
	return AllergenInfo{
		Contains:    NormalizeTags(contains),
		MayContain:  NormalizeTags(mayContain),
		ProcessedIn: []string{},
	}
}

// NormalizeTags strips language prefixes like "en:", lower-cases and
// de-duplicates, preserving first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if i := strings.Index(t, ":"); i >= 0 && i <= 3 {
			t = t[i+1:]
		}
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// RegionFor returns the entry for a country, if the product has been
// observed there.
func (p *Product) RegionFor(country string) *RegionEntry {
	for i := range p.Regions {
		if p.Regions[i].Country == country {
			return &p.Regions[i]
		}
	}
	return nil
}
