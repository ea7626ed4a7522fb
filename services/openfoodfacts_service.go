package services

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"backend/models"
	"backend/utils"
)

const SourceOpenFoodFacts = "openfoodfacts"

// OpenFoodFactsService queries the OpenFoodFacts product API. The regional
// and global endpoints are exposed as two separate chain sources so the
// resolver can short-circuit between them.
type OpenFoodFactsService struct {
	baseURL string // test override; empty = live per-country subdomains
	client  *http.Client
}

func NewOpenFoodFactsService(baseURL string, timeout time.Duration) *OpenFoodFactsService {
	return &OpenFoodFactsService{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type offResponse struct {
	Status  int        `json:"status"`
	Product offProduct `json:"product"`
}

type offProduct struct {
	ProductName       string   `json:"product_name"`
	ProductNameEn     string   `json:"product_name_en"`
	Brands            string   `json:"brands"`
	CategoriesTags    []string `json:"categories_tags"`
	ServingSize       string   `json:"serving_size"`
	IngredientsText   string   `json:"ingredients_text"`
	AllergensTags     []string `json:"allergens_tags"`
	TracesTags        []string `json:"traces_tags"`
	StoresTags        []string `json:"stores_tags"`
	ImageURL          string   `json:"image_url"`
	ImageFrontURL     string   `json:"image_front_url"`
	ImageNutritionURL string   `json:"image_nutrition_url"`
	Nutriments        struct {
		EnergyKcal        float64 `json:"energy_kcal"`
		EnergyKcal100g    float64 `json:"energy-kcal_100g"`
		Carbohydrates100g float64 `json:"carbohydrates_100g"`
		Fiber100g         float64 `json:"fiber_100g"`
		Sugars100g        float64 `json:"sugars_100g"`
		Proteins100g      float64 `json:"proteins_100g"`
		Fat100g           float64 `json:"fat_100g"`
	} `json:"nutriments"`
}

// OFFRegionalSource hits the per-country OpenFoodFacts endpoint.
type OFFRegionalSource struct {
	Service *OpenFoodFactsService
}

func (s OFFRegionalSource) Query(barcode, region, lang string) (*models.Product, string, bool, error) {
	base := s.Service.baseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.openfoodfacts.org", strings.ToLower(region))
	}
	u := fmt.Sprintf("%s/api/v2/product/%s.json", base, barcode)
	tag := fmt.Sprintf("%s-%s", SourceOpenFoodFacts, region)
	return s.Service.fetch(u, barcode, region, tag)
}

// OFFGlobalSource hits the world database scoped by country and locale.
type OFFGlobalSource struct {
	Service *OpenFoodFactsService
}

func (s OFFGlobalSource) Query(barcode, region, lang string) (*models.Product, string, bool, error) {
	base := s.Service.baseURL
	if base == "" {
		base = "https://world.openfoodfacts.org"
	}
	u := fmt.Sprintf("%s/api/v2/product/%s.json?cc=%s&lc=%s", base, barcode, strings.ToLower(region), lang)
	tag := SourceOpenFoodFacts + "-global"
	return s.Service.fetch(u, barcode, region, tag)
}

func (s *OpenFoodFactsService) fetch(url, barcode, region, sourceTag string) (*models.Product, string, bool, error) {
	resp, err := s.client.Get(url)
	if err != nil {
		return nil, sourceTag, false, fmt.Errorf("failed to call OpenFoodFacts: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, sourceTag, false, fmt.Errorf("failed to read OpenFoodFacts response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, sourceTag, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, sourceTag, false, fmt.Errorf("openfoodfacts API error %d: %s", resp.StatusCode, string(body))
	}

	var or offResponse
	if err := json.Unmarshal(body, &or); err != nil {
		return nil, sourceTag, false, fmt.Errorf("failed to parse OpenFoodFacts JSON: %w", err)
	}
	if or.Status != 1 {
		return nil, sourceTag, false, nil
	}

	return mapOFFProduct(or.Product, barcode, region), sourceTag, true, nil
}

// mapOFFProduct normalizes the OpenFoodFacts schema into the canonical
// Product shape. Missing numbers default to zero, net carbs is always
// derived locally, and carb quality is never trusted from the source.
func mapOFFProduct(off offProduct, barcode, region string) *models.Product {
	name := off.ProductName
	if name == "" {
		name = off.ProductNameEn
	}
	if name == "" {
		name = "Unknown Product"
	}
	brand := off.Brands
	if brand == "" {
		brand = "Unknown Brand"
	}
	category := "Uncategorized"
	if tags := models.NormalizeTags(off.CategoriesTags); len(tags) > 0 {
		category = tags[0]
	}

	servingSize := off.ServingSize
	if servingSize == "" {
		servingSize = "100g"
	}
	calories := off.Nutriments.EnergyKcal
	if calories == 0 {
		calories = off.Nutriments.EnergyKcal100g
	}

	nutrition := models.NewNutritionFacts(
		servingSize,
		calories,
		off.Nutriments.Carbohydrates100g,
		off.Nutriments.Fiber100g,
		off.Nutriments.Sugars100g,
		off.Nutriments.Proteins100g,
		off.Nutriments.Fat100g,
	)

	var ingredients []string
	for _, part := range strings.Split(off.IngredientsText, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ingredients = append(ingredients, part)
		}
	}

	var images []string
	for _, img := range []string{off.ImageURL, off.ImageFrontURL, off.ImageNutritionURL} {
		if img != "" {
			images = append(images, img)
		}
	}

	return &models.Product{
		Code:        barcode,
		Name:        name,
		Brand:       brand,
		Category:    category,
		Ingredients: ingredients,
		Images:      images,
		Nutrition:   nutrition,
		DiabetesInfo: models.DiabetesInfo{
			GlycemicIndex: nil, // OpenFoodFacts has no GI data
			GlycemicLoad:  nil,
			CarbQuality: utils.CategorizeCarbs(
				off.Nutriments.Carbohydrates100g,
				off.Nutriments.Fiber100g,
				off.Nutriments.Sugars100g,
			),
		},
		Allergens: models.NewAllergenInfo(off.AllergensTags, off.TracesTags),
		Regions: []models.RegionEntry{{
			Country:     region,
			Available:   true,
			Barcode:     barcode,
			LocalName:   off.ProductName,
			LocalBrand:  off.Brands,
			Stores:      models.NormalizeTags(off.StoresTags),
			Source:      SourceOpenFoodFacts,
			LastUpdated: time.Now(),
		}},
		Source:        SourceOpenFoodFacts,
		UserSubmitted: false,
		Verified:      true,
	}
}
