package services

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"backend/models"
	"backend/utils"
)

const SourceUSDA = "usda"

// USDAService queries USDA FoodData Central by UPC. It is consulted for US
// scans only, after both OpenFoodFacts endpoints miss. Without an API key
// every lookup is a miss, which keeps the chain behavior intact for
// keyless deployments.
type USDAService struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewUSDAService(apiKey, baseURL string, timeout time.Duration) *USDAService {
	if baseURL == "" {
		baseURL = "https://api.nal.usda.gov/fdc"
	}
	return &USDAService{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type fdcSearchResponse struct {
	Foods []fdcFood `json:"foods"`
}

type fdcFood struct {
	Description     string  `json:"description"`
	BrandOwner      string  `json:"brandOwner"`
	BrandName       string  `json:"brandName"`
	GtinUpc         string  `json:"gtinUpc"`
	Ingredients     string  `json:"ingredients"`
	FoodCategory    string  `json:"foodCategory"`
	ServingSize     float64 `json:"servingSize"`
	ServingSizeUnit string  `json:"servingSizeUnit"`
	FoodNutrients   []struct {
		NutrientNumber string  `json:"nutrientNumber"`
		Value          float64 `json:"value"`
	} `json:"foodNutrients"`
}

// FDC nutrient numbers for the fields we care about.
const (
	fdcEnergy  = "208"
	fdcCarbs   = "205"
	fdcFiber   = "291"
	fdcSugar   = "269"
	fdcProtein = "203"
	fdcFat     = "204"
)

func (s *USDAService) Query(barcode, region, lang string) (*models.Product, string, bool, error) {
	if s.apiKey == "" {
		return nil, SourceUSDA, false, nil
	}

	u := fmt.Sprintf("%s/v1/foods/search?api_key=%s&dataType=Branded&pageSize=5&query=%s",
		s.baseURL, url.QueryEscape(s.apiKey), url.QueryEscape(barcode))

	resp, err := s.client.Get(u)
	if err != nil {
		return nil, SourceUSDA, false, fmt.Errorf("failed to call USDA FDC: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, SourceUSDA, false, fmt.Errorf("failed to read USDA response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, SourceUSDA, false, fmt.Errorf("USDA API error %d: %s", resp.StatusCode, string(body))
	}

	var sr fdcSearchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, SourceUSDA, false, fmt.Errorf("failed to parse USDA JSON: %w", err)
	}

	for _, food := range sr.Foods {
		if strings.TrimLeft(food.GtinUpc, "0") == strings.TrimLeft(barcode, "0") {
			return mapFDCFood(food, barcode, region), SourceUSDA, true, nil
		}
	}
	return nil, SourceUSDA, false, nil
}

func mapFDCFood(food fdcFood, barcode, region string) *models.Product {
	nutrients := make(map[string]float64, len(food.FoodNutrients))
	for _, n := range food.FoodNutrients {
		nutrients[n.NutrientNumber] = n.Value
	}

	name := food.Description
	if name == "" {
		name = "Unknown Product"
	}
	brand := food.BrandName
	if brand == "" {
		brand = food.BrandOwner
	}
	if brand == "" {
		brand = "Unknown Brand"
	}
	category := food.FoodCategory
	if category == "" {
		category = "Uncategorized"
	}

	servingSize := "100g"
	if food.ServingSize > 0 {
		servingSize = fmt.Sprintf("%g%s", food.ServingSize, food.ServingSizeUnit)
	}

	var ingredients []string
	for _, part := range strings.Split(food.Ingredients, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ingredients = append(ingredients, part)
		}
	}

	return &models.Product{
		Code:        barcode,
		Name:        name,
		Brand:       brand,
		Category:    category,
		Ingredients: ingredients,
		Nutrition: models.NewNutritionFacts(
			servingSize,
			nutrients[fdcEnergy],
			nutrients[fdcCarbs],
			nutrients[fdcFiber],
			nutrients[fdcSugar],
			nutrients[fdcProtein],
			nutrients[fdcFat],
		),
		DiabetesInfo: models.DiabetesInfo{
			CarbQuality: utils.CategorizeCarbs(nutrients[fdcCarbs], nutrients[fdcFiber], nutrients[fdcSugar]),
		},
		// FDC branded data has no structured allergen tags
		Allergens: models.NewAllergenInfo(nil, nil),
		Regions: []models.RegionEntry{{
			Country:     region,
			Available:   true,
			Barcode:     barcode,
			LocalName:   food.Description,
			LocalBrand:  brand,
			Stores:      []string{},
			Source:      SourceUSDA,
			LastUpdated: time.Now(),
		}},
		Source:        SourceUSDA,
		UserSubmitted: false,
		Verified:      true,
	}
}
