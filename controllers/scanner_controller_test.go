package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"backend/models"
	"backend/services"
	"backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSource struct {
	product *models.Product
	tag     string
}

func (s fixedSource) Query(barcode, region, lang string) (*models.Product, string, bool, error) {
	if s.product == nil || s.product.Code != barcode {
		return nil, s.tag, false, nil
	}
	return s.product, s.tag, true, nil
}

func scannerRouter(chain []services.ScopedSource) (*gin.Engine, services.ProductStore) {
	gin.SetMode(gin.TestMode)
	store := services.NewMemoryProductStore()
	regions := services.NewRegionService(nil, nil, "US")
	svc := services.NewScannerService(store, regions, nil, nil, chain)
	sc := NewScannerController(svc, nil)

	r := gin.New()
	r.POST("/scanner/scan", sc.Scan)
	r.POST("/scanner/add-manual", sc.AddManual)
	return r, store
}

func postJSON(r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestScanRejectsMissingBarcode(t *testing.T) {
	r, _ := scannerRouter(nil)
	w := postJSON(r, "/scanner/scan", gin.H{"userId": "u1"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Barcode is required")
}

func TestScanNotFoundOffersManualAdd(t *testing.T) {
	r, _ := scannerRouter([]services.ScopedSource{{Source: fixedSource{tag: "openfoodfacts-US"}}})
	w := postJSON(r, "/scanner/scan", gin.H{"barcode": "12345"})

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Found          bool   `json:"found"`
		Region         string `json:"region"`
		Barcode        string `json:"barcode"`
		CanManuallyAdd bool   `json:"canManuallyAdd"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Found)
	assert.Equal(t, "US", resp.Region)
	assert.Equal(t, "12345", resp.Barcode)
	assert.True(t, resp.CanManuallyAdd)
}

func TestScanReturnsProductAndVerdict(t *testing.T) {
	product := &models.Product{
		Code:      "54321",
		Name:      "Crunchy Bar",
		Nutrition: models.NewNutritionFacts("40g", 180, 20, 2, 8, 3, 5),
		DiabetesInfo: models.DiabetesInfo{
			CarbQuality: utils.CategorizeCarbs(20, 2, 8),
		},
		Allergens: models.NewAllergenInfo(nil, nil),
		Regions: []models.RegionEntry{{
			Country: "US", Available: true, Barcode: "54321",
			Source: services.SourceOpenFoodFacts, LastUpdated: time.Now(),
		}},
		Source: services.SourceOpenFoodFacts,
	}
	r, _ := scannerRouter([]services.ScopedSource{{Source: fixedSource{product: product, tag: "openfoodfacts-US"}}})

	w := postJSON(r, "/scanner/scan", gin.H{"barcode": "54321"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Found  bool   `json:"found"`
		Source string `json:"source"`
		Safety struct {
			OverallSafety string `json:"overallSafety"`
		} `json:"safetyAnalysis"`
		Product struct {
			Nutrition struct {
				NetCarbs float64 `json:"netCarbs"`
			} `json:"nutrition"`
		} `json:"product"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Found)
	assert.Equal(t, "openfoodfacts-US", resp.Source)
	assert.Equal(t, utils.SafetyUnknown, resp.Safety.OverallSafety)
	assert.Equal(t, 18.0, resp.Product.Nutrition.NetCarbs)
}

func TestAddManualThenScanHitsCache(t *testing.T) {
	r, _ := scannerRouter(nil)

	w := postJSON(r, "/scanner/add-manual", gin.H{
		"barcode": "77777",
		"userId":  "u1",
		"region":  "IL",
		"productData": gin.H{
			"name":  "Homemade Hummus",
			"brand": "Local",
			"nutrition": gin.H{
				"servingSize": "100g",
				"totalCarbs":  14.0,
				"fiber":       6.0,
				"sugar":       1.0,
			},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var addResp struct {
		Success bool `json:"success"`
		Product struct {
			Verified      bool `json:"verified"`
			UserSubmitted bool `json:"userSubmitted"`
			Nutrition     struct {
				NetCarbs float64 `json:"netCarbs"`
			} `json:"nutrition"`
			DiabetesInfo struct {
				CarbQuality string `json:"carbQuality"`
			} `json:"diabetesInfo"`
		} `json:"product"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &addResp))
	assert.True(t, addResp.Success)
	assert.False(t, addResp.Product.Verified)
	assert.True(t, addResp.Product.UserSubmitted)
	assert.Equal(t, 8.0, addResp.Product.Nutrition.NetCarbs)
	assert.Equal(t, "slow", addResp.Product.DiabetesInfo.CarbQuality)

	// region IL was stored, but this anonymous scan resolves to US — a
	// different region is still a cache miss
	w = postJSON(r, "/scanner/scan", gin.H{"barcode": "77777"})
	var missResp struct {
		Found bool `json:"found"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &missResp))
	assert.False(t, missResp.Found)
}

func TestAddManualRequiresBarcodeAndData(t *testing.T) {
	r, _ := scannerRouter(nil)

	w := postJSON(r, "/scanner/add-manual", gin.H{"region": "US", "productData": gin.H{"name": "X"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(r, "/scanner/add-manual", gin.H{"barcode": "1", "region": "US", "productData": gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
