package controllers

import (
	"log"
	"net/http"
	"time"

	"backend/models"
	"backend/services"
	"backend/utils"

	"github.com/gin-gonic/gin"
)

type ScannerController struct {
	scanner  *services.ScannerService
	uploader *utils.S3Uploader // nil when no bucket is configured
}

func NewScannerController(scanner *services.ScannerService, uploader *utils.S3Uploader) *ScannerController {
	return &ScannerController{scanner: scanner, uploader: uploader}
}

type scanRequest struct {
	Barcode string `json:"barcode"`
	UserID  string `json:"userId"`
}

// POST /scanner/scan
func (sc *ScannerController) Scan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if req.Barcode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Barcode is required"})
		return
	}

	// token identity wins over the body field
	userID := c.GetString("userID")
	if userID == "" {
		userID = req.UserID
	}

	result, err := sc.scanner.Scan(req.Barcode, userID, c.ClientIP())
	if err != nil {
		log.Printf("scanner error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan product"})
		return
	}

	if !result.Found {
		c.JSON(http.StatusOK, gin.H{
			"found":          false,
			"message":        "Product not found in our database. Would you like to add it manually?",
			"region":         result.Region,
			"barcode":        req.Barcode,
			"canManuallyAdd": true,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"found":          true,
		"product":        result.Product,
		"safetyAnalysis": result.Safety,
		"region":         result.Region,
		"source":         result.Source,
	})
}

type manualProductData struct {
	Name        string   `json:"name"`
	Brand       string   `json:"brand"`
	Category    string   `json:"category"`
	Ingredients []string `json:"ingredients"`
	Stores      []string `json:"stores"`
	Photos      []string `json:"photos"` // base64 data URLs
	Nutrition   struct {
		ServingSize string  `json:"servingSize"`
		Calories    float64 `json:"calories"`
		TotalCarbs  float64 `json:"totalCarbs"`
		Fiber       float64 `json:"fiber"`
		Sugar       float64 `json:"sugar"`
		Protein     float64 `json:"protein"`
		Fat         float64 `json:"fat"`
	} `json:"nutrition"`
	Allergens struct {
		Contains   []string `json:"contains"`
		MayContain []string `json:"mayContain"`
	} `json:"allergens"`
}

type manualAddRequest struct {
	Barcode     string            `json:"barcode"`
	UserID      string            `json:"userId"`
	Region      string            `json:"region"`
	ProductData manualProductData `json:"productData"`
}

// POST /scanner/add-manual
func (sc *ScannerController) AddManual(c *gin.Context) {
	var req manualAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if req.Barcode == "" || req.ProductData.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Barcode and product data are required"})
		return
	}
	if req.Region == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Region is required"})
		return
	}

	var images []string
	if sc.uploader != nil {
		for _, photo := range req.ProductData.Photos {
			url, err := sc.uploader.UploadBase64Image(photo, req.Barcode)
			if err != nil {
				log.Printf("product photo upload failed for %s: %v", req.Barcode, err)
				continue
			}
			images = append(images, url)
		}
	}

	data := req.ProductData
	product := &models.Product{
		Code:        req.Barcode,
		Name:        data.Name,
		Brand:       data.Brand,
		Category:    data.Category,
		Ingredients: data.Ingredients,
		Images:      images,
		Nutrition: models.NewNutritionFacts(
			data.Nutrition.ServingSize,
			data.Nutrition.Calories,
			data.Nutrition.TotalCarbs,
			data.Nutrition.Fiber,
			data.Nutrition.Sugar,
			data.Nutrition.Protein,
			data.Nutrition.Fat,
		),
		DiabetesInfo: models.DiabetesInfo{
			CarbQuality: utils.CategorizeCarbs(
				data.Nutrition.TotalCarbs,
				data.Nutrition.Fiber,
				data.Nutrition.Sugar,
			),
		},
		Allergens:     models.NewAllergenInfo(data.Allergens.Contains, data.Allergens.MayContain),
		Source:        "manual",
		UserSubmitted: true,
		Verified:      false, // needs admin verification
	}
	entry := models.RegionEntry{
		Country:     req.Region,
		Available:   true,
		Barcode:     req.Barcode,
		LocalName:   data.Name,
		LocalBrand:  data.Brand,
		Stores:      data.Stores,
		Source:      "manual",
		LastUpdated: time.Now(),
	}

	saved, err := sc.scanner.SubmitManual(product, entry)
	if err != nil {
		log.Printf("manual add error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Product added successfully! It will be reviewed and verified soon.",
		"product": saved,
	})
}
