package routes

import (
	"log"

	"backend/config"
	"backend/controllers"
	"backend/middlewares"
	"backend/services"
	"backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func SetupRouter(cfg config.Config, db *gorm.DB) *gin.Engine {
	users := services.NewUserService(db)
	store := services.NewGormProductStore(db)
	hub := services.NewRealtimeHub()
	alerts := services.NewAlertBus(db, hub)

	geo := services.NewIPAPIClient(cfg.GeoIPBaseURL, cfg.GeoIPTimeout)
	regions := services.NewRegionService(users, geo, cfg.DefaultRegion)

	off := services.NewOpenFoodFactsService(cfg.OpenFoodFactsBaseURL, cfg.SourceTimeout)
	usda := services.NewUSDAService(cfg.USDAAPIKey, "", cfg.SourceTimeout)

	// fixed priority per region: country-specific OFF, global OFF, then
	// USDA for US barcodes
	chain := []services.ScopedSource{
		{Source: services.OFFRegionalSource{Service: off}},
		{Source: services.OFFGlobalSource{Service: off}},
		{Source: usda, Regions: []string{"US"}},
	}

	scanner := services.NewScannerService(store, regions, users, alerts, chain)

	var uploader *utils.S3Uploader
	if cfg.S3Bucket != "" {
		up, err := utils.NewS3Uploader(cfg.S3Region, cfg.S3Bucket, cfg.CloudFrontURL)
		if err != nil {
			log.Printf("S3 uploader disabled: %v", err)
		} else {
			uploader = up
		}
	}

	sc := controllers.NewScannerController(scanner, uploader)
	uc := controllers.NewUserController(users)
	ac := controllers.NewAlertController(alerts, users)
	rc := controllers.NewRealtimeController(hub, users)

	r := gin.Default()

	scan := r.Group("/scanner")
	scan.Use(middlewares.RateLimit(cfg.ScanRPS, cfg.ScanBurst))
	scan.Use(middlewares.OptionalAuth(cfg.JWTSecret))
	{
		scan.POST("/scan", sc.Scan)
		scan.POST("/add-manual", sc.AddManual)
	}

	user := r.Group("/user")
	user.Use(middlewares.AuthMiddleware(cfg.JWTSecret))
	{
		user.GET("/health-profile", uc.GetHealthProfile)
		user.PUT("/health-profile", uc.UpdateHealthProfile)
		user.GET("/alerts", ac.List)
	}

	r.GET("/ws", middlewares.AuthMiddleware(cfg.JWTSecret), rc.AlertsWS)

	return r
}
