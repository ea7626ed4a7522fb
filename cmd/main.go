package main

import (
	"log"

	"backend/config"
	"backend/routes"
)

func main() {
	cfg := config.Load()
	db := config.InitDB(cfg)

	r := routes.SetupRouter(cfg, db)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
