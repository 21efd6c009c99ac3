package main

import (
	"log"
	"net/http"
	"os"

	"bantay_tracker/internal/broadcast"
	"bantay_tracker/internal/config"
	"bantay_tracker/internal/controllers"
	"bantay_tracker/internal/engine"
	"bantay_tracker/internal/geofence"
	"bantay_tracker/internal/logger"
	"bantay_tracker/internal/middleware"
	"bantay_tracker/internal/models"
	"bantay_tracker/internal/routes"
	"bantay_tracker/internal/sms"
)

func loadBoundaries() ([]geofence.Boundary, error) {
	var rows []models.MunicipalityBoundary
	if err := config.DB.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]geofence.Boundary, 0, len(rows))
	for _, row := range rows {
		out = append(out, geofence.Boundary{
			Name:     row.Name,
			Kind:     row.Kind,
			Geometry: row.Geometry,
		})
	}
	return out, nil
}

func main() {
	// Initialize structured logging to file
	logger.Setup()

	// Connect to the database
	config.InitDB()

	settings := config.LoadSettings()

	index := geofence.NewIndex(loadBoundaries, settings.EdgeToleranceDeg)
	if err := index.Reload(); err != nil {
		log.Printf("boundary index not loaded yet, will retry lazily: %v", err)
	}

	hub := broadcast.NewHub()

	var sender sms.Sender = sms.NewSemaphoreSender(os.Getenv("SMS_API_KEY"), os.Getenv("SMS_SENDER_NAME"))
	sender = sms.NewBreakerSender(sender)

	store := engine.NewGormStore(config.DB)
	registry := engine.NewGormRegistry(config.DB)
	dispatcher := engine.NewDispatcher(sender, hub, store, settings.DispatchTimeout)
	eng := engine.New(store, registry, index, dispatcher, settings)

	controllers.Init(eng, index, hub)

	// Setup Gin router
	r := routes.SetupRouter()

	// Wrap with CORS
	handler := middleware.EnableCORS(r)

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = "0.0.0.0:8080"
	}
	log.Printf("server running at %s", addr)
	log.Fatal(http.ListenAndServe(addr, handler))
}
