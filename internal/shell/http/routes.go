package http

import (
	"github.com/gorilla/mux"

	"routescan-exporter/internal/core/ports"
)

func SetupRoutes(exportService ports.ExportService) *mux.Router {
	router := mux.NewRouter()
	handler := NewExportHandler(exportService)

	router.HandleFunc("/healthz", handler.Health).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(LoggingMiddleware)

	// Export control
	api.HandleFunc("/exports", handler.TriggerExport).Methods("POST")

	// Run history
	api.HandleFunc("/runs", handler.GetRuns).Methods("GET")
	api.HandleFunc("/runs/{id}", handler.GetRun).Methods("GET")

	return router
}
