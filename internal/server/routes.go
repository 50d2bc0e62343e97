// Package server wires HTTP handlers into a gorilla/mux router for the
// chatron application via routing helpers.
package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SetupRoutes configures and returns a router with all application routes:
// health check, WebSocket endpoint, and test page.
func SetupRoutes(h *Handlers) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", HealthHandler)
	r.HandleFunc("/ws", h.WebSocketHandler)
	r.HandleFunc("/test", TestPageHandler).Methods(http.MethodGet)
	return r
}
