// Package server exposes the pricing engine over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/contactkeval/option-pricer/internal/config"
	"github.com/contactkeval/option-pricer/internal/data"
	"github.com/contactkeval/option-pricer/internal/engine"
	"github.com/contactkeval/option-pricer/internal/logger"
	"github.com/contactkeval/option-pricer/internal/pricing"
)

// Server serves quotes from an Engine over HTTP.
type Server struct {
	eng    *engine.Engine
	router *mux.Router
}

// New registers the routes for eng.
func New(eng *engine.Engine) *Server {
	s := &Server{eng: eng, router: mux.NewRouter()}
	s.router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/price", s.price).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/run", s.run).Methods(http.MethodPost)
	return s
}

// Handler returns the router for use with http.Server or httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// price quotes one contract posted as JSON.
func (s *Server) price(w http.ResponseWriter, r *http.Request) {
	var ct config.Contract
	if err := json.NewDecoder(r.Body).Decode(&ct); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request: " + err.Error()})
		return
	}
	logger.Debugf("received /v1/price for %s", ct.Label())
	if err := ct.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	q, err := s.eng.Quote(r.Context(), ct)
	if err != nil {
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// run prices the job the server was started with.
func (s *Server) run(w http.ResponseWriter, r *http.Request) {
	logger.Infof("received /v1/run request")

	res, err := s.eng.Run(r.Context())
	if err != nil {
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, pricing.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, data.ErrNoSpot), errors.Is(err, config.ErrNoContracts):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf("encoding response: %v", err)
	}
}
