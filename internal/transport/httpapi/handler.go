// Package httpapi serves the simulator as a JSON HTTP API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/xtding233/sancheck/internal/logging"
	"github.com/xtding233/sancheck/internal/metrics"
	"github.com/xtding233/sancheck/internal/scenario"
	"github.com/xtding233/sancheck/internal/service"
)

const maxBodyBytes = 1 << 20

type errResp struct {
	Err string `json:"err"`
}

type rollResp struct {
	Expr   string `json:"expr"`
	Values []int  `json:"values"`
}

type server struct {
	svc    *service.Service
	logger *slog.Logger
}

// NewHandler returns the API router. metrics may be nil.
func NewHandler(svc *service.Service, rec *metrics.Recorder, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &server{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	if rec != nil {
		r.Handle("/metrics", rec.Handler())
	}
	r.Route("/v1", func(r chi.Router) {
		r.Post("/sweep", s.handleSweep)
		r.Get("/scenarios", s.handleList)
		r.Get("/scenarios/{name}/sweep", s.handleScenarioSweep)
		r.Get("/roll", s.handleRoll)
	})
	return r
}

func parseInt(r *http.Request, key string) (*int, string) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return nil, ""
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, "invalid " + key
	}
	return &v, ""
}

func parseUint(r *http.Request, key string) (*uint64, string) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return nil, ""
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, "invalid " + key
	}
	return &v, ""
}

// parseIntList reads a comma separated list such as san=30,40,50.
func parseIntList(r *http.Request, key string) ([]int, string) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return nil, ""
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, "invalid " + key
		}
		out = append(out, v)
	}
	return out, ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case service.IsInvalidInput(err):
		status = http.StatusBadRequest
	case errors.Is(err, scenario.ErrUnknownScenario):
		status = http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errResp{Err: err.Error()})
}

// POST /v1/sweep with a scenario document as the body
func (s *server) handleSweep(w http.ResponseWriter, r *http.Request) {
	var doc scenario.Document
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		writeJSON(w, http.StatusBadRequest, errResp{Err: "invalid body: " + err.Error()})
		return
	}
	rep, err := s.svc.SweepDocument(r.Context(), doc)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *server) handleList(w http.ResponseWriter, r *http.Request) {
	names, err := s.svc.Scenarios()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"scenarios": names})
}

// GET /v1/scenarios/{name}/sweep?trials=&seed=&workers=&san=
func (s *server) handleScenarioSweep(w http.ResponseWriter, r *http.Request) {
	var o scenario.Overrides
	var msg string
	if o.Trials, msg = parseInt(r, "trials"); msg != "" {
		writeJSON(w, http.StatusBadRequest, errResp{Err: msg})
		return
	}
	if o.Workers, msg = parseInt(r, "workers"); msg != "" {
		writeJSON(w, http.StatusBadRequest, errResp{Err: msg})
		return
	}
	if o.Seed, msg = parseUint(r, "seed"); msg != "" {
		writeJSON(w, http.StatusBadRequest, errResp{Err: msg})
		return
	}
	if o.InitialSAN, msg = parseIntList(r, "san"); msg != "" {
		writeJSON(w, http.StatusBadRequest, errResp{Err: msg})
		return
	}

	rep, err := s.svc.SweepScenario(r.Context(), chi.URLParam(r, "name"), o)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// GET /v1/roll?expr=1D4&n=5&seed=1
func (s *server) handleRoll(w http.ResponseWriter, r *http.Request) {
	expr := r.URL.Query().Get("expr")
	if expr == "" {
		writeJSON(w, http.StatusBadRequest, errResp{Err: "missing param expr"})
		return
	}
	n, msg := parseInt(r, "n")
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, errResp{Err: msg})
		return
	}
	count := 1
	if n != nil {
		count = *n
	}
	seed, msg := parseUint(r, "seed")
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, errResp{Err: msg})
		return
	}

	vals, err := s.svc.Roll(expr, count, seed)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rollResp{Expr: expr, Values: vals})
}
