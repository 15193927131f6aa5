/*
Package api
File: handlers.go
Description:
    HTTP handlers for the factory REST API.
    They decode and validate JSON requests, drive the Factory, and answer
    with JSON snapshots. Every state change is also published to the Hub.

    Key Responsibilities:
    - Input validation (is the JSON valid, are the names known)
    - Translating game errors into HTTP status codes
    - Feeding step results to the ledger and the metrics
*/

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/everforgeworks/factory-sim/internal/game"
	"github.com/everforgeworks/factory-sim/internal/metrics"
	"github.com/everforgeworks/factory-sim/internal/store"
)

// Ledger is the production history the server writes to. It may be nil.
type Ledger interface {
	Record(ctx context.Context, tick uint64, source string, reports []game.Report) error
	History(ctx context.Context, buildingID string, limit int) ([]store.ProductionRecord, error)
	Totals(ctx context.Context) ([]store.Total, error)
}

// Request DTOs

type PlaceRequest struct {
	Type string `json:"type" validate:"required"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

type ResourceRequest struct {
	Resource string  `json:"resource" validate:"required"`
	Amount   float64 `json:"amount" validate:"gt=0"`
}

type EfficiencyRequest struct {
	Efficiency float64 `json:"efficiency" validate:"gt=0,lte=1000"`
}

type LinkRequest struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required,nefield=From"`
}

// LinkEvent is the payload of a buildings_linked event.
type LinkEvent struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Server bundles the factory with everything that observes it.
type Server struct {
	factory     *game.Factory
	hub         *Hub
	ledger      Ledger
	metrics     *metrics.Metrics
	log         *zap.Logger
	validate    *validator.Validate
	allowOrigin string
}

// NewServer wires the handlers. ledger may be nil to run without history.
func NewServer(f *game.Factory, hub *Hub, ledger Ledger, m *metrics.Metrics, log *zap.Logger, allowOrigin string) *Server {
	return &Server{
		factory:     f,
		hub:         hub,
		ledger:      ledger,
		metrics:     m,
		log:         log.Named("api"),
		validate:    validator.New(),
		allowOrigin: allowOrigin,
	}
}

// Routes builds the HTTP router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.cors)

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", s.handleGetCatalog)

		r.Get("/buildings", s.handleListBuildings)
		r.Post("/buildings", s.handlePlaceBuilding)
		r.Route("/buildings/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetBuilding)
			r.Delete("/", s.handleRemoveBuilding)
			r.Post("/deposit", s.handleDeposit)
			r.Post("/withdraw", s.handleWithdraw)
			r.Post("/efficiency", s.handleSetEfficiency)
			r.Post("/produce", s.handleProduce)
		})

		r.Post("/links", s.handleLink)
		r.Post("/step", s.handleStep)

		r.Get("/history", s.handleHistory)
		r.Get("/history/totals", s.handleTotals)
	})

	r.Handle("/metrics", s.metrics.Handler())
	r.Get("/ws", s.hub.ServeWs)
	return r
}

// cors lets a browser client on another origin talk to the server.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleGetCatalog returns the capacities and colors of every building kind.
func (s *Server) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	cat := s.factory.Catalog()
	out := make(map[string]game.BuildingSpec, len(cat))
	for kind, spec := range cat {
		out[kind.String()] = spec
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListBuildings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.factory.List())
}

func (s *Server) handleGetBuilding(w http.ResponseWriter, r *http.Request) {
	snap, err := s.factory.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handlePlaceBuilding puts a new building on a free cell.
func (s *Server) handlePlaceBuilding(w http.ResponseWriter, r *http.Request) {
	var req PlaceRequest
	if !s.decode(w, r, &req) {
		return
	}

	kind, err := game.ParseBuildingType(req.Type)
	if err != nil {
		s.writeError(w, err)
		return
	}

	snap, err := s.factory.Place(kind, req.X, req.Y)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.log.Info("building placed",
		zap.String("id", snap.ID), zap.Stringer("type", snap.Type),
		zap.Int("x", snap.X), zap.Int("y", snap.Y))
	s.metrics.SetBuildings(s.factory.List())
	s.hub.Publish(r.Context(), EventBuildingPlaced, snap)

	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleRemoveBuilding(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.factory.Remove(id); err != nil {
		s.writeError(w, err)
		return
	}

	s.log.Info("building removed", zap.String("id", id))
	s.metrics.SetBuildings(s.factory.List())
	s.hub.Publish(r.Context(), EventBuildingRemoved, map[string]string{"id": id})

	w.WriteHeader(http.StatusNoContent)
}

// handleDeposit loads resource into a building's input side.
func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	s.moveResource(w, r, s.factory.Deposit)
}

// handleWithdraw takes resource out of a building's output side.
func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	s.moveResource(w, r, s.factory.Withdraw)
}

func (s *Server) moveResource(w http.ResponseWriter, r *http.Request,
	move func(id string, res game.ResourceType, amount float64) (game.Snapshot, error)) {
	var req ResourceRequest
	if !s.decode(w, r, &req) {
		return
	}

	res, err := game.ParseResourceType(req.Resource)
	if err != nil {
		s.writeError(w, err)
		return
	}

	snap, err := move(chi.URLParam(r, "id"), res, req.Amount)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.hub.Publish(r.Context(), EventBuildingUpdated, snap)
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSetEfficiency(w http.ResponseWriter, r *http.Request) {
	var req EfficiencyRequest
	if !s.decode(w, r, &req) {
		return
	}

	snap, err := s.factory.SetEfficiency(chi.URLParam(r, "id"), req.Efficiency)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.hub.Publish(r.Context(), EventBuildingUpdated, snap)
	writeJSON(w, http.StatusOK, snap)
}

// handleProduce runs one production call on a single building, outside a tick.
func (s *Server) handleProduce(w http.ResponseWriter, r *http.Request) {
	rep, err := s.factory.Produce(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.metrics.ObserveReport(rep)
	s.record(r.Context(), s.factory.Tick(), store.SourceProduce, []game.Report{rep})

	if snap, err := s.factory.Get(rep.BuildingID); err == nil {
		s.hub.Publish(r.Context(), EventBuildingUpdated, snap)
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleLink(w http.ResponseWriter, r *http.Request) {
	var req LinkRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.factory.Connect(req.From, req.To); err != nil {
		s.writeError(w, err)
		return
	}

	s.hub.Publish(r.Context(), EventBuildingsLinked, LinkEvent{From: req.From, To: req.To})
	writeJSON(w, http.StatusOK, LinkEvent{From: req.From, To: req.To})
}

// handleStep advances the whole floor by one tick.
func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	rep := s.factory.Step()

	s.metrics.ObserveTick(rep)
	s.record(r.Context(), rep.Tick, store.SourceStep, rep.Buildings)

	s.log.Debug("tick",
		zap.Uint64("tick", rep.Tick),
		zap.Int("buildings", len(rep.Buildings)),
		zap.Int("working", rep.Working()))
	s.hub.Publish(r.Context(), EventTick, rep)

	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		http.Error(w, "Production history disabled", http.StatusNotFound)
		return
	}

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	recs, err := s.ledger.History(r.Context(), r.URL.Query().Get("building"), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		http.Error(w, "Production history disabled", http.StatusNotFound)
		return
	}

	totals, err := s.ledger.Totals(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

// record writes to the ledger. A failed write is logged; the production
// already happened and the client still gets its report.
func (s *Server) record(ctx context.Context, tick uint64, source string, reports []game.Report) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.Record(ctx, tick, source, reports); err != nil {
		s.log.Error("ledger write failed", zap.Uint64("tick", tick), zap.String("source", source), zap.Error(err))
	}
}

// decode reads and validates a JSON body, answering 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, game.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, game.ErrOccupied),
		errors.Is(err, game.ErrOverCapacity),
		errors.Is(err, game.ErrInsufficient):
		status = http.StatusConflict
	case errors.Is(err, game.ErrUnknownBuilding),
		errors.Is(err, game.ErrUnknownResource),
		errors.Is(err, game.ErrNoSlot),
		errors.Is(err, game.ErrInvalidAmount),
		errors.Is(err, game.ErrSelfLink):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		s.log.Error("request failed", zap.Error(err))
	}
	http.Error(w, err.Error(), status)
}

// writeJSON encodes before writing the header, so an unencodable value
// becomes a 500 instead of an empty success.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}
