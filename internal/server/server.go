// Package server exposes the read-only query API over views and changes.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/XavierBriggs/Janus/internal/reconcile"
	"github.com/XavierBriggs/Janus/internal/view"
	"github.com/XavierBriggs/Janus/pkg/contracts"
	"github.com/XavierBriggs/Janus/pkg/models"
)

// SnapshotSource extends the snapshot repository with the latest-per-event
// query the players endpoint needs. Satisfied by postgres.Store.
type SnapshotSource interface {
	contracts.SnapshotRepository
	LatestPerEvent(ctx context.Context, market models.MarketType) ([]models.Snapshot, error)
}

// ChangeSource reads cached change lists. Satisfied by cache.Changes.
type ChangeSource interface {
	Latest(ctx context.Context, keys []models.SnapshotKey) (map[models.SnapshotKey][]models.ChangeRecord, error)
}

// Server serves the two query surfaces of the core: player views and change
// lists. Both are immutable snapshots-of-a-computation, rebuilt per request
// (cache-assisted for changes); nothing here mutates state.
type Server struct {
	store   SnapshotSource
	changes ChangeSource
	logger  *slog.Logger
	httpSrv *http.Server
}

// New creates the query server
func New(addr string, store SnapshotSource, changes ChangeSource, logger *slog.Logger) *Server {
	s := &Server{
		store:   store,
		changes: changes,
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/markets/{market}/players", s.handlePlayers)
	mux.HandleFunc("GET /v1/markets/{market}/changes", s.handleChanges)

	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// Start begins serving in a background goroutine
func (s *Server) Start() {
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server failed", "error", err)
		}
	}()
	s.logger.Info("query API listening", "addr", s.httpSrv.Addr)
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePlayers builds the player-centric view for one market over the
// latest snapshot per event. Optional ?event=<id> filters to one event.
func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	market, err := models.ParseMarketType(r.PathValue("market"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	snaps, err := s.store.LatestPerEvent(r.Context(), market)
	if err != nil {
		s.logger.Error("load latest snapshots failed", "market", market, "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Errorf("load snapshots"))
		return
	}

	players, err := view.Build(snaps)
	if err != nil {
		s.logger.Error("view build failed", "market", market, "error", err)
		writeError(w, http.StatusBadGateway, fmt.Errorf("malformed snapshot in history"))
		return
	}

	if eventID := r.URL.Query().Get("event"); eventID != "" {
		players = filterByEvent(players, eventID)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"market":  market,
		"players": players,
		"events":  view.EventNames(players),
	})
}

// changeKeyResult is the per-key payload of the changes endpoint: a change
// list or a tagged failure, never both
type changeKeyResult struct {
	EventID string                `json:"event_id"`
	Market  models.MarketType     `json:"market"`
	Changes []models.ChangeRecord `json:"changes,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// handleChanges reports line and odds movements for every key of one
// market. Cached change lists are served as-is; cache misses fall back to
// reconciling from stored history. One malformed key is reported inline
// and never fails the response.
func (s *Server) handleChanges(w http.ResponseWriter, r *http.Request) {
	market, err := models.ParseMarketType(r.PathValue("market"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	keys, err := s.store.ListKeys(r.Context(), market)
	if err != nil {
		s.logger.Error("list keys failed", "market", market, "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Errorf("list keys"))
		return
	}

	cached, err := s.changes.Latest(r.Context(), keys)
	if err != nil {
		s.logger.Warn("change cache unavailable, recomputing", "market", market, "error", err)
		cached = nil
	}

	var misses []models.SnapshotKey
	for _, key := range keys {
		if _, ok := cached[key]; !ok {
			misses = append(misses, key)
		}
	}

	results := make([]changeKeyResult, 0, len(keys))
	for _, key := range keys {
		if records, ok := cached[key]; ok {
			results = append(results, changeKeyResult{
				EventID: key.EventID,
				Market:  key.Market,
				Changes: records,
			})
		}
	}

	for _, res := range reconcile.ReconcileAll(r.Context(), s.store, misses) {
		out := changeKeyResult{EventID: res.Key.EventID, Market: res.Key.Market}
		if res.Err != nil {
			out.Error = res.Err.Error()
		} else {
			out.Changes = res.Changes
		}
		results = append(results, out)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"market":  market,
		"results": results,
	})
}

func filterByEvent(players map[string]*models.PlayerView, eventID string) map[string]*models.PlayerView {
	filtered := make(map[string]*models.PlayerView)
	for name, pv := range players {
		ev, ok := pv.Events[eventID]
		if !ok {
			continue
		}
		filtered[name] = &models.PlayerView{
			Events:     map[string]*models.EventLines{eventID: ev},
			Bookmakers: pv.Bookmakers,
		}
	}
	return filtered
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
