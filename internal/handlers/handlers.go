// Package handlers exposes the tracker core over HTTP for the scoring UI.
// The core is strictly sequential; a single mutex serializes every mutation
// so chi's concurrent serving never interleaves ledger operations.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/jordanngo205/Basketball-Tracker/internal/cache"
	"github.com/jordanngo205/Basketball-Tracker/internal/export"
	"github.com/jordanngo205/Basketball-Tracker/internal/model"
	"github.com/jordanngo205/Basketball-Tracker/internal/registry"
	"github.com/jordanngo205/Basketball-Tracker/internal/stats"
)

// GameStore is the persistence collaborator. A nil GameStore means the
// service runs memory-only.
type GameStore interface {
	SyncGame(ctx context.Context, game *registry.Game) (int, error)
	LoadAll(ctx context.Context) ([]*registry.Game, error)
	DeleteGame(ctx context.Context, clientID string) error
	Ping(ctx context.Context) error
}

// Handler contains dependencies for HTTP handlers.
type Handler struct {
	state     *State
	store     GameStore             // nil when persistence is disabled
	snapshots *cache.SnapshotWriter // nil when the cache is disabled
	log       zerolog.Logger
}

// New creates a new handler with dependencies.
func New(state *State, store GameStore, snapshots *cache.SnapshotWriter, log zerolog.Logger) *Handler {
	return &Handler{
		state:     state,
		store:     store,
		snapshots: snapshots,
		log:       log,
	}
}

// Routes mounts every endpoint on a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", h.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/games", h.CreateGame)
		r.Get("/games", h.ListGames)
		r.Post("/games/load", h.LoadGames)
		r.Post("/games/{gameID}/select", h.SelectGame)
		r.Delete("/games/{gameID}", h.DeleteGame)
		r.Get("/games/{gameID}/possessions", h.GetPossessions)
		r.Put("/games/{gameID}/possessions/{quarter}/{number}", h.UpsertPossession)
		r.Delete("/games/{gameID}/possessions/{quarter}/{number}", h.DeletePossession)
		r.Post("/games/{gameID}/quarters/{quarter}/rows", h.ExpandRows)
		r.Get("/games/{gameID}/stats", h.GetStats)
		r.Get("/games/{gameID}/export.csv", h.ExportCSV)
		r.Post("/games/{gameID}/sync", h.SyncGame)
	})
}

// HealthCheck returns the health status of the service.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	payload := map[string]interface{}{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"service":     "tracker-service",
		"persistence": h.store != nil,
	}

	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			respondError(w, http.StatusServiceUnavailable, "database unhealthy", err, h.log)
			return
		}
	}

	respondJSON(w, http.StatusOK, payload, h.log)
}

type createGameRequest struct {
	Name     string `json:"name"`
	Opponent string `json:"opponent"`
	Date     string `json:"date"`
}

// CreateGame creates a game and makes it active.
func (h *Handler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err, h.log)
		return
	}
	if req.Date == "" {
		req.Date = time.Now().UTC().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD", err, h.log)
		return
	}

	h.state.Lock()
	defer h.state.Unlock()

	game, err := h.state.Registry.Create(req.Name, req.Opponent, req.Date)
	if err != nil {
		respondError(w, http.StatusBadRequest, "game name is required", err, h.log)
		return
	}

	h.log.Info().Str("game_id", game.ID).Str("name", game.Name).Msg("game created")
	respondJSON(w, http.StatusCreated, gameSummary(game, true), h.log)
}

// ListGames returns all games, most-recent-first, with the active one
// flagged.
func (h *Handler) ListGames(w http.ResponseWriter, r *http.Request) {
	h.state.Lock()
	defer h.state.Unlock()

	active := h.state.Registry.Active()
	games := h.state.Registry.Games()
	summaries := make([]map[string]interface{}, 0, len(games))
	for _, g := range games {
		summaries = append(summaries, gameSummary(g, active != nil && active.ID == g.ID))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"games": summaries,
		"count": len(summaries),
	}, h.log)
}

// SelectGame makes a game active.
func (h *Handler) SelectGame(w http.ResponseWriter, r *http.Request) {
	h.state.Lock()
	defer h.state.Unlock()

	game := h.state.Registry.Get(chi.URLParam(r, "gameID"))
	if game == nil {
		respondError(w, http.StatusNotFound, "game not found", nil, h.log)
		return
	}
	h.state.Registry.Select(game.ID)
	respondJSON(w, http.StatusOK, gameSummary(game, true), h.log)
}

// DeleteGame removes a game from the registry and, when persistence is
// configured, from the store. Store failures degrade to a warning; the
// in-memory delete still happens.
func (h *Handler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")

	h.state.Lock()
	h.state.Registry.Delete(gameID)
	h.state.Unlock()

	payload := map[string]interface{}{"deleted": gameID}

	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := h.store.DeleteGame(ctx, gameID); err != nil {
			h.log.Warn().Err(err).Str("game_id", gameID).Msg("store delete failed")
			payload["store_warning"] = err.Error()
		}
	}
	if h.snapshots != nil {
		if err := h.snapshots.DropGame(r.Context(), gameID); err != nil {
			h.log.Warn().Err(err).Str("game_id", gameID).Msg("snapshot drop failed")
		}
	}

	respondJSON(w, http.StatusOK, payload, h.log)
}

// GetPossessions returns the filled slots and visible row count for a
// quarter, or the full ordered set when no quarter is given.
func (h *Handler) GetPossessions(w http.ResponseWriter, r *http.Request) {
	h.state.Lock()
	defer h.state.Unlock()

	game := h.state.Registry.Get(chi.URLParam(r, "gameID"))
	if game == nil {
		respondError(w, http.StatusNotFound, "game not found", nil, h.log)
		return
	}

	if quarterStr := r.URL.Query().Get("quarter"); quarterStr != "" {
		quarter, err := strconv.Atoi(quarterStr)
		if err != nil || quarter < 1 || quarter > 4 {
			respondError(w, http.StatusBadRequest, "quarter must be 1-4", err, h.log)
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"quarter":     quarter,
			"row_count":   game.Ledger.RowCount(quarter),
			"possessions": possessionsOrEmpty(game.Ledger.ByQuarter(quarter)),
		}, h.log)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"possessions": possessionsOrEmpty(game.Ledger.All()),
		"count":       game.Ledger.Len(),
	}, h.log)
}

// UpsertPossession applies a partial field update to a (quarter, number)
// slot, materializing it on first write.
func (h *Handler) UpsertPossession(w http.ResponseWriter, r *http.Request) {
	quarter, number, ok := slotParams(w, r, h.log)
	if !ok {
		return
	}

	var updates model.FieldUpdates
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err, h.log)
		return
	}
	if updates.Empty() {
		respondError(w, http.StatusBadRequest, "no fields to update", nil, h.log)
		return
	}

	h.state.Lock()
	defer h.state.Unlock()

	game := h.state.Registry.Get(chi.URLParam(r, "gameID"))
	if game == nil {
		respondError(w, http.StatusNotFound, "game not found", nil, h.log)
		return
	}

	possession, err := game.Ledger.Upsert(quarter, number, updates)
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			respondError(w, http.StatusBadRequest, verr.Error(), err, h.log)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to update possession", err, h.log)
		return
	}

	respondJSON(w, http.StatusOK, possession, h.log)
}

// DeletePossession removes a slot, renumbers the quarter and shrinks its
// visible rows. Deleting an unfilled slot is a no-op on the record set.
func (h *Handler) DeletePossession(w http.ResponseWriter, r *http.Request) {
	quarter, number, ok := slotParams(w, r, h.log)
	if !ok {
		return
	}

	h.state.Lock()
	defer h.state.Unlock()

	game := h.state.Registry.Get(chi.URLParam(r, "gameID"))
	if game == nil {
		respondError(w, http.StatusNotFound, "game not found", nil, h.log)
		return
	}

	removed := game.Ledger.Delete(quarter, number)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"removed":   removed,
		"row_count": game.Ledger.RowCount(quarter),
	}, h.log)
}

// ExpandRows adds one blank editable row to a quarter.
func (h *Handler) ExpandRows(w http.ResponseWriter, r *http.Request) {
	quarter, err := strconv.Atoi(chi.URLParam(r, "quarter"))
	if err != nil || quarter < 1 || quarter > 4 {
		respondError(w, http.StatusBadRequest, "quarter must be 1-4", err, h.log)
		return
	}

	h.state.Lock()
	defer h.state.Unlock()

	game := h.state.Registry.Get(chi.URLParam(r, "gameID"))
	if game == nil {
		respondError(w, http.StatusNotFound, "game not found", nil, h.log)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"quarter":   quarter,
		"row_count": game.Ledger.Expand(quarter),
	}, h.log)
}

// GetStats computes the dashboard snapshot for a scope: one quarter, one
// half, or the full game. Always includes the four-quarter comparison
// series.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	h.state.Lock()
	defer h.state.Unlock()

	game := h.state.Registry.Get(chi.URLParam(r, "gameID"))
	if game == nil {
		respondError(w, http.StatusNotFound, "game not found", nil, h.log)
		return
	}

	scope := r.URL.Query().Get("scope")
	if scope == "" {
		scope = "game"
	}

	var subset []model.Possession
	switch scope {
	case "quarter":
		quarter := parseIntParam(r, "quarter", 1)
		if quarter < 1 || quarter > 4 {
			respondError(w, http.StatusBadRequest, "quarter must be 1-4", nil, h.log)
			return
		}
		subset = game.Ledger.ByQuarter(quarter)
	case "half":
		half := parseIntParam(r, "half", 1)
		if half < 1 || half > 2 {
			respondError(w, http.StatusBadRequest, "half must be 1 or 2", nil, h.log)
			return
		}
		subset = game.Ledger.ByHalf(half)
	case "game":
		subset = game.Ledger.All()
	default:
		respondError(w, http.StatusBadRequest, "scope must be quarter, half or game", nil, h.log)
		return
	}

	snapshot := cache.GameSnapshot{
		GameID:     game.ID,
		Scope:      scope,
		Stats:      stats.Summarize(subset),
		Quarters:   stats.QuarterComparison(game.Ledger),
		CapturedAt: time.Now().UTC(),
	}

	if h.snapshots != nil {
		if err := h.snapshots.WriteGameSnapshot(r.Context(), snapshot); err != nil {
			h.log.Warn().Err(err).Str("game_id", game.ID).Msg("snapshot write failed")
		}
	}

	respondJSON(w, http.StatusOK, snapshot, h.log)
}

// ExportCSV streams the possession table as a CSV download.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	h.state.Lock()
	defer h.state.Unlock()

	game := h.state.Registry.Get(chi.URLParam(r, "gameID"))
	if game == nil {
		respondError(w, http.StatusNotFound, "game not found", nil, h.log)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(game)+`"`)
	if err := export.WriteCSV(w, game); err != nil {
		h.log.Error().Err(err).Str("game_id", game.ID).Msg("csv export failed")
	}
}

// SyncGame pushes a game's full possession set to the store. Store failures
// are recoverable: the client gets the error payload and in-memory state is
// untouched.
func (h *Handler) SyncGame(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, "persistence is not configured", nil, h.log)
		return
	}

	h.state.Lock()
	defer h.state.Unlock()

	game := h.state.Registry.Get(chi.URLParam(r, "gameID"))
	if game == nil {
		respondError(w, http.StatusNotFound, "game not found", nil, h.log)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	synced, err := h.store.SyncGame(ctx, game)
	if err != nil {
		respondError(w, http.StatusBadGateway, "sync failed", err, h.log)
		return
	}

	h.log.Info().Str("game_id", game.ID).Int("possessions", synced).Msg("game synced")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"game_id": game.ID,
		"synced":  synced,
	}, h.log)
}

// LoadGames replaces the registry with the store's contents. The swap only
// happens after a fully successful load.
func (h *Handler) LoadGames(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, "persistence is not configured", nil, h.log)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	games, err := h.store.LoadAll(ctx)
	if err != nil {
		respondError(w, http.StatusBadGateway, "load failed", err, h.log)
		return
	}

	h.state.Lock()
	defer h.state.Unlock()

	h.state.Registry.Replace(games)
	h.log.Info().Int("games", len(games)).Msg("registry reloaded from store")
	respondJSON(w, http.StatusOK, map[string]interface{}{"loaded": len(games)}, h.log)
}

// Helper functions

func gameSummary(g *registry.Game, active bool) map[string]interface{} {
	return map[string]interface{}{
		"id":          g.ID,
		"name":        g.Name,
		"opponent":    g.Opponent,
		"date":        g.Date,
		"created_at":  g.CreatedAt,
		"possessions": g.Ledger.Len(),
		"active":      active,
	}
}

func possessionsOrEmpty(subset []model.Possession) []model.Possession {
	if subset == nil {
		return []model.Possession{}
	}
	return subset
}

func slotParams(w http.ResponseWriter, r *http.Request, log zerolog.Logger) (quarter, number int, ok bool) {
	quarter, err := strconv.Atoi(chi.URLParam(r, "quarter"))
	if err != nil || quarter < 1 || quarter > 4 {
		respondError(w, http.StatusBadRequest, "quarter must be 1-4", err, log)
		return 0, 0, false
	}
	number, err = strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil || number < 1 {
		respondError(w, http.StatusBadRequest, "possession number must be positive", err, log)
		return 0, 0, false
	}
	return quarter, number, true
}

func parseIntParam(r *http.Request, param string, defaultValue int) int {
	valueStr := r.URL.Query().Get(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}, log zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("encoding response")
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error, log zerolog.Logger) {
	if err != nil {
		log.Error().Err(err).Msg(message)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error().Err(err).Msg("encoding error response")
	}
}
