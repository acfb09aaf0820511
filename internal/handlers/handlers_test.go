package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/jordanngo205/Basketball-Tracker/internal/handlers"
	"github.com/jordanngo205/Basketball-Tracker/internal/model"
	"github.com/jordanngo205/Basketball-Tracker/internal/registry"
)

// MockStore implements handlers.GameStore for testing.
type MockStore struct {
	games       []*registry.Game
	syncCount   int
	shouldError bool
}

func (m *MockStore) SyncGame(ctx context.Context, game *registry.Game) (int, error) {
	if m.shouldError {
		return 0, &model.StoreError{Op: "sync", Err: errors.New("connection refused")}
	}
	m.syncCount = game.Ledger.Len()
	return m.syncCount, nil
}

func (m *MockStore) LoadAll(ctx context.Context) ([]*registry.Game, error) {
	if m.shouldError {
		return nil, &model.StoreError{Op: "load", Err: errors.New("connection refused")}
	}
	return m.games, nil
}

func (m *MockStore) DeleteGame(ctx context.Context, clientID string) error {
	if m.shouldError {
		return &model.StoreError{Op: "delete", Err: errors.New("connection refused")}
	}
	return nil
}

func (m *MockStore) Ping(ctx context.Context) error {
	if m.shouldError {
		return errors.New("connection refused")
	}
	return nil
}

func newServer(t *testing.T, store handlers.GameStore) (*httptest.Server, *handlers.State) {
	t.Helper()
	state := handlers.NewState()
	h := handlers.New(state, store, nil, zerolog.Nop())
	r := chi.NewRouter()
	h.Routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, state
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, decoded
}

func createGame(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, body := doJSON(t, "POST", srv.URL+"/api/v1/games",
		`{"name": "vs Wildcats", "opponent": "Guelph", "date": "2026-01-10"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create game: status %d", resp.StatusCode)
	}
	return body["id"].(string)
}

func TestCreateGame(t *testing.T) {
	srv, state := newServer(t, nil)

	id := createGame(t, srv)
	if state.Registry.Active() == nil || state.Registry.Active().ID != id {
		t.Error("created game must become active")
	}
}

func TestCreateGame_BlankNameRejected(t *testing.T) {
	srv, state := newServer(t, nil)

	resp, _ := doJSON(t, "POST", srv.URL+"/api/v1/games", `{"name": "   "}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if len(state.Registry.Games()) != 0 {
		t.Error("rejected create must not insert a game")
	}
}

func TestUpsertAndDeletePossession(t *testing.T) {
	srv, state := newServer(t, nil)
	id := createGame(t, srv)

	resp, body := doJSON(t, "PUT", srv.URL+"/api/v1/games/"+id+"/possessions/1/1",
		`{"paint_touch": true, "points": 2}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upsert: status %d", resp.StatusCode)
	}
	if body["paint_touch"] != true {
		t.Errorf("possession = %v, want paint_touch true", body)
	}

	// Out-of-domain points must be rejected without materializing anything.
	resp, _ = doJSON(t, "PUT", srv.URL+"/api/v1/games/"+id+"/possessions/1/2", `{"points": 9}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid points: status = %d, want 400", resp.StatusCode)
	}
	if state.Registry.Active().Ledger.Len() != 1 {
		t.Error("rejected upsert must not create a record")
	}

	resp, body = doJSON(t, "DELETE", srv.URL+"/api/v1/games/"+id+"/possessions/1/1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete: status %d", resp.StatusCode)
	}
	if body["removed"] != true {
		t.Error("delete must report the removed record")
	}
	if body["row_count"].(float64) != 29 {
		t.Errorf("row_count = %v, want 29", body["row_count"])
	}
}

func TestGetStats_WildcatsScenario(t *testing.T) {
	srv, _ := newServer(t, nil)
	id := createGame(t, srv)

	seeds := []string{
		`{"paint_touch": true, "points": 2}`,
		`{"paint_touch": true, "points": 0}`,
		`{"paint_touch": false, "points": 3}`,
	}
	for i, seed := range seeds {
		resp, _ := doJSON(t, "PUT", srv.URL+"/api/v1/games/"+id+"/possessions/1/"+string(rune('1'+i)), seed)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("seed %d: status %d", i, resp.StatusCode)
		}
	}

	resp, body := doJSON(t, "GET", srv.URL+"/api/v1/games/"+id+"/stats?scope=quarter&quarter=1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stats: status %d", resp.StatusCode)
	}

	snap := body["stats"].(map[string]interface{})
	if snap["paint_rate"].(float64) != 67 {
		t.Errorf("paint_rate = %v, want 67", snap["paint_rate"])
	}
	if snap["points_per_possession"].(float64) != 1.67 {
		t.Errorf("ppp = %v, want 1.67", snap["points_per_possession"])
	}
	if snap["paint_score_rate"].(float64) != 50 {
		t.Errorf("paint_score_rate = %v, want 50", snap["paint_score_rate"])
	}
	if snap["non_paint_score_rate"].(float64) != 100 {
		t.Errorf("non_paint_score_rate = %v, want 100", snap["non_paint_score_rate"])
	}
	if len(body["quarters"].([]interface{})) != 4 {
		t.Error("quarter comparison must always cover 4 quarters")
	}
}

func TestGetStats_UnknownScope(t *testing.T) {
	srv, _ := newServer(t, nil)
	id := createGame(t, srv)

	resp, _ := doJSON(t, "GET", srv.URL+"/api/v1/games/"+id+"/stats?scope=season", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSyncGame(t *testing.T) {
	store := &MockStore{}
	srv, _ := newServer(t, store)
	id := createGame(t, srv)

	doJSON(t, "PUT", srv.URL+"/api/v1/games/"+id+"/possessions/1/1", `{"points": 2}`)

	resp, body := doJSON(t, "POST", srv.URL+"/api/v1/games/"+id+"/sync", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sync: status %d", resp.StatusCode)
	}
	if body["synced"].(float64) != 1 {
		t.Errorf("synced = %v, want 1", body["synced"])
	}
}

func TestSyncGame_StoreFailureIsRecoverable(t *testing.T) {
	srv, state := newServer(t, &MockStore{shouldError: true})
	id := createGame(t, srv)
	doJSON(t, "PUT", srv.URL+"/api/v1/games/"+id+"/possessions/1/1", `{"points": 2}`)

	resp, _ := doJSON(t, "POST", srv.URL+"/api/v1/games/"+id+"/sync", "")
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}
	// In-memory state survives the failed sync.
	if state.Registry.Active().Ledger.Len() != 1 {
		t.Error("failed sync corrupted in-memory state")
	}
}

func TestSyncGame_PersistenceDisabled(t *testing.T) {
	srv, _ := newServer(t, nil)
	id := createGame(t, srv)

	resp, _ := doJSON(t, "POST", srv.URL+"/api/v1/games/"+id+"/sync", "")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestLoadGames_ReplacesRegistry(t *testing.T) {
	stored := registry.New()
	game, _ := stored.Create("stored game", "Windsor", "2026-01-03")
	store := &MockStore{games: []*registry.Game{game}}

	srv, state := newServer(t, store)
	createGame(t, srv) // pre-load state that the reload replaces

	resp, body := doJSON(t, "POST", srv.URL+"/api/v1/games/load", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("load: status %d", resp.StatusCode)
	}
	if body["loaded"].(float64) != 1 {
		t.Errorf("loaded = %v, want 1", body["loaded"])
	}
	if state.Registry.Active() == nil || state.Registry.Active().ID != game.ID {
		t.Error("reload must replace the registry and select the front game")
	}
}

func TestDeleteGame_MissingIDIsSafe(t *testing.T) {
	srv, _ := newServer(t, nil)

	resp, _ := doJSON(t, "DELETE", srv.URL+"/api/v1/games/missing-id", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200 for safe no-op", resp.StatusCode)
	}
}

func TestExportCSV(t *testing.T) {
	srv, _ := newServer(t, nil)
	id := createGame(t, srv)
	doJSON(t, "PUT", srv.URL+"/api/v1/games/"+id+"/possessions/1/1", `{"paint_touch": true, "points": 2}`)

	resp, err := http.Get(srv.URL + "/api/v1/games/" + id + "/export.csv")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/csv" {
		t.Errorf("content type = %q, want text/csv", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "vs_Wildcats_2026-01-10.csv") {
		t.Errorf("content disposition = %q", cd)
	}
}

func TestHealthCheck_MemoryOnly(t *testing.T) {
	srv, _ := newServer(t, nil)

	resp, body := doJSON(t, "GET", srv.URL+"/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["persistence"] != false {
		t.Error("memory-only mode must report persistence disabled")
	}
}
