package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/XavierBriggs/Janus/pkg/models"
	"github.com/XavierBriggs/Janus/pkg/testutil"
)

// fakeStore is a MemoryRepo that also answers the latest-per-event query
type fakeStore struct {
	*testutil.MemoryRepo
}

func (f *fakeStore) LatestPerEvent(ctx context.Context, market models.MarketType) ([]models.Snapshot, error) {
	keys, err := f.ListKeys(ctx, market)
	if err != nil {
		return nil, err
	}
	var out []models.Snapshot
	for _, key := range keys {
		history, err := f.ListSnapshots(ctx, key)
		if err != nil {
			return nil, err
		}
		if len(history) > 0 {
			out = append(out, history[len(history)-1])
		}
	}
	return out, nil
}

// fakeChanges serves a fixed cache content
type fakeChanges struct {
	cached map[models.SnapshotKey][]models.ChangeRecord
}

func (f *fakeChanges) Latest(ctx context.Context, keys []models.SnapshotKey) (map[models.SnapshotKey][]models.ChangeRecord, error) {
	out := make(map[models.SnapshotKey][]models.ChangeRecord)
	for _, key := range keys {
		if records, ok := f.cached[key]; ok {
			out[key] = records
		}
	}
	return out, nil
}

func newTestServer(t *testing.T, store SnapshotSource, changes ChangeSource) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(":0", store, changes, logger)
	ts := httptest.NewServer(srv.httpSrv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func seedSnapshot(t *testing.T, store *fakeStore, event models.EventInfo, capturedAt time.Time, books ...testutil.Bookmaker) {
	t.Helper()
	key := models.SnapshotKey{EventID: event.ID, Market: models.MarketPoints}
	snap := testutil.NewSnapshot(key, capturedAt, testutil.BuildDocument(event, models.MarketPoints, books...))
	if err := store.Save(context.Background(), snap); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
}

func getJSON(t *testing.T, url string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, &fakeStore{testutil.NewMemoryRepo()}, &fakeChanges{})

	var body map[string]string
	if status := getJSON(t, ts.URL+"/healthz", &body); status != http.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}
	if body["status"] != "ok" {
		t.Errorf("Unexpected health payload: %v", body)
	}
}

func TestPlayersEndpoint(t *testing.T) {
	store := &fakeStore{testutil.NewMemoryRepo()}
	now := time.Now().UTC()

	event := testutil.NewTestEvent("evt-001", "Los Angeles Lakers", "Boston Celtics", 6)
	seedSnapshot(t, store, event, now,
		testutil.Bookmaker{Title: "DraftKings", Outcomes: testutil.OverUnder("LeBron James", 24.5, 1.85, 1.95)},
	)

	ts := newTestServer(t, store, &fakeChanges{})

	var body struct {
		Market  string                        `json:"market"`
		Players map[string]*models.PlayerView `json:"players"`
	}
	if status := getJSON(t, ts.URL+"/v1/markets/player_points/players", &body); status != http.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}

	if body.Market != "player_points" {
		t.Errorf("Unexpected market: %s", body.Market)
	}
	pv, ok := body.Players["LeBron James"]
	if !ok {
		t.Fatal("Expected LeBron James in response")
	}
	line := pv.Events["evt-001"].Books["DraftKings"]
	if line == nil || line.Line == nil || *line.Line != 24.5 {
		t.Errorf("Unexpected book line: %+v", line)
	}
}

func TestPlayersEndpointEventFilter(t *testing.T) {
	store := &fakeStore{testutil.NewMemoryRepo()}
	now := time.Now().UTC()

	seedSnapshot(t, store, testutil.NewTestEvent("evt-001", "Lakers", "Celtics", 6), now,
		testutil.Bookmaker{Title: "DraftKings", Outcomes: testutil.OverUnder("LeBron James", 24.5, 1.85, 1.95)})
	seedSnapshot(t, store, testutil.NewTestEvent("evt-002", "Bucks", "Heat", 6), now,
		testutil.Bookmaker{Title: "DraftKings", Outcomes: testutil.OverUnder("Giannis Antetokounmpo", 31.5, 1.9, 1.9)})

	ts := newTestServer(t, store, &fakeChanges{})

	var body struct {
		Players map[string]*models.PlayerView `json:"players"`
	}
	getJSON(t, ts.URL+"/v1/markets/player_points/players?event=evt-002", &body)

	if len(body.Players) != 1 {
		t.Fatalf("Expected 1 player after filtering, got %d", len(body.Players))
	}
	if _, ok := body.Players["Giannis Antetokounmpo"]; !ok {
		t.Error("Expected only evt-002 players in response")
	}
}

func TestPlayersEndpointUnknownMarket(t *testing.T) {
	ts := newTestServer(t, &fakeStore{testutil.NewMemoryRepo()}, &fakeChanges{})

	var body map[string]string
	if status := getJSON(t, ts.URL+"/v1/markets/player_threes/players", &body); status != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown market, got %d", status)
	}
}

func TestChangesEndpointRecomputesMisses(t *testing.T) {
	store := &fakeStore{testutil.NewMemoryRepo()}
	now := time.Now().UTC()
	event := testutil.NewTestEvent("evt-001", "Lakers", "Celtics", 6)

	seedSnapshot(t, store, event, now.Add(-5*time.Minute),
		testutil.Bookmaker{Title: "DraftKings", Outcomes: testutil.OverUnder("LeBron James", 24.5, 1.85, 1.95)})
	seedSnapshot(t, store, event, now,
		testutil.Bookmaker{Title: "DraftKings", Outcomes: testutil.OverUnder("LeBron James", 25.5, 1.85, 1.95)})

	// Empty cache: every key is a miss and falls back to reconciliation
	ts := newTestServer(t, store, &fakeChanges{})

	var body struct {
		Results []struct {
			EventID string                `json:"event_id"`
			Changes []models.ChangeRecord `json:"changes"`
			Error   string                `json:"error"`
		} `json:"results"`
	}
	if status := getJSON(t, ts.URL+"/v1/markets/player_points/changes", &body); status != http.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}

	if len(body.Results) != 1 {
		t.Fatalf("Expected 1 key result, got %d", len(body.Results))
	}
	res := body.Results[0]
	if res.EventID != "evt-001" || res.Error != "" {
		t.Fatalf("Unexpected result: %+v", res)
	}
	if len(res.Changes) != 2 {
		t.Errorf("Expected 2 change records, got %d", len(res.Changes))
	}
}

func TestChangesEndpointServesCache(t *testing.T) {
	store := &fakeStore{testutil.NewMemoryRepo()}
	now := time.Now().UTC()
	event := testutil.NewTestEvent("evt-001", "Lakers", "Celtics", 6)
	key := models.SnapshotKey{EventID: "evt-001", Market: models.MarketPoints}

	seedSnapshot(t, store, event, now,
		testutil.Bookmaker{Title: "DraftKings", Outcomes: testutil.OverUnder("LeBron James", 24.5, 1.85, 1.95)})

	cached := &fakeChanges{cached: map[models.SnapshotKey][]models.ChangeRecord{
		key: {{
			Player:    "LeBron James",
			Bookmaker: "DraftKings",
			BetType:   models.SideOver,
			Changes:   []models.FieldChange{{Kind: models.FieldLine, Previous: 24.5, Current: 25.5, Delta: 1.0}},
		}},
	}}

	ts := newTestServer(t, store, cached)

	var body struct {
		Results []struct {
			Changes []models.ChangeRecord `json:"changes"`
		} `json:"results"`
	}
	getJSON(t, ts.URL+"/v1/markets/player_points/changes", &body)

	if len(body.Results) != 1 || len(body.Results[0].Changes) != 1 {
		t.Fatalf("Expected the cached change list, got %+v", body.Results)
	}
	if body.Results[0].Changes[0].Changes[0].Delta != 1.0 {
		t.Errorf("Unexpected cached delta: %v", body.Results[0].Changes[0].Changes[0].Delta)
	}
}
