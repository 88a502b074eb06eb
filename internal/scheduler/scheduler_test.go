package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/XavierBriggs/Janus/pkg/contracts"
	"github.com/XavierBriggs/Janus/pkg/models"
	"github.com/XavierBriggs/Janus/pkg/testutil"
	"github.com/XavierBriggs/Janus/sports/basketball_nba"
)

// stubAdapter serves canned documents keyed by event ID. Fetches of events
// it doesn't know fail, which exercises per-key isolation.
type stubAdapter struct {
	mu     sync.Mutex
	events []models.EventInfo
	docs   map[string]json.RawMessage
	calls  int
}

func (a *stubAdapter) FetchEvents(ctx context.Context, sport string) ([]models.EventInfo, error) {
	return a.events, nil
}

func (a *stubAdapter) FetchMarketDocument(ctx context.Context, opts *models.FetchMarketOptions) (json.RawMessage, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	doc, ok := a.docs[opts.EventID]
	if !ok {
		return nil, errors.New("event not found")
	}
	return doc, nil
}

func (a *stubAdapter) SupportsMarket(market string) bool { return true }

func (a *stubAdapter) GetRateLimits() *models.RateLimits { return &models.RateLimits{} }

// recordingPublisher captures what the scheduler publishes per key
type recordingPublisher struct {
	mu        sync.Mutex
	published map[models.SnapshotKey][]models.ChangeRecord
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{published: make(map[models.SnapshotKey][]models.ChangeRecord)}
}

func (p *recordingPublisher) Publish(ctx context.Context, key models.SnapshotKey, records []models.ChangeRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published[key] = records
	return nil
}

// recordingNotifier captures alert payloads
type recordingNotifier struct {
	mu      sync.Mutex
	batches [][]models.ChangeRecord
}

func (n *recordingNotifier) NotifyChanges(records []models.ChangeRecord) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.batches = append(n.batches, records)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func singleMarketModule() *basketball_nba.Module {
	cfg := basketball_nba.DefaultConfig()
	cfg.PropMarkets = []models.MarketType{models.MarketPoints}
	return basketball_nba.NewModuleWithConfig(cfg)
}

func TestProcessKeyFullPipeline(t *testing.T) {
	ctx := context.Background()
	event := testutil.NewTestEvent("evt-001", "Los Angeles Lakers", "Boston Celtics", 6)
	key := models.SnapshotKey{EventID: "evt-001", Market: models.MarketPoints}

	adapter := &stubAdapter{
		events: []models.EventInfo{event},
		docs: map[string]json.RawMessage{
			"evt-001": testutil.BuildDocument(event, models.MarketPoints,
				testutil.Bookmaker{Title: "DraftKings", Outcomes: testutil.OverUnder("LeBron James", 24.5, 1.85, 1.95)}),
		},
	}
	repo := testutil.NewMemoryRepo()
	publisher := newRecordingPublisher()
	notifier := &recordingNotifier{}

	s := NewScheduler(adapter, repo, publisher, notifier, nil, quietLogger())
	sport := singleMarketModule()

	// First capture: one snapshot, nothing to compare yet
	n, err := s.processKey(ctx, sport, key)
	if err != nil {
		t.Fatalf("processKey failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected no changes on first capture, got %d", n)
	}

	// Move the line and capture again
	adapter.mu.Lock()
	adapter.docs["evt-001"] = testutil.BuildDocument(event, models.MarketPoints,
		testutil.Bookmaker{Title: "DraftKings", Outcomes: testutil.OverUnder("LeBron James", 25.5, 1.85, 1.95)})
	adapter.mu.Unlock()

	n, err = s.processKey(ctx, sport, key)
	if err != nil {
		t.Fatalf("processKey failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 change records after line move, got %d", n)
	}

	history, _ := repo.ListSnapshots(ctx, key)
	if len(history) != 2 {
		t.Errorf("Expected 2 stored snapshots, got %d", len(history))
	}

	published := publisher.published[key]
	if len(published) != 2 {
		t.Errorf("Expected published change records, got %d", len(published))
	}

	if len(notifier.batches) != 1 {
		t.Errorf("Expected one notification batch, got %d", len(notifier.batches))
	}
}

func TestSweepIsolatesFailingKeys(t *testing.T) {
	ctx := context.Background()
	good := testutil.NewTestEvent("evt-good", "Lakers", "Celtics", 6)
	broken := testutil.NewTestEvent("evt-broken", "Bucks", "Heat", 6)

	adapter := &stubAdapter{
		events: []models.EventInfo{good, broken},
		docs: map[string]json.RawMessage{
			"evt-good": testutil.BuildDocument(good, models.MarketPoints,
				testutil.Bookmaker{Title: "DraftKings", Outcomes: testutil.OverUnder("LeBron James", 24.5, 1.85, 1.95)}),
		},
	}
	repo := testutil.NewMemoryRepo()

	s := NewScheduler(adapter, repo, newRecordingPublisher(), nil, nil, quietLogger())
	sport := singleMarketModule()

	if err := s.sweep(ctx, sport); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	goodKey := models.SnapshotKey{EventID: "evt-good", Market: models.MarketPoints}
	history, _ := repo.ListSnapshots(ctx, goodKey)
	if len(history) != 1 {
		t.Errorf("Expected the healthy key to be captured, got %d snapshots", len(history))
	}

	brokenKey := models.SnapshotKey{EventID: "evt-broken", Market: models.MarketPoints}
	history, _ = repo.ListSnapshots(ctx, brokenKey)
	if len(history) != 0 {
		t.Errorf("Expected no snapshots for the failing key, got %d", len(history))
	}
}

func TestSweepSkipsEventsOutsideDiscoveryWindow(t *testing.T) {
	ctx := context.Background()
	started := testutil.NewTestEvent("evt-started", "Lakers", "Celtics", -1)
	distant := testutil.NewTestEvent("evt-distant", "Bucks", "Heat", 72)
	inWindow := testutil.NewTestEvent("evt-soon", "Warriors", "Suns", 6)

	adapter := &stubAdapter{
		events: []models.EventInfo{started, distant, inWindow},
		docs: map[string]json.RawMessage{
			"evt-started": testutil.BuildDocument(started, models.MarketPoints,
				testutil.Bookmaker{Title: "DraftKings", Outcomes: testutil.OverUnder("LeBron James", 24.5, 1.85, 1.95)}),
			"evt-distant": testutil.BuildDocument(distant, models.MarketPoints,
				testutil.Bookmaker{Title: "DraftKings", Outcomes: testutil.OverUnder("Giannis Antetokounmpo", 31.5, 1.9, 1.9)}),
			"evt-soon": testutil.BuildDocument(inWindow, models.MarketPoints,
				testutil.Bookmaker{Title: "DraftKings", Outcomes: testutil.OverUnder("Stephen Curry", 28.5, 1.9, 1.9)}),
		},
	}
	repo := testutil.NewMemoryRepo()

	s := NewScheduler(adapter, repo, newRecordingPublisher(), nil, nil, quietLogger())
	sport := singleMarketModule()

	if err := s.sweep(ctx, sport); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	keys, _ := repo.ListKeys(ctx, models.MarketPoints)
	if len(keys) != 1 {
		t.Fatalf("Expected only the in-window event to be captured, got %d keys", len(keys))
	}
	if keys[0].EventID != "evt-soon" {
		t.Errorf("Expected evt-soon, got %s", keys[0].EventID)
	}
	if adapter.calls != 1 {
		t.Errorf("Expected 1 document fetch, got %d", adapter.calls)
	}
}

func TestStartRequiresSports(t *testing.T) {
	s := NewScheduler(&stubAdapter{}, testutil.NewMemoryRepo(), newRecordingPublisher(), nil, nil, quietLogger())
	if err := s.Start(context.Background()); err == nil {
		t.Error("Expected error when no sports are registered")
	}
}

func TestStartAndStop(t *testing.T) {
	event := testutil.NewTestEvent("evt-001", "Lakers", "Celtics", 6)
	adapter := &stubAdapter{
		events: []models.EventInfo{event},
		docs: map[string]json.RawMessage{
			"evt-001": testutil.BuildDocument(event, models.MarketPoints,
				testutil.Bookmaker{Title: "DraftKings", Outcomes: testutil.OverUnder("LeBron James", 24.5, 1.85, 1.95)}),
		},
	}
	repo := testutil.NewMemoryRepo()

	s := NewScheduler(adapter, repo, newRecordingPublisher(), nil,
		[]contracts.SportModule{singleMarketModule()}, quietLogger())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Let the initial sweep run
	time.Sleep(100 * time.Millisecond)
	s.Stop()

	key := models.SnapshotKey{EventID: "evt-001", Market: models.MarketPoints}
	history, _ := repo.ListSnapshots(context.Background(), key)
	if len(history) != 1 {
		t.Errorf("Expected initial sweep to capture 1 snapshot, got %d", len(history))
	}
}
