package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/XavierBriggs/Janus/internal/normalize"
	"github.com/XavierBriggs/Janus/internal/reconcile"
	"github.com/XavierBriggs/Janus/pkg/contracts"
	"github.com/XavierBriggs/Janus/pkg/models"
)

// Notifier receives change records after each reconciliation
type Notifier interface {
	NotifyChanges(records []models.ChangeRecord) error
}

// ChangePublisher receives each key's reconciliation output for read-side
// caching. Satisfied by cache.Changes.
type ChangePublisher interface {
	Publish(ctx context.Context, key models.SnapshotKey, records []models.ChangeRecord) error
}

// Scheduler orchestrates the snapshot pipeline for all registered sports:
// fetch → store → reconcile → publish. Keys are independent, so a failure
// on one (event, market) pair never aborts the rest of a sweep.
type Scheduler struct {
	adapter  contracts.VendorAdapter
	repo     contracts.SnapshotRepository
	changes  ChangePublisher
	notifier Notifier
	sports   []contracts.SportModule
	logger   *slog.Logger

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewScheduler creates a polling scheduler. notifier may be nil when
// alerting is disabled.
func NewScheduler(
	adapter contracts.VendorAdapter,
	repo contracts.SnapshotRepository,
	changes ChangePublisher,
	notifier Notifier,
	sports []contracts.SportModule,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		adapter:  adapter,
		repo:     repo,
		changes:  changes,
		notifier: notifier,
		sports:   sports,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start begins polling for all registered sports
func (s *Scheduler) Start(ctx context.Context) error {
	if len(s.sports) == 0 {
		return fmt.Errorf("no sports registered")
	}

	for _, sport := range s.sports {
		s.wg.Add(1)
		go func(sport contracts.SportModule) {
			defer s.wg.Done()
			s.pollSport(ctx, sport)
		}(sport)

		s.logger.Info("started polling",
			"sport", sport.GetSportKey(),
			"interval", sport.GetPollInterval(),
			"markets", len(sport.GetPropMarkets()))
	}

	return nil
}

// Stop gracefully shuts down the scheduler
func (s *Scheduler) Stop() {
	close(s.stopChan)
	s.wg.Wait()
}

// pollSport sweeps one sport at its configured interval
func (s *Scheduler) pollSport(ctx context.Context, sport contracts.SportModule) {
	// Initial sweep immediately
	if err := s.sweep(ctx, sport); err != nil {
		s.logger.Error("initial sweep failed", "sport", sport.GetSportKey(), "error", err)
	}

	ticker := time.NewTicker(sport.GetPollInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.sweep(ctx, sport); err != nil {
				s.logger.Error("sweep failed", "sport", sport.GetSportKey(), "error", err)
			}
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// sweep captures one snapshot per (event, market) key and reconciles each
// key against its stored history
func (s *Scheduler) sweep(ctx context.Context, sport contracts.SportModule) error {
	start := time.Now()

	events, err := s.adapter.FetchEvents(ctx, sport.GetSportKey())
	if err != nil {
		return fmt.Errorf("fetch events: %w", err)
	}

	// Only events inside the discovery window carry prop markets worth
	// snapshotting
	now := time.Now()
	windowEnd := now.Add(time.Duration(sport.GetDiscoveryWindowHours()) * time.Hour)

	inWindow := make([]models.EventInfo, 0, len(events))
	for _, evt := range events {
		if evt.CommenceTime.After(now) && evt.CommenceTime.Before(windowEnd) {
			inWindow = append(inWindow, evt)
		}
	}

	var captured, changed, failed int

	for _, evt := range inWindow {
		for _, market := range sport.GetPropMarkets() {
			key := models.SnapshotKey{EventID: evt.ID, Market: market}

			n, err := s.processKey(ctx, sport, key)
			if err != nil {
				failed++
				s.logger.Warn("key processing failed", "key", key.String(), "error", err)
				continue
			}
			captured++
			changed += n

			select {
			case <-s.stopChan:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
	}

	s.logger.Info("sweep complete",
		"sport", sport.GetSportKey(),
		"events", len(inWindow),
		"captured", captured,
		"changed", changed,
		"failed", failed,
		"elapsed", time.Since(start))

	return nil
}

// processKey runs the full pipeline for one (event, market) key and
// returns how many change records it produced
func (s *Scheduler) processKey(ctx context.Context, sport contracts.SportModule, key models.SnapshotKey) (int, error) {
	raw, err := s.adapter.FetchMarketDocument(ctx, &models.FetchMarketOptions{
		Sport:   sport.GetSportKey(),
		EventID: key.EventID,
		Market:  key.Market,
		Regions: sport.GetRegions(),
	})
	if err != nil {
		return 0, fmt.Errorf("fetch document: %w", err)
	}

	// Validate before storing so bad vendor data is visible at capture
	// time, not first at reconcile time. The raw document is stored either
	// way; snapshots record what the vendor said.
	if _, records, nerr := normalize.Normalize(raw); nerr != nil {
		s.logger.Warn("captured document is malformed", "key", key.String(), "error", nerr)
	} else {
		invalid := 0
		for _, rec := range records {
			if verr := sport.ValidateOutcome(rec); verr != nil {
				invalid++
			}
		}
		if invalid > 0 {
			s.logger.Warn("outcomes failed validation", "key", key.String(), "count", invalid)
		}
	}

	snap := models.Snapshot{
		Key:        key,
		CapturedAt: time.Now().UTC(),
		Raw:        raw,
	}
	if err := s.repo.Save(ctx, snap); err != nil {
		return 0, fmt.Errorf("save snapshot: %w", err)
	}

	history, err := s.repo.ListSnapshots(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("list snapshots: %w", err)
	}

	records, err := reconcile.Reconcile(key, history)
	if err != nil {
		return 0, err
	}

	if err := s.changes.Publish(ctx, key, records); err != nil {
		// Cache is read-side only; reconciliation already succeeded
		s.logger.Warn("publish changes failed", "key", key.String(), "error", err)
	}

	if len(records) > 0 {
		s.logger.Info("line movement detected", "key", key.String(), "records", len(records))
		if s.notifier != nil {
			if err := s.notifier.NotifyChanges(records); err != nil {
				s.logger.Warn("notify failed", "key", key.String(), "error", err)
			}
		}
	}

	return len(records), nil
}
