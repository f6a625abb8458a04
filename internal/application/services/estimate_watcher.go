package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// EstimateWatcher periodically reconciles outages whose estimated end has passed
type EstimateWatcher struct {
	service  *SectorService
	interval time.Duration
	logger   zerolog.Logger
}

// NewEstimateWatcher creates a watcher checking every interval
func NewEstimateWatcher(service *SectorService, interval time.Duration, logger zerolog.Logger) *EstimateWatcher {
	return &EstimateWatcher{
		service:  service,
		interval: interval,
		logger:   logger,
	}
}

// Run checks once immediately and then on every tick until ctx is done
func (w *EstimateWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.check(ctx)
		}
	}
}

func (w *EstimateWatcher) check(ctx context.Context) {
	updated, err := w.service.UpdateEstimatedOutages(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to update estimated outages")
		return
	}
	if updated > 0 {
		w.logger.Info().Int("sectors", updated).Msg("Outage estimates expired")
	}
}
