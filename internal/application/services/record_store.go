package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/hospitalpowermonitor/internal/domain/entities"
	"github.com/zatekoja/hospitalpowermonitor/internal/domain/providers"
	"github.com/zatekoja/hospitalpowermonitor/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/hospitalpowermonitor/pkg/errors"
)

// RecordStore persists the whole sector collection as one JSON document
// under a single key
type RecordStore struct {
	store   providers.KeyValueStore
	key     string
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// RecordStoreOption configures a RecordStore
type RecordStoreOption func(*RecordStore)

// WithRecordStoreLogger sets the logger used for swallowed load failures
func WithRecordStoreLogger(logger zerolog.Logger) RecordStoreOption {
	return func(r *RecordStore) { r.logger = logger }
}

// WithRecordStoreMetrics records store latency and failures
func WithRecordStoreMetrics(metrics *observability.Metrics) RecordStoreOption {
	return func(r *RecordStore) { r.metrics = metrics }
}

// NewRecordStore creates a record store writing under key
func NewRecordStore(store providers.KeyValueStore, key string, opts ...RecordStoreOption) *RecordStore {
	r := &RecordStore{
		store:  store,
		key:    key,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Key returns the storage key of the collection
func (r *RecordStore) Key() string {
	return r.key
}

// Load reads the collection. A missing, unreadable or malformed document
// yields an empty list; the failure is logged and not returned.
func (r *RecordStore) Load(ctx context.Context) entities.SectorList {
	ctx, span := observability.StartSpan(ctx, "RecordStore.Load", attribute.String("store.key", r.key))
	defer span.End()

	start := time.Now()
	data, err := r.store.Get(ctx, r.key)
	if errors.Is(err, providers.ErrKeyNotFound) {
		observability.RecordStoreMetric(ctx, r.metrics, "load", time.Since(start), nil)
		return entities.SectorList{}
	}
	observability.RecordStoreMetric(ctx, r.metrics, "load", time.Since(start), err)
	if err != nil {
		observability.RecordError(span, err)
		r.logger.Warn().Err(err).Str("key", r.key).Msg("Failed to read sectors, starting empty")
		return entities.SectorList{}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return entities.SectorList{}
	}

	var sectors entities.SectorList
	if err := json.Unmarshal(data, &sectors); err != nil {
		observability.RecordError(span, err)
		r.logger.Warn().Err(err).Str("key", r.key).Msg("Stored sectors are malformed, starting empty")
		return entities.SectorList{}
	}

	sectors = normalizeSectors(sectors)
	span.SetAttributes(attribute.Int("sectors.count", len(sectors)))
	return sectors
}

// Save overwrites the stored collection with sectors
func (r *RecordStore) Save(ctx context.Context, sectors entities.SectorList) error {
	ctx, span := observability.StartSpan(ctx, "RecordStore.Save",
		attribute.String("store.key", r.key),
		attribute.Int("sectors.count", len(sectors)),
	)
	defer span.End()

	if sectors == nil {
		sectors = entities.SectorList{}
	}
	data, err := json.Marshal(sectors)
	if err != nil {
		observability.RecordError(span, err)
		return apperrors.NewInternalError("failed to encode sectors", err)
	}

	start := time.Now()
	err = r.store.Set(ctx, r.key, data)
	observability.RecordStoreMetric(ctx, r.metrics, "save", time.Since(start), err)
	if err != nil {
		observability.RecordError(span, err)
		return apperrors.NewStorageError("failed to save sectors", err)
	}
	return nil
}

// Clear removes the stored collection
func (r *RecordStore) Clear(ctx context.Context) error {
	ctx, span := observability.StartSpan(ctx, "RecordStore.Clear", attribute.String("store.key", r.key))
	defer span.End()

	start := time.Now()
	err := r.store.Delete(ctx, r.key)
	observability.RecordStoreMetric(ctx, r.metrics, "clear", time.Since(start), err)
	if err != nil {
		observability.RecordError(span, err)
		return apperrors.NewStorageError("failed to clear sectors", err)
	}
	return nil
}

// normalizeSectors repairs documents written by older versions: missing
// regions and outage lists, unknown enum values and a current outage that
// is not linked to the history.
func normalizeSectors(in entities.SectorList) entities.SectorList {
	out := make(entities.SectorList, 0, len(in))
	for _, s := range in {
		if s.Region.Type == "" && s.Region.Name == "" && s.Region.Value == "" {
			s.Region = entities.DefaultRegion()
		}
		s.Status = s.Status.Normalize()

		if s.PowerOutages == nil {
			s.PowerOutages = []entities.PowerOutage{}
		}
		for i := range s.PowerOutages {
			normalizeOutage(&s.PowerOutages[i])
		}

		if s.CurrentOutage != nil {
			idx := s.OutageIndex(s.CurrentOutage.ID)
			if idx < 0 {
				legacy := s.CurrentOutage.Clone()
				normalizeOutage(&legacy)
				s.PowerOutages = append(s.PowerOutages, legacy)
				idx = len(s.PowerOutages) - 1
			}
			if s.PowerOutages[idx].IsOngoing {
				current := s.PowerOutages[idx].Clone()
				s.CurrentOutage = &current
			} else {
				s.CurrentOutage = nil
			}
		}
		out = append(out, s)
	}
	return out
}

func normalizeOutage(o *entities.PowerOutage) {
	o.Severity = o.Severity.Normalize()
	if o.AffectedSystems == nil {
		o.AffectedSystems = []string{}
	}
	o.IsOngoing = o.EndTime == nil && o.Duration == nil
}
