package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/hospitalpowermonitor/internal/adapters/events"
	"github.com/zatekoja/hospitalpowermonitor/internal/adapters/kvstore"
	"github.com/zatekoja/hospitalpowermonitor/internal/application/services"
	"github.com/zatekoja/hospitalpowermonitor/internal/domain/entities"
	"github.com/zatekoja/hospitalpowermonitor/internal/infrastructure/observability"
	"github.com/zatekoja/hospitalpowermonitor/pkg/config"
)

func main() {
	var reset bool
	flag.BoolVar(&reset, "reset", os.Getenv("RESET_DATA") == "true", "Clear stored sectors before seeding")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	logger := observability.InitLogger(cfg.OTEL.ServiceName+"-seed", cfg.Log.Env, cfg.Log.Level)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	backend, err := kvstore.Open(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("Failed to open storage backend")
	}
	defer backend.Close()

	bus := events.NewMemoryEventBus()
	defer bus.Close()

	repo := services.NewSectorRepository(
		services.NewRecordStore(backend.Store, cfg.Storage.Key, services.WithRecordStoreLogger(logger)),
		services.WithRepositoryLogger(logger),
	)
	service := services.NewSectorService(repo, bus, services.WithServiceLogger(logger))

	if reset {
		if err := service.ClearAllData(ctx); err != nil {
			logger.Fatal().Err(err).Msg("Failed to clear data")
		}
		logger.Info().Msg("Stored sectors cleared")
	}

	existing, err := service.Snapshot(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load sectors")
	}
	if len(existing) > 0 {
		logger.Info().Int("sectors", len(existing)).Msg("Sectors already present, nothing to seed (use -reset)")
		return
	}

	start := time.Now()
	for _, draft := range demoSectors(start) {
		sector, err := service.AddSector(ctx, draft)
		if err != nil {
			logger.Fatal().Err(err).Str("sector", draft.Name).Msg("Failed to seed sector")
		}
		logger.Info().Str("sector_id", sector.ID).Str("sector", sector.Name).Msg("Seeded sector")
	}

	logger.Info().Dur("duration", time.Since(start)).Msg("Seeding complete")
}

func demoSectors(now time.Time) []entities.SectorDraft {
	central := entities.HospitalRegion{
		Type:               entities.RegionTypeCEP,
		Name:               "Hospital Central",
		Value:              "01310-100",
		Description:        "Av. Paulista",
		AffectedPopulation: intPtr(250000),
	}

	ongoingStart := now.Add(-40 * time.Minute)
	estimate := ongoingStart.Add(90 * time.Minute)
	pastStart := now.Add(-26 * time.Hour)
	pastEnd := pastStart.Add(45 * time.Minute)

	return []entities.SectorDraft{
		{
			Name:              "UTI Adulto",
			Floor:             3,
			Status:            entities.SectorStatusCritical,
			PowerConsumption:  85,
			CriticalEquipment: 12,
			Region:            central,
			PowerOutages: []entities.OutageDraft{
				{
					StartTime: pastStart,
					EndTime:   &pastEnd,
					Severity:  entities.SeverityMedium,
					Notes:     "Queda na rede externa",
				},
				{
					StartTime:         ongoingStart,
					EstimatedDuration: intPtr(90),
					EstimatedEndTime:  &estimate,
					IsOngoing:         true,
					Severity:          entities.SeverityHigh,
					AffectedSystems:   []string{"Ventiladores", "Monitores"},
				},
			},
		},
		{
			Name:              "Centro Cirúrgico",
			Floor:             2,
			Status:            entities.SectorStatusNormal,
			PowerConsumption:  70,
			CriticalEquipment: 8,
			Region:            central,
		},
		{
			Name:              "Emergência",
			Floor:             0,
			Status:            entities.SectorStatusWarning,
			PowerConsumption:  60,
			CriticalEquipment: 6,
			Region:            central,
		},
		{
			Name:              "Laboratório",
			Floor:             -1,
			Status:            entities.SectorStatusNormal,
			PowerConsumption:  40,
			CriticalEquipment: 3,
			Region:            central,
		},
	}
}

func intPtr(v int) *int { return &v }
