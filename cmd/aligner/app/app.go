package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roman-kulish/mbes-survey/internal/align"
	"github.com/roman-kulish/mbes-survey/internal/observability"
	"github.com/roman-kulish/mbes-survey/internal/storage"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) (err error) {
	if _, err = os.Stat(config.Storage.Database); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.Storage.Database, err)
	}

	shutdown, err := observability.InitTracing(ctx, config.Tracing, logger)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdown, logger)

	store := storage.NewSqliteStore(config.Storage.Database)
	defer func() {
		if cErr := store.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("closing storage: %w", cErr)
		}
	}()

	session, err := store.Session(ctx, config.Storage.SessionID)
	if err != nil {
		return fmt.Errorf("loading session %d: %w", config.Storage.SessionID, err)
	}

	logger.Info("survey session",
		slog.Int64("id", session.ID),
		slog.String("vessel", session.Vessel),
		slog.String("sensor", session.Sensor),
		slog.Time("startTime", session.StartTime))

	reg := prometheus.NewRegistry()
	collector, err := observability.NewAlignCollector(reg)
	if err != nil {
		return fmt.Errorf("creating metrics collector: %w", err)
	}

	source := storage.NewSessionSource(store, session.ID, readerOptions(&config.Alignment)...)

	// validated by LoadConfig
	angles, _ := align.ParseAngleInterpolation(config.Alignment.AngleInterpolation)

	orchestrator := NewOrchestrator(source, source, logger,
		WithMode(config.Alignment.Mode),
		WithObserver(collector),
		WithAlignOptions(
			align.WithWorkers(config.Alignment.Workers),
			align.WithChunkSize(config.Alignment.ChunkSize),
			align.WithAngleInterpolation(angles),
		))

	summary, err := orchestrator.Run(ctx)
	if summary != nil {
		logger.Info("alignment summary", slog.Any("summary", summary))
	}

	if config.Metrics.Textfile != "" {
		if mErr := collector.WriteTextfile(config.Metrics.Textfile); mErr != nil {
			logger.Error(mErr.Error())
		}
	}

	return err
}

func readerOptions(config *AlignmentConfig) []storage.ReaderOption {
	var opts []storage.ReaderOption
	if config.StartTime != nil {
		opts = append(opts, storage.WithStartTime(int64(*config.StartTime)))
	}
	if config.EndTime != nil {
		opts = append(opts, storage.WithEndTime(int64(*config.EndTime)))
	}
	if config.LegacyHeadingSentinel {
		opts = append(opts, storage.WithLegacyHeadingSentinel())
	}
	return opts
}
