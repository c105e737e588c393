package app

import (
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/mbes-survey/internal/align"
	"github.com/roman-kulish/mbes-survey/internal/storage"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) (err error) {
	if _, err = os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store := storage.NewSqliteStore(config.DBPath)
	defer func() {
		if cErr := store.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("closing storage: %w", cErr)
		}
	}()

	grid, err := buildGrid(ctx, store, config, logger)
	if err != nil {
		return err
	}

	bounds := grid.BoundsTracker.Current().Override(config.MinDepth, config.MaxDepth)

	logger.Info("finished gridding soundings",
		slog.Group("stats",
			slog.String("pings", humanize.Comma(int64(grid.Pings))),
			slog.String("soundings", humanize.Comma(int64(grid.Soundings))),
			slog.String("cells", fmt.Sprintf("%s of %s", humanize.Comma(int64(grid.Filled())), humanize.Comma(int64(grid.Width*grid.Height)))),
			slog.String("minDepth", fmt.Sprintf("%0.2fm", bounds.Min)),
			slog.String("maxDepth", fmt.Sprintf("%0.2fm", bounds.Max)),
		))

	renderer, err := NewBathymetryRenderer(RenderConfig{
		ColorTheme:    config.Theme,
		NoAnnotations: config.NoAnnotations,
	})
	if err != nil {
		return fmt.Errorf("creating bathymetry renderer: %w", err)
	}

	logger.Info("rendering bathymetry",
		slog.Group("image",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
			slog.String("theme", string(config.Theme)),
			slog.Int("width", grid.Width),
			slog.Int("height", grid.Height),
		))

	img, err := renderer.Render(grid, bounds)
	if err != nil {
		return fmt.Errorf("rendering bathymetry: %w", err)
	}

	out, err := os.Create(config.OutputFile)
	if err != nil {
		return err
	}
	defer func() {
		if cErr := out.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("closing output file: %w", cErr)
		}
	}()

	switch config.Format {
	case ImagePNG:
		err = png.Encode(out, img)

	case ImageJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{
			Quality: 98,
		})
	}
	return err
}

// buildGrid aligns all pings of the session with the batch aligner and grids
// the resulting soundings
func buildGrid(ctx context.Context, store storage.Store, config *Config, logger *slog.Logger) (*DepthGrid, error) {
	session, err := store.Session(ctx, config.SessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session %d: %w", config.SessionID, err)
	}

	source := storage.NewSessionSource(store, session.ID)

	fixes, err := source.Fixes(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading fixes: %w", err)
	}

	logger.Info("reading pings, hold on tight, it will take a while",
		slog.Int64("session", session.ID),
		slog.String("vessel", session.Vessel))

	pings, err := source.Pings(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading pings: %w", err)
	}

	out, err := align.Align(ctx, pings, fixes,
		align.WithLogger(logger),
		align.WithWorkers(config.Workers))
	if err != nil {
		return nil, fmt.Errorf("aligning pings: %w", err)
	}

	grid, err := NewDepthGrid(out, config.CellSize, NewSmoothBounds(0.3))
	if err != nil {
		return nil, fmt.Errorf("gridding soundings: %w", err)
	}
	return grid, nil
}
