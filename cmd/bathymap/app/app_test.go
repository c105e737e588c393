package app

import (
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roman-kulish/mbes-survey/internal/navigation"
	"github.com/roman-kulish/mbes-survey/internal/sonar"
	"github.com/roman-kulish/mbes-survey/internal/storage"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// seedSurvey stores a 20 m survey line heading east along northing 100 with
// a three beam swath 10 m wide.
func seedSurvey(t *testing.T, path string) int64 {
	t.Helper()
	ctx := context.Background()

	store := storage.NewSqliteStore(path)
	defer func() { require.NoError(t, store.Close()) }()

	id, err := store.CreateSession(ctx, "RV Test", "EM2040", nil)
	require.NoError(t, err)

	fixes := make([]navigation.Fix, 11)
	for i := range fixes {
		fixes[i] = navigation.Fix{
			Timestamp: int64(i) * 1000,
			Position:  r3.Vec{X: float64(i) * 2, Y: 100},
		}
	}
	require.NoError(t, store.StoreFixes(ctx, id, fixes))

	for i := range 40 {
		p := sonar.Ping{
			Timestamp: int64(i) * 250,
			Beams:     []r3.Vec{{Y: -5, Z: -20}, {Z: -21}, {Y: 5, Z: -20}},
		}
		_, err = store.StorePing(ctx, id, &p)
		require.NoError(t, err)
	}

	return id
}

func TestRun(t *testing.T) {
	tests := []struct {
		format        ImageFormat
		noAnnotations bool
		decode        func(io.Reader) (image.Image, error)
		want          image.Point
	}{
		{ImagePNG, true, png.Decode, image.Pt(20, 11)},
		{ImagePNG, false, png.Decode, image.Pt(20+defaultLeftBorder+defaultRightBorder, 11+defaultTopBorder+defaultBottomBorder)},
		{ImageJPEG, true, jpeg.Decode, image.Pt(20, 11)},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			dir := t.TempDir()
			db := filepath.Join(dir, "survey.db")

			config := NewConfig()
			config.DBPath = db
			config.SessionID = seedSurvey(t, db)
			config.OutputFile = filepath.Join(dir, "map."+string(tt.format))
			config.Format = tt.format
			config.Workers = 2
			config.NoAnnotations = tt.noAnnotations

			require.NoError(t, Run(context.Background(), config, discard))

			f, err := os.Open(config.OutputFile)
			require.NoError(t, err)
			defer f.Close()

			img, err := tt.decode(f)
			require.NoError(t, err)
			assert.Equal(t, tt.want, img.Bounds().Size())
		})
	}
}

func TestRun_MissingDatabase(t *testing.T) {
	config := NewConfig()
	config.DBPath = filepath.Join(t.TempDir(), "none.db")
	config.OutputFile = filepath.Join(t.TempDir(), "map.png")

	err := Run(context.Background(), config, discard)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestRun_UnknownSession(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "survey.db")

	config := NewConfig()
	config.DBPath = db
	config.SessionID = seedSurvey(t, db) + 1
	config.OutputFile = filepath.Join(dir, "map.png")

	err := Run(context.Background(), config, discard)
	require.ErrorContains(t, err, "loading session")

	_, err = os.Stat(config.OutputFile)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
