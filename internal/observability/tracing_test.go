package observability

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/roman-kulish/mbes-survey/internal/align"
	"github.com/roman-kulish/mbes-survey/internal/navigation"
	"github.com/roman-kulish/mbes-survey/internal/sonar"
)

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{}, nil)
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestInitTracing_UnknownExporter(t *testing.T) {
	_, err := InitTracing(context.Background(), TracingConfig{Enabled: true, Exporter: "zipkin"}, nil)
	require.Error(t, err)
}

func TestInitTracing_File(t *testing.T) {
	t.Cleanup(func() {
		_, _ = InitTracing(context.Background(), TracingConfig{}, nil)
	})

	path := filepath.Join(t.TempDir(), "spans.json")
	shutdown, err := InitTracing(context.Background(), TracingConfig{
		Enabled:     true,
		Exporter:    "file",
		Path:        path,
		SampleRatio: 1,
	}, nil)
	require.NoError(t, err)

	fixes := []navigation.Fix{{Timestamp: 0}, {Timestamp: 10}}
	_, err = align.Align(context.Background(), []sonar.Ping{{Timestamp: 5}}, fixes,
		align.WithTracer(otel.Tracer("test")))
	require.NoError(t, err)

	ShutdownWithTimeout(context.Background(), shutdown, nil)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "align.Align")
	assert.Contains(t, string(data), "align.run_id")
}
