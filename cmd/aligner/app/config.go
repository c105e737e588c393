package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/mbes-survey/internal/align"
	"github.com/roman-kulish/mbes-survey/internal/observability"
)

const (
	ModeStream Mode = "stream"
	ModeBatch  Mode = "batch"
)

// Mode selects how pings are fed to the aligner
type Mode string

// Config represents the main application configuration
type Config struct {
	Settings  Settings                    `yaml:"settings"`
	Storage   StorageConfig               `yaml:"storage"`
	Alignment AlignmentConfig             `yaml:"alignment"`
	Metrics   MetricsConfig               `yaml:"metrics"`
	Tracing   observability.TracingConfig `yaml:"tracing"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel"`
}

// StorageConfig represents the survey database to read from
type StorageConfig struct {
	Database  string `yaml:"database"`
	SessionID int64  `yaml:"sessionID"`
}

// AlignmentConfig represents alignment settings
type AlignmentConfig struct {
	Mode                  Mode   `yaml:"mode"`
	Workers               int    `yaml:"workers"`
	ChunkSize             int    `yaml:"chunkSize"`
	AngleInterpolation    string `yaml:"angleInterpolation"`
	LegacyHeadingSentinel bool   `yaml:"legacyHeadingSentinel"`
	StartTime             *Millis `yaml:"startTime"` // Inclusive
	EndTime               *Millis `yaml:"endTime"`   // Inclusive
}

// Millis is a timestamp in milliseconds since the survey epoch. In YAML it is
// either an integer number of milliseconds or a duration such as "2m30s".
type Millis int64

func (m *Millis) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: timestamp must be a scalar", node.Line)
	}

	if node.Tag == "!!int" {
		var v int64
		if err := node.Decode(&v); err != nil {
			return err
		}
		*m = Millis(v)
		return nil
	}

	d, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid timestamp '%s': %w", node.Line, node.Value, err)
	}
	*m = Millis(d.Milliseconds())
	return nil
}

// MetricsConfig represents metrics export settings
type MetricsConfig struct {
	Textfile string `yaml:"textfile"` // node exporter textfile, disabled when empty
}

// LoadConfig reads and validates the YAML configuration file at path.
func LoadConfig(path string) (config *Config, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening configuration: %w", err)
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	config = NewConfig()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err = dec.Decode(config); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}

	if err = config.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}
	return config, nil
}

// NewConfig returns a configuration with defaults applied
func NewConfig() *Config {
	return &Config{
		Settings: Settings{
			LogLevel: slog.LevelInfo.String(),
		},
		Alignment: AlignmentConfig{
			Mode:               ModeStream,
			AngleInterpolation: string(align.AngleLinear),
		},
		Tracing: observability.TracingConfig{
			ServiceName: "mbes-aligner",
			Exporter:    "stdout",
			SampleRatio: 1,
		},
	}
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.Settings.Level(); err != nil {
		errs = append(errs, err)
	}

	if c.Storage.Database == "" {
		errs = append(errs, errors.New("storage.database is required"))
	}
	if c.Storage.SessionID <= 0 {
		errs = append(errs, errors.New("storage.sessionID is required"))
	}

	switch c.Alignment.Mode {
	case ModeStream, ModeBatch:
	default:
		errs = append(errs, fmt.Errorf("alignment.mode: unknown mode '%s'", c.Alignment.Mode))
	}
	if c.Alignment.Workers < 0 {
		errs = append(errs, fmt.Errorf("alignment.workers must not be negative, got %d", c.Alignment.Workers))
	}
	if c.Alignment.ChunkSize < 0 {
		errs = append(errs, fmt.Errorf("alignment.chunkSize must not be negative, got %d", c.Alignment.ChunkSize))
	}
	if _, err := align.ParseAngleInterpolation(c.Alignment.AngleInterpolation); err != nil {
		errs = append(errs, fmt.Errorf("alignment.angleInterpolation: %w", err))
	}
	if c.Alignment.StartTime != nil && c.Alignment.EndTime != nil && *c.Alignment.StartTime > *c.Alignment.EndTime {
		errs = append(errs, fmt.Errorf("alignment.startTime %d is after alignment.endTime %d", *c.Alignment.StartTime, *c.Alignment.EndTime))
	}

	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("tracing.sampleRatio must be within [0, 1], got %v", c.Tracing.SampleRatio))
	}

	return errors.Join(errs...)
}

// Level parses the configured log level
func (s Settings) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return level, fmt.Errorf("settings.logLevel: %w", err)
	}
	return level, nil
}
