package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"
)

const (
	ImagePNG  = "png"
	ImageJPEG = "jpeg"

	defaultCellSize = 1.0 // meters
)

type ImageFormat string

type Config struct {
	DBPath        string
	SessionID     int64
	OutputFile    string
	Format        ImageFormat
	CellSize      float64
	Theme         ColorTheme
	MinDepth      *float64
	MaxDepth      *float64
	Workers       int
	NoAnnotations bool
}

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

func NewConfig() *Config {
	return &Config{
		Format:   ImagePNG,
		CellSize: defaultCellSize,
		Theme:    MarineTheme,
		Workers:  runtime.GOMAXPROCS(0),
	}
}

func NewConfigFromCLI() (*Config, error) {
	return parseConfig(flag.CommandLine, os.Args[1:])
}

func parseConfig(fs *flag.FlagSet, args []string) (*Config, error) {
	c := NewConfig()

	var imageFormat, theme string
	var minDepth, maxDepth float64
	fs.StringVar(&c.DBPath, "db", "", "Path to the database file")
	fs.Int64Var(&c.SessionID, "s", 1, "Session ID")
	fs.StringVar(&c.OutputFile, "o", "", "Path to the output file, without extension")
	fs.StringVar(&imageFormat, "f", string(ImagePNG), "Output image format. [png, jpeg]")
	fs.Float64Var(&c.CellSize, "cell", defaultCellSize, "Raster cell size in meters")
	fs.StringVar(&theme, "theme", string(MarineTheme), "Color theme. [classic, grayscale, thermal, marine]")
	fs.Float64Var(&minDepth, "min-depth", 0, "Define a manual minimum depth in meters (format nn.n)")
	fs.Float64Var(&maxDepth, "max-depth", 0, "Define a manual maximum depth in meters (format nn.n)")
	fs.IntVar(&c.Workers, "workers", c.Workers, "Number of alignment workers")
	fs.BoolVar(&c.NoAnnotations, "no-annotations", false, "Disable annotations such as distance scales and the info bar")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	imageFormat = strings.ToLower(imageFormat)
	theme = strings.ToLower(theme)

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "min-depth" {
			c.MinDepth = &minDepth
		}
		if f.Name == "max-depth" {
			c.MaxDepth = &maxDepth
		}
	})

	var err error
	if c.DBPath == "" {
		err = errors.New("db path is required")
	} else if c.SessionID <= 0 {
		err = errors.New("session id is required")
	} else if c.OutputFile == "" {
		err = errors.New("output file is required")
	} else if _, ok := validImageFormats[ImageFormat(imageFormat)]; !ok {
		err = fmt.Errorf("invalid image format: %s", imageFormat)
	} else if _, ok := validThemes[ColorTheme(theme)]; !ok {
		err = fmt.Errorf("invalid color theme: %s", theme)
	} else if c.CellSize <= 0 {
		err = fmt.Errorf("cell size must be positive, got %v", c.CellSize)
	} else if c.Workers <= 0 {
		err = fmt.Errorf("workers must be positive, got %d", c.Workers)
	} else if c.MinDepth != nil && c.MaxDepth != nil && *c.MinDepth >= *c.MaxDepth {
		err = fmt.Errorf("min depth %.1f must be less than max depth %.1f", *c.MinDepth, *c.MaxDepth)
	}

	if err != nil {
		fs.Usage()
		return nil, err
	}

	c.Format = ImageFormat(imageFormat)
	c.Theme = ColorTheme(theme)
	c.OutputFile = fmt.Sprintf("%s.%s", c.OutputFile, c.Format)
	return c, nil
}
