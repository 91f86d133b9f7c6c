// Package config loads the sensordb YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sushant-115/sensordb/core/indexing/spatial"
	"github.com/sushant-115/sensordb/pkg/logger"
	"github.com/sushant-115/sensordb/pkg/telemetry"
)

// IndexConfig sizes the R-tree.
type IndexConfig struct {
	// MaxEntries is the node fanout; MinEntries is half of it.
	MaxEntries int `yaml:"max_entries"`
	// MaxNodes bounds the node arena, 0 for no bound.
	MaxNodes int `yaml:"max_nodes"`
}

// DatasetConfig locates the numbered sensor dataset files.
type DatasetConfig struct {
	Dir     string `yaml:"dir"`
	Pattern string `yaml:"pattern"`
}

// ExportConfig names the plot artifacts and the external plot command.
type ExportConfig struct {
	Dir          string   `yaml:"dir"`
	PolygonFile  string   `yaml:"polygon_file"`
	PointFile    string   `yaml:"point_file"`
	QueryBoxFile string   `yaml:"query_box_file"`
	Plot         bool     `yaml:"plot"`
	PlotCommand  []string `yaml:"plot_command"`
}

// Config is the top-level configuration.
type Config struct {
	Logger    logger.Config    `yaml:"logger"`
	Telemetry telemetry.Config `yaml:"telemetry"`
	Index     IndexConfig      `yaml:"index"`
	Dataset   DatasetConfig    `yaml:"dataset"`
	Export    ExportConfig     `yaml:"export"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Logger: logger.DefaultConfig(),
		Telemetry: telemetry.Config{
			Enabled:          false,
			ServiceName:      "sensordb",
			PrometheusPort:   9464,
			TraceSampleRatio: 1.0,
		},
		Index: IndexConfig{
			MaxEntries: spatial.DefaultMaxEntries,
		},
		Dataset: DatasetConfig{
			Dir:     "sensors",
			Pattern: "sensors_%d.txt",
		},
		Export: ExportConfig{
			Dir:          ".",
			PolygonFile:  "rtree_boxes.dat",
			PointFile:    "sensor_nodes.dat",
			QueryBoxFile: "bounding_boxes.dat",
			Plot:         false,
			PlotCommand:  []string{"gnuplot", "-persist"},
		},
	}
}

// Load reads a YAML file on top of Default. Keys missing from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings the index cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Index.MaxEntries < 2 {
		errs = append(errs, fmt.Errorf("index.max_entries must be at least 2, got %d", c.Index.MaxEntries))
	}
	if c.Index.MaxNodes < 0 {
		errs = append(errs, fmt.Errorf("index.max_nodes must not be negative, got %d", c.Index.MaxNodes))
	}
	if c.Dataset.Pattern == "" {
		errs = append(errs, errors.New("dataset.pattern must not be empty"))
	}
	if c.Export.Plot && len(c.Export.PlotCommand) == 0 {
		errs = append(errs, errors.New("export.plot_command is required when export.plot is set"))
	}
	return errors.Join(errs...)
}
