package export

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/sushant-115/sensordb/config"
	"github.com/sushant-115/sensordb/core/indexing/spatial"
)

// Runner starts an external command. It is exec.CommandContext(...).Run by
// default and replaced in tests.
type Runner func(ctx context.Context, name string, args ...string) error

func runCommand(ctx context.Context, name string, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, bytes.TrimSpace(stderr.Bytes()))
	}
	return nil
}

// Exporter writes the plot artifacts of a tree into a directory and
// optionally renders them.
type Exporter struct {
	cfg    config.ExportConfig
	logger *zap.Logger
	run    Runner
}

// NewExporter returns an exporter for cfg. A nil runner uses os/exec.
func NewExporter(cfg config.ExportConfig, logger *zap.Logger, run Runner) *Exporter {
	if run == nil {
		run = runCommand
	}
	return &Exporter{
		cfg:    cfg,
		logger: logger.With(zap.String("component", "exporter")),
		run:    run,
	}
}

// Paths returns the polygon, point and query box file locations.
func (e *Exporter) Paths() (polygons, points, queryBox string) {
	return filepath.Join(e.cfg.Dir, e.cfg.PolygonFile),
		filepath.Join(e.cfg.Dir, e.cfg.PointFile),
		filepath.Join(e.cfg.Dir, e.cfg.QueryBoxFile)
}

// Export rewrites all artifact files from src. A nil query leaves the query
// box file empty. When plotting is enabled the plot command is run last.
func (e *Exporter) Export(ctx context.Context, src Source, query *spatial.BoundingBox) error {
	polygons, points, queryBox := e.Paths()

	if err := writeFile(polygons, func(f *os.File) error { return WriteBoundingBoxes(f, src) }); err != nil {
		return err
	}
	if err := writeFile(points, func(f *os.File) error { return WritePoints(f, src) }); err != nil {
		return err
	}
	if err := writeFile(queryBox, func(f *os.File) error {
		if query == nil {
			return nil
		}
		return WriteQueryBox(f, *query)
	}); err != nil {
		return err
	}
	e.logger.Debug("Exported plot data",
		zap.String("polygons", polygons),
		zap.String("points", points),
		zap.Bool("query", query != nil))

	if !e.cfg.Plot {
		return nil
	}
	args := append(append([]string{}, e.cfg.PlotCommand[1:]...), "-e", plotScript(polygons, points, queryBox, query != nil))
	if err := e.run(ctx, e.cfg.PlotCommand[0], args...); err != nil {
		e.logger.Warn("Plot command failed", zap.Error(err))
		return fmt.Errorf("failed to plot: %w", err)
	}
	return nil
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

func plotScript(polygons, points, queryBox string, withQuery bool) string {
	script := "set xlabel 'X'; set ylabel 'Y'; " +
		"set cblabel 'Temperature (°C)'; set cbrange [30:100]; " +
		"set palette defined (30 'blue', 40 'cyan', 60 'green', 80 'yellow', 100 'red'); " +
		fmt.Sprintf("plot '%s' using 1:2:3 with points pt 7 ps 1 palette notitle, ", points) +
		fmt.Sprintf("'%s' using 1:2 with lines lw 1 lc rgb 'gray' notitle", polygons)
	if withQuery {
		script += fmt.Sprintf(", '%s' using 1:2 with lines lw 2 lc rgb 'black' notitle", queryBox)
	}
	return script
}
