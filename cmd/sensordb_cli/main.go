package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"go.uber.org/zap"

	"github.com/sushant-115/sensordb/config"
	"github.com/sushant-115/sensordb/core/indexmanager"
	"github.com/sushant-115/sensordb/pkg/logger"
	"github.com/sushant-115/sensordb/pkg/telemetry"
)

var (
	configPath = flag.String("config", "", "Path to a YAML config file (defaults are used when empty)")
	datasetDir = flag.String("dataset_dir", "", "Directory holding sensors_<n>.txt files; overrides dataset.dir")
	maxEntries = flag.Int("max_entries", 0, "R-tree node capacity; overrides index.max_entries")
)

func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return config.Config{}, err
		}
	}
	if *datasetDir != "" {
		cfg.Dataset.Dir = *datasetDir
	}
	if *maxEntries != 0 {
		cfg.Index.MaxEntries = *maxEntries
	}
	return cfg, cfg.Validate()
}

func newCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("range"),
		readline.PcItem("alert"),
		readline.PcItem("insert"),
		readline.PcItem("delete"),
		readline.PcItem("search"),
		readline.PcItem("next"),
		readline.PcItem("stats"),
		readline.PcItem("verify"),
		readline.PcItem("export"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
}

func run() error {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	zlogger, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer zlogger.Sync()

	tel, shutdown, err := telemetry.New(cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialise telemetry: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			zlogger.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}()

	index, err := indexmanager.NewSensorIndexManager(cfg, zlogger, tel)
	if err != nil {
		return err
	}
	defer index.Close()

	ctx := context.Background()
	res, err := index.LoadInitial(ctx)
	if err != nil {
		return fmt.Errorf("failed to load initial dataset: %w", err)
	}
	fmt.Printf("Loaded %d sensors from %s.\n", res.Inserted, res.Path)

	args := flag.Args()
	sh := newShell(index, os.Stdout)
	if len(args) > 0 {
		// One-shot mode: run the single command given on the command line.
		sh.processCommand(ctx, args)
		return nil
	}

	home, _ := os.UserHomeDir()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "sensordb> ",
		HistoryFile:     filepath.Join(home, ".sensordb_history"),
		AutoComplete:    newCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to start readline: %w", err)
	}
	defer rl.Close()

	fmt.Println("SensorDB CLI (interactive mode). Type 'help' for commands, 'exit' or 'quit' to leave.")
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				break
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		if !sh.processCommand(ctx, strings.Fields(line)) {
			break
		}
	}
	fmt.Println("Exiting SensorDB CLI.")
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "sensordb: %v\n", err)
		os.Exit(1)
	}
}
