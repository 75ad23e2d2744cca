// Command neptune-thumbnails is a PrusaSlicer post-processing script that
// adds Elegoo Neptune previews to the sliced g-code file in place.
//
// Add it under Print Settings > Output options > Post-processing scripts:
//
//	/path/to/neptune-thumbnails --printer NEPTUNE4PRO;
//
// PrusaSlicer appends the path of the temporary g-code file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	thumbnails "github.com/xZise/ElegooNeptuneThumbnails-Prusa"
	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/config"
	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/core"
	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/hooks"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("neptune-thumbnails", flag.ContinueOnError)
	var (
		printer    string
		configPath string
		backup     bool
		restore    bool
		verbose    bool
		logJSON    bool
	)
	fs.StringVar(&printer, "printer", "", "printer model to generate for (overrides the g-code declaration)")
	fs.StringVar(&printer, "p", "", "shorthand for -printer")
	fs.StringVar(&configPath, "config", "", "YAML configuration file")
	fs.BoolVar(&backup, "backup", false, "keep a zstd copy of the original file next to it")
	fs.BoolVar(&restore, "restore", false, "restore files from their backups instead of injecting")
	fs.BoolVar(&verbose, "v", false, "log pipeline steps")
	fs.BoolVar(&logJSON, "log-json", false, "log as JSON")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: neptune-thumbnails [flags] gcode...\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	if printer != "" {
		cfg.Printer = printer
	}
	if backup {
		cfg.Backup = true
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if logJSON {
		cfg.LogFormat = "json"
	}

	log := newLogger(cfg)
	logger := hooks.NewSlogLogger(log)

	inj, err := thumbnails.New(cfg)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		return 1
	}
	inj.SetLogger(logger)
	metrics := hooks.NewInMemoryMetrics()
	inj.AddHook(hooks.NewMetricsHook(metrics))
	if verbose {
		inj.AddHook(hooks.NewLoggingHook(logger))
	}
	shutdown, err := installBackend(inj, cfg)
	if err != nil {
		log.Error("backend", "error", err)
		return 1
	}
	defer shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	paths := fs.Args()
	if restore {
		code := 0
		for _, p := range paths {
			if err := inj.Restore(ctx, p); err != nil {
				log.Error("restore failed", "path", p, "error", err)
				code = 1
				continue
			}
			log.Info("restored", "path", p)
		}
		return code
	}

	results, errs := inj.Batch(ctx, paths)
	code := 0
	for i, p := range paths {
		if errs[i] != nil {
			log.Error("injection failed", "path", p, "error", errs[i])
			code = 1
			continue
		}
		report(log, p, results[i])
	}
	snap := metrics.Snapshot()
	log.Debug("metrics",
		"step_ms", snap.StepDurationsMs,
		"step_errors", snap.StepErrors,
		"bytes", snap.TotalThroughputB,
	)
	return code
}

func report(log *slog.Logger, path string, res *core.InjectResult) {
	switch res.Status {
	case core.StatusInjected:
		log.Info("thumbnails added", "path", path, "model", res.Model.ID,
			"blocks", len(res.Blocks), "duration", res.ProcessingTime)
	case core.StatusUnsupportedModel:
		log.Info("printer model not supported, file left unchanged", "path", path, "model", res.Model.ID)
	default:
		log.Info("file already has thumbnails", "path", path)
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
