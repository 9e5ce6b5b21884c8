package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nerrad567/emsconvert/internal/convert"
	"github.com/nerrad567/emsconvert/internal/ems"
	"github.com/nerrad567/emsconvert/internal/equipment"
	"github.com/nerrad567/emsconvert/internal/export/metadata"
	"github.com/nerrad567/emsconvert/internal/export/report"
	"github.com/nerrad567/emsconvert/internal/history"
	"github.com/nerrad567/emsconvert/internal/infrastructure/config"
	"github.com/nerrad567/emsconvert/internal/infrastructure/database"
	"github.com/nerrad567/emsconvert/internal/infrastructure/influxdb"
	"github.com/nerrad567/emsconvert/internal/infrastructure/logging"
	"github.com/nerrad567/emsconvert/internal/infrastructure/mqtt"
	"github.com/nerrad567/emsconvert/migrations"
)

// logFileName is written to the output directory unless the
// configuration names another path.
const logFileName = "conversion.log"

// run is the actual application logic, separated from main for testability.
// It returns an error for an IOFailure or when no entity was parsed from a
// non-empty input; in watch mode it returns only when ctx is cancelled.
func run(ctx context.Context, f *cliFlags, input string, out io.Writer) error {
	cfg, err := config.Load(configPath(f.configPath))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	applyFlags(cfg, f)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating flags: %w", err)
	}

	if cfg.Logging.File.Enabled && cfg.Logging.File.Path == "" {
		cfg.Logging.File.Path = filepath.Join(cfg.Conversion.OutputDir, logFileName)
	}
	log := logging.New(cfg.Logging, version)
	defer log.Close()

	opts, err := converterOptions(cfg)
	if err != nil {
		return err
	}
	opts.RawFile = f.rawFile
	opts.MetadataFile = f.metadataFile
	opts.ReportFile = f.reportFile

	conv, err := convert.New(opts)
	if err != nil {
		return err
	}
	conv.SetLogger(log)

	closeSinks := attachSinks(ctx, cfg, conv, log)
	defer closeSinks()

	if f.watch {
		return watch(ctx, conv, input, out, log)
	}

	res, err := conv.ConvertFile(ctx, input)
	printSummary(out, res, cfg.Logging.File.Path)
	return err
}

// configPath resolves the configuration file: the flag, then
// EMSCONVERT_CONFIG, then the default path if it exists. An empty result
// means built-in defaults.
func configPath(flag string) string {
	if flag != "" {
		return flag
	}
	if path := os.Getenv("EMSCONVERT_CONFIG"); path != "" {
		return path
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return defaultConfigPath
	}
	return ""
}

// applyFlags overrides configuration values with the flags that were set.
func applyFlags(cfg *config.Config, f *cliFlags) {
	c := &cfg.Conversion
	setString(&c.OutputDir, f.outputDir)
	setString(&c.Grammar, f.grammar)
	setString(&c.MetadataFormat, f.metadataFormat)
	setString(&c.ReportFormat, f.reportFormat)
	setString(&c.Encoding, f.encoding)
	setString(&c.BrandTable, f.brands)
	if f.noReport {
		c.Report = false
	}
	if f.noMetadata {
		c.Metadata = false
	}
	if f.verbose {
		cfg.Logging.Level = "debug"
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// converterOptions maps the configuration onto convert.Options. Output
// file names come from the flags only, so they are set by the caller.
func converterOptions(cfg *config.Config) (convert.Options, error) {
	c := cfg.Conversion

	metaFormat, err := metadata.ParseFormat(c.MetadataFormat)
	if err != nil {
		return convert.Options{}, err
	}
	reportFormat, err := report.ParseFormat(c.ReportFormat)
	if err != nil {
		return convert.Options{}, err
	}

	var brands *equipment.BrandTable
	if c.BrandTable != "" {
		if brands, err = equipment.LoadBrandTable(c.BrandTable); err != nil {
			return convert.Options{}, err
		}
	}

	cl := cfg.Classification
	return convert.Options{
		OutputDir:      c.OutputDir,
		SkipMetadata:   !c.Metadata,
		SkipReport:     !c.Report,
		MetadataFormat: metaFormat,
		ReportFormat:   reportFormat,
		Grammar:        c.Grammar,
		Encoding:       c.Encoding,
		Reader: ems.ReaderOptions{
			Delimiters:     c.Delimiters,
			CommentMarkers: c.CommentMarkers,
		},
		Thresholds: ems.Thresholds{
			MaxBusNumber:         cl.MaxBusNumber,
			MaxIDLength:          cl.MaxIDLength,
			MaxImpedance:         cl.MaxImpedance,
			MinGeneratorNumerics: cl.MinGeneratorNumerics,
			MaxLoadNumerics:      cl.MaxLoadNumerics,
		},
		VoltageTolerance: c.VoltageTolerance,
		Brands:           brands,
		Version:          version,
	}, nil
}

// attachSinks connects the optional history, telemetry and event sinks
// and registers them as hooks. A sink that cannot be reached is logged
// and skipped. The returned function closes every connected sink.
func attachSinks(ctx context.Context, cfg *config.Config, conv *convert.Converter, log *logging.Logger) func() {
	var closers []func()

	if cfg.Database.Enabled {
		if db, err := openHistory(ctx, cfg.Database); err != nil {
			log.Warn("conversion history disabled", "path", cfg.Database.Path, "error", err)
		} else {
			conv.AddHook(convert.HistoryHook(history.NewSQLiteRepository(db.DB)))
			closers = append(closers, func() {
				if err := db.Close(); err != nil {
					log.Error("error closing database", "error", err)
				}
			})
			log.Debug("conversion history enabled", "path", cfg.Database.Path)
		}
	}

	if cfg.InfluxDB.Enabled {
		if client, err := influxdb.Connect(cfg.InfluxDB, version); err != nil {
			log.Warn("telemetry disabled", "url", cfg.InfluxDB.URL, "error", err)
		} else {
			client.SetOnError(func(err error) {
				log.Error("InfluxDB write error", "error", err)
			})
			conv.AddHook(convert.TelemetryHook(client))
			closers = append(closers, func() {
				if err := client.Close(); err != nil {
					log.Error("error closing InfluxDB", "error", err)
				}
				if n := client.Failures(); n > 0 {
					log.Warn("telemetry batches rejected by InfluxDB", "count", n)
				}
			})
			log.Debug("telemetry enabled", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
		}
	}

	if cfg.MQTT.Enabled {
		if client, err := mqtt.Connect(cfg.MQTT); err != nil {
			log.Warn("conversion events disabled",
				"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
				"error", err,
			)
		} else {
			client.SetLogger(log)
			client.SetOnDisconnect(func(err error) {
				log.Warn("MQTT disconnected", "error", err)
			})
			conv.AddHook(convert.EventHook(client))
			closers = append(closers, func() {
				if err := client.Close(); err != nil {
					log.Error("error closing MQTT", "error", err)
				}
			})
			log.Debug("conversion events enabled", "prefix", client.Topics().Prefix)
		}
	}

	return func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
}

func openHistory(ctx context.Context, cfg config.DatabaseConfig) (*database.DB, error) {
	db, err := database.Open(database.Config{
		Path:        cfg.Path,
		WALMode:     cfg.WALMode,
		BusyTimeout: cfg.BusyTimeout,
	})
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}
