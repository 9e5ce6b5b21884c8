package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/nerrad567/emsconvert/internal/convert"
	"github.com/nerrad567/emsconvert/internal/infrastructure/config"
)

const sampleInput = `0, 100.00, 33, 0, 1, 50.00 / Test grid
NORTHERN AREA
SUMMER PEAK
1 'NORTH' 132 3
2 'SOUTH' 132 1
3 'EAST' 33 1
1 2 0 '1' 2 0.005 0.1 100
`

// setup writes input into a temporary directory and returns its path with
// flags pointing the outputs into the same directory.
func setup(t *testing.T, input string) (string, *cliFlags) {
	t.Helper()
	t.Setenv("EMSCONVERT_CONFIG", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "grid.ems")
	if err := os.WriteFile(path, []byte(input), 0600); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}
	return path, &cliFlags{outputDir: filepath.Join(dir, "out")}
}

// TestRun_Converts verifies a default run writes every artifact and the log.
func TestRun_Converts(t *testing.T) {
	input, f := setup(t, sampleInput)
	var out bytes.Buffer

	if err := run(context.Background(), f, input, &out); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	for _, name := range []string{"grid_powerfactory.raw", "grid_metadata.json", "grid_report.xlsx", logFileName} {
		if _, err := os.Stat(filepath.Join(f.outputDir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
	if !strings.Contains(out.String(), "converted") {
		t.Errorf("summary missing success line:\n%s", out.String())
	}
}

// TestRun_FlagsOverrideOutputs verifies explicit names and formats.
func TestRun_FlagsOverrideOutputs(t *testing.T) {
	input, f := setup(t, sampleInput)
	f.rawFile = "case.raw"
	f.metadataFormat = "yaml"
	f.reportFormat = "sqlite"
	f.grammar = "~30"

	if err := run(context.Background(), f, input, &bytes.Buffer{}); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	for _, name := range []string{"case.raw", "grid_metadata.yaml", "grid_report.sqlite"} {
		if _, err := os.Stat(filepath.Join(f.outputDir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}

	raw, err := os.ReadFile(filepath.Join(f.outputDir, "case.raw"))
	if err != nil {
		t.Fatalf("reading RAW: %v", err)
	}
	if !strings.Contains(string(raw), "/BUS DATA") {
		t.Errorf("grammar ~30 not applied:\n%s", raw)
	}
}

// TestRun_SkipFlags verifies --no-report and --no-metadata.
func TestRun_SkipFlags(t *testing.T) {
	input, f := setup(t, sampleInput)
	f.noReport = true
	f.noMetadata = true

	if err := run(context.Background(), f, input, &bytes.Buffer{}); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	entries, err := os.ReadDir(f.outputDir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	for _, e := range entries {
		if e.Name() != "grid_powerfactory.raw" && e.Name() != logFileName {
			t.Errorf("unexpected output %s", e.Name())
		}
	}
}

// TestRun_NothingParsed verifies a non-empty input without entities fails.
func TestRun_NothingParsed(t *testing.T) {
	input, f := setup(t, "hello world\n")

	err := run(context.Background(), f, input, &bytes.Buffer{})
	if !errors.Is(err, convert.ErrNothingParsed) {
		t.Fatalf("run() error = %v, want ErrNothingParsed", err)
	}
}

// TestRun_EmptyInput verifies an empty input is a successful run.
func TestRun_EmptyInput(t *testing.T) {
	input, f := setup(t, "")

	if err := run(context.Background(), f, input, &bytes.Buffer{}); err != nil {
		t.Fatalf("run() error = %v", err)
	}
}

// TestRun_MissingInput verifies the IO failure and its hint reach the user.
func TestRun_MissingInput(t *testing.T) {
	_, f := setup(t, "")
	var out bytes.Buffer

	err := run(context.Background(), f, filepath.Join(f.outputDir, "missing.ems"), &out)
	var iof *convert.IOFailure
	if !errors.As(err, &iof) {
		t.Fatalf("run() error = %v, want *convert.IOFailure", err)
	}

	var printed bytes.Buffer
	printError(&printed, err)
	if !strings.Contains(printed.String(), "missing.ems") {
		t.Errorf("printError() output missing path:\n%s", printed.String())
	}
	if errors.FlattenHints(err) == "" {
		t.Error("IOFailure carries no hint")
	}
}

// TestRun_InvalidConfig verifies run fails with an invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	input, f := setup(t, sampleInput)
	f.configPath = "/nonexistent/path/config.yaml"

	if err := run(context.Background(), f, input, &bytes.Buffer{}); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_InvalidFlag verifies flag values are validated.
func TestRun_InvalidFlag(t *testing.T) {
	input, f := setup(t, sampleInput)
	f.reportFormat = "pdf"

	err := run(context.Background(), f, input, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "report_format") {
		t.Fatalf("run() error = %v, want report_format error", err)
	}
}

// TestRun_UnreachableSinksAreNotFatal verifies optional sinks degrade.
func TestRun_UnreachableSinksAreNotFatal(t *testing.T) {
	input, f := setup(t, sampleInput)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
logging:
  file:
    enabled: false
mqtt:
  enabled: true
  broker:
    host: "127.0.0.1"
    port: 1
influxdb:
  enabled: true
  url: "http://127.0.0.1:1"
`
	if err := os.WriteFile(cfgPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	f.configPath = cfgPath

	if err := run(context.Background(), f, input, &bytes.Buffer{}); err != nil {
		t.Fatalf("run() error = %v", err)
	}
}

// TestRun_History verifies enabled history records the run.
func TestRun_History(t *testing.T) {
	input, f := setup(t, sampleInput)
	dbPath := filepath.Join(t.TempDir(), "history.db")
	t.Setenv("EMSCONVERT_HISTORY_ENABLED", "true")
	t.Setenv("EMSCONVERT_DATABASE_PATH", dbPath)

	if err := run(context.Background(), f, input, &bytes.Buffer{}); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("history database not created: %v", err)
	}
}

// TestRun_Watch verifies watch mode converts immediately and stops on cancel.
func TestRun_Watch(t *testing.T) {
	input, f := setup(t, sampleInput)
	f.watch = true

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, f, input, &bytes.Buffer{}) }()

	rawPath := filepath.Join(f.outputDir, "grid_powerfactory.raw")
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(rawPath); err == nil {
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatal("watch mode did not convert the input")
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

// TestApplyFlags verifies only set flags override the configuration.
func TestApplyFlags(t *testing.T) {
	cfg := config.Default()
	applyFlags(cfg, &cliFlags{grammar: "~30", noReport: true, verbose: true})

	if cfg.Conversion.Grammar != "~30" {
		t.Errorf("Grammar = %q, want ~30", cfg.Conversion.Grammar)
	}
	if cfg.Conversion.Report {
		t.Error("Report should be disabled")
	}
	if !cfg.Conversion.Metadata {
		t.Error("Metadata should stay enabled")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Conversion.OutputDir != "output" {
		t.Errorf("OutputDir = %q, want output", cfg.Conversion.OutputDir)
	}
}

// TestConfigPath verifies flag, environment and default resolution.
func TestConfigPath(t *testing.T) {
	t.Setenv("EMSCONVERT_CONFIG", "/etc/emsconvert.yaml")
	if got := configPath("custom.yaml"); got != "custom.yaml" {
		t.Errorf("configPath(flag) = %q", got)
	}
	if got := configPath(""); got != "/etc/emsconvert.yaml" {
		t.Errorf("configPath(env) = %q", got)
	}

	t.Setenv("EMSCONVERT_CONFIG", "")
	if got := configPath(""); got != "" {
		t.Errorf("configPath() = %q, want empty without a default file", got)
	}
}

// TestRootCmd_RequiresInput verifies the positional argument is enforced.
func TestRootCmd_RequiresInput(t *testing.T) {
	cmd := newRootCmd(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	cmd.SetErr(&bytes.Buffer{})

	if err := cmd.Execute(); err == nil {
		t.Fatal("Execute() should fail without an input file")
	}
}
