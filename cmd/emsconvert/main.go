// Command emsconvert converts EMS network exports into PowerFactory RAW
// files, with a metadata document and a tabular report alongside.
//
// Usage:
//
//	emsconvert [flags] <input>
//
// Configuration is read from configs/config.yaml when present, or from the
// file named by -c or EMSCONVERT_CONFIG. Flags override the file.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path, used only when it exists.
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// cliFlags holds the command-line flags. String flags left empty and
// booleans left false defer to the configuration file.
type cliFlags struct {
	configPath string

	outputDir    string
	rawFile      string
	metadataFile string
	reportFile   string

	grammar        string
	metadataFormat string
	reportFormat   string
	encoding       string
	brands         string

	noReport   bool
	noMetadata bool
	verbose    bool
	watch      bool
}

func newRootCmd(out io.Writer) *cobra.Command {
	f := &cliFlags{}

	cmd := &cobra.Command{
		Use:   "emsconvert [flags] <input>",
		Short: "Convert EMS network exports to PowerFactory RAW",
		Long: `emsconvert reads a text export from an energy management system and
writes a PowerFactory-compatible RAW file, a metadata document and a
tabular report.

Records that cannot be read or placed are reported and skipped; entities
that fail validation are left out of every output.

Examples:
  emsconvert grid.ems                       # outputs under ./output
  emsconvert -o out --grammar "~30" grid.ems
  emsconvert --report-format sqlite --no-metadata grid.ems
  emsconvert --watch grid.ems               # convert again on every save`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), f, args[0], out)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.configPath, "config", "c", "", "configuration file (default configs/config.yaml when present)")
	fl.StringVarP(&f.outputDir, "output-dir", "o", "", "directory for generated files (default \"output\")")
	fl.StringVar(&f.rawFile, "raw-file", "", "RAW file name (default <stem>_powerfactory.raw)")
	fl.StringVar(&f.metadataFile, "metadata-file", "", "metadata file name (default <stem>_metadata.<format>)")
	fl.StringVar(&f.reportFile, "report-file", "", "report file name (default <stem>_report.<format>)")
	fl.StringVar(&f.grammar, "grammar", "", "RAW grammar version constraint, e.g. 33 or ~30 (default \"33\")")
	fl.StringVar(&f.metadataFormat, "metadata-format", "", "metadata format: json or yaml")
	fl.StringVar(&f.reportFormat, "report-format", "", "report format: xlsx or sqlite")
	fl.StringVar(&f.encoding, "encoding", "", "input encoding: auto, utf-8 or latin-1")
	fl.StringVar(&f.brands, "brands", "", "YAML file replacing the built-in manufacturer table")
	fl.BoolVar(&f.noReport, "no-report", false, "skip the tabular report")
	fl.BoolVar(&f.noMetadata, "no-metadata", false, "skip the metadata document")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging")
	fl.BoolVar(&f.watch, "watch", false, "convert again whenever the input changes")

	return cmd
}

// printError writes err and any hints attached to it.
func printError(w io.Writer, err error) {
	fmt.Fprintln(w, pterm.Error.Sprint(err))
	if hint := errors.FlattenHints(err); hint != "" {
		fmt.Fprintln(w, pterm.Info.Sprint(hint))
	}
}
