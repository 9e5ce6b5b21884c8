package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"

	"github.com/nerrad567/emsconvert/internal/convert"
	"github.com/nerrad567/emsconvert/internal/network"
)

// maxListedIssues bounds the issues echoed to the terminal; the metadata
// document and the report carry all of them.
const maxListedIssues = 10

// printSummary writes a human-readable account of one run.
func printSummary(w io.Writer, res *convert.Result, logPath string) {
	switch {
	case res.Failed():
		printError(w, res.Err)
		return
	case errors.Is(res.Err, convert.ErrNothingParsed):
		fmt.Fprintln(w, pterm.Warning.Sprintf("%s: no entities parsed", res.Source))
	default:
		fmt.Fprintln(w, pterm.Success.Sprintf("%s converted in %s", res.Source, res.Duration.Round(time.Millisecond)))
	}

	m := res.Model
	stats := m.Stats()

	rows := [][]string{{"Kind", "Parsed", "Excluded", "Warned", "Exported"}}
	for _, k := range network.AllKinds() {
		ks := stats.Kinds[k]
		rows = append(rows, []string{
			k.Plural(),
			strconv.Itoa(ks.Parsed),
			strconv.Itoa(ks.Excluded),
			strconv.Itoa(ks.Warned),
			strconv.Itoa(stats.Total(k)),
		})
	}
	if table, err := pterm.DefaultTable.WithHasHeader().WithData(rows).Srender(); err == nil {
		fmt.Fprintln(w, table)
	}

	fmt.Fprintf(w, "Generation capacity: %.2f MW\n", stats.TotalGenerationMW)
	fmt.Fprintf(w, "Load demand:         %.2f MW / %.2f Mvar\n", stats.TotalLoadMW, stats.TotalLoadMvar)
	fmt.Fprintf(w, "Voltage levels:      %s kV\n", joinFloats(stats.VoltageLevels))
	fmt.Fprintf(w, "Records:             %d read, %d malformed, %d unclassified\n",
		stats.Records.Read, stats.Records.Malformed, stats.Records.Unclassified)

	if stats.Errors+stats.Warnings > 0 {
		fmt.Fprintln(w, pterm.Warning.Sprintf("%d errors, %d warnings", stats.Errors, stats.Warnings))
		issues := m.Issues()
		for i, issue := range issues {
			if i == maxListedIssues {
				fmt.Fprintf(w, "  ... %d more\n", len(issues)-maxListedIssues)
				break
			}
			fmt.Fprintf(w, "  %s\n", issue)
		}
	}

	fmt.Fprintln(w, pterm.Info.Sprint("Outputs"))
	for _, kind := range []string{"raw", "metadata", "report"} {
		if path, ok := res.Outputs.Map()[kind]; ok {
			fmt.Fprintf(w, "  %-9s %s\n", kind, path)
		}
	}
	if logPath != "" {
		fmt.Fprintf(w, "  %-9s %s\n", "log", logPath)
	}
}

func joinFloats(fs []float64) string {
	if len(fs) == 0 {
		return "none"
	}
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strings.Join(parts, ", ")
}
