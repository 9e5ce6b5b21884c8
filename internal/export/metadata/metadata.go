// Package metadata writes the structured conversion document: where the
// model came from, what it contains, what was inferred about its
// equipment, and every issue found on the way.
package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nerrad567/emsconvert/internal/model"
	"github.com/nerrad567/emsconvert/internal/network"
)

// ErrUnknownFormat is returned for a format other than json or yaml.
var ErrUnknownFormat = errors.New("metadata: unknown format")

// Format selects the document encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name. "yml" is accepted for YAML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Extension returns the file extension for the format, with the dot.
func (f Format) Extension() string {
	if f == FormatYAML {
		return ".yaml"
	}
	return ".json"
}

// Document is the metadata document.
type Document struct {
	ConversionInfo   model.ConversionInfo `json:"conversion_info" yaml:"conversion_info"`
	Statistics       model.Statistics     `json:"statistics" yaml:"statistics"`
	Equipment        Equipment            `json:"equipment" yaml:"equipment"`
	VoltageLevels    []model.VoltageLevel `json:"voltage_levels" yaml:"voltage_levels"`
	ValidationIssues []network.Issue      `json:"validation_issues" yaml:"validation_issues"`
}

// Write builds the document for m and encodes it to w.
func Write(w io.Writer, m *model.SystemModel, f Format) error {
	doc := Build(m)

	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding metadata: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding metadata: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encoding metadata: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	return nil
}

// Build derives the document from m.
func Build(m *model.SystemModel) Document {
	stats := m.Stats()
	issues := m.Issues()
	if issues == nil {
		issues = []network.Issue{}
	}
	return Document{
		ConversionInfo:   m.Info(),
		Statistics:       stats,
		Equipment:        buildEquipment(m),
		VoltageLevels:    stats.VoltageHistogram,
		ValidationIssues: issues,
	}
}
