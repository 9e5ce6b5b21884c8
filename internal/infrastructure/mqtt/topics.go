package mqtt

import (
	"path/filepath"
	"strings"
)

// DefaultTopicPrefix is used when the configured prefix is empty.
const DefaultTopicPrefix = "emsconvert"

// Topics builds the topic names for one prefix.
//
//	topics := mqtt.Topics{Prefix: "emsconvert"}
//	topics.ConversionCompleted("/data/grid.ems")
//	// Returns: "emsconvert/conversion/grid/completed"
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	p := strings.Trim(t.Prefix, "/")
	if p == "" {
		return DefaultTopicPrefix
	}
	return p
}

// Status returns the retained online/offline status topic.
//
// Example: emsconvert/status
func (t Topics) Status() string {
	return t.prefix() + "/status"
}

// ConversionCompleted returns the event topic for a finished conversion
// of the given input file.
//
// Example: emsconvert/conversion/grid/completed
func (t Topics) ConversionCompleted(source string) string {
	return t.prefix() + "/conversion/" + TopicSegment(source) + "/completed"
}

// AllConversions returns a wildcard matching every conversion event.
//
// Example: emsconvert/conversion/+/completed
func (t Topics) AllConversions() string {
	return t.prefix() + "/conversion/+/completed"
}

// TopicSegment reduces a file path to a single topic level: the file stem
// with separators and wildcard characters replaced by underscores.
func TopicSegment(source string) string {
	base := filepath.Base(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '+', '#', 0:
			return '_'
		}
		return r
	}, stem)
}
