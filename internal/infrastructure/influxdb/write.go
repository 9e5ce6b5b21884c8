package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementConversion is the measurement holding one point per run.
const MeasurementConversion = "conversion"

// Conversion is the telemetry of one conversion run.
type Conversion struct {
	RunID   string
	Source  string
	Grammar string

	// Time is when the run finished. Zero uses the write time.
	Time     time.Time
	Duration time.Duration

	Buses        int
	Transformers int
	Generators   int
	Loads        int
	Branches     int

	GenerationMW float64
	LoadMW       float64

	RecordsRead  int
	Malformed    int
	Unclassified int
	Errors       int
	Warnings     int
}

// WriteConversion queues a point for a finished run. The write is
// non-blocking; failures reach the SetOnError callback.
func (c *Client) WriteConversion(conv Conversion) {
	if c.Closed() {
		return
	}
	c.writeAPI.WritePoint(ConversionPoint(conv))
}

// ConversionPoint builds the point WriteConversion sends. Source file and
// grammar are tags; the run ID is a field to keep series cardinality low.
func ConversionPoint(conv Conversion) *write.Point {
	ts := conv.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	tags := map[string]string{
		"source":  conv.Source,
		"grammar": conv.Grammar,
	}
	fields := map[string]interface{}{
		"run_id":               conv.RunID,
		"duration_ms":          conv.Duration.Milliseconds(),
		"buses":                conv.Buses,
		"transformers":         conv.Transformers,
		"generators":           conv.Generators,
		"loads":                conv.Loads,
		"branches":             conv.Branches,
		"generation_mw":        conv.GenerationMW,
		"load_mw":              conv.LoadMW,
		"records_read":         conv.RecordsRead,
		"records_malformed":    conv.Malformed,
		"records_unclassified": conv.Unclassified,
		"errors":               conv.Errors,
		"warnings":             conv.Warnings,
	}
	return write.NewPoint(MeasurementConversion, tags, fields, ts)
}
