// Package influxdb records conversion telemetry in InfluxDB v2.
//
// Each finished conversion becomes one point in the "conversion"
// measurement, tagged with the source file and RAW grammar, so that
// entity counts, issue counts and durations can be charted across runs.
//
//	client, err := influxdb.Connect(cfg.InfluxDB, version)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteConversion(influxdb.Conversion{Source: "grid.ems", Buses: 42})
//
// Writes are non-blocking and batched according to batch_size and
// flush_interval. Every point carries the converter version, the host
// name and any tags from the influxdb.tags setting. Asynchronous write
// failures are counted and delivered to the callback registered with
// SetOnError; connection errors are returned directly with a hint.
package influxdb
