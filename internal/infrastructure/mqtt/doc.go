// Package mqtt announces conversion results on an MQTT broker.
//
// A connected client publishes a retained online status under
// <prefix>/status, registers an offline Last Will on the same topic, and
// publishes one JSON event per finished conversion under
// <prefix>/conversion/<source>/completed. Downstream tooling (model
// importers, dashboards) subscribes to those topics instead of polling
// the output directory.
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishConversion(mqtt.ConversionEvent{Source: "grid.ems"})
//
// TLS is used when cfg.Broker.TLS is set. The client reconnects with
// exponential backoff between reconnect.initial_delay and
// reconnect.max_delay.
package mqtt
