package mqtt

import (
	"encoding/json"
	"fmt"
	"time"
)

// ConversionEvent is the payload published when a conversion finishes.
type ConversionEvent struct {
	RunID      string    `json:"run_id"`
	Source     string    `json:"source"`
	Grammar    string    `json:"grammar"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMS int64     `json:"duration_ms"`

	// Outputs maps an artifact kind (raw, metadata, report) to its path.
	Outputs map[string]string `json:"outputs"`

	Buses        int `json:"total_buses"`
	Transformers int `json:"total_transformers"`
	Generators   int `json:"total_generators"`
	Loads        int `json:"total_loads"`
	Branches     int `json:"total_branches"`
	Errors       int `json:"errors"`
	Warnings     int `json:"warnings"`
}

// PublishConversion publishes ev, not retained, on the completed topic
// of its source file.
func (c *Client) PublishConversion(ev ConversionEvent) error {
	payload, err := EncodeConversion(ev)
	if err != nil {
		return err
	}
	return c.Publish(c.topics.ConversionCompleted(ev.Source), payload, byte(c.cfg.QoS), false)
}

// EncodeConversion returns the JSON payload of ev.
func EncodeConversion(ev ConversionEvent) ([]byte, error) {
	if ev.Outputs == nil {
		ev.Outputs = map[string]string{}
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding event: %w", ErrPublishFailed, err)
	}
	return payload, nil
}
