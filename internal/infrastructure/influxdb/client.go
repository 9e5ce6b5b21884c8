package influxdb

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/nerrad567/emsconvert/internal/infrastructure/config"
)

const (
	connectTimeout = 10 * time.Second

	defaultBatchSize     = 20
	defaultFlushInterval = 10 * time.Second
)

// Default tags added to every conversion point.
const (
	TagConverterVersion = "converter_version"
	TagHost             = "host"
)

// Client records conversion telemetry in an InfluxDB v2 bucket. Points are
// batched; Close pushes out whatever is still queued. Methods are safe for
// concurrent use.
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	bucket   string

	closed   atomic.Bool
	failures atomic.Int64

	mu      sync.Mutex
	onError func(err error)
}

// Connect pings the server and prepares a batched writer for the
// configured org and bucket. Every point carries the converter version,
// the host name and the configured tags. It returns ErrDisabled when the
// integration is switched off.
func Connect(cfg config.InfluxDBConfig, version string) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, clientOptions(cfg, version))

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	healthy, err := client.Ping(ctx)
	if err == nil && !healthy {
		err = errors.New("server reports unhealthy")
	}
	if err != nil {
		client.Close()
		err = fmt.Errorf("%w: ping %s: %w", ErrConnectionFailed, cfg.URL, err)
		return nil, errors.WithHint(err, "check influxdb.url and that the server is running, or set influxdb.enabled to false")
	}

	c := &Client{
		client:   client,
		writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket),
		bucket:   cfg.Bucket,
	}
	go c.drainErrors(c.writeAPI.Errors())
	return c, nil
}

// clientOptions maps the batch settings onto the client and sets the
// default tags. FlushInterval is in seconds.
func clientOptions(cfg config.InfluxDBConfig, version string) *influxdb2.Options {
	batch := defaultBatchSize
	if cfg.BatchSize > 0 {
		batch = cfg.BatchSize
	}
	flush := defaultFlushInterval
	if cfg.FlushInterval > 0 {
		flush = time.Duration(cfg.FlushInterval) * time.Second
	}

	// #nosec G115 -- both values are positive
	opts := influxdb2.DefaultOptions().
		SetBatchSize(uint(batch)).
		SetFlushInterval(uint(flush.Milliseconds()))

	for k, v := range DefaultTags(cfg, version) {
		opts.AddDefaultTag(k, v)
	}
	return opts
}

// DefaultTags returns the tags every point is written with: the converter
// version, the host name when it can be read, and the configured tags,
// which take precedence.
func DefaultTags(cfg config.InfluxDBConfig, version string) map[string]string {
	tags := make(map[string]string, len(cfg.Tags)+2)
	if version != "" {
		tags[TagConverterVersion] = version
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		tags[TagHost] = host
	}
	for k, v := range cfg.Tags {
		if k != "" && v != "" {
			tags[k] = v
		}
	}
	return tags
}

// drainErrors counts asynchronous write failures and hands them to the
// callback until the write API is closed. The channel must be taken
// before the first write.
func (c *Client) drainErrors(errs <-chan error) {
	for err := range errs {
		c.failures.Add(1)
		c.mu.Lock()
		callback := c.onError
		c.mu.Unlock()
		if callback != nil {
			callback(errors.Wrapf(err, "write to bucket %s", c.bucket))
		}
	}
}

// SetOnError sets the callback for asynchronous write failures.
func (c *Client) SetOnError(callback func(err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = callback
}

// Failures returns the number of batches the server rejected so far.
func (c *Client) Failures() int64 {
	return c.failures.Load()
}

// Closed reports whether Close has been called.
func (c *Client) Closed() bool {
	return c.closed.Load()
}

// Close writes the queued points and releases the client. It is safe to
// call on a nil Client and more than once.
func (c *Client) Close() error {
	if c == nil || c.client == nil || !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.writeAPI.Flush()
	c.client.Close()
	return nil
}
