package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for emsconvert.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Conversion     ConversionConfig     `yaml:"conversion"`
	Classification ClassificationConfig `yaml:"classification"`
	Logging        LoggingConfig        `yaml:"logging"`
	Database       DatabaseConfig       `yaml:"database"`
	InfluxDB       InfluxDBConfig       `yaml:"influxdb"`
	MQTT           MQTTConfig           `yaml:"mqtt"`
}

// ConversionConfig controls input decoding and the produced artifacts.
type ConversionConfig struct {
	OutputDir string `yaml:"output_dir"`

	// Encoding is auto, utf-8 or latin-1.
	Encoding string `yaml:"encoding"`

	// Grammar is a semantic-version constraint selecting the RAW grammar,
	// optionally prefixed with a grammar name ("psse@~30").
	Grammar string `yaml:"grammar"`

	MetadataFormat string `yaml:"metadata_format"`
	ReportFormat   string `yaml:"report_format"`
	Metadata       bool   `yaml:"metadata"`
	Report         bool   `yaml:"report"`

	// Delimiters are the hard field delimiters of the input.
	Delimiters     string `yaml:"delimiters"`
	CommentMarkers string `yaml:"comment_markers"`

	// VoltageTolerance is the relative winding/bus voltage difference
	// above which a VOLTAGE_MISMATCH warning is raised.
	VoltageTolerance float64 `yaml:"voltage_tolerance"`

	// BrandTable is an optional YAML file replacing the built-in
	// manufacturer keywords.
	BrandTable string `yaml:"brand_table"`
}

// ClassificationConfig contains the record-shape thresholds.
type ClassificationConfig struct {
	MaxBusNumber         int     `yaml:"max_bus_number"`
	MaxIDLength          int     `yaml:"max_id_length"`
	MaxImpedance         float64 `yaml:"max_impedance"`
	MinGeneratorNumerics int     `yaml:"min_generator_numerics"`
	MaxLoadNumerics      int     `yaml:"max_load_numerics"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string            `yaml:"level"`
	Format string            `yaml:"format"`
	Output string            `yaml:"output"`
	File   FileLoggingConfig `yaml:"file"`
}

// FileLoggingConfig contains file-based logging settings.
type FileLoggingConfig struct {
	Enabled bool `yaml:"enabled"`

	// Path defaults to conversion.log in the output directory.
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// DatabaseConfig contains the conversion-history database settings.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`

	// Tags are added to every point, e.g. the site or control centre.
	Tags map[string]string `yaml:"tags"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	TopicPrefix string              `yaml:"topic_prefix"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults), skipped when path is ""
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: EMSCONVERT_SECTION_KEY
// For example: EMSCONVERT_OUTPUT_DIR, EMSCONVERT_MQTT_HOST
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Conversion: ConversionConfig{
			OutputDir:        "output",
			Encoding:         "auto",
			Grammar:          "33",
			MetadataFormat:   "json",
			ReportFormat:     "xlsx",
			Metadata:         true,
			Report:           true,
			Delimiters:       ",",
			CommentMarkers:   "#@",
			VoltageTolerance: 0.10,
		},
		Classification: ClassificationConfig{
			MaxBusNumber:         999997,
			MaxIDLength:          2,
			MaxImpedance:         100,
			MinGeneratorNumerics: 6,
			MaxLoadNumerics:      6,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
			File: FileLoggingConfig{
				Enabled:    true,
				MaxSize:    10,
				MaxBackups: 3,
				MaxAge:     28,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/emsconvert.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		InfluxDB: InfluxDBConfig{
			URL:           "http://localhost:8086",
			Org:           "emsconvert",
			Bucket:        "conversions",
			BatchSize:     100,
			FlushInterval: 10,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "emsconvert",
			},
			QoS:         1,
			TopicPrefix: "emsconvert",
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: EMSCONVERT_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Conversion
	if v := os.Getenv("EMSCONVERT_OUTPUT_DIR"); v != "" {
		cfg.Conversion.OutputDir = v
	}
	if v := os.Getenv("EMSCONVERT_ENCODING"); v != "" {
		cfg.Conversion.Encoding = v
	}
	if v := os.Getenv("EMSCONVERT_GRAMMAR"); v != "" {
		cfg.Conversion.Grammar = v
	}
	if v := os.Getenv("EMSCONVERT_BRAND_TABLE"); v != "" {
		cfg.Conversion.BrandTable = v
	}

	// Logging
	if v := os.Getenv("EMSCONVERT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Database
	if v := os.Getenv("EMSCONVERT_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v, ok := envBool("EMSCONVERT_HISTORY_ENABLED"); ok {
		cfg.Database.Enabled = v
	}

	// MQTT
	if v := os.Getenv("EMSCONVERT_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("EMSCONVERT_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("EMSCONVERT_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("EMSCONVERT_INFLUXDB_URL"); v != "" {
		cfg.InfluxDB.URL = v
	}
	if v := os.Getenv("EMSCONVERT_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// envBool reads a boolean environment variable. Unset or unparsable
// values report false for ok.
func envBool(key string) (value, ok bool) {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return false, false
	}
	return v, true
}

// Validate checks the configuration for errors. Every problem found is
// reported, joined by "; ".
func (c *Config) Validate() error {
	var errs []string

	// Conversion
	if c.Conversion.OutputDir == "" {
		errs = append(errs, "conversion.output_dir is required")
	}
	if !oneOf(c.Conversion.Encoding, "auto", "utf-8", "utf8", "latin-1", "latin1", "iso-8859-1") {
		errs = append(errs, "conversion.encoding must be auto, utf-8 or latin-1")
	}
	if strings.TrimSpace(c.Conversion.Grammar) == "" {
		errs = append(errs, "conversion.grammar is required")
	}
	if !oneOf(c.Conversion.MetadataFormat, "json", "yaml", "yml") {
		errs = append(errs, "conversion.metadata_format must be json or yaml")
	}
	if !oneOf(c.Conversion.ReportFormat, "xlsx", "sqlite") {
		errs = append(errs, "conversion.report_format must be xlsx or sqlite")
	}
	if c.Conversion.Delimiters == "" {
		errs = append(errs, "conversion.delimiters must not be empty")
	}
	if c.Conversion.VoltageTolerance <= 0 || c.Conversion.VoltageTolerance > 1 {
		errs = append(errs, "conversion.voltage_tolerance must be in (0, 1]")
	}

	// Classification
	cl := c.Classification
	if cl.MaxBusNumber < 0 || cl.MaxIDLength < 0 || cl.MaxImpedance < 0 ||
		cl.MinGeneratorNumerics < 0 || cl.MaxLoadNumerics < 0 {
		errs = append(errs, "classification thresholds must not be negative")
	}

	// Logging
	if !oneOf(c.Logging.Level, "debug", "info", "warn", "warning", "error") {
		errs = append(errs, "logging.level must be debug, info, warn or error")
	}
	if !oneOf(c.Logging.Format, "json", "text") {
		errs = append(errs, "logging.format must be json or text")
	}

	// Database
	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when history is enabled")
	}

	// InfluxDB
	if c.InfluxDB.Enabled && (c.InfluxDB.URL == "" || c.InfluxDB.Bucket == "") {
		errs = append(errs, "influxdb.url and influxdb.bucket are required when influxdb is enabled")
	}

	// MQTT
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && (c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535) {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

func oneOf(v string, allowed ...string) bool {
	return slices.Contains(allowed, strings.ToLower(strings.TrimSpace(v)))
}
