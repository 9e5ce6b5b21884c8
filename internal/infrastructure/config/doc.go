// Package config handles loading and validating emsconvert configuration.
//
// This package manages:
//   - Loading configuration from a YAML file
//   - Overriding with EMSCONVERT_* environment variables
//   - Validation of every section, with all problems reported at once
//   - Default value handling, so the converter runs with no file at all
//
// Command-line flags are applied by the CLI on top of the loaded values.
//
// Security Considerations:
//   - Broker passwords and InfluxDB tokens should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Conversion.OutputDir)
package config
