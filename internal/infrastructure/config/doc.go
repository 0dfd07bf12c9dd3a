// Package config handles loading and validating LeafLens gateway configuration.
//
// This package manages:
//   - Loading configuration from an optional YAML file
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - The shared secret and store URL should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Configuration is loaded once at startup and never reloaded. The resulting
// *Config is treated as immutable and handed to each component's constructor.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.API.Port)
package config
