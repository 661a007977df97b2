// Package cli provides common utilities for the voicewire command-line
// tool.
//
// This package includes:
//   - Configuration management (named credential contexts)
//   - Output formatting (JSON, YAML, raw)
//   - Request file loading (YAML/JSON)
//   - Terminal styling helpers
//
// Configuration is stored in ~/.reason-code/<app>/ directory,
// supporting multiple contexts similar to kubectl.
//
// Example usage:
//
//	// Initialize config for your app
//	cfg, err := cli.LoadConfig("voicewire")
//
//	// Get current context
//	ctx, err := cfg.GetCurrentContext()
//
//	// Output result
//	cli.Output(result, cli.OutputOptions{
//	    Format: cli.FormatJSON,
//	    File:   outputPath,
//	})
package cli
