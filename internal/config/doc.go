// Package config provides configuration management for pagetrawl.
// It defines the session configuration struct, default values, validation,
// and loaders for the seeds, exclusion, and per-domain sites files.
package config
