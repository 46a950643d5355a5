// Package config loads, normalizes, and validates the TOML configuration
// shared by the mupacs daemon and CLI.
//
// Configuration resolution follows a fixed pipeline: Default() seeds every
// field, an optional config file overrides it, normalize() expands paths and
// fills gaps, and Validate() rejects unusable combinations. Callers receive a
// fully-resolved Config with absolute paths.
package config
