// Package config loads and validates reel's machine-level TOML
// configuration: directories, external binaries, engine credentials, and
// build scheduling limits.
package config
