// Package project defines the read-only data model for a video project: an
// ordered sequence of segments (title cards, images, video clips, grids)
// plus global configuration, loaded from a TOML manifest.
package project
