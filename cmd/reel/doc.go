// Command reel builds narrated videos from a project manifest, caching every
// intermediate artifact so repeated builds only redo what changed.
package main
