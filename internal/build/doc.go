// Package build orchestrates incremental video production. It walks each
// segment through content resolution, narration synthesis, visual rendering
// and stream combination, consulting the content-addressed cache before
// every collaborator invocation, then concatenates the finished segments
// into the export. A build whose inputs are unchanged touches no external
// process at all.
package build
