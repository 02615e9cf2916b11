// Package cache stores stage artifacts on disk and indexes them in SQLite by
// (segment, stage, key).
//
// Artifacts live in a browsable layout, <cache_dir>/<stage>/<segment>/<key>,
// so a user can inspect or delete entries by hand; the index tolerates that
// by dropping records whose files disappeared and reporting a miss. Writers
// never touch a key path directly: they write to a temp file and Publish
// renames it into place, so interrupted builds cannot leave partial
// artifacts behind a valid key.
//
// Entries are immutable once published. Invalidation removes entries for one
// segment and stage without cascading; downstream stages go stale on their
// own because their keys stop matching.
package cache
