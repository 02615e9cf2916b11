// Package sources resolves segment content sources before any stage runs.
//
// A resolved source carries a stamp, the identity that participates in cache
// keys: a content hash for asset files, the label text for placeholders, and
// name plus declared version for generators. Generator script bodies are not
// hashed; authors bump the version field when output changes.
package sources
