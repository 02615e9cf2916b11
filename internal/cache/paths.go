package cache

import (
	"path/filepath"
	"strings"
)

// artifactPath lays out artifacts so the cache stays browsable by hand:
// <cache_dir>/<stage>/<segment_id>/<key><ext>. Grid cell scopes contain a
// slash ("hero/cell-0") and become nested directories.
func artifactPath(root string, segmentID string, stage Stage, key, ext string) string {
	parts := []string{root, string(stage)}
	for _, elem := range strings.Split(segmentID, "/") {
		parts = append(parts, sanitizePathElement(elem))
	}
	parts = append(parts, key+ext)
	return filepath.Join(parts...)
}

func scopeDir(root string, segmentID string, stage Stage) string {
	parts := []string{root, string(stage)}
	for _, elem := range strings.Split(segmentID, "/") {
		parts = append(parts, sanitizePathElement(elem))
	}
	return filepath.Join(parts...)
}

// sanitizePathElement keeps directory names portable across filesystems.
// Segment ids are already validated, but pseudo scopes and future callers
// go through the same funnel.
func sanitizePathElement(elem string) string {
	if elem == "" {
		return "_"
	}
	var b strings.Builder
	b.Grow(len(elem))
	for _, r := range elem {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if strings.Trim(out, ".") == "" {
		return "_"
	}
	return out
}
