package logging

// Standardized attribute keys used across the pipeline. Keeping these in one
// place makes log queries stable when stages move between packages.
const (
	FieldComponent = "component"
	FieldSegmentID = "segment_id"
	FieldStage     = "stage"
	FieldCacheKey  = "cache_key"
	FieldBuildID   = "build_id"
	FieldEventType = "event_type"
	FieldErrorHint = "error_hint"
	FieldArtifact  = "artifact"
	FieldDuration  = "duration_seconds"
)
