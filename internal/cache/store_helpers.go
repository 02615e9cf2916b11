package cache

import (
	"errors"
	"time"
)

const recordColumns = "id, segment_id, stage, cache_key, artifact_path, duration_seconds, width, height, created_at"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id        int64
		segmentID string
		stageName string
		key       string
		path      string
		duration  float64
		width     int
		height    int
		createdAt string
	)

	if err := scanner.Scan(
		&id,
		&segmentID,
		&stageName,
		&key,
		&path,
		&duration,
		&width,
		&height,
		&createdAt,
	); err != nil {
		return nil, err
	}

	record := &Record{
		ID:              id,
		SegmentID:       segmentID,
		Stage:           Stage(stageName),
		Key:             key,
		Path:            path,
		DurationSeconds: duration,
		Width:           width,
		Height:          height,
	}
	if created, err := parseTimeString(createdAt); err == nil {
		record.CreatedAt = created
	}
	return record, nil
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}
