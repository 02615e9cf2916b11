package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"reel/internal/config"
	"reel/internal/logging"
)

// Store manages the artifact cache: files on disk plus a SQLite index that
// maps (segment, stage, key) to the published artifact.
type Store struct {
	db     *sql.DB
	root   string
	path   string
	logger *slog.Logger
}

// Metadata carries stage-specific facts recorded alongside an artifact.
type Metadata struct {
	DurationSeconds float64
	Width           int
	Height          int
}

// Open initializes or connects to the cache index under cfg.Paths.CacheDir.
func Open(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	root := cfg.Paths.CacheDir
	if err := os.MkdirAll(filepath.Join(root, "tmp"), 0o755); err != nil {
		return nil, fmt.Errorf("create cache tmp dir: %w", err)
	}

	dbPath := filepath.Join(root, "cache.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, root: root, path: dbPath, logger: logging.NewComponentLogger(logger, "cache")}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Root returns the cache directory the store was opened on.
func (s *Store) Root() string {
	return s.root
}

// Lookup returns the record for a (segment, stage, key) tuple, or nil on a
// miss. A record whose artifact file has been removed out-of-band is dropped
// from the index and reported as a miss rather than served.
func (s *Store) Lookup(ctx context.Context, segmentID string, stage Stage, key string) (*Record, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+recordColumns+` FROM cache_records WHERE segment_id = ? AND stage = ? AND cache_key = ?`,
		segmentID,
		string(stage),
		key,
	)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup record: %w", err)
	}

	if _, statErr := os.Stat(record.Path); statErr != nil {
		s.logger.Warn("cache artifact missing, treating as miss",
			logging.String(logging.FieldSegmentID, segmentID),
			logging.String(logging.FieldStage, string(stage)),
			logging.String(logging.FieldCacheKey, key),
			logging.String(logging.FieldArtifact, record.Path),
		)
		if _, delErr := s.db.ExecContext(ctx, `DELETE FROM cache_records WHERE id = ?`, record.ID); delErr != nil {
			return nil, fmt.Errorf("drop dangling record: %w", delErr)
		}
		return nil, nil
	}

	return record, nil
}

// TempPath returns a fresh path under the cache's tmp directory. Producers
// write there and hand the finished file to Publish, so a crash mid-write
// never leaves a partial artifact at a cache key.
func (s *Store) TempPath(ext string) string {
	return filepath.Join(s.root, "tmp", uuid.NewString()+ext)
}

// Publish moves a finished temp file into its cache location and records it.
// The rename is the commit point: the key path only ever holds complete
// artifacts.
func (s *Store) Publish(ctx context.Context, segmentID string, stage Stage, key, tempPath, ext string, meta Metadata) (*Record, error) {
	dest := artifactPath(s.root, segmentID, stage, key, ext)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	if err := os.Rename(tempPath, dest); err != nil {
		return nil, fmt.Errorf("publish artifact: %w", err)
	}

	now := time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO cache_records (
            segment_id, stage, cache_key, artifact_path,
            duration_seconds, width, height, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (segment_id, stage, cache_key) DO UPDATE SET
            artifact_path = excluded.artifact_path,
            duration_seconds = excluded.duration_seconds,
            width = excluded.width,
            height = excluded.height,
            created_at = excluded.created_at`,
		segmentID,
		string(stage),
		key,
		dest,
		meta.DurationSeconds,
		meta.Width,
		meta.Height,
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("record artifact: %w", err)
	}

	return s.Lookup(ctx, segmentID, stage, key)
}

// Invalidate removes every record and artifact for a segment in the given
// stages (all stages when none are named). Removal is scope-local: nothing
// downstream is touched here, stale downstream artifacts simply stop being
// referenced once their keys change.
func (s *Store) Invalidate(ctx context.Context, segmentID string, stages ...Stage) (int, error) {
	if len(stages) == 0 {
		stages = append(stages, SegmentStages...)
		stages = append(stages, StageExport)
	}

	removed := 0
	for _, stage := range stages {
		records, err := s.recordsForScope(ctx, segmentID, stage)
		if err != nil {
			return removed, err
		}
		for _, record := range records {
			if err := removeIfPresent(record.Path); err != nil {
				return removed, fmt.Errorf("remove artifact: %w", err)
			}
			if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_records WHERE id = ?`, record.ID); err != nil {
				return removed, fmt.Errorf("delete record: %w", err)
			}
			removed++
		}
		// Drop the now-empty scope directories too. Failure to prune is
		// cosmetic, the index is already consistent.
		_ = os.Remove(scopeDir(s.root, segmentID, stage))
	}

	if removed > 0 {
		s.logger.Info("cache entries invalidated",
			logging.String(logging.FieldSegmentID, segmentID),
			logging.Int("removed", removed),
		)
	}
	return removed, nil
}

// recordsForScope returns records for a segment and stage, including nested
// scopes such as grid cells ("hero" matches "hero/cell-0").
func (s *Store) recordsForScope(ctx context.Context, segmentID string, stage Stage) ([]*Record, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+recordColumns+` FROM cache_records
         WHERE (segment_id = ? OR segment_id LIKE ?) AND stage = ?
         ORDER BY id`,
		segmentID,
		segmentID+"/%",
		string(stage),
	)
	if err != nil {
		return nil, fmt.Errorf("query scope records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Clear removes all cached artifacts and truncates the index.
// ClearStage removes every artifact and record for one stage across all
// scopes. Export clips between segments live under the export stage and
// clear with it.
func (s *Store) ClearStage(ctx context.Context, stage Stage) (int, error) {
	var removed int
	if err := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM cache_records WHERE stage = ?`,
		string(stage),
	).Scan(&removed); err != nil {
		return 0, fmt.Errorf("count stage records: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_records WHERE stage = ?`, string(stage)); err != nil {
		return 0, fmt.Errorf("delete stage records: %w", err)
	}
	if err := os.RemoveAll(filepath.Join(s.root, string(stage))); err != nil {
		return removed, fmt.Errorf("remove stage dir: %w", err)
	}
	if removed > 0 {
		s.logger.Info("cache stage cleared",
			logging.String(logging.FieldStage, string(stage)),
			logging.Int("removed", removed),
		)
	}
	return removed, nil
}

func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_records`); err != nil {
		return fmt.Errorf("truncate index: %w", err)
	}
	stages := append([]Stage{}, SegmentStages...)
	stages = append(stages, StageExport)
	for _, stage := range stages {
		if err := os.RemoveAll(filepath.Join(s.root, string(stage))); err != nil {
			return fmt.Errorf("remove stage dir: %w", err)
		}
	}
	if err := os.RemoveAll(filepath.Join(s.root, "tmp")); err != nil {
		return fmt.Errorf("remove tmp dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(s.root, "tmp"), 0o755); err != nil {
		return fmt.Errorf("recreate tmp dir: %w", err)
	}
	s.logger.Info("cache cleared")
	return nil
}

// StageState classifies a tuple for status reporting: hit when the current
// key is cached, stale when only older keys are, absent otherwise.
func (s *Store) StageState(ctx context.Context, segmentID string, stage Stage, key string) (State, error) {
	record, err := s.Lookup(ctx, segmentID, stage, key)
	if err != nil {
		return StateAbsent, err
	}
	if record != nil {
		return StateHit, nil
	}

	var count int
	err = s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM cache_records WHERE segment_id = ? AND stage = ?`,
		segmentID,
		string(stage),
	).Scan(&count)
	if err != nil {
		return StateAbsent, fmt.Errorf("count scope records: %w", err)
	}
	if count > 0 {
		return StateStale, nil
	}
	return StateAbsent, nil
}

// StageStats summarizes one stage's cache usage.
type StageStats struct {
	Stage     Stage
	Artifacts int
	Bytes     int64
}

// Stats reports per-stage artifact counts and on-disk sizes. Artifacts whose
// files vanished out-of-band count toward Artifacts but not Bytes.
func (s *Store) Stats(ctx context.Context) ([]StageStats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT stage, artifact_path FROM cache_records ORDER BY stage`)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	byStage := make(map[Stage]*StageStats)
	for rows.Next() {
		var stageName, path string
		if err := rows.Scan(&stageName, &path); err != nil {
			return nil, fmt.Errorf("scan stats row: %w", err)
		}
		stage := Stage(stageName)
		stats := byStage[stage]
		if stats == nil {
			stats = &StageStats{Stage: stage}
			byStage[stage] = stats
		}
		stats.Artifacts++
		if info, statErr := os.Stat(path); statErr == nil {
			stats.Bytes += info.Size()
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ordered := append([]Stage{}, SegmentStages...)
	ordered = append(ordered, StageExport)
	var out []StageStats
	for _, stage := range ordered {
		if stats, ok := byStage[stage]; ok {
			out = append(out, *stats)
		}
	}
	return out, nil
}

func removeIfPresent(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
