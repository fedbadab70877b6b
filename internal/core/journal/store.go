package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/charleschow/topnum/internal/core/probability"
	"github.com/charleschow/topnum/internal/telemetry"

	_ "modernc.org/sqlite"
)

const (
	defaultMaxBytes int64   = 256 << 20 // 256 MiB
	evictPct        float64 = 0.10      // evict oldest 10% of rows
	vacuumInterval          = 10        // incremental vacuum every N evictions
)

// Entry is one evaluated projection.
type Entry struct {
	ID         string
	RecordedAt time.Time
	Player     string
	Team       string
	GameID     string

	Observation probability.Observation
	Thresholds  probability.Thresholds
	Projection  probability.Projection
}

// Store persists Entries in a FIFO SQLite database. When the live data grows
// past its byte budget the oldest 10% of rows are evicted.
type Store struct {
	db           *sql.DB
	mu           sync.Mutex
	maxBytes     int64
	cachedSize   int64
	rowCount     int64
	evictCounter int
}

func OpenStore(path string) (*Store, error) {
	return OpenStoreWithLimit(path, defaultMaxBytes)
}

func OpenStoreWithLimit(path string, maxBytes int64) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)

	var avMode int
	if err := db.QueryRow(`PRAGMA auto_vacuum`).Scan(&avMode); err != nil {
		db.Close()
		return nil, fmt.Errorf("read auto_vacuum: %w", err)
	}
	if avMode != 2 {
		if _, err := db.Exec(`PRAGMA auto_vacuum = INCREMENTAL`); err != nil {
			db.Close()
			return nil, fmt.Errorf("set auto_vacuum: %w", err)
		}
		if _, err := db.Exec(`VACUUM`); err != nil {
			telemetry.Warnf("journal: VACUUM to enable auto_vacuum failed: %v", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init journal schema: %w", err)
	}

	s := &Store{db: db, maxBytes: maxBytes}
	s.refreshSize()
	db.QueryRow(`SELECT COUNT(*) FROM projections`).Scan(&s.rowCount)

	telemetry.Debugf("journal: opened %s  size=%d  rows=%d", path, s.cachedSize, s.rowCount)
	return s, nil
}

const schema = `CREATE TABLE IF NOT EXISTS projections (
	seq               INTEGER PRIMARY KEY AUTOINCREMENT,
	id                TEXT    NOT NULL UNIQUE,
	recorded_at       TEXT    NOT NULL,
	player            TEXT    NOT NULL DEFAULT '',
	team              TEXT    NOT NULL DEFAULT '',
	game_id           TEXT    NOT NULL DEFAULT '',

	current_points    REAL    NOT NULL,
	minutes_played    REAL    NOT NULL,
	remaining_minutes REAL    NOT NULL,
	season_high       REAL    NOT NULL,
	all_time_high     REAL    NOT NULL,

	degenerate        INTEGER NOT NULL,
	rate_per_minute   REAL    NOT NULL,
	lambda            REAL    NOT NULL,

	season_needed     INTEGER NOT NULL,
	season_prob       REAL    NOT NULL,
	season_method     TEXT    NOT NULL,
	all_time_needed   INTEGER NOT NULL,
	all_time_prob     REAL    NOT NULL,
	all_time_method   TEXT    NOT NULL
)`

// Record inserts e, assigning an ID and timestamp when they are unset.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := e.Projection
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projections (
			id, recorded_at, player, team, game_id,
			current_points, minutes_played, remaining_minutes, season_high, all_time_high,
			degenerate, rate_per_minute, lambda,
			season_needed, season_prob, season_method,
			all_time_needed, all_time_prob, all_time_method
		) VALUES (?,?,?,?,?, ?,?,?,?,?, ?,?,?, ?,?,?, ?,?,?)`,
		e.ID, e.RecordedAt.UTC().Format(time.RFC3339Nano), e.Player, e.Team, e.GameID,
		e.Observation.CurrentPoints, e.Observation.MinutesPlayed, e.Observation.RemainingMinutes,
		e.Thresholds.SeasonHigh, e.Thresholds.AllTimeHigh,
		boolInt(p.Degenerate), p.RatePerMinute, p.Lambda,
		p.SeasonHigh.Needed, p.SeasonHigh.Probability, p.SeasonHigh.Method.String(),
		p.AllTime.Needed, p.AllTime.Probability, p.AllTime.Method.String(),
	)
	if err != nil {
		return fmt.Errorf("insert projection: %w", err)
	}

	s.rowCount++
	s.refreshSize()
	if s.cachedSize > s.maxBytes {
		s.evict(ctx)
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, recorded_at, player, team, game_id,
			current_points, minutes_played, remaining_minutes, season_high, all_time_high,
			degenerate, rate_per_minute, lambda,
			season_needed, season_prob, season_method,
			all_time_needed, all_time_prob, all_time_method
		 FROM projections ORDER BY seq DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query projections: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e                           Entry
			recordedAt                  string
			degenerate                  int
			seasonMethod, allTimeMethod string
		)
		if err := rows.Scan(
			&e.ID, &recordedAt, &e.Player, &e.Team, &e.GameID,
			&e.Observation.CurrentPoints, &e.Observation.MinutesPlayed, &e.Observation.RemainingMinutes,
			&e.Thresholds.SeasonHigh, &e.Thresholds.AllTimeHigh,
			&degenerate, &e.Projection.RatePerMinute, &e.Projection.Lambda,
			&e.Projection.SeasonHigh.Needed, &e.Projection.SeasonHigh.Probability, &seasonMethod,
			&e.Projection.AllTime.Needed, &e.Projection.AllTime.Probability, &allTimeMethod,
		); err != nil {
			return nil, fmt.Errorf("scan projection: %w", err)
		}
		e.RecordedAt, _ = time.Parse(time.RFC3339Nano, recordedAt)
		e.Projection.Degenerate = degenerate != 0
		e.Projection.SeasonHigh.Method = probability.ParseTailMethod(seasonMethod)
		e.Projection.AllTime.Method = probability.ParseTailMethod(allTimeMethod)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projections`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count projections: %w", err)
	}
	return n, nil
}

// refreshSize re-reads the live database size from SQLite pragmas. Pages on
// the freelist are excluded; they are reused before the file grows.
// Must be called with s.mu held.
func (s *Store) refreshSize() {
	var size int64
	row := s.db.QueryRow(`SELECT COALESCE((page_count - freelist_count) * page_size, 0)
		FROM pragma_page_count(), pragma_freelist_count(), pragma_page_size()`)
	if err := row.Scan(&size); err == nil {
		s.cachedSize = size
	}
}

// evict deletes the oldest 10% of rows by count.
// Must be called with s.mu held.
func (s *Store) evict(ctx context.Context) {
	toDelete := int64(float64(s.rowCount) * evictPct)
	if toDelete < 1 {
		toDelete = 1
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM projections WHERE seq IN (
			SELECT seq FROM projections ORDER BY seq ASC LIMIT ?
		)`, toDelete,
	)
	if err != nil {
		telemetry.Warnf("journal evict: %v", err)
		return
	}

	deleted, _ := res.RowsAffected()
	s.rowCount -= deleted
	s.evictCounter++

	telemetry.Infof("journal: evicted %d rows (target %d)", deleted, toDelete)

	if s.evictCounter%vacuumInterval == 0 {
		s.db.ExecContext(ctx, `PRAGMA incremental_vacuum`)
	}

	s.refreshSize()
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
