// Package store persists analyzed presentations in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/gulaysahinn/pitchmate-pro/pkg/session"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no presentation has the requested id.
var ErrNotFound = errors.New("store: presentation not found")

// Presentation is one stored analysis.
type Presentation struct {
	ID                string          `json:"id"`
	SessionID         string          `json:"session_id"`
	ProjectID         string          `json:"project_id,omitempty"`
	VideoPath         string          `json:"video_url"`
	OverallScore      float64         `json:"overall_score"`
	WPM               int             `json:"wpm"`
	FillerCount       int             `json:"filler_count"`
	FillerBreakdown   string          `json:"filler_breakdown"` // "eee (3), hmm (2)"
	MonotonyScore     float64         `json:"monotony_score"`
	EyeContactScore   float64         `json:"eye_contact_score"`
	BodyLanguageScore float64         `json:"body_language_score"`
	Feedback          string          `json:"ai_feedback"`
	Report            json.RawMessage `json:"report,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// FromReport builds a presentation record from a finished report.
func FromReport(r *session.Report, feedback string) (Presentation, error) {
	raw, err := json.Marshal(r.Map())
	if err != nil {
		return Presentation{}, fmt.Errorf("encode report: %w", err)
	}

	sd := r.SpeechData
	return Presentation{
		ID:                uuid.NewString(),
		SessionID:         r.SessionID,
		VideoPath:         r.VideoPath,
		OverallScore:      r.OverallScore,
		WPM:               sd.SpeakingRate.WordsPerMinute,
		FillerCount:       sd.FillerWords.Count,
		FillerBreakdown:   sd.FillerWords.Summary(),
		MonotonyScore:     sd.AudioFeatures.MonotonyScore,
		EyeContactScore:   r.EyeScore,
		BodyLanguageScore: r.BodyScore,
		Feedback:          feedback,
		Report:            raw,
		CreatedAt:         time.Now(),
	}, nil
}

// Stats summarizes every stored presentation.
type Stats struct {
	Count             int     `json:"count"`
	AverageOverall    float64 `json:"average_overall_score"`
	AverageEyeContact float64 `json:"average_eye_contact_score"`
	AverageBody       float64 `json:"average_body_language_score"`
	AverageWPM        float64 `json:"average_wpm"`
	BestOverall       float64 `json:"best_overall_score"`
	TotalFillers      int     `json:"total_filler_count"`
}

const schema = `
	CREATE TABLE IF NOT EXISTS presentations (
		id TEXT PRIMARY KEY,
		sessionId TEXT NOT NULL,
		projectId TEXT NOT NULL DEFAULT '',
		videoUrl TEXT NOT NULL,
		overallScore REAL NOT NULL,
		wpm INTEGER NOT NULL,
		fillerCount INTEGER NOT NULL,
		fillerBreakdown TEXT NOT NULL DEFAULT '',
		monotonyScore REAL NOT NULL DEFAULT 0,
		eyeContactScore REAL NOT NULL,
		bodyLanguageScore REAL NOT NULL DEFAULT 0,
		feedback TEXT NOT NULL DEFAULT '',
		report TEXT,
		createdAt REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_presentations_created ON presentations(createdAt);

	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		createdAt REAL NOT NULL
	);
`

// Store is a SQLite-backed presentation repository. Safe for concurrent use.
type Store struct {
	db *sql.DB
}

// DefaultDBPath returns the default database path.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "pitchmate.sqlite"
	}
	return filepath.Join(home, ".pitchmate", "pitchmate.sqlite")
}

// Open opens (creating if needed) the database at path.
// ":memory:" gives a private in-memory database.
func Open(path string) (*Store, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection: in-memory databases are per connection, and SQLite
	// serializes writers anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// migrate brings databases created before projects existed up to date.
func migrate(db *sql.DB) error {
	rows, err := db.Query(`SELECT name FROM pragma_table_info('presentations')`)
	if err != nil {
		return fmt.Errorf("read presentations columns: %w", err)
	}
	hasProject := false
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return fmt.Errorf("read presentations columns: %w", err)
		}
		hasProject = hasProject || name == "projectId"
	}
	rows.Close()

	if !hasProject {
		if _, err := db.Exec(`ALTER TABLE presentations ADD COLUMN projectId TEXT NOT NULL DEFAULT ''`); err != nil {
			return fmt.Errorf("add projectId column: %w", err)
		}
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_presentations_project ON presentations(projectId)`)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts p. An empty ID is replaced by a new one. A non-empty
// ProjectID must name an existing project.
func (s *Store) Save(ctx context.Context, p *Presentation) error {
	if p.ProjectID != "" {
		if _, err := s.GetProject(ctx, p.ProjectID); err != nil {
			return err
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	var report any
	if len(p.Report) > 0 {
		report = string(p.Report)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO presentations (
			id, sessionId, projectId, videoUrl, overallScore, wpm, fillerCount, fillerBreakdown,
			monotonyScore, eyeContactScore, bodyLanguageScore, feedback, report, createdAt
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.SessionID, p.ProjectID, p.VideoPath, p.OverallScore, p.WPM, p.FillerCount, p.FillerBreakdown,
		p.MonotonyScore, p.EyeContactScore, p.BodyLanguageScore, p.Feedback, report, unixFromTime(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert presentation: %w", err)
	}
	return nil
}

const selectColumns = `
	SELECT id, sessionId, projectId, videoUrl, overallScore, wpm, fillerCount, fillerBreakdown,
		monotonyScore, eyeContactScore, bodyLanguageScore, feedback, report, createdAt
	FROM presentations
`

// Get returns the presentation with id, including the full report.
func (s *Store) Get(ctx context.Context, id string) (*Presentation, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)

	p, err := scanPresentation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// List returns up to limit presentations, newest first. The full report is
// omitted; limit <= 0 returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]Presentation, error) {
	return s.list(ctx, selectColumns+` ORDER BY createdAt DESC LIMIT ?`, limitArg(limit))
}

// ListByProject is List restricted to one project.
func (s *Store) ListByProject(ctx context.Context, projectID string, limit int) ([]Presentation, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.list(ctx, selectColumns+` WHERE projectId = ? ORDER BY createdAt DESC LIMIT ?`,
		projectID, limitArg(limit))
}

func limitArg(limit int) int {
	if limit <= 0 {
		return -1 // SQLite: no limit
	}
	return limit
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]Presentation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query presentations: %w", err)
	}
	defer rows.Close()

	presentations := []Presentation{}
	for rows.Next() {
		p, err := scanPresentation(rows)
		if err != nil {
			return nil, err
		}
		p.Report = nil
		presentations = append(presentations, *p)
	}
	return presentations, rows.Err()
}

// Delete removes the presentation with id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM presentations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete presentation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Stats aggregates every stored presentation.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(AVG(overallScore), 0),
			COALESCE(AVG(eyeContactScore), 0),
			COALESCE(AVG(bodyLanguageScore), 0),
			COALESCE(AVG(wpm), 0),
			COALESCE(MAX(overallScore), 0),
			COALESCE(SUM(fillerCount), 0)
		FROM presentations
	`)

	var st Stats
	if err := row.Scan(&st.Count, &st.AverageOverall, &st.AverageEyeContact, &st.AverageBody,
		&st.AverageWPM, &st.BestOverall, &st.TotalFillers); err != nil {
		return Stats{}, fmt.Errorf("scan stats: %w", err)
	}

	st.AverageOverall = round1(st.AverageOverall)
	st.AverageEyeContact = round1(st.AverageEyeContact)
	st.AverageBody = round1(st.AverageBody)
	st.AverageWPM = round1(st.AverageWPM)
	return st, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPresentation(row scanner) (*Presentation, error) {
	var p Presentation
	var report sql.NullString
	var createdAt float64

	if err := row.Scan(&p.ID, &p.SessionID, &p.ProjectID, &p.VideoPath, &p.OverallScore, &p.WPM, &p.FillerCount,
		&p.FillerBreakdown, &p.MonotonyScore, &p.EyeContactScore, &p.BodyLanguageScore,
		&p.Feedback, &report, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan presentation: %w", err)
	}

	if report.Valid {
		p.Report = json.RawMessage(report.String)
	}
	p.CreatedAt = timeFromUnix(createdAt)
	return &p, nil
}

func unixFromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
