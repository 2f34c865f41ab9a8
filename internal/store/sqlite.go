package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/raysh454/linkscout/internal/logging"
	"github.com/raysh454/linkscout/internal/model"
	"github.com/raysh454/linkscout/internal/utils"
	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed schema.sql
var schemaFS embed.FS

// SQLite implements Store on a single SQLite database file.
type SQLite struct {
	db     *sql.DB
	logger logging.Logger
}

// NewSQLite opens (creating if needed) the database at path and applies the
// schema.
func NewSQLite(path string, logger logging.Logger) (*SQLite, error) {
	if logger == nil {
		return nil, errors.New("store: nil logger provided")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; callers queue on the pool instead of racing for
	// the database lock.
	db.SetMaxOpenConns(1)

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	logger.Info("SQLite store initialized", logging.Field{Key: "path", Value: path})
	return &SQLite{db: db, logger: logger}, nil
}

func applySchema(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// DB exposes the underlying handle (owned by the store).
func (s *SQLite) DB() *sql.DB { return s.db }

func (s *SQLite) InsertSession(ctx context.Context, sess *model.ScanSession) error {
	cfg, err := json.Marshal(sess.Config.Normalized())
	if err != nil {
		return persistErr("insert session", err)
	}
	var completed sql.NullInt64
	if sess.CompletedAt != nil {
		completed = sql.NullInt64{Int64: sess.CompletedAt.UnixNano(), Valid: true}
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, config_json, status, failure_reason, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sess.SessionID, string(cfg), string(sess.Status), sess.FailureReason, sess.StartedAt.UnixNano(), completed)
	if err != nil {
		return persistErr("insert session", err)
	}
	return nil
}

func (s *SQLite) GetSession(ctx context.Context, id string) (*model.ScanSession, error) {
	return s.getSession(ctx, s.db, id)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLite) getSession(ctx context.Context, q queryRower, id string) (*model.ScanSession, error) {
	var (
		sess      model.ScanSession
		cfgJSON   string
		status    string
		startedAt int64
		completed sql.NullInt64
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, config_json, status, failure_reason, started_at, completed_at
		FROM sessions WHERE id = ?
	`, id).Scan(&sess.SessionID, &cfgJSON, &status, &sess.FailureReason, &startedAt, &completed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &model.SessionNotFoundError{SessionID: id}
	}
	if err != nil {
		return nil, persistErr("get session", err)
	}
	if err := json.Unmarshal([]byte(cfgJSON), &sess.Config); err != nil {
		return nil, persistErr("decode session config", err)
	}
	sess.Status = model.SessionStatus(status)
	sess.StartedAt = time.Unix(0, startedAt).UTC()
	if completed.Valid {
		t := time.Unix(0, completed.Int64).UTC()
		sess.CompletedAt = &t
	}
	return &sess, nil
}

// TransitionSession is a compare-and-set on status='running'. When no row
// changes, the current row is read back to tell "missing" from "terminal".
func (s *SQLite) TransitionSession(ctx context.Context, id string, to model.SessionStatus, reason string, at time.Time) (*model.ScanSession, error) {
	if !to.Terminal() {
		cur, err := s.GetSession(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, &model.InvalidStateTransitionError{SessionID: id, From: cur.Status, To: to}
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET status = ?, failure_reason = ?, completed_at = ?
		WHERE id = ? AND status = 'running'
	`, string(to), reason, at.UnixNano(), id)
	if err != nil {
		return nil, persistErr("transition session", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, persistErr("transition session", err)
	}

	cur, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, &model.InvalidStateTransitionError{SessionID: id, From: cur.Status, To: to}
	}
	return cur, nil
}

func (s *SQLite) InsertSERPResult(ctx context.Context, r *model.SERPResult) (bool, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return false, persistErr("insert serp result", err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO serp_results (id, session_id, keyword, position, domain, result_json, discovered_at)
		SELECT ?, ?, ?, ?, ?, ?, ?
		WHERE EXISTS (SELECT 1 FROM sessions WHERE id = ?)
	`, r.ID, r.SessionID, r.Keyword, r.Position, r.Domain, string(payload), r.DiscoveredAt.UnixNano(), r.SessionID)
	if err != nil {
		return false, persistErr("insert serp result", err)
	}
	return s.insertedOrMissing(ctx, res, r.SessionID, "insert serp result")
}

func (s *SQLite) insertedOrMissing(ctx context.Context, res sql.Result, sessionID, op string) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, persistErr(op, err)
	}
	if n > 0 {
		return true, nil
	}
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return false, err
	}
	return false, nil
}

func (s *SQLite) ListSERPResults(ctx context.Context, sessionID string) ([]model.SERPResult, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT result_json FROM serp_results
		WHERE session_id = ?
		ORDER BY position ASC, keyword ASC
	`, sessionID)
	if err != nil {
		return nil, persistErr("list serp results", err)
	}
	defer rows.Close()

	out := make([]model.SERPResult, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, persistErr("scan serp result", err)
		}
		var r model.SERPResult
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, persistErr("decode serp result", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("iterate serp results", err)
	}
	return out, nil
}

func (s *SQLite) InsertOpportunity(ctx context.Context, sessionID string, o *model.LinkOpportunity) (bool, error) {
	payload, err := json.Marshal(o)
	if err != nil {
		return false, persistErr("insert opportunity", err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO opportunities (id, session_id, domain_key, opportunity_json)
		SELECT ?, ?, ?, ?
		WHERE EXISTS (SELECT 1 FROM sessions WHERE id = ?)
	`, o.ID, sessionID, utils.DomainKey(o.Domain), string(payload), sessionID)
	if err != nil {
		return false, persistErr("insert opportunity", err)
	}
	return s.insertedOrMissing(ctx, res, sessionID, "insert opportunity")
}

func (s *SQLite) ListOpportunities(ctx context.Context, sessionID string) ([]model.LinkOpportunity, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT opportunity_json FROM opportunities
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, persistErr("list opportunities", err)
	}
	defer rows.Close()

	out := make([]model.LinkOpportunity, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, persistErr("scan opportunity", err)
		}
		var o model.LinkOpportunity
		if err := json.Unmarshal([]byte(raw), &o); err != nil {
			return nil, persistErr("decode opportunity", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("iterate opportunities", err)
	}
	return out, nil
}

func (s *SQLite) InsertCompetitorAnalysis(ctx context.Context, a *model.CompetitorAnalysis) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return persistErr("insert competitor analysis", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO competitor_analyses (id, domain_key, analysis_json, analysis_date)
		VALUES (?, ?, ?, ?)
	`, a.ID, utils.DomainKey(a.CompetitorDomain), string(payload), a.AnalysisDate.UnixNano())
	if err != nil {
		return persistErr("insert competitor analysis", err)
	}
	return nil
}

func (s *SQLite) ListCompetitorAnalyses(ctx context.Context, domain string, limit int) ([]model.CompetitorAnalysis, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT analysis_json FROM competitor_analyses
		WHERE domain_key = ?
		ORDER BY analysis_date DESC, seq DESC
		LIMIT ?
	`, utils.DomainKey(domain), limit)
	if err != nil {
		return nil, persistErr("list competitor analyses", err)
	}
	defer rows.Close()

	out := make([]model.CompetitorAnalysis, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, persistErr("scan competitor analysis", err)
		}
		var a model.CompetitorAnalysis
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			return nil, persistErr("decode competitor analysis", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("iterate competitor analyses", err)
	}
	return out, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
