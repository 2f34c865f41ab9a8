// Package store persists scan sessions and everything the finders produce.
// All records are append-only and keyed by session id (competitor analyses
// by domain); every insert is atomic per record so concurrent analyzers can
// write under one session without lost updates.
package store

import (
	"context"
	"time"

	"github.com/raysh454/linkscout/internal/model"
)

// Store is the persistence contract. Implementations must be safe for
// concurrent use. Unknown sessions yield *model.SessionNotFoundError; I/O
// failures yield *model.PersistenceError.
type Store interface {
	// InsertSession stores a new session. The id must not already exist.
	InsertSession(ctx context.Context, s *model.ScanSession) error

	// GetSession returns the session with its current status.
	GetSession(ctx context.Context, id string) (*model.ScanSession, error)

	// TransitionSession atomically moves a running session to a terminal
	// status. Any other source state yields *model.InvalidStateTransitionError.
	TransitionSession(ctx context.Context, id string, to model.SessionStatus, reason string, at time.Time) (*model.ScanSession, error)

	// InsertSERPResult appends a result. It returns false, without error, when
	// the (session, keyword, position) slot is already taken.
	InsertSERPResult(ctx context.Context, r *model.SERPResult) (bool, error)

	// ListSERPResults returns a session's results ordered by position.
	ListSERPResults(ctx context.Context, sessionID string) ([]model.SERPResult, error)

	// InsertOpportunity appends an opportunity under a session. It returns
	// false when the session already holds one for the same domain.
	InsertOpportunity(ctx context.Context, sessionID string, o *model.LinkOpportunity) (bool, error)

	// ListOpportunities returns a session's opportunities in insertion order.
	ListOpportunities(ctx context.Context, sessionID string) ([]model.LinkOpportunity, error)

	// InsertCompetitorAnalysis appends one analysis to the domain's history.
	InsertCompetitorAnalysis(ctx context.Context, a *model.CompetitorAnalysis) error

	// ListCompetitorAnalyses returns a domain's history newest first. A
	// non-positive limit returns everything.
	ListCompetitorAnalyses(ctx context.Context, domain string, limit int) ([]model.CompetitorAnalysis, error)

	Close() error
}

func persistErr(op string, err error) error {
	return &model.PersistenceError{Op: op, Err: err}
}

func serpSlot(keyword string, position int) string {
	return keyword + "|" + itoa(position)
}
