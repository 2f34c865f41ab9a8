// Package session manages the lifecycle of scan sessions: creation,
// completion or failure, and reading back their results.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/linkscout/internal/logging"
	"github.com/raysh454/linkscout/internal/model"
	"github.com/raysh454/linkscout/internal/store"
)

// Results is a session's state together with its SERP results, ordered by
// position.
type Results struct {
	SessionID     string              `json:"session_id"`
	Status        model.SessionStatus `json:"status"`
	FailureReason string              `json:"failure_reason,omitempty"`
	StartedAt     time.Time           `json:"started_at"`
	CompletedAt   *time.Time          `json:"completed_at,omitempty"`
	Results       []model.SERPResult  `json:"results"`
}

// Manager creates sessions and moves them to a terminal state.
type Manager struct {
	store  store.Store
	logger logging.Logger
	now    func() time.Time
}

func NewManager(st store.Store, logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Manager{
		store:  st,
		logger: logger.With(logging.Field{Key: "component", Value: "session"}),
		now:    time.Now,
	}
}

// CreateSession validates cfg and stores a running session holding its
// normalized snapshot. Analysis is not started.
func (m *Manager) CreateSession(ctx context.Context, cfg model.ScanConfiguration) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	s := &model.ScanSession{
		SessionID: "scan_" + uuid.NewString(),
		Config:    cfg.Normalized(),
		Status:    model.StatusRunning,
		StartedAt: m.now().UTC(),
	}
	if err := m.store.InsertSession(ctx, s); err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}
	m.logger.Info("session created",
		logging.Field{Key: "session_id", Value: s.SessionID},
		logging.Field{Key: "keyword", Value: s.Config.Keyword})
	return s.SessionID, nil
}

func (m *Manager) Session(ctx context.Context, id string) (*model.ScanSession, error) {
	return m.store.GetSession(ctx, id)
}

// GetResults is safe to call while the session is still running; it returns
// whatever has been written so far.
func (m *Manager) GetResults(ctx context.Context, id string) (*Results, error) {
	s, err := m.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	rs, err := m.store.ListSERPResults(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Results{
		SessionID:     s.SessionID,
		Status:        s.Status,
		FailureReason: s.FailureReason,
		StartedAt:     s.StartedAt,
		CompletedAt:   s.CompletedAt,
		Results:       rs,
	}, nil
}

func (m *Manager) MarkCompleted(ctx context.Context, id string) error {
	return m.transition(ctx, id, model.StatusCompleted, "")
}

func (m *Manager) MarkFailed(ctx context.Context, id, reason string) error {
	return m.transition(ctx, id, model.StatusFailed, reason)
}

func (m *Manager) transition(ctx context.Context, id string, to model.SessionStatus, reason string) error {
	s, err := m.store.TransitionSession(ctx, id, to, reason, m.now().UTC())
	if err != nil {
		return err
	}
	m.logger.Info("session finished",
		logging.Field{Key: "session_id", Value: id},
		logging.Field{Key: "status", Value: string(s.Status)},
		logging.Field{Key: "reason", Value: reason})
	return nil
}
