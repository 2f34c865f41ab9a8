package store

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/raysh454/linkscout/internal/model"
	"github.com/raysh454/linkscout/internal/utils"
)

// Memory is an in-process Store guarded by a single mutex.
type Memory struct {
	mu        sync.RWMutex
	closed    bool
	sessions  map[string]*model.ScanSession
	serp      map[string]map[string]model.SERPResult
	opps      map[string][]model.LinkOpportunity
	oppDomain map[string]map[string]struct{}
	analyses  map[string][]model.CompetitorAnalysis
}

func NewMemory() *Memory {
	return &Memory{
		sessions:  make(map[string]*model.ScanSession),
		serp:      make(map[string]map[string]model.SERPResult),
		opps:      make(map[string][]model.LinkOpportunity),
		oppDomain: make(map[string]map[string]struct{}),
		analyses:  make(map[string][]model.CompetitorAnalysis),
	}
}

var errClosed = errors.New("store closed")

func (m *Memory) InsertSession(ctx context.Context, s *model.ScanSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return persistErr("insert session", errClosed)
	}
	if _, ok := m.sessions[s.SessionID]; ok {
		return persistErr("insert session", errors.New("duplicate session id "+s.SessionID))
	}
	cp := *s
	cp.Config = s.Config.Normalized()
	m.sessions[s.SessionID] = &cp
	return nil
}

func (m *Memory) GetSession(ctx context.Context, id string) (*model.ScanSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, &model.SessionNotFoundError{SessionID: id}
	}
	cp := *s
	return &cp, nil
}

func (m *Memory) TransitionSession(ctx context.Context, id string, to model.SessionStatus, reason string, at time.Time) (*model.ScanSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, &model.SessionNotFoundError{SessionID: id}
	}
	if !model.CanTransition(s.Status, to) {
		return nil, &model.InvalidStateTransitionError{SessionID: id, From: s.Status, To: to}
	}
	s.Status = to
	s.FailureReason = reason
	done := at
	s.CompletedAt = &done
	cp := *s
	return &cp, nil
}

func (m *Memory) InsertSERPResult(ctx context.Context, r *model.SERPResult) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false, persistErr("insert serp result", errClosed)
	}
	if _, ok := m.sessions[r.SessionID]; !ok {
		return false, &model.SessionNotFoundError{SessionID: r.SessionID}
	}
	slots := m.serp[r.SessionID]
	if slots == nil {
		slots = make(map[string]model.SERPResult)
		m.serp[r.SessionID] = slots
	}
	key := serpSlot(r.Keyword, r.Position)
	if _, taken := slots[key]; taken {
		return false, nil
	}
	slots[key] = *r
	return true, nil
}

func (m *Memory) ListSERPResults(ctx context.Context, sessionID string) ([]model.SERPResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return nil, &model.SessionNotFoundError{SessionID: sessionID}
	}
	out := make([]model.SERPResult, 0, len(m.serp[sessionID]))
	for _, r := range m.serp[sessionID] {
		out = append(out, r)
	}
	sortSERP(out)
	return out, nil
}

func (m *Memory) InsertOpportunity(ctx context.Context, sessionID string, o *model.LinkOpportunity) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false, persistErr("insert opportunity", errClosed)
	}
	if _, ok := m.sessions[sessionID]; !ok {
		return false, &model.SessionNotFoundError{SessionID: sessionID}
	}
	domains := m.oppDomain[sessionID]
	if domains == nil {
		domains = make(map[string]struct{})
		m.oppDomain[sessionID] = domains
	}
	key := utils.DomainKey(o.Domain)
	if _, dup := domains[key]; dup {
		return false, nil
	}
	domains[key] = struct{}{}
	m.opps[sessionID] = append(m.opps[sessionID], *o)
	return true, nil
}

func (m *Memory) ListOpportunities(ctx context.Context, sessionID string) ([]model.LinkOpportunity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return nil, &model.SessionNotFoundError{SessionID: sessionID}
	}
	return append([]model.LinkOpportunity{}, m.opps[sessionID]...), nil
}

func (m *Memory) InsertCompetitorAnalysis(ctx context.Context, a *model.CompetitorAnalysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return persistErr("insert competitor analysis", errClosed)
	}
	key := utils.DomainKey(a.CompetitorDomain)
	m.analyses[key] = append(m.analyses[key], *a)
	return nil
}

func (m *Memory) ListCompetitorAnalyses(ctx context.Context, domain string, limit int) ([]model.CompetitorAnalysis, error) {
	m.mu.RLock()
	history := m.analyses[utils.DomainKey(domain)]
	out := make([]model.CompetitorAnalysis, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		out = append(out, history[i])
	}
	m.mu.RUnlock()
	return newestFirst(out, limit), nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func sortSERP(rs []model.SERPResult) {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].Position != rs[j].Position {
			return rs[i].Position < rs[j].Position
		}
		return rs[i].Keyword < rs[j].Keyword
	})
}

// newestFirst orders analyses by date descending. Input must already be in
// most-recently-stored-first order so ties keep it.
func newestFirst(as []model.CompetitorAnalysis, limit int) []model.CompetitorAnalysis {
	sort.SliceStable(as, func(i, j int) bool {
		return as[i].AnalysisDate.After(as[j].AnalysisDate)
	})
	if limit > 0 && len(as) > limit {
		as = as[:limit]
	}
	return as
}

func itoa(n int) string { return strconv.Itoa(n) }
