package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/raysh454/linkscout/internal/model"
	"github.com/raysh454/linkscout/internal/store"
	"github.com/raysh454/linkscout/internal/testutil"
)

func newManager(t *testing.T) (*Manager, store.Store) {
	t.Helper()
	st := store.NewMemory()
	return NewManager(st, &testutil.DummyLogger{}), st
}

func TestCreateSessionStartsRunning(t *testing.T) {
	t.Parallel()
	m, _ := newManager(t)
	ctx := context.Background()

	id, err := m.CreateSession(ctx, model.ScanConfiguration{Keyword: "ai tools", SearchDepth: 5})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if !strings.HasPrefix(id, "scan_") {
		t.Fatalf("id = %q, want scan_ prefix", id)
	}

	res, err := m.GetResults(ctx, id)
	if err != nil {
		t.Fatalf("GetResults: %v", err)
	}
	if res.Status != model.StatusRunning {
		t.Fatalf("status = %s, want running", res.Status)
	}
	if len(res.Results) > 5 {
		t.Fatalf("results = %d, want <= 5", len(res.Results))
	}
	if res.CompletedAt != nil {
		t.Fatalf("running session should have no completion time")
	}
}

func TestCreateSessionValidates(t *testing.T) {
	t.Parallel()
	m, st := newManager(t)

	_, err := m.CreateSession(context.Background(), model.ScanConfiguration{Keyword: "  ", SearchDepth: 5})
	var ice *model.InvalidConfigError
	if !errors.As(err, &ice) || ice.Field != "keyword" {
		t.Fatalf("err = %v, want InvalidConfigError on keyword", err)
	}
	if _, err := m.CreateSession(context.Background(), model.ScanConfiguration{Keyword: "k"}); !errors.Is(err, model.ErrInvalidConfig) {
		t.Fatalf("zero search depth: err = %v", err)
	}
	if mem, ok := st.(*store.Memory); ok {
		if n := mem.SessionCount(); n != 0 {
			t.Fatalf("invalid configs must not be persisted, found %d sessions", n)
		}
	}
}

func TestSessionStoresNormalizedSnapshot(t *testing.T) {
	t.Parallel()
	m, _ := newManager(t)
	cfg := model.ScanConfiguration{
		Keyword:           "  AI Tools ",
		SearchDepth:       3,
		CompetitorDomains: []string{"Rival.com", "rival.com"},
	}
	id, err := m.CreateSession(context.Background(), cfg)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	cfg.CompetitorDomains[0] = "mutated.com"

	s, err := m.Session(context.Background(), id)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if s.Config.Keyword != "AI Tools" || len(s.Config.CompetitorDomains) != 1 || s.Config.CompetitorDomains[0] != "rival.com" {
		t.Fatalf("stored config = %+v", s.Config)
	}
	if s.Config.AnalysisDepth != model.DepthBasic {
		t.Fatalf("analysis depth = %q, want basic", s.Config.AnalysisDepth)
	}
}

func TestMarkCompletedTwiceIsRejected(t *testing.T) {
	t.Parallel()
	m, _ := newManager(t)
	ctx := context.Background()
	id, _ := m.CreateSession(ctx, model.ScanConfiguration{Keyword: "k", SearchDepth: 1})

	if err := m.MarkCompleted(ctx, id); err != nil {
		t.Fatalf("first MarkCompleted: %v", err)
	}
	err := m.MarkCompleted(ctx, id)
	var iste *model.InvalidStateTransitionError
	if !errors.As(err, &iste) {
		t.Fatalf("second MarkCompleted err = %v, want InvalidStateTransitionError", err)
	}
	if iste.From != model.StatusCompleted {
		t.Fatalf("from = %s, want completed", iste.From)
	}
}

func TestTerminalStatesAreFinal(t *testing.T) {
	t.Parallel()
	m, _ := newManager(t)
	ctx := context.Background()
	id, _ := m.CreateSession(ctx, model.ScanConfiguration{Keyword: "k", SearchDepth: 1})

	if err := m.MarkFailed(ctx, id, "search provider down"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	if err := m.MarkCompleted(ctx, id); !errors.Is(err, model.ErrInvalidStateTransition) {
		t.Fatalf("completed after failed: err = %v", err)
	}
	if err := m.MarkFailed(ctx, id, "again"); !errors.Is(err, model.ErrInvalidStateTransition) {
		t.Fatalf("failed after failed: err = %v", err)
	}

	res, _ := m.GetResults(ctx, id)
	if res.Status != model.StatusFailed || res.FailureReason != "search provider down" || res.CompletedAt == nil {
		t.Fatalf("results = %+v", res)
	}
}

func TestConcurrentTransitionsHaveOneWinner(t *testing.T) {
	t.Parallel()
	m, _ := newManager(t)
	ctx := context.Background()
	id, _ := m.CreateSession(ctx, model.ScanConfiguration{Keyword: "k", SearchDepth: 1})

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				err = m.MarkCompleted(ctx, id)
			} else {
				err = m.MarkFailed(ctx, id, "race")
			}
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("wins = %d, want exactly 1", wins)
	}
}

func TestUnknownSession(t *testing.T) {
	t.Parallel()
	m, _ := newManager(t)
	ctx := context.Background()

	if _, err := m.GetResults(ctx, "scan_missing"); !errors.Is(err, model.ErrSessionNotFound) {
		t.Fatalf("GetResults err = %v", err)
	}
	if err := m.MarkCompleted(ctx, "scan_missing"); !errors.Is(err, model.ErrSessionNotFound) {
		t.Fatalf("MarkCompleted err = %v", err)
	}
	if err := m.MarkFailed(ctx, "scan_missing", "x"); !errors.Is(err, model.ErrSessionNotFound) {
		t.Fatalf("MarkFailed err = %v", err)
	}
}
