package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/raysh454/linkscout/internal/logging"
	"github.com/raysh454/linkscout/internal/model"
	"github.com/redis/go-redis/v9"
)

type storeFactory func(t *testing.T) Store

func factories() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T) Store {
			return NewMemory()
		},
		"sqlite": func(t *testing.T) Store {
			t.Helper()
			s, err := NewSQLite(filepath.Join(t.TempDir(), "linkscout.db"), logging.Nop{})
			if err != nil {
				t.Fatalf("NewSQLite: %v", err)
			}
			return s
		},
		"redis": func(t *testing.T) Store {
			t.Helper()
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			return NewRedisFromClient(client, "test:", logging.Nop{})
		},
	}
}

// forEachStore runs fn against every Store implementation.
func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	for name, factory := range factories() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			t.Cleanup(func() { s.Close() })
			fn(t, s)
		})
	}
}

var started = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newSession(t *testing.T, s Store, id string) *model.ScanSession {
	t.Helper()
	sess := &model.ScanSession{
		SessionID: id,
		Config:    model.ScanConfiguration{Keyword: "ai tools", SearchDepth: 5, AnalysisDepth: model.DepthBasic},
		Status:    model.StatusRunning,
		StartedAt: started,
	}
	if err := s.InsertSession(context.Background(), sess); err != nil {
		t.Fatalf("InsertSession: %v", err)
	}
	return sess
}

func TestStore_SessionRoundTrip(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		want := newSession(t, s, "scan_roundtrip")

		got, err := s.GetSession(ctx, "scan_roundtrip")
		if err != nil {
			t.Fatalf("GetSession: %v", err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("session mismatch (-want +got):\n%s", diff)
		}

		if err := s.InsertSession(ctx, want); !errors.Is(err, model.ErrPersistence) {
			t.Errorf("expected duplicate insert to fail with ErrPersistence, got %v", err)
		}

		_, err = s.GetSession(ctx, "scan_missing")
		var snf *model.SessionNotFoundError
		if !errors.As(err, &snf) {
			t.Fatalf("expected SessionNotFoundError, got %v", err)
		}
	})
}

func TestStore_TransitionIsMonotonic(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		newSession(t, s, "scan_cas")
		done := started.Add(time.Minute)

		got, err := s.TransitionSession(ctx, "scan_cas", model.StatusCompleted, "", done)
		if err != nil {
			t.Fatalf("first transition: %v", err)
		}
		if got.Status != model.StatusCompleted || got.CompletedAt == nil || !got.CompletedAt.Equal(done) {
			t.Fatalf("unexpected session after transition: %+v", got)
		}

		for _, to := range []model.SessionStatus{model.StatusCompleted, model.StatusFailed, model.StatusRunning} {
			_, err := s.TransitionSession(ctx, "scan_cas", to, "again", done)
			var ist *model.InvalidStateTransitionError
			if !errors.As(err, &ist) {
				t.Fatalf("transition to %s: expected InvalidStateTransitionError, got %v", to, err)
			}
			if ist.From != model.StatusCompleted {
				t.Errorf("expected From=completed, got %s", ist.From)
			}
		}

		_, err = s.TransitionSession(ctx, "scan_nope", model.StatusFailed, "x", done)
		if !errors.Is(err, model.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})
}

func TestStore_ConcurrentTransitionsOnlyOneWins(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		newSession(t, s, "scan_race")

		var wg sync.WaitGroup
		var mu sync.Mutex
		wins := 0
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				to := model.StatusCompleted
				if i%2 == 0 {
					to = model.StatusFailed
				}
				if _, err := s.TransitionSession(ctx, "scan_race", to, "", time.Now()); err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()
		if wins != 1 {
			t.Fatalf("expected exactly one winning transition, got %d", wins)
		}
	})
}

func serpResult(sessionID string, pos int) *model.SERPResult {
	dr := float64(90 - pos)
	return &model.SERPResult{
		ID:           fmt.Sprintf("serp_%s_%d", sessionID, pos),
		SessionID:    sessionID,
		Keyword:      "ai tools",
		Position:     pos,
		URL:          fmt.Sprintf("https://site%d.com/", pos),
		Domain:       fmt.Sprintf("site%d.com", pos),
		DomainRating: &dr,
		DiscoveredAt: started,
		AnalysisData: model.AnalysisData{ContentGaps: []string{"pricing"}, LastUpdated: started},
	}
}

func TestStore_SERPResultsOrderedAndUnique(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		newSession(t, s, "scan_serp")

		for _, pos := range []int{3, 1, 2} {
			ok, err := s.InsertSERPResult(ctx, serpResult("scan_serp", pos))
			if err != nil || !ok {
				t.Fatalf("InsertSERPResult(%d) = %t, %v", pos, ok, err)
			}
		}
		dup := serpResult("scan_serp", 2)
		dup.ID = "other"
		ok, err := s.InsertSERPResult(ctx, dup)
		if err != nil {
			t.Fatalf("duplicate insert error: %v", err)
		}
		if ok {
			t.Fatal("expected duplicate position to be rejected")
		}

		got, err := s.ListSERPResults(ctx, "scan_serp")
		if err != nil {
			t.Fatalf("ListSERPResults: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("expected 3 results, got %d", len(got))
		}
		for i, r := range got {
			if r.Position != i+1 {
				t.Errorf("result %d has position %d", i, r.Position)
			}
		}
		if got[1].ID != "serp_scan_serp_2" {
			t.Errorf("expected first writer to win the slot, got %s", got[1].ID)
		}
		if diff := cmp.Diff(*serpResult("scan_serp", 1), got[0]); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}

		if _, err := s.InsertSERPResult(ctx, serpResult("scan_unknown", 1)); !errors.Is(err, model.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound for unknown session, got %v", err)
		}
		if _, err := s.ListSERPResults(ctx, "scan_unknown"); !errors.Is(err, model.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound listing unknown session, got %v", err)
		}
	})
}

func TestStore_OpportunitiesDedupedByDomain(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		newSession(t, s, "scan_opps")

		inputs := []model.LinkOpportunity{
			{ID: "1", Domain: "inc.com", DiscoveredVia: "competitor_analysis_hubspot.com"},
			{ID: "2", Domain: "entrepreneur.com", DiscoveredVia: "competitor_analysis_hubspot.com"},
			{ID: "3", Domain: "www.INC.com", DiscoveredVia: "resource_search_x"},
			{ID: "4", Domain: "marketingland.com", DiscoveredVia: "resource_search_x"},
		}
		var inserted []bool
		for i := range inputs {
			ok, err := s.InsertOpportunity(ctx, "scan_opps", &inputs[i])
			if err != nil {
				t.Fatalf("InsertOpportunity: %v", err)
			}
			inserted = append(inserted, ok)
		}
		if diff := cmp.Diff([]bool{true, true, false, true}, inserted); diff != "" {
			t.Errorf("inserted flags mismatch (-want +got):\n%s", diff)
		}

		got, err := s.ListOpportunities(ctx, "scan_opps")
		if err != nil {
			t.Fatalf("ListOpportunities: %v", err)
		}
		want := []model.LinkOpportunity{inputs[0], inputs[1], inputs[3]}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("opportunities mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestStore_ConcurrentAppendsSameSession(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		newSession(t, s, "scan_concurrent")

		const n = 24
		var wg sync.WaitGroup
		errs := make(chan error, 2*n)
		for i := 1; i <= n; i++ {
			wg.Add(2)
			go func(pos int) {
				defer wg.Done()
				if _, err := s.InsertSERPResult(ctx, serpResult("scan_concurrent", pos)); err != nil {
					errs <- err
				}
			}(i)
			go func(i int) {
				defer wg.Done()
				o := &model.LinkOpportunity{ID: fmt.Sprint(i), Domain: fmt.Sprintf("d%d.com", i%12)}
				if _, err := s.InsertOpportunity(ctx, "scan_concurrent", o); err != nil {
					errs <- err
				}
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Fatalf("concurrent insert failed: %v", err)
		}

		results, err := s.ListSERPResults(ctx, "scan_concurrent")
		if err != nil {
			t.Fatalf("ListSERPResults: %v", err)
		}
		if len(results) != n {
			t.Errorf("expected %d results, got %d", n, len(results))
		}
		opps, err := s.ListOpportunities(ctx, "scan_concurrent")
		if err != nil {
			t.Fatalf("ListOpportunities: %v", err)
		}
		if len(opps) != 12 {
			t.Errorf("expected 12 distinct domains, got %d", len(opps))
		}
	})
}

func TestStore_CompetitorHistoryNewestFirst(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		for i := 0; i < 3; i++ {
			a := &model.CompetitorAnalysis{
				ID:               fmt.Sprintf("ca_%d", i),
				CompetitorDomain: "HubSpot.com",
				DomainRating:     float64(80 + i),
				AnalysisDate:     started.Add(time.Duration(i) * time.Hour),
				TopKeywords:      []string{"ai tools"},
			}
			if err := s.InsertCompetitorAnalysis(ctx, a); err != nil {
				t.Fatalf("InsertCompetitorAnalysis: %v", err)
			}
		}
		if err := s.InsertCompetitorAnalysis(ctx, &model.CompetitorAnalysis{ID: "other", CompetitorDomain: "buffer.com", AnalysisDate: started}); err != nil {
			t.Fatalf("InsertCompetitorAnalysis: %v", err)
		}

		all, err := s.ListCompetitorAnalyses(ctx, "www.hubspot.com", 0)
		if err != nil {
			t.Fatalf("ListCompetitorAnalyses: %v", err)
		}
		var ids []string
		for _, a := range all {
			ids = append(ids, a.ID)
		}
		if diff := cmp.Diff([]string{"ca_2", "ca_1", "ca_0"}, ids); diff != "" {
			t.Errorf("history order mismatch (-want +got):\n%s", diff)
		}

		limited, err := s.ListCompetitorAnalyses(ctx, "hubspot.com", 2)
		if err != nil {
			t.Fatalf("ListCompetitorAnalyses: %v", err)
		}
		if len(limited) != 2 || limited[0].ID != "ca_2" {
			t.Errorf("unexpected limited history: %+v", limited)
		}

		none, err := s.ListCompetitorAnalyses(ctx, "never-analyzed.com", 5)
		if err != nil || len(none) != 0 {
			t.Errorf("expected empty history, got %v, %v", none, err)
		}
	})
}

func TestRedis_InsertSessionWritesWholeRowOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test:", logging.Nop{})
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := map[string]bool{}
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			keyword := fmt.Sprintf("kw%d", i)
			err := s.InsertSession(ctx, &model.ScanSession{
				SessionID: "scan_race",
				Config:    model.ScanConfiguration{Keyword: keyword, SearchDepth: 1},
				Status:    model.StatusRunning,
				StartedAt: started,
			})
			if err == nil {
				mu.Lock()
				winners[keyword] = true
				mu.Unlock()
			} else if !errors.Is(err, model.ErrPersistence) {
				t.Errorf("unexpected error %v", err)
			}
		}()
	}
	wg.Wait()

	if len(winners) != 1 {
		t.Fatalf("expected exactly one insert to win, got %v", winners)
	}
	got, err := s.GetSession(ctx, "scan_race")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if !winners[got.Config.Keyword] || !got.StartedAt.Equal(started) || got.Status != model.StatusRunning {
		t.Errorf("stored row does not belong to the winner: %+v", got)
	}
	for _, field := range []string{"status", "config", "started"} {
		if mr.HGet("test:session:scan_race", field) == "" {
			t.Errorf("field %q missing from session hash", field)
		}
	}
}

func TestRedis_InsertSessionLeavesExistingRowAlone(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test:", logging.Nop{})
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()

	newSession(t, s, "scan_done")
	if _, err := s.TransitionSession(ctx, "scan_done", model.StatusCompleted, "", started.Add(time.Minute)); err != nil {
		t.Fatalf("TransitionSession: %v", err)
	}

	err := s.InsertSession(ctx, &model.ScanSession{SessionID: "scan_done", Status: model.StatusRunning, StartedAt: started})
	if !errors.Is(err, model.ErrPersistence) {
		t.Fatalf("expected duplicate insert to fail, got %v", err)
	}
	got, err := s.GetSession(ctx, "scan_done")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Status != model.StatusCompleted || got.Config.Keyword != "ai tools" || got.CompletedAt == nil {
		t.Errorf("existing session was modified: %+v", got)
	}
}
