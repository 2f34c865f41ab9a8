package model_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/raysh454/linkscout/internal/model"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()
	statuses := []model.SessionStatus{model.StatusRunning, model.StatusCompleted, model.StatusFailed}
	for _, from := range statuses {
		for _, to := range statuses {
			want := from == model.StatusRunning && to != model.StatusRunning
			if got := model.CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %t, want %t", from, to, got, want)
			}
		}
	}
}

func TestBacklinkSource_Validate(t *testing.T) {
	t.Parallel()
	kind := "resource_inclusion"
	tests := []struct {
		name    string
		src     model.BacklinkSource
		wantErr bool
	}{
		{"available with type", model.BacklinkSource{OpportunityAvailable: true, OpportunityType: &kind}, false},
		{"unavailable without type", model.BacklinkSource{}, false},
		{"available without type", model.BacklinkSource{OpportunityAvailable: true}, true},
		{"unavailable with type", model.BacklinkSource{OpportunityType: &kind}, true},
		{"rating out of range", model.BacklinkSource{DomainRating: 120}, true},
	}
	for _, tt := range tests {
		err := tt.src.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() err = %v, wantErr %t", tt.name, err, tt.wantErr)
		}
	}
}

func TestUnion_FirstDiscoveredWins(t *testing.T) {
	t.Parallel()
	serp := []model.LinkOpportunity{
		{ID: "a", Domain: "hubspot.com", DiscoveredVia: "serp"},
		{ID: "b", Domain: "buffer.com", DiscoveredVia: "serp"},
	}
	resources := []model.LinkOpportunity{
		{ID: "c", Domain: "WWW.HubSpot.com", DiscoveredVia: "resource_search"},
		{ID: "d", Domain: "inc.com", DiscoveredVia: "resource_search"},
	}

	got := model.Union(serp, resources)
	if len(got) != 3 {
		t.Fatalf("expected 3 opportunities, got %d", len(got))
	}
	ids := fmt.Sprint(got[0].ID, got[1].ID, got[2].ID)
	if ids != "abd" {
		t.Errorf("expected order a b d, got %s", ids)
	}
	if got[0].DiscoveredVia != "serp" {
		t.Errorf("expected first-discovered record kept, got %q", got[0].DiscoveredVia)
	}

	if dedup := model.DedupeByDomain(append(serp, resources...)); len(dedup) != 3 {
		t.Errorf("DedupeByDomain: expected 3, got %d", len(dedup))
	}
	if empty := model.Union(); empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil union, got %#v", empty)
	}
}

func TestErrors_Unwrap(t *testing.T) {
	t.Parallel()
	perr := model.NewSearchProviderError("ai tools", context.DeadlineExceeded)
	if !errors.Is(perr, model.ErrSearchProvider) {
		t.Error("expected ErrSearchProvider")
	}
	if !errors.Is(perr, context.DeadlineExceeded) {
		t.Error("expected cause to be reachable")
	}
	if errors.Is(perr, model.ErrBacklinkProvider) {
		t.Error("unexpected backlink kind")
	}

	wrapped := fmt.Errorf("analyze: %w", &model.SessionNotFoundError{SessionID: "scan_x"})
	var snf *model.SessionNotFoundError
	if !errors.As(wrapped, &snf) || snf.SessionID != "scan_x" {
		t.Errorf("expected SessionNotFoundError, got %v", wrapped)
	}

	st := &model.InvalidStateTransitionError{SessionID: "s", From: model.StatusCompleted, To: model.StatusCompleted}
	if !errors.Is(st, model.ErrInvalidStateTransition) {
		t.Error("expected ErrInvalidStateTransition")
	}

	pe := &model.PersistenceError{Op: "insert serp result", Err: errors.New("disk full")}
	if !errors.Is(pe, model.ErrPersistence) {
		t.Error("expected ErrPersistence")
	}
}
