package core

import (
	"context"
	"testing"

	"pkt.systems/tabdeck/schema"
)

func setupReorder(t *testing.T) (Service, *recordingSink, schema.UserID, []schema.TabItem) {
	t.Helper()
	svc, sink := newTestService(t, schema.ServiceConfig{HomeURL: "about:home"})
	user := schema.UserID("alice")
	tabs := []schema.TabItem{
		mustCreate(t, svc, user, "https://b.example"),
		mustCreate(t, svc, user, "https://c.example"),
		mustCreate(t, svc, user, "https://d.example"),
	}
	return svc, sink, user, tabs
}

func TestReorderSpliceSemantics(t *testing.T) {
	svc, sink, user, tabs := setupReorder(t)

	// Order is [home, b, c, d]; move b (index 1) to index 3.
	resp, err := svc.ReorderTab(context.Background(), schema.ReorderTabRequest{
		UserID:      user,
		Origin:      "sess-1",
		TabID:       tabs[0].ID,
		TargetIndex: 3,
	})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	want := []schema.TabID{resp.Order[0], tabs[1].ID, tabs[2].ID, tabs[0].ID}
	for i, id := range want {
		if resp.Order[i] != id {
			t.Fatalf("order[%d] = %q, want %q (full %v)", i, resp.Order[i], id, resp.Order)
		}
	}

	event := sink.last(t)
	if event.Origin != "sess-1" {
		t.Fatalf("expected origin session on snapshot event, got %q", event.Origin)
	}
	checkPermutation(t, event.Snapshot)
}

func TestReorderValidation(t *testing.T) {
	svc, _, user, tabs := setupReorder(t)
	ctx := context.Background()

	if _, err := svc.ReorderTab(ctx, schema.ReorderTabRequest{UserID: user, TabID: "missing", TargetIndex: 1}); err != schema.ErrTabNotFound {
		t.Fatalf("expected ErrTabNotFound, got %v", err)
	}
	if _, err := svc.ReorderTab(ctx, schema.ReorderTabRequest{UserID: user, TabID: tabs[0].ID, TargetIndex: 7}); err != schema.ErrInvalidIndex {
		t.Fatalf("expected ErrInvalidIndex, got %v", err)
	}
	if _, err := svc.ReorderTab(ctx, schema.ReorderTabRequest{UserID: user, TabID: tabs[0].ID, TargetIndex: -1}); err != schema.ErrInvalidIndex {
		t.Fatalf("expected ErrInvalidIndex for negative target, got %v", err)
	}
}

func TestReorderPinnedViolations(t *testing.T) {
	svc, _, user, tabs := setupReorder(t)
	ctx := context.Background()

	list, err := svc.ListTabs(ctx, schema.ListTabsRequest{UserID: user})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	pinned := list.Snapshot.PinnedID
	before := list.Snapshot.Order

	if _, err := svc.ReorderTab(ctx, schema.ReorderTabRequest{UserID: user, TabID: pinned, TargetIndex: 2}); err != schema.ErrPinnedViolation {
		t.Fatalf("expected ErrPinnedViolation moving pinned tab, got %v", err)
	}
	if _, err := svc.ReorderTab(ctx, schema.ReorderTabRequest{UserID: user, TabID: tabs[0].ID, TargetIndex: 0}); err != schema.ErrPinnedViolation {
		t.Fatalf("expected ErrPinnedViolation targeting pinned slot, got %v", err)
	}

	// Failed commands leave state unchanged.
	list, err = svc.ListTabs(ctx, schema.ListTabsRequest{UserID: user})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i, id := range before {
		if list.Snapshot.Order[i] != id {
			t.Fatalf("order changed by rejected command: %v vs %v", before, list.Snapshot.Order)
		}
	}
}

func TestPermutationInvariantUnderOperationSequence(t *testing.T) {
	svc, sink := newTestService(t, schema.ServiceConfig{})
	user := schema.UserID("alice")
	ctx := context.Background()

	ids := make([]schema.TabID, 0, 6)
	for _, url := range []string{"https://a", "https://b", "https://c", "https://d", "https://e", "https://f"} {
		ids = append(ids, mustCreate(t, svc, user, url).ID)
	}
	moves := []struct {
		tab    int
		target int
	}{{0, 5}, {3, 0}, {2, 2}, {5, 1}, {4, 4}}
	for _, move := range moves {
		if _, err := svc.ReorderTab(ctx, schema.ReorderTabRequest{UserID: user, TabID: ids[move.tab], TargetIndex: move.target}); err != nil {
			t.Fatalf("reorder %v: %v", move, err)
		}
		checkPermutation(t, sink.last(t).Snapshot)
	}
	for _, id := range []schema.TabID{ids[1], ids[4]} {
		if _, err := svc.CloseTab(ctx, schema.CloseTabRequest{UserID: user, TabID: id}); err != nil {
			t.Fatalf("close %q: %v", id, err)
		}
		checkPermutation(t, sink.last(t).Snapshot)
	}
}

func TestSpliceHelper(t *testing.T) {
	order := []schema.TabID{"a", "b", "c", "d"}
	got := splice(append([]schema.TabID(nil), order...), 1, 3)
	want := []schema.TabID{"a", "c", "d", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("splice(1,3) = %v, want %v", got, want)
		}
	}
	got = splice(append([]schema.TabID(nil), order...), 3, 0)
	want = []schema.TabID{"d", "a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("splice(3,0) = %v, want %v", got, want)
		}
	}
}
