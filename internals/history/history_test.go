package history

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/PhantomStrikers/sanguoxianhua/internals/testutil"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), testutil.TempDBPath(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveAndListRuns(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	firstID, err := store.SaveRun(ctx, Run{
		StartedAt:  base,
		FinishedAt: base.Add(time.Minute),
		Version:    "0.0.0-dev",
		Accounts: []AccountRecord{
			{Account: "main", SignedIn: true, SignInMessage: "+5", TasksTotal: 4, TasksCompleted: 4, ActionsOK: 12, Claimed: 3},
			{Account: "alt", Error: "profile: unauthorized"},
		},
	})
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if _, err := uuid.Parse(firstID); err != nil {
		t.Fatalf("expected uuid run id, got %q", firstID)
	}

	secondID, err := store.SaveRun(ctx, Run{StartedAt: base.Add(24 * time.Hour), FinishedAt: base.Add(25 * time.Hour)})
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	runs, err := store.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != secondID || runs[1].ID != firstID {
		t.Fatalf("expected newest first, got %s then %s", runs[0].ID, runs[1].ID)
	}
	if !runs[1].StartedAt.Equal(base) {
		t.Fatalf("unexpected start time %v", runs[1].StartedAt)
	}

	accounts := runs[1].Accounts
	if len(accounts) != 2 {
		t.Fatalf("expected 2 account rows, got %d", len(accounts))
	}
	if accounts[0].Account != "main" || !accounts[0].SignedIn || accounts[0].Claimed != 3 || accounts[0].ActionsOK != 12 {
		t.Fatalf("unexpected first row %+v", accounts[0])
	}
	if accounts[1].Error != "profile: unauthorized" || accounts[1].SignedIn {
		t.Fatalf("unexpected second row %+v", accounts[1])
	}
	if len(runs[0].Accounts) != 0 {
		t.Fatalf("expected no account rows for second run")
	}
}

func TestRecentRunsLimit(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		start := base.Add(time.Duration(i) * time.Hour)
		if _, err := store.SaveRun(ctx, Run{StartedAt: start, FinishedAt: start}); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}
	runs, err := store.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := testutil.TempDBPath(t)

	first, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := first.SaveRun(ctx, Run{ID: "fixed", StartedAt: time.Now(), FinishedAt: time.Now()}); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	first.Close()

	second, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	runs, err := second.RecentRuns(ctx, 5)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "fixed" {
		t.Fatalf("expected persisted run, got %+v", runs)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
