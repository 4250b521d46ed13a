package runlog

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

func fixedClock() time.Time {
	return time.Date(2026, 10, 18, 8, 30, 0, 0, time.UTC)
}

func TestForSharesBufferAndTagsAccount(t *testing.T) {
	root := New(nil, WithClock(fixedClock))
	root.Info("starting")
	root.For("alice").Success("signed in")
	root.For("bob").Warn("no posts")

	entries := root.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Account != SystemAccount || entries[1].Account != "alice" || entries[2].Account != "bob" {
		t.Fatalf("unexpected accounts: %+v", entries)
	}
	for i, entry := range entries {
		if entry.Seq != uint64(i+1) {
			t.Fatalf("expected seq %d, got %d", i+1, entry.Seq)
		}
	}
}

func TestLineFormat(t *testing.T) {
	root := New(nil, WithClock(fixedClock))
	root.For("alice").Errorf("claim failed: %s", "boom")

	lines := root.Lines()
	want := "[ERROR] 2026-10-18 08:30:00 alice - claim failed: boom"
	if len(lines) != 1 || lines[0] != want {
		t.Fatalf("expected %q, got %v", want, lines)
	}
}

func TestForwardsToSlog(t *testing.T) {
	var out bytes.Buffer
	sink := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	root := New(sink)
	root.For("alice").Warn("pool too small", slog.Int("posts", 2))

	got := out.String()
	if !strings.Contains(got, "level=WARN") || !strings.Contains(got, "account=alice") || !strings.Contains(got, "posts=2") {
		t.Fatalf("unexpected slog output: %s", got)
	}
}

func TestEntriesIsACopy(t *testing.T) {
	root := New(nil)
	root.Info("one")
	entries := root.Entries()
	entries[0].Message = "changed"
	if root.Entries()[0].Message != "one" {
		t.Fatalf("expected buffer to be unaffected by caller edits")
	}
}

func TestConcurrentLogging(t *testing.T) {
	root := New(nil)
	child := root.For("k")

	const count = 50
	var wg sync.WaitGroup
	wg.Add(count)
	for i := 0; i < count; i++ {
		go func(i int) {
			defer wg.Done()
			child.Infof("msg %d", i)
		}(i)
	}
	wg.Wait()

	if got := len(root.Entries()); got != count {
		t.Fatalf("expected %d entries, got %d", count, got)
	}
}
