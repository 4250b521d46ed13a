package cliutil

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/PhantomStrikers/sanguoxianhua/internals/history"
)

func TestPrintRuns(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	runs := []history.Run{{
		ID:         "0f8fad5b-d9cb-469f-a165-70867728950e",
		StartedAt:  start,
		FinishedAt: start.Add(90 * time.Second),
		Version:    "0.0.0-dev",
		Accounts: []history.AccountRecord{
			{Account: "main", SignedIn: true, TasksTotal: 4, TasksCompleted: 4, ActionsOK: 6, Claimed: 3},
			{Account: "alt", Error: "panic: boom"},
		},
	}}

	var buf bytes.Buffer
	if err := PrintRuns(&buf, runs); err != nil {
		t.Fatalf("PrintRuns: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"run 0f8fad5b", "1m30s", "main", "sign-in yes", "tasks 4/4", "claimed 3", "error: panic: boom"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestPrintRunsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintRuns(&buf, nil); err != nil {
		t.Fatalf("PrintRuns: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "no runs recorded yet" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}
