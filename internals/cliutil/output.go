package cliutil

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/PhantomStrikers/sanguoxianhua/internals/history"
)

// PrintRuns writes one line per run and one indented line per account.
func PrintRuns(w io.Writer, runs []history.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "no runs recorded yet")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, run := range runs {
		fmt.Fprintf(tw, "run %s\t%s\t%s\t%s\n",
			shortID(run.ID),
			run.StartedAt.Local().Format(time.DateTime),
			run.FinishedAt.Sub(run.StartedAt).Round(time.Second),
			run.Version,
		)
		for _, a := range run.Accounts {
			signIn := "no"
			if a.SignedIn {
				signIn = "yes"
			}
			line := fmt.Sprintf("  %s\tsign-in %s\ttasks %d/%d\tactions %d ok %d failed\tclaimed %d",
				a.Account, signIn, a.TasksCompleted, a.TasksTotal, a.ActionsOK, a.ActionsFailed, a.Claimed)
			if a.Error != "" {
				line += "\terror: " + strings.TrimSpace(a.Error)
			}
			fmt.Fprintln(tw, line)
		}
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
