package summary

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/PhantomStrikers/sanguoxianhua/internals/runner"
)

const Title = "Sanguosha daily tasks result"

// Generate renders the plain text report for a finished run.
func Generate(results []runner.AccountResult, at time.Time) string {
	var b strings.Builder
	b.WriteString("Sanguosha daily tasks summary\n\n")

	signedIn := 0
	for i, r := range results {
		fmt.Fprintf(&b, "Account %d: %s\n", i+1, r.Name)
		if r.SignIn.Success {
			signedIn++
			fmt.Fprintf(&b, "  sign-in: ok (+%d)\n", r.SignIn.Reward)
		} else {
			b.WriteString("  sign-in: failed\n")
		}
		fmt.Fprintf(&b, "  tasks completed: %d/%d\n", r.Tasks.Completed, r.Tasks.Total)
		fmt.Fprintf(&b, "  rewards claimed: %d\n", r.Claimed)
		fmt.Fprintf(&b, "  daily actions succeeded: %d\n", r.SuccessfulActions())
		if r.Err != nil {
			fmt.Fprintf(&b, "  error: %v\n", r.Err)
		}
		b.WriteString("\n")
	}

	b.WriteString("Totals:\n")
	fmt.Fprintf(&b, "  signed in: %d/%d accounts\n", signedIn, len(results))
	fmt.Fprintf(&b, "Finished at: %s", at.Format(time.DateTime))
	return b.String()
}

var boxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("63")).
	Padding(0, 1)

var titleStyle = lipgloss.NewStyle().Bold(true)

// Print writes title and text to w, boxed when w is a terminal.
func Print(w io.Writer, title, text string) error {
	if !isTerminal(w) {
		_, err := fmt.Fprintf(w, "\n%s\n%s\n", title, text)
		return err
	}
	_, err := fmt.Fprintln(w, boxStyle.Render(titleStyle.Render(title)+"\n\n"+text))
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
