package history

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
)

const defaultMaxWidth = 40 // Default max width for truncated columns

// PrintEntries writes runs as a table. now anchors the relative times.
func PrintEntries(out io.Writer, entries []RunEntry, now time.Time) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "ID\tWHEN\tCOMMAND\tSOURCE\tRULES\tSTATUS")
	fmt.Fprintln(w, "──\t────\t───────\t──────\t─────\t──────")

	for _, entry := range entries {
		status := "ok"
		if entry.Failed() {
			status = "error: " + entry.Err
		}

		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n",
			entry.ID,
			humanize.RelTime(entry.CreatedAt, now, "ago", "from now"),
			truncate(entry.Root, defaultMaxWidth),
			truncate(entry.Source, defaultMaxWidth),
			entry.RuleCount,
			truncate(status, defaultMaxWidth),
		)
	}

	return w.Flush()
}

// truncate shortens s to maxWidth terminal cells, adding an ellipsis if
// truncated.
func truncate(s string, maxWidth int) string {
	// Replace newlines with spaces for single-line display
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSpace(s)

	return runewidth.Truncate(s, maxWidth, "...")
}
