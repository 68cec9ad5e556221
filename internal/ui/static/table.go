// Package static provides non-interactive terminal output components.
package static

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/bower-dev/bower/internal/lifecycle"
	"github.com/bower-dev/bower/internal/workspace"
)

// WorktreeHeaders are the columns of the worktree listing.
var WorktreeHeaders = []string{"BRANCH", "STATE", "BASE", "COMMITS", "CREATED"}

var stateStyles = map[workspace.State]lipgloss.Style{
	workspace.StateActive:      lipgloss.NewStyle().Foreground(lipgloss.Color("10")), // green
	workspace.StateConflicted:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")),  // red
	workspace.StateOrphaned:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")), // yellow
	workspace.StateRetargeting: lipgloss.NewStyle().Foreground(lipgloss.Color("12")), // blue
}

// FormatState renders a worktree state, colored when the terminal
// supports it.
func FormatState(s workspace.State) string {
	if style, ok := stateStyles[s]; ok {
		return style.Render(string(s))
	}
	return string(s)
}

// WorktreeRow builds the table row for one worktree.
func WorktreeRow(wt lifecycle.Worktree) []string {
	commits := fmt.Sprintf("%d", wt.UniqueCommits)
	if wt.Dirty {
		commits += " +dirty"
	}
	created := ""
	if !wt.CreatedAt.IsZero() {
		created = wt.CreatedAt.Format("2006-01-02 15:04")
	}
	return []string{
		wt.Branch,
		FormatState(wt.State),
		wt.Base,
		commits,
		created,
	}
}

// RenderTable formats headers and rows with aligned columns and no
// borders.
func RenderTable(headers []string, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	var output strings.Builder

	t := table.New().
		Headers(headers...).
		Rows(rows...).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		BorderRow(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).PaddingRight(2)
			}
			return lipgloss.NewStyle().PaddingRight(2)
		})

	output.WriteString(t.String())
	output.WriteString("\n")

	return output.String()
}
