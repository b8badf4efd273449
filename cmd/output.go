package cmd

import (
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
)

var cellStyle = lipgloss.NewStyle().PaddingRight(2)

// printTable writes rows under a ruled header. Columns are sized to their
// widest cell.
func printTable(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderHeader(true).
		Wrap(false).
		StyleFunc(func(row, col int) lipgloss.Style { return cellStyle }).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(w, t.String())
}

// field is one label/value line of a detail view.
type field struct {
	label, value string
}

// printFields writes label/value pairs with the values aligned. Empty
// values are skipped.
func printFields(w io.Writer, fields ...field) {
	width := 0
	for _, f := range fields {
		width = max(width, len(f.label)+1)
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		fmt.Fprintf(w, "%-*s %s\n", width, f.label+":", f.value)
	}
}

// printBlock writes a titled body between rules.
func printBlock(w io.Writer, title, body string) {
	section(w, title)
	if strings.TrimSpace(body) == "" {
		body = "(not captured)"
	}
	fmt.Fprintln(w, body)
}

func section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n%s\n", title, strings.Repeat("─", 60))
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}
