package export

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Tiliavir/fichajes/internal/stats"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	headerStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	numberStyle   = cellStyle.Align(lipgloss.Right)
	negativeStyle = numberStyle.Foreground(lipgloss.Color("9"))
	totalStyle    = numberStyle.Bold(true)
)

// Table renders r for the terminal, with a team total as the last row.
func Table(r Report) string {
	rows := make([][]string, 0, len(r.Rows)+1)
	for _, s := range r.Rows {
		rows = append(rows, cells(s))
	}
	totalRow := len(rows)
	rows = append(rows, cells(stats.Totals(r.Rows)))

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(Columns...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row == totalRow:
				return totalStyle
			case col == 0:
				return cellStyle
			case col == 4 && strings.HasPrefix(rows[row][col], "-"):
				return negativeStyle
			default:
				return numberStyle
			}
		})

	return titleStyle.Render(r.Title()) + "\n" + t.String()
}
