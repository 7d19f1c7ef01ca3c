package render

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles used by RenderText.
type Styles struct {
	Title  lipgloss.Style
	Header lipgloss.Style
	Body   lipgloss.Style
	Muted  lipgloss.Style
}

// DefaultStyles returns the terminal palette.
func DefaultStyles() Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		Header: lipgloss.NewStyle().Bold(true),
		Body:   lipgloss.NewStyle(),
		Muted:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// RenderText writes t as a bordered text table. List cells take one line per
// value and covered merge cells are left blank.
func RenderText(w io.Writer, title string, t *Table) error {
	_, err := io.WriteString(w, View(title, t, DefaultStyles()))
	return err
}

// View returns the rendered table.
func View(title string, t *Table, styles Styles) string {
	var sb strings.Builder
	if title != "" {
		sb.WriteString(styles.Title.Render(title))
		sb.WriteString("\n")
	}

	headers := t.Headers()
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell.Text("\n")); w > widths[i] {
				widths[i] = w
			}
		}
	}
	// lipgloss Width includes padding
	for i := range widths {
		widths[i] += 2
	}

	headerStyle := styles.Header.Padding(0, 1)
	rowStyle := styles.Body.Padding(0, 1)
	sep := styles.Muted.Render("|")

	sb.WriteString(joinRow(headers, widths, headerStyle, sep))
	sb.WriteString("\n")
	total := len(widths) - 1
	for _, w := range widths {
		total += w
	}
	if total < 0 {
		total = 0
	}
	sb.WriteString(styles.Muted.Render(strings.Repeat("-", total)))
	sb.WriteString("\n")

	for _, row := range t.Rows {
		texts := make([]string, len(row))
		for i, cell := range row {
			texts[i] = cell.Text("\n")
		}
		sb.WriteString(joinRow(texts, widths, rowStyle, sep))
		sb.WriteString("\n")
	}
	return sb.String()
}

// joinRow renders cells side by side, aligned at the top.
func joinRow(cells []string, widths []int, style lipgloss.Style, sep string) string {
	height := 1
	for _, c := range cells {
		if h := lipgloss.Height(c); h > height {
			height = h
		}
	}
	sepCol := strings.TrimSuffix(strings.Repeat(sep+"\n", height), "\n")
	parts := make([]string, 0, 2*len(cells))
	for i, c := range cells {
		if i > 0 {
			parts = append(parts, sepCol)
		}
		parts = append(parts, style.Width(widths[i]).Render(c))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}
