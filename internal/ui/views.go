package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/marcus/academy/internal/render"
	"github.com/marcus/academy/internal/ui/dialog"
)

// Column widths for the user table. The name column absorbs the remainder.
const (
	colUsername = 16
	colEmail    = 28
	colRole     = 12
)

// View renders the console. While the modal is open it replaces the list;
// the terminal has no compositor, so overlaying is not worth the trouble.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.coord.State() == ModalOpen {
		return m.modalView()
	}
	return m.listView()
}

// modalView renders whichever widget the dialog slot holds.
func (m Model) modalView() string {
	switch {
	case m.form != nil:
		d := dialog.New(m.form.spec.Title)
		for _, e := range m.form.spec.Errors {
			d.AddSection(dialog.Text(errStyle.Render(e)))
		}
		if len(m.form.spec.Errors) > 0 {
			d.AddSection(dialog.Spacer())
		}
		d.AddSection(dialog.Custom(func(int) string { return m.form.View() }))
		return d.View(m.width, m.height)

	case m.confirm != nil:
		return m.confirm.dialog.View(m.width, m.height)

	default:
		// Content still in flight; the slot shows its placeholder.
		d := dialog.New("").AddSection(dialog.Text(m.coord.Content()))
		return d.View(m.width, m.height)
	}
}

// listView renders the user table with header, filter, and hint bar.
func (m Model) listView() string {
	var b strings.Builder

	title := headerStyle.Render("Academy Users")
	count := countStyle.Render(fmt.Sprintf(" (%d)", len(m.visible)))
	b.WriteString(" " + title + count)
	if bar := m.statusBar(); bar != "" {
		b.WriteString("  " + bar)
	}
	b.WriteString("\n")

	if m.searching || m.search.Value() != "" {
		b.WriteString(" " + m.search.View() + "\n")
	}
	b.WriteString("\n")

	nameWidth := m.width - colUsername - colEmail - colRole - 8
	if nameWidth < 10 {
		nameWidth = 10
	}

	header := " " + pad("USERNAME", colUsername) + " " +
		pad("NAME", nameWidth) + " " +
		pad("EMAIL", colEmail) + " " +
		pad("ROLE", colRole)
	b.WriteString(columnHeaderStyle.Render(header) + "\n")

	if len(m.visible) == 0 {
		b.WriteString(emptyStyle.Render("   no users match") + "\n")
	}
	for i, row := range m.visible {
		b.WriteString(m.renderRow(row, i == m.cursor, nameWidth) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(hintBarStyle.Render(" n:new  e:edit  d:delete  /:filter  r:refresh  q:quit"))
	return b.String()
}

// renderRow renders one user row with its cursor and loading markers.
func (m Model) renderRow(row render.UserRow, selected bool, nameWidth int) string {
	marker := " "
	switch {
	case m.coord.Loading(rowTrigger(row.ID)):
		marker = m.spin.View()
	case selected:
		marker = ">"
	}

	line := pad(row.Username, colUsername) + " " +
		pad(row.FullName, nameWidth) + " " +
		pad(row.Email, colEmail) + " "

	switch {
	case selected:
		line = selectedRowStyle.Render(line + pad(roleLabel(row), colRole))
	case !row.Active:
		line = inactiveRowStyle.Render(line + pad(roleLabel(row), colRole))
	default:
		line += roleStyle(row.Role).Render(pad(roleLabel(row), colRole))
	}
	return marker + " " + line
}

// roleStyle picks the role cell color.
func roleStyle(role string) lipgloss.Style {
	switch role {
	case "admin":
		return roleAdminStyle
	case "instructor":
		return roleInstructorStyle
	default:
		return roleStudentStyle
	}
}

// roleLabel formats the role cell, marking inactive accounts.
func roleLabel(row render.UserRow) string {
	if !row.Active {
		return row.Role + " *"
	}
	return row.Role
}

// statusBar renders the spinner or the last status message.
func (m Model) statusBar() string {
	if m.coord.AnyLoading() {
		return m.spin.View() + statusStyle.Render(" working")
	}
	if m.status == "" {
		return ""
	}
	if strings.HasPrefix(m.status, "request failed") ||
		strings.HasPrefix(m.status, "server returned") ||
		strings.HasPrefix(m.status, "bad list fragment") {
		return errStyle.Render(m.status)
	}
	return statusStyle.Render(m.status)
}

// pad truncates or pads a cell to an exact display width.
func pad(s string, width int) string {
	if lipgloss.Width(s) > width {
		return ansi.Truncate(s, width, "…")
	}
	return s + strings.Repeat(" ", width-lipgloss.Width(s))
}
