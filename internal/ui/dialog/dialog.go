// Package dialog provides the single reusable modal dialog used by the
// academy console. The dialog is declarative: callers compose sections
// (text, spacers, custom views) and a button row, then ask for a rendered
// overlay. Keyboard handling returns action IDs instead of mutating
// application state, so the owning model decides what each action means.
package dialog

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Variant selects the visual style of the dialog frame.
type Variant int

const (
	VariantDefault Variant = iota
	VariantDanger
)

// CancelAction is returned by HandleKey when the dialog is dismissed.
const CancelAction = "cancel"

// Section is one block of dialog content.
type Section interface {
	render(contentWidth int) string
}

// textSection is static text, wrapped to the content width.
type textSection struct {
	text string
}

func (s textSection) render(contentWidth int) string {
	return lipgloss.NewStyle().Width(contentWidth).Render(s.text)
}

// spacerSection is a blank line.
type spacerSection struct{}

func (spacerSection) render(int) string { return "" }

// customSection renders arbitrary content, used to embed form views.
type customSection struct {
	view func(contentWidth int) string
}

func (s customSection) render(contentWidth int) string {
	return s.view(contentWidth)
}

// Text creates a static text section.
func Text(s string) Section { return textSection{text: s} }

// Spacer creates a blank line section.
func Spacer() Section { return spacerSection{} }

// Custom creates a section rendered by the given function.
func Custom(view func(contentWidth int) string) Section {
	return customSection{view: view}
}

// Button is one entry in the dialog's button row.
type Button struct {
	Label  string
	Action string
	Danger bool
}

// Option is a functional option for New.
type Option func(*Dialog)

// WithWidth sets the dialog width (default 56).
func WithWidth(w int) Option {
	return func(d *Dialog) {
		if w > 0 {
			d.width = w
		}
	}
}

// WithVariant sets the visual style.
func WithVariant(v Variant) Option {
	return func(d *Dialog) { d.variant = v }
}

// Dialog is a modal dialog. One instance is reused for the lifetime of the
// console; its contents are replaced per open.
type Dialog struct {
	title    string
	width    int
	variant  Variant
	sections []Section
	buttons  []Button
	focus    int
}

// New creates a dialog with the given title.
func New(title string, opts ...Option) *Dialog {
	d := &Dialog{title: title, width: 56}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// AddSection appends a content section and returns the dialog for chaining.
func (d *Dialog) AddSection(s Section) *Dialog {
	d.sections = append(d.sections, s)
	return d
}

// SetButtons replaces the button row. Focus resets to the first button.
func (d *Dialog) SetButtons(buttons ...Button) *Dialog {
	d.buttons = buttons
	d.focus = 0
	return d
}

// FocusedAction returns the action of the currently focused button, or "".
func (d *Dialog) FocusedAction() string {
	if len(d.buttons) == 0 {
		return ""
	}
	return d.buttons[d.focus].Action
}

// HandleKey processes a key press and returns the triggered action ID, or
// "" when the key only moved focus.
func (d *Dialog) HandleKey(msg tea.KeyMsg) string {
	switch msg.String() {
	case "esc":
		return CancelAction
	case "tab", "right", "l":
		if len(d.buttons) > 0 {
			d.focus = (d.focus + 1) % len(d.buttons)
		}
	case "shift+tab", "left", "h":
		if len(d.buttons) > 0 {
			d.focus = (d.focus - 1 + len(d.buttons)) % len(d.buttons)
		}
	case "enter":
		return d.FocusedAction()
	}
	return ""
}

// View renders the dialog centered on the screen. The dialog replaces the
// underlying content while open; the console re-renders the list when it
// closes.
func (d *Dialog) View(screenW, screenH int) string {
	contentWidth := d.width - 4
	if contentWidth > screenW-6 {
		contentWidth = screenW - 6
	}
	if contentWidth < 20 {
		contentWidth = 20
	}

	var parts []string
	if d.title != "" {
		parts = append(parts, titleStyle.Render(d.title))
	}
	for _, s := range d.sections {
		parts = append(parts, s.render(contentWidth))
	}
	if len(d.buttons) > 0 {
		parts = append(parts, "", d.renderButtons())
	}
	parts = append(parts, hintStyle.Render("tab focus  enter select  esc close"))

	frame := frameStyle
	if d.variant == VariantDanger {
		frame = frame.BorderForeground(dangerColor)
	}
	box := frame.Width(contentWidth + 2).Render(strings.Join(parts, "\n"))

	return lipgloss.Place(screenW, screenH, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceChars(" "))
}

// renderButtons renders the button row with focus styling.
func (d *Dialog) renderButtons() string {
	rendered := make([]string, 0, len(d.buttons))
	for i, b := range d.buttons {
		style := buttonStyle
		switch {
		case i == d.focus && b.Danger:
			style = buttonDangerFocusedStyle
		case i == d.focus:
			style = buttonFocusedStyle
		case b.Danger:
			style = buttonDangerStyle
		}
		rendered = append(rendered, style.Render(b.Label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, strings.Join(rendered, "  "))
}
