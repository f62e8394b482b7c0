package dialog

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestHandleKeyFocusAndSelect(t *testing.T) {
	d := New("Confirm delete", WithVariant(VariantDanger)).
		SetButtons(
			Button{Label: " Delete ", Action: "delete", Danger: true},
			Button{Label: " Cancel ", Action: "cancel"},
		)

	if got := d.FocusedAction(); got != "delete" {
		t.Errorf("initial focus = %q, want delete", got)
	}

	if action := d.HandleKey(key("tab")); action != "" {
		t.Errorf("tab returned action %q", action)
	}
	if got := d.FocusedAction(); got != "cancel" {
		t.Errorf("focus after tab = %q, want cancel", got)
	}

	// Wraps around
	d.HandleKey(key("tab"))
	if got := d.FocusedAction(); got != "delete" {
		t.Errorf("focus after wrap = %q, want delete", got)
	}

	d.HandleKey(key("shift+tab"))
	if got := d.FocusedAction(); got != "cancel" {
		t.Errorf("focus after shift+tab = %q, want cancel", got)
	}

	if action := d.HandleKey(key("enter")); action != "cancel" {
		t.Errorf("enter action = %q, want cancel", action)
	}
}

func TestHandleKeyEsc(t *testing.T) {
	d := New("Anything")
	if action := d.HandleKey(key("esc")); action != CancelAction {
		t.Errorf("esc action = %q, want %q", action, CancelAction)
	}
}

func TestHandleKeyNoButtons(t *testing.T) {
	d := New("Empty")
	if action := d.HandleKey(key("enter")); action != "" {
		t.Errorf("enter with no buttons = %q, want empty", action)
	}
	// Focus movement on an empty button row must not panic.
	d.HandleKey(key("tab"))
	d.HandleKey(key("shift+tab"))
}

func TestViewContainsContent(t *testing.T) {
	d := New("Delete ada?").
		AddSection(Text("This cannot be undone.")).
		AddSection(Spacer()).
		SetButtons(Button{Label: " Delete ", Action: "delete", Danger: true})

	out := d.View(100, 30)
	if !strings.Contains(out, "Delete ada?") {
		t.Error("title missing from view")
	}
	if !strings.Contains(out, "cannot be undone") {
		t.Error("text section missing from view")
	}
	if !strings.Contains(out, "Delete") {
		t.Error("button missing from view")
	}
}

func TestViewCustomSection(t *testing.T) {
	var gotWidth int
	d := New("Form").AddSection(Custom(func(w int) string {
		gotWidth = w
		return "FORM-BODY"
	}))

	out := d.View(100, 30)
	if !strings.Contains(out, "FORM-BODY") {
		t.Error("custom section missing from view")
	}
	if gotWidth <= 0 {
		t.Errorf("content width = %d", gotWidth)
	}
}
