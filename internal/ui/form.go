package ui

import (
	"net/url"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/marcus/academy/internal/render"
)

// modalForm adapts a parsed form fragment into an interactive huh form.
// Hidden fields never become widgets; their values are carried straight
// through to the submission.
type modalForm struct {
	spec      *render.FormSpec
	form      *huh.Form
	values    map[string]*string
	checks    map[string]*bool
	submitted bool
}

// newModalForm builds the interactive form. Server-side validation errors
// are shown as field descriptions so a re-rendered form reads the same way
// the browser version does.
func newModalForm(spec *render.FormSpec, width int) *modalForm {
	mf := &modalForm{
		spec:   spec,
		values: make(map[string]*string),
		checks: make(map[string]*bool),
	}

	var fields []huh.Field
	for _, f := range spec.Fields {
		switch f.Type {
		case render.FieldHidden:
			// carried through on submit

		case render.FieldCheckbox:
			checked := f.Checked
			mf.checks[f.Name] = &checked
			fields = append(fields, huh.NewConfirm().
				Title(f.Label).
				Description(f.Error).
				Affirmative("Yes").
				Negative("No").
				Value(&checked))

		case render.FieldSelect:
			value := f.Value
			mf.values[f.Name] = &value
			opts := make([]huh.Option[string], 0, len(f.Options))
			for _, o := range f.Options {
				opts = append(opts, huh.NewOption(o.Label, o.Value))
			}
			fields = append(fields, huh.NewSelect[string]().
				Title(f.Label).
				Description(f.Error).
				Options(opts...).
				Value(&value))

		default:
			value := f.Value
			mf.values[f.Name] = &value
			input := huh.NewInput().
				Title(f.Label).
				Description(f.Error).
				Value(&value)
			if f.Type == render.FieldPassword {
				input = input.EchoMode(huh.EchoModePassword)
			}
			fields = append(fields, input)
		}
	}

	mf.form = huh.NewForm(huh.NewGroup(fields...)).
		WithWidth(width).
		WithShowHelp(false)
	return mf
}

// Init starts the form.
func (mf *modalForm) Init() tea.Cmd {
	return mf.form.Init()
}

// Update forwards a message to the form.
func (mf *modalForm) Update(msg tea.Msg) tea.Cmd {
	model, cmd := mf.form.Update(msg)
	if form, ok := model.(*huh.Form); ok {
		mf.form = form
	}
	return cmd
}

// View renders the form body.
func (mf *modalForm) View() string {
	return mf.form.View()
}

// Completed reports whether the user submitted the form.
func (mf *modalForm) Completed() bool {
	return mf.form.State == huh.StateCompleted
}

// Aborted reports whether the user backed out of the form.
func (mf *modalForm) Aborted() bool {
	return mf.form.State == huh.StateAborted
}

// Submission collects the form values for the POST back to the server.
// Checkboxes follow the browser convention: present when checked, absent
// otherwise.
func (mf *modalForm) Submission() url.Values {
	out := url.Values{}
	for _, f := range mf.spec.Fields {
		switch f.Type {
		case render.FieldHidden:
			out.Set(f.Name, f.Value)
		case render.FieldCheckbox:
			if checked := mf.checks[f.Name]; checked != nil && *checked {
				out.Set(f.Name, "on")
			}
		default:
			if value := mf.values[f.Name]; value != nil {
				out.Set(f.Name, *value)
			}
		}
	}
	return out
}
