// Package ui implements the academy console, a terminal front end that
// drives the fragment server the same way the browser UI does: it requests
// HTML fragments, swaps them into named slots, and reacts to out-of-band
// trigger events. A coordinator keeps the shared modal dialog and the
// per-element loading indicators in step with request lifecycles.
package ui

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/marcus/academy/internal/fragment"
	"github.com/marcus/academy/internal/render"
	"github.com/marcus/academy/internal/ui/dialog"
)

// triggerUserListChanged is the out-of-band trigger the server emits when
// the user set changes. It must match the name the serve handlers send.
const triggerUserListChanged = "userListChanged"

// Trigger element IDs. Each in-flight request is attributed to the element
// that started it so only that element shows a loading indicator.
const (
	triggerNewButton   = "btn-new"
	triggerListRefresh = "list-refresh"
	triggerModalSubmit = "modal-submit"
)

// dialogPlaceholder is what the dialog slot holds between opens.
const dialogPlaceholder = "Loading..."

// rowTrigger returns the trigger ID for a user row's action buttons.
func rowTrigger(userID string) string { return "row:" + userID }

// confirmAction is the dialog action ID for approving a confirmation.
const confirmAction = "confirm"

// streamTriggerMsg wraps a message received from the SSE trigger stream so
// the update loop knows to re-arm the stream reader.
type streamTriggerMsg struct {
	inner tea.Msg
}

// confirmState is a confirmation dialog awaiting a decision. action is the
// path to POST on approval; empty means the dialog is informational.
type confirmState struct {
	dialog *dialog.Dialog
	action string
}

// Model is the console's Bubble Tea model.
type Model struct {
	client *fragment.Client
	stream *fragment.TriggerStream
	coord  *Coordinator

	width  int
	height int

	rows    []render.UserRow
	visible []render.UserRow
	cursor  int

	search    textinput.Model
	searching bool

	spin        spinner.Model
	spinRunning bool

	form    *modalForm
	confirm *confirmState

	status   string
	quitting bool
}

// New creates the console model. stream may be nil when the server has no
// event stream reachable; the console then refreshes only on its own
// actions.
func New(client *fragment.Client, stream *fragment.TriggerStream) Model {
	search := textinput.New()
	search.Prompt = "/"
	search.Placeholder = "filter users"
	search.CharLimit = 64

	spin := spinner.New(
		spinner.WithSpinner(spinner.MiniDot),
		spinner.WithStyle(spinnerStyle),
	)

	return Model{
		client: client,
		stream: stream,
		coord:  NewCoordinator(dialogPlaceholder),
		search: search,
		spin:   spin,
		width:  80,
		height: 24,
	}
}

// Init loads the user list and starts listening for server-pushed triggers.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.refreshList(triggerListRefresh)}
	if m.stream != nil {
		cmds = append(cmds, m.waitForTrigger())
	}
	return tea.Batch(cmds...)
}

// refreshList requests the user list fragment, attributed to triggerID.
func (m Model) refreshList(triggerID string) tea.Cmd {
	return m.client.Dispatch(fragment.Request{
		TriggerID: triggerID,
		Target:    TargetUserList,
		Method:    http.MethodGet,
		Path:      "/users/partials/list",
	})
}

// waitForTrigger blocks on the SSE stream and tags the result so the update
// loop can tell stream triggers apart from request-completion triggers.
func (m Model) waitForTrigger() tea.Cmd {
	next := m.stream.Next()
	return func() tea.Msg {
		return streamTriggerMsg{inner: next()}
	}
}

// Update routes messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.coord.AnyLoading() {
			m.spinRunning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case fragment.StartedMsg:
		m.coord.Start(msg.TriggerID)
		if !m.spinRunning {
			m.spinRunning = true
			return m, m.spin.Tick
		}
		return m, nil

	case fragment.CompletedMsg:
		return m.handleCompleted(msg)

	case streamTriggerMsg:
		model, cmd := m.Update(msg.inner)
		next := model.(Model)
		if _, closed := msg.inner.(fragment.StreamClosedMsg); closed {
			return next, cmd
		}
		return next, tea.Batch(cmd, next.waitForTrigger())

	case fragment.TriggerMsg:
		if msg.Name == triggerUserListChanged {
			return m, m.refreshList(triggerListRefresh)
		}
		return m, nil

	case fragment.StreamClosedMsg:
		m.status = "live updates disconnected"
		return m, nil
	}

	// Anything else (blink ticks and the like) belongs to the active form.
	if m.form != nil {
		return m, m.form.Update(msg)
	}
	return m, nil
}

// handleCompleted applies a finished fragment request to the console state.
func (m Model) handleCompleted(msg fragment.CompletedMsg) (tea.Model, tea.Cmd) {
	m.coord.Finish(msg.TriggerID)
	cmds := fragment.TriggerCmds(msg)
	decision := m.coord.Observe(msg)

	switch {
	case msg.Err != nil:
		m.status = "request failed: " + msg.Err.Error()

	case decision.Hide:
		m.coord.Hidden()
		m.form = nil
		m.confirm = nil

	case msg.Target == TargetDialog && msg.Status == http.StatusOK:
		// Covers both the opening fragment and in-place replacements such
		// as a form re-rendered with validation errors.
		if cmd := m.setDialogContent(msg.Body); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case msg.Target == TargetUserList && msg.Status == http.StatusOK:
		rows, err := render.ParseUserList(msg.Body)
		if err != nil {
			m.status = "bad list fragment: " + err.Error()
			break
		}
		m.rows = rows
		m.applyFilter()
		m.status = fmt.Sprintf("%d users", len(rows))

	case msg.Status >= 400:
		m.status = fmt.Sprintf("server returned %d", msg.Status)
	}

	return m, tea.Batch(cmds...)
}

// setDialogContent parses a dialog fragment and installs the matching
// widget: an interactive form, a confirmation prompt, or rendered prose.
func (m *Model) setDialogContent(body string) tea.Cmd {
	m.coord.Swap(body)

	if spec, err := render.ParseForm(body); err == nil && hasEditableFields(spec) {
		m.confirm = nil
		m.form = newModalForm(spec, m.dialogContentWidth())
		return m.form.Init()
	}

	if spec, err := render.ParseConfirm(body); err == nil {
		m.form = nil
		m.confirm = newConfirm(spec)
		return nil
	}

	// Not a form and not a confirmation: show the fragment as prose.
	m.form = nil
	m.confirm = &confirmState{dialog: newInfoDialog(body, m.dialogContentWidth())}
	return nil
}

// handleKey routes key presses to whichever surface has focus.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	if m.coord.State() == ModalOpen {
		return m.handleModalKey(msg)
	}

	if m.searching {
		return m.handleSearchKey(msg)
	}

	return m.handleListKey(msg)
}

// handleModalKey drives the active form or confirmation dialog.
func (m Model) handleModalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.form != nil {
		cmd := m.form.Update(msg)
		switch {
		case m.form.Aborted():
			m.dismissModal()
			return m, nil
		case m.form.Completed() && !m.form.submitted:
			m.form.submitted = true
			spec := m.form.spec
			return m, tea.Batch(cmd, m.client.Dispatch(fragment.Request{
				TriggerID: triggerModalSubmit,
				Target:    TargetDialog,
				Method:    spec.Method,
				Path:      spec.Action,
				Form:      m.form.Submission(),
			}))
		}
		return m, cmd
	}

	if m.confirm != nil {
		switch action := m.confirm.dialog.HandleKey(msg); action {
		case dialog.CancelAction:
			m.dismissModal()
		case confirmAction:
			if m.confirm.action != "" {
				return m, m.client.Dispatch(fragment.Request{
					TriggerID: triggerModalSubmit,
					Target:    TargetDialog,
					Method:    http.MethodPost,
					Path:      m.confirm.action,
				})
			}
			m.dismissModal()
		}
		return m, nil
	}

	// Modal open but content still loading; esc backs out.
	if msg.String() == "esc" {
		m.dismissModal()
	}
	return m, nil
}

// dismissModal closes the modal locally without a server round trip.
func (m *Model) dismissModal() {
	m.coord.Dismiss()
	m.coord.Hidden()
	m.form = nil
	m.confirm = nil
}

// handleSearchKey drives the filter input.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.applyFilter()
		return m, nil
	case "enter":
		m.searching = false
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.applyFilter()
	return m, cmd
}

// handleListKey drives the user list.
func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "j", "down":
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}

	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}

	case "/":
		m.searching = true
		m.search.Focus()
		return m, textinput.Blink

	case "r":
		return m, m.refreshList(triggerListRefresh)

	case "n":
		return m, m.client.Dispatch(fragment.Request{
			TriggerID: triggerNewButton,
			Target:    TargetDialog,
			Method:    http.MethodGet,
			Path:      "/users/new",
		})

	case "e", "enter":
		if row, ok := m.selectedRow(); ok {
			return m, m.client.Dispatch(fragment.Request{
				TriggerID: rowTrigger(row.ID),
				Target:    TargetDialog,
				Method:    http.MethodGet,
				Path:      "/users/" + row.ID + "/edit",
			})
		}

	case "d":
		if row, ok := m.selectedRow(); ok {
			return m, m.client.Dispatch(fragment.Request{
				TriggerID: rowTrigger(row.ID),
				Target:    TargetDialog,
				Method:    http.MethodGet,
				Path:      "/users/" + row.ID + "/delete",
			})
		}
	}
	return m, nil
}

// selectedRow returns the row under the cursor.
func (m Model) selectedRow() (render.UserRow, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return render.UserRow{}, false
	}
	return m.visible[m.cursor], true
}

// applyFilter recomputes the visible rows from the search query.
func (m *Model) applyFilter() {
	query := strings.TrimSpace(m.search.Value())
	if query == "" {
		m.visible = m.rows
	} else {
		matches := fuzzy.FindFrom(query, rowSource(m.rows))
		m.visible = make([]render.UserRow, 0, len(matches))
		for _, match := range matches {
			m.visible = append(m.visible, m.rows[match.Index])
		}
	}

	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// rowSource adapts user rows for fuzzy matching.
type rowSource []render.UserRow

func (s rowSource) String(i int) string { return s[i].SearchText() }
func (s rowSource) Len() int            { return len(s) }

// hasEditableFields reports whether a form needs interactive input.
func hasEditableFields(spec *render.FormSpec) bool {
	for _, f := range spec.Fields {
		if f.Type != render.FieldHidden {
			return true
		}
	}
	return false
}

// newConfirm builds the confirmation dialog for a parsed confirm fragment.
func newConfirm(spec *render.ConfirmSpec) *confirmState {
	submit := spec.Submit
	if submit == "" {
		submit = "Confirm"
	}
	d := dialog.New(spec.Title, dialog.WithVariant(dialog.VariantDanger)).
		AddSection(dialog.Text(spec.Message)).
		AddSection(dialog.Spacer()).
		SetButtons(
			dialog.Button{Label: " " + submit + " ", Action: confirmAction, Danger: true},
			dialog.Button{Label: " Cancel ", Action: dialog.CancelAction},
		)
	return &confirmState{dialog: d, action: spec.Action}
}

// newInfoDialog shows an arbitrary fragment as rendered prose with a single
// close button.
func newInfoDialog(body string, width int) *dialog.Dialog {
	text, err := render.Markdown(body, width)
	if err != nil {
		text = strings.TrimSpace(body)
	}
	return dialog.New("").
		AddSection(dialog.Text(text)).
		AddSection(dialog.Spacer()).
		SetButtons(dialog.Button{Label: " Close ", Action: dialog.CancelAction})
}

// dialogContentWidth returns the usable width inside the modal frame.
func (m Model) dialogContentWidth() int {
	w := 52
	if w > m.width-8 {
		w = m.width - 8
	}
	if w < 20 {
		w = 20
	}
	return w
}
