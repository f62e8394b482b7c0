package consoleharness

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/academy/internal/fragment"
	"github.com/marcus/academy/internal/models"
	"github.com/marcus/academy/internal/render"
	"github.com/marcus/academy/internal/serve"
	"github.com/marcus/academy/internal/ui"
)

func listRequest() fragment.Request {
	return fragment.Request{
		TriggerID: "list-refresh",
		Target:    ui.TargetUserList,
		Method:    http.MethodGet,
		Path:      "/users/partials/list",
	}
}

func dialogGet(path string) fragment.Request {
	return fragment.Request{
		TriggerID: "btn-new",
		Target:    ui.TargetDialog,
		Method:    http.MethodGet,
		Path:      path,
	}
}

func dialogPost(path string, form url.Values) fragment.Request {
	return fragment.Request{
		TriggerID: "modal-submit",
		Target:    ui.TargetDialog,
		Method:    http.MethodPost,
		Path:      path,
		Form:      form,
	}
}

func validUserForm(username string) url.Values {
	return url.Values{
		"username":  {username},
		"email":     {username + "@academy.test"},
		"full_name": {"Test User"},
		"role":      {"student"},
		"password":  {"supersecret"},
		"is_active": {"on"},
	}
}

// TestCreateUserFlow walks the full modal lifecycle: open the form, submit
// it, observe the close, and see the list change through the out-of-band
// trigger rather than the modal response itself.
func TestCreateUserFlow(t *testing.T) {
	h := New(t, serve.ServeConfig{})
	h.SeedUser("ada", "ada@academy.test", "Ada Lovelace", models.RoleInstructor, true)

	coord := ui.NewCoordinator("Loading...")

	// Initial list
	msg := h.Do(listRequest())
	rows, err := render.ParseUserList(msg.Body)
	if err != nil {
		t.Fatalf("parse list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("initial rows = %d, want 1", len(rows))
	}

	// Open the new-user form
	msg = h.Do(dialogGet("/users/new"))
	decision := coord.Observe(msg)
	if !decision.Show {
		t.Fatal("form fragment did not open the modal")
	}
	if coord.State() != ui.ModalOpen {
		t.Fatal("modal not open")
	}
	coord.Swap(msg.Body)

	spec, err := render.ParseForm(msg.Body)
	if err != nil {
		t.Fatalf("parse form: %v", err)
	}
	if spec.Action != "/users/new" || spec.Method != "POST" {
		t.Fatalf("form action/method = %q %q", spec.Action, spec.Method)
	}

	// Submit
	msg = h.Do(dialogPost(spec.Action, validUserForm("grace")))
	if msg.Status != http.StatusNoContent {
		t.Fatalf("create status = %d, body:\n%s", msg.Status, msg.Body)
	}

	decision = coord.Observe(msg)
	if !decision.Hide {
		t.Fatal("204 did not close the modal")
	}
	coord.Hidden()
	if coord.Content() != "Loading..." {
		t.Errorf("slot content = %q, want placeholder", coord.Content())
	}

	// The list refresh is driven only by the trigger, never by the 204.
	triggered := false
	for _, name := range msg.Triggers {
		if name == "userListChanged" {
			triggered = true
		}
	}
	if !triggered {
		t.Fatalf("triggers = %v, want userListChanged", msg.Triggers)
	}

	msg = h.Do(listRequest())
	rows, err = render.ParseUserList(msg.Body)
	if err != nil {
		t.Fatalf("parse refreshed list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows after create = %d, want 2", len(rows))
	}
}

// TestValidationKeepsModalOpen submits an invalid form and checks the
// re-rendered fragment replaces the modal content without closing it.
func TestValidationKeepsModalOpen(t *testing.T) {
	h := New(t, serve.ServeConfig{})
	coord := ui.NewCoordinator("Loading...")

	msg := h.Do(dialogGet("/users/new"))
	coord.Observe(msg)
	coord.Swap(msg.Body)

	bad := validUserForm("x") // username too short
	bad.Set("email", "not-an-email")
	msg = h.Do(dialogPost("/users/new", bad))
	if msg.Status != http.StatusOK {
		t.Fatalf("invalid submit status = %d, want 200", msg.Status)
	}
	if len(msg.Triggers) != 0 {
		t.Errorf("invalid submit carried triggers %v", msg.Triggers)
	}

	decision := coord.Observe(msg)
	if decision.Show || decision.Hide {
		t.Errorf("decision = %+v, want in-place replace", decision)
	}
	if coord.State() != ui.ModalOpen {
		t.Error("modal closed on validation failure")
	}

	spec, err := render.ParseForm(msg.Body)
	if err != nil {
		t.Fatalf("parse re-rendered form: %v", err)
	}
	if !spec.HasErrors() {
		t.Error("re-rendered form carries no errors")
	}
	if f := spec.Field("username"); f == nil || f.Value != "x" {
		t.Errorf("username not preserved: %+v", f)
	}
}

// TestDeleteUserFlow drives the confirm fragment and the delete POST.
func TestDeleteUserFlow(t *testing.T) {
	h := New(t, serve.ServeConfig{})
	u := h.SeedUser("ada", "ada@academy.test", "Ada Lovelace", models.RoleInstructor, true)
	coord := ui.NewCoordinator("Loading...")

	msg := h.Do(dialogGet("/users/" + u.ID + "/delete"))
	if d := coord.Observe(msg); !d.Show {
		t.Fatal("confirm fragment did not open the modal")
	}

	spec, err := render.ParseConfirm(msg.Body)
	if err != nil {
		t.Fatalf("parse confirm: %v", err)
	}
	if !strings.Contains(spec.Title, "ada") {
		t.Errorf("confirm title = %q", spec.Title)
	}

	msg = h.Do(dialogPost(spec.Action, nil))
	if msg.Status != http.StatusNoContent {
		t.Fatalf("delete status = %d", msg.Status)
	}
	if d := coord.Observe(msg); !d.Hide {
		t.Fatal("delete 204 did not close the modal")
	}

	msg = h.Do(listRequest())
	rows, _ := render.ParseUserList(msg.Body)
	if len(rows) != 0 {
		t.Errorf("rows after delete = %d, want 0", len(rows))
	}
}

// TestEditUserFlow checks the prefilled edit form and the update POST.
func TestEditUserFlow(t *testing.T) {
	h := New(t, serve.ServeConfig{})
	u := h.SeedUser("ada", "ada@academy.test", "Ada Lovelace", models.RoleStudent, true)

	msg := h.Do(dialogGet("/users/" + u.ID + "/edit"))
	spec, err := render.ParseForm(msg.Body)
	if err != nil {
		t.Fatalf("parse edit form: %v", err)
	}
	if f := spec.Field("username"); f == nil || f.Value != "ada" {
		t.Fatalf("username not prefilled: %+v", f)
	}

	form := validUserForm("ada")
	form.Set("role", "instructor")
	form.Del("password") // keep existing
	msg = h.Do(dialogPost(spec.Action, form))
	if msg.Status != http.StatusNoContent {
		t.Fatalf("update status = %d, body:\n%s", msg.Status, msg.Body)
	}

	got, err := h.Store.GetUser(u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.Role != models.RoleInstructor {
		t.Errorf("role = %q, want instructor", got.Role)
	}
}

// TestTriggerStreamDeliversBroadcast checks that a mutation made by one
// client reaches another client through the event stream.
func TestTriggerStreamDeliversBroadcast(t *testing.T) {
	h := New(t, serve.ServeConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := h.Client.OpenTriggerStream(ctx)

	// Give the stream a moment to connect before mutating.
	time.Sleep(200 * time.Millisecond)

	if msg := h.Do(dialogPost("/users/new", validUserForm("grace"))); msg.Status != http.StatusNoContent {
		t.Fatalf("create status = %d", msg.Status)
	}

	got := make(chan tea.Msg, 1)
	go func() { got <- stream.Next()() }()

	select {
	case msg := <-got:
		trigger, ok := msg.(fragment.TriggerMsg)
		if !ok {
			t.Fatalf("stream message = %T", msg)
		}
		if trigger.Name != "userListChanged" {
			t.Errorf("trigger = %q", trigger.Name)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no trigger received from event stream")
	}
}
