package render

import (
	"strings"
	"testing"
)

func TestMarkdownStripsScripts(t *testing.T) {
	html := `<div><h2>Delete ada?</h2><script>alert("x")</script><p>This cannot be undone.</p></div>`

	out, err := Markdown(html, 60)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(out, "alert") {
		t.Errorf("script content leaked into output: %q", out)
	}
	if !strings.Contains(out, "Delete ada?") {
		t.Errorf("heading missing from output: %q", out)
	}
	if !strings.Contains(out, "cannot be undone") {
		t.Errorf("body missing from output: %q", out)
	}
}

func TestParseFormFields(t *testing.T) {
	html := `
<form action="/users/new" method="post" data-title="New User">
  <div class="field">
    <label for="username">Username</label>
    <input type="text" name="username" value="ada">
  </div>
  <div class="field">
    <label for="email">Email</label>
    <input type="email" name="email" value="">
    <p class="error">Enter a valid email address.</p>
  </div>
  <div class="field">
    <label for="role">Role</label>
    <select name="role">
      <option value="admin">Admin</option>
      <option value="student" selected>Student</option>
    </select>
  </div>
  <div class="field">
    <label for="is_active">Active</label>
    <input type="checkbox" name="is_active" checked>
  </div>
  <button type="submit">Create user</button>
</form>`

	spec, err := ParseForm(html)
	if err != nil {
		t.Fatalf("parse form: %v", err)
	}

	if spec.Action != "/users/new" || spec.Method != "POST" {
		t.Errorf("action/method = %q %q", spec.Action, spec.Method)
	}
	if spec.Title != "New User" {
		t.Errorf("title = %q", spec.Title)
	}
	if spec.Submit != "Create user" {
		t.Errorf("submit = %q", spec.Submit)
	}
	if len(spec.Fields) != 4 {
		t.Fatalf("fields = %d, want 4", len(spec.Fields))
	}

	username := spec.Field("username")
	if username == nil || username.Value != "ada" || username.Label != "Username" {
		t.Errorf("username field = %+v", username)
	}

	email := spec.Field("email")
	if email == nil || email.Error != "Enter a valid email address." {
		t.Errorf("email field = %+v", email)
	}
	if !spec.HasErrors() {
		t.Error("expected HasErrors")
	}

	role := spec.Field("role")
	if role == nil || role.Type != FieldSelect {
		t.Fatalf("role field = %+v", role)
	}
	if role.Value != "student" {
		t.Errorf("role value = %q, want selected option", role.Value)
	}
	if len(role.Options) != 2 || role.Options[0].Label != "Admin" {
		t.Errorf("role options = %+v", role.Options)
	}

	active := spec.Field("is_active")
	if active == nil || active.Type != FieldCheckbox || !active.Checked {
		t.Errorf("is_active field = %+v", active)
	}
}

func TestParseFormLevelErrors(t *testing.T) {
	html := `
<form action="/users/new" method="post">
  <ul class="form-errors"><li>Username or email already taken.</li></ul>
  <input type="text" name="username" value="dupe">
  <button type="submit">Create</button>
</form>`

	spec, err := ParseForm(html)
	if err != nil {
		t.Fatalf("parse form: %v", err)
	}
	if len(spec.Errors) != 1 || spec.Errors[0] != "Username or email already taken." {
		t.Errorf("errors = %v", spec.Errors)
	}
	if !spec.HasErrors() {
		t.Error("expected HasErrors")
	}
}

func TestParseFormMissing(t *testing.T) {
	if _, err := ParseForm("<div>no form here</div>"); err == nil {
		t.Error("expected error for fragment without form")
	}
}

func TestParseConfirm(t *testing.T) {
	html := `
<div class="confirm">
  <h2>Delete ada?</h2>
  <p>This permanently removes Ada Lovelace (ada@academy.test) from the platform. This cannot be undone.</p>
  <form action="/users/usr_1/delete" method="post" data-title="Confirm delete">
    <button type="submit">Delete</button>
  </form>
</div>`

	spec, err := ParseConfirm(html)
	if err != nil {
		t.Fatalf("parse confirm: %v", err)
	}
	if spec.Title != "Delete ada?" {
		t.Errorf("title = %q", spec.Title)
	}
	if spec.Action != "/users/usr_1/delete" {
		t.Errorf("action = %q", spec.Action)
	}
	if spec.Submit != "Delete" {
		t.Errorf("submit = %q", spec.Submit)
	}
	if !strings.Contains(spec.Message, "cannot be undone") {
		t.Errorf("message = %q", spec.Message)
	}
}

func TestParseConfirmMissingForm(t *testing.T) {
	if _, err := ParseConfirm("<p>nothing to confirm</p>"); err == nil {
		t.Error("expected error for fragment without form")
	}
}

func TestParseUserList(t *testing.T) {
	html := `
<table class="user-list">
  <tbody>
    <tr data-id="usr_1" data-active="true">
      <td class="username">ada</td>
      <td class="full-name">Ada Lovelace</td>
      <td class="email">ada@academy.test</td>
      <td class="role">instructor</td>
    </tr>
    <tr data-id="usr_2" data-active="false">
      <td class="username">carol</td>
      <td class="full-name">Carol Danvers</td>
      <td class="email">carol@academy.test</td>
      <td class="role">student</td>
    </tr>
  </tbody>
</table>`

	rows, err := ParseUserList(html)
	if err != nil {
		t.Fatalf("parse list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].ID != "usr_1" || rows[0].Username != "ada" || !rows[0].Active {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[1].Role != "student" || rows[1].Active {
		t.Errorf("row 1 = %+v", rows[1])
	}
}

func TestParseUserListEmpty(t *testing.T) {
	rows, err := ParseUserList(`<p class="empty">No users found.</p>`)
	if err != nil {
		t.Fatalf("parse list: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("rows = %d, want 0", len(rows))
	}
}
