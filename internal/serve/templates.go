package serve

import (
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/marcus/academy/internal/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// roleOption is one entry in the role select.
type roleOption struct {
	Value string
	Label string
}

// roleOptions lists the selectable roles in display order.
func roleOptions() []roleOption {
	opts := make([]roleOption, 0, len(models.Roles))
	for _, r := range models.Roles {
		opts = append(opts, roleOption{Value: string(r), Label: r.Label()})
	}
	return opts
}

// formValues carries the current input values into the form template.
type formValues struct {
	Username string
	Email    string
	FullName string
	Role     string
	IsActive bool
}

// userFormData is the template context for the user form fragment.
type userFormData struct {
	Title       string
	Action      string
	Submit      string
	IsNew       bool
	Values      formValues
	Roles       []roleOption
	FieldErrors map[string]string
	FormErrors  []string
}

// userListData is the template context for the user list fragment.
type userListData struct {
	Users []models.User
	Query string
}

// deleteConfirmData is the template context for the delete confirmation.
type deleteConfirmData struct {
	User *models.User
}

// renderFragment writes a template as an HTML fragment with the given
// status code.
func renderFragment(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("render fragment", "template", name, "err", err)
	}
}

// writeProcessed answers a successfully processed form: no replacement
// content, just the out-of-band trigger for dependent regions.
func writeProcessed(w http.ResponseWriter, trigger string) {
	if trigger != "" {
		w.Header().Set("HX-Trigger", trigger)
	}
	w.WriteHeader(http.StatusNoContent)
}

// editAction builds the form action path for an existing user.
func editAction(id string) string {
	return fmt.Sprintf("/users/%s/edit", id)
}
