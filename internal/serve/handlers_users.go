package serve

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/marcus/academy/internal/models"
	"github.com/marcus/academy/internal/store"
)

// userListChanged is the out-of-band trigger consumed by list regions.
const userListChanged = "userListChanged"

var validate = validator.New()

// userForm is the parsed and validated create/edit submission.
type userForm struct {
	Username string `validate:"required,min=3,max=64"`
	Email    string `validate:"required,email"`
	FullName string `validate:"max=128"`
	Role     string `validate:"required,oneof=admin instructor student"`
	Password string `validate:"omitempty,min=8"`
	IsActive bool
}

// parseUserForm reads the submitted form values.
func parseUserForm(r *http.Request) (userForm, error) {
	if err := r.ParseForm(); err != nil {
		return userForm{}, err
	}
	return userForm{
		Username: r.PostForm.Get("username"),
		Email:    r.PostForm.Get("email"),
		FullName: r.PostForm.Get("full_name"),
		Role:     r.PostForm.Get("role"),
		Password: r.PostForm.Get("password"),
		IsActive: r.PostForm.Get("is_active") != "",
	}, nil
}

// fieldErrors maps validation failures to per-field messages shown inside
// the form fragment.
func fieldErrors(err error) map[string]string {
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return out
	}
	for _, fe := range verrs {
		switch fe.Field() {
		case "Username":
			switch fe.Tag() {
			case "required":
				out["username"] = "Username is required."
			case "min":
				out["username"] = "Username must be at least 3 characters."
			default:
				out["username"] = "Username must be at most 64 characters."
			}
		case "Email":
			if fe.Tag() == "required" {
				out["email"] = "Email is required."
			} else {
				out["email"] = "Enter a valid email address."
			}
		case "FullName":
			out["full_name"] = "Full name must be at most 128 characters."
		case "Role":
			out["role"] = "Choose a valid role."
		case "Password":
			out["password"] = "Password must be at least 8 characters."
		}
	}
	return out
}

// values converts a submission back into template form values so invalid
// input is preserved across re-renders. Passwords are never echoed.
func (f userForm) values() formValues {
	return formValues{
		Username: f.Username,
		Email:    f.Email,
		FullName: f.FullName,
		Role:     f.Role,
		IsActive: f.IsActive,
	}
}

// ============================================================================
// List
// ============================================================================

// handleUserList renders the user list fragment, filtered by the q query
// parameter.
func (s *Server) handleUserList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	users, err := s.store.ListUsers(store.ListUsersOptions{
		Search:          query,
		IncludeInactive: true,
	})
	if err != nil {
		slog.Error("list users", "err", err)
		http.Error(w, "list users failed", http.StatusInternalServerError)
		return
	}

	renderFragment(w, http.StatusOK, "user_list.tmpl", userListData{
		Users: users,
		Query: query,
	})
}

// ============================================================================
// Create
// ============================================================================

// newUserFormData builds the template context for the create form.
func newUserFormData(values formValues, fieldErrs map[string]string, formErrs []string) userFormData {
	return userFormData{
		Title:       "New User",
		Action:      "/users/new",
		Submit:      "Create user",
		IsNew:       true,
		Values:      values,
		Roles:       roleOptions(),
		FieldErrors: fieldErrs,
		FormErrors:  formErrs,
	}
}

// handleUserCreateForm renders an empty create form fragment.
func (s *Server) handleUserCreateForm(w http.ResponseWriter, r *http.Request) {
	renderFragment(w, http.StatusOK, "user_form.tmpl", newUserFormData(
		formValues{Role: string(models.RoleStudent), IsActive: true}, nil, nil))
}

// handleUserCreate processes a create submission. Valid input answers 204
// with the list trigger; invalid input re-renders the form with errors.
func (s *Server) handleUserCreate(w http.ResponseWriter, r *http.Request) {
	form, err := parseUserForm(r)
	if err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}

	fieldErrs := map[string]string{}
	if err := validate.Struct(form); err != nil {
		fieldErrs = fieldErrors(err)
	}
	if form.Password == "" {
		fieldErrs["password"] = "Password is required."
	}
	if len(fieldErrs) > 0 {
		renderFragment(w, http.StatusOK, "user_form.tmpl", newUserFormData(form.values(), fieldErrs, nil))
		return
	}

	hash, err := store.HashPassword(form.Password)
	if err != nil {
		slog.Error("hash password", "err", err)
		http.Error(w, "create user failed", http.StatusInternalServerError)
		return
	}

	u := &models.User{
		Username:     form.Username,
		Email:        form.Email,
		FullName:     form.FullName,
		Role:         models.Role(form.Role),
		IsActive:     form.IsActive,
		PasswordHash: hash,
	}
	if err := s.store.CreateUser(u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			renderFragment(w, http.StatusOK, "user_form.tmpl", newUserFormData(
				form.values(), nil, []string{"Username or email already taken."}))
			return
		}
		slog.Error("create user", "err", err)
		http.Error(w, "create user failed", http.StatusInternalServerError)
		return
	}

	s.hub.Broadcast(userListChanged)
	writeProcessed(w, userListChanged)
}

// ============================================================================
// Update
// ============================================================================

// editUserFormData builds the template context for the edit form.
func editUserFormData(id string, values formValues, fieldErrs map[string]string, formErrs []string) userFormData {
	return userFormData{
		Title:       "Edit User",
		Action:      editAction(id),
		Submit:      "Save changes",
		IsNew:       false,
		Values:      values,
		Roles:       roleOptions(),
		FieldErrors: fieldErrs,
		FormErrors:  formErrs,
	}
}

// handleUserEditForm renders the edit form pre-filled with the user's
// current values.
func (s *Server) handleUserEditForm(w http.ResponseWriter, r *http.Request) {
	u, ok := s.lookupUser(w, r)
	if !ok {
		return
	}

	values := formValues{
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     string(u.Role),
		IsActive: u.IsActive,
	}
	renderFragment(w, http.StatusOK, "user_form.tmpl", editUserFormData(u.ID, values, nil, nil))
}

// handleUserEdit processes an edit submission.
func (s *Server) handleUserEdit(w http.ResponseWriter, r *http.Request) {
	u, ok := s.lookupUser(w, r)
	if !ok {
		return
	}

	form, err := parseUserForm(r)
	if err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}

	if err := validate.Struct(form); err != nil {
		renderFragment(w, http.StatusOK, "user_form.tmpl",
			editUserFormData(u.ID, form.values(), fieldErrors(err), nil))
		return
	}

	u.Username = form.Username
	u.Email = form.Email
	u.FullName = form.FullName
	u.Role = models.Role(form.Role)
	u.IsActive = form.IsActive
	u.PasswordHash = ""
	if form.Password != "" {
		hash, err := store.HashPassword(form.Password)
		if err != nil {
			slog.Error("hash password", "err", err)
			http.Error(w, "update user failed", http.StatusInternalServerError)
			return
		}
		u.PasswordHash = hash
	}

	if err := s.store.UpdateUser(u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			renderFragment(w, http.StatusOK, "user_form.tmpl", editUserFormData(
				u.ID, form.values(), nil, []string{"Username or email already taken."}))
			return
		}
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		slog.Error("update user", "err", err)
		http.Error(w, "update user failed", http.StatusInternalServerError)
		return
	}

	s.hub.Broadcast(userListChanged)
	writeProcessed(w, userListChanged)
}

// ============================================================================
// Delete
// ============================================================================

// handleUserDeleteConfirm renders the delete confirmation fragment.
func (s *Server) handleUserDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	u, ok := s.lookupUser(w, r)
	if !ok {
		return
	}
	renderFragment(w, http.StatusOK, "delete_confirm.tmpl", deleteConfirmData{User: u})
}

// handleUserDelete deletes the user and signals list regions to refresh.
func (s *Server) handleUserDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteUser(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		slog.Error("delete user", "err", err)
		http.Error(w, "delete user failed", http.StatusInternalServerError)
		return
	}

	s.hub.Broadcast(userListChanged)
	writeProcessed(w, userListChanged)
}

// lookupUser resolves the {id} path value, writing a 404 when absent.
func (s *Server) lookupUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	u, err := s.store.GetUser(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return nil, false
		}
		slog.Error("get user", "err", err)
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return nil, false
	}
	return u, true
}
