package store

import (
	"errors"
	"testing"

	"github.com/marcus/academy/internal/models"
)

// newTestStore opens a store against a temp directory.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testUser(username string) *models.User {
	return &models.User{
		Username: username,
		Email:    username + "@academy.test",
		FullName: "Test User",
		Role:     models.RoleStudent,
		IsActive: true,
	}
}

func TestCreateAndGetUser(t *testing.T) {
	s := newTestStore(t)

	u := testUser("amina")
	if err := s.CreateUser(u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.ID == "" {
		t.Fatal("expected generated ID")
	}

	got, err := s.GetUser(u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.Username != "amina" || got.Email != "amina@academy.test" {
		t.Errorf("got %q/%q, want amina/amina@academy.test", got.Username, got.Email)
	}
	if got.Role != models.RoleStudent {
		t.Errorf("role = %q, want student", got.Role)
	}
	if !got.IsActive {
		t.Error("expected active user")
	}
}

func TestGetUserNormalizesID(t *testing.T) {
	s := newTestStore(t)

	u := testUser("karim")
	if err := s.CreateUser(u); err != nil {
		t.Fatalf("create user: %v", err)
	}

	bare := u.ID[len("usr_"):]
	got, err := s.GetUser(bare)
	if err != nil {
		t.Fatalf("get user with bare id: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("id = %q, want %q", got.ID, u.ID)
	}
}

func TestCreateUserDuplicate(t *testing.T) {
	s := newTestStore(t)

	if err := s.CreateUser(testUser("dupe")); err != nil {
		t.Fatalf("create user: %v", err)
	}

	err := s.CreateUser(testUser("dupe"))
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
}

func TestUpdateUser(t *testing.T) {
	s := newTestStore(t)

	u := testUser("lena")
	if err := s.CreateUser(u); err != nil {
		t.Fatalf("create user: %v", err)
	}

	u.FullName = "Lena Petrov"
	u.Role = models.RoleInstructor
	u.PasswordHash = "" // must not clobber the stored hash
	if err := s.UpdateUser(u); err != nil {
		t.Fatalf("update user: %v", err)
	}

	got, err := s.GetUser(u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.FullName != "Lena Petrov" {
		t.Errorf("full name = %q", got.FullName)
	}
	if got.Role != models.RoleInstructor {
		t.Errorf("role = %q, want instructor", got.Role)
	}
}

func TestUpdateMissingUser(t *testing.T) {
	s := newTestStore(t)

	u := testUser("ghost")
	u.ID = "usr_deadbeef"
	if err := s.UpdateUser(u); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteUser(t *testing.T) {
	s := newTestStore(t)

	u := testUser("temp")
	if err := s.CreateUser(u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := s.DeleteUser(u.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if _, err := s.GetUser(u.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after delete", err)
	}
	if err := s.DeleteUser(u.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestCountUsers(t *testing.T) {
	s := newTestStore(t)

	n, err := s.CountUsers()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("count = %d, want 0 on empty store", n)
	}

	for _, name := range []string{"amina", "karim"} {
		if err := s.CreateUser(testUser(name)); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	n, err = s.CountUsers()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}

func TestListUsersFilters(t *testing.T) {
	s := newTestStore(t)

	seed := []*models.User{
		{Username: "ada", Email: "ada@academy.test", FullName: "Ada Lovelace", Role: models.RoleInstructor, IsActive: true},
		{Username: "bob", Email: "bob@academy.test", FullName: "Bob Tables", Role: models.RoleStudent, IsActive: true},
		{Username: "carol", Email: "carol@academy.test", FullName: "Carol Danvers", Role: models.RoleStudent, IsActive: false},
	}
	for _, u := range seed {
		if err := s.CreateUser(u); err != nil {
			t.Fatalf("create %s: %v", u.Username, err)
		}
	}

	tests := []struct {
		name string
		opts ListUsersOptions
		want []string
	}{
		{"default excludes inactive", ListUsersOptions{}, []string{"ada", "bob"}},
		{"include inactive", ListUsersOptions{IncludeInactive: true}, []string{"ada", "bob", "carol"}},
		{"search by name", ListUsersOptions{Search: "lovelace"}, []string{"ada"}},
		{"search by email", ListUsersOptions{Search: "BOB@"}, []string{"bob"}},
		{"filter role", ListUsersOptions{Role: models.RoleStudent}, []string{"bob"}},
		{"no match", ListUsersOptions{Search: "zebra"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, err := s.ListUsers(tt.opts)
			if err != nil {
				t.Fatalf("list users: %v", err)
			}
			var got []string
			for _, u := range users {
				got = append(got, u.Username)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestEnsureAdmin(t *testing.T) {
	s := newTestStore(t)

	created, err := s.EnsureAdmin("root", "root@academy.test", "hunter22")
	if err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	if !created {
		t.Fatal("expected admin to be created")
	}

	u, err := s.GetUserByUsername("root")
	if err != nil {
		t.Fatalf("get admin: %v", err)
	}
	if u.Role != models.RoleAdmin {
		t.Errorf("role = %q, want admin", u.Role)
	}
	if !CheckPassword(u, "hunter22") {
		t.Error("password check failed for correct password")
	}
	if CheckPassword(u, "wrong") {
		t.Error("password check passed for wrong password")
	}

	// Second call is a no-op
	created, err = s.EnsureAdmin("root", "root@academy.test", "other")
	if err != nil {
		t.Fatalf("ensure admin again: %v", err)
	}
	if created {
		t.Error("expected no new admin on second call")
	}
}
