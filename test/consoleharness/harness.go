// Package consoleharness runs a real fragment server over an in-memory
// database so console flows can be exercised end to end: HTTP round trips,
// fragment parsing, trigger propagation, and the modal lifecycle.
package consoleharness

import (
	"context"
	"database/sql"
	"net/http/httptest"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/marcus/academy/internal/fragment"
	"github.com/marcus/academy/internal/models"
	"github.com/marcus/academy/internal/serve"
	"github.com/marcus/academy/internal/store"
)

// Harness wires a store, a fragment server, and a client together.
type Harness struct {
	t      *testing.T
	Store  *store.Store
	Server *serve.Server
	HTTP   *httptest.Server
	Client *fragment.Client
}

// New starts a server over a fresh in-memory database. Everything is torn
// down through t.Cleanup.
func New(t *testing.T, config serve.ServeConfig) *Harness {
	t.Helper()

	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	// Each connection to :memory: is a separate database.
	conn.SetMaxOpenConns(1)

	st, err := store.Wrap(conn)
	if err != nil {
		t.Fatalf("wrap store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	if config.PingInterval == 0 {
		config.PingInterval = 100 * time.Millisecond
	}

	srv := serve.NewServer(st, config)
	srv.Hub().Start(context.Background())
	t.Cleanup(srv.Hub().Stop)

	hts := httptest.NewServer(srv.Handler())
	t.Cleanup(hts.Close)

	return &Harness{
		t:      t,
		Store:  st,
		Server: srv,
		HTTP:   hts,
		Client: fragment.NewClient(hts.URL, config.Token),
	}
}

// SeedUser inserts a user directly into the store.
func (h *Harness) SeedUser(username, email, fullName string, role models.Role, active bool) *models.User {
	h.t.Helper()

	u := &models.User{
		Username: username,
		Email:    email,
		FullName: fullName,
		Role:     role,
		IsActive: active,
	}
	if err := h.Store.CreateUser(u); err != nil {
		h.t.Fatalf("seed user %s: %v", username, err)
	}
	return u
}

// Do performs a fragment request and fails the test on transport errors.
func (h *Harness) Do(req fragment.Request) fragment.CompletedMsg {
	h.t.Helper()

	msg := h.Client.Do(req)
	if msg.Err != nil {
		h.t.Fatalf("%s %s: %v", req.Method, req.Path, msg.Err)
	}
	return msg
}
