package serve

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPortFileRoundTrip(t *testing.T) {
	dir := t.TempDir()

	info := &PortInfo{
		Port:      4321,
		PID:       os.Getpid(),
		StartedAt: time.Now(),
	}
	// This process is alive but serves nothing on 4321, so a pre-existing
	// file would be treated as stale; the write must succeed.
	if err := WritePortFile(dir, info); err != nil {
		t.Fatalf("write port file: %v", err)
	}

	got, err := ReadPortFile(dir)
	if err != nil {
		t.Fatalf("read port file: %v", err)
	}
	if got.Port != 4321 || got.PID != os.Getpid() {
		t.Errorf("got %+v", got)
	}

	if err := DeletePortFile(dir); err != nil {
		t.Fatalf("delete port file: %v", err)
	}
	if _, err := ReadPortFile(dir); err == nil {
		t.Error("expected error after delete")
	}
	// Deleting again is fine
	if err := DeletePortFile(dir); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestReadPortFileValidation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".academy", "serve-port")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(`{"port":0,"pid":123}`), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := ReadPortFile(dir); err == nil {
		t.Error("expected error for missing port")
	}
}

func TestDiscoverServerNoFile(t *testing.T) {
	if got := DiscoverServer(t.TempDir()); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestIsPortFileStaleDeadPID(t *testing.T) {
	// PID 1 exists but is not ours to signal on most systems; use an
	// unlikely-to-exist PID instead.
	info := &PortInfo{Port: 1, PID: 1 << 22}
	if !IsPortFileStale(info) {
		t.Error("expected stale for dead pid")
	}
}
