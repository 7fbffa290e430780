package scratch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewAndRelease(t *testing.T) {
	parent := filepath.Join(t.TempDir(), "nested")

	d, err := New(parent, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(d.Path()), dirPrefix) {
		t.Errorf("Path() = %q, want prefix %q", d.Path(), dirPrefix)
	}
	if err := os.WriteFile(filepath.Join(d.Path(), "audio.webm"), []byte("data"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if err := d.Release(); err != nil {
		t.Fatalf("Release() error: %v", err)
	}
	if _, err := os.Stat(d.Path()); !os.IsNotExist(err) {
		t.Errorf("scratch dir still exists after Release: %v", err)
	}
	if err := d.Release(); err != nil {
		t.Errorf("second Release() error: %v", err)
	}
}

func TestDirsAreDistinct(t *testing.T) {
	parent := t.TempDir()
	a, err := New(parent, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	b, err := New(parent, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if a.Path() == b.Path() {
		t.Errorf("two scratch dirs share path %q", a.Path())
	}
}
