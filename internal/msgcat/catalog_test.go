package msgcat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedDefaults(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := c.Render("ladder.missing", map[string]string{"Invasion": "20260815-everfall"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "20260815-everfall") {
		t.Fatalf("rendered = %q", out)
	}

	if _, err := c.Render("no.such.key", nil); err == nil {
		t.Fatal("missing key did not error")
	}
	if got := c.MustRender("no.such.key", nil); got != "no.such.key" {
		t.Fatalf("MustRender fallback = %q", got)
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	override := "ladder:\n  missing: \"custom {{.Invasion}}\"\n"
	if err := os.WriteFile(filepath.Join(dir, "override.yaml"), []byte(override), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := c.Render("ladder.missing", map[string]string{"Invasion": "x"})
	if err != nil || out != "custom x" {
		t.Fatalf("override render = %q, %v", out, err)
	}
	// Keys not overridden keep their defaults.
	if _, err := c.Render("help.main", map[string]string{"Prefix": "!"}); err != nil {
		t.Fatalf("default key lost: %v", err)
	}
}
