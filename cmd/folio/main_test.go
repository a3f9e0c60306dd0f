package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func testFlags(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()
	return []string{
		"--config", filepath.Join(dir, "missing.toml"),
		"--data", filepath.Join(dir, "data"),
		"--log-level", "error",
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version", "--short")
	if err != nil || strings.TrimSpace(out) != version {
		t.Errorf("version = %q, %v", out, err)
	}
}

func TestDocumentCommands(t *testing.T) {
	flags := testFlags(t)
	src := filepath.Join(t.TempDir(), "in.md")
	if err := os.WriteFile(src, []byte("# Notes\n\nfirst\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, append([]string{"new", src}, flags...)...)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	id := strings.TrimSpace(out)
	if id == "" {
		t.Fatal("new printed no id")
	}

	out, err = execute(t, append([]string{"list"}, flags...)...)
	if err != nil || !strings.Contains(out, id) || !strings.Contains(out, "Notes") {
		t.Errorf("list = %q, %v", out, err)
	}

	out, err = execute(t, append([]string{"run", id, "SET_BLOCK_TYPE_COMMAND", `"h2"`}, flags...)...)
	if err != nil || !strings.Contains(out, "handled") {
		t.Fatalf("run = %q, %v", out, err)
	}

	out, err = execute(t, append([]string{"export", id, "--format", "markdown"}, flags...)...)
	if err != nil || out != "## Notes\n\nfirst\n" {
		t.Errorf("export = %q, %v", out, err)
	}

	jsonPath := filepath.Join(t.TempDir(), "doc.json")
	if _, err := execute(t, append([]string{"export", id, "-o", jsonPath}, flags...)...); err != nil {
		t.Fatalf("export json: %v", err)
	}
	out, err = execute(t, append([]string{"import", jsonPath}, flags...)...)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	copyID := strings.TrimSpace(out)
	if copyID == id || copyID == "" {
		t.Errorf("import id = %q", copyID)
	}

	out, err = execute(t, append([]string{"show", copyID}, flags...)...)
	if err != nil || !strings.Contains(out, "Notes") || !strings.Contains(out, "first") {
		t.Errorf("show = %q, %v", out, err)
	}

	if _, err := execute(t, append([]string{"rm", id, copyID}, flags...)...); err != nil {
		t.Errorf("rm: %v", err)
	}
	if _, err := execute(t, append([]string{"show", id}, flags...)...); err == nil {
		t.Error("show after rm succeeded")
	}
}

func TestRunUnknownCommand(t *testing.T) {
	flags := testFlags(t)
	out, err := execute(t, append([]string{"new"}, flags...)...)
	if err != nil {
		t.Fatal(err)
	}
	_, err = execute(t, append([]string{"run", strings.TrimSpace(out), "NOPE_COMMAND"}, flags...)...)
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("err = %v", err)
	}
}
