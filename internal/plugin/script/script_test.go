package script_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dshills/folio/internal/dispatcher"
	"github.com/dshills/folio/internal/editor"
	"github.com/dshills/folio/internal/plugin/richtext"
	"github.com/dshills/folio/internal/plugin/script"
)

func newSession(t *testing.T, opts ...script.Option) (*editor.Session, error) {
	t.Helper()
	s := editor.NewSession()
	t.Cleanup(s.Close)
	return s, s.Use(richtext.New(), script.New(opts...))
}

func mustSession(t *testing.T, code string) *editor.Session {
	t.Helper()
	s, err := newSession(t, script.WithSources(script.Source{Name: "test.lua", Code: code}))
	if err != nil {
		t.Fatalf("Use: %v", err)
	}
	return s
}

func text(s *editor.Session) string {
	snap := s.Snapshot()
	return snap.TextContent(snap.RootKey())
}

func TestHandlerClaimsAndDispatches(t *testing.T) {
	s := mustSession(t, `
folio.register("INSERT_TEXT_COMMAND", "high", function(payload)
  if folio.decode(payload) == "(c)" then
    return folio.dispatch("INSERT_TEXT_COMMAND", folio.encode("©"))
  end
  return false
end)
`)
	for _, in := range []string{"a", "(c)"} {
		handled, err := dispatcher.Dispatch(s.Bus, editor.InsertText, in)
		if err != nil || !handled {
			t.Fatalf("insert %q = %v, %v", in, handled, err)
		}
	}
	if got := text(s); got != "a©" {
		t.Errorf("text = %q, want a©", got)
	}
}

func TestCustomCommand(t *testing.T) {
	s := mustSession(t, `
folio.register("STAMP_COMMAND", nil, function(payload)
  local p = folio.decode(payload)
  for _, w in ipairs(p.words) do
    folio.dispatch("INSERT_TEXT_COMMAND", folio.encode(w))
  end
  folio.log("stamped " .. #p.words, "debug")
  return #p.words > 0
end)
`)
	handled, err := s.DispatchJSON("STAMP_COMMAND", []byte(`{"words":["x","y"]}`))
	if err != nil || !handled {
		t.Fatalf("dispatch = %v, %v", handled, err)
	}
	if got := text(s); got != "xy" {
		t.Errorf("text = %q, want xy", got)
	}
	handled, err = s.DispatchJSON("STAMP_COMMAND", []byte(`{"words":[]}`))
	if err != nil || handled {
		t.Errorf("empty stamp = %v, %v, want unclaimed", handled, err)
	}
}

func TestTextAndEncode(t *testing.T) {
	s := mustSession(t, `
folio.register("ECHO_COMMAND", "critical", function(payload)
  local t = folio.decode(payload)
  t.text = folio.text()
  folio.dispatch("INSERT_TEXT_COMMAND", folio.encode(folio.encode(t)))
  return true
end)
`)
	if _, err := dispatcher.Dispatch(s.Bus, editor.InsertText, "hi"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.DispatchJSON("ECHO_COMMAND", []byte(`{"n":2}`)); err != nil {
		t.Fatal(err)
	}
	if got, want := text(s), `hi{"n":2,"text":"hi"}`; got != want {
		t.Errorf("text = %q, want %q", got, want)
	}
}

func TestLuaErrorBecomesHandlerError(t *testing.T) {
	s := mustSession(t, `
folio.register("FAIL_COMMAND", "low", function() error("boom") end)
`)
	_, err := s.DispatchJSON("FAIL_COMMAND", nil)
	var se *script.ScriptError
	if !errors.As(err, &se) || se.Command != "FAIL_COMMAND" {
		t.Fatalf("err = %v, want ScriptError", err)
	}
	var he *dispatcher.HandlerError
	if !errors.As(err, &he) || he.Priority != dispatcher.PriorityLow {
		t.Errorf("err = %v, want HandlerError at low priority", err)
	}
}

func TestSandbox(t *testing.T) {
	tests := []struct {
		name string
		code string
		ok   bool
	}{
		{"libraries", `assert(string.upper("a") == "A" and math.max(1, 2) == 2 and table.concat({"a"}) == "a")`, true},
		{"no loaders", `assert(dofile == nil and loadfile == nil and load == nil and require == nil)`, true},
		{"no os", `os.exit(1)`, false},
		{"no io", `io.open("/etc/passwd")`, false},
		{"bad priority", `folio.register("X", "urgent", function() end)`, false},
		{"priority out of range", `folio.register("X", 9, function() end)`, false},
		{"syntax", `folio.register(`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newSession(t, script.WithSources(script.Source{Name: tt.name, Code: tt.code}))
			if (err == nil) != tt.ok {
				t.Errorf("Use error = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestTimeout(t *testing.T) {
	_, err := newSession(t,
		script.WithScriptTimeout(50*time.Millisecond),
		script.WithSources(script.Source{Name: "loop.lua", Code: `while true do end`}),
	)
	if !errors.Is(err, script.ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
}

func TestCloseUnregisters(t *testing.T) {
	s := mustSession(t, `folio.register("GONE_COMMAND", nil, function() return true end)`)
	if !s.Bus.Has("GONE_COMMAND") {
		t.Fatal("handler not registered")
	}
	s.Close()
	if s.Bus.Has("GONE_COMMAND") {
		t.Error("handler survived Close")
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"b.lua":     `folio.log("b")`,
		"a.lua":     `folio.log("a")`,
		"notes.txt": `not lua`,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	src, err := script.LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(src) != 2 || src[0].Name != "a.lua" || src[1].Name != "b.lua" {
		t.Errorf("sources = %+v", src)
	}
	if _, err := newSession(t, script.WithSources(src...)); err != nil {
		t.Errorf("Use: %v", err)
	}
}
