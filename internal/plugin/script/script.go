package script

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/folio/internal/dispatcher"
	"github.com/dshills/folio/internal/editor"
)

// Source is one Lua script.
type Source struct {
	Name string
	Code string
}

// LoadDir reads the *.lua files of dir in name order.
func LoadDir(dir string) ([]Source, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.lua"))
	if err != nil {
		return nil, err
	}
	slices.Sort(paths)
	out := make([]Source, 0, len(paths))
	for _, p := range paths {
		code, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read script: %w", err)
		}
		out = append(out, Source{Name: filepath.Base(p), Code: string(code)})
	}
	return out, nil
}

// Option configures a Plugin.
type Option func(*Plugin)

// WithSources adds scripts. They run in order on registration.
func WithSources(src ...Source) Option {
	return func(p *Plugin) {
		p.sources = append(p.sources, src...)
	}
}

// WithScriptTimeout limits each top-level script call.
func WithScriptTimeout(d time.Duration) Option {
	return func(p *Plugin) {
		p.timeout = d
	}
}

// Plugin runs Lua scripts that register command handlers.
type Plugin struct {
	sources []Source
	timeout time.Duration
}

// New returns a script plugin.
func New(opts ...Option) *Plugin {
	p := &Plugin{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements editor.Plugin.
func (*Plugin) Name() string { return "script" }

// Register implements editor.Plugin. Each script runs once; the handlers
// it registers stay until the session closes.
func (p *Plugin) Register(s *editor.Session) (func(), error) {
	h := &host{s: s, state: NewState(WithTimeout(p.timeout))}
	h.install()
	for _, src := range p.sources {
		if err := h.state.Exec(src.Name, src.Code); err != nil {
			h.close()
			return nil, fmt.Errorf("script %s: %w", src.Name, err)
		}
		s.Logger.Debug("script loaded", "script", src.Name)
	}
	return h.close, nil
}

type host struct {
	s          *editor.Session
	state      *State
	unregister []func()
}

func (h *host) install() {
	L := h.state.L
	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"register": h.register,
		"dispatch": h.dispatch,
		"log":      h.log,
		"text":     h.text,
		"decode":   h.decode,
		"encode":   h.encode,
	})
	L.SetGlobal("folio", mod)
}

func (h *host) close() {
	for _, fn := range h.unregister {
		fn()
	}
	h.unregister = nil
	h.state.Close()
}

func priorityArg(lv lua.LValue) (dispatcher.Priority, error) {
	switch v := lv.(type) {
	case *lua.LNilType:
		return dispatcher.PriorityEditor, nil
	case lua.LString:
		return dispatcher.ParsePriority(string(v))
	case lua.LNumber:
		p := dispatcher.Priority(int(v))
		if !p.Valid() || float64(int(v)) != float64(v) {
			return 0, fmt.Errorf("invalid priority %v", v)
		}
		return p, nil
	}
	return 0, fmt.Errorf("invalid priority type %s", lv.Type())
}

func (h *host) register(L *lua.LState) int {
	name := L.CheckString(1)
	prio, err := priorityArg(L.Get(2))
	if err != nil {
		L.ArgError(2, err.Error())
		return 0
	}
	fn := L.CheckFunction(3)
	h.unregister = append(h.unregister, h.s.Bus.RegisterRaw(name, prio, func(payload any) (bool, error) {
		raw, err := payloadJSON(payload)
		if err != nil {
			return false, &ScriptError{Command: name, Err: err}
		}
		ret, err := h.state.Call(fn, lua.LString(raw))
		if err != nil {
			return false, &ScriptError{Command: name, Err: err}
		}
		return lua.LVAsBool(ret), nil
	}))
	return 0
}

func (h *host) dispatch(L *lua.LState) int {
	name := L.CheckString(1)
	payload := L.OptString(2, "null")
	handled, err := h.s.Bus.DispatchJSON(name, []byte(payload))
	if err != nil {
		L.RaiseError("dispatch %s: %v", name, err)
		return 0
	}
	L.Push(lua.LBool(handled))
	return 1
}

func (h *host) log(L *lua.LState) int {
	msg := L.CheckString(1)
	level := slog.LevelInfo
	if s := L.OptString(2, ""); s != "" {
		if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
			L.ArgError(2, err.Error())
			return 0
		}
	}
	h.s.Logger.Log(L.Context(), level, msg, "plugin", "script")
	return 0
}

func (h *host) text(L *lua.LState) int {
	snap := h.s.Snapshot()
	L.Push(lua.LString(snap.TextContent(snap.RootKey())))
	return 1
}

func (h *host) decode(L *lua.LState) int {
	raw := L.CheckString(1)
	if !gjson.Valid(raw) {
		L.ArgError(1, "invalid JSON")
		return 0
	}
	L.Push(fromJSON(L, gjson.Parse(raw)))
	return 1
}

func (h *host) encode(L *lua.LState) int {
	s, err := encode(L.Get(1))
	if err != nil {
		L.RaiseError("encode: %v", err)
		return 0
	}
	L.Push(lua.LString(s))
	return 1
}
