package dispatcher_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/dshills/folio/internal/dispatcher"
)

type insertPayload struct {
	Text  string `json:"text"`
	Count int    `json:"count"`
}

var (
	testCmd   = dispatcher.NewCommand[string]("TEST_COMMAND")
	innerCmd  = dispatcher.NewCommand[int]("INNER_COMMAND")
	structCmd = dispatcher.NewCommand[insertPayload]("STRUCT_COMMAND")
)

func TestPriorityShortCircuit(t *testing.T) {
	bus := dispatcher.NewWithDefaults()
	var calls []string
	record := func(name string, claim bool) func(string) (bool, error) {
		return func(string) (bool, error) {
			calls = append(calls, name)
			return claim, nil
		}
	}
	dispatcher.Register(bus, testCmd, dispatcher.PriorityLow, record("low", false))
	dispatcher.Register(bus, testCmd, dispatcher.PriorityEditor, record("editor", false))
	dispatcher.Register(bus, testCmd, dispatcher.PriorityCritical, record("critical", true))

	handled, err := dispatcher.Dispatch(bus, testCmd, "x")
	if err != nil {
		t.Fatal(err)
	}
	if !handled {
		t.Error("expected handled")
	}
	if len(calls) != 1 || calls[0] != "critical" {
		t.Errorf("calls = %v, want [critical]", calls)
	}
}

func TestOrderWithinAndAcrossTiers(t *testing.T) {
	bus := dispatcher.NewWithDefaults()
	var calls []string
	add := func(name string, p dispatcher.Priority) {
		dispatcher.Register(bus, testCmd, p, func(string) (bool, error) {
			calls = append(calls, name)
			return false, nil
		})
	}
	add("fallback", dispatcher.PriorityFallback)
	add("low-1", dispatcher.PriorityLow)
	add("high", dispatcher.PriorityHigh)
	add("low-2", dispatcher.PriorityLow)
	add("editor", dispatcher.PriorityEditor)

	handled, err := dispatcher.Dispatch(bus, testCmd, "")
	if err != nil || handled {
		t.Fatalf("got (%v, %v)", handled, err)
	}
	want := []string{"high", "editor", "low-1", "low-2", "fallback"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("calls[%d] = %s, want %s", i, calls[i], want[i])
		}
	}
}

func TestUnknownCommand(t *testing.T) {
	bus := dispatcher.NewWithDefaults()
	handled, err := bus.DispatchAny("NOPE", nil)
	if handled || err != nil {
		t.Errorf("got (%v, %v), want (false, nil)", handled, err)
	}
}

func TestErrorStopsPropagation(t *testing.T) {
	bus := dispatcher.NewWithDefaults()
	boom := errors.New("boom")
	lowCalled := false
	dispatcher.Register(bus, testCmd, dispatcher.PriorityHigh, func(string) (bool, error) {
		return false, boom
	})
	dispatcher.Register(bus, testCmd, dispatcher.PriorityLow, func(string) (bool, error) {
		lowCalled = true
		return true, nil
	})
	_, err := dispatcher.Dispatch(bus, testCmd, "")
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}
	var he *dispatcher.HandlerError
	if !errors.As(err, &he) || he.Command != testCmd.Name() || he.Priority != dispatcher.PriorityHigh {
		t.Errorf("HandlerError = %+v", he)
	}
	if lowCalled {
		t.Error("lower handler ran after an error")
	}
}

func TestPanicHandling(t *testing.T) {
	t.Run("recovered", func(t *testing.T) {
		bus := dispatcher.New(dispatcher.DefaultConfig().WithPanicRecovery(true).WithMetrics())
		dispatcher.Register(bus, testCmd, dispatcher.PriorityEditor, func(string) (bool, error) {
			panic("bad plugin")
		})
		_, err := dispatcher.Dispatch(bus, testCmd, "")
		if !errors.Is(err, dispatcher.ErrPanic) {
			t.Fatalf("got %v, want ErrPanic", err)
		}
		if bus.Metrics().TotalPanics() != 1 {
			t.Error("panic not counted")
		}
	})
	t.Run("propagated", func(t *testing.T) {
		bus := dispatcher.NewWithDefaults()
		dispatcher.Register(bus, testCmd, dispatcher.PriorityEditor, func(string) (bool, error) {
			panic("bad plugin")
		})
		defer func() {
			if r := recover(); r != "bad plugin" {
				t.Errorf("recovered %v", r)
			}
		}()
		_, _ = dispatcher.Dispatch(bus, testCmd, "")
		t.Error("panic did not propagate")
	})
}

func TestReentrantDispatch(t *testing.T) {
	bus := dispatcher.NewWithDefaults()
	var trace []string
	dispatcher.Register(bus, innerCmd, dispatcher.PriorityEditor, func(n int) (bool, error) {
		trace = append(trace, "inner")
		return n > 0, nil
	})
	dispatcher.Register(bus, testCmd, dispatcher.PriorityHigh, func(string) (bool, error) {
		trace = append(trace, "outer-high")
		handled, err := dispatcher.Dispatch(bus, innerCmd, 1)
		trace = append(trace, "after-inner")
		if !handled || err != nil {
			t.Errorf("inner = (%v, %v)", handled, err)
		}
		return false, nil
	})
	dispatcher.Register(bus, testCmd, dispatcher.PriorityLow, func(string) (bool, error) {
		trace = append(trace, "outer-low")
		return true, nil
	})
	if _, err := dispatcher.Dispatch(bus, testCmd, ""); err != nil {
		t.Fatal(err)
	}
	want := []string{"outer-high", "inner", "after-inner", "outer-low"}
	if len(trace) != len(want) {
		t.Fatalf("trace = %v, want %v", trace, want)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Errorf("trace = %v, want %v", trace, want)
			break
		}
	}
}

func TestMaxDepth(t *testing.T) {
	bus := dispatcher.New(dispatcher.DefaultConfig().WithMaxDepth(4))
	dispatcher.Register(bus, testCmd, dispatcher.PriorityEditor, func(s string) (bool, error) {
		return dispatcher.Dispatch(bus, testCmd, s)
	})
	_, err := dispatcher.Dispatch(bus, testCmd, "")
	if !errors.Is(err, dispatcher.ErrMaxDepth) {
		t.Errorf("got %v, want ErrMaxDepth", err)
	}
	if bus.Depth() != 0 {
		t.Errorf("depth = %d after dispatch", bus.Depth())
	}
}

func TestUnregisterDuringDispatch(t *testing.T) {
	bus := dispatcher.NewWithDefaults()
	lowCalls := 0
	var unregLow func()
	unregHigh := dispatcher.Register(bus, testCmd, dispatcher.PriorityHigh, func(string) (bool, error) {
		unregLow()
		return false, nil
	})
	unregLow = dispatcher.Register(bus, testCmd, dispatcher.PriorityLow, func(string) (bool, error) {
		lowCalls++
		return false, nil
	})

	_, _ = dispatcher.Dispatch(bus, testCmd, "")
	if lowCalls != 1 {
		t.Errorf("handler list was not snapshotted: low ran %d times", lowCalls)
	}
	_, _ = dispatcher.Dispatch(bus, testCmd, "")
	if lowCalls != 1 {
		t.Error("unregistered handler still runs")
	}
	unregHigh()
	unregHigh()
	if bus.Has(testCmd.Name()) {
		t.Error("handlers remain after unregister")
	}
}

func TestDispatchJSON(t *testing.T) {
	bus := dispatcher.NewWithDefaults()
	var got insertPayload
	dispatcher.Register(bus, structCmd, dispatcher.PriorityEditor, func(p insertPayload) (bool, error) {
		got = p
		return true, nil
	})
	handled, err := bus.DispatchJSON(structCmd.Name(), []byte(`{"text":"hi","count":2}`))
	if err != nil || !handled {
		t.Fatalf("got (%v, %v)", handled, err)
	}
	if got.Text != "hi" || got.Count != 2 {
		t.Errorf("payload = %+v", got)
	}

	if _, err := bus.DispatchJSON(structCmd.Name(), []byte(`{"count":"x"}`)); !errors.Is(err, dispatcher.ErrInvalidPayload) {
		t.Errorf("bad JSON: got %v", err)
	}
	if _, err := bus.DispatchJSON(structCmd.Name(), nil); err != nil {
		t.Errorf("empty body: %v", err)
	}
}

func TestRawHandlerReceivesRawJSON(t *testing.T) {
	bus := dispatcher.NewWithDefaults()
	var got any
	bus.RegisterRaw("SCRIPTED", dispatcher.PriorityEditor, func(p any) (bool, error) {
		got = p
		return true, nil
	})
	if _, err := bus.DispatchJSON("SCRIPTED", []byte(`[1,2]`)); err != nil {
		t.Fatal(err)
	}
	raw, ok := got.(json.RawMessage)
	if !ok || string(raw) != "[1,2]" {
		t.Errorf("payload %T %v", got, got)
	}
}

func TestWrongPayloadType(t *testing.T) {
	bus := dispatcher.NewWithDefaults()
	dispatcher.Register(bus, testCmd, dispatcher.PriorityEditor, func(string) (bool, error) {
		return true, nil
	})
	_, err := bus.DispatchAny(testCmd.Name(), 42)
	if !errors.Is(err, dispatcher.ErrPayloadType) {
		t.Errorf("got %v, want ErrPayloadType", err)
	}
}

func TestHooks(t *testing.T) {
	bus := dispatcher.NewWithDefaults()
	var post []string
	bus.AddHook(dispatcher.HookFuncs{
		HookName: "guard",
		Pre: func(cmd string, _ any) bool {
			return cmd != "BLOCKED"
		},
		Post: func(cmd string, _ any, handled bool, _ error) {
			post = append(post, cmd)
		},
	})
	if _, err := bus.DispatchAny("BLOCKED", nil); !errors.Is(err, dispatcher.ErrDispatchCancelled) {
		t.Errorf("got %v, want ErrDispatchCancelled", err)
	}
	if _, err := bus.DispatchAny("OK", nil); err != nil {
		t.Fatal(err)
	}
	if len(post) != 1 || post[0] != "OK" {
		t.Errorf("post = %v", post)
	}
	bus.RemoveHook("guard")
	if _, err := bus.DispatchAny("BLOCKED", nil); err != nil {
		t.Errorf("hook not removed: %v", err)
	}
}

func TestMetrics(t *testing.T) {
	bus := dispatcher.New(dispatcher.DefaultConfig().WithMetrics())
	dispatcher.Register(bus, innerCmd, dispatcher.PriorityEditor, func(n int) (bool, error) {
		if n < 0 {
			return false, errors.New("negative")
		}
		return n > 0, nil
	})
	for _, n := range []int{1, 0, -1, 2} {
		_, _ = dispatcher.Dispatch(bus, innerCmd, n)
	}
	m := bus.Metrics()
	stats := m.CommandStats(innerCmd.Name())
	if stats == nil {
		t.Fatal("no stats")
	}
	if stats.Dispatches != 4 || stats.Handled != 2 || stats.Errors != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if top := m.TopCommands(5); len(top) != 1 || top[0].Name != innerCmd.Name() {
		t.Errorf("top = %v", top)
	}
	if tot := m.Totals(); tot.Dispatches != 4 || tot.Average() > tot.Max {
		t.Errorf("totals = %+v", tot)
	}
	m.Reset()
	if m.TotalDispatches() != 0 {
		t.Error("reset kept counters")
	}
}

func TestParsePriority(t *testing.T) {
	for _, p := range []dispatcher.Priority{
		dispatcher.PriorityCritical, dispatcher.PriorityHigh, dispatcher.PriorityEditor,
		dispatcher.PriorityLow, dispatcher.PriorityFallback,
	} {
		got, err := dispatcher.ParsePriority(p.String())
		if err != nil || got != p {
			t.Errorf("ParsePriority(%s) = %v, %v", p, got, err)
		}
	}
	if _, err := dispatcher.ParsePriority("urgent"); err == nil {
		t.Error("expected error")
	}
}
