package dispatcher

import (
	"log/slog"
)

// Hook observes dispatches.
type Hook interface {
	// Name identifies the hook for removal.
	Name() string

	// Priority orders hooks. Higher runs first.
	Priority() int

	// PreDispatch is called before handlers run. Returning false cancels
	// the dispatch.
	PreDispatch(command string, payload any) bool

	// PostDispatch is called after handlers run.
	PostDispatch(command string, payload any, handled bool, err error)
}

// HookFuncs adapts functions to Hook. Nil functions are skipped.
type HookFuncs struct {
	HookName string
	Prio     int
	Pre      func(command string, payload any) bool
	Post     func(command string, payload any, handled bool, err error)
}

// Name implements Hook.
func (h HookFuncs) Name() string { return h.HookName }

// Priority implements Hook.
func (h HookFuncs) Priority() int { return h.Prio }

// PreDispatch implements Hook.
func (h HookFuncs) PreDispatch(command string, payload any) bool {
	if h.Pre == nil {
		return true
	}
	return h.Pre(command, payload)
}

// PostDispatch implements Hook.
func (h HookFuncs) PostDispatch(command string, payload any, handled bool, err error) {
	if h.Post != nil {
		h.Post(command, payload, handled, err)
	}
}

// LoggingHook logs each dispatch at debug level and failures at warn.
type LoggingHook struct {
	Logger *slog.Logger
}

// Name implements Hook.
func (LoggingHook) Name() string { return "logging" }

// Priority implements Hook.
func (LoggingHook) Priority() int { return 0 }

// PreDispatch implements Hook.
func (LoggingHook) PreDispatch(string, any) bool { return true }

// PostDispatch implements Hook.
func (h LoggingHook) PostDispatch(command string, _ any, handled bool, err error) {
	if h.Logger == nil {
		return
	}
	if err != nil {
		h.Logger.Warn("command failed", "command", command, "error", err)
		return
	}
	h.Logger.Debug("command dispatched", "command", command, "handled", handled)
}
