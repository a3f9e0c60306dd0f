// Package dispatcher is the command bus that connects input and plugins.
//
// A command is a name plus a payload type. Handlers are registered for a
// command at one of five priority tiers:
//
//	PriorityCritical > PriorityHigh > PriorityEditor > PriorityLow > PriorityFallback
//
// # Dispatch
//
// Dispatch calls handlers in descending priority, and in registration
// order within a tier:
//
//  1. Pre-dispatch hooks run and may cancel the dispatch.
//  2. The handler list for the command is copied, so handlers registered
//     or removed during the dispatch do not affect it.
//  3. Each handler returns (handled, err). handled == true stops
//     propagation. A non-nil err stops propagation and is returned wrapped
//     in a *HandlerError.
//  4. Post-dispatch hooks run.
//  5. Metrics are recorded when enabled.
//
// Dispatch is synchronous and reentrant: a handler may dispatch another
// command and that dispatch completes before the outer one continues.
// Dispatching a command with no handlers returns (false, nil).
//
// # Typed commands
//
//	var InsertText = dispatcher.NewCommand[string]("INSERT_TEXT_COMMAND")
//
//	unregister := dispatcher.Register(bus, InsertText, dispatcher.PriorityEditor,
//		func(text string) (bool, error) { ... })
//	handled, err := dispatcher.Dispatch(bus, InsertText, "hello")
//
// Registering a typed handler also records a JSON decoder for the payload
// type, so DispatchJSON can serve callers that only have bytes, such as the
// HTTP API and Lua scripts. RegisterRaw accepts handlers that take the
// payload as any.
//
// # Panics
//
// With Config.RecoverFromPanic a handler panic is converted into an error
// wrapping ErrPanic. Otherwise the panic propagates to the caller.
package dispatcher
