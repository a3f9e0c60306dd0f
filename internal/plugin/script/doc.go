// Package script runs Lua command handlers inside a session.
//
// Scripts run in a sandboxed gopher-lua state with only the base, table,
// string and math libraries. File loading, require and the io, os and
// debug libraries are unavailable. A script talks to the session through
// the folio module:
//
//	folio.register("INSERT_TEXT_COMMAND", "high", function(payload)
//	    local text = folio.decode(payload)
//	    if text == "(c)" then
//	        return folio.dispatch("INSERT_TEXT_COMMAND", folio.encode("©"))
//	    end
//	    return false
//	end)
//
// Handlers receive the payload as a JSON string and return true to claim
// the command. A Lua error becomes the handler's error.
//
// The functions are:
//   - register(command, priority, fn): priority is a tier name
//     ("fallback" to "critical"), a tier number or nil for "editor"
//   - dispatch(command, json): returns whether a handler claimed it
//   - log(msg [, level]): writes to the session logger
//   - text(): the plain text of the document
//   - decode(json) and encode(value): JSON conversion
package script
