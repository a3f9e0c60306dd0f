// Package richtext provides the default editing behavior of a session:
// typing, deletion, block splitting, caret movement, text and block
// formatting, and undo/redo.
//
// Every handler is registered at dispatcher.PriorityFallback so that any
// other plugin can intercept a command first:
//
//	s := editor.NewSession()
//	if err := s.Use(richtext.New()); err != nil { ... }
//	dispatcher.Dispatch(s.Bus, editor.InsertText, "hello")
package richtext
