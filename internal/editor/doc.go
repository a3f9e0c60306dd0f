// Package editor ties one document's engine, command bus and task queue
// into a Session, declares the core command set, and provides the tree
// editing helpers that command handlers share.
//
// A Session is built once per document and handed to plugins:
//
//	s := editor.NewSession(editor.WithLogger(logger))
//	if err := s.Use(richtext.New(), column.New(), image.New(image.Config{...})); err != nil {
//		return err
//	}
//	handled, err := dispatcher.Dispatch(s.Bus, editor.InsertText, "hello")
//
// Handlers never hold node values across transactions. They read through
// the *engine.Tx passed to Session.Update and the helpers in this package
// (BlockOf, InsertNodes, DeleteRange, SplitBlock and friends) all operate on
// that transaction.
package editor
