// Package task carries work back onto the goroutine that owns a document.
//
// The engine and command bus are single threaded. Work that has to wait on
// something slow, such as an image upload, runs on its own goroutine via Go
// and hands its continuation back with Post. The owner runs continuations
// with Drain, RunOne or Run:
//
//	q := task.New()
//	q.Go(func() func() {
//		url, err := upload(file)
//		return func() { finish(url, err) } // runs on the owner goroutine
//	})
//	...
//	q.Drain()
//
// Continuations run in the order they were posted.
package task
