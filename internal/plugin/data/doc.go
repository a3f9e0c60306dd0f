// Package data connects a session to an external store: it seeds the
// document on registration and reports every published change.
package data
