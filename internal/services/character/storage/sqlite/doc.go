// Package sqlite provides a SQLite-backed character store. Only scores and
// the pin are persisted; modifiers are derived again on every read.
package sqlite
