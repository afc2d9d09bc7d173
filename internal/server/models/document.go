// Package models defines the server-side storage rows.
package models

// Document is one schemaless record of the path-addressed document store.
// Collection is the slash-separated path (e.g. "users/<uid>/diaries"), Data
// the raw JSON object stored in a JSONB column.
type Document struct {
	Collection string
	ID         string
	Data       map[string]any
}
