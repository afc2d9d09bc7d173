// Package models defines the diary entry types shared by the client's
// storage, reconciliation and sync layers.
package models

import (
	"github.com/nchiang/moodiary/internal/sentiment"
)

// Entry is a normalized diary record as rendered to the user.
type Entry struct {
	// ID is an opaque unique string generated client-side, immutable once
	// created.
	ID string `json:"id"`

	// Date is the canonical YYYY-MM-DD day the entry belongs to.
	Date string `json:"date"`

	// Content is the user-authored plaintext.
	Content string `json:"content"`

	// IsDeleted soft-deletes the entry; it stays queryable in the trash view
	// until hard-deleted.
	IsDeleted bool `json:"isDeleted"`

	// Sentiment is computed once at save/edit time and cached.
	Sentiment sentiment.Sentiment `json:"sentiment"`

	// UpdatedAt is an advisory ISO-8601 timestamp of the last mutation.
	UpdatedAt string `json:"updatedAt,omitempty"`

	// LocalPending marks an entry that only exists in the local pending
	// store. Client-only, never persisted remotely.
	LocalPending bool `json:"-"`
}

// PendingWrite is a local pending store record: an Entry captured while
// offline, keyed by id.
type PendingWrite struct {
	Entry
	IsSynced bool `json:"isSynced"`

	// IsEdit marks a record that modifies an entry which may already exist
	// remotely. The drain must merge it into the canonical document; only
	// non-edit records may be dropped when the id is already present.
	IsEdit bool `json:"isEdit"`
}

// RawDocument is an undecoded remote document. Shapes are heterogeneous:
// content may be plaintext ("content") or encrypted ("contentEnc"), the
// sentiment object may be missing, and the date field takes several forms.
type RawDocument map[string]any

// String returns the named field when it is a non-empty string.
func (d RawDocument) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// Bool returns the named field interpreted as a boolean; absent or
// non-boolean values are false.
func (d RawDocument) Bool(key string) bool {
	b, _ := d[key].(bool)
	return b
}

// ID returns the document id.
func (d RawDocument) ID() string { return d.String("id") }

// Date returns the raw date value for normalization; it may be a string in
// any supported layout or a JSON number carrying Unix milliseconds.
func (d RawDocument) Date() any { return d["date"] }
