// Package store defines the document-store contract the queue protocol is
// written against: schemaless JSON documents addressed by (collection, id),
// optimistic read-modify-write transactions, and live change subscriptions.
package store

import (
	"context"
	"errors"
)

// Document is one schemaless store document.
type Document map[string]any

// Unsubscribe detaches a change listener. Safe to call more than once.
type Unsubscribe func()

var (
	ErrDocNotFound = errors.New("document not found")
	ErrTxConflict  = errors.New("transaction aborted: too many conflicting writes")
)

// TxFunc is the body of a transaction. It receives a consistent snapshot of
// the document (nil when absent) and returns the document to write back.
// Returning (nil, nil) commits nothing, leaving the document untouched.
// Returning an error aborts the transaction without retrying; the error is
// surfaced to the caller unchanged.
type TxFunc func(doc Document, exists bool) (Document, error)

type Store interface {
	// Get returns the document, or ErrDocNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)

	// Set writes the full document. With merge, existing fields not present
	// in doc are preserved; the document is created either way.
	Set(ctx context.Context, collection, id string, doc Document, merge bool) error

	// Update patches the given fields on an existing document. Fails with
	// ErrDocNotFound when the document is absent.
	Update(ctx context.Context, collection, id string, fields Document) error

	// RunTransaction executes fn against a consistent read of the document
	// and writes the result back only if no conflicting write happened in
	// between; on conflict the whole fn is retried. Errors returned by fn
	// abort without retry.
	RunTransaction(ctx context.Context, collection, id string, fn TxFunc) error

	// Subscribe registers onChange for every observed write to the document,
	// including the subscriber's own. When the document already exists the
	// current snapshot is delivered first. onChange is invoked from a
	// store-owned goroutine; callers serialize their own state.
	Subscribe(ctx context.Context, collection, id string, onChange func(Document)) (Unsubscribe, error)
}
