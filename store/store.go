package store

import (
	"context"
	"errors"

	"pickmeup-backend/models"
)

var (
	// ErrNotFound: no document with that id in the collection.
	ErrNotFound = errors.New("document not found")
	// ErrDecode: a remote document did not parse into the item report shape.
	// Malformed data fails fast here instead of leaking into the view layer.
	ErrDecode = errors.New("document decode failed")
)

// Query narrows a listing or subscription. Zero values mean "no filter".
// NewestFirst is an ordering hint only; consumers re-sort defensively.
type Query struct {
	UserID      string
	Status      models.Status
	Category    string
	NewestFirst bool
}

// SnapshotFunc receives the complete current contents of the collection,
// not a diff, on the initial delivery and after every remote change.
type SnapshotFunc func(items []models.ItemReport)

// ErrorFunc receives at most one transport error per subscription; after it
// fires the subscription emits nothing further until re-established.
type ErrorFunc func(err error)

// DocumentStore is the remote collection boundary: document CRUD plus a
// realtime full-snapshot subscription.
type DocumentStore interface {
	Create(ctx context.Context, col models.Collection, item models.ItemReport) (string, error)
	Get(ctx context.Context, col models.Collection, id string) (*models.ItemReport, error)
	UpdatePartial(ctx context.Context, col models.Collection, id string, fields map[string]any) error
	Delete(ctx context.Context, col models.Collection, id string) error
	List(ctx context.Context, col models.Collection, q Query) ([]models.ItemReport, error)

	// Subscribe delivers an initial snapshot, then one snapshot per remote
	// change, until the returned unsubscribe func or ctx ends it. The
	// unsubscribe func is safe to call more than once.
	Subscribe(ctx context.Context, col models.Collection, q Query, onSnapshot SnapshotFunc, onError ErrorFunc) (func(), error)
}
