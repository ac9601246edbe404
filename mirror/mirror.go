// Package mirror keeps a locally readable, always-fresh copy of a remote
// report collection for the lifetime of one consuming view. The consumer
// opens a mirror when the view appears and must close it on every exit path;
// the mirror guarantees nothing is delivered after Close.
package mirror

import (
	"context"
	"sync"

	"pickmeup-backend/models"
	"pickmeup-backend/store"
	"pickmeup-backend/utils"
)

// Options configures one subscription. OnSnapshot receives the complete
// collection contents on open and again after every remote change. OnError
// fires at most once; after it the mirror goes silent until a fresh Open.
type Options struct {
	Query      store.Query
	OnSnapshot store.SnapshotFunc
	OnError    store.ErrorFunc
}

type Mirror struct {
	col         models.Collection
	unsubscribe func()

	mu     sync.Mutex
	closed bool
	failed bool
}

// Open subscribes to the collection and starts delivering snapshots.
// The returned mirror must be closed exactly once per consumer lifetime;
// Close is idempotent so deferring it on every path is safe.
func Open(ctx context.Context, st store.DocumentStore, col models.Collection, opts Options) (*Mirror, error) {
	m := &Mirror{col: col}

	onSnapshot := func(items []models.ItemReport) {
		m.mu.Lock()
		dead := m.closed || m.failed
		m.mu.Unlock()
		if dead {
			return
		}
		if opts.OnSnapshot != nil {
			opts.OnSnapshot(items)
		}
	}
	onError := func(err error) {
		m.mu.Lock()
		dead := m.closed || m.failed
		m.failed = true
		m.mu.Unlock()
		if dead {
			return
		}
		utils.LogError(err, "live mirror error on collection "+string(col))
		if opts.OnError != nil {
			opts.OnError(err)
		}
	}

	unsubscribe, err := st.Subscribe(ctx, col, opts.Query, onSnapshot, onError)
	if err != nil {
		return nil, err
	}
	m.unsubscribe = unsubscribe
	return m, nil
}

// Close releases the underlying subscription. Safe to call more than once;
// only the first call unsubscribes.
func (m *Mirror) Close() {
	m.mu.Lock()
	already := m.closed
	m.closed = true
	m.mu.Unlock()
	if already {
		return
	}
	m.unsubscribe()
}
