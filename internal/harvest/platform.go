package harvest

import (
	"context"
	"encoding/json"
)

// Platform is the capability set a delivery platform has to provide for
// the generic pipeline to harvest it. The two implementations live in
// internal/scrapers; they share this one orchestrator instead of each
// carrying their own copy of the loop.
type Platform interface {
	// Name is the persisted platform discriminator ("deliveroo",
	// "panda").
	Name() string

	// Login performs the browser login once per run. Failure here is
	// fatal for the whole batch, nothing downstream can work without a
	// session.
	Login(ctx context.Context) error

	// ResolveStore points the platform's HTTP client at one store,
	// discovering the store's dynamic identifier from browser traffic if
	// the platform requires one. Failure is fatal for this store only.
	ResolveStore(ctx context.Context, store StoreIdentity) error

	// ListPage fetches one page of order summaries for the resolved
	// store.
	ListPage(ctx context.Context, store StoreIdentity, window Window, cursor Cursor, pageSize int) (Page, error)

	// FetchDetail fetches the full order document for one summary.
	FetchDetail(ctx context.Context, summary OrderSummary) (json.RawMessage, error)

	// Normalize extracts a Record from a full order document, or returns
	// an error wrapping ErrRejected when no identifier/timestamp can be
	// recovered.
	Normalize(payload json.RawMessage, store StoreIdentity) (Record, error)

	// Close releases the browser session.
	Close()
}
