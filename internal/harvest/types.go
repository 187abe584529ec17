package harvest

import (
	"encoding/json"
	"errors"
	"time"
)

// StoreIdentity is immutable reference data describing one restaurant
// branch, loaded from stores.json5. The pipeline never mutates it.
type StoreIdentity struct {
	// Code is the stable human-assigned identifier used in CLI arguments
	// and persisted rows.
	Code string `json:"code"`
	// Name is the display name shown on the platforms.
	Name string `json:"name"`

	// PandaMerchantID is the hungrypanda merchant id for this branch.
	PandaMerchantID string `json:"panda_merchant_id"`
	// DeliverooOrgID and DeliverooBranchID form the deliveroo partner-hub
	// "org-branch" pair for this branch.
	DeliverooOrgID    string `json:"deliveroo_org_id"`
	DeliverooBranchID string `json:"deliveroo_branch_id"`
}

// OrderSummary is the minimal slice of a list-endpoint row needed to
// drive detail enrichment and cursor advancement. Never persisted.
type OrderSummary struct {
	ID string
	// SortDate is the raw timestamp string the platform attached to this
	// row, used as the secondary pagination cursor component.
	SortDate string
}

// Cursor is the pagination continuation state. The zero value requests
// the first page.
type Cursor struct {
	StartingAfter string
	SortDate      string
}

// Page is one list-endpoint response.
type Page struct {
	Summaries []OrderSummary
	// NextCursor is the explicit continuation token, when the platform
	// provides one.
	NextCursor string
	// HasMore is the platform's explicit "there is more data" signal.
	HasMore bool
}

// Record is the normalized, persisted unit. Payload always holds the
// untransformed upstream document even though the derived fields next to
// it are computed from it.
type Record struct {
	Platform  string
	StoreCode string
	StoreName string
	OrderID   string
	OrderTime time.Time

	EstimatedRevenue *float64
	ProductAmount    *float64
	DiscountAmount   *float64
	PrintAmount      *float64

	Payload json.RawMessage
}

// ErrRejected marks a payload the normalizer could not extract an
// identifier or timestamp from. Rejected records are dropped and counted,
// never stored or retried.
var ErrRejected = errors.New("record rejected")
