package deliveroo

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"orderharvest-backend/internal/harvest"
)

// flexNumber tolerates the hub's inconsistent number encodings: plain
// numbers, string-wrapped numbers, and garbage. Anything that will not
// coerce counts as zero rather than failing the record.
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = flexNumber(v)
	return nil
}

type money struct {
	Fractional flexNumber `json:"fractional"`
}

// pounds converts a minor-unit amount to pounds.
func (m money) pounds() float64 {
	return float64(m.Fractional) / 100
}

type orderDoc struct {
	OrderID   string `json:"order_id"`
	ID        string `json:"id"`
	DrnID     string `json:"drn_id"`
	CreatedAt string `json:"created_at"`
	PlacedAt  string `json:"placed_at"`

	Timeline struct {
		PlacedAt   string `json:"placed_at"`
		CreatedAt  string `json:"created_at"`
		AcceptedAt string `json:"accepted_at"`
	} `json:"timeline"`

	Amount money `json:"amount"`

	Discounts []struct {
		Amount money `json:"amount"`
	} `json:"discounts"`
	Adjustments []struct {
		Amount money `json:"amount"`
	} `json:"adjustments"`
}

func firstNonEmpty(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}

// Normalize extracts a persistable record from a raw hub order. The
// identifier and timestamp each come from the first populated candidate
// field; a document yielding neither is rejected. The stored payload is
// the input document untouched.
func (s *Scraper) Normalize(payload json.RawMessage, store harvest.StoreIdentity) (harvest.Record, error) {
	var doc orderDoc
	if err := json.Unmarshal(payload, &doc); err != nil {
		return harvest.Record{}, fmt.Errorf("%w: %s", harvest.ErrRejected, err)
	}

	id := firstNonEmpty(doc.OrderID, doc.ID, doc.DrnID)
	if id == "" {
		return harvest.Record{}, fmt.Errorf("%w: no order identifier", harvest.ErrRejected)
	}

	timeStr := firstNonEmpty(
		doc.Timeline.PlacedAt,
		doc.Timeline.CreatedAt,
		doc.Timeline.AcceptedAt,
		doc.CreatedAt,
		doc.PlacedAt,
	)
	if timeStr == "" {
		return harvest.Record{}, fmt.Errorf("%w: no timestamp candidate", harvest.ErrRejected)
	}
	orderTime, err := harvest.ParseUpstreamTime(timeStr)
	if err != nil {
		return harvest.Record{}, fmt.Errorf("%w: %s", harvest.ErrRejected, err)
	}

	record := harvest.Record{
		Platform:  s.Name(),
		StoreCode: store.Code,
		StoreName: store.Name,
		OrderID:   id,
		OrderTime: orderTime,
		Payload:   payload,
	}

	if total := doc.Amount.pounds(); total != 0 {
		record.EstimatedRevenue = &total
		product := total
		record.ProductAmount = &product

		var discount float64
		for _, d := range doc.Discounts {
			discount += d.Amount.pounds()
		}
		for _, a := range doc.Adjustments {
			discount += a.Amount.pounds()
		}
		if discount > 0 {
			record.DiscountAmount = &discount
		}

		printAmount := product - discount
		record.PrintAmount = &printAmount
	}

	return record, nil
}
