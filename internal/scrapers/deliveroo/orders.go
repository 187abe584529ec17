package deliveroo

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"orderharvest-backend/internal/harvest"
)

type listResponse struct {
	Orders     []json.RawMessage `json:"orders"`
	Data       []json.RawMessage `json:"data"`
	HasMore    bool              `json:"has_more"`
	NextCursor string            `json:"next_cursor"`
	Next       string            `json:"next"`
}

type summaryFields struct {
	OrderID  string `json:"order_id"`
	ID       string `json:"id"`
	Timeline struct {
		PlacedAt  string `json:"placed_at"`
		CreatedAt string `json:"created_at"`
	} `json:"timeline"`
}

// ListPage fetches one page of the data API's orders listing for the
// resolved restaurant.
func (s *Scraper) ListPage(ctx context.Context, store harvest.StoreIdentity, window harvest.Window, cursor harvest.Cursor, pageSize int) (harvest.Page, error) {
	ctx, span := tracer.Start(ctx, "ListPage")
	defer span.End()
	span.SetAttributes(attribute.String("store", store.Code))

	if s.http == nil || s.restaurantID == "" {
		return harvest.Page{}, fmt.Errorf("store not resolved")
	}

	res, err := s.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"payment_type":   "all",
			"limit":          strconv.Itoa(pageSize),
			"date":           window.Label(),
			"end_date":       window.EndLabel(),
			"starting_after": cursor.StartingAfter,
			"sort_date":      cursor.SortDate,
			"with_summary":   "no",
		}).
		Get(fmt.Sprintf("/api/restaurants/%s/orders", s.restaurantID))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list request failed")
		return harvest.Page{}, err
	}
	if res.StatusCode() >= 400 {
		span.SetStatus(codes.Error, "list request rejected")
		return harvest.Page{}, fmt.Errorf("list orders: status %d: %s", res.StatusCode(), res.String())
	}

	var body listResponse
	if err := json.Unmarshal(res.Body(), &body); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unparsable list response")
		return harvest.Page{}, fmt.Errorf("decode list response: %w", err)
	}

	orders := body.Orders
	if orders == nil {
		orders = body.Data
	}

	page := harvest.Page{HasMore: body.HasMore}
	if body.NextCursor != "" {
		page.NextCursor = body.NextCursor
	} else {
		page.NextCursor = body.Next
	}
	for _, raw := range orders {
		var fields summaryFields
		if err := json.Unmarshal(raw, &fields); err != nil {
			continue
		}
		id := fields.OrderID
		if id == "" {
			id = fields.ID
		}
		sortDate := fields.Timeline.PlacedAt
		if sortDate == "" {
			sortDate = fields.Timeline.CreatedAt
		}
		page.Summaries = append(page.Summaries, harvest.OrderSummary{
			ID:       id,
			SortDate: sortDate,
		})
	}

	span.SetAttributes(attribute.Int("items", len(page.Summaries)))
	return page, nil
}

// FetchDetail fetches the full order document for one summary.
func (s *Scraper) FetchDetail(ctx context.Context, summary harvest.OrderSummary) (json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "FetchDetail")
	defer span.End()
	span.SetAttributes(attribute.String("order_id", summary.ID))

	if s.http == nil {
		return nil, fmt.Errorf("store not resolved")
	}

	res, err := s.http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/api/orders/%s", summary.ID))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "detail request failed")
		return nil, err
	}
	if res.StatusCode() >= 400 {
		span.SetStatus(codes.Error, "detail request rejected")
		return nil, fmt.Errorf("order %s: status %d", summary.ID, res.StatusCode())
	}
	return json.RawMessage(res.Body()), nil
}
