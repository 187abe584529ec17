package panda

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"orderharvest-backend/internal/harvest"
	"orderharvest-backend/lib/timezone"
)

// the portal paginates by page number, not cursor. The page number is
// carried through the generic cursor as its continuation token.
type listResponse struct {
	Data struct {
		List  []json.RawMessage `json:"list"`
		Total int               `json:"total"`
	} `json:"data"`
}

type summaryFields struct {
	OrderSn       string `json:"orderSn"`
	OrderID       string `json:"order_id"`
	OrderIDCamel  string `json:"orderId"`
	CreateTimeStr string `json:"createTimeStr"`
	CreateTime    string `json:"createTime"`
}

func (f summaryFields) id() string {
	if f.OrderSn != "" {
		return f.OrderSn
	}
	if f.OrderID != "" {
		return f.OrderID
	}
	return f.OrderIDCamel
}

func (f summaryFields) sortDate() string {
	if f.CreateTimeStr != "" {
		return f.CreateTimeStr
	}
	return f.CreateTime
}

func windowBound(t time.Time, fallback string) string {
	if t.IsZero() {
		return fallback
	}
	return t.In(timezone.Location).Format("2006-01-02 15:04:05")
}

// ListPage fetches one page of the order listing. Page numbers start at
// 1; an empty cursor requests the first page.
func (s *Scraper) ListPage(ctx context.Context, store harvest.StoreIdentity, window harvest.Window, cursor harvest.Cursor, pageSize int) (harvest.Page, error) {
	ctx, span := tracer.Start(ctx, "ListPage")
	defer span.End()
	span.SetAttributes(attribute.String("store", store.Code))

	if s.http == nil || s.gatewayID == "" {
		return harvest.Page{}, fmt.Errorf("store not resolved")
	}

	pageNo := 1
	if cursor.StartingAfter != "" {
		n, err := strconv.Atoi(cursor.StartingAfter)
		if err != nil {
			return harvest.Page{}, fmt.Errorf("bad page cursor %q: %w", cursor.StartingAfter, err)
		}
		pageNo = n
	}

	res, err := s.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"pageNo":    strconv.Itoa(pageNo),
			"pageSize":  strconv.Itoa(pageSize),
			"startTime": windowBound(window.Start, ""),
			"endTime":   windowBound(window.End, ""),
		}).
		Get(fmt.Sprintf("/gateway/%s/order/list", s.gatewayID))
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

	var page harvest.Page
	for _, raw := range body.Data.List {
		var fields summaryFields
		if err := json.Unmarshal(raw, &fields); err != nil {
			continue
		}
		page.Summaries = append(page.Summaries, harvest.OrderSummary{
			ID:       fields.id(),
			SortDate: fields.sortDate(),
		})
	}

	seen := (pageNo-1)*pageSize + len(page.Summaries)
	if seen < body.Data.Total {
		page.HasMore = true
	}
	// a full final page still carries the next page number so the generic
	// cursor fallback never feeds an orderSn into the page-number parser;
	// when the total is an exact multiple of the page size the follow-up
	// request simply comes back empty
	if page.HasMore || len(page.Summaries) == pageSize {
		page.NextCursor = strconv.Itoa(pageNo + 1)
	}

	span.SetAttributes(attribute.Int("items", len(page.Summaries)), attribute.Int("total", body.Data.Total))
	return page, nil
}

// FetchDetail fetches one order's full document. The portal wraps the
// order object in a data envelope; the envelope is returned as-is, the
// normalizer unwraps it.
func (s *Scraper) FetchDetail(ctx context.Context, summary harvest.OrderSummary) (json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "FetchDetail")
	defer span.End()
	span.SetAttributes(attribute.String("order_id", summary.ID))

	if s.http == nil || s.gatewayID == "" {
		return nil, fmt.Errorf("store not resolved")
	}

	res, err := s.http.R().
		SetContext(ctx).
		SetQueryParam("orderSn", summary.ID).
		Get(fmt.Sprintf("/gateway/%s/order/detail", s.gatewayID))
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
