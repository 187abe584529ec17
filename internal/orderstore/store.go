package orderstore

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"orderharvest-backend/internal/harvest"
	"orderharvest-backend/internal/orderstore/db"
	"orderharvest-backend/lib/timezone"
)

var tracer = otel.Tracer("internal/orderstore")

// Store persists normalized order records keyed on (platform, order_id).
// Re-harvesting the same day is safe: an identical record is a no-op
// that leaves the row, including updated_at, untouched.
type Store struct {
	db  *sql.DB
	qry *db.Queries
}

func NewStore(database *sql.DB) Store {
	return Store{
		db:  database,
		qry: db.New(database),
	}
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

// UpsertBatch writes one batch of records. A record that fails to write
// is counted and skipped, the rest of the batch still lands. The
// returned error is the last per-record failure, reported only so
// callers know the batch was not clean.
func (s Store) UpsertBatch(ctx context.Context, records []harvest.Record) (harvest.UpsertResult, error) {
	ctx, span := tracer.Start(ctx, "UpsertBatch")
	defer span.End()
	span.SetAttributes(attribute.Int("records", len(records)))

	now := timezone.Now().Format(time.RFC3339)

	var result harvest.UpsertResult
	var lastErr error
	for _, r := range records {
		if r.OrderID == "" || r.Platform == "" {
			result.Failed++
			lastErr = errors.New("record missing platform or order id")
			continue
		}

		existed := true
		_, err := s.qry.GetRawOrder(ctx, db.GetRawOrderParams{
			Platform: r.Platform,
			OrderID:  r.OrderID,
		})
		if errors.Is(err, sql.ErrNoRows) {
			existed = false
		} else if err != nil {
			span.RecordError(err)
			slog.WarnContext(ctx, "existence check failed",
				"platform", r.Platform,
				"order_id", r.OrderID,
				"err", err,
			)
			result.Failed++
			lastErr = err
			continue
		}

		affected, err := s.qry.UpsertRawOrder(ctx, db.UpsertRawOrderParams{
			Platform:         r.Platform,
			StoreCode:        r.StoreCode,
			StoreName:        r.StoreName,
			OrderID:          r.OrderID,
			OrderTime:        r.OrderTime.In(timezone.Location).Format(time.RFC3339),
			EstimatedRevenue: nullFloat(r.EstimatedRevenue),
			ProductAmount:    nullFloat(r.ProductAmount),
			DiscountAmount:   nullFloat(r.DiscountAmount),
			PrintAmount:      nullFloat(r.PrintAmount),
			Payload:          string(r.Payload),
			CreatedAt:        now,
			UpdatedAt:        now,
		})
		if err != nil {
			span.RecordError(err)
			slog.WarnContext(ctx, "upsert failed",
				"platform", r.Platform,
				"order_id", r.OrderID,
				"err", err,
			)
			result.Failed++
			lastErr = err
			continue
		}

		switch {
		case !existed:
			result.Inserted++
		case affected > 0:
			result.Updated++
		}
	}

	span.SetAttributes(
		attribute.Int("inserted", result.Inserted),
		attribute.Int("updated", result.Updated),
		attribute.Int("failed", result.Failed),
	)
	if result.Failed > 0 {
		span.SetStatus(codes.Error, "batch had failures")
	}
	return result, lastErr
}

// OrdersForStore reads back stored orders for one store inside a
// window, ordered by order time.
func (s Store) OrdersForStore(ctx context.Context, storeCode string, window harvest.Window) ([]db.RawOrder, error) {
	ctx, span := tracer.Start(ctx, "OrdersForStore")
	defer span.End()

	start := ""
	end := "9999-12-31T23:59:59Z"
	if !window.Start.IsZero() {
		start = window.Start.In(timezone.Location).Format(time.RFC3339)
	}
	if !window.End.IsZero() {
		end = window.End.In(timezone.Location).Format(time.RFC3339)
	}
	rows, err := s.qry.ListRawOrdersForStore(ctx, db.ListRawOrdersForStoreParams{
		StoreCode:   storeCode,
		OrderTime:   start,
		OrderTime_2: end,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return rows, nil
}
