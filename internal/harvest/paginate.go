package harvest

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("internal/harvest")

// FetchAllPages drains the list endpoint for one store and day. It keeps
// requesting while a page came back full or the platform explicitly said
// there is more, advancing by the platform's next-cursor when present and
// falling back to the last item's own id + timestamp otherwise.
//
// A transport failure mid-pagination is non-fatal: the summaries
// accumulated so far are returned alongside the error so enrichment can
// proceed on what was collected. The returned page count includes the
// failed request.
func FetchAllPages(
	ctx context.Context,
	platform Platform,
	store StoreIdentity,
	window Window,
	pageSize int,
) ([]OrderSummary, int, error) {
	ctx, span := tracer.Start(ctx, "FetchAllPages")
	defer span.End()
	span.SetAttributes(
		attribute.String("store", store.Code),
		attribute.Int("page_size", pageSize),
	)

	var all []OrderSummary
	var cursor Cursor
	pages := 0

	for {
		pages++
		page, err := platform.ListPage(ctx, store, window, cursor, pageSize)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "pagination transport failure")
			slog.WarnContext(ctx, "list page failed, keeping partial results",
				"store", store.Code,
				"page", pages,
				"collected", len(all),
				"err", err,
			)
			return all, pages, fmt.Errorf("page %d: %w", pages, err)
		}

		all = append(all, page.Summaries...)
		slog.DebugContext(ctx, "fetched list page",
			"store", store.Code,
			"page", pages,
			"items", len(page.Summaries),
			"total", len(all),
		)

		if len(page.Summaries) == 0 {
			break
		}
		if len(page.Summaries) < pageSize && !page.HasMore {
			break
		}

		next := Cursor{StartingAfter: page.NextCursor}
		if next.StartingAfter == "" {
			last := page.Summaries[len(page.Summaries)-1]
			next.StartingAfter = last.ID
			next.SortDate = last.SortDate
		}
		if next.StartingAfter == "" {
			// upstream claims more data but gave us nothing to continue
			// from; stopping beats looping on page 1 forever
			slog.WarnContext(ctx, "cannot derive continuation cursor, stopping pagination",
				"store", store.Code,
				"page", pages,
			)
			break
		}
		cursor = next
	}

	span.SetAttributes(attribute.Int("orders", len(all)), attribute.Int("pages", pages))
	return all, pages, nil
}
