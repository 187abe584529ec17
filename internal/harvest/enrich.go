package harvest

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel/attribute"
)

// Delayer blocks for some courtesy interval between detail requests. A
// nil Delayer (mocked transports, tests) skips the wait entirely.
type Delayer func(ctx context.Context)

// RandomDelayer sleeps a uniformly-random duration in [min, max]. The
// delay is throttling courtesy toward the platform, not a correctness
// requirement.
func RandomDelayer(min, max time.Duration) Delayer {
	return func(ctx context.Context) {
		ms, err := random.IntRange(int(min.Milliseconds()), int(max.Milliseconds())+1)
		if err != nil {
			ms = int(min.Milliseconds())
		}
		select {
		case <-time.After(time.Duration(ms) * time.Millisecond):
		case <-ctx.Done():
		}
	}
}

// DetailFailure records one order whose detail fetch failed, without
// aborting the rest of the batch.
type DetailFailure struct {
	OrderID string
	Reason  string
}

// EnrichDetails fetches the full document for each summary. Per-item
// transport errors land in the failure list; summaries without an
// extractable identifier are skipped before any network call.
func EnrichDetails(
	ctx context.Context,
	platform Platform,
	summaries []OrderSummary,
	delay Delayer,
) ([]json.RawMessage, []DetailFailure) {
	ctx, span := tracer.Start(ctx, "EnrichDetails")
	defer span.End()

	var details []json.RawMessage
	var failures []DetailFailure

	for i, summary := range summaries {
		if summary.ID == "" {
			slog.WarnContext(ctx, "summary without order id, skipping",
				"index", i,
				"total", len(summaries),
			)
			continue
		}
		if delay != nil {
			delay(ctx)
		}
		if ctx.Err() != nil {
			failures = append(failures, DetailFailure{
				OrderID: summary.ID,
				Reason:  ctx.Err().Error(),
			})
			continue
		}

		doc, err := platform.FetchDetail(ctx, summary)
		if err != nil {
			slog.WarnContext(ctx, "detail fetch failed",
				"order_id", summary.ID,
				"err", err,
			)
			failures = append(failures, DetailFailure{
				OrderID: summary.ID,
				Reason:  err.Error(),
			})
			continue
		}
		details = append(details, doc)
	}

	span.SetAttributes(
		attribute.Int("success", len(details)),
		attribute.Int("failed", len(failures)),
	)
	return details, failures
}
