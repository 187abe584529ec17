package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Status classifies one (store, day) cell of a batch run.
type Status string

const (
	StatusOK                  Status = "OK"
	StatusFailed              Status = "FAILED"
	StatusNoData              Status = "NO_DATA"
	StatusSkippedUnknownStore Status = "SKIPPED_UNKNOWN_STORE"
)

// StoreOutcome is the per-(store, day) result row of a batch run.
type StoreOutcome struct {
	StoreCode string
	StoreName string
	Day       string
	Status    Status

	Fetched  int
	Stored   int
	Updated  int
	Rejected int
	Failed   int

	Err string
}

// Outcome aggregates a whole batch run. LoginFailed means nothing was
// attempted past authentication.
type Outcome struct {
	Platform    string
	LoginFailed bool
	Stores      []StoreOutcome
	Elapsed     time.Duration
}

// Failures counts the non-OK, non-NO_DATA outcome rows.
func (o Outcome) Failures() int {
	n := 0
	for _, s := range o.Stores {
		if s.Status == StatusFailed || s.Status == StatusSkippedUnknownStore {
			n++
		}
	}
	return n
}

// UpsertResult reports what a sink did with one batch of records.
type UpsertResult struct {
	Inserted int
	Updated  int
	Failed   int
}

// Sink persists normalized records. internal/orderstore provides the
// real one; tests substitute their own.
type Sink interface {
	UpsertBatch(ctx context.Context, records []Record) (UpsertResult, error)
}

// Batch drives one full harvesting run: a single login, then the
// stores x days grid of fetch, enrich, normalize, filter, persist.
type Batch struct {
	Platform Platform
	Sink     Sink
	PageSize int
	Delay    Delayer
}

// Run executes the batch. Login failure aborts everything; any later
// failure is contained to its (store, day) cell. Unknown selectors are
// reported as SKIPPED_UNKNOWN_STORE rows so a typoed store code is
// visible in the outcome instead of silently harvesting nothing.
func (b *Batch) Run(ctx context.Context, stores []StoreIdentity, unknown []string, window Window) Outcome {
	ctx, span := tracer.Start(ctx, "Batch.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("platform", b.Platform.Name()),
		attribute.Int("stores", len(stores)),
	)

	started := time.Now()
	outcome := Outcome{Platform: b.Platform.Name()}

	for _, sel := range unknown {
		outcome.Stores = append(outcome.Stores, StoreOutcome{
			StoreCode: sel,
			Day:       window.Label(),
			Status:    StatusSkippedUnknownStore,
			Err:       "no such store configured",
		})
	}

	if err := b.Platform.Login(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		slog.ErrorContext(ctx, "login failed, aborting batch",
			"platform", b.Platform.Name(),
			"err", err,
		)
		outcome.LoginFailed = true
		outcome.Elapsed = time.Since(started)
		return outcome
	}

	days := window.Days()
	for _, store := range stores {
		if err := b.Platform.ResolveStore(ctx, store); err != nil {
			slog.ErrorContext(ctx, "store resolution failed, skipping store",
				"store", store.Code,
				"err", err,
			)
			for _, day := range days {
				outcome.Stores = append(outcome.Stores, StoreOutcome{
					StoreCode: store.Code,
					StoreName: store.Name,
					Day:       day.Label(),
					Status:    StatusFailed,
					Err:       fmt.Sprintf("resolve store: %s", err),
				})
			}
			continue
		}

		for _, day := range days {
			outcome.Stores = append(outcome.Stores, b.runDay(ctx, store, day))
		}
	}

	outcome.Elapsed = time.Since(started)
	span.SetAttributes(attribute.Int("failures", outcome.Failures()))
	return outcome
}

func (b *Batch) runDay(ctx context.Context, store StoreIdentity, day Window) StoreOutcome {
	ctx, span := tracer.Start(ctx, "Batch.runDay")
	defer span.End()
	span.SetAttributes(
		attribute.String("store", store.Code),
		attribute.String("day", day.Label()),
	)

	out := StoreOutcome{
		StoreCode: store.Code,
		StoreName: store.Name,
		Day:       day.Label(),
	}

	summaries, pages, listErr := FetchAllPages(ctx, b.Platform, store, day, b.PageSize)
	out.Fetched = len(summaries)
	if listErr != nil && len(summaries) == 0 {
		span.RecordError(listErr)
		span.SetStatus(codes.Error, "list failed")
		out.Status = StatusFailed
		out.Err = listErr.Error()
		return out
	}
	if listErr != nil {
		// partial listing still gets enriched and stored
		out.Err = listErr.Error()
	}
	if len(summaries) == 0 {
		out.Status = StatusNoData
		slog.InfoContext(ctx, "no orders for day",
			"store", store.Code,
			"day", day.Label(),
			"pages", pages,
		)
		return out
	}

	details, failures := EnrichDetails(ctx, b.Platform, summaries, b.Delay)
	out.Failed = len(failures)

	var records []Record
	for _, payload := range details {
		record, err := b.Platform.Normalize(payload, store)
		if err != nil {
			if errors.Is(err, ErrRejected) {
				out.Rejected++
				slog.WarnContext(ctx, "record rejected",
					"store", store.Code,
					"err", err,
				)
				continue
			}
			out.Rejected++
			slog.WarnContext(ctx, "normalize failed",
				"store", store.Code,
				"err", err,
			)
			continue
		}
		records = append(records, record)
	}

	records = day.Filter(records)
	if len(records) == 0 {
		if out.Failed > 0 || out.Rejected > 0 || out.Err != "" {
			out.Status = StatusFailed
			if out.Err == "" {
				out.Err = "no records survived enrichment"
			}
		} else {
			out.Status = StatusNoData
		}
		return out
	}

	result, err := b.Sink.UpsertBatch(ctx, records)
	out.Stored = result.Inserted
	out.Updated = result.Updated
	out.Failed += result.Failed
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upsert failed")
		out.Status = StatusFailed
		out.Err = err.Error()
		return out
	}

	out.Status = StatusOK
	slog.InfoContext(ctx, "day harvested",
		"store", store.Code,
		"day", day.Label(),
		"fetched", out.Fetched,
		"stored", out.Stored,
		"updated", out.Updated,
		"rejected", out.Rejected,
		"failed", out.Failed,
	)
	return out
}
