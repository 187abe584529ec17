package harvest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"orderharvest-backend/lib/timezone"
)

// fakePlatform serves canned pages and details so the pipeline can be
// exercised without a browser or network.
type fakePlatform struct {
	name string

	loginErr   error
	resolveErr map[string]error

	pages     []Page
	listCalls int
	listErrAt int // 1-based call index that fails, 0 = never

	detailErrFor map[string]bool
	detailCalls  int

	orderTime  time.Time
	orderTimes map[string]string
	rejectIDs  map[string]bool
}

func (f *fakePlatform) Name() string {
	if f.name == "" {
		return "fake"
	}
	return f.name
}

func (f *fakePlatform) Login(ctx context.Context) error { return f.loginErr }

func (f *fakePlatform) ResolveStore(ctx context.Context, store StoreIdentity) error {
	return f.resolveErr[store.Code]
}

func (f *fakePlatform) ListPage(ctx context.Context, store StoreIdentity, window Window, cursor Cursor, pageSize int) (Page, error) {
	f.listCalls++
	if f.listErrAt != 0 && f.listCalls == f.listErrAt {
		return Page{}, fmt.Errorf("upstream 502")
	}
	if f.listCalls > len(f.pages) {
		return Page{}, nil
	}
	return f.pages[f.listCalls-1], nil
}

func (f *fakePlatform) FetchDetail(ctx context.Context, summary OrderSummary) (json.RawMessage, error) {
	f.detailCalls++
	if f.detailErrFor[summary.ID] {
		return nil, fmt.Errorf("detail 500 for %s", summary.ID)
	}
	return json.RawMessage(fmt.Sprintf(`{"id":%q}`, summary.ID)), nil
}

func (f *fakePlatform) Normalize(payload json.RawMessage, store StoreIdentity) (Record, error) {
	var doc struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return Record{}, err
	}
	if f.rejectIDs[doc.ID] {
		return Record{}, fmt.Errorf("%w: no timestamp in %s", ErrRejected, doc.ID)
	}
	orderTime := f.orderTime
	if raw, ok := f.orderTimes[doc.ID]; ok {
		parsed, err := ParseUpstreamTime(raw)
		if err != nil {
			return Record{}, fmt.Errorf("%w: %s", ErrRejected, err)
		}
		orderTime = parsed
	}
	if orderTime.IsZero() {
		orderTime = time.Date(2025, 1, 10, 12, 0, 0, 0, timezone.Location)
	}
	return Record{
		Platform:  f.Name(),
		StoreCode: store.Code,
		StoreName: store.Name,
		OrderID:   doc.ID,
		OrderTime: orderTime,
		Payload:   payload,
	}, nil
}

func (f *fakePlatform) Close() {}

func summariesN(prefix string, n int) []OrderSummary {
	out := make([]OrderSummary, n)
	for i := range out {
		out[i] = OrderSummary{
			ID:       fmt.Sprintf("%s-%03d", prefix, i),
			SortDate: "2025-01-10T12:00:00Z",
		}
	}
	return out
}

// memorySink collects upserted records in memory, de-duplicated on
// (platform, order id) the way the real store is.
type memorySink struct {
	records map[string]Record
	err     error
	calls   int
}

func newMemorySink() *memorySink {
	return &memorySink{records: map[string]Record{}}
}

func (s *memorySink) UpsertBatch(ctx context.Context, records []Record) (UpsertResult, error) {
	s.calls++
	if s.err != nil {
		return UpsertResult{}, s.err
	}
	var result UpsertResult
	for _, r := range records {
		key := r.Platform + "/" + r.OrderID
		if _, ok := s.records[key]; ok {
			result.Updated++
		} else {
			result.Inserted++
		}
		s.records[key] = r
	}
	return result, nil
}
