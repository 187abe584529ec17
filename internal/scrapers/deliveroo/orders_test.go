package deliveroo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"

	"orderharvest-backend/internal/harvest"
)

// fakeHub serves the data API's list/detail shapes. It pages by the
// starting_after cursor the way the hub does: no explicit next_cursor,
// the caller continues from the last item's id.
func fakeHub(t *testing.T, total int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/restaurants/rest-uuid/orders":
			limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
			start := 0
			if after := r.URL.Query().Get("starting_after"); after != "" {
				n, err := strconv.Atoi(after[3:])
				require.NoError(t, err)
				start = n + 1
			}

			var orders []map[string]any
			for i := start; i < start+limit && i < total; i++ {
				orders = append(orders, map[string]any{
					"order_id": fmt.Sprintf("gb-%03d", i),
					"timeline": map[string]any{"placed_at": "2025-01-10T12:00:00Z"},
				})
			}
			json.NewEncoder(w).Encode(map[string]any{
				"orders":   orders,
				"has_more": start+len(orders) < total,
			})
		default:
			var id string
			fmt.Sscanf(r.URL.Path, "/api/orders/%s", &id)
			json.NewEncoder(w).Encode(map[string]any{
				"order_id": id,
				"timeline": map[string]any{"placed_at": "2025-01-10T12:00:00Z"},
				"amount":   map[string]any{"fractional": 1899},
			})
		}
	}))
}

func testScraper(server *httptest.Server) *Scraper {
	client := resty.New()
	client.SetBaseURL(server.URL)
	return &Scraper{
		http:         client,
		restaurantID: "rest-uuid",
	}
}

func TestListPageCursorFallback(t *testing.T) {
	server := fakeHub(t, 43)
	defer server.Close()

	s := testScraper(server)
	store := harvest.StoreIdentity{Code: "soho", DeliverooOrgID: "org", DeliverooBranchID: "branch"}

	all, pages, err := harvest.FetchAllPages(context.Background(), s, store, harvest.Window{}, 20)
	require.NoError(t, err)
	require.Equal(t, 3, pages)
	require.Len(t, all, 43)

	seen := map[string]bool{}
	for _, summary := range all {
		require.False(t, seen[summary.ID], "duplicate %s", summary.ID)
		seen[summary.ID] = true
		require.Equal(t, "2025-01-10T12:00:00Z", summary.SortDate)
	}
}

func TestFetchDetailRoundTrip(t *testing.T) {
	server := fakeHub(t, 1)
	defer server.Close()

	s := testScraper(server)
	payload, err := s.FetchDetail(context.Background(), harvest.OrderSummary{ID: "gb-000"})
	require.NoError(t, err)

	record, err := s.Normalize(payload, harvest.StoreIdentity{Code: "soho"})
	require.NoError(t, err)
	require.Equal(t, "gb-000", record.OrderID)
	require.NotNil(t, record.EstimatedRevenue)
	require.InDelta(t, 18.99, *record.EstimatedRevenue, 0.001)
}

func TestListPageUnresolvedStore(t *testing.T) {
	s := New(Credentials{}, harvest.Window{}, Options{})
	_, err := s.ListPage(context.Background(), harvest.StoreIdentity{Code: "x"}, harvest.Window{}, harvest.Cursor{}, 20)
	require.Error(t, err)
}
