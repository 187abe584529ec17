package harvest

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestFetchAllPagesDrainsFullPages(t *testing.T) {
	platform := &fakePlatform{
		pages: []Page{
			{Summaries: summariesN("a", 20)},
			{Summaries: summariesN("b", 20)},
			{Summaries: summariesN("c", 3)},
		},
	}

	all, pages, err := FetchAllPages(context.Background(), platform, StoreIdentity{Code: "s1"}, Window{}, 20)
	require.NoError(t, err)
	require.Equal(t, 3, pages)
	require.Equal(t, 3, platform.listCalls)

	// no duplicates, nothing dropped, order preserved
	var want, got []string
	for _, page := range platform.pages {
		for _, s := range page.Summaries {
			want = append(want, s.ID)
		}
	}
	for _, s := range all {
		got = append(got, s.ID)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("summaries mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchAllPagesPrefersExplicitCursor(t *testing.T) {
	platform := &fakePlatform{
		pages: []Page{
			{Summaries: summariesN("a", 5), NextCursor: "token-1", HasMore: true},
			{Summaries: summariesN("b", 2), HasMore: false},
		},
	}

	all, _, err := FetchAllPages(context.Background(), platform, StoreIdentity{Code: "s1"}, Window{}, 20)
	require.NoError(t, err)
	require.Len(t, all, 7)
	require.Equal(t, 2, platform.listCalls)
}

func TestFetchAllPagesStopsWhenCursorUnderivable(t *testing.T) {
	// upstream says HasMore but the page has no token and no items to
	// derive one from
	platform := &fakePlatform{
		pages: []Page{
			{Summaries: []OrderSummary{{ID: "", SortDate: ""}}, HasMore: true},
		},
	}

	all, pages, err := FetchAllPages(context.Background(), platform, StoreIdentity{Code: "s1"}, Window{}, 1)
	require.NoError(t, err)
	require.Equal(t, 1, pages)
	require.Len(t, all, 1)
}

func TestFetchAllPagesKeepsPartialOnTransportError(t *testing.T) {
	platform := &fakePlatform{
		pages: []Page{
			{Summaries: summariesN("a", 20)},
		},
		listErrAt: 2,
	}

	all, pages, err := FetchAllPages(context.Background(), platform, StoreIdentity{Code: "s1"}, Window{}, 20)
	require.Error(t, err)
	require.Equal(t, 2, pages)
	require.Len(t, all, 20)
}

func TestFetchAllPagesEmptyFirstPage(t *testing.T) {
	platform := &fakePlatform{}

	all, pages, err := FetchAllPages(context.Background(), platform, StoreIdentity{Code: "s1"}, Window{}, 20)
	require.NoError(t, err)
	require.Equal(t, 1, pages)
	require.Empty(t, all)
}
