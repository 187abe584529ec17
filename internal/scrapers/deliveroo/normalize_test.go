package deliveroo

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"orderharvest-backend/internal/harvest"
	"orderharvest-backend/lib/timezone"
)

var testStore = harvest.StoreIdentity{Code: "soho", Name: "Soho Branch"}

func normalize(t *testing.T, payload string) (harvest.Record, error) {
	t.Helper()
	s := New(Credentials{}, harvest.Window{}, Options{})
	return s.Normalize(json.RawMessage(payload), testStore)
}

func TestNormalizeFullOrder(t *testing.T) {
	payload := `{
		"order_id": "gb-123",
		"timeline": {"placed_at": "2025-01-10T18:30:00Z"},
		"amount": {"fractional": 1899, "formatted": "£18.99", "currency_code": "GBP"},
		"discounts": [{"amount": {"fractional": 200}}],
		"adjustments": [{"amount": {"fractional": 99}}]
	}`
	record, err := normalize(t, payload)
	require.NoError(t, err)

	require.Equal(t, "deliveroo", record.Platform)
	require.Equal(t, "soho", record.StoreCode)
	require.Equal(t, "gb-123", record.OrderID)
	require.Equal(t, time.Date(2025, 1, 10, 18, 30, 0, 0, time.UTC).Unix(), record.OrderTime.Unix())

	require.NotNil(t, record.EstimatedRevenue)
	require.InDelta(t, 18.99, *record.EstimatedRevenue, 0.001)
	require.NotNil(t, record.ProductAmount)
	require.InDelta(t, 18.99, *record.ProductAmount, 0.001)
	require.NotNil(t, record.DiscountAmount)
	require.InDelta(t, 2.99, *record.DiscountAmount, 0.001)
	require.NotNil(t, record.PrintAmount)
	require.InDelta(t, 16.00, *record.PrintAmount, 0.001)

	require.JSONEq(t, payload, string(record.Payload))
}

func TestNormalizeIdentifierFallbacks(t *testing.T) {
	record, err := normalize(t, `{"id": "fallback-id", "created_at": "2025-01-10 12:00:00"}`)
	require.NoError(t, err)
	require.Equal(t, "fallback-id", record.OrderID)

	record, err = normalize(t, `{"drn_id": "drn-9", "created_at": "2025-01-10 12:00:00"}`)
	require.NoError(t, err)
	require.Equal(t, "drn-9", record.OrderID)

	_, err = normalize(t, `{"created_at": "2025-01-10 12:00:00"}`)
	require.ErrorIs(t, err, harvest.ErrRejected)
}

func TestNormalizeTimestampFallbacks(t *testing.T) {
	// timeline.placed_at absent, top-level created_at wins
	record, err := normalize(t, `{"order_id": "a", "created_at": "2025-01-10T09:00:00Z"}`)
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC).Unix(), record.OrderTime.Unix())

	// timeline.accepted_at beats top-level fields
	record, err = normalize(t, `{
		"order_id": "b",
		"timeline": {"accepted_at": "2025-01-10T10:00:00Z"},
		"created_at": "2025-01-09T00:00:00Z"
	}`)
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC).Unix(), record.OrderTime.Unix())

	// offset-less timestamps read as london wall clock
	record, err = normalize(t, `{"order_id": "c", "created_at": "2025-01-10 12:00:00"}`)
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 1, 10, 12, 0, 0, 0, timezone.Location), record.OrderTime)

	// no candidate at all
	_, err = normalize(t, `{"order_id": "d"}`)
	require.ErrorIs(t, err, harvest.ErrRejected)

	// unparsable candidate
	_, err = normalize(t, `{"order_id": "e", "created_at": "10/01/2025"}`)
	require.ErrorIs(t, err, harvest.ErrRejected)
}

func TestNormalizeMoneyTolerance(t *testing.T) {
	// no amount object at all: money fields stay null
	record, err := normalize(t, `{"order_id": "a", "created_at": "2025-01-10T09:00:00Z"}`)
	require.NoError(t, err)
	require.Nil(t, record.EstimatedRevenue)
	require.Nil(t, record.ProductAmount)
	require.Nil(t, record.DiscountAmount)
	require.Nil(t, record.PrintAmount)

	// string-encoded fractional still parses
	record, err = normalize(t, `{
		"order_id": "b",
		"created_at": "2025-01-10T09:00:00Z",
		"amount": {"fractional": "2550"}
	}`)
	require.NoError(t, err)
	require.NotNil(t, record.EstimatedRevenue)
	require.InDelta(t, 25.50, *record.EstimatedRevenue, 0.001)
	require.NotNil(t, record.PrintAmount)
	require.InDelta(t, 25.50, *record.PrintAmount, 0.001)
	require.Nil(t, record.DiscountAmount)

	// garbage discount amounts coerce to zero instead of failing the
	// whole record
	record, err = normalize(t, `{
		"order_id": "c",
		"created_at": "2025-01-10T09:00:00Z",
		"amount": {"fractional": 1000},
		"discounts": [{"amount": {"fractional": "not a number"}}]
	}`)
	require.NoError(t, err)
	require.Nil(t, record.DiscountAmount)
	require.InDelta(t, 10.00, *record.PrintAmount, 0.001)
}

func TestNormalizeMalformedPayload(t *testing.T) {
	_, err := normalize(t, `not json`)
	require.ErrorIs(t, err, harvest.ErrRejected)
}
