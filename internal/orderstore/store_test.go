package orderstore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"orderharvest-backend/internal/harvest"
	"orderharvest-backend/internal/orderstore/db"
	"orderharvest-backend/lib/testutil"
	"orderharvest-backend/lib/timezone"
)

func setupStore(t *testing.T) Store {
	result, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "orderstore",
		DbSchema: db.Schema,
	})
	t.Cleanup(cleanup)
	return NewStore(result.DB)
}

func float(v float64) *float64 { return &v }

func testRecord(orderID string) harvest.Record {
	return harvest.Record{
		Platform:         "deliveroo",
		StoreCode:        "soho",
		StoreName:        "Soho Branch",
		OrderID:          orderID,
		OrderTime:        time.Date(2025, 1, 10, 18, 30, 0, 0, timezone.Location),
		EstimatedRevenue: float(42.50),
		ProductAmount:    float(45.00),
		DiscountAmount:   float(2.50),
		PrintAmount:      float(42.50),
		Payload:          json.RawMessage(`{"id":"` + orderID + `","total":4250}`),
	}
}

func TestUpsertBatchInsertsThenNoops(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	records := []harvest.Record{testRecord("o-1"), testRecord("o-2")}

	result, err := store.UpsertBatch(ctx, records)
	require.NoError(t, err)
	require.Equal(t, 2, result.Inserted)
	require.Equal(t, 0, result.Updated)
	require.Equal(t, 0, result.Failed)

	// identical re-run changes nothing
	result, err = store.UpsertBatch(ctx, records)
	require.NoError(t, err)
	require.Equal(t, 0, result.Inserted)
	require.Equal(t, 0, result.Updated)
	require.Equal(t, 0, result.Failed)
}

func TestUpsertBatchNoopLeavesUpdatedAtAlone(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := store.UpsertBatch(ctx, []harvest.Record{testRecord("o-1")})
	require.NoError(t, err)

	before, err := store.qry.GetRawOrder(ctx, db.GetRawOrderParams{
		Platform: "deliveroo",
		OrderID:  "o-1",
	})
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond)
	_, err = store.UpsertBatch(ctx, []harvest.Record{testRecord("o-1")})
	require.NoError(t, err)

	after, err := store.qry.GetRawOrder(ctx, db.GetRawOrderParams{
		Platform: "deliveroo",
		OrderID:  "o-1",
	})
	require.NoError(t, err)
	require.Equal(t, before.UpdatedAt, after.UpdatedAt)
	require.Equal(t, before.CreatedAt, after.CreatedAt)
}

func TestUpsertBatchChangedRecordUpdates(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := store.UpsertBatch(ctx, []harvest.Record{testRecord("o-1")})
	require.NoError(t, err)

	changed := testRecord("o-1")
	changed.EstimatedRevenue = float(40.00)
	changed.Payload = json.RawMessage(`{"id":"o-1","total":4000}`)

	result, err := store.UpsertBatch(ctx, []harvest.Record{changed})
	require.NoError(t, err)
	require.Equal(t, 0, result.Inserted)
	require.Equal(t, 1, result.Updated)

	row, err := store.qry.GetRawOrder(ctx, db.GetRawOrderParams{
		Platform: "deliveroo",
		OrderID:  "o-1",
	})
	require.NoError(t, err)
	require.True(t, row.EstimatedRevenue.Valid)
	require.Equal(t, 40.00, row.EstimatedRevenue.Float64)
	require.Contains(t, row.Payload, "4000")
}

func TestUpsertBatchSameOrderIDAcrossPlatforms(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	deliveroo := testRecord("o-1")
	panda := testRecord("o-1")
	panda.Platform = "panda"

	result, err := store.UpsertBatch(ctx, []harvest.Record{deliveroo, panda})
	require.NoError(t, err)
	require.Equal(t, 2, result.Inserted)

	count, err := store.qry.CountRawOrders(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
}

func TestUpsertBatchNullMoneyFields(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	r := testRecord("o-1")
	r.EstimatedRevenue = nil
	r.PrintAmount = nil

	result, err := store.UpsertBatch(ctx, []harvest.Record{r})
	require.NoError(t, err)
	require.Equal(t, 1, result.Inserted)

	// a second pass with the same nulls must still be a no-op
	result, err = store.UpsertBatch(ctx, []harvest.Record{r})
	require.NoError(t, err)
	require.Equal(t, 0, result.Updated)

	// filling in a previously-null field is a real change
	r.EstimatedRevenue = float(10)
	result, err = store.UpsertBatch(ctx, []harvest.Record{r})
	require.NoError(t, err)
	require.Equal(t, 1, result.Updated)
}

func TestUpsertBatchIsolatesBadRecords(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	records := []harvest.Record{
		testRecord("o-1"),
		{Platform: "deliveroo"}, // no order id
		testRecord("o-2"),
	}
	result, err := store.UpsertBatch(ctx, records)
	require.Error(t, err)
	require.Equal(t, 2, result.Inserted)
	require.Equal(t, 1, result.Failed)
}

func TestOrdersForStore(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := store.UpsertBatch(ctx, []harvest.Record{testRecord("o-1"), testRecord("o-2")})
	require.NoError(t, err)

	w, err := harvest.ParseWindow("2025-01-10", "2025-01-10")
	require.NoError(t, err)
	rows, err := store.OrdersForStore(ctx, "soho", w)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	rows, err = store.OrdersForStore(ctx, "other", w)
	require.NoError(t, err)
	require.Empty(t, rows)
}
