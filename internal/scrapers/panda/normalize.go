package panda

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"orderharvest-backend/internal/harvest"
)

// fee line item labels as the portal renders them. Matching is exact.
const (
	labelEstimatedRevenue = "Estimated revenue"
	labelProductBreakdown = "Product breakdown"
	labelMerchantDiscount = "Discount by merchant"
)

// flexNumber tolerates the portal's mixed number encodings. Anything
// that will not coerce counts as zero rather than failing the record.
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = flexNumber(v)
	return nil
}

type feeItem struct {
	Name   string     `json:"name"`
	Label  string     `json:"label"`
	Amount flexNumber `json:"amount"`
	Value  flexNumber `json:"value"`
}

func (f feeItem) label() string {
	if f.Name != "" {
		return f.Name
	}
	return f.Label
}

func (f feeItem) value() float64 {
	if f.Amount != 0 {
		return float64(f.Amount)
	}
	return float64(f.Value)
}

type orderDoc struct {
	OrderSn      string `json:"orderSn"`
	OrderID      string `json:"order_id"`
	OrderIDCamel string `json:"orderId"`

	CreateTimeStr string `json:"createTimeStr"`
	CreateTime    string `json:"createTime"`

	FeeDetails  []feeItem  `json:"feeDetails"`
	OrderAmount flexNumber `json:"orderAmount"`
}

// Normalize extracts a persistable record from a raw portal order.
// Detail responses wrap the order object in a data envelope; both the
// wrapped and bare shapes are accepted, and the stored payload is
// always the input document as received, envelope included.
func (s *Scraper) Normalize(payload json.RawMessage, store harvest.StoreIdentity) (harvest.Record, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	body := payload
	if err := json.Unmarshal(payload, &envelope); err == nil && len(envelope.Data) > 0 && envelope.Data[0] == '{' {
		body = envelope.Data
	}

	var doc orderDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return harvest.Record{}, fmt.Errorf("%w: %s", harvest.ErrRejected, err)
	}

	id := doc.OrderSn
	if id == "" {
		id = doc.OrderID
	}
	if id == "" {
		id = doc.OrderIDCamel
	}
	if id == "" {
		return harvest.Record{}, fmt.Errorf("%w: no order identifier", harvest.ErrRejected)
	}

	timeStr := doc.CreateTimeStr
	if timeStr == "" {
		timeStr = doc.CreateTime
	}
	if timeStr == "" {
		return harvest.Record{}, fmt.Errorf("%w: no timestamp candidate", harvest.ErrRejected)
	}
	orderTime, err := harvest.ParseUpstreamTime(timeStr)
	if err != nil {
		return harvest.Record{}, fmt.Errorf("%w: %s", harvest.ErrRejected, err)
	}

	record := harvest.Record{
		Platform:  s.Name(),
		StoreCode: store.Code,
		StoreName: store.Name,
		OrderID:   id,
		OrderTime: orderTime,
		Payload:   payload,
	}

	resolveMoney(&record, doc)
	return record, nil
}

// resolveMoney fills the derived money fields. The itemized fee
// breakdown wins when present; otherwise the minor-unit order total is
// the only number the portal gives us.
func resolveMoney(record *harvest.Record, doc orderDoc) {
	var revenue, product, discount *float64
	for _, item := range doc.FeeDetails {
		v := item.value()
		switch item.label() {
		case labelEstimatedRevenue:
			revenue = &v
		case labelProductBreakdown:
			product = &v
		case labelMerchantDiscount:
			discount = &v
		}
	}

	if revenue == nil && product == nil && discount == nil {
		if total := float64(doc.OrderAmount) / 100; total != 0 {
			record.EstimatedRevenue = &total
			productTotal := total
			record.ProductAmount = &productTotal
			printAmount := total
			record.PrintAmount = &printAmount
		}
		return
	}

	record.EstimatedRevenue = revenue
	record.ProductAmount = product
	record.DiscountAmount = discount
	if product != nil {
		printAmount := *product
		if discount != nil {
			printAmount -= *discount
		}
		record.PrintAmount = &printAmount
	}
}
