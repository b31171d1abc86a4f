package webhook

import (
	"fmt"
	"strings"
)

// MetaData is a free-form key/value pair attached to a line item.
type MetaData struct {
	ID    int64  `json:"id"`
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// LineItem is one product line of a WooCommerce order.
type LineItem struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	ProductID   int64      `json:"product_id"`
	VariationID *int64     `json:"variation_id"`
	Quantity    int        `json:"quantity"`
	SKU         string     `json:"sku"`
	MetaData    []MetaData `json:"meta_data"`
}

// Order is the subset of a WooCommerce order payload the webhook reads.
type Order struct {
	ID          int64      `json:"id"`
	Status      string     `json:"status"`
	DateCreated string     `json:"date_created"`
	LineItems   []LineItem `json:"line_items"`
}

// gtinMetaKeys are the meta keys checked, in order, when a line item has no SKU.
var gtinMetaKeys = []string{"_gtin", "gtin", "ean", "upc"}

// GTIN returns the candidate GTIN of the line item: the SKU when set, otherwise
// the first meta value under a known key. It returns "" when none is found.
func (li LineItem) GTIN() string {
	if sku := strings.TrimSpace(li.SKU); sku != "" {
		return sku
	}
	for _, key := range gtinMetaKeys {
		for _, m := range li.MetaData {
			if m.Key != key || m.Value == nil {
				continue
			}
			if v := strings.TrimSpace(metaString(m.Value)); v != "" {
				return v
			}
		}
	}
	return ""
}

func metaString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return fmt.Sprintf("%.0f", t)
	default:
		return fmt.Sprint(t)
	}
}

// Processable reports whether the order's status should move stock.
func (o Order) Processable() bool {
	return o.Status == "processing" || o.Status == "completed"
}
