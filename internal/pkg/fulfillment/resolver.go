package fulfillment

import (
	"strings"

	"github.com/newopeningsupply/fulfillrelay/internal/pkg/paddle"
)

// Resolver maps a completed transaction's line items to the storage key of
// the deliverable file. The price/product → delivery path table is injected
// at construction; there is no package-level catalog.
type Resolver struct {
	priceKeys map[string]string
}

// NewResolver creates a Resolver with a static delivery-path table keyed by
// price or product ID. A nil table is allowed.
func NewResolver(priceKeys map[string]string) *Resolver {
	return &Resolver{priceKeys: priceKeys}
}

// Resolve returns the storage key for the transaction's deliverable, or ""
// when nothing resolves. Absence is not an error: the transaction is still
// recorded downstream, it just yields no download token.
//
// Priority: item product custom_data, item price custom_data, transaction
// custom_data, then the static table by price ID and product ID.
func (r *Resolver) Resolve(items []paddle.LineItem, txnData *paddle.CustomData) string {
	for _, item := range items {
		if item.Product != nil && item.Product.CustomData != nil {
			if path := strings.TrimSpace(item.Product.CustomData.DownloadPath); path != "" {
				return normalizeKey(path)
			}
		}
	}
	for _, item := range items {
		if item.Price != nil && item.Price.CustomData != nil {
			if path := strings.TrimSpace(item.Price.CustomData.DownloadPath); path != "" {
				return normalizeKey(path)
			}
		}
	}
	if txnData != nil {
		if path := strings.TrimSpace(txnData.DownloadPath); path != "" {
			return normalizeKey(path)
		}
	}
	for _, item := range items {
		if item.Price != nil {
			if path, ok := r.priceKeys[item.Price.ID]; ok {
				return normalizeKey(path)
			}
		}
	}
	for _, item := range items {
		if item.Product != nil {
			if path, ok := r.priceKeys[item.Product.ID]; ok {
				return normalizeKey(path)
			}
		}
	}
	return ""
}

// normalizeKey turns a raw delivery path into a storage key. A path with a
// separator is taken verbatim; a bare slug expands to the conventional
// products namespace with the standard archive extension.
func normalizeKey(raw string) string {
	if strings.Contains(raw, "/") {
		return raw
	}
	return "products/" + raw + ".zip"
}
