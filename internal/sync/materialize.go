package sync

/*
   Materialization turns one product line of a source order into a print job
   draft. Gates run in a fixed order: parent lines first, then stock, then
   exclusion rules, and only lines that survive them pay for the best-effort
   product lookup that fills in the supplier SKU and image. Order payloads
   usually omit the stock block, so the stock gate re-checks against the
   looked-up product record when the line carried none.
*/

import (
	"context"
	"strings"
	"time"

	"github.com/printlijst/printlijst/internal/goedgepickt"
	"github.com/printlijst/printlijst/internal/logstream"
	"github.com/printlijst/printlijst/internal/rules"
	"github.com/printlijst/printlijst/internal/types"
)

const (
	skipParent = "parent line"
	skipPicked = "already picked"
	skipStock  = "in stock"
)

// lineResult is the outcome of materializing one product line.
type lineResult struct {
	job             *types.PrintJob
	skipReason      string // parent/picked/stock gate, empty otherwise
	excluded        bool
	exclusionReason string
}

// lineContext builds the rule evaluation context for one product line.
// Order scope quantifies over the SKUs of every non-parent line.
func lineContext(order *goedgepickt.Order, product *goedgepickt.Product) rules.Context {
	var skus []string
	for i := range order.Products {
		p := &order.Products[i]
		if p.IsParent() || p.SKU == "" {
			continue
		}
		skus = append(skus, p.SKU)
	}
	return rules.Context{
		SKU:          product.SKU,
		SKUs:         skus,
		OrderNumber:  order.DisplayNumber(),
		CustomerName: order.ResolvedCustomerName(),
		OrderStatus:  order.Status,
		SourceTags:   order.Tags,
	}
}

// materializeLine runs the gates for one product line and, when none fire,
// produces a pending print job draft.
func (o *Orchestrator) materializeLine(ctx context.Context, cls *rules.Classifier, stream *logstream.Broadcaster, order *goedgepickt.Order, product *goedgepickt.Product) lineResult {
	if product.IsParent() {
		return lineResult{skipReason: skipParent}
	}
	if product.ProductQuantity > 0 && product.PickedQuantity >= product.ProductQuantity {
		return lineResult{skipReason: skipPicked}
	}
	stock := product.Stock
	if stockSatisfied(stock, product.ProductQuantity) {
		return lineResult{skipReason: skipStock}
	}

	rctx := lineContext(order, product)

	if excluded, reason := cls.ClassifyExclusion(rctx); excluded {
		return lineResult{excluded: true, exclusionReason: reason}
	}

	supplierSKU := product.ResolvedSupplierSKU()
	imageURL := product.ImageURL
	if (supplierSKU == "" || imageURL == "" || stock == nil) && product.ProductUUID != "" {
		// Best effort: order payloads lack the supplier block and the live
		// stock numbers, the product record has both. A failed lookup never
		// blocks the import.
		full, err := o.source.GetProduct(ctx, product.ProductUUID)
		if err != nil {
			o.log.Warn().Err(err).Str("product_uuid", product.ProductUUID).
				Msg("product lookup failed; importing without supplier data")
			stream.Warnf("product %s: lookup failed, importing without supplier data", product.SKU)
		} else {
			if supplierSKU == "" {
				supplierSKU = full.ResolvedSupplierSKU()
			}
			if imageURL == "" {
				imageURL = full.ImageURL
			}
			if stock == nil {
				stock = full.Stock
			}
		}
	}
	if stock != product.Stock && stockSatisfied(stock, product.ProductQuantity) {
		return lineResult{skipReason: skipStock}
	}

	tags := cls.ClassifyTags(rctx)
	priority, matched := cls.ClassifyPriority(rctx)
	if !matched {
		if hinted, ok := priorityFromTags(tags); ok {
			priority = hinted
		}
	}

	received := order.CreatedAt()
	if received.IsZero() {
		received = time.Now().UTC()
	}

	return lineResult{job: &types.PrintJob{
		ID:             types.NewJobID(),
		OrderUUID:      order.UUID,
		OrderNumber:    order.DisplayNumber(),
		ProductUUID:    product.ProductUUID,
		ProductName:    product.ProductName,
		SKU:            product.SKU,
		Backfile:       supplierSKU,
		ImageURL:       imageURL,
		Quantity:       product.ProductQuantity,
		PickedQuantity: product.PickedQuantity,
		Priority:       priority,
		Tags:           types.JoinTags(tags),
		CustomerName:   order.ResolvedCustomerName(),
		Notes:          order.Notes,
		PrintStatus:    types.PrintStatusPending,
		OrderStatus:    order.Status,
		Backorder:      order.Status == types.OrderStatusBackorder,
		ReceivedAt:     received,
		SourceData:     string(order.Raw),
	}}
}

// stockSatisfied reports whether free stock covers the full line quantity.
func stockSatisfied(stock *goedgepickt.Stock, quantity int) bool {
	return stock != nil && !stock.UnlimitedStock && quantity > 0 && stock.FreeStock >= quantity
}

// priorityFromTags maps conventional shop tags (Dutch and English) to a
// priority. Rules take precedence; this only lifts the default.
func priorityFromTags(tags []string) (types.Priority, bool) {
	for _, tag := range tags {
		switch strings.ToLower(strings.TrimSpace(tag)) {
		case "urgent", "spoed":
			return types.PriorityUrgent, true
		case "high", "hoog":
			return types.PriorityHigh, true
		case "low", "laag":
			return types.PriorityLow, true
		}
	}
	return "", false
}
