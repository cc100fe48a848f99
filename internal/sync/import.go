package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/printlijst/printlijst/internal/goedgepickt"
	"github.com/printlijst/printlijst/internal/logstream"
	"github.com/printlijst/printlijst/internal/rules"
	"github.com/printlijst/printlijst/internal/types"
)

// importFetchedOrder materializes every product line of an order that has
// already been fetched and validated. An order that already has job records
// is never materialized again, regardless of what its lines would produce
// under the current rules. Per-line failures are recorded on the summary;
// the remaining lines still import.
func (o *Orchestrator) importFetchedOrder(ctx context.Context, cls *rules.Classifier, stream *logstream.Broadcaster, order *goedgepickt.Order, sum *Summary) {
	has, err := o.store.HasJobsForOrder(order.UUID)
	if err != nil {
		sum.recordError(o.opts.ErrorCap, "order %s: %v", order.DisplayNumber(), err)
		return
	}
	if has {
		sum.Duplicates++
		return
	}

	if len(order.Products) == 0 {
		sum.recordError(o.opts.ErrorCap, "order %s: %v", order.DisplayNumber(), types.ErrOrderHasNoProducts)
		stream.Warnf("order %s has no product lines", order.DisplayNumber())
		return
	}

	for i := range order.Products {
		product := &order.Products[i]
		res := o.materializeLine(ctx, cls, stream, order, product)

		switch {
		case res.skipReason == skipParent:
			sum.Skipped++
		case res.skipReason != "":
			sum.StockSatisfied++
			stream.Infof("order %s line %s skipped: %s", order.DisplayNumber(), product.SKU, res.skipReason)
		case res.excluded:
			sum.Excluded++
			stream.Infof("order %s line %s excluded: %s", order.DisplayNumber(), product.SKU, res.exclusionReason)
		default:
			if err := o.store.CreatePrintJob(res.job); err != nil {
				if errors.Is(err, types.ErrJobExists) {
					sum.Duplicates++
					continue
				}
				sum.recordError(o.opts.ErrorCap, "order %s line %s: %v", order.DisplayNumber(), product.SKU, err)
				stream.Errorf("order %s line %s: %v", order.DisplayNumber(), product.SKU, err)
				continue
			}
			sum.Imported++
			stream.Infof("order %s: imported %s (%s)", order.DisplayNumber(), product.ProductName, product.SKU)
		}
	}
}

// ImportOrder fetches one order by uuid and imports its product lines. This
// is the webhook path for orders the print list has not seen; it takes no run
// lock so webhook deliveries are never rejected by a running sync.
func (o *Orchestrator) ImportOrder(ctx context.Context, orderUUID string) (*Summary, error) {
	if orderUUID == "" {
		return nil, types.ErrMissingOrderUUID
	}

	cls, _, err := o.classifier()
	if err != nil {
		return nil, err
	}

	order, err := o.source.GetOrder(ctx, orderUUID)
	if err != nil {
		return nil, fmt.Errorf("fetch order %s: %w", orderUUID, err)
	}

	sum := &Summary{Kind: KindOrders, Started: time.Now().UTC()}
	stream := o.streams[KindOrders]
	sum.OrdersSeen = 1
	o.importFetchedOrder(ctx, cls, stream, order, sum)
	sum.Finished = time.Now().UTC()

	o.log.Info().Str("order_uuid", orderUUID).Int("imported", sum.Imported).
		Int("excluded", sum.Excluded).Int("duplicates", sum.Duplicates).
		Msg("single order import finished")
	return sum, nil
}
