package sync

import (
	"context"
	"time"

	"github.com/printlijst/printlijst/internal/goedgepickt"
	"github.com/printlijst/printlijst/internal/rules"
	"github.com/printlijst/printlijst/internal/types"
)

// RunOrderSync pulls matching orders from the source and imports their
// product lines as print jobs.
//
// The run fetches pages under the order-status filter derived from the
// condition rules, re-validates every order against the full condition set
// (the source filter has proven lossy), dedupes by order uuid within the
// run, and then imports in small batches with a pause in between to stay
// under the source's rate limit.
func (o *Orchestrator) RunOrderSync(ctx context.Context) (*Summary, error) {
	release, err := o.acquire(KindOrders)
	if err != nil {
		return nil, err
	}
	defer release()

	stream := o.streams[KindOrders]

	cls, snap, err := o.classifier()
	if err != nil {
		return nil, err
	}
	if len(snap.Conditions) == 0 {
		stream.Warnf("order sync aborted: no active condition rules")
		return nil, types.ErrNoConditionRules
	}

	status, _ := cls.OrderFilterStatus()
	sum := &Summary{Kind: KindOrders, Started: time.Now().UTC()}
	stream.Infof("order sync started (orderstatus filter %q)", status)

	seen := make(map[string]bool)
	var pending []goedgepickt.Order

	for page := 1; page <= o.opts.MaxPages; page++ {
		orders, info, err := o.source.GetOrders(ctx, goedgepickt.OrderFilter{
			OrderStatus: status,
			Page:        page,
			PerPage:     o.opts.PageSize,
		})
		if err != nil {
			sum.recordError(o.opts.ErrorCap, "page %d: %v", page, err)
			stream.Errorf("page %d fetch failed: %v", page, err)
			break
		}
		sum.Pages++
		if len(orders) == 0 {
			break
		}

		for i := range orders {
			order := orders[i]
			sum.OrdersSeen++
			if order.UUID == "" {
				sum.recordError(o.opts.ErrorCap, "page %d: order without uuid", page)
				continue
			}
			if seen[order.UUID] {
				sum.Duplicates++
				continue
			}
			seen[order.UUID] = true

			if !cls.MatchesConditions(orderValidationContext(&order)) {
				sum.Skipped++
				continue
			}
			pending = append(pending, order)
		}

		if info.LastPage > 0 && page >= info.LastPage {
			break
		}
	}

	stream.Infof("fetched %d pages, %d orders to import", sum.Pages, len(pending))

	for start := 0; start < len(pending); start += o.opts.BatchSize {
		if start > 0 {
			if err := o.batchPause(ctx); err != nil {
				sum.recordError(o.opts.ErrorCap, "run cancelled: %v", err)
				break
			}
		}
		end := start + o.opts.BatchSize
		if end > len(pending) {
			end = len(pending)
		}
		for i := start; i < end; i++ {
			o.importFetchedOrder(ctx, cls, stream, &pending[i], sum)
		}
		stream.Infof("processed %d/%d orders", end, len(pending))
	}

	sum.Finished = time.Now().UTC()
	stream.Infof("order sync finished: %d imported, %d duplicates, %d excluded, %d errors",
		sum.Imported, sum.Duplicates, sum.Excluded, sum.Errors)
	o.log.Info().Int("imported", sum.Imported).Int("duplicates", sum.Duplicates).
		Int("excluded", sum.Excluded).Int("errors", sum.Errors).
		Msg("order sync finished")
	return sum, nil
}

// orderValidationContext builds an order-level rule context, before any
// product line is selected.
func orderValidationContext(order *goedgepickt.Order) rules.Context {
	return lineContext(order, &goedgepickt.Product{})
}
