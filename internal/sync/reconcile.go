package sync

/*
   Reconciliation keeps the mirrored order status on print jobs in line with
   the source. Terminal statuses (completed, cancelled) are monotonic: once a
   job's order reached one, later deliveries and runs never move it back.
   That protects finished work from stale webhooks and out-of-order pages.
*/

import (
	"context"
	"time"

	"github.com/printlijst/printlijst/internal/types"
)

// RunStatusSync re-fetches the order behind every active print job and
// updates the mirrored order status where it drifted.
func (o *Orchestrator) RunStatusSync(ctx context.Context) (*Summary, error) {
	release, err := o.acquire(KindStatus)
	if err != nil {
		return nil, err
	}
	defer release()

	stream := o.streams[KindStatus]
	sum := &Summary{Kind: KindStatus, Started: time.Now().UTC()}

	cls, _, err := o.classifier()
	if err != nil {
		return nil, err
	}
	jobs, err := o.store.ActivePrintJobs()
	if err != nil {
		return nil, err
	}

	// One fetch per order, not per job
	type orderGroup struct {
		uuid   string
		status string
	}
	var groups []orderGroup
	jobsByOrder := make(map[string][]*types.PrintJob)
	for i := range jobs {
		job := &jobs[i]
		if _, ok := jobsByOrder[job.OrderUUID]; !ok {
			if types.OrderStatusTerminal(job.OrderStatus) {
				sum.Skipped++
			} else {
				groups = append(groups, orderGroup{uuid: job.OrderUUID, status: job.OrderStatus})
			}
		}
		jobsByOrder[job.OrderUUID] = append(jobsByOrder[job.OrderUUID], job)
	}
	orderSKUs := skusByOrder(jobs)

	stream.Infof("status sync started: %d orders to check", len(groups))

	for i, g := range groups {
		if i > 0 && i%o.opts.BatchSize == 0 {
			if err := o.batchPause(ctx); err != nil {
				sum.recordError(o.opts.ErrorCap, "run cancelled: %v", err)
				break
			}
		}
		sum.OrdersSeen++

		order, err := o.source.GetOrder(ctx, g.uuid)
		if err != nil {
			sum.recordError(o.opts.ErrorCap, "order %s: %v", g.uuid, err)
			stream.Warnf("order %s: %v", g.uuid, err)
			continue
		}
		if order.Status == "" || order.Status == g.status {
			continue
		}

		backorder := order.Status == types.OrderStatusBackorder
		if err := o.store.UpdateOrderStatus(g.uuid, order.Status, backorder); err != nil {
			sum.recordError(o.opts.ErrorCap, "order %s: %v", g.uuid, err)
			continue
		}
		sum.Updated++
		stream.Infof("order %s: status %s -> %s", g.uuid, g.status, order.Status)

		// Tag rules may depend on orderStatus, so a status change re-derives
		// the tags of every job of the order.
		for _, job := range jobsByOrder[g.uuid] {
			job.OrderStatus = order.Status
			tags := types.JoinTags(cls.ClassifyTags(jobContext(job, orderSKUs[g.uuid])))
			if tags == job.Tags {
				continue
			}
			if err := o.store.UpdateTags(job.ID, tags); err != nil {
				sum.recordError(o.opts.ErrorCap, "job %s: %v", job.ID, err)
				continue
			}
			job.Tags = tags
			stream.Infof("job %s (%s): tags recomputed after status change", job.ID, job.SKU)
		}
	}

	sum.Finished = time.Now().UTC()
	stream.Infof("status sync finished: %d checked, %d updated, %d errors",
		sum.OrdersSeen, sum.Updated, sum.Errors)
	o.log.Info().Int("checked", sum.OrdersSeen).Int("updated", sum.Updated).
		Int("errors", sum.Errors).Msg("status sync finished")
	return sum, nil
}

// HandleOrderEvent processes one webhook delivery for an order. Unknown
// orders are imported; known orders get their mirrored status updated,
// honoring terminal-status monotonicity. An empty status means the event
// carried no mappable status, in which case the current one is fetched.
func (o *Orchestrator) HandleOrderEvent(ctx context.Context, orderUUID, status string) (*Summary, error) {
	if orderUUID == "" {
		return nil, types.ErrMissingOrderUUID
	}

	jobs, err := o.store.PrintJobsByOrder(orderUUID)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return o.ImportOrder(ctx, orderUUID)
	}

	sum := &Summary{Kind: KindStatus, Started: time.Now().UTC(), OrdersSeen: 1}
	stored := jobs[0].OrderStatus

	if types.OrderStatusTerminal(stored) {
		sum.Skipped++
		sum.Finished = time.Now().UTC()
		o.log.Debug().Str("order_uuid", orderUUID).Str("status", stored).
			Msg("webhook for terminal order ignored")
		return sum, nil
	}

	if status == "" {
		order, err := o.source.GetOrder(ctx, orderUUID)
		if err != nil {
			return nil, err
		}
		status = order.Status
	}

	if status != "" && status != stored {
		backorder := status == types.OrderStatusBackorder
		if err := o.store.UpdateOrderStatus(orderUUID, status, backorder); err != nil {
			return nil, err
		}
		sum.Updated++
		o.streams[KindStatus].Infof("order %s: status %s -> %s (webhook)", orderUUID, stored, status)
	} else {
		sum.Duplicates++
	}

	// Re-derive tags against the current rules while the order is fresh
	cls, _, err := o.classifier()
	if err != nil {
		return nil, err
	}
	skus := skusByOrder(jobs)[orderUUID]
	for i := range jobs {
		job := &jobs[i]
		if status != "" {
			job.OrderStatus = status
		}
		tags := types.JoinTags(cls.ClassifyTags(jobContext(job, skus)))
		if tags == job.Tags {
			continue
		}
		if err := o.store.UpdateTags(job.ID, tags); err != nil {
			sum.recordError(o.opts.ErrorCap, "job %s: %v", job.ID, err)
			continue
		}
		sum.Updated++
	}

	sum.Finished = time.Now().UTC()
	return sum, nil
}
