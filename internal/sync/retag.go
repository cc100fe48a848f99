package sync

/*
   Tag and priority re-derivation. When the rule sets change, existing jobs
   keep their classifications until one of these runs recomputes them from
   the stored job fields. No source calls are made; these runs are purely
   local and therefore unbatched.
*/

import (
	"context"
	"time"

	"github.com/printlijst/printlijst/internal/rules"
	"github.com/printlijst/printlijst/internal/types"
)

// jobContext rebuilds a rule context from a stored print job. SKUs carries
// the sibling lines of the same order so order-scoped rules keep working
// after import.
func jobContext(job *types.PrintJob, orderSKUs []string) rules.Context {
	return rules.Context{
		SKU:          job.SKU,
		SKUs:         orderSKUs,
		OrderNumber:  job.OrderNumber,
		CustomerName: job.CustomerName,
		OrderStatus:  job.OrderStatus,
		SourceTags:   job.TagList(),
	}
}

// skusByOrder maps each order uuid to the SKUs of its jobs.
func skusByOrder(jobs []types.PrintJob) map[string][]string {
	out := make(map[string][]string)
	for _, job := range jobs {
		if job.SKU != "" {
			out[job.OrderUUID] = append(out[job.OrderUUID], job.SKU)
		}
	}
	return out
}

// RunTagSync re-derives the tag set of every active job against the current
// rules. Existing tags stay (the union is monotonic over a job's own tags);
// newly matching rule tags are added.
func (o *Orchestrator) RunTagSync(ctx context.Context) (*Summary, error) {
	release, err := o.acquire(KindTags)
	if err != nil {
		return nil, err
	}
	defer release()

	stream := o.streams[KindTags]

	cls, _, err := o.classifier()
	if err != nil {
		return nil, err
	}
	jobs, err := o.store.ActivePrintJobs()
	if err != nil {
		return nil, err
	}

	sum := &Summary{Kind: KindTags, Started: time.Now().UTC()}
	stream.Infof("tag sync started: %d active jobs", len(jobs))

	orderSKUs := skusByOrder(jobs)
	for i := range jobs {
		job := &jobs[i]
		if ctx.Err() != nil {
			sum.recordError(o.opts.ErrorCap, "run cancelled: %v", ctx.Err())
			break
		}
		sum.OrdersSeen++

		tags := types.JoinTags(cls.ClassifyTags(jobContext(job, orderSKUs[job.OrderUUID])))
		if tags == job.Tags {
			continue
		}
		if err := o.store.UpdateTags(job.ID, tags); err != nil {
			sum.recordError(o.opts.ErrorCap, "job %s: %v", job.ID, err)
			continue
		}
		sum.Updated++
		stream.Infof("job %s (%s): tags %q -> %q", job.ID, job.SKU, job.Tags, tags)
	}

	sum.Finished = time.Now().UTC()
	stream.Infof("tag sync finished: %d checked, %d updated", sum.OrdersSeen, sum.Updated)
	o.log.Info().Int("checked", sum.OrdersSeen).Int("updated", sum.Updated).Msg("tag sync finished")
	return sum, nil
}

// RunPrioritySync re-derives the priority of every active job against the
// current rules, with the same tag fallbacks used at import.
func (o *Orchestrator) RunPrioritySync(ctx context.Context) (*Summary, error) {
	release, err := o.acquire(KindPriorities)
	if err != nil {
		return nil, err
	}
	defer release()

	stream := o.streams[KindPriorities]

	cls, _, err := o.classifier()
	if err != nil {
		return nil, err
	}
	jobs, err := o.store.ActivePrintJobs()
	if err != nil {
		return nil, err
	}

	sum := &Summary{Kind: KindPriorities, Started: time.Now().UTC()}
	stream.Infof("priority sync started: %d active jobs", len(jobs))

	orderSKUs := skusByOrder(jobs)
	for i := range jobs {
		job := &jobs[i]
		if ctx.Err() != nil {
			sum.recordError(o.opts.ErrorCap, "run cancelled: %v", ctx.Err())
			break
		}
		sum.OrdersSeen++

		// Without a rule match or a tag hint the job keeps its priority:
		// deactivating a rule must not downgrade existing work.
		priority, matched := cls.ClassifyPriority(jobContext(job, orderSKUs[job.OrderUUID]))
		if !matched {
			if hinted, ok := priorityFromTags(job.TagList()); ok {
				priority = hinted
			} else if job.Priority.Valid() {
				priority = job.Priority
			}
		}
		if priority == job.Priority {
			continue
		}
		if err := o.store.UpdatePriority(job.ID, priority); err != nil {
			sum.recordError(o.opts.ErrorCap, "job %s: %v", job.ID, err)
			continue
		}
		sum.Updated++
		stream.Infof("job %s (%s): priority %s -> %s", job.ID, job.SKU, job.Priority, priority)
	}

	sum.Finished = time.Now().UTC()
	stream.Infof("priority sync finished: %d checked, %d updated", sum.OrdersSeen, sum.Updated)
	o.log.Info().Int("checked", sum.OrdersSeen).Int("updated", sum.Updated).Msg("priority sync finished")
	return sum, nil
}
