// Package sync pulls orders from GoedGepickt and turns them into print jobs.
//
// Four run kinds exist: orders (import new work), status (reconcile order
// statuses), tags and priorities (re-derive classifications for active jobs).
// Each kind holds its own run lock so an operator button-mash or overlapping
// cron cannot start the same run twice, while different kinds may overlap.
//
// Every run loads one rule snapshot up front and evaluates the whole run
// against it. Failures on individual orders are recorded in the run summary
// and never abort the run.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/printlijst/printlijst/internal/goedgepickt"
	"github.com/printlijst/printlijst/internal/logstream"
	"github.com/printlijst/printlijst/internal/rules"
	"github.com/printlijst/printlijst/internal/types"
)

// Kind identifies one sync run variety.
type Kind string

const (
	KindOrders     Kind = "orders"
	KindStatus     Kind = "status"
	KindTags       Kind = "tags"
	KindPriorities Kind = "priorities"
)

// Store is the persistence surface the pipeline needs. Implemented by
// *store.Store.
type Store interface {
	RuleSnapshot() (rules.Snapshot, error)
	HasJobsForOrder(orderUUID string) (bool, error)
	CreatePrintJob(job *types.PrintJob) error
	ActivePrintJobs() ([]types.PrintJob, error)
	PrintJobsByOrder(orderUUID string) ([]types.PrintJob, error)
	UpdateOrderStatus(orderUUID, status string, backorder bool) error
	UpdateTags(id types.JobID, tags string) error
	UpdatePriority(id types.JobID, priority types.Priority) error
}

// Source is the slice of the GoedGepickt API the pipeline consumes.
// Implemented by *goedgepickt.Client.
type Source interface {
	GetOrder(ctx context.Context, orderUUID string) (*goedgepickt.Order, error)
	GetOrders(ctx context.Context, filter goedgepickt.OrderFilter) ([]goedgepickt.Order, goedgepickt.PageInfo, error)
	GetProduct(ctx context.Context, productUUID string) (*goedgepickt.Product, error)
}

// Options are the run tunables. Zero values fall back to defaults.
type Options struct {
	PageSize   int
	MaxPages   int
	BatchSize  int
	BatchDelay time.Duration
	ErrorCap   int
	LogHistory int
}

func (o Options) withDefaults() Options {
	if o.MaxPages <= 0 {
		o.MaxPages = 10
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 10
	}
	if o.BatchDelay < 0 {
		o.BatchDelay = 0
	}
	if o.ErrorCap <= 0 {
		o.ErrorCap = 10
	}
	if o.LogHistory <= 0 {
		o.LogHistory = 50
	}
	return o
}

// Summary is the outcome of one run. Counters are cumulative over the whole
// run; ErrorDetails is capped so a broken source cannot balloon the summary.
type Summary struct {
	Kind           Kind      `json:"kind"`
	Started        time.Time `json:"started"`
	Finished       time.Time `json:"finished"`
	Pages          int       `json:"pages"`
	OrdersSeen     int       `json:"ordersSeen"`
	Imported       int       `json:"imported"`
	Duplicates     int       `json:"duplicates"`
	Excluded       int       `json:"excluded"`
	StockSatisfied int       `json:"stockSatisfied"`
	Skipped        int       `json:"skipped"`
	Updated        int       `json:"updated"`
	Errors         int       `json:"errors"`
	ErrorDetails   []string  `json:"errorDetails,omitempty"`
}

// recordError counts an error and keeps its detail up to the cap.
func (s *Summary) recordError(limit int, format string, args ...interface{}) {
	s.Errors++
	if len(s.ErrorDetails) < limit {
		s.ErrorDetails = append(s.ErrorDetails, fmt.Sprintf(format, args...))
	}
}

// Orchestrator coordinates sync runs. Safe for concurrent use; per-kind run
// locks serialize runs of the same kind.
type Orchestrator struct {
	store  Store
	source Source
	opts   Options
	log    zerolog.Logger

	locks   map[Kind]*semaphore.Weighted
	streams map[Kind]*logstream.Broadcaster
}

// New creates an orchestrator over the given store and source.
func New(store Store, source Source, opts Options, log zerolog.Logger) *Orchestrator {
	opts = opts.withDefaults()
	o := &Orchestrator{
		store:   store,
		source:  source,
		opts:    opts,
		log:     log,
		locks:   make(map[Kind]*semaphore.Weighted),
		streams: make(map[Kind]*logstream.Broadcaster),
	}
	for _, kind := range []Kind{KindOrders, KindStatus, KindTags, KindPriorities} {
		o.locks[kind] = semaphore.NewWeighted(1)
		o.streams[kind] = logstream.New(opts.LogHistory)
	}
	return o
}

// Stream returns the progress broadcaster for a run kind.
func (o *Orchestrator) Stream(kind Kind) *logstream.Broadcaster {
	return o.streams[kind]
}

// acquire takes the run lock for kind without waiting. A held lock means a
// run of this kind is in flight.
func (o *Orchestrator) acquire(kind Kind) (release func(), err error) {
	lock := o.locks[kind]
	if lock == nil {
		return nil, fmt.Errorf("unknown sync kind %q", kind)
	}
	if !lock.TryAcquire(1) {
		return nil, fmt.Errorf("%s: %w", kind, types.ErrSyncAlreadyRunning)
	}
	return func() { lock.Release(1) }, nil
}

// classifier loads the current rule snapshot and wraps it for a run.
func (o *Orchestrator) classifier() (*rules.Classifier, rules.Snapshot, error) {
	snap, err := o.store.RuleSnapshot()
	if err != nil {
		return nil, rules.Snapshot{}, fmt.Errorf("load rule snapshot: %w", err)
	}
	return rules.NewClassifier(snap, o.log), snap, nil
}

// batchPause sleeps between batches unless the context is done.
func (o *Orchestrator) batchPause(ctx context.Context) error {
	if o.opts.BatchDelay == 0 {
		return nil
	}
	select {
	case <-time.After(o.opts.BatchDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
