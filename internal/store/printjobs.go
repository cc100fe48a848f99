package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/printlijst/printlijst/internal/types"
)

// CreatePrintJob inserts a new print job. Returns types.ErrJobExists when a
// job for the same (orderUuid, productUuid) pair is already present; the
// unique constraint is the backstop against concurrent imports of the same
// order.
func (s *Store) CreatePrintJob(job *types.PrintJob) error {
	_, err := s.q.Exec("create-printjob",
		job.ID, job.OrderUUID, job.OrderNumber, job.ProductUUID, job.ProductName,
		job.SKU, job.Backfile, job.ImageURL, job.Quantity, job.PickedQuantity,
		job.Priority, job.Tags, job.CustomerName, job.Notes, job.PrintStatus,
		job.OrderStatus, job.Backorder, job.MissingFile, job.ReceivedAt,
		job.SourceData,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("order %s product %s: %w", job.OrderUUID, job.ProductUUID, types.ErrJobExists)
		}
		return fmt.Errorf("create print job: %w", err)
	}
	return nil
}

// HasJobsForOrder reports whether any print job exists for the order. An
// order with jobs is never materialized again.
func (s *Store) HasJobsForOrder(orderUUID string) (bool, error) {
	var count int
	if err := s.q.Get("count-printjobs-for-order", &count, orderUUID); err != nil {
		return false, fmt.Errorf("count print jobs: %w", err)
	}
	return count > 0, nil
}

// PrintJobByID returns one print job or types.ErrJobNotFound.
func (s *Store) PrintJobByID(id types.JobID) (*types.PrintJob, error) {
	var job types.PrintJob
	err := s.q.Get("printjob-by-id", &job, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get print job %s: %w", id, err)
	}
	return &job, nil
}

// PrintJobsByOrder returns all print jobs derived from one source order.
func (s *Store) PrintJobsByOrder(orderUUID string) ([]types.PrintJob, error) {
	var jobs []types.PrintJob
	if err := s.q.Select("printjobs-by-order-uuid", &jobs, orderUUID); err != nil {
		return nil, fmt.Errorf("print jobs for order %s: %w", orderUUID, err)
	}
	return jobs, nil
}

// ListPrintJobs returns every print job, newest first.
func (s *Store) ListPrintJobs() ([]types.PrintJob, error) {
	var jobs []types.PrintJob
	if err := s.q.Select("list-printjobs", &jobs); err != nil {
		return nil, fmt.Errorf("list print jobs: %w", err)
	}
	return jobs, nil
}

// ActivePrintJobs returns jobs whose print status is not yet completed, in
// received order. This is the working set reconciliation walks.
func (s *Store) ActivePrintJobs() ([]types.PrintJob, error) {
	var jobs []types.PrintJob
	if err := s.q.Select("active-printjobs", &jobs); err != nil {
		return nil, fmt.Errorf("active print jobs: %w", err)
	}
	return jobs, nil
}

// UpdateOrderStatus sets the mirrored source order status on every job of an
// order. Backorder tracks whether the source still reports the order as
// backordered.
func (s *Store) UpdateOrderStatus(orderUUID, status string, backorder bool) error {
	if _, err := s.q.Exec("update-printjob-order-status", status, backorder, orderUUID); err != nil {
		return fmt.Errorf("update order status for %s: %w", orderUUID, err)
	}
	return nil
}

// UpdateTags replaces the tag list of one job.
func (s *Store) UpdateTags(id types.JobID, tags string) error {
	if _, err := s.q.Exec("update-printjob-tags", tags, id); err != nil {
		return fmt.Errorf("update tags for %s: %w", id, err)
	}
	return nil
}

// UpdatePriority replaces the priority of one job.
func (s *Store) UpdatePriority(id types.JobID, priority types.Priority) error {
	if _, err := s.q.Exec("update-printjob-priority", priority, id); err != nil {
		return fmt.Errorf("update priority for %s: %w", id, err)
	}
	return nil
}

// StartJob moves a pending job to in_progress. Jobs already started or
// completed are left untouched and reported via sentinel errors.
func (s *Store) StartJob(id types.JobID, now time.Time) error {
	res, err := s.q.Exec("start-printjob", now, id)
	if err != nil {
		return fmt.Errorf("start print job %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("start print job %s: %w", id, err)
	}
	if affected == 0 {
		return s.explainNoOp(id)
	}
	return nil
}

// CompleteJob marks a job completed and records who finished it. Completing
// an already-completed job returns types.ErrJobCompleted; completed is
// terminal.
func (s *Store) CompleteJob(id types.JobID, completedBy string, now time.Time) error {
	res, err := s.q.Exec("complete-printjob", now, completedBy, id)
	if err != nil {
		return fmt.Errorf("complete print job %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete print job %s: %w", id, err)
	}
	if affected == 0 {
		return s.explainNoOp(id)
	}
	return nil
}

// SetMissingFile flags a job whose print file could not be located.
func (s *Store) SetMissingFile(id types.JobID, missing bool) error {
	res, err := s.q.Exec("set-printjob-missing-file", missing, id)
	if err != nil {
		return fmt.Errorf("set missing file for %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set missing file for %s: %w", id, err)
	}
	if affected == 0 {
		return types.ErrJobNotFound
	}
	return nil
}

// explainNoOp distinguishes a missing job from a guarded status transition
// after an UPDATE matched zero rows.
func (s *Store) explainNoOp(id types.JobID) error {
	job, err := s.PrintJobByID(id)
	if err != nil {
		return err
	}
	if job.PrintStatus == types.PrintStatusCompleted {
		return types.ErrJobCompleted
	}
	return fmt.Errorf("print job %s in status %s: no transition", id, job.PrintStatus)
}
