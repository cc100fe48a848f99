// Package types provides domain models shared across printlijst components.
//
// Hand-written types only: rule definitions, print jobs, and the enumerations
// they reference. Wire-format concerns (the GoedGepickt JSON shapes) live in
// internal/goedgepickt; persistence mapping lives in internal/store.
package types

import (
	"strings"
	"time"
)

// Priority is the production priority of a print job.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is one of the four known priority levels.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// PrintStatus is the production lifecycle state of a print job.
// completed is terminal; a completed job is never reopened.
type PrintStatus string

const (
	PrintStatusPending    PrintStatus = "pending"
	PrintStatusInProgress PrintStatus = "in_progress"
	PrintStatusCompleted  PrintStatus = "completed"
)

// Order statuses mirrored from the source system. The source defines more
// statuses than these; only the ones with special handling are named here.
const (
	OrderStatusBackorder = "backorder"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// OrderStatusTerminal reports whether a source order status is terminal.
// Terminal statuses are never overwritten by reconciliation, which protects
// finished work from stale or out-of-order webhook deliveries.
func OrderStatusTerminal(status string) bool {
	return status == OrderStatusCompleted || status == OrderStatusCancelled
}

// PrintJob is one unit of production work derived from a non-parent product
// line of a source order. A single order uuid may back multiple jobs (one per
// product line), but the same (orderUuid, productUuid) pair is never imported
// twice.
type PrintJob struct {
	ID             JobID       `db:"id" json:"id"`
	OrderUUID      string      `db:"order_uuid" json:"orderUuid"`
	OrderNumber    string      `db:"order_number" json:"orderNumber"`
	ProductUUID    string      `db:"product_uuid" json:"productUuid"`
	ProductName    string      `db:"product_name" json:"productName"`
	SKU            string      `db:"sku" json:"sku"`
	Backfile       string      `db:"backfile" json:"backfile"`
	ImageURL       string      `db:"image_url" json:"imageUrl"`
	Quantity       int         `db:"quantity" json:"quantity"`
	PickedQuantity int         `db:"picked_quantity" json:"pickedQuantity"`
	Priority       Priority    `db:"priority" json:"priority"`
	Tags           string      `db:"tags" json:"tags"`
	CustomerName   string      `db:"customer_name" json:"customerName"`
	Notes          string      `db:"notes" json:"notes"`
	PrintStatus    PrintStatus `db:"print_status" json:"printStatus"`
	OrderStatus    string      `db:"order_status" json:"orderStatus"`
	Backorder      bool        `db:"backorder" json:"backorder"`
	MissingFile    bool        `db:"missing_file" json:"missingFile"`
	ReceivedAt     time.Time   `db:"received_at" json:"receivedAt"`
	StartedAt      *time.Time  `db:"started_at" json:"startedAt,omitempty"`
	CompletedAt    *time.Time  `db:"completed_at" json:"completedAt,omitempty"`
	CompletedBy    string      `db:"completed_by" json:"completedBy,omitempty"`
	SourceData     string      `db:"source_data" json:"-"`
}

// TagList splits the comma-joined tags column into its parts, preserving
// insertion order.
func (j *PrintJob) TagList() []string {
	return SplitTags(j.Tags)
}

// SplitTags splits a comma-joined tag string, trimming whitespace and
// dropping empty entries. Insertion order is preserved.
func SplitTags(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// JoinTags is the inverse of SplitTags.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}
