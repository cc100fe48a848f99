package types

import "errors"

// Sentinel errors for printlijst operations.
var (
	// ErrOrderNotFound indicates the source API has no order for the uuid.
	ErrOrderNotFound = errors.New("order not found at source")

	// ErrProductNotFound indicates the source API has no product for the uuid.
	ErrProductNotFound = errors.New("product not found at source")

	// ErrSourceUnavailable indicates a network or auth failure against the
	// source API. Sync runs record it per item and continue.
	ErrSourceUnavailable = errors.New("source API unavailable")

	// ErrMissingOrderUUID indicates a webhook payload carried no usable
	// order identifier under any of the accepted field names.
	ErrMissingOrderUUID = errors.New("webhook payload has no order uuid")

	// ErrOrderHasNoProducts indicates a fetched order carried no product lines.
	ErrOrderHasNoProducts = errors.New("order has no products")

	// ErrNoConditionRules indicates a sync run was requested with no active
	// condition rules to select orders.
	ErrNoConditionRules = errors.New("no active condition rules")

	// ErrSyncAlreadyRunning indicates a concurrent invocation of the same
	// sync kind was rejected by the run lock.
	ErrSyncAlreadyRunning = errors.New("sync already running")

	// ErrAPIKeyNotConfigured indicates no source API key is present in either
	// the environment or the settings store.
	ErrAPIKeyNotConfigured = errors.New("source API key not configured")

	// ErrJobNotFound indicates no print job exists for the given id.
	ErrJobNotFound = errors.New("print job not found")

	// ErrJobExists indicates a print job for the same order and product line
	// was already imported.
	ErrJobExists = errors.New("print job already exists")

	// ErrJobCompleted indicates an attempt to mutate a job whose print
	// status is already terminal.
	ErrJobCompleted = errors.New("print job already completed")
)
