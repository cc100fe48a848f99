package store

/*
   Store tests run against an in-memory SQLite database with the real
   migrations applied, so the named queries and schema are exercised
   together.
*/

import (
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/printlijst/printlijst/internal/core/db"
	"github.com/printlijst/printlijst/internal/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()

	sdb, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { sdb.Close() })

	// A second pool connection would see its own empty :memory: database
	sdb.SetMaxOpenConns(1)

	if err := db.MigrateUp(sdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	queries, err := db.LoadQueries(sdb)
	if err != nil {
		t.Fatalf("load queries: %v", err)
	}
	return New(queries, zerolog.Nop())
}

func testJob(orderUUID, productUUID string) *types.PrintJob {
	return &types.PrintJob{
		ID:          types.NewJobID(),
		OrderUUID:   orderUUID,
		OrderNumber: "GL-10",
		ProductUUID: productUUID,
		ProductName: "Glasplaat 60x40",
		SKU:         "GLAS-6040",
		Quantity:    2,
		Priority:    types.PriorityNormal,
		Tags:        "webshop, glas",
		PrintStatus: types.PrintStatusPending,
		OrderStatus: "open",
		ReceivedAt:  time.Now().UTC(),
	}
}

func TestCreateAndGetPrintJob(t *testing.T) {
	s := testStore(t)

	job := testJob("order-1", "product-1")
	if err := s.CreatePrintJob(job); err != nil {
		t.Fatalf("CreatePrintJob: %v", err)
	}

	got, err := s.PrintJobByID(job.ID)
	if err != nil {
		t.Fatalf("PrintJobByID: %v", err)
	}
	if got.OrderUUID != "order-1" || got.SKU != "GLAS-6040" || got.Quantity != 2 {
		t.Errorf("got job %+v", got)
	}
	if got.TagList()[0] != "webshop" {
		t.Errorf("got tags %v", got.TagList())
	}
}

func TestCreatePrintJobDuplicate(t *testing.T) {
	s := testStore(t)

	if err := s.CreatePrintJob(testJob("order-1", "product-1")); err != nil {
		t.Fatalf("first create: %v", err)
	}
	err := s.CreatePrintJob(testJob("order-1", "product-1"))
	if !errors.Is(err, types.ErrJobExists) {
		t.Fatalf("want ErrJobExists, got %v", err)
	}

	// Same order, different product line is fine
	if err := s.CreatePrintJob(testJob("order-1", "product-2")); err != nil {
		t.Fatalf("second product line: %v", err)
	}

	has, err := s.HasJobsForOrder("order-1")
	if err != nil || !has {
		t.Errorf("HasJobsForOrder(order-1) = %v, %v", has, err)
	}
	has, err = s.HasJobsForOrder("order-9")
	if err != nil || has {
		t.Errorf("HasJobsForOrder(order-9) = %v, %v", has, err)
	}
}

func TestPrintJobByIDNotFound(t *testing.T) {
	s := testStore(t)
	if _, err := s.PrintJobByID(types.NewJobID()); !errors.Is(err, types.ErrJobNotFound) {
		t.Fatalf("want ErrJobNotFound, got %v", err)
	}
}

func TestUpdateOrderStatusTouchesWholeOrder(t *testing.T) {
	s := testStore(t)

	for _, p := range []string{"p1", "p2"} {
		if err := s.CreatePrintJob(testJob("order-1", p)); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if err := s.CreatePrintJob(testJob("order-2", "p1")); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.UpdateOrderStatus("order-1", types.OrderStatusCompleted, false); err != nil {
		t.Fatalf("UpdateOrderStatus: %v", err)
	}

	jobs, err := s.PrintJobsByOrder("order-1")
	if err != nil {
		t.Fatalf("PrintJobsByOrder: %v", err)
	}
	for _, j := range jobs {
		if j.OrderStatus != types.OrderStatusCompleted {
			t.Errorf("job %s status %q", j.ID, j.OrderStatus)
		}
	}

	other, err := s.PrintJobsByOrder("order-2")
	if err != nil {
		t.Fatalf("PrintJobsByOrder: %v", err)
	}
	if other[0].OrderStatus != "open" {
		t.Errorf("unrelated order touched: %q", other[0].OrderStatus)
	}
}

func TestJobLifecycle(t *testing.T) {
	s := testStore(t)

	job := testJob("order-1", "p1")
	if err := s.CreatePrintJob(job); err != nil {
		t.Fatalf("create: %v", err)
	}

	now := time.Now().UTC()
	if err := s.StartJob(job.ID, now); err != nil {
		t.Fatalf("StartJob: %v", err)
	}
	got, _ := s.PrintJobByID(job.ID)
	if got.PrintStatus != types.PrintStatusInProgress || got.StartedAt == nil {
		t.Errorf("after start: %+v", got)
	}

	if err := s.CompleteJob(job.ID, "anna", now); err != nil {
		t.Fatalf("CompleteJob: %v", err)
	}
	got, _ = s.PrintJobByID(job.ID)
	if got.PrintStatus != types.PrintStatusCompleted || got.CompletedBy != "anna" || got.CompletedAt == nil {
		t.Errorf("after complete: %+v", got)
	}

	// Completed is terminal
	if err := s.CompleteJob(job.ID, "bert", now); !errors.Is(err, types.ErrJobCompleted) {
		t.Errorf("want ErrJobCompleted, got %v", err)
	}
	if err := s.StartJob(types.NewJobID(), now); !errors.Is(err, types.ErrJobNotFound) {
		t.Errorf("want ErrJobNotFound, got %v", err)
	}
}

func TestCompletePendingJobSkipsStart(t *testing.T) {
	s := testStore(t)

	job := testJob("order-1", "p1")
	if err := s.CreatePrintJob(job); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CompleteJob(job.ID, "anna", time.Now().UTC()); err != nil {
		t.Fatalf("CompleteJob from pending: %v", err)
	}
}

func TestSetMissingFile(t *testing.T) {
	s := testStore(t)

	job := testJob("order-1", "p1")
	if err := s.CreatePrintJob(job); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.SetMissingFile(job.ID, true); err != nil {
		t.Fatalf("SetMissingFile: %v", err)
	}
	got, _ := s.PrintJobByID(job.ID)
	if !got.MissingFile {
		t.Error("missing_file not set")
	}
	if err := s.SetMissingFile(types.NewJobID(), true); !errors.Is(err, types.ErrJobNotFound) {
		t.Errorf("want ErrJobNotFound, got %v", err)
	}
}

func TestActivePrintJobs(t *testing.T) {
	s := testStore(t)

	open := testJob("order-1", "p1")
	done := testJob("order-2", "p1")
	for _, j := range []*types.PrintJob{open, done} {
		if err := s.CreatePrintJob(j); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if err := s.CompleteJob(done.ID, "anna", time.Now().UTC()); err != nil {
		t.Fatalf("complete: %v", err)
	}

	active, err := s.ActivePrintJobs()
	if err != nil {
		t.Fatalf("ActivePrintJobs: %v", err)
	}
	if len(active) != 1 || active[0].ID != open.ID {
		t.Errorf("active jobs: %+v", active)
	}
}

func TestRuleSnapshotOrdering(t *testing.T) {
	s := testStore(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, tag := range []string{"glas", "hout", "spoed"} {
		err := s.CreateTagRule(&types.TagRule{
			Field:     types.FieldSKU,
			Condition: types.ConditionStartsWith,
			Value:     "X-",
			Tag:       tag,
			Active:    true,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("CreateTagRule: %v", err)
		}
	}
	// Inactive rules stay out of the snapshot
	err := s.CreateTagRule(&types.TagRule{
		Field:     types.FieldSKU,
		Condition: types.ConditionEquals,
		Value:     "X-1",
		Tag:       "hidden",
		Active:    false,
		CreatedAt: base,
	})
	if err != nil {
		t.Fatalf("CreateTagRule: %v", err)
	}

	snap, err := s.RuleSnapshot()
	if err != nil {
		t.Fatalf("RuleSnapshot: %v", err)
	}
	if len(snap.Tags) != 3 {
		t.Fatalf("want 3 tag rules, got %d", len(snap.Tags))
	}
	for i, want := range []string{"glas", "hout", "spoed"} {
		if snap.Tags[i].Tag != want {
			t.Errorf("tag rule %d: want %q, got %q", i, want, snap.Tags[i].Tag)
		}
	}
}

func TestRuleSnapshotAllKinds(t *testing.T) {
	s := testStore(t)

	if err := s.CreateConditionRule(&types.ConditionRule{
		Field: types.FieldOrderStatus, Condition: types.ConditionEquals,
		Value: types.OrderStatusBackorder, Active: true,
	}); err != nil {
		t.Fatalf("CreateConditionRule: %v", err)
	}
	if err := s.CreatePriorityRule(&types.PriorityRule{
		Field: types.FieldSKU, Condition: types.ConditionStartsWith,
		Value: "SPOED-", Priority: types.PriorityUrgent, Active: true,
	}); err != nil {
		t.Fatalf("CreatePriorityRule: %v", err)
	}
	if err := s.CreateExclusionRule(&types.ExclusionRule{
		Field: types.FieldSKU, Condition: types.ConditionContains,
		Value: "digital", Reason: "digital product", Active: true,
	}); err != nil {
		t.Fatalf("CreateExclusionRule: %v", err)
	}

	snap, err := s.RuleSnapshot()
	if err != nil {
		t.Fatalf("RuleSnapshot: %v", err)
	}
	if len(snap.Conditions) != 1 || len(snap.Priorities) != 1 || len(snap.Exclusions) != 1 {
		t.Errorf("snapshot counts: %d/%d/%d", len(snap.Conditions), len(snap.Priorities), len(snap.Exclusions))
	}
	if snap.Priorities[0].Scope != types.ScopeProduct {
		t.Errorf("want defaulted product scope, got %q", snap.Priorities[0].Scope)
	}
}

func TestSettings(t *testing.T) {
	s := testStore(t)

	val, err := s.Setting(SettingAPIKey)
	if err != nil {
		t.Fatalf("Setting: %v", err)
	}
	if val != "" {
		t.Errorf("want empty for unset key, got %q", val)
	}

	if err := s.SetSetting(SettingAPIKey, "gp-key-1"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := s.SetSetting(SettingAPIKey, "gp-key-2"); err != nil {
		t.Fatalf("SetSetting overwrite: %v", err)
	}

	val, err = s.Setting(SettingAPIKey)
	if err != nil {
		t.Fatalf("Setting: %v", err)
	}
	if val != "gp-key-2" {
		t.Errorf("want gp-key-2, got %q", val)
	}
}
