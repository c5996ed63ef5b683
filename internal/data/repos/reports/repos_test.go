package reports_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	repos "github.com/eitanrom/plada-backend/internal/data/repos/reports"
	"github.com/eitanrom/plada-backend/internal/data/repos/testutil"
	types "github.com/eitanrom/plada-backend/internal/domain/reports"
	"github.com/eitanrom/plada-backend/internal/pkg/dbctx"
)

func rawEvent(eventID string, receivedAt time.Time) *types.RawEvent {
	return &types.RawEvent{
		EventID:       eventID,
		SchemaVersion: "1",
		SourceID:      "test-form",
		ReceivedAt:    receivedAt,
		Payload:       datatypes.JSON([]byte(`{"k":"v"}`)),
		PayloadHash:   "hash-" + eventID,
		Status:        types.RawEventStatusIngested,
	}
}

func TestRawEventInsertIfAbsent(t *testing.T) {
	dbc := dbctx.Context{Ctx: context.Background(), Tx: testutil.Tx(t, testutil.DB(t))}
	repo := repos.NewRawEventRepo(testutil.DB(t), testutil.Logger(t))

	now := time.Now().UTC()
	created, err := repo.InsertIfAbsent(dbc, rawEvent("evt-a", now))
	if err != nil {
		t.Fatalf("InsertIfAbsent: %v", err)
	}
	if !created {
		t.Fatal("first insert must create")
	}

	again, err := repo.InsertIfAbsent(dbc, rawEvent("evt-a", now))
	if err != nil {
		t.Fatalf("InsertIfAbsent duplicate: %v", err)
	}
	if again {
		t.Fatal("duplicate insert must not create")
	}

	stored, err := repo.GetByID(dbc, "evt-a")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored == nil || stored.PayloadHash != "hash-evt-a" {
		t.Fatalf("stored = %+v", stored)
	}

	missing, err := repo.GetByID(dbc, "evt-nope")
	if err != nil {
		t.Fatalf("GetByID missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("missing = %+v, want nil", missing)
	}
}

func TestRawEventUpdateStatus(t *testing.T) {
	dbc := dbctx.Context{Ctx: context.Background(), Tx: testutil.Tx(t, testutil.DB(t))}
	repo := repos.NewRawEventRepo(testutil.DB(t), testutil.Logger(t))

	if _, err := repo.InsertIfAbsent(dbc, rawEvent("evt-b", time.Now().UTC())); err != nil {
		t.Fatalf("InsertIfAbsent: %v", err)
	}
	if err := repo.UpdateStatus(dbc, "evt-b", types.RawEventStatusInvalid, "missing tank_id"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	stored, err := repo.GetByID(dbc, "evt-b")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != types.RawEventStatusInvalid || stored.ErrorDetail != "missing tank_id" {
		t.Fatalf("stored = %+v", stored)
	}
}

func TestRawEventListByStatus(t *testing.T) {
	dbc := dbctx.Context{Ctx: context.Background(), Tx: testutil.Tx(t, testutil.DB(t))}
	repo := repos.NewRawEventRepo(testutil.DB(t), testutil.Logger(t))

	base := time.Now().UTC()
	for i, id := range []string{"evt-c1", "evt-c2", "evt-c3"} {
		e := rawEvent(id, base.Add(time.Duration(i)*time.Minute))
		if _, err := repo.InsertIfAbsent(dbc, e); err != nil {
			t.Fatalf("InsertIfAbsent: %v", err)
		}
	}
	if err := repo.UpdateStatus(dbc, "evt-c2", types.RawEventStatusProcessed, ""); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	ingested, err := repo.ListByStatus(dbc, types.RawEventStatusIngested, 10)
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	if len(ingested) != 2 {
		t.Fatalf("ingested = %d, want 2", len(ingested))
	}
	// newest received first
	if ingested[0].EventID != "evt-c3" {
		t.Fatalf("order = %s first", ingested[0].EventID)
	}
}

func TestNormalizedUpsertReplacesByEventID(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := repos.NewNormalizedResponseRepo(testutil.DB(t), testutil.Logger(t))

	now := time.Now().UTC()
	first := &types.NormalizedResponse{
		EventID:    "evt-n1",
		CompanyKey: "Unknown",
		TankID:     "314",
		WeekID:     "2026-W07",
		ReceivedAt: now,
		Fields:     datatypes.JSON([]byte(`{"zivud:מטף":"חסר"}`)),
	}
	if err := repo.Upsert(dbc, first); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	// Reparse resolved the company this time.
	second := &types.NormalizedResponse{
		EventID:    "evt-n1",
		CompanyKey: "Kfir",
		TankID:     "314",
		WeekID:     "2026-W07",
		ReceivedAt: now,
		Fields:     datatypes.JSON([]byte(`{"zivud:מטף":"תקין"}`)),
	}
	if err := repo.Upsert(dbc, second); err != nil {
		t.Fatalf("Upsert replace: %v", err)
	}

	stored, err := repo.GetByEventID(dbc, "evt-n1")
	if err != nil {
		t.Fatalf("GetByEventID: %v", err)
	}
	if stored == nil || stored.CompanyKey != "Kfir" {
		t.Fatalf("stored = %+v", stored)
	}

	var count int64
	if err := tx.Model(&types.NormalizedResponse{}).Where("event_id = ?", "evt-n1").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("rows = %d, want 1", count)
	}
}

func TestNormalizedListFiltersAndOrder(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := repos.NewNormalizedResponseRepo(testutil.DB(t), testutil.Logger(t))

	base := time.Now().UTC().Truncate(time.Second)
	testutil.SeedNormalized(t, ctx, tx, "evt-l1", "Kfir", "314", "2026-W07", base)
	testutil.SeedNormalized(t, ctx, tx, "evt-l2", "Kfir", "314", "2026-W07", base.Add(time.Hour))
	testutil.SeedNormalized(t, ctx, tx, "evt-l3", "Lahav", "401", "2026-W07", base)
	testutil.SeedNormalized(t, ctx, tx, "evt-l4", "Kfir", "314", "2026-W06", base)

	rows, err := repo.List(dbc, "2026-W07", "kfir")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].EventID != "evt-l2" {
		t.Fatalf("order = %s first, want most recent", rows[0].EventID)
	}

	all, err := repo.List(dbc, "2026-W07", "")
	if err != nil {
		t.Fatalf("List all companies: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("all rows = %d, want 3", len(all))
	}

	weeks, err := repo.ListWeeks(dbc)
	if err != nil {
		t.Fatalf("ListWeeks: %v", err)
	}
	if len(weeks) != 2 || weeks[0] != "2026-W07" || weeks[1] != "2026-W06" {
		t.Fatalf("weeks = %v", weeks)
	}
}

func TestNormalizedListBreaksReceivedAtTies(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := repos.NewNormalizedResponseRepo(testutil.DB(t), testutil.Logger(t))

	at := time.Now().UTC().Truncate(time.Second)
	testutil.SeedNormalized(t, ctx, tx, "evt-t1", "Kfir", "314", "2026-W07", at)
	testutil.SeedNormalized(t, ctx, tx, "evt-t3", "Kfir", "314", "2026-W07", at)
	testutil.SeedNormalized(t, ctx, tx, "evt-t2", "Kfir", "314", "2026-W07", at)

	rows, err := repo.List(dbc, "2026-W07", "Kfir")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	for i, want := range []string{"evt-t3", "evt-t2", "evt-t1"} {
		if rows[i].EventID != want {
			t.Fatalf("order = [%s %s %s], want stable event id tie-break",
				rows[0].EventID, rows[1].EventID, rows[2].EventID)
		}
	}
}

func TestNormalizedDeleteByEventID(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := repos.NewNormalizedResponseRepo(testutil.DB(t), testutil.Logger(t))

	testutil.SeedNormalized(t, ctx, tx, "evt-d1", "Kfir", "314", "2026-W07", time.Now().UTC())
	if err := repo.DeleteByEventID(dbc, "evt-d1"); err != nil {
		t.Fatalf("DeleteByEventID: %v", err)
	}
	stored, err := repo.GetByEventID(dbc, "evt-d1")
	if err != nil {
		t.Fatalf("GetByEventID: %v", err)
	}
	if stored != nil {
		t.Fatalf("stored = %+v, want nil", stored)
	}
}

func TestMetricSnapshotUpsertAndGet(t *testing.T) {
	dbc := dbctx.Context{Ctx: context.Background(), Tx: testutil.Tx(t, testutil.DB(t))}
	repo := repos.NewMetricSnapshotRepo(testutil.DB(t), testutil.Logger(t))

	dims := map[string]string{"week_id": "2026-W07", "company_key": "Kfir"}
	snapshot := &types.MetricSnapshot{
		Scope:      types.SnapshotScopeCompany,
		DimKey:     types.DimensionKey(dims),
		Dimensions: datatypes.JSON([]byte(`{"week_id":"2026-W07","company_key":"Kfir"}`)),
		Values:     datatypes.JSON([]byte(`{"readiness":78}`)),
		ComputedAt: time.Now().UTC(),
	}
	if err := repo.Upsert(dbc, snapshot); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	stored, err := repo.Get(dbc, types.SnapshotScopeCompany, dims)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored == nil || string(stored.Values) != `{"readiness":78}` {
		t.Fatalf("stored = %+v", stored)
	}

	replacement := &types.MetricSnapshot{
		Scope:      types.SnapshotScopeCompany,
		DimKey:     types.DimensionKey(dims),
		Values:     datatypes.JSON([]byte(`{"readiness":90}`)),
		ComputedAt: time.Now().UTC(),
	}
	if err := repo.Upsert(dbc, replacement); err != nil {
		t.Fatalf("Upsert replace: %v", err)
	}
	stored, err = repo.Get(dbc, types.SnapshotScopeCompany, dims)
	if err != nil {
		t.Fatalf("Get after replace: %v", err)
	}
	if stored == nil || string(stored.Values) != `{"readiness":90}` {
		t.Fatalf("stored after replace = %+v", stored)
	}

	miss, err := repo.Get(dbc, types.SnapshotScopeCompany, map[string]string{"week_id": "2026-W01"})
	if err != nil {
		t.Fatalf("Get miss: %v", err)
	}
	if miss != nil {
		t.Fatalf("miss = %+v, want nil", miss)
	}
}

func TestMetricSnapshotDelete(t *testing.T) {
	dbc := dbctx.Context{Ctx: context.Background(), Tx: testutil.Tx(t, testutil.DB(t))}
	repo := repos.NewMetricSnapshotRepo(testutil.DB(t), testutil.Logger(t))

	kfir := map[string]string{"week_id": "2026-W07", "company_key": "Kfir"}
	lahav := map[string]string{"week_id": "2026-W07", "company_key": "Lahav"}
	for _, dims := range []map[string]string{kfir, lahav} {
		err := repo.Upsert(dbc, &types.MetricSnapshot{
			Scope:  types.SnapshotScopeTank,
			DimKey: types.DimensionKey(dims),
			Values: datatypes.JSON([]byte(`{}`)),
		})
		if err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	if err := repo.Delete(dbc, types.SnapshotScopeTank, kfir); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	gone, err := repo.Get(dbc, types.SnapshotScopeTank, kfir)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gone != nil {
		t.Fatalf("stored = %+v, want nil", gone)
	}
	kept, err := repo.Get(dbc, types.SnapshotScopeTank, lahav)
	if err != nil {
		t.Fatalf("Get kept: %v", err)
	}
	if kept == nil {
		t.Fatal("unrelated snapshot must survive a targeted delete")
	}

	// Deleting an already-absent snapshot is fine.
	if err := repo.Delete(dbc, types.SnapshotScopeTank, kfir); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
}

func TestMetricSnapshotDeleteByScope(t *testing.T) {
	dbc := dbctx.Context{Ctx: context.Background(), Tx: testutil.Tx(t, testutil.DB(t))}
	repo := repos.NewMetricSnapshotRepo(testutil.DB(t), testutil.Logger(t))

	dims := map[string]string{"week_id": "2026-W07"}
	err := repo.Upsert(dbc, &types.MetricSnapshot{
		Scope:  types.SnapshotScopeOverview,
		DimKey: types.DimensionKey(dims),
		Values: datatypes.JSON([]byte(`{}`)),
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := repo.DeleteByScope(dbc, types.SnapshotScopeOverview); err != nil {
		t.Fatalf("DeleteByScope: %v", err)
	}
	stored, err := repo.Get(dbc, types.SnapshotScopeOverview, dims)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored != nil {
		t.Fatalf("stored = %+v, want nil", stored)
	}
}

func TestDeadLetterInsertAndList(t *testing.T) {
	dbc := dbctx.Context{Ctx: context.Background(), Tx: testutil.Tx(t, testutil.DB(t))}
	repo := repos.NewDeadLetterRepo(testutil.DB(t), testutil.Logger(t))

	payload := datatypes.JSON([]byte(`{"מספר טנק":""}`))
	row, err := repo.Insert(dbc, "evt-dl1", "test-form", payload, "missing required: tank_id")
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if row.ID == uuid.Nil || row.CreatedAt.IsZero() {
		t.Fatalf("row = %+v", row)
	}
	if _, err := repo.Insert(dbc, "evt-dl2", "test-form", payload, "parse failure"); err != nil {
		t.Fatalf("Insert second: %v", err)
	}

	all, err := repo.List(dbc, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("rows = %d, want 2", len(all))
	}

	byEvent, err := repo.ListByEventID(dbc, "evt-dl1")
	if err != nil {
		t.Fatalf("ListByEventID: %v", err)
	}
	if len(byEvent) != 1 || byEvent[0].ErrorDetail != "missing required: tank_id" {
		t.Fatalf("byEvent = %+v", byEvent)
	}
}
