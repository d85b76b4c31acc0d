package badger

import (
	"context"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/b3screener/b3screener/internal/models"
)

func openTestDB(t *testing.T) *BadgerDB {
	t.Helper()
	tmpDir := t.TempDir()

	options := badgerhold.DefaultOptions
	options.Dir = tmpDir
	options.ValueDir = tmpDir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return &BadgerDB{store: store}
}

func testRun(id string, startedAt time.Time) *models.Run {
	records := []*models.StockRecord{
		{Symbol: "PETR4", Status: models.RecordStatusSuccess, Fields: map[string]interface{}{models.SymbolKey: "PETR4"}},
		{Symbol: "VALE3", Status: models.RecordStatusError, Error: "timeout", Fields: map[string]interface{}{models.SymbolKey: "VALE3"}},
	}
	return &models.Run{
		ID:        id,
		StartedAt: startedAt,
		Summary:   models.Summarize(id, records, startedAt, startedAt.Add(5*time.Second)),
		Records:   records,
	}
}

func TestRunStorageRoundTrip(t *testing.T) {
	db := openTestDB(t)
	storage := NewRunStorage(db, arbor.NewLogger())
	ctx := context.Background()

	run := testRun("run-1", time.Now().UTC())
	if err := storage.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	loaded, err := storage.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if loaded.Summary.Total != 2 || loaded.Summary.Errors != 1 {
		t.Errorf("summary = %+v", loaded.Summary)
	}
	if len(loaded.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(loaded.Records))
	}
	if loaded.Records[0].Symbol != "PETR4" {
		t.Errorf("first record = %s, want PETR4", loaded.Records[0].Symbol)
	}
}

func TestRunStorageSaveRequiresID(t *testing.T) {
	db := openTestDB(t)
	storage := NewRunStorage(db, arbor.NewLogger())

	if err := storage.SaveRun(context.Background(), &models.Run{}); err == nil {
		t.Fatal("expected an error for a run without an ID")
	}
}

func TestRunStorageGetMissing(t *testing.T) {
	db := openTestDB(t)
	storage := NewRunStorage(db, arbor.NewLogger())

	if _, err := storage.GetRun(context.Background(), "nope"); err == nil {
		t.Fatal("expected an error for a missing run")
	}
}

func TestRunStorageListRuns(t *testing.T) {
	db := openTestDB(t)
	storage := NewRunStorage(db, arbor.NewLogger())
	ctx := context.Background()

	base := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-1", "run-2", "run-3"} {
		run := testRun(id, base.Add(time.Duration(i)*time.Hour))
		if err := storage.SaveRun(ctx, run); err != nil {
			t.Fatalf("SaveRun(%s) failed: %v", id, err)
		}
	}

	summaries, err := storage.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2", len(summaries))
	}
	// Newest first
	if summaries[0].ID != "run-3" || summaries[1].ID != "run-2" {
		t.Errorf("order = [%s %s], want [run-3 run-2]", summaries[0].ID, summaries[1].ID)
	}
}
