package storage

import (
	"path/filepath"
	"testing"

	"sitestock/internal"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "sitestock.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestReplaceMaterialsKeepsCatalogOrder(t *testing.T) {
	db := testDB(t)

	materials := []internal.Material{
		{MaterialID: "m-3", Name: "Sand 0/2", UnitName: "t", CategoryName: "Aggregate", CategoryID: "cat-2", UnitID: "u-2"},
		{MaterialID: "m-1", Name: "Cement 32.5", UnitName: "kg", CategoryName: "Basic", CategoryID: "cat-1", UnitID: "u-1"},
		{MaterialID: "m-2", Name: "Gravel 16/32", UnitName: "t", CategoryName: "Aggregate", CategoryID: "cat-2", UnitID: "u-2"},
	}
	if err := db.ReplaceMaterials(materials); err != nil {
		t.Fatal(err)
	}

	got, err := db.ListMaterials()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("materials=%d", len(got))
	}
	for i := range materials {
		if got[i].MaterialID != materials[i].MaterialID {
			t.Fatalf("order not preserved at %d: %+v", i, got)
		}
	}

	// A second replace swaps, never appends.
	if err := db.ReplaceMaterials(materials[:1]); err != nil {
		t.Fatal(err)
	}
	got, err = db.ListMaterials()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].MaterialID != "m-3" {
		t.Fatalf("replace did not swap: %+v", got)
	}
}

func TestNamedTables(t *testing.T) {
	db := testDB(t)

	if err := db.ReplaceCategories([]internal.Category{{ID: "cat-1", Name: "Basic"}, {ID: "cat-2", Name: "Aggregate"}}); err != nil {
		t.Fatal(err)
	}
	if err := db.ReplaceConstructions([]internal.Construction{{ID: "c-7", Name: "Site North"}}); err != nil {
		t.Fatal(err)
	}

	categories, err := db.ListCategories()
	if err != nil {
		t.Fatal(err)
	}
	if len(categories) != 2 || categories[0].Name != "Aggregate" {
		t.Fatalf("unexpected categories: %+v", categories)
	}

	constructions, err := db.ListConstructions()
	if err != nil {
		t.Fatal(err)
	}
	if len(constructions) != 1 || constructions[0].ID != "c-7" {
		t.Fatalf("unexpected constructions: %+v", constructions)
	}
}

func TestClearCatalog(t *testing.T) {
	db := testDB(t)

	if err := db.ReplaceMaterials([]internal.Material{{MaterialID: "m-1", Name: "Cement"}}); err != nil {
		t.Fatal(err)
	}
	if err := db.SetMetadata("catalog.last_sync", "2026-08-28T10:00:00Z"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetMetadata("other.key", "kept"); err != nil {
		t.Fatal(err)
	}

	if err := db.ClearCatalog(); err != nil {
		t.Fatal(err)
	}

	materials, err := db.ListMaterials()
	if err != nil {
		t.Fatal(err)
	}
	if len(materials) != 0 {
		t.Fatalf("materials not cleared: %+v", materials)
	}

	stamp, err := db.GetMetadata("catalog.last_sync")
	if err != nil {
		t.Fatal(err)
	}
	if stamp != nil {
		t.Fatalf("freshness stamp not cleared: %q", *stamp)
	}

	kept, err := db.GetMetadata("other.key")
	if err != nil {
		t.Fatal(err)
	}
	if kept == nil || *kept != "kept" {
		t.Fatalf("unrelated metadata lost")
	}
}

func TestMetadataUpsert(t *testing.T) {
	db := testDB(t)

	missing, err := db.GetMetadata("catalog.last_sync")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown key")
	}

	if err := db.SetMetadata("catalog.last_sync", "first"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetMetadata("catalog.last_sync", "second"); err != nil {
		t.Fatal(err)
	}

	value, err := db.GetMetadata("catalog.last_sync")
	if err != nil {
		t.Fatal(err)
	}
	if value == nil || *value != "second" {
		t.Fatalf("upsert failed: %v", value)
	}
}

func TestImportSessionAuditTrail(t *testing.T) {
	db := testDB(t)

	items := []internal.CommittedItem{
		{MaterialID: "m-1", ExtractedName: "Zement CEM II", Name: "Cement 32.5", QuantityValue: 10},
		{MaterialID: "m-2", ExtractedName: "Kies", Name: "Gravel 16/32", QuantityValue: 2.5},
	}
	sessionID, err := db.RecordImportSession("c-7", "upload", items)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.RecordImportSession("c-7", "manual", items[:1]); err != nil {
		t.Fatal(err)
	}

	sessions, err := db.ListImportSessions(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 2 {
		t.Fatalf("sessions=%d", len(sessions))
	}
	// Newest first.
	if sessions[0].Source != "manual" || sessions[0].ItemCount != 1 {
		t.Fatalf("unexpected session: %+v", sessions[0])
	}
	if sessions[1].ID != int(sessionID) || sessions[1].Source != "upload" || sessions[1].ItemCount != 2 {
		t.Fatalf("unexpected session: %+v", sessions[1])
	}

	committed, err := db.ListCommittedItems(int(sessionID))
	if err != nil {
		t.Fatal(err)
	}
	if len(committed) != 2 {
		t.Fatalf("items=%d", len(committed))
	}
	if committed[0].MaterialID != "m-1" || committed[0].QuantityValue != 10 {
		t.Fatalf("unexpected item: %+v", committed[0])
	}
	if committed[1].ExtractedName != "Kies" {
		t.Fatalf("unexpected item: %+v", committed[1])
	}
}
