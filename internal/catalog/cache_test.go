package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"sitestock/internal"
	"sitestock/internal/config"
	"sitestock/internal/storage"
)

type fakeLister struct {
	materials []internal.Material
	err       error
	calls     int
}

func (f *fakeLister) ListMaterials(ctx context.Context) ([]internal.Material, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.materials, nil
}

func (f *fakeLister) ListCategories(ctx context.Context) ([]internal.Category, error) {
	return []internal.Category{{ID: "cat-1", Name: "Basic"}}, nil
}

func (f *fakeLister) ListUnits(ctx context.Context) ([]internal.Unit, error) {
	return []internal.Unit{{ID: "u-1", Name: "kg"}}, nil
}

func (f *fakeLister) ListConstructions(ctx context.Context) ([]internal.Construction, error) {
	return []internal.Construction{{ID: "c-7", Name: "Site North"}}, nil
}

func testCache(t *testing.T, client *fakeLister) *Cache {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "sitestock.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewCache(db, client, config.Config{CatalogMaxAgeHours: 24})
}

func TestMaterialsRefreshesWhenEmpty(t *testing.T) {
	client := &fakeLister{materials: []internal.Material{
		{MaterialID: "m-1", Name: "Cement 32.5", UnitName: "kg", CategoryName: "Basic", CategoryID: "cat-1", UnitID: "u-1"},
	}}
	cache := testCache(t, client)
	ctx := context.Background()

	got, err := cache.Materials(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].MaterialID != "m-1" {
		t.Fatalf("unexpected materials: %+v", got)
	}
	if client.calls != 1 {
		t.Fatalf("calls=%d", client.calls)
	}

	// Fresh cache, no second fetch.
	if _, err := cache.Materials(ctx); err != nil {
		t.Fatal(err)
	}
	if client.calls != 1 {
		t.Fatalf("fresh cache refetched: calls=%d", client.calls)
	}
}

func TestMaterialsRefreshesWhenExpired(t *testing.T) {
	client := &fakeLister{materials: []internal.Material{{MaterialID: "m-1", Name: "Cement 32.5"}}}
	cache := testCache(t, client)
	ctx := context.Background()

	if _, err := cache.Materials(ctx); err != nil {
		t.Fatal(err)
	}

	cache.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	if _, err := cache.Materials(ctx); err != nil {
		t.Fatal(err)
	}
	if client.calls != 2 {
		t.Fatalf("expired cache not refetched: calls=%d", client.calls)
	}
}

func TestInvalidateDropsAndRefills(t *testing.T) {
	client := &fakeLister{materials: []internal.Material{{MaterialID: "m-1", Name: "Cement 32.5"}}}
	cache := testCache(t, client)
	ctx := context.Background()

	if _, err := cache.Materials(ctx); err != nil {
		t.Fatal(err)
	}

	client.materials = []internal.Material{{MaterialID: "m-2", Name: "Gravel 16/32"}}
	got, err := cache.Invalidate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].MaterialID != "m-2" {
		t.Fatalf("invalidate did not refill: %+v", got)
	}
}

func TestInvalidateSurfacesFetchFailure(t *testing.T) {
	client := &fakeLister{materials: []internal.Material{{MaterialID: "m-1", Name: "Cement 32.5"}}}
	cache := testCache(t, client)
	ctx := context.Background()

	if _, err := cache.Materials(ctx); err != nil {
		t.Fatal(err)
	}

	client.err = errors.New("api unreachable")
	if _, err := cache.Invalidate(ctx); err == nil {
		t.Fatal("expected error")
	}
}
