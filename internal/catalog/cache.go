package catalog

import (
	"context"
	"time"

	"sitestock/internal"
	"sitestock/internal/config"
	"sitestock/internal/storage"
)

const lastSyncKey = "catalog.last_sync"

// Lister is the slice of the API client the cache needs.
type Lister interface {
	ListMaterials(ctx context.Context) ([]internal.Material, error)
	ListCategories(ctx context.Context) ([]internal.Category, error)
	ListUnits(ctx context.Context) ([]internal.Unit, error)
	ListConstructions(ctx context.Context) ([]internal.Construction, error)
}

// Cache keeps a local sqlite mirror of the remote catalog. List views read
// from it; Invalidate drops and refills it, which is what the filter engine's
// reload control triggers.
type Cache struct {
	db     *storage.DB
	client Lister
	cfg    config.Config
	now    func() time.Time
}

func NewCache(db *storage.DB, client Lister, cfg config.Config) *Cache {
	return &Cache{db: db, client: client, cfg: cfg, now: time.Now}
}

// Materials returns the cached material list, refreshing first when the cache
// is empty or older than the configured max age.
func (c *Cache) Materials(ctx context.Context) ([]internal.Material, error) {
	stale, err := c.isStale()
	if err != nil {
		return nil, err
	}
	if stale {
		if err := c.Refresh(ctx); err != nil {
			return nil, err
		}
	}
	return c.db.ListMaterials()
}

func (c *Cache) Categories(ctx context.Context) ([]internal.Category, error) {
	return c.db.ListCategories()
}

func (c *Cache) Constructions(ctx context.Context) ([]internal.Construction, error) {
	return c.db.ListConstructions()
}

// Refresh pulls the full catalog from the API and replaces the mirror.
func (c *Cache) Refresh(ctx context.Context) error {
	materials, err := c.client.ListMaterials(ctx)
	if err != nil {
		return err
	}
	categories, err := c.client.ListCategories(ctx)
	if err != nil {
		return err
	}
	units, err := c.client.ListUnits(ctx)
	if err != nil {
		return err
	}
	constructions, err := c.client.ListConstructions(ctx)
	if err != nil {
		return err
	}

	if err := c.db.ReplaceMaterials(materials); err != nil {
		return err
	}
	if err := c.db.ReplaceCategories(categories); err != nil {
		return err
	}
	if err := c.db.ReplaceUnits(units); err != nil {
		return err
	}
	if err := c.db.ReplaceConstructions(constructions); err != nil {
		return err
	}

	return c.db.SetMetadata(lastSyncKey, c.now().UTC().Format(time.RFC3339))
}

// Invalidate drops the mirror, refills it and returns the fresh material
// list. Implements filter.Source.
func (c *Cache) Invalidate(ctx context.Context) ([]internal.Material, error) {
	if err := c.db.ClearCatalog(); err != nil {
		return nil, err
	}
	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	return c.db.ListMaterials()
}

func (c *Cache) isStale() (bool, error) {
	last, err := c.db.GetMetadata(lastSyncKey)
	if err != nil {
		return false, err
	}
	if last == nil {
		return true, nil
	}
	parsed, err := time.Parse(time.RFC3339, *last)
	if err != nil {
		return true, nil
	}
	maxAge := time.Duration(c.cfg.CatalogMaxAgeHours) * time.Hour
	return c.now().Sub(parsed) >= maxAge, nil
}
