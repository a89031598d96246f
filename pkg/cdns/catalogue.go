// Package cdns is the catalogue of CDN bindings and the sites that serve them.
package cdns

import (
	"context"
	"fmt"

	"catalogue/pkg/log"
	"catalogue/pkg/models"
	"catalogue/pkg/recordstore"
)

// Catalogue owns a record store handle on the cdns and cdn_sites tables.
type Catalogue struct {
	store *recordstore.Store
}

// Open opens the catalogue on the database file at path.
func Open(ctx context.Context, path string) (*Catalogue, error) {
	store, err := recordstore.Open(ctx, path, BindingSchema, SiteSchema)
	if err != nil {
		return nil, err
	}
	return &Catalogue{store: store}, nil
}

// Close releases the underlying store handle.
func (c *Catalogue) Close() error {
	return c.store.Close()
}

func scanBinding(row recordstore.Scanner) (models.CDNBinding, error) {
	var binding models.CDNBinding
	err := row.Scan(&binding.DatasetID, &binding.OriginURL)
	return binding, err
}

func scanSite(row recordstore.Scanner) (models.CDNSite, error) {
	var site models.CDNSite
	err := row.Scan(&site.DatasetID, &site.Name, &site.Latitude, &site.Longitude, &site.URLPrefix)
	return site, err
}

// Exists reports whether a binding is registered for datasetID.
func (c *Catalogue) Exists(ctx context.Context, datasetID string) (bool, error) {
	return c.store.Exists(ctx, `SELECT 1 FROM cdns WHERE dataset = ?`, datasetID)
}

// Get returns the binding for datasetID with its sites, or nil when no binding
// exists. Sites left behind without a binding are ignored.
func (c *Catalogue) Get(ctx context.Context, datasetID string) (*models.CDNBinding, error) {
	log.Debug().Str("dataset", datasetID).Msg("Retrieving CDN binding")

	binding, err := recordstore.QueryOne(ctx, c.store, scanBinding, selectBindings+` WHERE dataset = ?`, datasetID)
	if err != nil || binding == nil {
		return nil, err
	}

	sites, err := c.Sites(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	binding.Sites = sites
	return binding, nil
}

// Sites returns the sites registered for datasetID, whether or not a binding exists.
func (c *Catalogue) Sites(ctx context.Context, datasetID string) ([]models.CDNSite, error) {
	return recordstore.QueryAll(ctx, c.store, scanSite, selectSites+` WHERE dataset = ?`, datasetID)
}

// List returns every binding with its sites.
func (c *Catalogue) List(ctx context.Context) ([]models.CDNBinding, error) {
	log.Debug().Msg("Listing CDN bindings")

	bindings, err := recordstore.QueryAll(ctx, c.store, scanBinding, selectBindings)
	if err != nil {
		return nil, err
	}

	sites, err := recordstore.QueryAll(ctx, c.store, scanSite, selectSites)
	if err != nil {
		return nil, err
	}

	return Join(bindings, sites), nil
}

// Join attaches each site to the binding with the same dataset id. Sites keep
// their relative order; sites whose dataset has no binding are dropped.
func Join(bindings []models.CDNBinding, sites []models.CDNSite) []models.CDNBinding {
	byDataset := make(map[string][]models.CDNSite, len(bindings))
	for _, site := range sites {
		byDataset[site.DatasetID] = append(byDataset[site.DatasetID], site)
	}

	joined := make([]models.CDNBinding, 0, len(bindings))
	for _, binding := range bindings {
		binding.Sites = byDataset[binding.DatasetID]
		if binding.Sites == nil {
			binding.Sites = []models.CDNSite{}
		}
		joined = append(joined, binding)
	}
	return joined
}

// AddBinding registers the origin URL for datasetID. It fails with
// recordstore.ErrConflict when a binding already exists.
func (c *Catalogue) AddBinding(ctx context.Context, datasetID, originURL string) error {
	log.Debug().Str("dataset", datasetID).Str("ag_url", originURL).Msg("Adding CDN binding")

	if _, err := c.store.Run(ctx, `INSERT INTO cdns (dataset, ag_url) VALUES (?, ?)`, datasetID, originURL); err != nil {
		return fmt.Errorf("cdn binding %q: %w", datasetID, err)
	}
	return nil
}

// AddSite registers a site for site.DatasetID. Duplicates are kept.
func (c *Catalogue) AddSite(ctx context.Context, site models.CDNSite) error {
	log.Debug().
		Str("dataset", site.DatasetID).
		Str("name", site.Name).
		Float64("lat", site.Latitude).
		Float64("lon", site.Longitude).
		Str("cdn_prefix", site.URLPrefix).
		Msg("Adding CDN site")

	_, err := c.store.Run(ctx,
		`INSERT INTO cdn_sites (dataset, name, gps_loc1, gps_loc2, cdn_prefix) VALUES (?, ?, ?, ?, ?)`,
		site.DatasetID, site.Name, site.Latitude, site.Longitude, site.URLPrefix,
	)
	if err != nil {
		return fmt.Errorf("cdn site %q/%q: %w", site.DatasetID, site.Name, err)
	}
	return nil
}

// RemoveBinding deletes the binding for datasetID and all of its sites in one
// transaction. It returns the number of binding and site rows deleted.
func (c *Catalogue) RemoveBinding(ctx context.Context, datasetID string) (bindings, sites int64, err error) {
	log.Debug().Str("dataset", datasetID).Msg("Removing CDN binding")

	err = c.store.Tx(ctx, func(tx recordstore.Execer) error {
		var txErr error
		if bindings, txErr = tx.Run(ctx, `DELETE FROM cdns WHERE dataset = ?`, datasetID); txErr != nil {
			return txErr
		}
		sites, txErr = tx.Run(ctx, `DELETE FROM cdn_sites WHERE dataset = ?`, datasetID)
		return txErr
	})
	if err != nil {
		return 0, 0, fmt.Errorf("cdn binding %q: %w", datasetID, err)
	}
	return bindings, sites, nil
}

// RemoveSite deletes every site of datasetID named name. The binding is kept.
func (c *Catalogue) RemoveSite(ctx context.Context, datasetID, name string) (int64, error) {
	log.Debug().Str("dataset", datasetID).Str("name", name).Msg("Removing CDN site")

	removed, err := c.store.Run(ctx, `DELETE FROM cdn_sites WHERE dataset = ? AND name = ?`, datasetID, name)
	if err != nil {
		return 0, fmt.Errorf("cdn site %q/%q: %w", datasetID, name, err)
	}
	return removed, nil
}
