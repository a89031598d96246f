// Package datasets is the catalogue of registered datasets.
package datasets

import (
	"context"
	"fmt"

	"catalogue/pkg/log"
	"catalogue/pkg/models"
	"catalogue/pkg/recordstore"
)

// Catalogue owns a record store handle on the datasets table.
type Catalogue struct {
	store *recordstore.Store
}

// Open opens the catalogue on the database file at path.
func Open(ctx context.Context, path string) (*Catalogue, error) {
	store, err := recordstore.Open(ctx, path, Schema)
	if err != nil {
		return nil, err
	}
	return &Catalogue{store: store}, nil
}

// Close releases the underlying store handle.
func (c *Catalogue) Close() error {
	return c.store.Close()
}

func scanDataset(row recordstore.Scanner) (models.Dataset, error) {
	var ds models.Dataset
	err := row.Scan(&ds.ID, &ds.Owner, &ds.MetadataServiceHost, &ds.Volume,
		&ds.Gateway, &ds.GatewayUsername, &ds.GatewayPrivateKey, &ds.Description)
	return ds, err
}

// Exists reports whether a dataset is registered under id.
func (c *Catalogue) Exists(ctx context.Context, id string) (bool, error) {
	return c.store.Exists(ctx, `SELECT 1 FROM datasets WHERE dataset = ?`, id)
}

// Get returns the dataset registered under id, or nil when there is none.
func (c *Catalogue) Get(ctx context.Context, id string) (*models.Dataset, error) {
	log.Debug().Str("dataset", id).Msg("Retrieving dataset")
	return recordstore.QueryOne(ctx, c.store, scanDataset, selectColumns+` WHERE dataset = ?`, id)
}

// List returns every registered dataset in store order.
func (c *Catalogue) List(ctx context.Context) ([]models.Dataset, error) {
	log.Debug().Msg("Listing datasets")
	return recordstore.QueryAll(ctx, c.store, scanDataset, selectColumns)
}

// Add registers a dataset. It fails with recordstore.ErrConflict when the id is taken.
func (c *Catalogue) Add(ctx context.Context, ds models.Dataset) error {
	log.Debug().
		Str("dataset", ds.ID).
		Str("user", ds.Owner).
		Str("ms_host", ds.MetadataServiceHost).
		Str("volume", ds.Volume).
		Str("gateway", ds.Gateway).
		Msg("Adding dataset")

	_, err := c.store.Run(ctx,
		`INSERT INTO datasets (dataset, reg_user, ms_host, volume, gateway, username, user_pkey, description) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ds.ID, ds.Owner, ds.MetadataServiceHost, ds.Volume, ds.Gateway, ds.GatewayUsername, ds.GatewayPrivateKey, ds.Description,
	)
	if err != nil {
		return fmt.Errorf("dataset %q: %w", ds.ID, err)
	}
	return nil
}

// Remove deletes the dataset id if it is owned by owner and returns the number
// of rows deleted. A missing dataset and a wrong owner both yield zero rows
// and no error.
func (c *Catalogue) Remove(ctx context.Context, id, owner string) (int64, error) {
	log.Debug().Str("dataset", id).Str("user", owner).Msg("Removing dataset")

	removed, err := c.store.Run(ctx, `DELETE FROM datasets WHERE dataset = ? AND reg_user = ?`, id, owner)
	if err != nil {
		return 0, fmt.Errorf("dataset %q: %w", id, err)
	}
	return removed, nil
}
