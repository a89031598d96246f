package cdns

// BindingSchema creates the bindings table, keyed by dataset.
const BindingSchema = `
CREATE TABLE IF NOT EXISTS cdns (
    dataset TEXT PRIMARY KEY,
    ag_url  TEXT NOT NULL
);
`

// SiteSchema creates the sites table. Sites are not keyed: the same
// (dataset, name) pair may be registered more than once, and the dataset
// column is not a foreign key.
const SiteSchema = `
CREATE TABLE IF NOT EXISTS cdn_sites (
    dataset    TEXT NOT NULL,
    name       TEXT NOT NULL,
    gps_loc1   REAL NOT NULL,
    gps_loc2   REAL NOT NULL,
    cdn_prefix TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cdn_sites_dataset ON cdn_sites(dataset);
`

const (
	selectBindings = `SELECT dataset, ag_url FROM cdns`
	selectSites    = `SELECT dataset, name, gps_loc1, gps_loc2, cdn_prefix FROM cdn_sites`
)
