// Package seed bulk-loads datasets and CDN bindings from bootstrap files at
// startup. Each entry is inserted on its own; a failing entry is logged and
// counted but never stops the rest.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"catalogue/pkg/log"
	"catalogue/pkg/models"
	"catalogue/pkg/recordstore"
)

// DatasetAdder is the part of the dataset catalogue the loader needs.
type DatasetAdder interface {
	Add(ctx context.Context, ds models.Dataset) error
}

// CDNAdder is the part of the CDN catalogue the loader needs.
type CDNAdder interface {
	AddBinding(ctx context.Context, datasetID, originURL string) error
	AddSite(ctx context.Context, site models.CDNSite) error
}

// Report counts the outcome of a load. Skipped entries already existed.
// SitesFailed counts CDN sites that could not be added to a loaded binding.
type Report struct {
	Loaded      int
	Skipped     int
	Failed      int
	SitesFailed int
}

func (r *Report) record(err error) {
	switch {
	case err == nil:
		r.Loaded++
	case errors.Is(err, recordstore.ErrConflict):
		r.Skipped++
	default:
		r.Failed++
	}
}

type datasetEntry struct {
	Dataset     string `json:"dataset"`
	MSHost      string `json:"ms_host"`
	Volume      string `json:"volume"`
	Gateway     string `json:"gateway"`
	Username    string `json:"username"`
	UserPKey    string `json:"user_pkey"`
	Description string `json:"description"`
}

var errMissingDataset = errors.New("entry has no dataset")

// readEntries splits a JSON array file into its raw elements. A missing file
// yields no entries. Elements are decoded one by one by the caller.
func readEntries(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Info().Str("seed_path", path).Msg("Seed file not found, skipping")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read seed file %s: %w", path, err)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(jsonc.ToJSON(data), &entries); err != nil {
		return nil, fmt.Errorf("cannot parse seed file %s: %w", path, err)
	}
	return entries, nil
}

// LoadDatasets registers every dataset of the file at path under owner.
func LoadDatasets(ctx context.Context, path, owner string, datasets DatasetAdder) (Report, error) {
	var report Report

	entries, err := readEntries(path)
	if err != nil {
		return report, err
	}

	for i, raw := range entries {
		var entry datasetEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			report.Failed++
			log.Warn().Err(err).Int("entry", i).Msg("Seed dataset entry is malformed")
			continue
		}

		err := addDataset(ctx, datasets, entry, owner)
		report.record(err)
		if err != nil {
			log.Warn().Err(err).Str("dataset", entry.Dataset).Msg("Seed dataset not loaded")
		}
	}

	log.Info().
		Str("seed_path", path).
		Int("loaded", report.Loaded).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Msg("Seed datasets processed")
	return report, nil
}

func addDataset(ctx context.Context, datasets DatasetAdder, entry datasetEntry, owner string) error {
	if entry.Dataset == "" {
		return errMissingDataset
	}
	return datasets.Add(ctx, models.Dataset{
		ID:                  entry.Dataset,
		Owner:               owner,
		MetadataServiceHost: entry.MSHost,
		Volume:              entry.Volume,
		Gateway:             entry.Gateway,
		GatewayUsername:     entry.Username,
		GatewayPrivateKey:   entry.UserPKey,
		Description:         entry.Description,
	})
}

// LoadCDNs registers every binding of the file at path together with its
// sites. Sites are only added when their binding was newly created, so
// reloading the same file does not duplicate them.
func LoadCDNs(ctx context.Context, path string, cdns CDNAdder) (Report, error) {
	var report Report

	entries, err := readEntries(path)
	if err != nil {
		return report, err
	}

	for i, raw := range entries {
		var entry models.CDNBinding
		if err := json.Unmarshal(raw, &entry); err != nil {
			report.Failed++
			log.Warn().Err(err).Int("entry", i).Msg("Seed CDN entry is malformed")
			continue
		}

		sitesFailed, err := addBinding(ctx, cdns, entry)
		report.record(err)
		report.SitesFailed += sitesFailed
		if err != nil {
			log.Warn().Err(err).Str("dataset", entry.DatasetID).Msg("Seed CDN binding not loaded")
		}
	}

	log.Info().
		Str("seed_path", path).
		Int("loaded", report.Loaded).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Int("sites_failed", report.SitesFailed).
		Msg("Seed CDN bindings processed")
	return report, nil
}

// addBinding returns the number of sites that failed to insert.
func addBinding(ctx context.Context, cdns CDNAdder, entry models.CDNBinding) (int, error) {
	if entry.DatasetID == "" {
		return 0, errMissingDataset
	}
	if err := cdns.AddBinding(ctx, entry.DatasetID, entry.OriginURL); err != nil {
		return 0, err
	}

	failed := 0
	for _, site := range entry.Sites {
		site.DatasetID = entry.DatasetID
		if err := cdns.AddSite(ctx, site); err != nil {
			failed++
			log.Warn().Err(err).Str("dataset", entry.DatasetID).Str("name", site.Name).Msg("Seed CDN site not loaded")
		}
	}
	return failed, nil
}
