package models

import (
	"encoding/json"
	"fmt"
)

// CDNBinding associates a dataset with the origin its CDN sites pull from.
type CDNBinding struct {
	DatasetID string    `json:"dataset"`
	OriginURL string    `json:"ag_url"`
	Sites     []CDNSite `json:"cdn_sites"`
}

// CDNSite is one geographically located distribution point of a binding.
// DatasetID is not part of the wire format; sites are always nested under
// their binding.
type CDNSite struct {
	DatasetID string  `json:"-"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"-"`
	Longitude float64 `json:"-"`
	URLPrefix string  `json:"cdn_prefix"`
}

type cdnSiteJSON struct {
	Name      string     `json:"name"`
	GPSLoc    [2]float64 `json:"gps_loc"`
	URLPrefix string     `json:"cdn_prefix"`
}

// MarshalJSON renders the location as a [latitude, longitude] pair.
func (s CDNSite) MarshalJSON() ([]byte, error) {
	return json.Marshal(cdnSiteJSON{
		Name:      s.Name,
		GPSLoc:    [2]float64{s.Latitude, s.Longitude},
		URLPrefix: s.URLPrefix,
	})
}

// UnmarshalJSON accepts the [latitude, longitude] pair produced by MarshalJSON.
func (s *CDNSite) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name      string    `json:"name"`
		GPSLoc    []float64 `json:"gps_loc"`
		URLPrefix string    `json:"cdn_prefix"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.GPSLoc) != 2 {
		return fmt.Errorf("gps_loc must hold exactly two coordinates, got %d", len(raw.GPSLoc))
	}

	s.Name = raw.Name
	s.Latitude = raw.GPSLoc[0]
	s.Longitude = raw.GPSLoc[1]
	s.URLPrefix = raw.URLPrefix
	return nil
}
