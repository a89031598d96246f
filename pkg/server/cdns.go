package server

import (
	"net/http"
	"strconv"

	"catalogue/pkg/log"
	"catalogue/pkg/models"

	"github.com/labstack/echo/v4"
)

func (cs *CatalogueServer) listCDNs(ctx echo.Context) error {
	bindings, err := cs.cdns.List(ctx.Request().Context())
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, bindings)
}

func (cs *CatalogueServer) addCDN(ctx echo.Context) error {
	params, err := requireParams(ctx, "dataset", "ag_url")
	if err != nil {
		return respondError(ctx, err)
	}

	if err := cs.cdns.AddBinding(ctx.Request().Context(), params["dataset"], params["ag_url"]); err != nil {
		return respondError(ctx, err)
	}

	log.Info().Str("dataset", params["dataset"]).Str("ag_url", params["ag_url"]).Msg("CDN binding added")
	return ctx.JSON(http.StatusOK, true)
}

func (cs *CatalogueServer) addCDNSite(ctx echo.Context) error {
	params, err := requireParams(ctx, "dataset", "name", "gps_loc1", "gps_loc2", "cdn_prefix")
	if err != nil {
		return respondError(ctx, err)
	}

	latitude, err := strconv.ParseFloat(params["gps_loc1"], 64)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request parameters - gps_loc1 is not a number"})
	}
	longitude, err := strconv.ParseFloat(params["gps_loc2"], 64)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request parameters - gps_loc2 is not a number"})
	}

	site := models.CDNSite{
		DatasetID: params["dataset"],
		Name:      params["name"],
		Latitude:  latitude,
		Longitude: longitude,
		URLPrefix: params["cdn_prefix"],
	}
	if err := cs.cdns.AddSite(ctx.Request().Context(), site); err != nil {
		return respondError(ctx, err)
	}

	log.Info().Str("dataset", site.DatasetID).Str("name", site.Name).Msg("CDN site added")
	return ctx.JSON(http.StatusOK, true)
}

func (cs *CatalogueServer) removeCDN(ctx echo.Context) error {
	params, err := requireParams(ctx, "dataset")
	if err != nil {
		return respondError(ctx, err)
	}

	bindings, sites, err := cs.cdns.RemoveBinding(ctx.Request().Context(), params["dataset"])
	if err != nil {
		return respondError(ctx, err)
	}

	log.Info().
		Str("dataset", params["dataset"]).
		Int64("bindings", bindings).
		Int64("sites", sites).
		Msg("CDN binding removed")
	return ctx.JSON(http.StatusOK, true)
}

func (cs *CatalogueServer) removeCDNSite(ctx echo.Context) error {
	params, err := requireParams(ctx, "dataset", "name")
	if err != nil {
		return respondError(ctx, err)
	}

	removed, err := cs.cdns.RemoveSite(ctx.Request().Context(), params["dataset"], params["name"])
	if err != nil {
		return respondError(ctx, err)
	}

	log.Info().
		Str("dataset", params["dataset"]).
		Str("name", params["name"]).
		Int64("sites", removed).
		Msg("CDN site removed")
	return ctx.JSON(http.StatusOK, true)
}
