package server

import (
	"net/http"

	"catalogue/pkg/log"
	"catalogue/pkg/models"

	"github.com/labstack/echo/v4"
)

func (cs *CatalogueServer) listDatasets(ctx echo.Context) error {
	datasets, err := cs.datasets.List(ctx.Request().Context())
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, datasets)
}

func (cs *CatalogueServer) addDataset(ctx echo.Context) error {
	params, err := requireParams(ctx, "ms_host", "dataset", "volume", "gateway", "username", "description", "user_pkey")
	if err != nil {
		return respondError(ctx, err)
	}

	user := currentUser(ctx)
	dataset := models.Dataset{
		ID:                  params["dataset"],
		Owner:               user.ID,
		MetadataServiceHost: params["ms_host"],
		Volume:              params["volume"],
		Gateway:             params["gateway"],
		GatewayUsername:     params["username"],
		GatewayPrivateKey:   params["user_pkey"],
		Description:         params["description"],
	}

	if err := cs.datasets.Add(ctx.Request().Context(), dataset); err != nil {
		return respondError(ctx, err)
	}

	log.Info().Str("dataset", dataset.ID).Str("user", user.ID).Msg("Dataset added")
	return ctx.JSON(http.StatusOK, true)
}

func (cs *CatalogueServer) removeDataset(ctx echo.Context) error {
	params, err := requireParams(ctx, "dataset")
	if err != nil {
		return respondError(ctx, err)
	}

	user := currentUser(ctx)
	removed, err := cs.datasets.Remove(ctx.Request().Context(), params["dataset"], user.ID)
	if err != nil {
		return respondError(ctx, err)
	}

	if removed == 0 {
		log.Warn().Str("dataset", params["dataset"]).Str("user", user.ID).Msg("No dataset removed")
	} else {
		log.Info().Str("dataset", params["dataset"]).Str("user", user.ID).Msg("Dataset removed")
	}
	return ctx.JSON(http.StatusOK, true)
}
