package router

import (
	"github.com/labstack/echo/v4"

	"anilifetv/internal/adapter/api/handler"
)

// Catalog endpoints are public: browsing needs no account.
func SetupCatalogRouter(e *echo.Echo, catalogHandler *handler.CatalogHandler) {
	group := e.Group("/v1/catalog")

	group.GET("/schedule", catalogHandler.WeekSchedule)
	group.GET("/releases", catalogHandler.SearchReleases)
	group.GET("/releases/random", catalogHandler.RandomRelease)
	group.GET("/releases/:id", catalogHandler.GetRelease)
	group.GET("/releases/:id/meta", catalogHandler.GetReleaseMeta)
	group.GET("/episodes/:id", catalogHandler.GetEpisode)
}
