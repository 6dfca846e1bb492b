package router

import (
	"github.com/labstack/echo/v4"

	"anilifetv/internal/adapter/api/handler"
)

func SetupSEORouter(e *echo.Echo, seoHandler *handler.SEOHandler) {
	e.GET("/sitemap.xml", seoHandler.Sitemap)
	e.GET("/robots.txt", seoHandler.Robots)
}
