package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"anilifetv/internal/usecase"
	"anilifetv/pkg/response"
)

type CatalogHandler struct {
	catalogUseCase *usecase.CatalogUseCase
}

func NewCatalogHandler(catalogUseCase *usecase.CatalogUseCase) *CatalogHandler {
	return &CatalogHandler{
		catalogUseCase: catalogUseCase,
	}
}

func (h *CatalogHandler) WeekSchedule(c echo.Context) error {
	days, err := h.catalogUseCase.WeekSchedule(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, days)
}

func (h *CatalogHandler) SearchReleases(c echo.Context) error {
	releases, err := h.catalogUseCase.SearchReleases(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return response.Error(c, err)
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.QueryParam("pageSize"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	total := int64(len(releases))
	start := (page - 1) * pageSize
	if start > len(releases) {
		start = len(releases)
	}
	end := start + pageSize
	if end > len(releases) {
		end = len(releases)
	}

	return response.Paginated(c, releases[start:end], total, page, pageSize)
}

func (h *CatalogHandler) GetRelease(c echo.Context) error {
	release, err := h.catalogUseCase.Release(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, release)
}

func (h *CatalogHandler) RandomRelease(c echo.Context) error {
	release, err := h.catalogUseCase.RandomRelease(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, release)
}

func (h *CatalogHandler) GetEpisode(c echo.Context) error {
	episode, err := h.catalogUseCase.Episode(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, episode)
}

// GetReleaseMeta serves the SEO head data and JSON-LD for a release page.
func (h *CatalogHandler) GetReleaseMeta(c echo.Context) error {
	meta, err := h.catalogUseCase.ReleaseMeta(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, meta)
}
