package handler

import (
	"encoding/xml"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// sitemapRoutes are the crawlable application pages. Release pages are
// discovered by crawlers through these entry points.
var sitemapRoutes = []string{
	"/",
	"/relizes",
	"/random",
	"/rules",
	"/help",
	"/politic",
	"/terms",
	"/settings",
	"/profile",
	"/payment",
	"/paywall",
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

type sitemapSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type SEOHandler struct {
	siteBase string
	now      func() time.Time
}

func NewSEOHandler(siteBase string) *SEOHandler {
	return &SEOHandler{
		siteBase: strings.TrimRight(siteBase, "/"),
		now:      time.Now,
	}
}

func (h *SEOHandler) Sitemap(c echo.Context) error {
	lastMod := h.now().UTC().Format("2006-01-02")

	set := sitemapSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
	}
	for _, route := range sitemapRoutes {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        h.siteBase + route,
			LastMod:    lastMod,
			ChangeFreq: "weekly",
			Priority:   "0.7",
		})
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to build sitemap")
	}

	return c.Blob(http.StatusOK, "application/xml", append([]byte(xml.Header), body...))
}

func (h *SEOHandler) Robots(c echo.Context) error {
	lines := []string{
		"User-agent: *",
		"Allow: /",
		"Sitemap: " + h.siteBase + "/sitemap.xml",
		"",
	}
	return c.String(http.StatusOK, strings.Join(lines, "\n"))
}
