package middleware

import (
	"net/http"
	"net/url"
	"regexp"

	"github.com/labstack/echo/v4"
)

var botPattern = regexp.MustCompile(`(?i)googlebot|bingbot|yahoo|baiduspider|yandex|duckduckbot|slurp|facebot|twitterbot`)

type PrerenderMiddleware struct {
	prerenderURL string
}

func NewPrerenderMiddleware(prerenderURL string) *PrerenderMiddleware {
	return &PrerenderMiddleware{
		prerenderURL: prerenderURL,
	}
}

// Redirect sends crawler user agents to the prerender service so they see
// fully rendered markup. Everyone else passes through untouched. Disabled
// when no prerender URL is configured.
func (m *PrerenderMiddleware) Redirect(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if m.prerenderURL == "" {
			return next(c)
		}

		userAgent := c.Request().Header.Get("User-Agent")
		if !botPattern.MatchString(userAgent) {
			return next(c)
		}

		target := m.prerenderURL + "?path=" + url.QueryEscape(c.Request().URL.RequestURI())
		return c.Redirect(http.StatusFound, target)
	}
}

// IsBot reports whether the user agent belongs to a known crawler.
func IsBot(userAgent string) bool {
	return botPattern.MatchString(userAgent)
}
