package service

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"anilifetv/internal/domain/entity"
	"anilifetv/pkg/logger"
)

// LinkPreviewService turns the first URL of a message into a display card.
// Every failure path returns nil instead of an error: previews are an
// enhancement, never the critical path.
type LinkPreviewService struct {
	httpClient *http.Client
	timeout    time.Duration
}

func NewLinkPreviewService(timeout time.Duration, httpClient *http.Client) *LinkPreviewService {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &LinkPreviewService{
		httpClient: httpClient,
		timeout:    timeout,
	}
}

var (
	urlPattern = regexp.MustCompile(`https?://[^\s<>"']+`)

	ogTitlePattern       = metaPattern("og:title")
	ogDescriptionPattern = metaPattern("og:description")
	ogImagePattern       = metaPattern("og:image")
	titleTagPattern      = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	metaDescPattern      = regexp.MustCompile(`(?is)<meta[^>]+name=["']description["'][^>]+content=["']([^"']*)["']`)
	metaDescPatternRev   = regexp.MustCompile(`(?is)<meta[^>]+content=["']([^"']*)["'][^>]+name=["']description["']`)

	youtubeIDPattern = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([\w-]{6,})`)
)

// metaPattern matches a meta tag by property in either attribute order.
// Tag scanning by pattern is deliberate; a full HTML parse buys nothing for
// three tags.
func metaPattern(property string) *regexp.Regexp {
	escaped := regexp.QuoteMeta(property)
	return regexp.MustCompile(`(?is)<meta[^>]+(?:property|name)=["']` + escaped + `["'][^>]+content=["']([^"']*)["']|<meta[^>]+content=["']([^"']*)["'][^>]+(?:property|name)=["']` + escaped + `["']`)
}

// ExtractURL returns the first URL occurrence in text, or "".
func (s *LinkPreviewService) ExtractURL(text string) string {
	return urlPattern.FindString(text)
}

// Resolve extracts the first URL from text and builds its preview. Returns
// nil when the text has no URL or every resolution stage fails.
func (s *LinkPreviewService) Resolve(ctx context.Context, text string) *entity.LinkPreview {
	target := s.ExtractURL(text)
	if target == "" {
		return nil
	}

	parsed, err := url.Parse(target)
	if err != nil || parsed.Host == "" {
		return nil
	}

	if isVideoHost(parsed.Host) {
		return s.resolveVideo(ctx, target)
	}
	return s.resolvePage(ctx, target, parsed.Host)
}

func isVideoHost(host string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	host = strings.TrimPrefix(host, "m.")
	return host == "youtube.com" || host == "youtu.be"
}

func (s *LinkPreviewService) resolveVideo(ctx context.Context, target string) *entity.LinkPreview {
	endpoint := "https://www.youtube.com/oembed?format=json&url=" + url.QueryEscape(target)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	body, err := s.fetch(ctx, endpoint)
	if err == nil {
		var oembed struct {
			Title        string `json:"title"`
			AuthorName   string `json:"author_name"`
			ThumbnailURL string `json:"thumbnail_url"`
		}
		if err := json.Unmarshal(body, &oembed); err == nil && oembed.Title != "" {
			return &entity.LinkPreview{
				Title:        oembed.Title,
				Description:  oembed.AuthorName,
				Image:        oembed.ThumbnailURL,
				URL:          target,
				IsVideoEmbed: true,
			}
		}
	}

	// oEmbed failed: fall back to the id-keyed thumbnail.
	match := youtubeIDPattern.FindStringSubmatch(target)
	if match == nil {
		return nil
	}

	return &entity.LinkPreview{
		Title:        target,
		Image:        fmt.Sprintf("https://img.youtube.com/vi/%s/hqdefault.jpg", match[1]),
		URL:          target,
		IsVideoEmbed: true,
	}
}

func (s *LinkPreviewService) resolvePage(ctx context.Context, target, host string) *entity.LinkPreview {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	body, err := s.fetch(ctx, target)
	if err != nil {
		logger.Debug("Preview fetch for %s failed: %v", target, err)
		return nil
	}

	page := string(body)
	title := firstMatch(page, ogTitlePattern)
	if title == "" {
		if m := titleTagPattern.FindStringSubmatch(page); m != nil {
			title = strings.TrimSpace(m[1])
		}
	}
	description := firstMatch(page, ogDescriptionPattern)
	if description == "" {
		if m := metaDescPattern.FindStringSubmatch(page); m != nil {
			description = m[1]
		} else if m := metaDescPatternRev.FindStringSubmatch(page); m != nil {
			description = m[1]
		}
	}
	image := firstMatch(page, ogImagePattern)

	if title == "" && description == "" && image == "" {
		// Last resort: a favicon-only card.
		return &entity.LinkPreview{
			Title: host,
			Image: "https://www.google.com/s2/favicons?sz=64&domain=" + url.QueryEscape(host),
			URL:   target,
		}
	}

	return &entity.LinkPreview{
		Title:       html.UnescapeString(title),
		Description: html.UnescapeString(description),
		Image:       image,
		URL:         target,
	}
}

func (s *LinkPreviewService) fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; AniLifeTV-LinkPreview/1.0)")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("preview fetch returned %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, 512<<10))
}

func firstMatch(page string, pattern *regexp.Regexp) string {
	m := pattern.FindStringSubmatch(page)
	if m == nil {
		return ""
	}
	for _, group := range m[1:] {
		if group != "" {
			return strings.TrimSpace(group)
		}
	}
	return ""
}
