package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"anilifetv/internal/domain/entity"
	"anilifetv/internal/infrastructure/anilibria"
	"anilifetv/internal/infrastructure/cache"
	"anilifetv/pkg/logger"
)

// CatalogUseCase fronts the AniLibria client with a short-TTL cache so the
// schedule and search endpoints survive upstream hiccups and page reloads
// without refetching.
type CatalogUseCase struct {
	client   *anilibria.Client
	cache    *cache.Cache
	ttl      time.Duration
	siteBase string
}

func NewCatalogUseCase(client *anilibria.Client, cache *cache.Cache, ttl time.Duration, siteBase string) *CatalogUseCase {
	return &CatalogUseCase{
		client:   client,
		cache:    cache,
		ttl:      ttl,
		siteBase: strings.TrimRight(siteBase, "/"),
	}
}

func (uc *CatalogUseCase) WeekSchedule(ctx context.Context) ([]entity.ScheduleDay, error) {
	var days []entity.ScheduleDay
	if uc.cached(ctx, "catalog:schedule", &days) {
		return days, nil
	}

	days, err := uc.client.WeekSchedule(ctx)
	if err != nil {
		return nil, err
	}

	uc.store(ctx, "catalog:schedule", days)
	return days, nil
}

func (uc *CatalogUseCase) SearchReleases(ctx context.Context, query string) ([]entity.Release, error) {
	key := "catalog:search:" + strings.ToLower(strings.TrimSpace(query))

	var releases []entity.Release
	if uc.cached(ctx, key, &releases) {
		return releases, nil
	}

	releases, err := uc.client.SearchReleases(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, err
	}

	uc.store(ctx, key, releases)
	return releases, nil
}

func (uc *CatalogUseCase) Release(ctx context.Context, idOrAlias string) (*entity.Release, error) {
	key := "catalog:release:" + idOrAlias

	var release entity.Release
	if uc.cached(ctx, key, &release) {
		return &release, nil
	}

	found, err := uc.client.Release(ctx, idOrAlias)
	if err != nil {
		return nil, err
	}

	uc.store(ctx, key, found)
	return found, nil
}

// RandomRelease is never cached: repeat calls must keep surprising.
func (uc *CatalogUseCase) RandomRelease(ctx context.Context) (*entity.Release, error) {
	return uc.client.RandomRelease(ctx)
}

func (uc *CatalogUseCase) Episode(ctx context.Context, episodeID string) (*entity.Episode, error) {
	key := "catalog:episode:" + episodeID

	var episode entity.Episode
	if uc.cached(ctx, key, &episode) {
		return &episode, nil
	}

	found, err := uc.client.EpisodeByID(ctx, episodeID)
	if err != nil {
		return nil, err
	}

	uc.store(ctx, key, found)
	return found, nil
}

// PageMeta carries the per-release SEO head data plus its schema.org
// TVSeries document, ready for server-side injection.
type PageMeta struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	CanonicalURL string          `json:"canonical_url"`
	ImageURL     string          `json:"image_url"`
	JSONLD       json.RawMessage `json:"json_ld"`
}

// ReleaseMeta builds the SEO document for one release page.
func (uc *CatalogUseCase) ReleaseMeta(ctx context.Context, idOrAlias string) (*PageMeta, error) {
	release, err := uc.Release(ctx, idOrAlias)
	if err != nil {
		return nil, err
	}

	slug := release.Alias
	if slug == "" {
		slug = fmt.Sprintf("%d", release.ID)
	}
	canonical := uc.siteBase + "/release/" + slug

	description := release.Description
	if len(description) > 300 {
		description = description[:297] + "..."
	}

	doc := map[string]any{
		"@context":    "https://schema.org",
		"@type":       "TVSeries",
		"name":        release.Title,
		"description": description,
		"url":         canonical,
	}
	if release.PosterURL != "" {
		doc["image"] = release.PosterURL
	}
	if len(release.Genres) > 0 {
		doc["genre"] = release.Genres
	}
	if len(release.Episodes) > 0 {
		doc["numberOfEpisodes"] = len(release.Episodes)
	}

	jsonLD, err := json.Marshal(doc)
	if err != nil {
		jsonLD = []byte("{}")
	}

	return &PageMeta{
		Title:        release.Title + " watch online",
		Description:  description,
		CanonicalURL: canonical,
		ImageURL:     release.PosterURL,
		JSONLD:       jsonLD,
	}, nil
}

func (uc *CatalogUseCase) cached(ctx context.Context, key string, out any) bool {
	raw, ok := uc.cache.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		logger.Warn("Dropping corrupt cache entry %s: %v", key, err)
		return false
	}
	return true
}

func (uc *CatalogUseCase) store(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	uc.cache.Set(ctx, key, string(raw), uc.ttl)
}
