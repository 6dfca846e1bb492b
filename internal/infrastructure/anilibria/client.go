package anilibria

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"anilifetv/internal/domain/entity"
	"anilifetv/pkg/errors"
)

// Client talks to the AniLibria catalog API. All responses pass through the
// normalization boundary in normalize.go before leaving this package.
type Client struct {
	baseURL    string
	staticBase string
	httpClient *http.Client
}

func NewClient(baseURL, staticBase string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:    baseURL,
		staticBase: staticBase,
		httpClient: httpClient,
	}
}

// WeekSchedule returns the weekly airing schedule grouped into 7 day
// buckets, Monday first.
func (c *Client) WeekSchedule(ctx context.Context) ([]entity.ScheduleDay, error) {
	body, err := c.get(ctx, "/api/v1/anime/schedule/week", nil)
	if err != nil {
		return nil, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		// Some deployments wrap the array in {list: [...]}.
		var wrapped struct {
			List []json.RawMessage `json:"list"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil {
			return nil, errors.BadGateway("Unexpected schedule payload", err)
		}
		items = wrapped.List
	}

	return c.groupScheduleItems(items), nil
}

// SearchReleases runs the upstream full-text search. An empty query falls
// back to a broad default so the catalog page is never blank.
func (c *Client) SearchReleases(ctx context.Context, query string) ([]entity.Release, error) {
	if query == "" {
		query = "my"
	}

	body, err := c.get(ctx, "/api/v1/app/search/releases", url.Values{
		"query": []string{fmt.Sprintf("%q", query)},
	})
	if err != nil {
		return nil, err
	}

	var raws []rawRelease
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, errors.BadGateway("Unexpected search payload", err)
	}

	releases := make([]entity.Release, 0, len(raws))
	for _, raw := range raws {
		releases = append(releases, c.normalizeRelease(&raw))
	}

	return releases, nil
}

// Release fetches one release by numeric id or alias.
func (c *Client) Release(ctx context.Context, idOrAlias string) (*entity.Release, error) {
	body, err := c.get(ctx, "/api/v1/anime/releases/"+url.PathEscape(idOrAlias), nil)
	if err != nil {
		return nil, err
	}

	// Either the release object itself or wrapped in {release: {...}}.
	var wrapped struct {
		Release *rawRelease `json:"release"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Release != nil {
		release := c.normalizeRelease(wrapped.Release)
		return &release, nil
	}

	var raw rawRelease
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errors.BadGateway("Unexpected release payload", err)
	}
	if raw.ID == 0 && raw.Alias == "" {
		return nil, errors.NotFound("Release", nil)
	}

	release := c.normalizeRelease(&raw)
	return &release, nil
}

// RandomRelease picks a random release and returns its full details.
func (c *Client) RandomRelease(ctx context.Context) (*entity.Release, error) {
	body, err := c.get(ctx, "/api/v1/anime/releases/random", nil)
	if err != nil {
		return nil, err
	}

	var raws []rawRelease
	if err := json.Unmarshal(body, &raws); err != nil || len(raws) == 0 {
		return nil, errors.BadGateway("Random release payload was empty", err)
	}

	alias := raws[0].Alias
	if alias == "" {
		alias = fmt.Sprintf("%d", raws[0].ID)
	}

	return c.Release(ctx, alias)
}

// EpisodeByID fetches a single episode with its stream variants resolved.
func (c *Client) EpisodeByID(ctx context.Context, episodeID string) (*entity.Episode, error) {
	body, err := c.get(ctx, "/api/v1/anime/releases/episodes/"+url.PathEscape(episodeID), nil)
	if err != nil {
		return nil, err
	}

	var raw rawEpisode
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errors.BadGateway("Unexpected episode payload", err)
	}

	episode := normalizeEpisode(&raw, "")
	if episode.ID == "" && episode.VideoURL == "" {
		return nil, errors.NotFound("Episode", nil)
	}

	return &episode, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Internal("Failed to build catalog request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.BadGateway("Catalog API unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.NotFound("Release", nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.BadGateway(fmt.Sprintf("Catalog API returned %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, errors.BadGateway("Failed to read catalog response", err)
	}

	return body, nil
}
