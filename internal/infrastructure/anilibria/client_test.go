package anilibria

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anilifetv/pkg/errors"
)

func newUpstream(t *testing.T, routes map[string]string) *Client {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return NewClient(server.URL, "https://static.example.com", nil)
}

func TestWeekScheduleAcceptsBareArray(t *testing.T) {
	client := newUpstream(t, map[string]string{
		"/api/v1/anime/schedule/week": `[{"release": {"id": 1, "alias": "a"}, "publish_day": 3}]`,
	})

	days, err := client.WeekSchedule(context.Background())
	require.NoError(t, err)

	require.Len(t, days, 7)
	assert.Len(t, days[2].List, 1)
}

func TestWeekScheduleAcceptsWrappedList(t *testing.T) {
	client := newUpstream(t, map[string]string{
		"/api/v1/anime/schedule/week": `{"list": [{"id": 2, "alias": "b", "publish_day": 1}]}`,
	})

	days, err := client.WeekSchedule(context.Background())
	require.NoError(t, err)

	assert.Len(t, days[0].List, 1)
}

func TestSearchReleasesQuotesQuery(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		w.Write([]byte(`[{"id": 1, "alias": "found", "names": {"ru": "Нашлось"}}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "https://static.example.com", nil)

	releases, err := client.SearchReleases(context.Background(), "naruto")
	require.NoError(t, err)

	assert.Equal(t, `"naruto"`, gotQuery)
	require.Len(t, releases, 1)
	assert.Equal(t, "Нашлось", releases[0].Title)
}

func TestSearchReleasesDefaultsEmptyQuery(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "https://static.example.com", nil)

	_, err := client.SearchReleases(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, `"my"`, gotQuery)
}

func TestReleaseUnwrapsWrapper(t *testing.T) {
	client := newUpstream(t, map[string]string{
		"/api/v1/anime/releases/wrapped": `{"release": {"id": 9, "alias": "wrapped", "title": "Wrapped"}}`,
		"/api/v1/anime/releases/bare":    `{"id": 10, "alias": "bare", "title": "Bare"}`,
	})
	ctx := context.Background()

	wrapped, err := client.Release(ctx, "wrapped")
	require.NoError(t, err)
	assert.Equal(t, "Wrapped", wrapped.Title)

	bare, err := client.Release(ctx, "bare")
	require.NoError(t, err)
	assert.Equal(t, "Bare", bare.Title)
}

func TestReleaseNotFound(t *testing.T) {
	client := newUpstream(t, map[string]string{})

	_, err := client.Release(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, errors.Is(err, "NOT_FOUND"))
}

func TestUpstreamErrorsMapToBadGateway(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "https://static.example.com", nil)

	_, err := client.WeekSchedule(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, "UPSTREAM_ERROR"))
}

func TestRandomReleaseFollowsAlias(t *testing.T) {
	client := newUpstream(t, map[string]string{
		"/api/v1/anime/releases/random": `[{"id": 5, "alias": "lucky"}]`,
		"/api/v1/anime/releases/lucky":  `{"id": 5, "alias": "lucky", "title": "Lucky Star"}`,
	})

	release, err := client.RandomRelease(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Lucky Star", release.Title)
}

func TestEpisodeByID(t *testing.T) {
	client := newUpstream(t, map[string]string{
		"/api/v1/anime/releases/episodes/ep-1": `{"id": "ep-1", "ordinal": 1, "hls_720": "https://cache.libria.fun/1.m3u8"}`,
	})

	episode, err := client.EpisodeByID(context.Background(), "ep-1")
	require.NoError(t, err)

	assert.Equal(t, "ep-1", episode.ID)
	assert.Equal(t, "https://cache.libria.fun/1.m3u8", episode.VideoURL)
}
