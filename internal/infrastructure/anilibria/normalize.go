package anilibria

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"anilifetv/internal/domain/entity"
)

// The upstream API has shipped several generations of its payload shape:
// poster vs posters vs image, name vs names vs title, genre strings vs
// objects, day buckets vs flat entries. Everything duck-typed is unwrapped
// here, once, into the fixed entity shapes.

type rawRelease struct {
	ID    int64  `json:"id"`
	Alias string `json:"alias"`
	Title string `json:"title"`

	Name *struct {
		Main        string `json:"main"`
		English     string `json:"english"`
		Alternative string `json:"alternative"`
	} `json:"name"`
	Names *struct {
		Ru       string `json:"ru"`
		En       string `json:"en"`
		Original string `json:"original"`
	} `json:"names"`

	Poster *struct {
		Src       string `json:"src"`
		Preview   string `json:"preview"`
		Thumbnail string `json:"thumbnail"`
		Optimized *struct {
			Src     string `json:"src"`
			Preview string `json:"preview"`
		} `json:"optimized"`
	} `json:"poster"`
	Posters *struct {
		Small    *struct{ URL string `json:"url"` } `json:"small"`
		Medium   *struct{ URL string `json:"url"` } `json:"medium"`
		Original *struct{ URL string `json:"url"` } `json:"original"`
	} `json:"posters"`
	Image string `json:"image"`

	Description  string `json:"description"`
	Notification string `json:"notification"`

	Genres json.RawMessage `json:"genres"`
	Season json.RawMessage `json:"season"`
	Year   int             `json:"year"`

	AgeRating *struct {
		Label string `json:"label"`
	} `json:"age_rating"`

	IsOngoing             bool `json:"is_ongoing"`
	IsInProduction        bool `json:"is_in_production"`
	IsBlockedByCopyrights bool `json:"is_blocked_by_copyrights"`

	Episodes []rawEpisode `json:"episodes"`
	Player   *struct {
		Host string          `json:"host"`
		List json.RawMessage `json:"list"`
	} `json:"player"`
	ExternalPlayer string `json:"external_player"`

	PublishDay json.RawMessage `json:"publish_day"`
	Day        *int            `json:"day"`
}

type rawEpisode struct {
	ID      json.RawMessage `json:"id"`
	Ordinal float64         `json:"ordinal"`
	Episode json.RawMessage `json:"episode"`
	Number  json.RawMessage `json:"number"`
	Name    string          `json:"name"`

	HLS1080 string `json:"hls_1080"`
	HLS720  string `json:"hls_720"`
	HLS480  string `json:"hls_480"`
	File    string `json:"file"`
	URL     string `json:"url"`
	Src     string `json:"src"`
	Link    string `json:"link"`
}

func (c *Client) normalizeRelease(raw *rawRelease) entity.Release {
	release := entity.Release{
		ID:          raw.ID,
		Alias:       raw.Alias,
		Title:       resolveTitle(raw),
		Description: firstNonEmpty(raw.Description, raw.Notification),
		PosterURL:   c.resolvePoster(raw),
		Genres:      resolveGenres(raw.Genres),
		Year:        raw.Year,
		Status:      resolveStatus(raw),
	}

	season, year := resolveSeason(raw.Season)
	release.Season = season
	if release.Year == 0 {
		release.Year = year
	}

	if raw.AgeRating != nil {
		release.AgeRating = raw.AgeRating.Label
	}

	playerHost := ""
	if raw.Player != nil {
		playerHost = raw.Player.Host
	}
	for i := range raw.Episodes {
		release.Episodes = append(release.Episodes, normalizeEpisode(&raw.Episodes[i], playerHost))
	}
	if len(release.Episodes) == 0 && raw.Player != nil && len(raw.Player.List) > 0 {
		release.Episodes = normalizePlayerList(raw.Player.List, playerHost)
	}

	if raw.ExternalPlayer != "" {
		release.ExternalPlayerURL = completeURL(raw.ExternalPlayer, "")
	}

	return release
}

func resolveTitle(raw *rawRelease) string {
	if raw.Names != nil {
		if t := firstNonEmpty(raw.Names.Ru, raw.Names.En, raw.Names.Original); t != "" {
			return t
		}
	}
	if raw.Name != nil {
		if t := firstNonEmpty(raw.Name.Main, raw.Name.English, raw.Name.Alternative); t != "" {
			return t
		}
	}
	return firstNonEmpty(raw.Title, raw.Alias)
}

func (c *Client) resolvePoster(raw *rawRelease) string {
	var candidates []string

	if p := raw.Poster; p != nil {
		if p.Optimized != nil {
			candidates = append(candidates, p.Optimized.Preview, p.Optimized.Src)
		}
		candidates = append(candidates, p.Preview, p.Src, p.Thumbnail)
	}
	if ps := raw.Posters; ps != nil {
		if ps.Small != nil {
			candidates = append(candidates, ps.Small.URL)
		}
		if ps.Medium != nil {
			candidates = append(candidates, ps.Medium.URL)
		}
		if ps.Original != nil {
			candidates = append(candidates, ps.Original.URL)
		}
	}
	candidates = append(candidates, raw.Image)

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if strings.HasPrefix(candidate, "http://") || strings.HasPrefix(candidate, "https://") {
			return candidate
		}
		if strings.HasPrefix(candidate, "//") {
			return "https:" + candidate
		}
		if !strings.HasPrefix(candidate, "/") {
			candidate = "/" + candidate
		}
		return c.staticBase + candidate
	}

	return ""
}

func resolveGenres(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}

	var genres []string
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			genres = append(genres, s)
			continue
		}
		var obj struct {
			Name  string `json:"name"`
			Label string `json:"label"`
		}
		if err := json.Unmarshal(item, &obj); err == nil {
			if g := firstNonEmpty(obj.Name, obj.Label); g != "" {
				genres = append(genres, g)
			}
		}
	}

	return genres
}

func resolveSeason(raw json.RawMessage) (string, int) {
	if len(raw) == 0 {
		return "", 0
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, 0
	}

	var obj struct {
		Description json.RawMessage `json:"description"`
		Value       string          `json:"value"`
		String      string          `json:"string"`
		Year        int             `json:"year"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", 0
	}

	var desc string
	if len(obj.Description) > 0 {
		if err := json.Unmarshal(obj.Description, &desc); err != nil {
			// Occasionally description itself is an object.
			var nested struct {
				Value       string `json:"value"`
				Description string `json:"description"`
			}
			if err := json.Unmarshal(obj.Description, &nested); err == nil {
				desc = firstNonEmpty(nested.Value, nested.Description)
			}
		}
	}

	return firstNonEmpty(desc, obj.Value, obj.String), obj.Year
}

func resolveStatus(raw *rawRelease) string {
	switch {
	case raw.IsOngoing:
		return entity.StatusOngoing
	case raw.IsInProduction:
		return entity.StatusInProduction
	case raw.IsBlockedByCopyrights:
		return entity.StatusBlocked
	default:
		return entity.StatusFinished
	}
}

func normalizeEpisode(raw *rawEpisode, playerHost string) entity.Episode {
	episode := entity.Episode{
		ID:      rawToString(raw.ID),
		Ordinal: raw.Ordinal,
		Name:    raw.Name,
	}
	if episode.ID == "" {
		episode.ID = firstNonEmpty(rawToString(raw.Episode), rawToString(raw.Number))
	}
	if episode.Ordinal == 0 {
		if n, err := jsonNumber(raw.Episode); err == nil {
			episode.Ordinal = n
		} else if n, err := jsonNumber(raw.Number); err == nil {
			episode.Ordinal = n
		}
	}

	// Quality ladder: best HLS variant first, generic fields last.
	candidate := firstNonEmpty(raw.HLS1080, raw.HLS720, raw.HLS480, raw.File, raw.URL, raw.Src, raw.Link)
	episode.VideoURL = completeURL(candidate, playerHost)

	return episode
}

func normalizePlayerList(raw json.RawMessage, playerHost string) []entity.Episode {
	var list []rawEpisode
	if err := json.Unmarshal(raw, &list); err == nil {
		episodes := make([]entity.Episode, 0, len(list))
		for i := range list {
			ep := normalizeEpisode(&list[i], playerHost)
			if ep.ID == "" {
				ep.ID = fmt.Sprintf("%d", i+1)
			}
			episodes = append(episodes, ep)
		}
		return episodes
	}

	var keyed map[string]rawEpisode
	if err := json.Unmarshal(raw, &keyed); err == nil {
		episodes := make([]entity.Episode, 0, len(keyed))
		for key := range keyed {
			ep := keyed[key]
			normalized := normalizeEpisode(&ep, playerHost)
			if normalized.ID == "" {
				normalized.ID = key
			}
			episodes = append(episodes, normalized)
		}
		// Map iteration order is random; order by ordinal, then id.
		sort.Slice(episodes, func(i, j int) bool {
			if episodes[i].Ordinal != episodes[j].Ordinal {
				return episodes[i].Ordinal < episodes[j].Ordinal
			}
			return episodes[i].ID < episodes[j].ID
		})
		return episodes
	}

	return nil
}

// groupScheduleItems sorts flat or nested schedule entries into 7 weekday
// buckets. Publish days arrive either 1-7 or 0-6 depending on API
// generation; out-of-range values wrap modulo 7.
func (c *Client) groupScheduleItems(items []json.RawMessage) []entity.ScheduleDay {
	buckets := make([]entity.ScheduleDay, 7)
	for i := range buckets {
		buckets[i].Day = i
		buckets[i].List = []entity.Release{}
	}

	add := func(raw *rawRelease, fallbackDay *int) {
		idx := resolveDayIndex(raw, fallbackDay)
		buckets[idx].List = append(buckets[idx].List, c.normalizeRelease(raw))
	}

	for _, item := range items {
		// Day buckets: {day, list: [...]}.
		var bucket struct {
			Day  *int              `json:"day"`
			List []json.RawMessage `json:"list"`
		}
		if err := json.Unmarshal(item, &bucket); err == nil && len(bucket.List) > 0 {
			for _, entryRaw := range bucket.List {
				if raw := unwrapReleaseEntry(entryRaw); raw != nil {
					add(raw, bucket.Day)
				}
			}
			continue
		}

		if raw := unwrapReleaseEntry(item); raw != nil {
			add(raw, nil)
		}
	}

	return buckets
}

// unwrapReleaseEntry accepts either a bare release or {release: {...}}.
func unwrapReleaseEntry(item json.RawMessage) *rawRelease {
	var wrapped struct {
		Release    *rawRelease     `json:"release"`
		PublishDay json.RawMessage `json:"publish_day"`
	}
	if err := json.Unmarshal(item, &wrapped); err == nil && wrapped.Release != nil {
		if len(wrapped.Release.PublishDay) == 0 {
			wrapped.Release.PublishDay = wrapped.PublishDay
		}
		return wrapped.Release
	}

	var raw rawRelease
	if err := json.Unmarshal(item, &raw); err == nil && (raw.ID != 0 || raw.Alias != "") {
		return &raw
	}

	return nil
}

func resolveDayIndex(raw *rawRelease, fallbackDay *int) int {
	if len(raw.PublishDay) > 0 {
		if n, err := jsonNumber(raw.PublishDay); err == nil {
			day := int(n)
			if day >= 1 && day <= 7 {
				return day - 1
			}
			if day >= 0 && day <= 6 {
				return day
			}
		}
		// {value: N} shape.
		var obj struct {
			Value *int `json:"value"`
		}
		if err := json.Unmarshal(raw.PublishDay, &obj); err == nil && obj.Value != nil {
			day := *obj.Value
			if day >= 1 && day <= 7 {
				return day - 1
			}
			if day >= 0 && day <= 6 {
				return day
			}
		}
	}

	if raw.Day != nil {
		return ((*raw.Day % 7) + 7) % 7
	}
	if fallbackDay != nil {
		return ((*fallbackDay % 7) + 7) % 7
	}

	return 0
}

func completeURL(candidate, playerHost string) string {
	if candidate == "" {
		return ""
	}
	if strings.HasPrefix(candidate, "http://") || strings.HasPrefix(candidate, "https://") {
		return candidate
	}
	if strings.HasPrefix(candidate, "//") {
		return "https:" + candidate
	}

	host := strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(playerHost, "https://"), "http://"), "/")
	if host == "" {
		return candidate
	}
	if strings.HasPrefix(candidate, "/") {
		return "https://" + host + candidate
	}
	return "https://" + host + "/" + candidate
}

func rawToString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func jsonNumber(raw json.RawMessage) (float64, error) {
	var n float64
	err := json.Unmarshal(raw, &n)
	return n, err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
