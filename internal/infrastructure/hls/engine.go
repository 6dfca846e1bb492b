package hls

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// AutoLevel is the sentinel meaning "let the engine choose".
const AutoLevel = -1

// Level is one bitrate/resolution variant from a master playlist.
type Level struct {
	Index     int    `json:"index"`
	Bandwidth int64  `json:"bandwidth"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	URI       string `json:"uri"`
}

// Label favors vertical resolution, falling back to bitrate when the
// manifest does not carry one.
func (l Level) Label() string {
	if l.Height > 0 {
		return fmt.Sprintf("%dp", l.Height)
	}
	if l.Bandwidth > 0 {
		return fmt.Sprintf("%d kbps", l.Bandwidth/1000)
	}
	return fmt.Sprintf("level %d", l.Index)
}

// Manifest is the parsed description of a source: its variant levels (empty
// for a plain media playlist) and total duration in seconds (0 = unknown).
type Manifest struct {
	Levels   []Level
	Duration float64
}

// Engine fetches and parses adaptive-streaming manifests for exactly one
// source. It holds network resources, so it must be destroyed when the
// source changes or the owning session closes.
type Engine struct {
	httpClient *http.Client

	mu        sync.Mutex
	source    string
	levels    []Level
	current   int
	destroyed bool
}

func NewEngine(httpClient *http.Client) *Engine {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Engine{
		httpClient: httpClient,
		current:    AutoLevel,
	}
}

// Load fetches the playlist at source. A master playlist yields the variant
// levels plus the duration of its first variant; a media playlist yields no
// levels and its own duration.
func (e *Engine) Load(ctx context.Context, source string) (*Manifest, error) {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return nil, fmt.Errorf("engine already destroyed")
	}
	e.source = source
	e.mu.Unlock()

	body, err := e.fetch(ctx, source)
	if err != nil {
		return nil, err
	}

	manifest := &Manifest{}
	if strings.Contains(body, "#EXT-X-STREAM-INF") {
		manifest.Levels = ParseMasterPlaylist(body, source)
		if len(manifest.Levels) > 0 {
			variant, err := e.fetch(ctx, manifest.Levels[0].URI)
			if err == nil {
				manifest.Duration = ParseMediaPlaylistDuration(variant)
			}
		}
	} else {
		manifest.Duration = ParseMediaPlaylistDuration(body)
	}

	if math.IsInf(manifest.Duration, 0) || math.IsNaN(manifest.Duration) || manifest.Duration < 0 {
		manifest.Duration = 0
	}

	e.mu.Lock()
	e.levels = manifest.Levels
	e.current = AutoLevel
	e.mu.Unlock()

	return manifest, nil
}

func (e *Engine) Levels() []Level {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Level, len(e.levels))
	copy(out, e.levels)
	return out
}

// SetLevel pins playback to the level at index, or AutoLevel to unpin.
func (e *Engine) SetLevel(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return fmt.Errorf("engine already destroyed")
	}
	if index != AutoLevel && (index < 0 || index >= len(e.levels)) {
		return fmt.Errorf("level index %d out of range", index)
	}
	e.current = index
	return nil
}

func (e *Engine) CurrentLevel() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Destroy releases the engine's network resources. Safe to call twice.
func (e *Engine) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return
	}
	e.destroyed = true
	e.levels = nil
	e.httpClient.CloseIdleConnections()
}

func (e *Engine) fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("manifest fetch returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// ParseMasterPlaylist extracts the variant levels of a master playlist.
// Variant URIs are resolved against the playlist's own URL.
func ParseMasterPlaylist(body, baseURL string) []Level {
	var levels []Level
	var pending *Level

	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "#EXT-X-STREAM-INF:") {
			level := Level{Index: len(levels)}
			for _, attr := range splitAttributes(strings.TrimPrefix(line, "#EXT-X-STREAM-INF:")) {
				key, value, ok := strings.Cut(attr, "=")
				if !ok {
					continue
				}
				switch strings.ToUpper(strings.TrimSpace(key)) {
				case "BANDWIDTH":
					level.Bandwidth, _ = strconv.ParseInt(strings.TrimSpace(value), 10, 64)
				case "RESOLUTION":
					if w, h, ok := strings.Cut(strings.TrimSpace(value), "x"); ok {
						level.Width, _ = strconv.Atoi(w)
						level.Height, _ = strconv.Atoi(h)
					}
				}
			}
			pending = &level
			continue
		}
		if pending != nil && line != "" && !strings.HasPrefix(line, "#") {
			pending.URI = resolveURL(baseURL, line)
			levels = append(levels, *pending)
			pending = nil
		}
	}

	return levels
}

// ParseMediaPlaylistDuration sums the EXTINF segment durations of a media
// playlist. Returns 0 when the playlist carries none (live streams).
func ParseMediaPlaylistDuration(body string) float64 {
	var total float64

	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "#EXTINF:") {
			continue
		}
		value := strings.TrimPrefix(line, "#EXTINF:")
		if idx := strings.Index(value, ","); idx >= 0 {
			value = value[:idx]
		}
		if d, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			total += d
		}
	}

	return total
}

// splitAttributes splits a playlist attribute list on commas outside quotes.
func splitAttributes(s string) []string {
	var parts []string
	var current strings.Builder
	inQuotes := false

	for _, r := range s {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			current.WriteRune(r)
		case r == ',' && !inQuotes:
			parts = append(parts, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}

func resolveURL(baseURL, ref string) string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return ref
	}
	resolved, err := base.Parse(ref)
	if err != nil {
		return ref
	}
	return resolved.String()
}
