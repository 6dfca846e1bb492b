package hls

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMaster = `#EXTM3U
#EXT-X-STREAM-INF:BANDWIDTH=800000,RESOLUTION=640x480,CODECS="avc1.4d401f,mp4a.40.2"
480/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=2500000,RESOLUTION=1280x720
720/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=5000000,RESOLUTION=1920x1080
https://cdn.example.com/1080/index.m3u8
`

const sampleMedia = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXTINF:9.5,
seg0.ts
#EXTINF:10.0,
seg1.ts
#EXTINF:4.25,
seg2.ts
#EXT-X-ENDLIST
`

func TestParseMasterPlaylist(t *testing.T) {
	levels := ParseMasterPlaylist(sampleMaster, "https://host.example.com/streams/master.m3u8")

	require.Len(t, levels, 3)

	assert.Equal(t, int64(800000), levels[0].Bandwidth)
	assert.Equal(t, 640, levels[0].Width)
	assert.Equal(t, 480, levels[0].Height)
	assert.Equal(t, "https://host.example.com/streams/480/index.m3u8", levels[0].URI)

	assert.Equal(t, 720, levels[1].Height)
	assert.Equal(t, "https://host.example.com/streams/720/index.m3u8", levels[1].URI)

	// Absolute URIs pass through untouched.
	assert.Equal(t, "https://cdn.example.com/1080/index.m3u8", levels[2].URI)
}

func TestParseMasterPlaylistHandlesQuotedCommas(t *testing.T) {
	body := "#EXTM3U\n#EXT-X-STREAM-INF:CODECS=\"a,b\",BANDWIDTH=1000000\nvariant.m3u8\n"

	levels := ParseMasterPlaylist(body, "https://host.example.com/master.m3u8")

	require.Len(t, levels, 1)
	assert.Equal(t, int64(1000000), levels[0].Bandwidth)
}

func TestParseMediaPlaylistDuration(t *testing.T) {
	assert.Equal(t, 23.75, ParseMediaPlaylistDuration(sampleMedia))
	assert.Equal(t, 0.0, ParseMediaPlaylistDuration("#EXTM3U\n#EXT-X-TARGETDURATION:6\n"))
}

func TestLevelLabel(t *testing.T) {
	assert.Equal(t, "1080p", Level{Index: 0, Height: 1080, Bandwidth: 5000000}.Label())
	assert.Equal(t, "2500 kbps", Level{Index: 1, Bandwidth: 2500000}.Label())
	assert.Equal(t, "level 2", Level{Index: 2}.Label())
}

func TestEngineLoadMaster(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/master.m3u8" {
			w.Write([]byte("#EXTM3U\n#EXT-X-STREAM-INF:BANDWIDTH=1000000,RESOLUTION=1280x720\nvariant.m3u8\n"))
			return
		}
		w.Write([]byte(sampleMedia))
	}))
	defer server.Close()

	engine := NewEngine(nil)
	defer engine.Destroy()

	manifest, err := engine.Load(context.Background(), server.URL+"/master.m3u8")
	require.NoError(t, err)

	require.Len(t, manifest.Levels, 1)
	assert.Equal(t, 23.75, manifest.Duration)
	assert.Equal(t, AutoLevel, engine.CurrentLevel())
}

func TestEngineSetLevel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/master.m3u8" {
			w.Write([]byte(sampleMaster))
			return
		}
		w.Write([]byte(sampleMedia))
	}))
	defer server.Close()

	engine := NewEngine(nil)
	defer engine.Destroy()

	_, err := engine.Load(context.Background(), server.URL+"/master.m3u8")
	require.NoError(t, err)

	require.NoError(t, engine.SetLevel(1))
	assert.Equal(t, 1, engine.CurrentLevel())

	require.NoError(t, engine.SetLevel(AutoLevel))
	assert.Equal(t, AutoLevel, engine.CurrentLevel())

	assert.Error(t, engine.SetLevel(3))
	assert.Error(t, engine.SetLevel(-2))
}

func TestEngineDestroyIsIdempotent(t *testing.T) {
	engine := NewEngine(nil)

	engine.Destroy()
	engine.Destroy()

	_, err := engine.Load(context.Background(), "https://host.example.com/master.m3u8")
	assert.Error(t, err)
	assert.Error(t, engine.SetLevel(0))
}

func TestEngineLoadRejectsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	engine := NewEngine(nil)
	defer engine.Destroy()

	_, err := engine.Load(context.Background(), server.URL+"/master.m3u8")
	assert.Error(t, err)
}
