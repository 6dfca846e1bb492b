package usecase

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"anilifetv/internal/infrastructure/hls"
	"anilifetv/pkg/errors"
	"anilifetv/pkg/logger"
)

// Player states.
const (
	PlayerIdle    = "idle"
	PlayerLoading = "loading"
	PlayerReady   = "ready"
	PlayerPlaying = "playing"
	PlayerPaused  = "paused"
	PlayerEnded   = "ended"
	PlayerError   = "error"
)

const (
	seekStepSeconds   = 10.0
	volumeStep        = 0.05
	unmuteFloor       = 0.5
	controlsHideDelay = 3 * time.Second
)

// PlaybackUseCase keeps one player session per watching client. Sessions own
// a streaming engine each; closing the session is the only way its engine is
// released.
type PlaybackUseCase struct {
	mu       sync.Mutex
	sessions map[string]*PlayerSession

	newEngine func() *hls.Engine
}

func NewPlaybackUseCase(httpClient *http.Client) *PlaybackUseCase {
	return &PlaybackUseCase{
		sessions: make(map[string]*PlayerSession),
		newEngine: func() *hls.Engine {
			return hls.NewEngine(httpClient)
		},
	}
}

// CreateSession registers a fresh idle session and returns its id.
func (uc *PlaybackUseCase) CreateSession() *PlayerState {
	session := &PlayerSession{
		id:     uuid.New().String(),
		state:  PlayerIdle,
		volume: 1.0,
		rate:   1.0,
		now:    time.Now,
	}

	uc.mu.Lock()
	uc.sessions[session.id] = session
	uc.mu.Unlock()

	return session.snapshot()
}

func (uc *PlaybackUseCase) Session(id string) (*PlayerSession, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	session, ok := uc.sessions[id]
	if !ok {
		return nil, errors.NotFound("Player session", nil)
	}
	return session, nil
}

// CloseSession pauses and destroys the session's engine and forgets it.
func (uc *PlaybackUseCase) CloseSession(id string) error {
	uc.mu.Lock()
	session, ok := uc.sessions[id]
	delete(uc.sessions, id)
	uc.mu.Unlock()

	if !ok {
		return errors.NotFound("Player session", nil)
	}

	session.close()
	return nil
}

// PlayerSession is a server-held player state machine. All transitions go
// through its methods; the snapshot is what clients render from.
type PlayerSession struct {
	mu sync.Mutex

	id     string
	state  string
	source string
	engine *hls.Engine

	duration float64
	position float64
	buffered float64

	volume     float64
	muted      bool
	rate       float64
	quality    int
	fullscreen bool
	pip        bool

	controlsHideAt time.Time
	failure        string

	now func() time.Time
}

// PlayerState is the renderable snapshot of a session.
type PlayerState struct {
	ID             string      `json:"id"`
	State          string      `json:"state"`
	Source         string      `json:"source,omitempty"`
	Duration       float64     `json:"duration"`
	Position       float64     `json:"position"`
	PlayedRatio    float64     `json:"played_ratio"`
	BufferedRatio  float64     `json:"buffered_ratio"`
	Volume         float64     `json:"volume"`
	Muted          bool        `json:"muted"`
	Rate           float64     `json:"rate"`
	Quality        int         `json:"quality"`
	Levels         []hls.Level `json:"levels,omitempty"`
	Fullscreen     bool        `json:"fullscreen"`
	PictureInPic   bool        `json:"picture_in_picture"`
	ControlsShown  bool        `json:"controls_shown"`
	FailureMessage string      `json:"failure_message,omitempty"`
}

// Load points the session at a new source. The previous engine is destroyed
// first so at most one engine exists per session.
func (s *PlayerSession) Load(ctx context.Context, uc *PlaybackUseCase, source string) *PlayerState {
	s.mu.Lock()
	if s.engine != nil {
		s.engine.Destroy()
		s.engine = nil
	}
	s.state = PlayerLoading
	s.source = source
	s.position = 0
	s.buffered = 0
	s.duration = 0
	s.quality = hls.AutoLevel
	s.failure = ""
	engine := uc.newEngine()
	s.engine = engine
	s.mu.Unlock()

	manifest, err := engine.Load(ctx, source)

	s.mu.Lock()
	defer s.mu.Unlock()

	// A concurrent Load superseded this one.
	if s.engine != engine {
		engine.Destroy()
		return s.snapshotLocked()
	}

	if err != nil {
		logger.Error("Player %s failed to load %s: %v", s.id, source, err)
		s.state = PlayerError
		s.failure = "The video is unavailable, try again later"
		return s.snapshotLocked()
	}

	s.duration = manifest.Duration
	s.state = PlayerReady
	s.showControlsLocked()
	return s.snapshotLocked()
}

func (s *PlayerSession) Play() *PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case PlayerReady, PlayerPaused, PlayerEnded:
		if s.state == PlayerEnded {
			s.position = 0
		}
		s.state = PlayerPlaying
	}
	return s.snapshotLocked()
}

func (s *PlayerSession) Pause() *PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == PlayerPlaying {
		s.state = PlayerPaused
	}
	s.showControlsLocked()
	return s.snapshotLocked()
}

func (s *PlayerSession) TogglePlay() *PlayerState {
	s.mu.Lock()
	playing := s.state == PlayerPlaying
	s.mu.Unlock()

	if playing {
		return s.Pause()
	}
	return s.Play()
}

// Tick reports playback progress from the client. Reaching the known
// duration transitions to ended.
func (s *PlayerSession) Tick(position, buffered float64) *PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != PlayerPlaying {
		return s.snapshotLocked()
	}

	s.position = clamp(position, 0, maxPosition(s.duration, position))
	s.buffered = clamp(buffered, s.position, maxPosition(s.duration, buffered))

	if s.duration > 0 && s.position >= s.duration {
		s.position = s.duration
		s.state = PlayerEnded
		s.showControlsLocked()
	}
	return s.snapshotLocked()
}

// SeekFraction jumps to fraction (0..1) of the known duration. With an
// unknown duration the bar cannot be mapped to a time, so this is a no-op.
func (s *PlayerSession) SeekFraction(fraction float64) *PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.duration <= 0 {
		return s.snapshotLocked()
	}

	s.seekToLocked(clamp(fraction, 0, 1) * s.duration)
	return s.snapshotLocked()
}

func (s *PlayerSession) SkipBy(seconds float64) *PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seekToLocked(s.position + seconds)
	return s.snapshotLocked()
}

func (s *PlayerSession) seekToLocked(target float64) {
	switch s.state {
	case PlayerPlaying, PlayerPaused, PlayerReady, PlayerEnded:
	default:
		return
	}

	s.position = clamp(target, 0, maxPosition(s.duration, target))
	if s.state == PlayerEnded && (s.duration <= 0 || s.position < s.duration) {
		s.state = PlayerPaused
	}
	s.showControlsLocked()
}

// HoverTime formats the timestamp under the cursor on the progress bar.
func (s *PlayerSession) HoverTime(fraction float64) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.duration <= 0 {
		return FormatTimestamp(0)
	}
	return FormatTimestamp(clamp(fraction, 0, 1) * s.duration)
}

func (s *PlayerSession) SetVolume(volume float64) *PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.volume = clamp(volume, 0, 1)
	if s.volume > 0 {
		s.muted = false
	}
	return s.snapshotLocked()
}

func (s *PlayerSession) AdjustVolume(delta float64) *PlayerState {
	s.mu.Lock()
	volume := s.volume + delta
	s.mu.Unlock()
	return s.SetVolume(volume)
}

// SetRate changes playback speed, clamped to the 0.25x..3x range browsers
// honour.
func (s *PlayerSession) SetRate(rate float64) *PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rate = clamp(rate, 0.25, 3)
	return s.snapshotLocked()
}

// Fail records a playback error reported mid-stream.
func (s *PlayerSession) Fail(message string) *PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = PlayerError
	if message == "" {
		message = "The video is unavailable, try again later"
	}
	s.failure = message
	s.showControlsLocked()
	return s.snapshotLocked()
}

// ToggleMute flips mute. Unmuting at volume zero restores a usable level
// instead of leaving the player silent.
func (s *PlayerSession) ToggleMute() *PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.muted = !s.muted
	if !s.muted && s.volume == 0 {
		s.volume = unmuteFloor
	}
	return s.snapshotLocked()
}

// SetQuality pins the engine to a variant, or hls.AutoLevel to unpin.
func (s *PlayerSession) SetQuality(index int) (*PlayerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine == nil {
		return nil, errors.BadRequest("No video loaded", nil)
	}
	if err := s.engine.SetLevel(index); err != nil {
		return nil, errors.BadRequest("Unknown quality level", err)
	}
	s.quality = index
	return s.snapshotLocked(), nil
}

func (s *PlayerSession) ToggleFullscreen() *PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fullscreen = !s.fullscreen
	return s.snapshotLocked()
}

func (s *PlayerSession) TogglePictureInPicture() *PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pip = !s.pip
	return s.snapshotLocked()
}

// PointerMoved shows the controls and restarts the auto-hide countdown.
func (s *PlayerSession) PointerMoved() *PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showControlsLocked()
	return s.snapshotLocked()
}

// HandleKey applies the keyboard contract. Keystrokes made while typing in
// a text field never reach the player.
func (s *PlayerSession) HandleKey(key string, inTextInput bool) *PlayerState {
	if inTextInput {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.snapshotLocked()
	}

	switch key {
	case " ", "k", "K":
		return s.TogglePlay()
	case "ArrowRight":
		return s.SkipBy(seekStepSeconds)
	case "ArrowLeft":
		return s.SkipBy(-seekStepSeconds)
	case "ArrowUp":
		return s.AdjustVolume(volumeStep)
	case "ArrowDown":
		return s.AdjustVolume(-volumeStep)
	case "f", "F":
		return s.ToggleFullscreen()
	case "m", "M":
		return s.ToggleMute()
	case "p", "P":
		return s.TogglePictureInPicture()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *PlayerSession) Snapshot() *PlayerState {
	return s.snapshot()
}

func (s *PlayerSession) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == PlayerPlaying {
		s.state = PlayerPaused
	}
	if s.engine != nil {
		s.engine.Destroy()
		s.engine = nil
	}
	s.state = PlayerIdle
	s.source = ""
}

func (s *PlayerSession) snapshot() *PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *PlayerSession) snapshotLocked() *PlayerState {
	state := &PlayerState{
		ID:             s.id,
		State:          s.state,
		Source:         s.source,
		Duration:       s.duration,
		Position:       s.position,
		PlayedRatio:    ratio(s.position, s.duration),
		BufferedRatio:  ratio(s.buffered, s.duration),
		Volume:         s.volume,
		Muted:          s.muted,
		Rate:           s.rate,
		Quality:        s.quality,
		Fullscreen:     s.fullscreen,
		PictureInPic:   s.pip,
		ControlsShown:  s.controlsShownLocked(),
		FailureMessage: s.failure,
	}
	if s.engine != nil {
		state.Levels = s.engine.Levels()
	}
	return state
}

func (s *PlayerSession) showControlsLocked() {
	s.controlsHideAt = s.now().Add(controlsHideDelay)
}

// Controls stay pinned while not actively playing; during playback they
// auto-hide after the countdown.
func (s *PlayerSession) controlsShownLocked() bool {
	if s.state != PlayerPlaying {
		return true
	}
	return s.now().Before(s.controlsHideAt)
}

// ratio maps a position against the duration into [0,1]. An unknown
// duration is treated as 1, so any meaningful progress renders as full.
func ratio(position, duration float64) float64 {
	if position <= 0 {
		return 0
	}
	if duration <= 0 {
		duration = 1
	}
	return clamp(position/duration, 0, 1)
}

// FormatTimestamp renders seconds as m:ss, or h:mm:ss past an hour.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	sec := total % 60

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// maxPosition bounds a reported position. With an unknown duration the
// report itself is the only bound available.
func maxPosition(duration, reported float64) float64 {
	if duration > 0 {
		return duration
	}
	if reported > 0 {
		return reported
	}
	return 0
}
