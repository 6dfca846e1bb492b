package handler

import (
	"github.com/labstack/echo/v4"

	"anilifetv/internal/usecase"
	"anilifetv/pkg/errors"
	"anilifetv/pkg/response"
)

type PlayerHandler struct {
	playbackUseCase *usecase.PlaybackUseCase
}

func NewPlayerHandler(playbackUseCase *usecase.PlaybackUseCase) *PlayerHandler {
	return &PlayerHandler{
		playbackUseCase: playbackUseCase,
	}
}

type playerCommandRequest struct {
	Action      string  `json:"action" validate:"required,oneof=load play pause toggle tick seek skip set_volume adjust_volume toggle_mute set_rate set_quality toggle_fullscreen toggle_pip pointer_move key fail"`
	Source      string  `json:"source,omitempty"`
	Fraction    float64 `json:"fraction,omitempty"`
	Seconds     float64 `json:"seconds,omitempty"`
	Position    float64 `json:"position,omitempty"`
	Buffered    float64 `json:"buffered,omitempty"`
	Volume      float64 `json:"volume,omitempty"`
	Delta       float64 `json:"delta,omitempty"`
	Rate        float64 `json:"rate,omitempty"`
	Message     string  `json:"message,omitempty"`
	Level       int     `json:"level,omitempty"`
	Key         string  `json:"key,omitempty"`
	InTextInput bool    `json:"in_text_input,omitempty"`
}

func (h *PlayerHandler) CreateSession(c echo.Context) error {
	return response.Created(c, h.playbackUseCase.CreateSession())
}

func (h *PlayerHandler) GetSession(c echo.Context) error {
	session, err := h.playbackUseCase.Session(c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, session.Snapshot())
}

func (h *PlayerHandler) CloseSession(c echo.Context) error {
	if err := h.playbackUseCase.CloseSession(c.Param("id")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "closed"})
}

// Command applies one player action and returns the resulting state.
func (h *PlayerHandler) Command(c echo.Context) error {
	var req playerCommandRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	session, err := h.playbackUseCase.Session(c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	var state *usecase.PlayerState

	switch req.Action {
	case "load":
		if req.Source == "" {
			return response.Error(c, errors.BadRequest("A source URL is required", nil))
		}
		state = session.Load(c.Request().Context(), h.playbackUseCase, req.Source)
	case "play":
		state = session.Play()
	case "pause":
		state = session.Pause()
	case "toggle":
		state = session.TogglePlay()
	case "tick":
		state = session.Tick(req.Position, req.Buffered)
	case "seek":
		state = session.SeekFraction(req.Fraction)
	case "skip":
		state = session.SkipBy(req.Seconds)
	case "set_volume":
		state = session.SetVolume(req.Volume)
	case "adjust_volume":
		state = session.AdjustVolume(req.Delta)
	case "toggle_mute":
		state = session.ToggleMute()
	case "set_rate":
		state = session.SetRate(req.Rate)
	case "fail":
		state = session.Fail(req.Message)
	case "set_quality":
		state, err = session.SetQuality(req.Level)
		if err != nil {
			return response.Error(c, err)
		}
	case "toggle_fullscreen":
		state = session.ToggleFullscreen()
	case "toggle_pip":
		state = session.TogglePictureInPicture()
	case "pointer_move":
		state = session.PointerMoved()
	case "key":
		state = session.HandleKey(req.Key, req.InTextInput)
	}

	return response.Success(c, state)
}

// HoverTime returns the tooltip timestamp for a progress-bar position.
func (h *PlayerHandler) HoverTime(c echo.Context) error {
	session, err := h.playbackUseCase.Session(c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	var req struct {
		Fraction float64 `json:"fraction"`
	}
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"label": session.HoverTime(req.Fraction)})
}
