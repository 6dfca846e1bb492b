package handler

import (
	"context"
	"encoding/json"
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"anilifetv/internal/domain/repository"
	"anilifetv/internal/infrastructure/firebase"
	ws "anilifetv/internal/infrastructure/websocket"
	"anilifetv/internal/usecase"
	"anilifetv/pkg/errors"
	"anilifetv/pkg/logger"
	"anilifetv/pkg/response"
)

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // TODO: restrict to the site origin before launch
	},
}

type WebSocketHandler struct {
	wsManager    *ws.Manager
	authClient   *firebase.AuthClient
	chatUseCase  *usecase.ChatUseCase
	chatRepo     repository.ChatRepository
	presenceRepo repository.PresenceRepository
}

func NewWebSocketHandler(
	wsManager *ws.Manager,
	authClient *firebase.AuthClient,
	chatUseCase *usecase.ChatUseCase,
	chatRepo repository.ChatRepository,
	presenceRepo repository.PresenceRepository,
) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager:    wsManager,
		authClient:   authClient,
		chatUseCase:  chatUseCase,
		chatRepo:     chatRepo,
		presenceRepo: presenceRepo,
	}
}

// HandleChat upgrades the connection and binds it to a live chat session.
// Browsers cannot set headers on WebSocket dials, so the ID token arrives
// as a query parameter.
func (h *WebSocketHandler) HandleChat(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return response.Error(c, errors.Unauthorized("A token is required", nil))
	}

	userID, err := h.authClient.VerifyToken(c.Request().Context(), token)
	if err != nil {
		return response.Error(c, errors.Unauthorized("Invalid or expired token", err))
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote its own HTTP error to the response.
		logger.Warn("WebSocket upgrade for %s failed: %v", userID, err)
		return nil
	}

	client := ws.NewClient(userID, conn)
	h.wsManager.Register <- client
	go client.WritePump()

	session := usecase.NewChatSession(userID, h.chatUseCase, h.chatRepo, h.presenceRepo)

	// The request context ends when this handler returns; the session must
	// live as long as the socket, so it gets its own context cancelled by
	// the read pump.
	ctx, cancel := context.WithCancel(context.Background())
	go session.Run(ctx)

	// Event pump: session events onto the wire.
	go func() {
		for event := range session.Events() {
			payload, err := json.Marshal(event)
			if err != nil {
				logger.Error("Failed to encode %s event: %v", event.Type, err)
				continue
			}
			if !client.TrySend(payload) {
				logger.Warn("Dropping %s event for slow client %s", event.Type, userID)
			}
		}
	}()

	// Read pump: client commands into the session. Cancels the session and
	// unregisters the client when the connection dies.
	go func() {
		defer cancel()
		defer func() { h.wsManager.Unregister <- client }()

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				if gorillaws.IsUnexpectedCloseError(err, gorillaws.CloseGoingAway, gorillaws.CloseNormalClosure) {
					logger.Warn("WebSocket read for %s: %v", userID, err)
				}
				return
			}

			var cmd usecase.SessionCommand
			if err := json.Unmarshal(raw, &cmd); err != nil {
				logger.Debug("Ignoring malformed command from %s: %v", userID, err)
				continue
			}
			session.Submit(cmd)
		}
	}()

	return nil
}
