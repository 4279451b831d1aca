package handlers

import (
	"errors"
	"strings"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/models"
	notifyws "github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/websocket"
	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/pkg/utils"
)

// FeedWSHandler upgrades admin dashboards onto the notification hub.
type FeedWSHandler struct {
	hub       *notifyws.Hub
	jwtSecret string
}

func NewFeedWSHandler(hub *notifyws.Hub, jwtSecret string) *FeedWSHandler {
	return &FeedWSHandler{hub: hub, jwtSecret: jwtSecret}
}

func (h *FeedWSHandler) WebSocketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}

	claims, err := h.parseWSClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}
	if claims.Role != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	return c.Next()
}

func (h *FeedWSHandler) HandleWebSocket(conn *websocket.Conn) {
	client := notifyws.NewClient(h.hub, conn)

	h.hub.Register(client)
	go client.WritePump()
	client.ReadPump()
}

func (h *FeedWSHandler) parseWSClaims(c *fiber.Ctx) (*utils.Claims, error) {
	tokenString := strings.TrimSpace(c.Query("token"))
	if tokenString == "" {
		authHeader := strings.TrimSpace(c.Get("Authorization"))
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
	}
	if tokenString == "" {
		return nil, errors.New("missing token")
	}
	return utils.ValidateToken(tokenString, h.jwtSecret)
}
