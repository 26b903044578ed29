package handlers

import (
	"context"
	"errors"
	"strings"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/priyanshu85-coder/StudentFlatFinder/internal/services"
	contactws "github.com/priyanshu85-coder/StudentFlatFinder/internal/websocket"
	"github.com/priyanshu85-coder/StudentFlatFinder/pkg/utils"
)

type threadReplier interface {
	Reply(ctx context.Context, actorID int64, role string, contactID int64, message string) (*services.ThreadDelivery, error)
}

// ContactSocketHandler pushes thread replies to both parties over a shared
// websocket endpoint.
type ContactSocketHandler struct {
	service   threadReplier
	hub       *contactws.Hub
	jwtSecret string
}

func NewContactSocketHandler(service threadReplier, hub *contactws.Hub, jwtSecret string) *ContactSocketHandler {
	return &ContactSocketHandler{service: service, hub: hub, jwtSecret: jwtSecret}
}

func (h *ContactSocketHandler) WebSocketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}

	claims, err := h.parseWSClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	c.Locals("user_id", claims.UserID)
	c.Locals("role", claims.Role)
	return c.Next()
}

func (h *ContactSocketHandler) HandleWebSocket(conn *websocket.Conn) {
	userID, _ := conn.Locals("user_id").(string)
	role, _ := conn.Locals("role").(string)
	client := contactws.NewClient(h.hub, conn, userID)

	h.hub.Register(client)
	go client.WritePump()
	client.ReadPump(h.service, role)
}

// Browsers cannot set headers on websocket dials, so the token may arrive as
// a query parameter instead.
func (h *ContactSocketHandler) parseWSClaims(c *fiber.Ctx) (*utils.Claims, error) {
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
