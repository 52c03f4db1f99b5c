package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/campuslink/backend/internal/feed"
	"github.com/campuslink/backend/internal/logger"
	"github.com/campuslink/backend/internal/points"
	"github.com/campuslink/backend/internal/store"
	"go.uber.org/zap"
)

// Handler handles WebSocket upgrade requests and runs the live feed
// commands of each connection through its session controller.
type Handler struct {
	hub       *Hub
	store     *store.Store
	enricher  *feed.Enricher
	points    *points.Service
	jwtSecret []byte
}

// NewHandler creates a WebSocket handler and registers the feed command
// handlers on the hub.
func NewHandler(hub *Hub, st *store.Store, pts *points.Service, jwtSecret []byte) *Handler {
	h := &Handler{
		hub:       hub,
		store:     st,
		enricher:  feed.NewEnricher(st),
		points:    pts,
		jwtSecret: jwtSecret,
	}

	hub.RegisterHandler(MessageTypeFeedLoad, h.handleFeedLoad)
	hub.RegisterHandler(MessageTypeFeedMore, h.handleFeedMore)
	hub.RegisterHandler(MessageTypeFeedTab, h.handleFeedTab)
	hub.RegisterHandler(MessageTypeFeedFilters, h.handleFeedFilters)
	hub.RegisterHandler(MessageTypeToggleLike, h.handleToggleLike)
	hub.RegisterHandler(MessageTypeToggleRepost, h.handleToggleRepost)
	hub.RegisterHandler(MessageTypeToggleBookmark, h.handleToggleBookmark)
	hub.RegisterHandler(MessageTypeToggleReaction, h.handleToggleReaction)

	return h
}

// HandleWebSocket upgrades the HTTP connection and binds a feed session to
// it. Authentication is optional: a valid JWT (query param token or Bearer
// header) makes the session viewer-aware, no token means an anonymous
// global feed.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	viewerID, err := h.authenticateRequest(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "authentication_failed",
			"message": err.Error(),
		})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
		CompressionMode:    websocket.CompressionContextTakeover,
	})
	if err != nil {
		logger.Log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(h.hub, conn, viewerID)
	client.RemoteAddr = c.ClientIP()
	client.Session = feed.NewController(h.store, h.enricher, viewerID)

	h.hub.Register(client)

	_ = client.Send(NewMessage(MessageTypeSystem, map[string]interface{}{
		"event":       "connected",
		"user_id":     viewerID,
		"server_time": time.Now().UTC().UnixMilli(),
	}))

	go client.WritePump()
	client.ReadPump() // blocks until disconnect
}

// authenticateRequest extracts and validates the JWT token. A missing
// token is not an error; it yields an anonymous session.
func (h *Handler) authenticateRequest(c *gin.Context) (string, error) {
	tokenString := c.Query("token")
	if auth := c.GetHeader("Authorization"); auth != "" {
		tokenString = strings.TrimPrefix(auth, "Bearer ")
	}
	if tokenString == "" {
		return "", nil
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return h.jwtSecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token claims")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("token has no subject")
	}
	return sub, nil
}

// controller extracts the feed session bound to a connection.
func (h *Handler) controller(client *Client) (*feed.Controller, error) {
	ctrl, ok := client.Session.(*feed.Controller)
	if !ok || ctrl == nil {
		return nil, errors.New("connection has no feed session")
	}
	return ctrl, nil
}

// feedPagePayload is the reply to every feed command that changes the view.
type feedPagePayload struct {
	Items   []feed.EnrichedPost `json:"items"`
	Tab     feed.Tab            `json:"tab"`
	HasMore bool                `json:"has_more"`
}

func (h *Handler) sendFeedPage(client *Client, ctrl *feed.Controller, replyTo string) {
	msg := NewMessage(MessageTypeFeedPage, feedPagePayload{
		Items:   ctrl.Items(),
		Tab:     ctrl.Tab(),
		HasMore: ctrl.HasMore(),
	})
	msg.ReplyTo = replyTo
	_ = client.Send(msg)
}

func (h *Handler) handleFeedLoad(client *Client, message *Message) error {
	ctrl, err := h.controller(client)
	if err != nil {
		return err
	}
	var payload struct {
		Reset bool `json:"reset"`
	}
	_ = message.ParsePayload(&payload)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := ctrl.Load(ctx, payload.Reset); err != nil {
		return err
	}
	h.sendFeedPage(client, ctrl, message.ID)
	return nil
}

func (h *Handler) handleFeedMore(client *Client, message *Message) error {
	ctrl, err := h.controller(client)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := ctrl.Load(ctx, false); err != nil {
		return err
	}
	h.sendFeedPage(client, ctrl, message.ID)
	return nil
}

func (h *Handler) handleFeedTab(client *Client, message *Message) error {
	ctrl, err := h.controller(client)
	if err != nil {
		return err
	}
	var payload struct {
		Tab feed.Tab `json:"tab"`
	}
	if err := message.ParsePayload(&payload); err != nil {
		return err
	}
	if payload.Tab != feed.TabFollowing && payload.Tab != feed.TabForYou {
		client.SendError("invalid_tab", fmt.Sprintf("Unknown tab: %s", payload.Tab))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := ctrl.SetTab(ctx, payload.Tab); err != nil {
		return err
	}
	h.sendFeedPage(client, ctrl, message.ID)
	return nil
}

func (h *Handler) handleFeedFilters(client *Client, message *Message) error {
	ctrl, err := h.controller(client)
	if err != nil {
		return err
	}
	var payload feed.Filters
	if err := message.ParsePayload(&payload); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := ctrl.SetFilters(ctx, payload); err != nil {
		return err
	}
	h.sendFeedPage(client, ctrl, message.ID)
	return nil
}

type togglePayload struct {
	PostID string `json:"post_id"`
	Emoji  string `json:"emoji,omitempty"`
}

// handleToggleLike flips the like locally first, then persists in the
// background. The local flip is never rolled back on a failed write; the
// next load reconciles with the database.
func (h *Handler) handleToggleLike(client *Client, message *Message) error {
	ctrl, payload, err := h.toggleArgs(client, message)
	if err != nil {
		return err
	}
	if ctrl == nil {
		return nil
	}
	liked, ok := ctrl.ToggleLike(payload.PostID)
	if !ok {
		client.SendError("not_loaded", "Post is not in the loaded feed")
		return nil
	}
	h.persistToggle(client.UserID, payload.PostID, "like", func(ctx context.Context) (bool, error) {
		return h.store.ToggleLike(ctx, client.UserID, payload.PostID)
	})
	if liked {
		h.points.Award(client.UserID, points.DeltaLike, "like")
	}
	h.sendFeedPage(client, ctrl, message.ID)
	return nil
}

func (h *Handler) handleToggleRepost(client *Client, message *Message) error {
	ctrl, payload, err := h.toggleArgs(client, message)
	if err != nil {
		return err
	}
	if ctrl == nil {
		return nil
	}
	reposted, ok := ctrl.ToggleRepost(payload.PostID)
	if !ok {
		client.SendError("not_loaded", "Post is not in the loaded feed")
		return nil
	}
	h.persistToggle(client.UserID, payload.PostID, "repost", func(ctx context.Context) (bool, error) {
		return h.store.ToggleRepost(ctx, client.UserID, payload.PostID)
	})
	if reposted {
		h.points.Award(client.UserID, points.DeltaRepost, "repost")
	}
	h.sendFeedPage(client, ctrl, message.ID)
	return nil
}

func (h *Handler) handleToggleBookmark(client *Client, message *Message) error {
	ctrl, payload, err := h.toggleArgs(client, message)
	if err != nil {
		return err
	}
	if ctrl == nil {
		return nil
	}
	if _, ok := ctrl.ToggleBookmark(payload.PostID); !ok {
		client.SendError("not_loaded", "Post is not in the loaded feed")
		return nil
	}
	h.persistToggle(client.UserID, payload.PostID, "bookmark", func(ctx context.Context) (bool, error) {
		return h.store.ToggleBookmark(ctx, client.UserID, payload.PostID)
	})
	h.sendFeedPage(client, ctrl, message.ID)
	return nil
}

func (h *Handler) handleToggleReaction(client *Client, message *Message) error {
	ctrl, payload, err := h.toggleArgs(client, message)
	if err != nil {
		return err
	}
	if ctrl == nil {
		return nil
	}
	if payload.Emoji == "" {
		client.SendError("invalid_reaction", "Missing emoji")
		return nil
	}
	if _, ok := ctrl.ToggleReaction(payload.PostID, payload.Emoji); !ok {
		client.SendError("not_loaded", "Post is not in the loaded feed")
		return nil
	}
	h.persistToggle(client.UserID, payload.PostID, "reaction", func(ctx context.Context) (bool, error) {
		return h.store.ToggleReaction(ctx, client.UserID, payload.PostID, payload.Emoji)
	})
	h.sendFeedPage(client, ctrl, message.ID)
	return nil
}

func (h *Handler) toggleArgs(client *Client, message *Message) (*feed.Controller, *togglePayload, error) {
	if client.UserID == "" {
		client.SendError("unauthorized", "Sign in to interact with posts")
		return nil, nil, nil
	}
	ctrl, err := h.controller(client)
	if err != nil {
		return nil, nil, err
	}
	var payload togglePayload
	if err := message.ParsePayload(&payload); err != nil {
		return nil, nil, err
	}
	if payload.PostID == "" {
		return nil, nil, errors.New("missing post_id")
	}
	return ctrl, &payload, nil
}

// persistToggle writes an engagement toggle in the background.
func (h *Handler) persistToggle(userID, postID, kind string, write func(context.Context) (bool, error)) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := write(ctx); err != nil {
			logger.Log.Warn("engagement write failed",
				zap.String("kind", kind),
				zap.String("user_id", userID),
				zap.String("post_id", postID),
				zap.Error(err))
		}
	}()
}
