package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/padosi-app/backend/internal/models"
	"github.com/padosi-app/backend/internal/repositories"
)

// ConversationHandler handles the offer flow and chat threads
type ConversationHandler struct {
	conversationRepository repositories.ConversationRepository
	requestRepository      repositories.RequestRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
}

// NewConversationHandler creates a new ConversationHandler
func NewConversationHandler(
	convRepo repositories.ConversationRepository,
	requestRepo repositories.RequestRepository,
	userRepo repositories.UserRepository,
	notifRepo repositories.NotificationRepository,
) *ConversationHandler {
	return &ConversationHandler{
		conversationRepository: convRepo,
		requestRepository:      requestRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
	}
}

// RegisterConversationRoutes registers offer and chat routes
func (h *ConversationHandler) RegisterConversationRoutes(g *echo.Group) {
	g.POST("/requests/:id/offer", h.OfferHelp)
	g.GET("/conversations", h.GetConversations)
	g.GET("/conversations/:id", h.GetConversation)
	g.POST("/conversations/:id/messages", h.SendMessage)
}

// OfferHelp commits the viewer to helping with a request. The first offer
// claims the request, creates the single conversation thread for it and
// discloses the requester's contact details into the thread snapshot
// (location only when the request opted in). Re-offering by the same helper
// returns the existing thread.
func (h *ConversationHandler) OfferHelp(c echo.Context) error {
	claims := getClaimsFromContext(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	requestID := c.Param("id")
	ctx := c.Request().Context()

	request, err := h.requestRepository.GetByID(requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Request not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if request.RequesterID == claims.UserID {
		return echo.NewHTTPError(http.StatusForbidden, "You cannot offer help on your own request")
	}

	// Idempotent path: the viewer already offered and has the thread.
	existing, err := h.conversationRepository.GetByRequestID(ctx, requestID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if existing != nil {
		if existing.HelperID == claims.UserID {
			return c.JSON(http.StatusOK, h.renderConversation(existing, claims.UserID))
		}
		return echo.NewHTTPError(http.StatusConflict, "Request already has a helper")
	}

	request, err = h.requestRepository.AcceptOffer(requestID, claims.UserID, claims.Name)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrAlreadyResolved):
			return echo.NewHTTPError(http.StatusConflict, "Request is already resolved")
		case errors.Is(err, repositories.ErrAlreadyOffered):
			return echo.NewHTTPError(http.StatusConflict, "Request already has a helper")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	conv := h.buildConversation(request, claims)
	if err := h.conversationRepository.Create(ctx, conv); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	n := &models.Notification{
		RecipientID: request.RequesterID,
		Type:        models.NotificationOfferReceived,
		Title:       "Someone offered to help",
		Message:     fmt.Sprintf("%s offered to help with \"%s\"", claims.Name, request.Title),
		RelatedID:   conv.ID,
	}
	if err := h.notificationRepository.CreateNotification(n); err != nil {
		log.Printf("Failed to create OFFER_RECEIVED notification: %v", err)
	}

	return c.JSON(http.StatusCreated, h.renderConversation(conv, claims.UserID))
}

// buildConversation snapshots the disclosure-gated requester details and
// seeds the thread with the helper's opening message.
func (h *ConversationHandler) buildConversation(request *models.HelpRequest, helper *models.JwtCustomClaims) *models.Conversation {
	now := time.Now()
	requester := models.User{Name: request.RequesterName}
	helperUser := models.User{Name: helper.Name}

	conv := &models.Conversation{
		ID:                models.ConversationIDForRequest(request.ID),
		RequestID:         request.ID,
		RequestTitle:      request.Title,
		RequesterID:       request.RequesterID,
		RequesterName:     request.RequesterName,
		RequesterInitials: requester.AvatarInitials(),
		RequesterPhone:    request.ContactPhone,
		HelperID:          helper.UserID,
		HelperName:        helper.Name,
		HelperInitials:    helperUser.AvatarInitials(),
		LastMessageAt:     now,
		Unread:            map[string]int{},
	}
	if request.LocationVisible {
		lat, lng := request.Lat, request.Lng
		conv.RequesterLat = &lat
		conv.RequesterLng = &lng
	}

	conv.Messages = []models.Message{{
		ID:         uuid.NewString(),
		SenderID:   helper.UserID,
		SenderName: helper.Name,
		Text:       fmt.Sprintf("Hi %s, I can help you with this!", request.RequesterName),
		Timestamp:  now,
	}}
	conv.Unread[strconv.FormatUint(uint64(request.RequesterID), 10)] = 1
	return conv
}

// GetConversations lists the viewer's threads, most recently active first
func (h *ConversationHandler) GetConversations(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	convs, err := h.conversationRepository.GetByParticipant(c.Request().Context(), currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	rendered := make([]*models.Conversation, len(convs))
	for i := range convs {
		rendered[i] = h.renderConversation(&convs[i], currentUserID)
	}
	return c.JSON(http.StatusOK, rendered)
}

// GetConversation returns a single thread and clears the viewer's unread
// counter for it.
func (h *ConversationHandler) GetConversation(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	ctx := c.Request().Context()

	conv, err := h.conversationRepository.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Conversation not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !conv.IsParticipant(currentUserID) {
		return echo.NewHTTPError(http.StatusForbidden, "Not a participant of this conversation")
	}

	if err := h.conversationRepository.MarkRead(ctx, conv.ID, currentUserID); err != nil {
		log.Printf("Failed to mark conversation read: %v", err)
	}
	if conv.Unread != nil {
		conv.Unread[strconv.FormatUint(uint64(currentUserID), 10)] = 0
	}

	return c.JSON(http.StatusOK, h.renderConversation(conv, currentUserID))
}

// SendMessage appends a message to a thread
func (h *ConversationHandler) SendMessage(c echo.Context) error {
	claims := getClaimsFromContext(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	ctx := c.Request().Context()

	var req models.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Message text cannot be empty")
	}

	conv, err := h.conversationRepository.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Conversation not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !conv.IsParticipant(claims.UserID) {
		return echo.NewHTTPError(http.StatusForbidden, "Not a participant of this conversation")
	}

	msg := models.Message{
		ID:         uuid.NewString(),
		SenderID:   claims.UserID,
		SenderName: claims.Name,
		Text:       text,
		Timestamp:  time.Now(),
	}

	recipientID := conv.OtherParticipant(claims.UserID)
	if err := h.conversationRepository.AppendMessage(ctx, conv.ID, msg, recipientID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	n := &models.Notification{
		RecipientID: recipientID,
		Type:        models.NotificationMessageReceived,
		Title:       "New message",
		Message:     fmt.Sprintf("%s: %s", claims.Name, truncate(text, 80)),
		RelatedID:   conv.ID,
	}
	if err := h.notificationRepository.CreateNotification(n); err != nil {
		log.Printf("Failed to create MESSAGE_RECEIVED notification: %v", err)
	}

	msg.IsSelf = true
	return c.JSON(http.StatusCreated, msg)
}

// renderConversation fills the viewer-relative message flags.
func (h *ConversationHandler) renderConversation(conv *models.Conversation, viewerID uint) *models.Conversation {
	for i := range conv.Messages {
		conv.Messages[i].IsSelf = conv.Messages[i].SenderID == viewerID
	}
	return conv
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
