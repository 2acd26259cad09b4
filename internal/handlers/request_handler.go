package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/padosi-app/backend/internal/feed"
	"github.com/padosi-app/backend/internal/models"
	"github.com/padosi-app/backend/internal/repositories"
)

// RequestHandler handles HTTP requests related to help requests
type RequestHandler struct {
	requestRepository      repositories.RequestRepository
	userRepository         repositories.UserRepository
	walletRepository       repositories.WalletRepository
	notificationRepository repositories.NotificationRepository
}

// NewRequestHandler creates a new RequestHandler
func NewRequestHandler(
	requestRepo repositories.RequestRepository,
	userRepo repositories.UserRepository,
	walletRepo repositories.WalletRepository,
	notifRepo repositories.NotificationRepository,
) *RequestHandler {
	return &RequestHandler{
		requestRepository:      requestRepo,
		userRepository:         userRepo,
		walletRepository:       walletRepo,
		notificationRepository: notifRepo,
	}
}

// RegisterRequestRoutes registers help-request routes
func (h *RequestHandler) RegisterRequestRoutes(g *echo.Group) {
	g.POST("/requests", h.CreateRequest)
	g.GET("/requests/mine", h.GetMyRequests)
	g.GET("/requests/:id", h.GetRequest)
	g.PUT("/requests/:id", h.UpdateRequest)
	g.DELETE("/requests/:id", h.DeleteRequest)
	g.POST("/requests/:id/resolve", h.ResolveRequest)
	g.POST("/requests/:id/gift", h.GiftTokens)
}

// CreateRequest posts a new help request
func (h *RequestHandler) CreateRequest(c echo.Context) error {
	claims := getClaimsFromContext(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreateRequestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	request := &models.HelpRequest{
		ID:              uuid.NewString(),
		RequesterID:     claims.UserID,
		RequesterName:   claims.Name,
		ContactPhone:    req.ContactPhone,
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		Priority:        req.Priority,
		Status:          models.StatusOpen,
		Lat:             req.Lat,
		Lng:             req.Lng,
		LocationVisible: req.LocationVisible,
	}

	if err := h.requestRepository.Create(request); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	go h.userRepository.IncrementRequestedCount(claims.UserID)
	go h.notifyNearbyUsers(request)

	return c.JSON(http.StatusCreated, request)
}

// notifyNearbyUsers fans out a NEW_REQUEST notification to every user with a
// known location inside the visibility radius, except the requester.
func (h *RequestHandler) notifyNearbyUsers(request *models.HelpRequest) {
	users, err := h.userRepository.GetUsersWithLocation()
	if err != nil {
		log.Printf("Failed to load users for request fanout: %v", err)
		return
	}

	origin := models.Coordinate{Lat: request.Lat, Lng: request.Lng}
	for _, user := range users {
		if user.ID == request.RequesterID {
			continue
		}
		if feed.Haversine(origin, models.Coordinate{Lat: *user.Lat, Lng: *user.Lng}) > feed.RadiusKM {
			continue
		}
		n := &models.Notification{
			RecipientID: user.ID,
			Type:        models.NotificationNewRequest,
			Title:       "New request nearby",
			Message:     fmt.Sprintf("%s needs help: %s", request.RequesterName, request.Title),
			RelatedID:   request.ID,
		}
		if err := h.notificationRepository.CreateNotification(n); err != nil {
			log.Printf("Failed to create NEW_REQUEST notification: %v", err)
		}
	}
}

// GetRequest retrieves a single help request
func (h *RequestHandler) GetRequest(c echo.Context) error {
	request, err := h.requestRepository.GetByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Request not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, request)
}

// GetMyRequests retrieves the authenticated user's own requests, newest first
func (h *RequestHandler) GetMyRequests(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	requests, err := h.requestRepository.GetByRequesterID(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, requests)
}

// UpdateRequest edits content fields of an open request. Requester only.
func (h *RequestHandler) UpdateRequest(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.UpdateRequestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	request, err := h.requestRepository.GetByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Request not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if request.RequesterID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "Only the requester can edit this request")
	}
	if request.Status != models.StatusOpen {
		return echo.NewHTTPError(http.StatusConflict, "Resolved requests cannot be edited")
	}

	if req.Title != "" {
		request.Title = req.Title
	}
	if req.Description != "" {
		request.Description = req.Description
	}
	if req.Category != "" {
		request.Category = req.Category
	}
	if req.Priority != "" {
		request.Priority = req.Priority
	}
	if req.ContactPhone != "" {
		request.ContactPhone = req.ContactPhone
	}
	if req.LocationVisible != nil {
		request.LocationVisible = *req.LocationVisible
	}

	if err := h.requestRepository.Update(request); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, request)
}

// DeleteRequest removes a request. Requester only; the conversation, if one
// exists, is kept as chat history.
func (h *RequestHandler) DeleteRequest(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	request, err := h.requestRepository.GetByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Request not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if request.RequesterID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "Only the requester can delete this request")
	}

	if err := h.requestRepository.Delete(request.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// ResolveRequest transitions a request to RESOLVED. Requester only,
// idempotent when already resolved.
func (h *RequestHandler) ResolveRequest(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	request, err := h.requestRepository.GetByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Request not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if request.RequesterID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "Only the requester can resolve this request")
	}

	request, transitioned, err := h.requestRepository.Resolve(request.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Count the help exactly once, on the actual transition.
	if transitioned && request.HelperID != nil {
		go h.userRepository.IncrementHelpedCount(*request.HelperID)
	}

	return c.JSON(http.StatusOK, request)
}

// GiftTokens rewards the helper of a resolved request. Requester only, once
// per request, amount from the fixed menu.
func (h *RequestHandler) GiftTokens(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.GiftTokensRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	request, err := h.requestRepository.GetByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Request not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if request.RequesterID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "Only the requester can gift tokens")
	}
	if request.HelperID == nil {
		return echo.NewHTTPError(http.StatusConflict, "Request has no helper to reward")
	}

	if err := h.requestRepository.MarkGifted(request.ID); err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotResolved):
			return echo.NewHTTPError(http.StatusConflict, "Request must be resolved before gifting")
		case errors.Is(err, repositories.ErrAlreadyGifted):
			return echo.NewHTTPError(http.StatusConflict, "Tokens already gifted for this request")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	if err := h.walletRepository.Credit(*request.HelperID, req.Amount, request.ID); err != nil {
		if errors.Is(err, repositories.ErrInvalidGiftAmount) {
			return echo.NewHTTPError(http.StatusBadRequest, "Gift amount must be 10, 20 or 50")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	n := &models.Notification{
		RecipientID: *request.HelperID,
		Type:        models.NotificationTokensReceived,
		Title:       "Tokens received",
		Message:     fmt.Sprintf("%s gifted you %d tokens for helping out", request.RequesterName, req.Amount),
		RelatedID:   request.ID,
	}
	if err := h.notificationRepository.CreateNotification(n); err != nil {
		log.Printf("Failed to create TOKENS_RECEIVED notification: %v", err)
	}

	request.TokensGifted = true
	return c.JSON(http.StatusOK, request)
}
