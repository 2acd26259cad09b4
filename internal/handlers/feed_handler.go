package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/padosi-app/backend/internal/feed"
	"github.com/padosi-app/backend/internal/models"
	"github.com/padosi-app/backend/internal/repositories"
)

// FeedHandler serves the proximity-filtered help request feed
type FeedHandler struct {
	requestRepository repositories.RequestRepository
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(requestRepo repositories.RequestRepository) *FeedHandler {
	return &FeedHandler{requestRepository: requestRepo}
}

// RegisterFeedRoutes registers feed routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// GetFeed returns open requests within the visibility radius of the viewer,
// filtered by category and ordered by the requested sort mode. Without a
// viewer location the feed is empty; clients that want the documented
// fallback coordinate pass it explicitly.
func (h *FeedHandler) GetFeed(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var viewer *models.Coordinate
	lat, errLat := strconv.ParseFloat(c.QueryParam("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.QueryParam("lng"), 64)
	if errLat == nil && errLng == nil {
		viewer = &models.Coordinate{Lat: lat, Lng: lng}
	}

	category := c.QueryParam("category")
	sortMode := c.QueryParam("sort")

	requests, err := h.requestRepository.GetOpen()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	items := feed.Build(requests, viewer, category, sortMode)

	return c.JSON(http.StatusOK, echo.Map{
		"requests":  items,
		"radius_km": feed.RadiusKM,
	})
}
