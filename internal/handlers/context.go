package handlers

import (
	"github.com/labstack/echo/v4"
	"github.com/padosi-app/backend/internal/models"
)

// getClaimsFromContext returns the JWT claims stored by the auth middleware,
// or nil when the request is unauthenticated.
func getClaimsFromContext(c echo.Context) *models.JwtCustomClaims {
	claims, ok := c.Get("user").(*models.JwtCustomClaims)
	if !ok {
		return nil
	}
	return claims
}

// getUserIDFromContext returns the authenticated user id, or 0.
func getUserIDFromContext(c echo.Context) uint {
	if claims := getClaimsFromContext(c); claims != nil {
		return claims.UserID
	}
	return 0
}
