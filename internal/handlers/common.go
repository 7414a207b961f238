package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/juliangsibecas/girafa-backend/internal/models"
	"github.com/juliangsibecas/girafa-backend/internal/services"
)

// getUserIDFromContext extracts the authenticated caller's id set by the JWT
// middleware. NilObjectID means unauthenticated.
func getUserIDFromContext(c echo.Context) primitive.ObjectID {
	claims, ok := c.Get("user").(*models.JwtCustomClaims)
	if !ok {
		return primitive.NilObjectID
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return primitive.NilObjectID
	}
	return id
}

// httpError maps the core error taxonomy to transport status codes. Unknown
// errors stay opaque: internals were already logged by the service.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	case errors.Is(err, services.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "Forbidden")
	case errors.Is(err, services.ErrSameUser):
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot target yourself")
	case errors.Is(err, services.ErrNameTaken):
		return echo.NewHTTPError(http.StatusConflict, "Name not available")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Unknown error")
	}
}

// matchesQuery mirrors the repository's case-insensitive nickname/fullName
// search for in-memory filtering.
func matchesQuery(user *models.User, q string) bool {
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(user.Nickname), q) ||
		strings.Contains(strings.ToLower(user.FullName), q)
}

func parseObjectID(c echo.Context, param string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		return primitive.NilObjectID, echo.NewHTTPError(http.StatusBadRequest, "Invalid id")
	}
	return id, nil
}
