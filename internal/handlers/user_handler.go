package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/juliangsibecas/girafa-backend/internal/models"
	"github.com/juliangsibecas/girafa-backend/internal/repositories"
	"github.com/juliangsibecas/girafa-backend/internal/services"
)

// UserHandler handles the user surface: profile reads, search, follow state
// changes and account removal.
type UserHandler struct {
	userRepository repositories.UserRepository
	relationships  *services.RelationshipService
	notifications  *services.NotificationService
	cascade        *services.CascadeService
	adminEmail     string
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(
	userRepo repositories.UserRepository,
	relationships *services.RelationshipService,
	notifications *services.NotificationService,
	cascade *services.CascadeService,
	adminEmail string,
) *UserHandler {
	return &UserHandler{
		userRepository: userRepo,
		relationships:  relationships,
		notifications:  notifications,
		cascade:        cascade,
		adminEmail:     adminEmail,
	}
}

// RegisterUserRoutes registers user-related routes
func (h *UserHandler) RegisterUserRoutes(g *echo.Group) {
	g.GET("/users/search", h.SearchUsers)
	g.GET("/users/:id", h.GetUser)
	g.GET("/users/:id/followers", h.GetFollowers)
	g.GET("/users/:id/following", h.GetFollowing)
	g.GET("/users/:id/attended-parties", h.GetAttendedParties)
	g.GET("/users/me/followers-to-invite", h.SearchFollowersToInvite)
	g.PUT("/users/me", h.EditUser)
	g.POST("/users/me/following", h.ChangeFollowingState)
	g.DELETE("/users/me", h.DeleteAccount)
	g.DELETE("/admin/users/:id", h.BanUser)
	g.GET("/admin/users/stats", h.GetUserStats)
}

// userGetResponse is the profile payload plus graph flags relative to the
// caller.
type userGetResponse struct {
	models.User
	IsFollowing bool `json:"isFollowing"`
	IsFollower  bool `json:"isFollower"`
}

// GetUser returns a profile by id or nickname (?nickname=)
func (h *UserHandler) GetUser(c echo.Context) error {
	myID := getUserIDFromContext(c)
	if myID == primitive.NilObjectID {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var user *models.User
	var err error
	if nickname := c.QueryParam("nickname"); nickname != "" && c.Param("id") == "by-nickname" {
		user, err = h.userRepository.GetByNickname(c.Request().Context(), nickname)
	} else {
		id, perr := parseObjectID(c, "id")
		if perr != nil {
			return perr
		}
		user, err = h.userRepository.GetByID(c.Request().Context(), id)
	}
	if err != nil {
		return httpError(services.ErrUnknown)
	}
	if user == nil {
		return httpError(services.ErrNotFound)
	}

	user.Password = ""
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": userGetResponse{
		User:        *user,
		IsFollowing: user.IsFollowedBy(myID),
		IsFollower:  user.IsFollowing(myID),
	}})
}

// SearchUsers searches users by nickname or full name, excluding the caller
func (h *UserHandler) SearchUsers(c echo.Context) error {
	myID := getUserIDFromContext(c)
	if myID == primitive.NilObjectID {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	previews, err := h.userRepository.Search(c.Request().Context(), myID, c.QueryParam("q"))
	if err != nil {
		return httpError(services.ErrUnknown)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": previews})
}

// EditUser updates the caller's profile fields
func (h *UserHandler) EditUser(c echo.Context) error {
	myID := getUserIDFromContext(c)
	if myID == primitive.NilObjectID {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.EditUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	fields := bson.M{}
	if req.Nickname != "" {
		existing, err := h.userRepository.GetByNickname(c.Request().Context(), req.Nickname)
		if err != nil {
			return httpError(services.ErrUnknown)
		}
		if existing != nil && existing.ID != myID {
			return httpError(services.ErrNameTaken)
		}
		fields["nickname"] = req.Nickname
	}
	if req.FullName != "" {
		fields["fullName"] = req.FullName
	}
	if req.Bio != "" {
		fields["bio"] = req.Bio
	}
	if req.InstagramUsername != "" {
		fields["instagramUsername"] = req.InstagramUsername
	}
	if len(fields) == 0 {
		return c.JSON(http.StatusOK, echo.Map{"success": true})
	}

	if err := h.userRepository.Edit(c.Request().Context(), myID, fields); err != nil {
		return httpError(services.ErrUnknown)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// ChangeFollowingState follows (state=true) or unfollows the target user.
// A follow also feeds the notification engine; unfollow never does.
func (h *UserHandler) ChangeFollowingState(c echo.Context) error {
	myID := getUserIDFromContext(c)
	if myID == primitive.NilObjectID {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.ChangeFollowingStateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	targetID, err := primitive.ObjectIDFromHex(req.FollowingID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid id")
	}

	ctx := c.Request().Context()
	if req.State {
		if err := h.relationships.Follow(ctx, myID, targetID); err != nil {
			return httpError(err)
		}
		user, uerr := h.userRepository.GetByID(ctx, myID)
		target, terr := h.userRepository.GetByID(ctx, targetID)
		if uerr == nil && terr == nil && user != nil && target != nil {
			// Suppression is the engine's call; a duplicate within the
			// window is not an error.
			_, _ = h.notifications.CreateOrSuppress(ctx, services.NotificationInput{
				Type: models.NotificationTypeFollow,
				User: target,
				From: user,
			})
		}
	} else {
		if err := h.relationships.Unfollow(ctx, myID, targetID); err != nil {
			return httpError(err)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": req.State}})
}

// GetFollowers lists a user's followers
func (h *UserHandler) GetFollowers(c echo.Context) error {
	return h.listEdge(c, func(u *models.User) []primitive.ObjectID { return u.Followers })
}

// GetFollowing lists the users a user follows
func (h *UserHandler) GetFollowing(c echo.Context) error {
	return h.listEdge(c, func(u *models.User) []primitive.ObjectID { return u.Following })
}

func (h *UserHandler) listEdge(c echo.Context, edge func(*models.User) []primitive.ObjectID) error {
	id, perr := parseObjectID(c, "id")
	if perr != nil {
		return perr
	}

	user, err := h.userRepository.GetByID(c.Request().Context(), id)
	if err != nil {
		return httpError(services.ErrUnknown)
	}
	if user == nil {
		return httpError(services.ErrNotFound)
	}

	previews, err := h.userRepository.GetManyByID(c.Request().Context(), edge(user))
	if err != nil {
		return httpError(services.ErrUnknown)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": previews})
}

// GetAttendedParties lists the party ids a user attends
func (h *UserHandler) GetAttendedParties(c echo.Context) error {
	id, perr := parseObjectID(c, "id")
	if perr != nil {
		return perr
	}

	user, err := h.userRepository.GetByID(c.Request().Context(), id)
	if err != nil {
		return httpError(services.ErrUnknown)
	}
	if user == nil {
		return httpError(services.ErrNotFound)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": user.AttendedParties})
}

// SearchFollowersToInvite lists the caller's followers matching ?q= who do
// not already attend ?partyId=
func (h *UserHandler) SearchFollowersToInvite(c echo.Context) error {
	myID := getUserIDFromContext(c)
	if myID == primitive.NilObjectID {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	partyID, err := primitive.ObjectIDFromHex(c.QueryParam("partyId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid id")
	}

	ctx := c.Request().Context()
	me, err := h.userRepository.GetByID(ctx, myID)
	if err != nil {
		return httpError(services.ErrUnknown)
	}
	if me == nil {
		return httpError(services.ErrNotFound)
	}

	candidates := make([]primitive.ObjectID, 0, len(me.Followers))
	for _, followerID := range me.Followers {
		candidates = append(candidates, followerID)
	}
	previews, err := h.userRepository.GetManyByID(ctx, candidates)
	if err != nil {
		return httpError(services.ErrUnknown)
	}

	// Filter out followers who already attend the party
	q := c.QueryParam("q")
	filtered := make([]models.UserPreview, 0, len(previews))
	for _, preview := range previews {
		follower, err := h.userRepository.GetByID(ctx, preview.ID)
		if err != nil || follower == nil {
			continue
		}
		if models.ContainsID(follower.AttendedParties, partyID) {
			continue
		}
		if q != "" && !matchesQuery(follower, q) {
			continue
		}
		filtered = append(filtered, preview)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": filtered})
}

// DeleteAccount verifies the caller's password, then runs the cascade
// unlink workflow
func (h *UserHandler) DeleteAccount(c echo.Context) error {
	myID := getUserIDFromContext(c)
	if myID == primitive.NilObjectID {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.DeleteUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.userRepository.GetByID(ctx, myID)
	if err != nil {
		return httpError(services.ErrUnknown)
	}
	if user == nil {
		return httpError(services.ErrNotFound)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	if err := h.cascade.DeleteUser(ctx, myID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// BanUser is the admin removal path
func (h *UserHandler) BanUser(c echo.Context) error {
	if err := h.requireAdmin(c); err != nil {
		return err
	}
	id, perr := parseObjectID(c, "id")
	if perr != nil {
		return perr
	}

	if err := h.cascade.BanUser(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// GetUserStats reports total users and sign-ups per day
func (h *UserHandler) GetUserStats(c echo.Context) error {
	if err := h.requireAdmin(c); err != nil {
		return err
	}

	ctx := c.Request().Context()
	total, err := h.userRepository.Count(ctx)
	if err != nil {
		return httpError(services.ErrUnknown)
	}
	byDay, err := h.userRepository.CreatedByDay(ctx)
	if err != nil {
		return httpError(services.ErrUnknown)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"total": total, "byDay": byDay}})
}

func (h *UserHandler) requireAdmin(c echo.Context) error {
	myID := getUserIDFromContext(c)
	if myID == primitive.NilObjectID {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	me, err := h.userRepository.GetByID(c.Request().Context(), myID)
	if err != nil || me == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	if !me.IsAdmin && (h.adminEmail == "" || me.Email != h.adminEmail) {
		return httpError(services.ErrForbidden)
	}
	return nil
}
