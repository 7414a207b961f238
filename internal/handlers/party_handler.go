package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/juliangsibecas/girafa-backend/internal/models"
	"github.com/juliangsibecas/girafa-backend/internal/repositories"
	"github.com/juliangsibecas/girafa-backend/internal/services"
)

// PartyHandler handles the party surface: lifecycle, attendance and invites.
type PartyHandler struct {
	userRepository repositories.UserRepository
	parties        *services.PartyService
	membership     *services.MembershipService
	invites        *services.InviteService
	cascade        *services.CascadeService
	dispatcher     services.Dispatcher
	adminEmail     string
}

// NewPartyHandler creates a new PartyHandler
func NewPartyHandler(
	userRepo repositories.UserRepository,
	parties *services.PartyService,
	membership *services.MembershipService,
	invites *services.InviteService,
	cascade *services.CascadeService,
	dispatcher services.Dispatcher,
	adminEmail string,
) *PartyHandler {
	return &PartyHandler{
		userRepository: userRepo,
		parties:        parties,
		membership:     membership,
		invites:        invites,
		cascade:        cascade,
		dispatcher:     dispatcher,
		adminEmail:     adminEmail,
	}
}

// RegisterPartyRoutes registers party-related routes
func (h *PartyHandler) RegisterPartyRoutes(g *echo.Group) {
	g.POST("/parties", h.CreateParty)
	g.GET("/parties/search", h.SearchParties)
	g.GET("/parties/:id", h.GetParty)
	g.GET("/parties/:id/attenders", h.SearchAttenders)
	g.POST("/parties/attending", h.ChangeAttendingState)
	g.POST("/parties/:id/invites", h.InviteUsers)
	g.DELETE("/parties/:id", h.DeleteParty)
	g.POST("/admin/parties/:id/enable", h.EnableParty)
	g.POST("/admin/parties/:id/reject", h.RejectParty)
}

// CreateParty inserts a party in CREATED state, pending admin validation
func (h *PartyHandler) CreateParty(c echo.Context) error {
	myID := getUserIDFromContext(c)
	if myID == primitive.NilObjectID {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreatePartyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	id, err := h.parties.Create(c.Request().Context(), myID, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"id": id.Hex()}})
}

// SearchParties returns the enabled parties visible to the caller
func (h *PartyHandler) SearchParties(c echo.Context) error {
	myID := getUserIDFromContext(c)
	if myID == primitive.NilObjectID {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	previews, err := h.parties.Search(c.Request().Context(), myID, c.QueryParam("q"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": previews})
}

// GetParty returns the party detail when the availability rule admits the
// caller
func (h *PartyHandler) GetParty(c echo.Context) error {
	myID := getUserIDFromContext(c)
	if myID == primitive.NilObjectID {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	id, perr := parseObjectID(c, "id")
	if perr != nil {
		return perr
	}

	party, err := h.parties.Get(c.Request().Context(), myID, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": party})
}

// SearchAttenders lists a party's attenders
func (h *PartyHandler) SearchAttenders(c echo.Context) error {
	myID := getUserIDFromContext(c)
	if myID == primitive.NilObjectID {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	id, perr := parseObjectID(c, "id")
	if perr != nil {
		return perr
	}

	attenders, err := h.parties.SearchAttenders(c.Request().Context(), myID, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": attenders})
}

// ChangeAttendingState attends (state=true) or unattends a party
func (h *PartyHandler) ChangeAttendingState(c echo.Context) error {
	myID := getUserIDFromContext(c)
	if myID == primitive.NilObjectID {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.ChangeAttendingStateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	partyID, err := primitive.ObjectIDFromHex(req.PartyID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid id")
	}

	if err := h.membership.ChangeAttendingState(c.Request().Context(), myID, partyID, req.State); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"attending": req.State}})
}

// InviteUsers bulk-invites users to a party
func (h *PartyHandler) InviteUsers(c echo.Context) error {
	myID := getUserIDFromContext(c)
	if myID == primitive.NilObjectID {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	partyID, perr := parseObjectID(c, "id")
	if perr != nil {
		return perr
	}

	var req models.SendPartyInviteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	req.PartyID = partyID.Hex()
	if err := c.Validate(&req); err != nil {
		return err
	}

	invitedIDs := make([]primitive.ObjectID, 0, len(req.InvitedIDs))
	for _, raw := range req.InvitedIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid id")
		}
		invitedIDs = append(invitedIDs, id)
	}

	if err := h.invites.AddInvited(c.Request().Context(), myID, partyID, invitedIDs); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// DeleteParty removes a party and unwinds its references. Only the
// organizer (or an admin) may do it.
func (h *PartyHandler) DeleteParty(c echo.Context) error {
	myID := getUserIDFromContext(c)
	if myID == primitive.NilObjectID {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	id, perr := parseObjectID(c, "id")
	if perr != nil {
		return perr
	}

	if err := h.cascade.DeleteParty(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// EnableParty flips a created party to ENABLED (admin)
func (h *PartyHandler) EnableParty(c echo.Context) error {
	if err := h.requireAdmin(c); err != nil {
		return err
	}
	id, perr := parseObjectID(c, "id")
	if perr != nil {
		return perr
	}

	if err := h.parties.Enable(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// RejectParty removes a party that never got enabled (admin)
func (h *PartyHandler) RejectParty(c echo.Context) error {
	if err := h.requireAdmin(c); err != nil {
		return err
	}
	id, perr := parseObjectID(c, "id")
	if perr != nil {
		return perr
	}

	if err := h.cascade.RejectParty(c.Request().Context(), id, h.dispatcher); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *PartyHandler) requireAdmin(c echo.Context) error {
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
