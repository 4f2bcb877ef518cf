package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/atelierfoto/session-service/internal/dto"
	"github.com/atelierfoto/session-service/internal/middleware"
	"github.com/atelierfoto/session-service/internal/models"
	"github.com/atelierfoto/session-service/internal/repository"
	"github.com/atelierfoto/session-service/internal/service"
	"github.com/labstack/echo/v4"
)

type SessionHandler struct {
	svc     service.SessionService
	checker service.AvailabilityChecker
}

func NewSessionHandler(svc service.SessionService, checker service.AvailabilityChecker) *SessionHandler {
	return &SessionHandler{svc: svc, checker: checker}
}

func (h *SessionHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/sessions", h.CreateSession)
	g.GET("/sessions", h.ListSessions)
	g.GET("/sessions/:id", h.GetSession)
	g.GET("/sessions/:id/history", h.GetHistory)
	g.POST("/sessions/:id/transition", h.Transition)
	g.POST("/sessions/:id/cancel", h.Cancel)
	g.PUT("/sessions/:id/room", h.AssignRoom)
	g.PUT("/sessions/:id/editor", h.AssignEditor)
	g.GET("/availability", h.CheckAvailability)
}

func (h *SessionHandler) CreateSession(c echo.Context) error {
	var req dto.CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ClientID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "client_id is required")
	}

	session, err := h.svc.CreateSession(c.Request().Context(), middleware.IdentityFrom(c), service.CreateSessionInput{
		ClientID:             req.ClientID,
		Kind:                 models.SessionKind(req.Kind),
		SessionDate:          req.SessionDate,
		StartTime:            req.StartTime,
		EndTime:              req.EndTime,
		Location:             req.Location,
		RoomID:               req.RoomID,
		TransportCents:       req.TransportCents,
		DiscountCents:        req.DiscountCents,
		DepositPercentage:    req.DepositPercentage,
		EstimatedEditingDays: req.EstimatedEditingDays,
		ClientRequirements:   req.ClientRequirements,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, dto.ToSessionResponse(session))
}

func (h *SessionHandler) GetSession(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	session, err := h.svc.GetSnapshot(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.ToSessionResponse(session))
}

func (h *SessionHandler) GetHistory(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	entries, err := h.svc.ReplayHistory(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.ToHistoryResponses(entries))
}

func (h *SessionHandler) ListSessions(c echo.Context) error {
	filter := repository.SessionFilter{}
	if v := c.QueryParam("client_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid client_id")
		}
		filter.ClientID = uint(id)
	}
	if v := c.QueryParam("status"); v != "" {
		status := models.SessionStatus(v)
		if !status.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown status")
		}
		filter.Status = &status
	}
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid from date")
		}
		filter.StartDate = &t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid to date")
		}
		filter.EndDate = &t
	}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		filter.Limit = n
	}
	if v := c.QueryParam("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid offset")
		}
		filter.Offset = n
	}

	sessions, err := h.svc.ListSessions(c.Request().Context(), middleware.IdentityFrom(c), filter)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.ToSessionResponses(sessions))
}

func (h *SessionHandler) Transition(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	var req dto.TransitionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Target == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "target is required")
	}

	session, err := h.svc.RequestTransition(c.Request().Context(), id, middleware.IdentityFrom(c), &service.TransitionRequest{
		Target:    models.SessionStatus(req.Target),
		Reason:    req.Reason,
		Notes:     req.Notes,
		Initiator: models.CancellationInitiator(req.Initiator),
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.ToSessionResponse(session))
}

func (h *SessionHandler) Cancel(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	var req dto.CancelSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Reason == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "reason is required")
	}

	session, err := h.svc.CancelSession(c.Request().Context(), id, middleware.IdentityFrom(c), req.Reason, models.CancellationInitiator(req.Initiator), req.Notes)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.ToSessionResponse(session))
}

func (h *SessionHandler) AssignRoom(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	var req dto.AssignRoomRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.RoomID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "room_id is required")
	}

	session, err := h.svc.AssignRoom(c.Request().Context(), id, req.RoomID, middleware.IdentityFrom(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.ToSessionResponse(session))
}

func (h *SessionHandler) AssignEditor(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	var req dto.AssignEditorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.EditorID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "editor_id is required")
	}

	session, err := h.svc.AssignEditor(c.Request().Context(), id, req.EditorID, middleware.IdentityFrom(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.ToSessionResponse(session))
}

// CheckAvailability is the read-only check; a positive answer is advisory
// only, bookings re-check under lock.
func (h *SessionHandler) CheckAvailability(c echo.Context) error {
	kind := service.ResourceKind(c.QueryParam("kind"))
	if kind != service.ResourceRoom && kind != service.ResourcePhotographer {
		return echo.NewHTTPError(http.StatusBadRequest, "kind must be room or photographer")
	}
	resourceID, err := strconv.ParseUint(c.QueryParam("resource_id"), 10, 64)
	if err != nil || resourceID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid resource_id")
	}
	date, err := time.Parse("2006-01-02", c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date")
	}
	start, err := time.Parse(time.RFC3339, c.QueryParam("start"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid start")
	}
	end, err := time.Parse(time.RFC3339, c.QueryParam("end"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid end")
	}

	available, err := h.checker.CheckAvailable(c.Request().Context(), kind, uint(resourceID), date, start, end, 0)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.AvailabilityResponse{
		ResourceID: uint(resourceID),
		Kind:       string(kind),
		Date:       date.Format("2006-01-02"),
		Available:  available,
	})
}

func sessionID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	return uint(id), nil
}
