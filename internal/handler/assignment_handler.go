package handler

import (
	"net/http"
	"strconv"

	"github.com/atelierfoto/session-service/internal/dto"
	"github.com/atelierfoto/session-service/internal/middleware"
	"github.com/atelierfoto/session-service/internal/models"
	"github.com/atelierfoto/session-service/internal/service"
	"github.com/labstack/echo/v4"
)

type AssignmentHandler struct {
	svc service.AssignmentService
}

func NewAssignmentHandler(svc service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{svc: svc}
}

func (h *AssignmentHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/sessions/:id/photographers", h.ListAssignments)
	g.POST("/sessions/:id/photographers", h.AssignPhotographer)
	g.PUT("/sessions/:id/photographers", h.ReassignPhotographer)
	g.DELETE("/sessions/:id/photographers/:photographerId", h.RemovePhotographer)
	g.POST("/sessions/:id/photographers/:photographerId/attended", h.MarkAttended)
}

func (h *AssignmentHandler) AssignPhotographer(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	var req dto.AssignPhotographerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.PhotographerID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "photographer_id is required")
	}

	assignment, err := h.svc.AssignPhotographer(c.Request().Context(), id, middleware.IdentityFrom(c), service.AssignPhotographerInput{
		PhotographerID: req.PhotographerID,
		Role:           models.PhotographerRole(req.Role),
		CoverageStart:  req.CoverageStart,
		CoverageEnd:    req.CoverageEnd,
		Notes:          req.Notes,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, assignment)
}

func (h *AssignmentHandler) ReassignPhotographer(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	var req dto.ReassignPhotographerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.OldPhotographerID == 0 || req.PhotographerID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "old_photographer_id and photographer_id are required")
	}

	assignment, err := h.svc.ReassignPhotographer(c.Request().Context(), id, req.OldPhotographerID, middleware.IdentityFrom(c), service.AssignPhotographerInput{
		PhotographerID: req.PhotographerID,
		Role:           models.PhotographerRole(req.Role),
		CoverageStart:  req.CoverageStart,
		CoverageEnd:    req.CoverageEnd,
		Notes:          req.Notes,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, assignment)
}

func (h *AssignmentHandler) RemovePhotographer(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	photographerID, err := strconv.ParseUint(c.Param("photographerId"), 10, 64)
	if err != nil || photographerID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid photographer id")
	}

	if err := h.svc.RemovePhotographer(c.Request().Context(), id, uint(photographerID), middleware.IdentityFrom(c)); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AssignmentHandler) MarkAttended(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	photographerID, err := strconv.ParseUint(c.Param("photographerId"), 10, 64)
	if err != nil || photographerID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid photographer id")
	}

	if err := h.svc.MarkAttended(c.Request().Context(), id, uint(photographerID), middleware.IdentityFrom(c)); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AssignmentHandler) ListAssignments(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	assignments, err := h.svc.ListAssignments(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, assignments)
}
