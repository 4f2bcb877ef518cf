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

type PaymentHandler struct {
	svc     service.PaymentService
	details service.DetailService
}

func NewPaymentHandler(svc service.PaymentService, details service.DetailService) *PaymentHandler {
	return &PaymentHandler{svc: svc, details: details}
}

func (h *PaymentHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/sessions/:id/payments", h.ListPayments)
	g.POST("/sessions/:id/payments", h.RecordPayment)
	g.POST("/payments/:paymentId/verify", h.VerifyPayment)
	g.GET("/sessions/:id/totals", h.GetTotals)

	g.GET("/sessions/:id/details", h.ListDetails)
	g.POST("/sessions/:id/details", h.AddItem)
	g.DELETE("/sessions/:id/details/:detailId", h.RemoveDetail)
}

func (h *PaymentHandler) RecordPayment(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	var req dto.RecordPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.AmountCents <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "amount_cents must be positive")
	}

	payment, err := h.svc.RecordPayment(c.Request().Context(), id, middleware.IdentityFrom(c), service.RecordPaymentInput{
		Type:        models.PaymentType(req.Type),
		Method:      req.Method,
		AmountCents: req.AmountCents,
		PaymentDate: req.PaymentDate,
		Reference:   req.Reference,
		Notes:       req.Notes,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, payment)
}

func (h *PaymentHandler) VerifyPayment(c echo.Context) error {
	paymentID, err := strconv.ParseUint(c.Param("paymentId"), 10, 64)
	if err != nil || paymentID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payment id")
	}

	payment, err := h.svc.VerifyPayment(c.Request().Context(), uint(paymentID), middleware.IdentityFrom(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, payment)
}

func (h *PaymentHandler) ListPayments(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	payments, err := h.svc.ListPayments(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, payments)
}

func (h *PaymentHandler) GetTotals(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	totals, err := h.svc.Totals(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.ToTotalsResponse(totals))
}

func (h *PaymentHandler) AddItem(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	var req dto.AddItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.CatalogItemID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "catalog_item_id is required")
	}

	detail, err := h.details.AddItem(c.Request().Context(), id, middleware.IdentityFrom(c), service.AddItemInput{
		CatalogItemID: req.CatalogItemID,
		Quantity:      req.Quantity,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, detail)
}

func (h *PaymentHandler) RemoveDetail(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	detailID, err := strconv.ParseUint(c.Param("detailId"), 10, 64)
	if err != nil || detailID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid detail id")
	}

	if err := h.details.RemoveDetail(c.Request().Context(), id, uint(detailID), middleware.IdentityFrom(c)); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *PaymentHandler) ListDetails(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	details, err := h.details.ListDetails(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, details)
}
