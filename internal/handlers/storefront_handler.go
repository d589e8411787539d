package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"eventhorizon/internal/services"
	"eventhorizon/internal/status"
	"eventhorizon/models"

	"github.com/go-playground/validator/v10"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

const InsufficientFundsMessage = "Saldo insuficiente! Recarregue sua carteira."

type StorefrontHandler struct {
	service  *services.StorefrontService
	validate *validator.Validate
	logger   *slog.Logger
}

func NewStorefrontHandler(service *services.StorefrontService, logger *slog.Logger) *StorefrontHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StorefrontHandler{
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

type TierRequest struct {
	TicketTypeID string `json:"ticket_type_id" validate:"required,max=64"`
}

type DepositRequest struct {
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

type AskRequest struct {
	Query string `json:"query" validate:"required,max=1000"`
}

func (h *StorefrontHandler) bind(e *core.RequestEvent, dst any) error {
	if err := e.BindBody(dst); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}
	if err := h.validate.Struct(dst); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}
	return nil
}

// apiError maps domain errors onto HTTP errors.
func (h *StorefrontHandler) apiError(err error) error {
	switch {
	case errors.Is(err, status.ErrEventNotFound):
		return apis.NewNotFoundError("Evento não encontrado", err)
	case errors.Is(err, status.ErrTicketNotFound):
		return apis.NewNotFoundError("Ingresso não encontrado", err)
	case errors.Is(err, status.ErrNoDetailSession):
		return apis.NewApiError(http.StatusConflict, "Nenhum evento aberto", err)
	case errors.Is(err, status.ErrAssistantBusy):
		return apis.NewApiError(http.StatusConflict, "O assistente ainda está respondendo", err)
	case errors.Is(err, status.ErrInvalidQRCode):
		return apis.NewApiError(http.StatusUnprocessableEntity, "QR code inválido", err)
	case errors.Is(err, status.ErrEmptySelection):
		return apis.NewBadRequestError("Selecione ao menos um ingresso", err)
	case errors.Is(err, status.ErrTicketTypeNotFound),
		errors.Is(err, status.ErrInvalidQuantity):
		return apis.NewBadRequestError("Tipo de ingresso inválido", err)
	case errors.Is(err, status.ErrInvalidAmount):
		return apis.NewBadRequestError("Valor inválido", err)
	case errors.Is(err, status.ErrEmptyQuery):
		return apis.NewBadRequestError("Digite uma pergunta", err)
	default:
		h.logger.Error("storefront request failed", "error", err)
		return apis.NewInternalServerError("Something went wrong", err)
	}
}

// ListEvents - GET /api/v1/events?q=&category=
func (h *StorefrontHandler) ListEvents(e *core.RequestEvent) error {
	query := e.Request.URL.Query()
	category := models.EventCategory(query.Get("category"))
	if category != "" && category != models.CategoryAll && !category.Valid() {
		return apis.NewBadRequestError("Categoria desconhecida", nil)
	}

	events := h.service.ListEvents(query.Get("q"), category)
	return e.JSON(http.StatusOK, map[string]any{
		"events": events,
		"total":  len(events),
	})
}

func (h *StorefrontHandler) FeaturedEvents(e *core.RequestEvent) error {
	return e.JSON(http.StatusOK, map[string]any{"events": h.service.FeaturedEvents()})
}

func (h *StorefrontHandler) Categories(e *core.RequestEvent) error {
	return e.JSON(http.StatusOK, map[string]any{"categories": h.service.Categories()})
}

func (h *StorefrontHandler) GetEvent(e *core.RequestEvent) error {
	detail, err := h.service.EventDetail(e.Request.PathValue("eventId"))
	if err != nil {
		return h.apiError(err)
	}
	return e.JSON(http.StatusOK, detail)
}

// OpenSession - POST /api/v1/events/{eventId}/session
func (h *StorefrontHandler) OpenSession(e *core.RequestEvent) error {
	view, err := h.service.OpenSession(e.Request.PathValue("eventId"))
	if err != nil {
		return h.apiError(err)
	}
	return e.JSON(http.StatusOK, view)
}

func (h *StorefrontHandler) CloseSession(e *core.RequestEvent) error {
	h.service.CloseSession()
	return e.NoContent(http.StatusNoContent)
}

func (h *StorefrontHandler) GetCart(e *core.RequestEvent) error {
	view, err := h.service.Cart()
	if err != nil {
		return h.apiError(err)
	}
	return e.JSON(http.StatusOK, view)
}

func (h *StorefrontHandler) Increment(e *core.RequestEvent) error {
	var req TierRequest
	if err := h.bind(e, &req); err != nil {
		return err
	}
	view, err := h.service.Increment(req.TicketTypeID)
	if err != nil {
		return h.apiError(err)
	}
	return e.JSON(http.StatusOK, view)
}

func (h *StorefrontHandler) Decrement(e *core.RequestEvent) error {
	var req TierRequest
	if err := h.bind(e, &req); err != nil {
		return err
	}
	view, err := h.service.Decrement(req.TicketTypeID)
	if err != nil {
		return h.apiError(err)
	}
	return e.JSON(http.StatusOK, view)
}

// Checkout - POST /api/v1/cart/checkout
// Insufficient funds answers 402 with a redirect hint to the wallet screen.
func (h *StorefrontHandler) Checkout(e *core.RequestEvent) error {
	result, err := h.service.Checkout(e.Request.Context())
	if errors.Is(err, status.ErrInsufficientFunds) {
		return e.JSON(http.StatusPaymentRequired, map[string]any{
			"status":   http.StatusPaymentRequired,
			"message":  InsufficientFundsMessage,
			"redirect": "wallet",
		})
	}
	if err != nil {
		return h.apiError(err)
	}
	return e.JSON(http.StatusOK, result)
}

func (h *StorefrontHandler) GetWallet(e *core.RequestEvent) error {
	return e.JSON(http.StatusOK, h.service.Wallet())
}

// Deposit - POST /api/v1/wallet/deposit
// An absent amount deposits the configured fixed top-up.
func (h *StorefrontHandler) Deposit(e *core.RequestEvent) error {
	var req DepositRequest
	if err := h.bind(e, &req); err != nil {
		return err
	}
	result, err := h.service.Deposit(e.Request.Context(), req.Amount)
	if err != nil {
		return h.apiError(err)
	}
	return e.JSON(http.StatusOK, result)
}

func (h *StorefrontHandler) ListTickets(e *core.RequestEvent) error {
	tickets := h.service.Tickets()
	return e.JSON(http.StatusOK, map[string]any{
		"tickets": tickets,
		"total":   len(tickets),
	})
}

// TicketQR - GET /api/v1/tickets/{ticketId}/qr
func (h *StorefrontHandler) TicketQR(e *core.RequestEvent) error {
	img, err := h.service.TicketQR(e.Request.PathValue("ticketId"))
	if err != nil {
		return h.apiError(err)
	}
	e.Response.Header().Set("Cache-Control", "no-store")
	return e.Blob(http.StatusOK, http.DetectContentType(img), img)
}

func (h *StorefrontHandler) GetConversation(e *core.RequestEvent) error {
	return e.JSON(http.StatusOK, map[string]any{"messages": h.service.Conversation()})
}

// Ask - POST /api/v1/assistant
func (h *StorefrontHandler) Ask(e *core.RequestEvent) error {
	var req AskRequest
	if err := h.bind(e, &req); err != nil {
		return err
	}
	reply, err := h.service.Ask(e.Request.Context(), req.Query)
	if err != nil {
		return h.apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{
		"reply":    reply,
		"messages": h.service.Conversation(),
	})
}
