package v1

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mesmerism/api/internal/api/handler/v1/request"
	"github.com/mesmerism/api/internal/api/handler/v1/response"
	"github.com/mesmerism/api/internal/api/middleware"
	"github.com/mesmerism/api/internal/domain"
	"github.com/mesmerism/api/internal/service"
)

// maxWebhookBytes bounds the provider callback body.
const maxWebhookBytes = 64 << 10

type PaymentService interface {
	CreateTopup(ctx context.Context, userID uint, amount int) (domain.CoinTopup, string, error)
	HandleProviderWebhook(ctx context.Context, payload []byte, signature string) error
	GetTopup(ctx context.Context, providerRef string) (domain.CoinTopup, error)
	ListUserTopups(ctx context.Context, userID uint) ([]domain.CoinTopup, error)
	ListUserLedger(ctx context.Context, userID uint, limit int) ([]domain.CoinLedgerEntry, error)
}

type PaymentHandler struct {
	svc PaymentService
}

func NewPaymentHandler(svc PaymentService) *PaymentHandler {
	return &PaymentHandler{
		svc: svc,
	}
}

// HandleCreateTopup godoc
// @Summary      Start a coin top-up
// @Description  Creates a pending top-up and returns the payment client secret.
// @Tags         payments
// @Produce      json
// @Param        request   body      request.TopupRequest true "request body"
// @Success      201      {object}   response.TopupResponse
// @Failure      400      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /payments/topups [post]
// @Security     BearerAuth
func (h *PaymentHandler) HandleCreateTopup(ctx *gin.Context) {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(errors.New("missing authentication")))
		return
	}

	var req request.TopupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	topup, clientSecret, err := h.svc.CreateTopup(ctx.Request.Context(), userID, req.Amount)
	if err != nil {
		if errors.Is(err, service.ErrInvalidAmount) {
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrInvalidAmount))
			return
		}

		err = fmt.Errorf("v1.HandleCreateTopup -> h.svc.CreateTopup -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, response.TopupResponse{
		Topup:        topup,
		ClientSecret: clientSecret,
	})
}

// HandleProviderWebhook godoc
// @Summary      Payment provider callback
// @Description  Verifies the signature and settles the referenced top-up.
// @Tags         payments
// @Produce      json
// @Success      200      {string}   string "ok"
// @Failure      400      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /payments/webhook [post]
func (h *PaymentHandler) HandleProviderWebhook(ctx *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(ctx.Request.Body, maxWebhookBytes))
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	err = h.svc.HandleProviderWebhook(ctx.Request.Context(), payload, ctx.GetHeader("Stripe-Signature"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWebhookSignature):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrWebhookSignature))
		case errors.Is(err, service.ErrTopupNotPending):
			// Retried delivery of an already-settled topup. Acknowledge so the
			// provider stops retrying.
			ctx.Status(http.StatusOK)
		case errors.Is(err, service.ErrTopupNotFound):
			response.RenderErr(ctx, response.ErrNotFound(service.ErrTopupNotFound))
		default:
			err = fmt.Errorf("v1.HandleProviderWebhook -> h.svc.HandleProviderWebhook -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.Status(http.StatusOK)
}

// HandleGetTopup godoc
// @Summary      Get a top-up by provider reference
// @Tags         payments
// @Produce      json
// @Param        providerRef   path   string true "provider reference"
// @Success      200      {object}   domain.CoinTopup
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /payments/topups/{providerRef} [get]
// @Security     BearerAuth
func (h *PaymentHandler) HandleGetTopup(ctx *gin.Context) {
	topup, err := h.svc.GetTopup(ctx.Request.Context(), ctx.Param("providerRef"))
	if err != nil {
		if errors.Is(err, service.ErrTopupNotFound) {
			response.RenderErr(ctx, response.ErrNotFound(service.ErrTopupNotFound))
			return
		}

		err = fmt.Errorf("v1.HandleGetTopup -> h.svc.GetTopup -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, topup)
}

// HandleGetMyTopups godoc
// @Summary      List the authenticated user's top-ups
// @Tags         payments
// @Produce      json
// @Success      200      {array}    domain.CoinTopup
// @Failure      401      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /payments/topups [get]
// @Security     BearerAuth
func (h *PaymentHandler) HandleGetMyTopups(ctx *gin.Context) {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(errors.New("missing authentication")))
		return
	}

	topups, err := h.svc.ListUserTopups(ctx.Request.Context(), userID)
	if err != nil {
		err = fmt.Errorf("v1.HandleGetMyTopups -> h.svc.ListUserTopups -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, topups)
}

// HandleGetMyLedger godoc
// @Summary      List the authenticated user's coin ledger
// @Tags         payments
// @Produce      json
// @Success      200      {array}    domain.CoinLedgerEntry
// @Failure      401      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /payments/ledger [get]
// @Security     BearerAuth
func (h *PaymentHandler) HandleGetMyLedger(ctx *gin.Context) {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(errors.New("missing authentication")))
		return
	}

	entries, err := h.svc.ListUserLedger(ctx.Request.Context(), userID, 100)
	if err != nil {
		err = fmt.Errorf("v1.HandleGetMyLedger -> h.svc.ListUserLedger -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, entries)
}
