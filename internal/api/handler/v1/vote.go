package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mesmerism/api/internal/api/handler/v1/request"
	"github.com/mesmerism/api/internal/api/handler/v1/response"
	"github.com/mesmerism/api/internal/api/middleware"
	"github.com/mesmerism/api/internal/domain"
	"github.com/mesmerism/api/internal/service"
)

type VoteService interface {
	PurchaseVotes(ctx context.Context, userID, creatorUserID, weekID uint, votes int) (domain.VoteOrder, int, error)
	CoinsPerVote() int
}

type VoteHandler struct {
	svc VoteService
}

func NewVoteHandler(svc VoteService) *VoteHandler {
	return &VoteHandler{
		svc: svc,
	}
}

// HandlePurchaseVotes godoc
// @Summary      Spend coins on votes for a creator
// @Description  Atomic purchase: the balance debit and the vote order land together or not at all.
// @Tags         votes
// @Produce      json
// @Param        request   body      request.PurchaseVotesRequest true "request body"
// @Success      201      {object}   response.PurchaseVotesResponse
// @Failure      400      {object}   response.Err
// @Failure      402      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /votes/purchase [post]
// @Security     BearerAuth
func (h *VoteHandler) HandlePurchaseVotes(ctx *gin.Context) {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(errors.New("missing authentication")))
		return
	}

	var req request.PurchaseVotesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	order, newBalance, err := h.svc.PurchaseVotes(ctx.Request.Context(), userID, req.CreatorUserID, req.WeekID, req.Votes)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInsufficientFunds):
			response.RenderErr(ctx, response.ErrInsufficientFunds(service.ErrInsufficientFunds))
		case errors.Is(err, service.ErrVotingClosed):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrVotingClosed))
		case errors.Is(err, service.ErrNotParticipant):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrNotParticipant))
		case errors.Is(err, service.ErrInvalidVoteCount):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrInvalidVoteCount))
		case errors.Is(err, service.ErrUserSuspended):
			response.RenderErr(ctx, response.ErrPermissionDenied(service.ErrUserSuspended))
		case errors.Is(err, service.ErrWeekNotFound):
			response.RenderErr(ctx, response.ErrNotFound(service.ErrWeekNotFound))
		default:
			err = fmt.Errorf("v1.HandlePurchaseVotes -> h.svc.PurchaseVotes -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusCreated, response.PurchaseVotesResponse{
		Order:      order,
		NewBalance: newBalance,
	})
}

// HandleGetVoteRate godoc
// @Summary      Get the coins-per-vote exchange rate
// @Tags         votes
// @Produce      json
// @Success      200      {object}   map[string]int
// @Router       /votes/rate [get]
// @Security     BearerAuth
func (h *VoteHandler) HandleGetVoteRate(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"coins_per_vote": h.svc.CoinsPerVote()})
}
