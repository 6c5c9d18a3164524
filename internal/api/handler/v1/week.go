package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mesmerism/api/internal/api/handler/v1/request"
	"github.com/mesmerism/api/internal/api/handler/v1/response"
	"github.com/mesmerism/api/internal/domain"
	"github.com/mesmerism/api/internal/service"
)

type WeekService interface {
	CreateWeek(ctx context.Context, week domain.CompetitionWeek) (domain.CompetitionWeek, error)
	UpdateWeek(ctx context.Context, week domain.CompetitionWeek) (domain.CompetitionWeek, error)
	GetWeek(ctx context.Context, id uint) (domain.CompetitionWeek, error)
	ListWeeks(ctx context.Context) ([]domain.CompetitionWeek, error)
	CurrentWeek(ctx context.Context) (domain.CompetitionWeek, error)
	AddParticipant(ctx context.Context, weekID, creatorUserID uint) error
}

type LeaderboardService interface {
	WeekLeaderboard(ctx context.Context, weekID uint) ([]domain.WeekStanding, error)
}

type WeekHandler struct {
	svc         WeekService
	leaderboard LeaderboardService
}

func NewWeekHandler(svc WeekService, leaderboard LeaderboardService) *WeekHandler {
	return &WeekHandler{
		svc:         svc,
		leaderboard: leaderboard,
	}
}

// HandleGetWeeks godoc
// @Summary      List competition weeks
// @Tags         weeks
// @Produce      json
// @Success      200      {array}    domain.CompetitionWeek
// @Failure      500      {object}   response.Err
// @Router       /weeks [get]
// @Security     BearerAuth
func (h *WeekHandler) HandleGetWeeks(ctx *gin.Context) {
	weeks, err := h.svc.ListWeeks(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleGetWeeks -> h.svc.ListWeeks -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, weeks)
}

// HandleGetCurrentWeek godoc
// @Summary      Get the week currently open for voting
// @Tags         weeks
// @Produce      json
// @Success      200      {object}   domain.CompetitionWeek
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /weeks/current [get]
// @Security     BearerAuth
func (h *WeekHandler) HandleGetCurrentWeek(ctx *gin.Context) {
	week, err := h.svc.CurrentWeek(ctx.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrWeekNotFound) {
			response.RenderErr(ctx, response.ErrNotFound(service.ErrWeekNotFound))
			return
		}

		err = fmt.Errorf("v1.HandleGetCurrentWeek -> h.svc.CurrentWeek -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, week)
}

// HandleGetLeaderboard godoc
// @Summary      Get the ranked leaderboard for a week
// @Tags         weeks
// @Produce      json
// @Param        weekID   path       int true "week ID"
// @Success      200      {array}    domain.WeekStanding
// @Failure      400      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /weeks/{weekID}/leaderboard [get]
// @Security     BearerAuth
func (h *WeekHandler) HandleGetLeaderboard(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("weekID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(errors.New("invalid week ID")))
		return
	}

	standings, err := h.leaderboard.WeekLeaderboard(ctx.Request.Context(), uint(id))
	if err != nil {
		err = fmt.Errorf("v1.HandleGetLeaderboard -> h.leaderboard.WeekLeaderboard -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, standings)
}

// HandleCreateWeek godoc
// @Summary      Create a competition week
// @Tags         weeks,admin
// @Produce      json
// @Param        request   body      request.CreateWeekRequest true "request body"
// @Success      201      {object}   domain.CompetitionWeek
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /admin/weeks [post]
// @Security     BearerAuth
func (h *WeekHandler) HandleCreateWeek(ctx *gin.Context) {
	var req request.CreateWeekRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	week, err := h.svc.CreateWeek(ctx.Request.Context(), domain.CompetitionWeek{
		Title:    req.Title,
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
		IsActive: req.IsActive,
	})
	if err != nil {
		err = fmt.Errorf("v1.HandleCreateWeek -> h.svc.CreateWeek -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, week)
}

// HandleUpdateWeek godoc
// @Summary      Update a competition week
// @Tags         weeks,admin
// @Produce      json
// @Param        weekID    path      int true "week ID"
// @Param        request   body      request.UpdateWeekRequest true "request body"
// @Success      200      {object}   domain.CompetitionWeek
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /admin/weeks/{weekID} [put]
// @Security     BearerAuth
func (h *WeekHandler) HandleUpdateWeek(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("weekID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(errors.New("invalid week ID")))
		return
	}

	var req request.UpdateWeekRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	week, err := h.svc.UpdateWeek(ctx.Request.Context(), domain.CompetitionWeek{
		ID:       uint(id),
		Title:    req.Title,
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
		IsActive: req.IsActive,
	})
	if err != nil {
		if errors.Is(err, service.ErrWeekNotFound) {
			response.RenderErr(ctx, response.ErrNotFound(service.ErrWeekNotFound))
			return
		}

		err = fmt.Errorf("v1.HandleUpdateWeek -> h.svc.UpdateWeek -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, week)
}

// HandleAddParticipant godoc
// @Summary      Enter a creator into a competition week
// @Tags         weeks,admin
// @Produce      json
// @Param        weekID    path      int true "week ID"
// @Param        request   body      request.AddParticipantRequest true "request body"
// @Success      204      {string}   string "no content"
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /admin/weeks/{weekID}/participants [post]
// @Security     BearerAuth
func (h *WeekHandler) HandleAddParticipant(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("weekID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(errors.New("invalid week ID")))
		return
	}

	var req request.AddParticipantRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := h.svc.AddParticipant(ctx.Request.Context(), uint(id), req.CreatorUserID); err != nil {
		if errors.Is(err, service.ErrWeekNotFound) {
			response.RenderErr(ctx, response.ErrNotFound(service.ErrWeekNotFound))
			return
		}

		err = fmt.Errorf("v1.HandleAddParticipant -> h.svc.AddParticipant -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}
