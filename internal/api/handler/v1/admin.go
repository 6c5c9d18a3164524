package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mesmerism/api/internal/api/handler/v1/request"
	"github.com/mesmerism/api/internal/api/handler/v1/response"
	"github.com/mesmerism/api/internal/domain"
	"github.com/mesmerism/api/internal/service"
)

type SuspensionService interface {
	Suspend(ctx context.Context, targetUserID uint, reason string, expiresAt *time.Time) (domain.UserSuspension, error)
	Clear(ctx context.Context, targetUserID uint) error
	ActiveSuspension(ctx context.Context, userID uint) (domain.UserSuspension, error)
}

type RoleService interface {
	GrantRole(ctx context.Context, userID uint, role string) error
	RevokeRole(ctx context.Context, userID uint, role string) error
}

type AdminTopupService interface {
	ListAllTopups(ctx context.Context, limit int) ([]domain.CoinTopup, error)
}

type AdminHandler struct {
	suspensions SuspensionService
	roles       RoleService
	topups      AdminTopupService
}

func NewAdminHandler(suspensions SuspensionService, roles RoleService, topups AdminTopupService) *AdminHandler {
	return &AdminHandler{
		suspensions: suspensions,
		roles:       roles,
		topups:      topups,
	}
}

// HandleSuspendUser godoc
// @Summary      Suspend a user
// @Description  A nil expires_at suspends until cleared. Affected clients see a banner immediately.
// @Tags         admin
// @Produce      json
// @Param        request   body      request.SuspendUserRequest true "request body"
// @Success      201      {object}   domain.UserSuspension
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /admin/suspensions [post]
// @Security     BearerAuth
func (h *AdminHandler) HandleSuspendUser(ctx *gin.Context) {
	var req request.SuspendUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	suspension, err := h.suspensions.Suspend(ctx.Request.Context(), req.UserID, req.Reason, req.ExpiresAt)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.RenderErr(ctx, response.ErrNotFound(service.ErrUserNotFound))
			return
		}

		err = fmt.Errorf("v1.HandleSuspendUser -> h.suspensions.Suspend -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, suspension)
}

// HandleClearSuspension godoc
// @Summary      Clear a user's suspensions
// @Tags         admin
// @Produce      json
// @Param        userID   path       int true "user ID"
// @Success      204      {string}   string "no content"
// @Failure      400      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /admin/suspensions/{userID} [delete]
// @Security     BearerAuth
func (h *AdminHandler) HandleClearSuspension(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("userID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(errors.New("invalid user ID")))
		return
	}

	if err := h.suspensions.Clear(ctx.Request.Context(), uint(id)); err != nil {
		if errors.Is(err, service.ErrSuspensionNotFound) {
			response.RenderErr(ctx, response.ErrNotFound(service.ErrSuspensionNotFound))
			return
		}

		err = fmt.Errorf("v1.HandleClearSuspension -> h.suspensions.Clear -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleGetSuspension godoc
// @Summary      Get a user's active suspension
// @Tags         admin
// @Produce      json
// @Param        userID   path       int true "user ID"
// @Success      200      {object}   domain.UserSuspension
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /admin/suspensions/{userID} [get]
// @Security     BearerAuth
func (h *AdminHandler) HandleGetSuspension(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("userID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(errors.New("invalid user ID")))
		return
	}

	suspension, err := h.suspensions.ActiveSuspension(ctx.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, service.ErrSuspensionNotFound) {
			response.RenderErr(ctx, response.ErrNotFound(service.ErrSuspensionNotFound))
			return
		}

		err = fmt.Errorf("v1.HandleGetSuspension -> h.suspensions.ActiveSuspension -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, suspension)
}

// HandleGrantRole godoc
// @Summary      Grant a role to a user
// @Tags         admin
// @Produce      json
// @Param        request   body      request.RoleRequest true "request body"
// @Success      204      {string}   string "no content"
// @Failure      400      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /admin/roles [post]
// @Security     BearerAuth
func (h *AdminHandler) HandleGrantRole(ctx *gin.Context) {
	var req request.RoleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := h.roles.GrantRole(ctx.Request.Context(), req.UserID, req.Role); err != nil {
		if errors.Is(err, service.ErrInvalidRole) {
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrInvalidRole))
			return
		}

		err = fmt.Errorf("v1.HandleGrantRole -> h.roles.GrantRole -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleRevokeRole godoc
// @Summary      Revoke a role from a user
// @Tags         admin
// @Produce      json
// @Param        request   body      request.RoleRequest true "request body"
// @Success      204      {string}   string "no content"
// @Failure      400      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /admin/roles [delete]
// @Security     BearerAuth
func (h *AdminHandler) HandleRevokeRole(ctx *gin.Context) {
	var req request.RoleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := h.roles.RevokeRole(ctx.Request.Context(), req.UserID, req.Role); err != nil {
		if errors.Is(err, service.ErrInvalidRole) {
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrInvalidRole))
			return
		}

		err = fmt.Errorf("v1.HandleRevokeRole -> h.roles.RevokeRole -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleGetAllTopups godoc
// @Summary      List recent top-ups across all users
// @Tags         admin
// @Produce      json
// @Param        limit    query      int false "page size (default 100)"
// @Success      200      {array}    domain.CoinTopup
// @Failure      500      {object}   response.Err
// @Router       /admin/topups [get]
// @Security     BearerAuth
func (h *AdminHandler) HandleGetAllTopups(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "100"))

	topups, err := h.topups.ListAllTopups(ctx.Request.Context(), limit)
	if err != nil {
		err = fmt.Errorf("v1.HandleGetAllTopups -> h.topups.ListAllTopups -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, topups)
}
