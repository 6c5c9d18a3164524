package v1

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mesmerism/api/internal/api/handler/v1/response"
	"github.com/mesmerism/api/internal/api/middleware"
	"github.com/mesmerism/api/internal/domain"
	"github.com/mesmerism/api/internal/service"
)

// maxAvatarBytes caps avatar uploads at 2 MiB.
const maxAvatarBytes = 2 << 20

type UserService interface {
	GetUser(ctx context.Context, id uint) (domain.User, error)
	GetProfile(ctx context.Context, userID uint) (domain.Profile, error)
	GetSelfOverview(ctx context.Context, userID uint) (domain.UserOverview, error)
	GetBalance(ctx context.Context, userID uint) (int, error)
	UploadAvatar(ctx context.Context, userID uint, filename, contentType string, body io.Reader) (string, error)
}

type UserHandler struct {
	svc UserService
}

func NewUserHandler(svc UserService) *UserHandler {
	return &UserHandler{
		svc: svc,
	}
}

// HandleGetSelfOverview godoc
// @Summary      Get the authenticated user's overview
// @Description  Identity, display fields, coin balance, roles and active suspension.
// @Tags         users
// @Produce      json
// @Success      200      {object}   domain.UserOverview
// @Failure      401      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /users/me [get]
// @Security     BearerAuth
func (h *UserHandler) HandleGetSelfOverview(ctx *gin.Context) {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(errors.New("missing authentication")))
		return
	}

	overview, err := h.svc.GetSelfOverview(ctx.Request.Context(), userID)
	if err != nil {
		err = fmt.Errorf("v1.HandleGetSelfOverview -> h.svc.GetSelfOverview -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, overview)
}

// HandleGetBalance godoc
// @Summary      Get the authenticated user's coin balance
// @Description  Authoritative balance read, used by clients to reconcile after reconnects.
// @Tags         users
// @Produce      json
// @Success      200      {object}   response.BalanceResponse
// @Failure      401      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /users/me/balance [get]
// @Security     BearerAuth
func (h *UserHandler) HandleGetBalance(ctx *gin.Context) {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(errors.New("missing authentication")))
		return
	}

	balance, err := h.svc.GetBalance(ctx.Request.Context(), userID)
	if err != nil {
		err = fmt.Errorf("v1.HandleGetBalance -> h.svc.GetBalance -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.BalanceResponse{Balance: balance})
}

// HandleGetUser godoc
// @Summary      Get a user by id
// @Tags         users
// @Produce      json
// @Param        userID   path       int true "user ID"
// @Success      200      {object}   domain.User
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /users/{userID} [get]
// @Security     BearerAuth
func (h *UserHandler) HandleGetUser(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("userID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(errors.New("invalid user ID")))
		return
	}

	user, err := h.svc.GetUser(ctx.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.RenderErr(ctx, response.ErrNotFound(service.ErrUserNotFound))
			return
		}

		err = fmt.Errorf("v1.HandleGetUser -> h.svc.GetUser -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// HandleGetProfile godoc
// @Summary      Get a user's public profile
// @Description  Display fields shown next to the user in chat and on the leaderboard.
// @Tags         users
// @Produce      json
// @Param        userID   path       int true "user ID"
// @Success      200      {object}   domain.Profile
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /users/{userID}/profile [get]
// @Security     BearerAuth
func (h *UserHandler) HandleGetProfile(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("userID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(errors.New("invalid user ID")))
		return
	}

	profile, err := h.svc.GetProfile(ctx.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.RenderErr(ctx, response.ErrNotFound(service.ErrUserNotFound))
			return
		}

		err = fmt.Errorf("v1.HandleGetProfile -> h.svc.GetProfile -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, profile)
}

// HandleUploadAvatar godoc
// @Summary      Upload the authenticated user's avatar
// @Tags         users
// @Accept       mpfd
// @Produce      json
// @Param        avatar   formData   file true "avatar image"
// @Success      200      {object}   response.AvatarResponse
// @Failure      400      {object}   response.Err
// @Failure      401      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /users/me/avatar [post]
// @Security     BearerAuth
func (h *UserHandler) HandleUploadAvatar(ctx *gin.Context) {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(errors.New("missing authentication")))
		return
	}

	fileHeader, err := ctx.FormFile("avatar")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(errors.New("avatar file is required")))
		return
	}
	if fileHeader.Size > maxAvatarBytes {
		response.RenderErr(ctx, response.ErrBadRequest(errors.New("avatar exceeds the 2MB limit")))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	defer file.Close()

	url, err := h.svc.UploadAvatar(
		ctx.Request.Context(),
		userID,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		err = fmt.Errorf("v1.HandleUploadAvatar -> h.svc.UploadAvatar -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.AvatarResponse{AvatarURL: url})
}
