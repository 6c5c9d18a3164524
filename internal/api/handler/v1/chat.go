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
	"github.com/mesmerism/api/internal/api/middleware"
	"github.com/mesmerism/api/internal/domain"
	"github.com/mesmerism/api/internal/service"
)

type ChatService interface {
	PostMessage(ctx context.Context, authorID uint, text string) (domain.ChatMessage, error)
	PostSystemMessage(ctx context.Context, adminID uint, text string) (domain.ChatMessage, error)
	ListMessages(ctx context.Context, before *time.Time, limit int) ([]domain.ChatMessage, error)
	MarkMessageDeleted(ctx context.Context, messageID, deletedBy uint) (domain.ChatMessage, error)
}

type ChatHandler struct {
	svc ChatService
}

func NewChatHandler(svc ChatService) *ChatHandler {
	return &ChatHandler{
		svc: svc,
	}
}

// HandleGetMessages godoc
// @Summary      Get chat messages
// @Description  Returns messages newest first. Pass before (RFC3339) to page backwards.
// @Tags         chat
// @Produce      json
// @Param        before   query      string false "only messages created before this timestamp"
// @Param        limit    query      int    false "page size (default 50, max 100)"
// @Success      200      {array}    domain.ChatMessage
// @Failure      400      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /chat/messages [get]
// @Security     BearerAuth
func (h *ChatHandler) HandleGetMessages(ctx *gin.Context) {
	var before *time.Time
	if raw := ctx.Query("before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.RenderErr(ctx, response.ErrBadRequest(errors.New("before must be an RFC3339 timestamp")))
			return
		}
		before = &t
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))

	messages, err := h.svc.ListMessages(ctx.Request.Context(), before, limit)
	if err != nil {
		err = fmt.Errorf("v1.HandleGetMessages -> h.svc.ListMessages -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, messages)
}

// HandlePostMessage godoc
// @Summary      Post a chat message
// @Tags         chat
// @Produce      json
// @Param        request   body      request.PostMessageRequest true "request body"
// @Success      201      {object}   domain.ChatMessage
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /chat/messages [post]
// @Security     BearerAuth
func (h *ChatHandler) HandlePostMessage(ctx *gin.Context) {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(errors.New("missing authentication")))
		return
	}

	var req request.PostMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	message, err := h.svc.PostMessage(ctx.Request.Context(), userID, req.Message)
	if err != nil {
		if errors.Is(err, service.ErrUserSuspended) {
			response.RenderErr(ctx, response.ErrPermissionDenied(service.ErrUserSuspended))
			return
		}

		err = fmt.Errorf("v1.HandlePostMessage -> h.svc.PostMessage -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, message)
}

// HandleDeleteMessage godoc
// @Summary      Soft-delete a chat message
// @Description  Moderator action. The row is kept with its text cleared so clients drop it.
// @Tags         chat
// @Produce      json
// @Param        messageID   path    int true "message ID"
// @Success      200      {object}   domain.ChatMessage
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /chat/messages/{messageID} [delete]
// @Security     BearerAuth
func (h *ChatHandler) HandleDeleteMessage(ctx *gin.Context) {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(errors.New("missing authentication")))
		return
	}

	id, err := strconv.ParseUint(ctx.Param("messageID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(errors.New("invalid message ID")))
		return
	}

	message, err := h.svc.MarkMessageDeleted(ctx.Request.Context(), uint(id), userID)
	if err != nil {
		if errors.Is(err, service.ErrMessageNotFound) {
			response.RenderErr(ctx, response.ErrNotFound(service.ErrMessageNotFound))
			return
		}

		err = fmt.Errorf("v1.HandleDeleteMessage -> h.svc.MarkMessageDeleted -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, message)
}

// HandlePostAnnouncement godoc
// @Summary      Post a system announcement
// @Description  Admin action. The message lands in chat attributed to the system author.
// @Tags         chat,admin
// @Produce      json
// @Param        request   body      request.AnnouncementRequest true "request body"
// @Success      201      {object}   domain.ChatMessage
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /admin/announcements [post]
// @Security     BearerAuth
func (h *ChatHandler) HandlePostAnnouncement(ctx *gin.Context) {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(errors.New("missing authentication")))
		return
	}

	var req request.AnnouncementRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	message, err := h.svc.PostSystemMessage(ctx.Request.Context(), userID, req.Message)
	if err != nil {
		err = fmt.Errorf("v1.HandlePostAnnouncement -> h.svc.PostSystemMessage -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, message)
}
