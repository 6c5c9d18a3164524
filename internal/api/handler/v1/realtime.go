package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mesmerism/api/internal/api/handler/v1/response"
	"github.com/mesmerism/api/internal/hub"
	"github.com/mesmerism/api/internal/pkg/jwthelper"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS already filters browser origins upstream.
	},
}

type RealtimeHandler struct {
	hub        *hub.Hub
	signingKey string
}

func NewRealtimeHandler(h *hub.Hub, signingKey string) *RealtimeHandler {
	return &RealtimeHandler{
		hub:        h,
		signingKey: signingKey,
	}
}

// HandleWebSocket godoc
// @Summary      Subscribe to the realtime channel
// @Description  Upgrades to WebSocket. Auth via token query param since browser WebSocket clients cannot set headers.
// @Tags         realtime
// @Produce      json
// @Param        token   query      string true "access token"
// @Success      101     {string}   string "Switching Protocols"
// @Failure      401     {object}   response.Err
// @Router       /realtime [get]
func (h *RealtimeHandler) HandleWebSocket(ctx *gin.Context) {
	token := ctx.Query("token")
	if token == "" {
		response.RenderErr(ctx, response.ErrUnauthorized(errors.New("missing token")))
		return
	}

	claims, err := jwthelper.ParseToken([]byte(h.signingKey), token)
	if err != nil || claims.Refresh {
		response.RenderErr(ctx, response.ErrUnauthorized(errors.New("invalid token")))
		return
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		zap.L().Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.hub.ServeClient(conn, claims.UserID)
}
