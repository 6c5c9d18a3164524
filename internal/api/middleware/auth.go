package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mesmerism/api/internal/api/handler/v1/response"
	"github.com/mesmerism/api/internal/pkg/jwthelper"
)

// ContextKeyUserID is where VerifyJWT stores the authenticated user id.
const ContextKeyUserID = "userID"

var (
	errMissingToken   = errors.New("missing or malformed authorization header")
	errInvalidToken   = errors.New("invalid or expired token")
	errRefreshAsAuth  = errors.New("refresh token cannot be used for authentication")
	errNotEnoughPrivs = errors.New("insufficient permissions")
)

type Authenticator struct {
	signingKey string
}

func NewAuthenticator(signingKey string) *Authenticator {
	return &Authenticator{
		signingKey: signingKey,
	}
}

// VerifyJWT authenticates the bearer token and stores the user id on the gin
// context. Refresh tokens are rejected here; they are only good at the
// refresh endpoint.
func (a *Authenticator) VerifyJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			response.RenderErr(ctx, response.ErrUnauthorized(errMissingToken))
			return
		}

		claims, err := jwthelper.ParseToken([]byte(a.signingKey), token)
		if err != nil {
			response.RenderErr(ctx, response.ErrUnauthorized(errInvalidToken))
			return
		}
		if claims.Refresh {
			response.RenderErr(ctx, response.ErrUnauthorized(errRefreshAsAuth))
			return
		}

		ctx.Set(ContextKeyUserID, claims.UserID)
		ctx.Next()
	}
}

// UserIDFromContext reads the id VerifyJWT stored earlier in the chain.
func UserIDFromContext(ctx *gin.Context) (uint, bool) {
	v, ok := ctx.Get(ContextKeyUserID)
	if !ok {
		return 0, false
	}

	id, ok := v.(uint)
	return id, ok
}

type RoleChecker interface {
	HasRole(ctx context.Context, userID uint, role string) (bool, error)
}

// RequireRole gates a route group on the authenticated user carrying the
// role. Must run after VerifyJWT.
func RequireRole(checker RoleChecker, role string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		userID, ok := UserIDFromContext(ctx)
		if !ok {
			response.RenderErr(ctx, response.ErrUnauthorized(errMissingToken))
			return
		}

		hasRole, err := checker.HasRole(ctx.Request.Context(), userID, role)
		if err != nil {
			response.RenderErr(ctx, response.ErrInternalServerError(err))
			return
		}
		if !hasRole {
			response.RenderErr(ctx, response.ErrPermissionDenied(errNotEnoughPrivs))
			return
		}

		ctx.Next()
	}
}
