package response

import (
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Err is the JSON error envelope every endpoint returns on failure. Code
// carries a machine-readable reason when clients need to branch on it.
type Err struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code,omitempty"`
	Msg        string `json:"error"`

	cause error
}

func (e *Err) Error() string {
	return e.Msg
}

// RenderErr writes the error envelope and aborts the request. Server-side
// failures are logged with the request id; client mistakes are not.
func RenderErr(ctx *gin.Context, err *Err) {
	if err.StatusCode >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("request_id", requestid.Get(ctx)),
			zap.Int("status", err.StatusCode),
			zap.Error(err.cause),
		)
	}

	ctx.AbortWithStatusJSON(err.StatusCode, err)
}

func ErrBadRequest(err error) *Err {
	return &Err{
		StatusCode: http.StatusBadRequest,
		Msg:        err.Error(),
		cause:      err,
	}
}

func ErrUnauthorized(err error) *Err {
	return &Err{
		StatusCode: http.StatusUnauthorized,
		Msg:        err.Error(),
		cause:      err,
	}
}

func ErrWrongCredentials(err error) *Err {
	return &Err{
		StatusCode: http.StatusUnauthorized,
		Msg:        "wrong credentials",
		cause:      err,
	}
}

func ErrPermissionDenied(err error) *Err {
	return &Err{
		StatusCode: http.StatusForbidden,
		Msg:        err.Error(),
		cause:      err,
	}
}

func ErrNotFound(err error) *Err {
	return &Err{
		StatusCode: http.StatusNotFound,
		Msg:        err.Error(),
		cause:      err,
	}
}

func ErrConflict(err error) *Err {
	return &Err{
		StatusCode: http.StatusConflict,
		Msg:        err.Error(),
		cause:      err,
	}
}

// ErrInsufficientFunds carries the INSUFFICIENT_FUNDS code so the purchase
// flow can route the user to the top-up screen instead of a generic error.
func ErrInsufficientFunds(err error) *Err {
	return &Err{
		StatusCode: http.StatusPaymentRequired,
		Code:       "INSUFFICIENT_FUNDS",
		Msg:        err.Error(),
		cause:      err,
	}
}

func ErrInternalServerError(err error) *Err {
	return &Err{
		StatusCode: http.StatusInternalServerError,
		Msg:        "internal server error",
		cause:      err,
	}
}
