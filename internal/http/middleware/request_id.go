package middleware

import (
	echo "github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"

	"github.com/jmehdipour/domain-offers/internal/util"
)

const ctxRequestID = "request_id"

// RequestIDFromCtx returns the id assigned by RequestID, or "" outside of it.
func RequestIDFromCtx(c echo.Context) string {
	id, _ := c.Get(ctxRequestID).(string)
	return id
}

// RequestID keeps an incoming X-Request-ID or assigns a ULID, echoes it in
// the response and stores it in the echo context.
func RequestID() echo.MiddlewareFunc {
	return echoMid.RequestIDWithConfig(echoMid.RequestIDConfig{
		Generator: util.NewRequestID,
		RequestIDHandler: func(c echo.Context, id string) {
			c.Set(ctxRequestID, id)
		},
	})
}
