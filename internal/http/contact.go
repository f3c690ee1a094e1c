package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/jmehdipour/domain-offers/internal/http/middleware"
	"github.com/jmehdipour/domain-offers/internal/metrics"
	"github.com/jmehdipour/domain-offers/internal/model"
	"github.com/jmehdipour/domain-offers/internal/service/relay"
)

const msgInternal = "Internal server error"

func contactHandler(svc *relay.Service, log *zap.Logger) echo.HandlerFunc {
	log = log.With(zap.String("component", "contact"))

	return func(c echo.Context) error {
		reqID := middleware.RequestIDFromCtx(c)

		var req model.SubmissionPayload
		if err := c.Bind(&req); err != nil {
			metrics.SubmissionsTotal.WithLabelValues("error").Inc()
			log.Error("decode contact payload", zap.String("request_id", reqID), zap.Error(err))

			return c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: msgInternal})
		}

		res, err := svc.Submit(c.Request().Context(), req, relay.RequestMeta{
			RemoteIP:  c.RealIP(),
			UserAgent: c.Request().UserAgent(),
			RequestID: reqID,
		})
		if err != nil {
			var ve *relay.ValidationError
			var ce *relay.ChallengeVerificationError

			switch {
			case errors.As(err, &ve):
				return c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: ve.Message})
			case errors.As(err, &ce):
				log.Warn("challenge rejected", zap.String("request_id", reqID), zap.Error(ce.Err))
				return c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: relay.MsgChallengeFailed})
			default:
				log.Error("contact submission failed", zap.String("request_id", reqID), zap.Error(err))
				return c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: msgInternal})
			}
		}

		c.Response().Header().Set("X-Inquiry-ID", res.InquiryID)

		return c.JSON(http.StatusOK, model.ContactResponse{
			Success:          true,
			ConfirmationSent: res.ConfirmationSent,
		})
	}
}
