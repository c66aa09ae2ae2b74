package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/parkingtime-identity/internal/domain/apperror"
	"github.com/oksasatya/parkingtime-identity/pkg/response"
	"github.com/oksasatya/parkingtime-identity/pkg/validation"
)

// statusOf maps an error kind onto the HTTP status it is reported with.
func statusOf(kind apperror.Kind) int {
	switch kind {
	case apperror.KindInvalidArgument:
		return http.StatusBadRequest
	case apperror.KindConflict:
		return http.StatusConflict
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindUnauthorized:
		return http.StatusUnauthorized
	case apperror.KindForbidden:
		return http.StatusForbidden
	case apperror.KindCoverUp:
		return http.StatusAccepted
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err. A CoverUp is written as an ordinary success.
func writeError(c *gin.Context, logger logrus.FieldLogger, err error) {
	ae, ok := apperror.As(err)
	if !ok {
		ae = apperror.Internal(err)
	}
	status := statusOf(ae.Kind)

	switch ae.Kind {
	case apperror.KindCoverUp:
		response.Success[any](c, status, nil, ae.Message, nil)
		return
	case apperror.KindInternal:
		if logger != nil {
			logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		}
		response.Error(c, status, "internal server error", nil)
		return
	}

	body := response.ErrorBody{Code: ae.Kind.String()}
	if ae.Subtype != "" {
		body.Code = ae.Subtype
	}
	if len(ae.Details) > 0 {
		body.Details = ae.Details
	}
	response.Error(c, status, ae.Message, body)
}

func invalidPayload(c *gin.Context, err error) {
	response.Error(c, http.StatusBadRequest, "invalid payload", response.ErrorBody{
		Code:    apperror.KindInvalidArgument.String(),
		Details: validation.ToDetails(err),
	})
}
