// internal/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kmrl/metrodocs/internal/services"
	"github.com/kmrl/metrodocs/internal/utils"
)

var kindStatus = map[services.ErrorKind]int{
	services.KindValidation:   http.StatusBadRequest,
	services.KindConflict:     http.StatusConflict,
	services.KindUnauthorized: http.StatusUnauthorized,
	services.KindNotFound:     http.StatusNotFound,
	services.KindConfig:       http.StatusBadRequest,
	services.KindUpstream:     http.StatusBadGateway,
	services.KindInternal:     http.StatusInternalServerError,
}

func statusFor(err error) int {
	if status, ok := kindStatus[services.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondError writes err as {"error": message} with the status of its kind.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)

	message := "Internal server error"
	var serviceErr *services.ServiceError
	if errors.As(err, &serviceErr) && serviceErr.Message != "" {
		message = serviceErr.Message
	}

	if status >= http.StatusInternalServerError {
		logrus.WithError(err).WithField("request_id", utils.GetRequestIDFromContext(c)).Error("Request failed")
	}
	utils.ErrorResponse(c, status, message)
}
