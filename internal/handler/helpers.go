package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/redline/internal/ai"
	"github.com/xxxsen/redline/internal/pkg/errcode"
	appErr "github.com/xxxsen/redline/internal/pkg/errors"
	"github.com/xxxsen/redline/internal/pkg/response"
)

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid "+name)
		return 0, false
	}
	return id, true
}

func badRequest(c *gin.Context, msg string) {
	response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, msg)
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logger := logutil.GetLogger(c.Request.Context()).With(
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	var (
		verrs     validation.Errors
		aggregate *ai.AggregateProviderError
		parseErr  *ai.ResponseParseError
		provErr   *ai.ProviderError
	)
	switch {
	case errors.As(err, &verrs):
		logger.Debug("request validation failed")
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, verrs.Error())
	case appErr.IsInvalid(err):
		logger.Debug("invalid request")
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, err.Error())
	case appErr.IsNotFound(err):
		response.Error(c, http.StatusNotFound, errcode.ErrNotFound, err.Error())
	case appErr.IsConflict(err):
		response.Error(c, http.StatusConflict, errcode.ErrConflict, err.Error())
	case errors.Is(err, appErr.ErrTooMany):
		response.Error(c, http.StatusTooManyRequests, errcode.ErrTooMany, err.Error())
	case errors.As(err, &aggregate):
		logger.Warn("all ai providers failed")
		response.Error(c, http.StatusBadGateway, errcode.ErrAIAllProvidersFailed, err.Error())
	case errors.Is(err, ai.ErrUnknownProvider):
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, err.Error())
	case errors.As(err, &parseErr):
		logger.Warn("ai response invalid")
		response.Error(c, http.StatusBadGateway, errcode.ErrAIResponseInvalid, err.Error())
	case errors.Is(err, ai.ErrMissingAPIKey):
		logger.Warn("ai provider not configured")
		response.Error(c, http.StatusServiceUnavailable, errcode.ErrAIUnavailable, err.Error())
	case errors.As(err, &provErr):
		logger.Warn("ai provider failed")
		response.Error(c, http.StatusBadGateway, errcode.ErrAIProviderFailed, err.Error())
	default:
		logger.Error("request failed")
		response.Error(c, http.StatusInternalServerError, errcode.ErrInternal, "internal error")
	}
}
