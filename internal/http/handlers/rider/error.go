package rider

import (
	"errors"

	handlershared "github.com/somar/dispatch/internal/http/handlers/shared"
	"github.com/somar/dispatch/internal/http/response"
	"github.com/somar/dispatch/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

func respondServiceError(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		response.ErrorWithData(c, response.CodeBadRequest, "validation failed", gin.H{
			"fields": validationErr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		respondError(c, response.CodeNotFound, "order not found", nil)
	case errors.Is(err, service.ErrRiderNotFound):
		respondError(c, response.CodeNotFound, "rider not found", nil)
	case errors.Is(err, service.ErrOrderTaken):
		respondError(c, response.CodeConflict, "another rider took this order", nil)
	case errors.Is(err, service.ErrInvalidTransition):
		respondError(c, response.CodeConflict, "order state does not allow this action", nil)
	case errors.Is(err, service.ErrRiderInactive):
		respondError(c, response.CodeForbidden, "rider account is disabled", nil)
	case errors.Is(err, service.ErrCustodyLimitReached):
		respondError(c, response.CodeForbidden, "settle your cash balance before taking cash orders", nil)
	case errors.Is(err, service.ErrNotOrderRider):
		respondError(c, response.CodeForbidden, "order belongs to another rider", nil)
	case errors.Is(err, service.ErrTransferNotConfirmed):
		respondError(c, response.CodeBadRequest, "transfer payment not validated yet", nil)
	case errors.Is(err, service.ErrMissingPurchaseProof):
		respondError(c, response.CodeBadRequest, "purchase total and receipt photo required", nil)
	case errors.Is(err, service.ErrUploadTooLarge),
		errors.Is(err, service.ErrUploadBadType),
		errors.Is(err, service.ErrUploadBadExt):
		respondError(c, response.CodeBadRequest, "receipt file rejected", err)
	default:
		respondError(c, response.CodeInternal, "internal error", err)
	}
}
