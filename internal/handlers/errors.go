package handlers

import (
	"kanbanBoard/internal/logger"
	"kanbanBoard/internal/middleware"
	"kanbanBoard/internal/service"
	"net/http"

	"go.uber.org/zap"
)

// handleError отвечает кодом бизнес-ошибки, всё остальное становится
// обезличенным 500, подробности уходят только в лог.
func handleError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	if businessErr, ok := service.AsBusinessError(err); ok {
		statusCode := mapBusinessErrorToHTTP(businessErr.Code)

		logLevel := zap.WarnLevel
		if statusCode >= http.StatusInternalServerError {
			logLevel = zap.ErrorLevel
		}
		logger.Log(logLevel, "HTTP: Бизнес-ошибка",
			zap.String("operation", operation),
			zap.String("error_code", businessErr.Code),
			zap.Int("http_status", statusCode),
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err))

		responseWithJSON(w, statusCode,
			toPayload("error", businessErr.Code),
			toPayload("message", businessErr.Message),
			toPayload("details", businessErr.Details),
		)
		return
	}

	logger.Error("HTTP: Ошибка Service", err,
		zap.String("operation", operation),
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.String("client_ip", r.RemoteAddr))
	responseInternalError(w)
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeValidation:
		return http.StatusBadRequest
	case service.CodeStaleSnapshot:
		return http.StatusConflict
	case service.CodeMoveIncomplete:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func validationError(w http.ResponseWriter, r *http.Request, field, reason string) {
	handleError(w, r, service.NewValidationError(field, reason), "validate")
}
