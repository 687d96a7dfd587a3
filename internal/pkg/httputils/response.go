package httputils

import (
	"encoding/json"
	"net/http"

	"tush00nka/chato/api/response"
	"tush00nka/chato/internal/pkg/apperr"

	"github.com/charmbracelet/log"
)

func ResponseError(w http.ResponseWriter, errorCode int, errorMessage string) {
	ResponseJSON(w, errorCode, response.ErrorResponse{
		Message: errorMessage,
	})
}

func ResponseJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("failed to encode JSON response", "err", err)
	}
}

func ResponseData(w http.ResponseWriter, statusCode int, data any) {
	ResponseJSON(w, statusCode, response.DataResponse{Data: data})
}

// WriteError отвечает статусом по виду ошибки. Внутренние ошибки логируются,
// клиент получает общее сообщение.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.StatusCode(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	ResponseError(w, status, apperr.PublicMessage(err))
}
