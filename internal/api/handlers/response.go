package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/infrastructure/observability"
	apperrors "github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/pkg/errors"
)

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, code string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": code,
	})
}

// respondWithAppError maps err onto its public code and status. Internal details stay in the log.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	if appErr, ok := apperrors.As(err); ok {
		if appErr.HTTPStatus() >= http.StatusInternalServerError {
			observability.LoggerFromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		}
		respondWithError(w, appErr.HTTPStatus(), appErr.PublicCode())
		return
	}

	observability.LoggerFromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	respondWithError(w, http.StatusInternalServerError, apperrors.CodeServerError)
}
