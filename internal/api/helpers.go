// RiskWatch - Intrusion Detection Risk Scoring and Live Dashboard
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/nurrustem/riskwatch/internal/logging"
	"github.com/nurrustem/riskwatch/internal/models"
	"github.com/nurrustem/riskwatch/internal/validation"
)

const maxRequestBody = 1 << 20 // 1MB

// Error codes used in API responses.
const (
	codeValidation = "VALIDATION_ERROR"
	codeNotFound   = "NOT_FOUND"
	codeDatabase   = "DATABASE_ERROR"
	codeIngest     = "INGEST_ERROR"
)

// respondJSON writes the success envelope with query timing metadata.
func respondJSON(w http.ResponseWriter, status int, data any, start time.Time) {
	resp := models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	}
	writeEnvelope(w, status, &resp)
}

// respondError writes the error envelope.
func respondError(w http.ResponseWriter, status int, apiErr *models.APIError) {
	resp := models.APIResponse{
		Status: "error",
		Error:  apiErr,
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
		},
	}
	writeEnvelope(w, status, &resp)
}

func writeEnvelope(w http.ResponseWriter, status int, resp *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Err(err).Msg("Failed to encode response")
	}
}

// decodeAndValidate reads a bounded JSON body into dst and validates it.
// On failure the error response has already been written.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, &models.APIError{
			Code:    codeValidation,
			Message: "Invalid JSON body",
		})
		return false
	}
	if err := validation.Struct(dst); err != nil {
		var verr *validation.RequestValidationError
		if errors.As(err, &verr) {
			respondError(w, http.StatusBadRequest, verr.ToAPIError())
		} else {
			respondError(w, http.StatusBadRequest, &models.APIError{
				Code:    codeValidation,
				Message: "Request validation failed",
			})
		}
		return false
	}
	return true
}

// queryInt parses an integer query parameter with a default and bounds.
func queryInt(r *http.Request, name string, def, minVal, maxVal int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < minVal {
		return def
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// queryFloat parses an optional float query parameter. Returns (0, false)
// when absent or malformed.
func queryFloat(r *http.Request, name string) (float64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// sanitizeLogValue strips control characters from user input before it
// reaches structured logs.
func sanitizeLogValue(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
	if len(cleaned) > 128 {
		cleaned = cleaned[:128]
	}
	return cleaned
}
