package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/baechuer/tutorhub/services/web-bff/internal/domain"
	"github.com/baechuer/tutorhub/services/web-bff/internal/logger"
	"github.com/baechuer/tutorhub/services/web-bff/internal/session"
	"github.com/baechuer/tutorhub/services/web-bff/middleware"
)

// maxBodyBytes bounds JSON request bodies from the browser.
const maxBodyBytes = 1 << 20

type APIError struct {
	Error struct {
		Code      string            `json:"code"`
		Message   string            `json:"message"`
		RequestID string            `json:"request_id,omitempty"`
		Meta      map[string]string `json:"meta,omitempty"`
	} `json:"error"`
}

func sendError(w http.ResponseWriter, r *http.Request, code string, message string, status int, meta map[string]string) {
	resp := APIError{}
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.RequestID = middleware.GetRequestID(r.Context())
	resp.Error.Meta = meta

	writeJSON(w, status, resp)
}

// WriteError renders err with the status its kind maps to. Remote errors keep
// the backend's status and message.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		de = domain.ErrInternal(err)
	}

	status := statusFor(de)
	if status >= 500 {
		logger.Ctx(r.Context()).Error().Err(err).Str("code", de.Code).Msg("request_failed")
	}
	sendError(w, r, de.Code, de.Message, status, de.Meta)
}

func statusFor(de *domain.Error) int {
	switch de.Kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindAuth:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindRateLimited:
		return http.StatusTooManyRequests
	case domain.KindRemote:
		if de.Status >= 400 {
			return de.Status
		}
		return http.StatusUnprocessableEntity
	case domain.KindUnavailable:
		if de.Code == "backend_timeout" {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a bounded JSON body into dst, normalizes it and validates
// it. An empty body decodes to the zero value before validation.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return domain.ErrInvalidJSON(err)
	}
	if n, ok := dst.(normalizer); ok {
		n.normalize()
	}
	return validateRequest(dst)
}

// sessionFrom returns the session attached to r.
func sessionFrom(r *http.Request) (*session.Store, error) {
	st := session.FromContext(r.Context())
	if st == nil {
		return nil, domain.ErrInternal(errors.New("no session attached"))
	}
	return st, nil
}

// Outcome is the reply of every mutating endpoint.
type Outcome struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	User    *domain.Identity `json:"user,omitempty"`
}
