package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	apperrors "github.com/startupjobs/jobboard-service/internal/errors"
)

type errorBody struct {
	Code      apperrors.ErrorCode `json:"code"`
	Message   string              `json:"message"`
	RequestID string              `json:"request_id,omitempty"`
	Fields    map[string]string   `json:"fields,omitempty"`
	Input     any                 `json:"input,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func statusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeValidation:
		return http.StatusUnprocessableEntity
	case apperrors.ErrCodeInvalidTransition:
		return http.StatusConflict
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrCodeStorage:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Warn("failed to encode response")
	}
}

// writeError maps err onto the JSON error envelope. input, when non-nil, is echoed back so a
// client can redisplay what was submitted.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, input any) {
	code := apperrors.CodeOf(err)
	status := statusFor(code)
	body := errorBody{
		Code:      code,
		Message:   err.Error(),
		RequestID: requestIDFrom(r.Context()),
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		body.Fields = appErr.Fields
	}
	if apperrors.IsValidation(err) {
		body.Input = input
	}

	log := s.logger.WithError(err).WithFields(logrus.Fields{
		"request_id": body.RequestID,
		"code":       code,
	})
	if status >= http.StatusInternalServerError {
		log.Error("request failed")
		if code == apperrors.ErrCodeInternal {
			body.Message = "internal error"
		}
	} else {
		log.Debug("request rejected")
	}

	s.writeJSON(w, status, errorEnvelope{Error: body})
}
