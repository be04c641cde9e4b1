package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/matzehuels/forgemap/pkg/entity"
	apperr "github.com/matzehuels/forgemap/pkg/errors"
	"github.com/matzehuels/forgemap/pkg/explore"
	"github.com/matzehuels/forgemap/pkg/forge"
	"github.com/matzehuels/forgemap/pkg/share"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Code      apperr.Code `json:"code"`
	Message   string      `json:"message"`
	Retryable bool        `json:"retryable,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, e *apperr.Error) {
	writeJSON(w, apperr.HTTPStatus(e.Code), errorBody{
		Code:      e.Code,
		Message:   apperr.UserMessage(e),
		Retryable: e.Temporary(),
	})
}

// fail classifies err, logs server-side failures and writes the response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	e := toAPIError(err)
	if apperr.HTTPStatus(e.Code) >= http.StatusInternalServerError || e.Code == apperr.ErrCodeNetwork {
		s.logger.Warn("request failed", "path", r.URL.Path, "code", e.Code, "error", err)
	}
	writeError(w, e)
}

// toAPIError maps package sentinel errors to error codes.
func toAPIError(err error) *apperr.Error {
	var e *apperr.Error
	if errors.As(err, &e) {
		return e
	}
	code := apperr.ErrCodeInternal
	switch {
	case errors.Is(err, share.ErrInvalidToken):
		code = apperr.ErrCodeInvalidToken
	case errors.Is(err, explore.ErrUnknownNode):
		code = apperr.ErrCodeUnknownNode
	case errors.Is(err, explore.ErrUnknownAction), errors.Is(err, entity.ErrUnknownType):
		code = apperr.ErrCodeInvalidInput
	case errors.Is(err, ErrWorkspaceNotFound), errors.Is(err, ErrWorkspaceExpired):
		code = apperr.ErrCodeWorkspaceNotFound
	case errors.Is(err, explore.ErrSuperseded), errors.Is(err, context.Canceled):
		code = apperr.ErrCodeSuperseded
	case errors.Is(err, forge.ErrNotFound):
		code = apperr.ErrCodeNotFound
	case errors.Is(err, forge.ErrRateLimited):
		code = apperr.ErrCodeRateLimited
	case errors.Is(err, forge.ErrNetwork), errors.Is(err, context.DeadlineExceeded):
		code = apperr.ErrCodeNetwork
	}
	return apperr.Wrap(code, err, "%s", err.Error())
}

// decode reads a JSON request body into v.
func decode(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return apperr.New(apperr.ErrCodeInvalidInput, "invalid JSON body: %v", err)
	}
	return nil
}
