package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"greencart/pkg/errors"
	"greencart/pkg/logger"
)

const maxBodyBytes = 1 << 20

// errorBody is the JSON shape of every error response
type errorBody struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// fieldError is one validation failure in a 400 response
type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Get().Warnw("Failed to encode response", "error", err)
	}
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorBody{Error: msg})
}

// writeError maps domain errors onto HTTP status codes. Unexpected errors are
// logged and reported; their text never reaches the client.
func writeError(ctx context.Context, w http.ResponseWriter, log *logger.Logger, summary string, err error) {
	if fields := validationFields(err); len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "validation failed", Details: fields})
		return
	}

	switch {
	case errors.Is(err, errors.ErrInvalidInput),
		errors.Is(err, errors.ErrNoDrivers),
		errors.Is(err, errors.ErrNoOrders):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: summary, Details: err.Error()})
	case errors.Is(err, errors.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "not found")
	case errors.Is(err, errors.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody{Error: summary, Details: err.Error()})
	case errors.Is(err, errors.ErrUnauthorized), errors.Is(err, errors.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, errors.ErrForbidden), errors.Is(err, errors.ErrAccountDisabled):
		writeMessage(w, http.StatusForbidden, err.Error())
	default:
		log.ErrorWithContext(ctx, errors.Wrap(err, summary), map[string]string{"component": "api"})
		writeMessage(w, http.StatusInternalServerError, summary)
	}
}

func validationFields(err error) []fieldError {
	var multi *errors.MultiError
	if errors.As(err, &multi) {
		var out []fieldError
		for _, e := range multi.Errors {
			out = append(out, validationFields(e)...)
		}
		return out
	}
	var verr *errors.ValidationError
	if errors.As(err, &verr) {
		return []fieldError{{Field: verr.Field, Message: verr.Message}}
	}
	return nil
}

// decodeJSON reads a bounded JSON body into dst, rejecting unknown fields
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "malformed JSON body: %v", err)
	}
	return nil
}

// queryInt reads an optional positive integer query parameter
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, errors.NewValidationError(name, "must be a positive integer", raw)
	}
	return v, nil
}

func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, errors.NewValidationError("id", "must be a positive integer", raw)
	}
	return id, nil
}
