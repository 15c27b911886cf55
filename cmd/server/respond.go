package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	json "github.com/goccy/go-json"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("encode response")
	}
}

func (s *server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Status: status, Message: message})
}

// decodeJSON reads a single JSON object from the request body. Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body must not be empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// overlay decodes a partial JSON object over base. An empty raw value leaves base as is.
func overlay[T any](raw json.RawMessage, base T) (T, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return base, nil
	}
	if err := json.Unmarshal(raw, &base); err != nil {
		return base, err
	}
	return base, nil
}
