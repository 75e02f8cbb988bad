package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sudanerr/formscan/internal/common"
)

type errorBody struct {
	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

// writeError renders a pipeline error as JSON, carrying the failed
// stage so callers can tell an OCR outage from a bad upload.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	}

	body := errorBody{Error: err.Error(), Stage: common.StageOf(err)}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		body.Code = appErr.Code
		body.Error = appErr.Message
		if appErr.Code == "PROJECT_NOT_FOUND" {
			status = http.StatusNotFound
		}
	}

	if status >= 500 {
		s.logger.Error("request failed", "status", status, "stage", body.Stage, "error", err)
	} else {
		s.logger.Warn("request rejected", "status", status, "stage", body.Stage, "error", err)
	}
	s.writeJSON(w, status, body)
}
