package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/fault"
)

// errorBody is the failure response: a categorical status and a
// human-readable detail.
type errorBody struct {
	Status string `json:"status"`
	Detail string `json:"detail"`
	Report any    `json:"report,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

// writeError maps err to its status code and writes an errorBody.
func writeError(w http.ResponseWriter, err error) {
	writeErrorReport(w, err, nil)
}

func writeErrorReport(w http.ResponseWriter, err error, report any) {
	status := fault.HTTPStatus(err)
	kind := string(fault.KindOf(err))
	if kind == "" {
		kind = "internal_error"
	}
	if status >= http.StatusInternalServerError {
		zap.L().Error("server: request failed", zap.Error(err))
	}
	writeJSON(w, status, errorBody{Status: kind, Detail: fault.Detail(err), Report: report})
}

// writeUnprocessable reports a missing or malformed request parameter.
func writeUnprocessable(w http.ResponseWriter, detail string) {
	writeJSON(w, http.StatusUnprocessableEntity, errorBody{Status: "unprocessable", Detail: detail})
}

// decodeBody decodes a JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
