package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"voicepanels/internal/insights"

	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 4 << 20

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeServiceError maps insight errors onto status codes. Store failures
// are logged and reported without their cause.
func writeServiceError(w http.ResponseWriter, log *logrus.Entry, err error) {
	switch {
	case insights.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case insights.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case insights.IsUpstream(err):
		log.WithError(err).Error("upstream failure")
		writeError(w, http.StatusBadGateway, "evaluation store unavailable")
	default:
		log.WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &insights.ValidationError{Msg: "invalid request body"}
	}
	return nil
}

// queryLimit reads ?limit=, zero when absent and at most insights.MaxLimit
func queryLimit(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, &insights.ValidationError{Msg: "limit must be a non-negative integer"}
	}
	if n > insights.MaxLimit {
		n = insights.MaxLimit
	}
	return n, nil
}
