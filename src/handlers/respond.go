package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Hamza-Alami/vertexcp-sub000/src/logger"
	"github.com/Hamza-Alami/vertexcp-sub000/src/services"
	"github.com/Hamza-Alami/vertexcp-sub000/src/utils"
)

// sendServiceError maps engine error kinds to HTTP statuses.
func sendServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case errors.Is(err, services.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrNoSuchPosition):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrAlreadyDeleted), errors.Is(err, services.ErrConcurrentModification):
		status = http.StatusConflict
	case errors.Is(err, services.ErrInsufficientCash), errors.Is(err, services.ErrInsufficientQuantity):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrDependencyUnavailable):
		status = http.StatusServiceUnavailable
	default:
		logger.FromContext(r.Context()).Error("Unhandled service error", "path", r.URL.Path, "error", err)
		utils.SendJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	utils.SendJSONError(w, err.Error(), status)
}

// parseIDParam parses a numeric URL parameter.
func parseIDParam(value string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(value), 10, 64)
}

// parseIDList parses a comma-separated list of numeric ids, e.g. "1,2,3".
func parseIDList(value string) ([]int64, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	parts := strings.Split(value, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := parseIDParam(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
