package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Hamza-Alami/vertexcp-sub000/src/models"
	"github.com/Hamza-Alami/vertexcp-sub000/src/services"
	"github.com/Hamza-Alami/vertexcp-sub000/src/utils"
	"github.com/go-chi/chi/v5"
)

// PerformanceHandler serves performance reports and manages performance
// periods.
type PerformanceHandler struct {
	performance *services.PerformanceService
}

func NewPerformanceHandler(performance *services.PerformanceService) *PerformanceHandler {
	return &PerformanceHandler{performance: performance}
}

// HandleClientReport computes the report for the client's latest period, or
// for a specific one when ?period= is given.
func (h *PerformanceHandler) HandleClientReport(w http.ResponseWriter, r *http.Request) {
	clientID, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		utils.SendJSONError(w, "Invalid client id", http.StatusBadRequest)
		return
	}

	var report models.PerformanceReport
	if periodParam := r.URL.Query().Get("period"); periodParam != "" {
		periodID, err := parseIDParam(periodParam)
		if err != nil {
			utils.SendJSONError(w, "Invalid period parameter", http.StatusBadRequest)
			return
		}
		report, err = h.performance.ReportForPeriod(periodID)
		if err != nil {
			sendServiceError(w, r, err)
			return
		}
	} else {
		report, err = h.performance.LatestReport(clientID)
		if err != nil {
			sendServiceError(w, r, err)
			return
		}
	}
	utils.SendJSON(w, report, http.StatusOK)
}

func (h *PerformanceHandler) HandleListPeriods(w http.ResponseWriter, r *http.Request) {
	clientID, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		utils.SendJSONError(w, "Invalid client id", http.StatusBadRequest)
		return
	}
	periods, err := h.performance.ListPeriods(clientID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, periods, http.StatusOK)
}

func (h *PerformanceHandler) HandleCreatePeriod(w http.ResponseWriter, r *http.Request) {
	clientID, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		utils.SendJSONError(w, "Invalid client id", http.StatusBadRequest)
		return
	}
	var req models.PerformancePeriod
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.ClientID = clientID
	period, err := h.performance.CreatePeriod(req)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, period, http.StatusCreated)
}

func (h *PerformanceHandler) HandleUpdatePeriod(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		utils.SendJSONError(w, "Invalid period id", http.StatusBadRequest)
		return
	}
	var req models.PerformancePeriod
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.ID = id
	if err := h.performance.UpdatePeriod(req); err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, req, http.StatusOK)
}

func (h *PerformanceHandler) HandleDeletePeriod(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		utils.SendJSONError(w, "Invalid period id", http.StatusBadRequest)
		return
	}
	if err := h.performance.DeletePeriod(id); err != nil {
		sendServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
