package handlers

import (
	"net/http"

	"github.com/Hamza-Alami/vertexcp-sub000/src/services"
	"github.com/Hamza-Alami/vertexcp-sub000/src/utils"
	"github.com/go-chi/chi/v5"
)

// RebalanceHandler serves rebalancing simulations.
type RebalanceHandler struct {
	rebalance *services.RebalanceService
}

func NewRebalanceHandler(rebalance *services.RebalanceService) *RebalanceHandler {
	return &RebalanceHandler{rebalance: rebalance}
}

// HandleClientPlan simulates rebalancing one client toward its assigned strategy.
func (h *RebalanceHandler) HandleClientPlan(w http.ResponseWriter, r *http.Request) {
	clientID, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		utils.SendJSONError(w, "Invalid client id", http.StatusBadRequest)
		return
	}
	plan, err := h.rebalance.Plan(clientID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, plan, http.StatusOK)
}

// HandleAggregatePlan simulates a cohort as one virtual portfolio.
// Query: ?clients=1,2,3&strategy=4
func (h *RebalanceHandler) HandleAggregatePlan(w http.ResponseWriter, r *http.Request) {
	clientIDs, err := parseIDList(r.URL.Query().Get("clients"))
	if err != nil {
		utils.SendJSONError(w, "Invalid clients parameter", http.StatusBadRequest)
		return
	}
	strategyID, err := parseIDParam(r.URL.Query().Get("strategy"))
	if err != nil {
		utils.SendJSONError(w, "Invalid strategy parameter", http.StatusBadRequest)
		return
	}
	plan, err := h.rebalance.AggregatePlan(clientIDs, strategyID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, plan, http.StatusOK)
}

// HandleDrilldown reports one instrument across a cohort.
// Query: ?clients=1,2,3&strategy=4
func (h *RebalanceHandler) HandleDrilldown(w http.ResponseWriter, r *http.Request) {
	instrument := chi.URLParam(r, "name")
	clientIDs, err := parseIDList(r.URL.Query().Get("clients"))
	if err != nil {
		utils.SendJSONError(w, "Invalid clients parameter", http.StatusBadRequest)
		return
	}
	strategyID, err := parseIDParam(r.URL.Query().Get("strategy"))
	if err != nil {
		utils.SendJSONError(w, "Invalid strategy parameter", http.StatusBadRequest)
		return
	}
	drilldown, err := h.rebalance.Drilldown(instrument, clientIDs, strategyID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, drilldown, http.StatusOK)
}
