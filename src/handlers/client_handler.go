package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Hamza-Alami/vertexcp-sub000/src/database"
	"github.com/Hamza-Alami/vertexcp-sub000/src/logger"
	"github.com/Hamza-Alami/vertexcp-sub000/src/model"
	"github.com/Hamza-Alami/vertexcp-sub000/src/models"
	"github.com/Hamza-Alami/vertexcp-sub000/src/services"
	"github.com/Hamza-Alami/vertexcp-sub000/src/utils"
	"github.com/go-chi/chi/v5"
)

// ClientHandler manages client accounts and their billing parameters.
type ClientHandler struct {
	ledger *services.LedgerService
}

func NewClientHandler(ledger *services.LedgerService) *ClientHandler {
	return &ClientHandler{ledger: ledger}
}

type clientRequest struct {
	Name               string  `json:"name"`
	CommissionRate     float64 `json:"commission_rate"`
	TaxRate            float64 `json:"tax_rate"`
	ManagementFeeRate  float64 `json:"management_fee_rate"`
	IsPEA              bool    `json:"is_pea"`
	BillSurperformance bool    `json:"bill_surperformance"`
	InitialCash        float64 `json:"initial_cash"`
}

func (req *clientRequest) toClient() (models.Client, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return models.Client{}, errors.New("client name is required")
	}
	if req.CommissionRate < 0 || req.TaxRate < 0 || req.ManagementFeeRate < 0 {
		return models.Client{}, errors.New("rates must not be negative")
	}
	c := models.Client{
		Name:               name,
		CommissionRate:     req.CommissionRate,
		TaxRate:            req.TaxRate,
		ManagementFeeRate:  req.ManagementFeeRate,
		IsPEA:              req.IsPEA,
		BillSurperformance: req.BillSurperformance,
	}
	// Tax-exempt accounts never pay tax on gains.
	if c.IsPEA {
		c.TaxRate = 0
	}
	return c, nil
}

func (h *ClientHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := model.ListClients(database.DB)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to list clients", "error", err)
		utils.SendJSONError(w, "Failed to retrieve clients", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, clients, http.StatusOK)
}

func (h *ClientHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	c, err := req.toClient()
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.InitialCash < 0 {
		utils.SendJSONError(w, "initial cash must not be negative", http.StatusBadRequest)
		return
	}

	// Create the client together with its Cash position: every account must
	// hold Cash before its first buy.
	tx, err := database.DB.Begin()
	if err != nil {
		utils.SendJSONError(w, "Failed to create client", http.StatusInternalServerError)
		return
	}
	defer tx.Rollback()

	id, err := model.CreateClient(tx, c)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to create client", "name", c.Name, "error", err)
		utils.SendJSONError(w, "Failed to create client (name must be unique)", http.StatusConflict)
		return
	}
	if err := model.UpsertPosition(tx, id, models.CashInstrument, req.InitialCash, 1.0); err != nil {
		utils.SendJSONError(w, "Failed to create Cash position", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(); err != nil {
		utils.SendJSONError(w, "Failed to create client", http.StatusInternalServerError)
		return
	}

	c.ID = id
	utils.SendJSON(w, c, http.StatusCreated)
}

func (h *ClientHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		utils.SendJSONError(w, "Invalid client id", http.StatusBadRequest)
		return
	}
	c, err := model.GetClientByID(database.DB, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			utils.SendJSONError(w, "Client not found", http.StatusNotFound)
			return
		}
		utils.SendJSONError(w, "Failed to retrieve client", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, c, http.StatusOK)
}

// UpdateClient renames a client or updates its rates/flags in place.
func (h *ClientHandler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		utils.SendJSONError(w, "Invalid client id", http.StatusBadRequest)
		return
	}
	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	c, err := req.toClient()
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	c.ID = id

	if _, err := model.GetClientByID(database.DB, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			utils.SendJSONError(w, "Client not found", http.StatusNotFound)
			return
		}
		utils.SendJSONError(w, "Failed to retrieve client", http.StatusInternalServerError)
		return
	}
	if err := model.UpdateClient(database.DB, c); err != nil {
		logger.FromContext(r.Context()).Error("Failed to update client", "clientID", id, "error", err)
		utils.SendJSONError(w, "Failed to update client", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, c, http.StatusOK)
}

func (h *ClientHandler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		utils.SendJSONError(w, "Invalid client id", http.StatusBadRequest)
		return
	}
	n, err := model.DeleteClient(database.DB, id)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to delete client", "clientID", id, "error", err)
		utils.SendJSONError(w, "Failed to delete client", http.StatusInternalServerError)
		return
	}
	if n == 0 {
		utils.SendJSONError(w, "Client not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AssignStrategy points a client at a strategy, or clears the assignment
// when strategy_id is null.
func (h *ClientHandler) AssignStrategy(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		utils.SendJSONError(w, "Invalid client id", http.StatusBadRequest)
		return
	}
	var req struct {
		StrategyID *int64 `json:"strategy_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if _, err := model.GetClientByID(database.DB, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			utils.SendJSONError(w, "Client not found", http.StatusNotFound)
			return
		}
		utils.SendJSONError(w, "Failed to retrieve client", http.StatusInternalServerError)
		return
	}
	if req.StrategyID != nil {
		if _, err := model.GetStrategyByID(database.DB, *req.StrategyID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				utils.SendJSONError(w, "Strategy not found", http.StatusNotFound)
				return
			}
			utils.SendJSONError(w, "Failed to retrieve strategy", http.StatusInternalServerError)
			return
		}
	}
	if err := model.AssignStrategy(database.DB, id, req.StrategyID); err != nil {
		utils.SendJSONError(w, "Failed to assign strategy", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetPositions returns the client's positions revalued at current prices.
func (h *ClientHandler) GetPositions(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		utils.SendJSONError(w, "Invalid client id", http.StatusBadRequest)
		return
	}
	positions, total, err := h.ledger.PositionsWithValue(id)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, map[string]interface{}{
		"positions":   positions,
		"total_value": total,
	}, http.StatusOK)
}

// GetTotalPaid returns the sum of gross+fees over the client's live buys.
func (h *ClientHandler) GetTotalPaid(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		utils.SendJSONError(w, "Invalid client id", http.StatusBadRequest)
		return
	}
	total, err := h.ledger.TotalPaid(id)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, map[string]float64{"total_paid": total}, http.StatusOK)
}
