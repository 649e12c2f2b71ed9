package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Hamza-Alami/vertexcp-sub000/src/services"
	"github.com/Hamza-Alami/vertexcp-sub000/src/utils"
	"github.com/go-chi/chi/v5"
)

// TransactionHandler executes trades and manages the transaction journal.
type TransactionHandler struct {
	ledger *services.LedgerService
}

func NewTransactionHandler(ledger *services.LedgerService) *TransactionHandler {
	return &TransactionHandler{ledger: ledger}
}

type orderRequest struct {
	Instrument string  `json:"instrument"`
	Price      float64 `json:"price"`
	Quantity   float64 `json:"quantity"`
}

func (h *TransactionHandler) HandleBuy(w http.ResponseWriter, r *http.Request) {
	clientID, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		utils.SendJSONError(w, "Invalid client id", http.StatusBadRequest)
		return
	}
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	record, err := h.ledger.Buy(r.Context(), clientID, req.Instrument, req.Price, req.Quantity)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, record, http.StatusCreated)
}

func (h *TransactionHandler) HandleSell(w http.ResponseWriter, r *http.Request) {
	clientID, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		utils.SendJSONError(w, "Invalid client id", http.StatusBadRequest)
		return
	}
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	record, err := h.ledger.Sell(r.Context(), clientID, req.Instrument, req.Price, req.Quantity)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, record, http.StatusCreated)
}

// HandleListTransactions returns a client's journal, newest first. Deleted
// transactions are included when ?include_deleted=true.
func (h *TransactionHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	clientID, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		utils.SendJSONError(w, "Invalid client id", http.StatusBadRequest)
		return
	}
	includeDeleted := r.URL.Query().Get("include_deleted") == "true"
	transactions, err := h.ledger.ListTransactions(clientID, includeDeleted)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, transactions, http.StatusOK)
}

// HandleDeleteTransaction soft-deletes a transaction, restoring the client's
// positions to the snapshot captured before it.
func (h *TransactionHandler) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		utils.SendJSONError(w, "Invalid transaction id", http.StatusBadRequest)
		return
	}
	if err := h.ledger.DeleteTransaction(r.Context(), id); err != nil {
		sendServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
