package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Hamza-Alami/vertexcp-sub000/src/database"
	"github.com/Hamza-Alami/vertexcp-sub000/src/logger"
	"github.com/Hamza-Alami/vertexcp-sub000/src/model"
	"github.com/Hamza-Alami/vertexcp-sub000/src/models"
	"github.com/Hamza-Alami/vertexcp-sub000/src/services"
	"github.com/Hamza-Alami/vertexcp-sub000/src/utils"
	"github.com/patrickmn/go-cache"
)

const capWeightsCacheKey = "capweights"

// MarketHandler manages instrument metadata and serves market-level views.
type MarketHandler struct {
	prices      services.PriceService
	capWeights  *services.CapWeightService
	reportCache *cache.Cache
}

func NewMarketHandler(prices services.PriceService, capWeights *services.CapWeightService, reportCache *cache.Cache) *MarketHandler {
	return &MarketHandler{prices: prices, capWeights: capWeights, reportCache: reportCache}
}

func (h *MarketHandler) HandleListInstruments(w http.ResponseWriter, r *http.Request) {
	instruments, err := model.ListInstruments(database.DB)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to list instruments", "error", err)
		utils.SendJSONError(w, "Failed to retrieve instruments", http.StatusInternalServerError)
		return
	}
	// Serve current prices through the oracle so fresh quotes win over the
	// persisted last price.
	for i := range instruments {
		if p := h.prices.PriceOf(instruments[i].Name); p > 0 {
			instruments[i].Price = p
		}
	}
	utils.SendJSON(w, instruments, http.StatusOK)
}

// HandleUpsertInstrument creates or updates an instrument's metadata.
func (h *MarketHandler) HandleUpsertInstrument(w http.ResponseWriter, r *http.Request) {
	var req models.Instrument
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		utils.SendJSONError(w, "Instrument name is required", http.StatusBadRequest)
		return
	}
	if req.Name == models.CashInstrument {
		utils.SendJSONError(w, "Cash metadata is fixed", http.StatusBadRequest)
		return
	}
	if req.Price < 0 || req.ShareCount < 0 || req.FloatFactor < 0 {
		utils.SendJSONError(w, "Instrument fields must not be negative", http.StatusBadRequest)
		return
	}
	if err := model.UpsertInstrument(database.DB, req); err != nil {
		logger.FromContext(r.Context()).Error("Failed to upsert instrument", "name", req.Name, "error", err)
		utils.SendJSONError(w, "Failed to save instrument", http.StatusInternalServerError)
		return
	}
	h.reportCache.Delete(capWeightsCacheKey)
	utils.SendJSON(w, req, http.StatusOK)
}

// HandleRefreshPrices triggers a live quotes fetch.
func (h *MarketHandler) HandleRefreshPrices(w http.ResponseWriter, r *http.Request) {
	if err := h.prices.RefreshPrices(r.Context()); err != nil {
		sendServiceError(w, r, err)
		return
	}
	h.reportCache.Delete(capWeightsCacheKey)
	w.WriteHeader(http.StatusNoContent)
}

// HandleCapWeights serves float-adjusted market-cap weights, cached briefly
// since the underlying metadata changes rarely.
func (h *MarketHandler) HandleCapWeights(w http.ResponseWriter, r *http.Request) {
	if cached, found := h.reportCache.Get(capWeightsCacheKey); found {
		utils.SendJSON(w, cached, http.StatusOK)
		return
	}
	weights, err := h.capWeights.Weights()
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to compute cap weights", "error", err)
		utils.SendJSONError(w, "Failed to compute cap weights", http.StatusInternalServerError)
		return
	}
	h.reportCache.SetDefault(capWeightsCacheKey, weights)
	utils.SendJSON(w, weights, http.StatusOK)
}
