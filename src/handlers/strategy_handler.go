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

// StrategyHandler manages target-weight strategies.
type StrategyHandler struct{}

func NewStrategyHandler() *StrategyHandler {
	return &StrategyHandler{}
}

func decodeStrategy(r *http.Request) (models.Strategy, error) {
	var s models.Strategy
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		return models.Strategy{}, errors.New("invalid request body")
	}
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		return models.Strategy{}, errors.New("strategy name is required")
	}
	if s.Targets == nil {
		s.Targets = map[string]float64{}
	}
	return s, nil
}

func (h *StrategyHandler) ListStrategies(w http.ResponseWriter, r *http.Request) {
	strategies, err := model.ListStrategies(database.DB)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to list strategies", "error", err)
		utils.SendJSONError(w, "Failed to retrieve strategies", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, strategies, http.StatusOK)
}

func (h *StrategyHandler) CreateStrategy(w http.ResponseWriter, r *http.Request) {
	s, err := decodeStrategy(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := services.ValidateStrategyTargets(s.Targets); err != nil {
		sendServiceError(w, r, err)
		return
	}
	id, err := model.CreateStrategy(database.DB, s)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to create strategy", "name", s.Name, "error", err)
		utils.SendJSONError(w, "Failed to create strategy (name must be unique)", http.StatusConflict)
		return
	}
	s.ID = id
	utils.SendJSON(w, s, http.StatusCreated)
}

func (h *StrategyHandler) GetStrategy(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		utils.SendJSONError(w, "Invalid strategy id", http.StatusBadRequest)
		return
	}
	s, err := model.GetStrategyByID(database.DB, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			utils.SendJSONError(w, "Strategy not found", http.StatusNotFound)
			return
		}
		utils.SendJSONError(w, "Failed to retrieve strategy", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, s, http.StatusOK)
}

func (h *StrategyHandler) UpdateStrategy(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		utils.SendJSONError(w, "Invalid strategy id", http.StatusBadRequest)
		return
	}
	s, err := decodeStrategy(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.ID = id
	if err := services.ValidateStrategyTargets(s.Targets); err != nil {
		sendServiceError(w, r, err)
		return
	}
	n, err := model.UpdateStrategy(database.DB, s)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to update strategy", "strategyID", id, "error", err)
		utils.SendJSONError(w, "Failed to update strategy", http.StatusInternalServerError)
		return
	}
	if n == 0 {
		utils.SendJSONError(w, "Strategy not found", http.StatusNotFound)
		return
	}
	utils.SendJSON(w, s, http.StatusOK)
}

func (h *StrategyHandler) DeleteStrategy(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		utils.SendJSONError(w, "Invalid strategy id", http.StatusBadRequest)
		return
	}
	n, err := model.DeleteStrategy(database.DB, id)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to delete strategy", "strategyID", id, "error", err)
		utils.SendJSONError(w, "Failed to delete strategy", http.StatusInternalServerError)
		return
	}
	if n == 0 {
		utils.SendJSONError(w, "Strategy not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
