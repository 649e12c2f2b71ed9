package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Hamza-Alami/vertexcp-sub000/src/logger"
	"github.com/Hamza-Alami/vertexcp-sub000/src/model"
	"github.com/Hamza-Alami/vertexcp-sub000/src/models"
	"github.com/patrickmn/go-cache"
)

const indexCacheKey = "index"

func priceCacheKey(name string) string { return "price:" + name }

// quotesResponse is the JSON document served by the quotes endpoint.
type quotesResponse struct {
	Index  float64 `json:"index"`
	Quotes []struct {
		Instrument string  `json:"instrument"`
		Price      float64 `json:"price"`
	} `json:"quotes"`
}

// marketPriceService resolves prices through three tiers: a fresh in-memory
// cache bounded by the freshness window, the last fetched value persisted in
// the instruments and daily_prices tables, then 0 (= unknown).
type marketPriceService struct {
	db              *sql.DB
	httpClient      http.Client
	freshCache      *cache.Cache
	quotesURL       string
	benchmarkSymbol string
}

// NewPriceService builds the tiered price oracle. freshnessWindow bounds how
// long a fetched quote is served without hitting the stale tier.
func NewPriceService(db *sql.DB, quotesURL, benchmarkSymbol string, freshnessWindow, fetchTimeout time.Duration) PriceService {
	return &marketPriceService{
		db:              db,
		httpClient:      http.Client{Timeout: fetchTimeout},
		freshCache:      cache.New(freshnessWindow, 2*freshnessWindow),
		quotesURL:       quotesURL,
		benchmarkSymbol: benchmarkSymbol,
	}
}

func (s *marketPriceService) PriceOf(name string) float64 {
	if name == models.CashInstrument {
		return 1.0
	}
	if v, found := s.freshCache.Get(priceCacheKey(name)); found {
		return v.(float64)
	}
	// Stale tier: last price stored on the instrument row, then the most
	// recent daily close.
	in, err := model.GetInstrument(s.db, name)
	if err == nil && in.Price > 0 {
		return in.Price
	}
	price, err := model.GetLatestDailyPrice(s.db, name)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.L.Error("Failed to read stale price", "instrument", name, "error", err)
		}
		return 0
	}
	return price
}

func (s *marketPriceService) IndexLevel() float64 {
	if v, found := s.freshCache.Get(indexCacheKey); found {
		return v.(float64)
	}
	level, err := model.GetLatestDailyPrice(s.db, s.benchmarkSymbol)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.L.Error("Failed to read stale index level", "error", err)
		}
		return 0
	}
	return level
}

func (s *marketPriceService) RefreshPrices(ctx context.Context) error {
	if s.quotesURL == "" {
		return fmt.Errorf("%w: no quotes endpoint configured", ErrDependencyUnavailable)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.quotesURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: quotes endpoint returned %s", ErrDependencyUnavailable, resp.Status)
	}

	var doc quotesResponse
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
	}

	today := time.Now().UTC().Format("2006-01-02")
	for _, q := range doc.Quotes {
		if q.Instrument == "" || q.Instrument == models.CashInstrument || q.Price < 0 {
			continue
		}
		s.freshCache.SetDefault(priceCacheKey(q.Instrument), q.Price)
		// Writes to the stale tier are best effort for the cache but must
		// not silently lose the instrument's last price.
		if err := model.UpdateInstrumentPrice(s.db, q.Instrument, q.Price); err != nil {
			logger.L.Error("Failed to persist instrument price", "instrument", q.Instrument, "error", err)
		}
		if err := model.UpsertDailyPrice(s.db, q.Instrument, today, q.Price); err != nil {
			logger.L.Warn("Failed to record daily price", "instrument", q.Instrument, "error", err)
		}
	}
	if doc.Index > 0 {
		s.freshCache.SetDefault(indexCacheKey, doc.Index)
		if err := model.UpsertDailyPrice(s.db, s.benchmarkSymbol, today, doc.Index); err != nil {
			logger.L.Warn("Failed to record index level", "error", err)
		}
	}

	logger.L.Info("Market prices refreshed", "quotes", len(doc.Quotes), "index", doc.Index)
	return nil
}
