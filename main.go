package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"time"

	"github.com/Hamza-Alami/vertexcp-sub000/src/config"
	"github.com/Hamza-Alami/vertexcp-sub000/src/database"
	"github.com/Hamza-Alami/vertexcp-sub000/src/handlers"
	"github.com/Hamza-Alami/vertexcp-sub000/src/logger"
	"github.com/Hamza-Alami/vertexcp-sub000/src/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowed := map[string]bool{}
		for _, o := range config.Cfg.AllowedOrigins {
			allowed[o] = true
		}

		if allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("Vertexcp advisory backend starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath)

	reportCache := cache.New(config.Cfg.ReportCacheExpiration, 2*config.Cfg.ReportCacheExpiration)

	priceService := services.NewPriceService(
		database.DB,
		config.Cfg.QuotesURL,
		config.Cfg.BenchmarkSymbol,
		config.Cfg.PriceFreshnessWindow,
		config.Cfg.PriceFetchTimeout,
	)

	ledgerService := services.NewLedgerService(database.DB, priceService)
	rebalanceService := services.NewRebalanceService(database.DB, priceService)
	performanceService := services.NewPerformanceService(database.DB, ledgerService, priceService)
	capWeightService := services.NewCapWeightService(database.DB, priceService)

	clientHandler := handlers.NewClientHandler(ledgerService)
	txHandler := handlers.NewTransactionHandler(ledgerService)
	rebalanceHandler := handlers.NewRebalanceHandler(rebalanceService)
	performanceHandler := handlers.NewPerformanceHandler(performanceService)
	marketHandler := handlers.NewMarketHandler(priceService, capWeightService, reportCache)
	strategyHandler := handlers.NewStrategyHandler()

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Vertexcp backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/clients", clientHandler.ListClients)
		r.Post("/clients", clientHandler.CreateClient)
		r.Get("/clients/{id}", clientHandler.GetClient)
		r.Put("/clients/{id}", clientHandler.UpdateClient)
		r.Delete("/clients/{id}", clientHandler.DeleteClient)
		r.Put("/clients/{id}/strategy", clientHandler.AssignStrategy)
		r.Get("/clients/{id}/positions", clientHandler.GetPositions)
		r.Get("/clients/{id}/total-paid", clientHandler.GetTotalPaid)

		r.Post("/clients/{id}/buy", txHandler.HandleBuy)
		r.Post("/clients/{id}/sell", txHandler.HandleSell)
		r.Get("/clients/{id}/transactions", txHandler.HandleListTransactions)
		r.Delete("/transactions/{id}", txHandler.HandleDeleteTransaction)

		r.Get("/clients/{id}/rebalance", rebalanceHandler.HandleClientPlan)
		r.Get("/rebalance/aggregate", rebalanceHandler.HandleAggregatePlan)
		r.Get("/rebalance/instrument/{name}", rebalanceHandler.HandleDrilldown)

		r.Get("/clients/{id}/performance", performanceHandler.HandleClientReport)
		r.Get("/clients/{id}/performance-periods", performanceHandler.HandleListPeriods)
		r.Post("/clients/{id}/performance-periods", performanceHandler.HandleCreatePeriod)
		r.Put("/performance-periods/{id}", performanceHandler.HandleUpdatePeriod)
		r.Delete("/performance-periods/{id}", performanceHandler.HandleDeletePeriod)

		r.Get("/instruments", marketHandler.HandleListInstruments)
		r.Post("/instruments", marketHandler.HandleUpsertInstrument)
		r.Post("/prices/refresh", marketHandler.HandleRefreshPrices)
		r.Get("/market/cap-weights", marketHandler.HandleCapWeights)

		r.Get("/strategies", strategyHandler.ListStrategies)
		r.Post("/strategies", strategyHandler.CreateStrategy)
		r.Get("/strategies/{id}", strategyHandler.GetStrategy)
		r.Put("/strategies/{id}", strategyHandler.UpdateStrategy)
		r.Delete("/strategies/{id}", strategyHandler.DeleteStrategy)
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
