package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/retailops/backoffice/docs"
	"github.com/retailops/backoffice/internal/config"
	"github.com/retailops/backoffice/internal/database"
	"github.com/retailops/backoffice/internal/handlers"
	mW "github.com/retailops/backoffice/internal/middleware"
	"github.com/retailops/backoffice/internal/services"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Retail Back-Office Ledger API
// @version 1.0
// @description Journal entries, account reports and the store cash ledger
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// Initialize config
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")
	viper.BindEnv("database.auto_migrate", "DATABASE_AUTO_MIGRATE")

	viper.BindEnv("redis.enabled", "REDIS_ENABLED")
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")

	viper.BindEnv("ledger.balance_tolerance", "LEDGER_BALANCE_TOLERANCE")
	viper.BindEnv("ledger.entry_number_prefix", "LEDGER_ENTRY_NUMBER_PREFIX")
	viper.BindEnv("ledger.idempotency_ttl", "LEDGER_IDEMPOTENCY_TTL")
	viper.BindEnv("ledger.admin_role", "LEDGER_ADMIN_ROLE")

	viper.BindEnv("server.port", "PORT")
	viper.SetDefault("server.port", "8080")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	port := viper.GetString("server.port")
	docs.SwaggerInfo.Host = "localhost:" + port

	ctx := context.Background()

	db := database.InitDatabase(ctx)
	defer db.Close()

	redisClient := database.InitRedis(ctx)
	if redisClient != nil {
		defer redisClient.Close()
	}

	ledgerConfig := config.LoadLedgerConfig()

	ledgerService := services.NewLedgerService(db, ledgerConfig)
	chartService := services.NewChartService(db)
	autoPostService := services.NewAutoPostService(ledgerService, chartService, redisClient, ledgerConfig)
	cashService := services.NewCashLedgerService(services.NewSQLCashStore(db), ledgerConfig)
	eventService := services.NewBusinessEventService(autoPostService, cashService)

	journalHandler := handlers.NewJournalHandler(ledgerService)
	reportHandler := handlers.NewReportHandler(ledgerService)
	cashHandler := handlers.NewCashHandler(cashService)
	eventHandler := handlers.NewEventHandler(eventService)

	// Setup router
	r := chi.NewRouter()

	r.Use(mW.SecurityHeaders)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "healthy", "database": "up"}
		code := http.StatusOK
		if err := db.PingContext(r.Context()); err != nil {
			status["status"], status["database"] = "degraded", "down"
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(status)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mW.AuthMiddleware)

		r.Route("/journal-entries", func(r chi.Router) {
			r.Post("/", journalHandler.CreateEntry)
			r.Get("/", journalHandler.ListEntries)
			r.Get("/{id}", journalHandler.GetEntry)
			r.Put("/{id}", journalHandler.UpdateEntry)
			r.Delete("/{id}", journalHandler.DeleteEntry)
			r.Post("/{id}/post", journalHandler.PostEntry)
			r.Post("/{id}/reverse", journalHandler.ReverseEntry)
		})

		r.Get("/accounts/{accountId}/ledger", reportHandler.AccountLedger)
		r.Get("/accounts/{accountId}/balance", reportHandler.AccountBalance)
		r.Get("/reports/trial-balance", reportHandler.TrialBalance)

		r.Route("/cash", func(r chi.Router) {
			r.Get("/", cashHandler.GetBalance)
			r.Get("/transactions", cashHandler.GetTransactions)
			r.Post("/adjustments", cashHandler.Adjust)
			r.Post("/reversals", cashHandler.ReverseSource)
			r.With(mW.RequireRole(ledgerConfig.AdminRole)).Post("/reset", cashHandler.Reset)
		})

		r.Route("/events", func(r chi.Router) {
			r.Post("/expenses", eventHandler.Expense)
			r.Post("/purchase-invoices", eventHandler.PurchaseInvoice)
			r.Post("/invoice-payments", eventHandler.InvoicePayment)
			r.Post("/reimbursements", eventHandler.Reimbursement)
			r.Post("/daily-revenue", eventHandler.DailyRevenue)
		})
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
