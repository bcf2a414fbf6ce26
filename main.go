package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	apihttp "fueltrack/internal/api/http"
	"fueltrack/internal/audit"
	"fueltrack/internal/auth"
	"fueltrack/internal/consumption"
	"fueltrack/internal/estimate"
	"fueltrack/internal/eventing"
	"fueltrack/internal/observability/metrics"
	"fueltrack/internal/pricing"
	readingsapp "fueltrack/internal/readings/application"
	reading "fueltrack/internal/readings/domain"
	readingsmemory "fueltrack/internal/readings/infrastructure/memory"
	readingspostgres "fueltrack/internal/readings/infrastructure/postgres"
	readingshttp "fueltrack/internal/readings/interfaces/http"
	tariffapp "fueltrack/internal/tariff/application"
	tariffevents "fueltrack/internal/tariff/application/events"
	tariffdomain "fueltrack/internal/tariff/domain"
	tariffmemory "fueltrack/internal/tariff/infrastructure/memory"
	tariffpostgres "fueltrack/internal/tariff/infrastructure/postgres"
	tariffhttp "fueltrack/internal/tariff/interfaces/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	_ = godotenv.Load()
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	var db *sql.DB
	var entryRepo reading.Repository
	var tariffRepo tariffdomain.Repository
	var auditLogger audit.Logger

	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("db ping error: %v", err)
		}
		entryRepo = readingspostgres.NewEntryRepository(db)
		tariffRepo = tariffpostgres.NewTariffRepository(db)
		auditLogger = audit.NewRepository(db)
	} else {
		logger.Printf("DATABASE_URL not set, using in-memory storage")
		entryRepo = readingsmemory.NewEntryRepository()
		tariffRepo = tariffmemory.NewTariffRepository()
	}

	metrics.Init(db, logger)

	bus := eventing.NewInMemoryBus()

	tariffService, err := tariffapp.NewTariffService(tariffRepo, bus, tariffapp.WithLogger(logger))
	if err != nil {
		logger.Fatalf("tariff service error: %v", err)
	}

	estimator, err := estimate.NewEstimator(estimate.SystemClock{})
	if err != nil {
		logger.Fatalf("estimator error: %v", err)
	}

	metered := toSet(cfg.MeteredSubjects)
	odometerBased := toSet(cfg.OdometerSubjects)
	entryService, err := readingsapp.NewEntryService(entryRepo, estimator, bus,
		readingsapp.WithLogger(logger),
		readingsapp.WithSemanticsResolver(func(subjectID string) reading.Semantics {
			if _, ok := odometerBased[subjectID]; ok {
				return reading.SemanticsCumulative
			}
			return reading.SemanticsAdditive
		}),
		readingsapp.WithCostResolver(func(ctx context.Context, subjectID string) (consumption.CostFunc, error) {
			if _, ok := metered[subjectID]; ok {
				return tariffService.CostResolver()(ctx, subjectID)
			}
			return nil, nil
		}),
	)
	if err != nil {
		logger.Fatalf("entry service error: %v", err)
	}

	// Tariff edits change the cost of every derived point for metered
	// subjects, so cached series are dropped wholesale.
	eventing.SubscribeTo(bus, func(_ context.Context, event tariffevents.TariffChanged) error {
		logger.Printf("tariff changed: period=%s deleted=%t", event.PeriodID, event.Deleted)
		entryService.Invalidate()
		return nil
	})

	sources, err := pricing.LoadSources(cfg.PriceSourcesPath)
	if err != nil {
		logger.Fatalf("price sources error: %v", err)
	}
	aggregator, err := pricing.NewAggregator(sources, pricing.WithLogger(logger))
	if err != nil {
		logger.Fatalf("price aggregator error: %v", err)
	}

	entriesHandler, err := readingshttp.NewHandler(entryService, auditLogger)
	if err != nil {
		logger.Fatalf("entries handler error: %v", err)
	}
	tariffsHandler, err := tariffhttp.NewHandler(tariffService, auditLogger)
	if err != nil {
		logger.Fatalf("tariffs handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/entries", entriesHandler)
	mux.Handle("/api/v1/entries/", entriesHandler)
	mux.Handle("/api/v1/tariffs", tariffsHandler)
	mux.Handle("/api/v1/tariffs/", tariffsHandler)
	mux.Handle("/api/v1/analytics/usage", apihttp.NewUsageHandler(entryService))
	mux.Handle("/api/v1/analytics/series", apihttp.NewSeriesHandler(entryService))
	mux.Handle("/api/v1/prices", apihttp.NewPricesHandler(aggregator))
	mux.Handle("/api/v1/exports/", apihttp.NewExportUsageHandler(entryService))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL      string
	HTTPAddr         string
	JWTSecret        string
	PriceSourcesPath string
	MeteredSubjects  []string
	OdometerSubjects []string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:      getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:         getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:        getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		PriceSourcesPath: getenvDefault("PRICE_SOURCES_FILE", ""),
		MeteredSubjects:  splitList(getenvDefault("METERED_SUBJECTS", "")),
		OdometerSubjects: splitList(getenvDefault("ODOMETER_SUBJECTS", "")),
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		set[value] = struct{}{}
	}
	return set
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
