package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/config"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/enrich"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/geocode"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/logger"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/metrics"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/service"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/store"
	"go.uber.org/zap"
)

// Usage example on the command line:
// > PORT=8080 DBHOST=localhost DBUSER=dirk DBPWD=bullo92 ENV=production GIN_LOGGING=OFF go run main.go
// > DB_DRIVER=sqlite DB_PATH=contacts.db go run main.go
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	// Initialize logger
	if err := logger.Init(cfg.Env); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting contacts globe service...", zap.String("driver", cfg.DBDriver))

	// Open and migrate the database
	db, err := store.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.Ping(ctx); err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := db.Migrate(ctx); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	// Initialize dependencies
	m := metrics.New()
	geocoder := geocode.New(geocode.Config{
		APIKey:    cfg.GeocoderAPIKey,
		UserAgent: cfg.GeocoderUserAgent,
		Timeout:   cfg.GeocoderTimeout,
	}, log, m)
	if cfg.GeocoderAPIKey == "" {
		log.Info("No GEOCODER_API_KEY set, geocoding with Nominatim only")
	}
	contactEnricher := enrich.NewRunner(enrich.NewContactTarget(db), geocoder, enrich.ContactOptions, log, m)
	tripEnricher := enrich.NewRunner(enrich.NewTripTarget(db), geocoder, enrich.TripOptions, log, m)

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	server := service.New(db, contactEnricher, tripEnricher, log, m)
	router := server.SetupHttpRouter(cfg.GinLogging)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Enrichment batches run for several seconds, so give them time to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}
