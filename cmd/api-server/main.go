package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"gamewrapped/internal/igdb"
	"gamewrapped/internal/scrape"
	"gamewrapped/internal/wrapped"
	"gamewrapped/pkg/database"
	"gamewrapped/pkg/utils"
)

func main() {
	cfg := database.DefaultConfig()
	db := database.MustOpen(cfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	router := gin.Default()

	// Optional: avoid “trusted all proxies” warning
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": cfg.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "not_ready",
				"db_error": err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "db": "ok"})
	})

	api := router.Group("/api")

	// Scraping (Backloggd, Steam) with SSE and websocket streaming
	scrapeHandler := scrape.NewHandler(scrape.NewEngine())
	scrapeHandler.RegisterRoutes(api)

	// IGDB metadata lookups
	igdbCfg := utils.LoadIGDBConfig()
	if igdbCfg.ClientID == "" {
		log.Println("IGDB_CLIENT_ID not set, metadata lookups will return empty results")
	}
	igdbClient := igdb.NewClient(igdb.NewTokenCache(igdbCfg.ClientID, igdbCfg.ClientSecret))
	igdb.NewHandler(igdbClient).RegisterRoutes(api.Group("/igdb"))

	// Wrapped generation and retrieval
	aiCfg := utils.LoadAIConfig()
	var generator wrapped.Generator = wrapped.StatsGenerator{}
	if aiCfg.URL != "" {
		generator = wrapped.NewHTTPGenerator(aiCfg.URL, aiCfg.Key)
	} else {
		log.Println("WRAPPED_AI_URL not set, using local stats generator")
	}
	wrappedSvc := wrapped.NewService(wrapped.NewRepo(db), generator)
	wrapped.NewHandler(wrappedSvc).RegisterRoutes(api)

	addr := utils.ServerAddr()
	httpSrv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP API server listening on %s", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	log.Println("server stopped")
}
