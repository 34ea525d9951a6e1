package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"toolsmith_server/config"
	"toolsmith_server/internal/ai"
	"toolsmith_server/internal/api"
	"toolsmith_server/internal/build"
	"toolsmith_server/internal/deploy"
	"toolsmith_server/internal/render"
	"toolsmith_server/internal/scrape"
	"toolsmith_server/internal/store"
	"toolsmith_server/internal/theme"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*configPath)
		},
	}
}

func newGenerator(cfg config.Config) *ai.Generator {
	return ai.NewGenerator(ai.Settings{
		APIKey:          cfg.OpenAIKey,
		Model:           cfg.OpenAIModel,
		BaseURL:         cfg.OpenAIBaseURL,
		AzureEndpoint:   cfg.AzureEndpoint,
		AzureAPIVersion: cfg.AzureAPIVersion,
		AzureDeployment: cfg.AzureDeployment,
	})
}

func runServe(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	// --- Dependency Initialization ---
	kv, err := store.OpenSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("could not open tool store: %w", err)
	}
	defer kv.Close()
	log.Printf("Tool store opened at %s", cfg.DBPath)
	tools := store.NewToolStore(kv)

	aiGenerator := newGenerator(cfg)
	if cfg.UsesAzure() {
		log.Printf("Using Azure OpenAI endpoint %s", cfg.AzureEndpoint)
	}

	resolver := theme.NewResolver(aiGenerator)
	builder := build.NewBuilder(resolver, tools, time.Duration(cfg.BuildStepDelayMS)*time.Millisecond, build.Sleep)

	renderer, err := render.NewRenderer()
	if err != nil {
		return err
	}

	apiHandler := api.NewAPIHandler(
		aiGenerator,
		tools,
		builder,
		renderer,
		deploy.NewDeployer(cfg.DeployDir, cfg.DeployHook),
		scrape.NewScraper(time.Duration(cfg.ScrapeTimeoutSeconds)*time.Second, cfg.ScrapeAllowPrivate),
	)

	// --- Start API Server ---
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
		log.Println("Running in Gin Debug Mode")
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	api.RegisterRoutes(router, apiHandler)

	server := &http.Server{
		Addr:        cfg.ServerAddress,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: LLM calls and build sockets run without a deadline.
		IdleTimeout: 60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Starting API server on %s\n", cfg.ServerAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		log.Println("API server has stopped listening.")
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Printf("Received signal: %s. Shutting down server...", sig)
	case err := <-serverErr:
		return fmt.Errorf("API server listen error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("API server forced shutdown error: %v", err)
	} else {
		log.Println("API server gracefully stopped.")
	}

	log.Println("Application exiting.")
	return nil
}
