package main

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/studiosim/studio-engine/internal/config"
	"github.com/studiosim/studio-engine/internal/handlers"
	"github.com/studiosim/studio-engine/internal/logger"
	internalstorage "github.com/studiosim/studio-engine/internal/storage"
	"github.com/studiosim/studio-engine/internal/worker"
	"github.com/studiosim/studio-engine/pkg/casting"
	"github.com/studiosim/studio-engine/pkg/market"
	"github.com/studiosim/studio-engine/pkg/rng"
	"github.com/studiosim/studio-engine/pkg/sim"
	"github.com/studiosim/studio-engine/pkg/tags"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting Studio Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"data_dir", cfg.DataDir)

	lib, err := tags.Load(cfg.DataDir)
	if err != nil {
		log.Error("Failed to load content", "error", err)
		os.Exit(1)
	}
	resolver, err := market.Load(cfg.DataDir)
	if err != nil {
		log.Error("Failed to load market groups", "error", err)
		os.Exit(1)
	}
	tuning, err := sim.LoadTuning(cfg.TuningPath)
	if err != nil {
		log.Error("Failed to load tuning", "error", err)
		os.Exit(1)
	}

	source := rng.New(seed(cfg))

	store := internalstorage.NewRedisStorage(cfg.RedisURL, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}

	processor := worker.NewWeekProcessor(store, lib, resolver, tuning, source, log)
	checker := casting.NewChecker(lib, tuning.Availability, log)
	demand := casting.NewDemandCalculator(lib, tuning.Demand, log)

	mux := http.NewServeMux()
	mux.Handle("/health", handlers.NewHealthHandler(store, log))
	mux.Handle("/v1/scenes", handlers.NewSceneHandler(store, log))
	mux.Handle("/v1/scenes/", handlers.NewSceneHandler(store, log))
	weekHandler := handlers.NewWeekHandler(processor, log)
	mux.Handle("/v1/week/advance", weekHandler)
	mux.Handle("/v1/event/resolve", weekHandler)
	mux.Handle("/v1/casting/check", handlers.NewCastingHandler(store, checker, demand, source, log))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", "error", err)
	}
	if err := store.Close(); err != nil {
		log.Error("Storage close failed", "error", err)
	}
}

// seed uses the configured value when set so runs can be replayed, and a
// random seed otherwise.
func seed(cfg *config.Config) uint64 {
	if cfg.Seed != "" {
		if v, err := strconv.ParseUint(cfg.Seed, 10, 64); err == nil {
			return v
		}
	}
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(b[:])
}
