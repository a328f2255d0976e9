package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gl-service/internal/config"
	"gl-service/internal/server"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env (optional)
	if err := godotenv.Load(); err != nil {
		log.Println("GL: No .env file found, relying on system env vars")
	}

	// Load config
	cfg := config.Load()

	// Start the GL posting server in a goroutine
	errCh := make(chan error, 1)
	go func() {
		log.Printf("GL posting server starting on %s", cfg.HTTPAddr)
		// This blocks until the server exits
		server.NewGLServer(cfg)
		errCh <- nil
	}()

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Println("GL posting service shutting down gracefully...")
		_, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	case err := <-errCh:
		if err != nil {
			log.Fatalf("GL posting service failed: %v", err)
		}
	}
}
