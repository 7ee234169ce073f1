package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vrsandeep/jobrelay/internal/api"
	"github.com/vrsandeep/jobrelay/internal/core"
)

var version = "dev"

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize the core application components
	app, err := core.New(version)
	if err != nil {
		log.Fatalf("Fatal error during application setup: %v", err)
	}
	defer app.Close()

	cfg := app.Config()
	addr := net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port))

	// Bind before anything else so a busy port is reported right away.
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			printPortInUse(os.Stderr, cfg.Port)
			os.Exit(1)
		}
		log.Fatalf("Could not start server: %v", err)
	}

	app.Start()

	server := api.NewServer(app)
	httpServer := &http.Server{
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// --- Graceful Shutdown ---
	// Start the server in a goroutine so it doesn't block.
	go func() {
		printBanner(cfg.Port)
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not start server: %v", err)
		}
	}()

	// Wait for an interrupt signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Open streams only end once their subscriptions are released.
	app.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}

func printBanner(port int) {
	base := fmt.Sprintf("http://localhost:%d", port)
	log.Printf("Job update relay listening on :%d", port)
	log.Printf("  Frontend:   %s", base)
	log.Printf("  SSE events: %s/events?jobId=<id>", base)
	log.Printf("  WebSocket:  %s/ws?jobId=<id>", base)
	log.Printf("  Status API: POST %s/status", base)
	log.Printf("  Complete:   POST %s/complete", base)
}

func printPortInUse(w io.Writer, port int) {
	fmt.Fprintf(w, "\nPort %d is already in use!\n\n", port)
	fmt.Fprintln(w, "Try one of these solutions:")
	fmt.Fprintln(w, "  1. Stop the existing process:")
	fmt.Fprintf(w, "     lsof -i :%d\n", port)
	fmt.Fprintln(w, "     kill <PID>")
	fmt.Fprintln(w, "  2. Use a different port:")
	fmt.Fprintf(w, "     PORT=%d %s\n\n", port+1, os.Args[0])
}
