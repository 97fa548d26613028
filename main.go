// Command lowpile starts the card game server.
//
// It serves the REST API, the websocket broadcast endpoint, and the static
// web client from a single HTTP listener. Flags control host/port and debug
// mode; a .env file in the working directory is loaded when present.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/lowpile/lowpile/api"
	"github.com/lowpile/lowpile/game/room"
	"github.com/lowpile/lowpile/game/service"
	"github.com/lowpile/lowpile/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Lowpile Game Server"
)

var (
	port    = flag.Int("port", getPortDefault(), "HTTP server port")
	host    = flag.String("host", "0.0.0.0", "HTTP server host")
	debug   = flag.Bool("debug", false, "Enable debug logging and game invariant checks")
	version = flag.Bool("version", false, "Show version information")
)

// getPortDefault honors the PORT environment variable, falling back to 8000.
func getPortDefault() int {
	if p := os.Getenv("PORT"); p != "" {
		var port int
		if _, err := fmt.Sscanf(p, "%d", &port); err == nil {
			return port
		}
	}
	return 8000
}

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	flag.Parse()

	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	if *debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}

	log.Printf("Starting %s v%s", AppName, Version)

	// Wire services: room registry, game service, broadcast hub, API.
	rooms := room.NewManager()
	gameService := service.NewGameService(rooms, *debug)
	hub := websocket.NewHub()
	go hub.Run()

	server := api.NewServer(gameService, hub)

	addr := fmt.Sprintf("%s:%d", *host, *port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Handle shutdown signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("HTTP server listening on http://%s", addr)
		log.Printf("  REST API: http://%s/rooms", addr)
		log.Printf("  WebSocket: ws://%s/ws/{roomID}/{playerID}", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	sig := <-stop
	log.Printf("Received signal: %v. Shutting down...", sig)

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
