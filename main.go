// Command pairmatch starts the Pair Match game server.
//
// Commands:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "validate" – checks difficulty tier files
//
// Settings come from the environment (and .env), overridden by flags. Ngrok
// tunneling gives easy external access during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/pairmatch/api"
	"github.com/wricardo/mcp-training/pairmatch/game/config"
	"github.com/wricardo/mcp-training/pairmatch/game/profile"
	"github.com/wricardo/mcp-training/pairmatch/game/service"
	"github.com/wricardo/mcp-training/pairmatch/game/session"
	"github.com/wricardo/mcp-training/pairmatch/transport/mcp"
	"github.com/wricardo/mcp-training/pairmatch/transport/websocket"
	"github.com/wricardo/mcp-training/pairmatch/validate"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Pair Match Server"
)

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// newCommand builds the command tree
func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "pairmatch",
		Usage:   AppName,
		Version: Version,
		Flags:   globalFlags(),
		Action:  runServerCommand,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint (default)",
				Action:  runServerCommand,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server, starting an internal HTTP server when no API is reachable",
				Action:  runMCPCommand,
			},
			{
				Name:      "validate",
				Usage:     "Validate difficulty tier files",
				ArgsUsage: "[dir]",
				Action:    runValidateCommand,
			},
		},
	}
}

// resolveConfig merges environment and flags and sets up logging
func resolveConfig(c *cli.Command) (appConfig, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cfg, err
	}
	if err := applyFlags(&cfg, c); err != nil {
		return cfg, err
	}

	if cfg.Debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}
	return cfg, nil
}

func runServerCommand(ctx context.Context, c *cli.Command) error {
	cfg, err := resolveConfig(c)
	if err != nil {
		return err
	}

	log.Printf("Starting %s v%s (mode: server)", AppName, Version)

	rt, err := initializeServices(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer rt.Close()

	go sessionCleanupRoutine(ctx, rt.sessions, cfg.SessionTTL, cfg.CleanupEvery)

	return runHTTPServer(ctx, cfg, rt)
}

func runMCPCommand(ctx context.Context, c *cli.Command) error {
	cfg, err := resolveConfig(c)
	if err != nil {
		return err
	}

	log.Printf("Starting %s v%s (mode: mcp)", AppName, Version)
	return runStdioMCPWithInternalServer(ctx, cfg)
}

func runValidateCommand(ctx context.Context, c *cli.Command) error {
	cfg, err := resolveConfig(c)
	if err != nil {
		return err
	}

	dir := cfg.ConfigDir
	if c.Args().Len() > 0 {
		dir = c.Args().First()
	}

	results, err := validate.Dir(dir)
	if err != nil {
		return err
	}
	if !validate.Report(os.Stdout, results) {
		return cli.Exit("", 1)
	}
	return nil
}

// runtime holds the long-lived components of a running server
type runtime struct {
	service    service.GameService
	sessions   *session.Manager
	configs    *config.Manager
	hub        *websocket.Hub
	closeStore func() error
}

// Close ends every session, then stops the hub and closes the profile store
func (rt *runtime) Close() {
	rt.sessions.CloseAll()
	rt.hub.Stop()
	if rt.closeStore != nil {
		if err := rt.closeStore(); err != nil {
			log.Printf("Warning: Failed to close profile store: %v", err)
		}
	}
}

// initializeServices wires the config and session managers, the profile
// store, the websocket hub and the game service.
func initializeServices(cfg appConfig) (*runtime, error) {
	configManager, err := config.NewManager(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	store, closeStore, err := openProfileStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile store: %w", err)
	}

	sessionManager := session.NewManager(session.WithTickInterval(cfg.TickInterval))

	hub := websocket.NewHub()
	go hub.Run()

	gameService := service.NewGameService(sessionManager, configManager, store, hub)

	return &runtime{
		service:    gameService,
		sessions:   sessionManager,
		configs:    configManager,
		hub:        hub,
		closeStore: closeStore,
	}, nil
}

// openProfileStore returns a nil store when profiles are disabled
func openProfileStore(cfg appConfig) (profile.Store, func() error, error) {
	switch cfg.ProfileStore {
	case storeNone:
		log.Println("Profile storage disabled")
		return nil, nil, nil

	case storeSQLite:
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		path := filepath.Join(cfg.DataDir, "profiles.db")
		store, err := profile.OpenSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("Profiles stored in SQLite database %s", path)
		return store, store.Close, nil

	default:
		dir := filepath.Join(cfg.DataDir, "profiles")
		store, err := profile.NewFileStore(dir)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("Profiles stored in %s", dir)
		return store, nil, nil
	}
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within ttl, until ctx is done.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, ttl, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(ttl); removed > 0 {
				log.Printf("Cleaned up %d expired sessions", removed)
			}
		}
	}
}

// newRouter combines the REST API, WebSocket and the /mcp endpoint
func newRouter(apiServer *api.Server, mcpClient *mcp.Client) *http.ServeMux {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)
		if response == nil {
			// Notifications have no response
			w.WriteHeader(http.StatusAccepted)
			return
		}

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	})

	return mainRouter
}

// runHTTPServer serves until ctx is cancelled. If ngrok is enabled it also
// provisions a public tunnel.
func runHTTPServer(ctx context.Context, cfg appConfig, rt *runtime) error {
	addr := cfg.addr()
	apiServer := api.NewServer(rt.service, rt.hub)
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))
	mainRouter := newRouter(apiServer, mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if cfg.NgrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, cfg, mainRouter)
		}()
	}

	var err error
	select {
	case <-ctx.Done():
		log.Println("Shutting down...")
	case err = <-serveErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Printf("HTTP server shutdown error: %v", shutdownErr)
	}

	wg.Wait()
	log.Println("Server stopped")
	return err
}

// runNgrokTunnel serves handler through an ngrok tunnel until ctx is done
func runNgrokTunnel(ctx context.Context, cfg appConfig, handler http.Handler) {
	if cfg.NgrokAuthToken == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if cfg.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.NgrokDomain))
		log.Printf("Using custom ngrok domain: %s", cfg.NgrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.NgrokAuthToken))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Printf("🚀 Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// apiReachable reports whether a REST API answers at baseURL
func apiReachable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCPWithInternalServer runs an MCP stdio server. It reuses the API
// at cfg.APIURL when reachable; otherwise it starts an internal HTTP API on
// a random loopback port and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, cfg appConfig) error {
	baseURL := cfg.APIURL

	log.Printf("Checking for external API server at %s...", baseURL)
	if apiReachable(baseURL) {
		log.Printf("External API server found at %s, using it for MCP", baseURL)
	} else {
		log.Printf("No external API server found, starting internal HTTP server")

		rt, err := initializeServices(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}
		defer rt.Close()

		go sessionCleanupRoutine(ctx, rt.sessions, cfg.SessionTTL, cfg.CleanupEvery)

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		internalAddr := listener.Addr().String()
		log.Printf("Starting internal HTTP server on %s for MCP stdio", internalAddr)

		httpServer := &http.Server{Handler: api.NewServer(rt.service, rt.hub)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()
		defer httpServer.Close()

		baseURL = fmt.Sprintf("http://%s", internalAddr)
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Printf("MCP stdio server ready (API: %s)", baseURL)

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
