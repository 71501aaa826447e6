package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/roomies/internal/auth"
	"github.com/mmynk/roomies/internal/config"
	"github.com/mmynk/roomies/internal/events"
	"github.com/mmynk/roomies/internal/events/amqp"
	"github.com/mmynk/roomies/internal/middleware"
	"github.com/mmynk/roomies/internal/service"
	"github.com/mmynk/roomies/internal/storage"
	"github.com/mmynk/roomies/internal/storage/memory"
	"github.com/mmynk/roomies/internal/storage/sqlite"
	"github.com/mmynk/roomies/pkg/api/apiconnect"
	"github.com/mmynk/roomies/pkg/logging"
)

func main() {
	logging.Setup()

	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	policy, err := cfg.Policy()
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	publisher, err := openPublisher(cfg)
	if err != nil {
		return err
	}
	defer publisher.Close()

	// Viewer first so the logging interceptor sees who is calling.
	interceptors := connect.WithInterceptors(
		viewerInterceptor(cfg),
		middleware.MetricsInterceptor(),
		middleware.LoggingInterceptor(),
	)

	mux := http.NewServeMux()

	householdPath, householdHandler := apiconnect.NewHouseholdServiceHandler(service.NewHouseholdService(store), interceptors)
	mux.Handle(householdPath, householdHandler)

	expensePath, expenseHandler := apiconnect.NewExpenseServiceHandler(service.NewExpenseService(store, publisher, policy), interceptors)
	mux.Handle(expensePath, expenseHandler)

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Port),
		// Wrap with h2c for HTTP/2 without TLS (required for Connect)
		Handler:           h2c.NewHandler(corsMiddleware(mux), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Connect server starting",
			"address", srv.Addr,
			"backend", cfg.DataBackend,
			"policy", cfg.BalancePolicy,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutting down", "timeout", cfg.ShutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openStore(cfg *config.Config) (storage.Store, error) {
	if cfg.DataBackend == config.BackendMemory {
		slog.Warn("Using in-memory storage; data is lost on restart")
		return memory.New(), nil
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize storage: %w", err)
	}
	slog.Info("Storage initialized", "database", cfg.DBPath)
	return store, nil
}

func openPublisher(cfg *config.Config) (events.Publisher, error) {
	if cfg.AMQP.URL == "" {
		slog.Info("AMQP_URL not set; expense events are not published")
		return events.Nop{}, nil
	}

	publisher, err := amqp.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
	if err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	slog.Info("Publishing expense events", "exchange", cfg.AMQP.Exchange)
	return publisher, nil
}

func viewerInterceptor(cfg *config.Config) connect.Interceptor {
	if cfg.ViewerTokenSecret == "" {
		slog.Warn("VIEWER_TOKEN_SECRET not set; trusting the X-Viewer header")
		return middleware.ViewerFromHeader()
	}
	// Duration only matters for tokens minted here, which this server never does.
	return middleware.RequireViewerToken(auth.NewJWTManager(cfg.ViewerTokenSecret, time.Hour))
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Viewer, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
