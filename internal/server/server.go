// Package server assembles the HTTP surface: auth flow, document store,
// follow verification, health, and the static frontend.
package server

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hryh/wendrops/internal/airdrop"
	"github.com/hryh/wendrops/internal/config"
	"github.com/hryh/wendrops/internal/endpoint"
	"github.com/hryh/wendrops/internal/middleware"
	"github.com/hryh/wendrops/internal/social"
	"github.com/hryh/wendrops/internal/xauth"
	"github.com/hryh/wendrops/web"
)

// sealKeyID labels the active seal key. Rotations introduce a new ID while
// old IDs stay in the accepted set.
const sealKeyID = "k1"

// New builds the fully wired http.Handler and the http.Server around it.
func New(cfg config.Config, log *slog.Logger) (*http.Server, error) {
	handler, err := Routes(cfg, log)
	if err != nil {
		return nil, err
	}
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}, nil
}

// Routes builds the route table. Split from New so tests can drive the
// whole surface through httptest.
func Routes(cfg config.Config, log *slog.Logger) (http.Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	mux := http.NewServeMux()

	logging := middleware.NewLoggingProcessor(log)
	headers := middleware.NewSecurityHeadersProcessor()
	base := []endpoint.Processor{logging, headers}

	var (
		stateStore xauth.StateStore
		docStore   airdrop.Store
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		client := redis.NewClient(opts)
		key, err := cfg.SealKey()
		if err != nil {
			return nil, err
		}
		sealer, err := xauth.NewSealer(sealKeyID, map[string][]byte{sealKeyID: key})
		if err != nil {
			return nil, err
		}
		stateStore = xauth.NewRedisStateStore(client, sealer)
		docStore = airdrop.NewRedisStore(client)
	} else {
		stateStore = xauth.NewMemoryStateStore()
		docStore = airdrop.NewFileStore(cfg.DataFile)
	}

	authHandler := xauth.NewHandler(xauth.Config{
		ClientID:     cfg.XClientID,
		ClientSecret: cfg.XClientSecret,
		RedirectURI:  cfg.XRedirectURI,
	}, stateStore, xauth.NewXClient(cfg.XClientID, cfg.XClientSecret), log)
	authHandler.Mount(mux, base...)

	airdrop.NewHandler(docStore, cfg.AdminToken, log).Mount(mux, base...)

	verifyLimit := middleware.NewRateLimitProcessor(cfg.VerifyRatePerMinute, 5)
	social.NewHandler(social.NewXVerifier(cfg.XBearerToken), log).
		Mount(mux, append(base, verifyLimit)...)

	mux.HandleFunc("GET /api/health", endpoint.HandleFunc(health, base...))

	mountStatic(mux, web.Static(), base...)

	return mux, nil
}

type healthParams struct{}

func health(_ http.ResponseWriter, _ *http.Request, _ healthParams) (endpoint.Renderer, error) {
	return &endpoint.JSONRenderer{Value: map[string]string{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}}, nil
}

// mountStatic serves the embedded frontend at the root, running the same
// processor chain as the API so static responses carry security headers.
func mountStatic(mux *http.ServeMux, assets fs.FS, processors ...endpoint.Processor) {
	fileServer := http.FileServerFS(assets)
	mux.HandleFunc("/", endpoint.HandleFunc(
		func(w http.ResponseWriter, r *http.Request, _ struct{}) (endpoint.Renderer, error) {
			return endpoint.RendererFunc(func(w http.ResponseWriter, r *http.Request) error {
				fileServer.ServeHTTP(w, r)
				return nil
			}), nil
		}, processors...))
}

// Shutdown drains srv with a bounded grace period.
func Shutdown(srv *http.Server, grace time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	return srv.Shutdown(ctx)
}
