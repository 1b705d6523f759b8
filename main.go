package main

//go:generate swag init

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/albertcolmenero/invoicehub/billing"
	"github.com/albertcolmenero/invoicehub/config"
	"github.com/albertcolmenero/invoicehub/db"
	_ "github.com/albertcolmenero/invoicehub/docs"
	"github.com/albertcolmenero/invoicehub/handlers"
	"github.com/albertcolmenero/invoicehub/memstore"
	"github.com/albertcolmenero/invoicehub/render"
	"github.com/albertcolmenero/invoicehub/storage"
)

// @title           InvoiceHub API
// @version         1.0.0
// @description     API for managing clients, invoices, projects and documents, with PDF rendering and shareable invoice links.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Configure structured logging
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()})))

	ctx := context.Background()

	store, closeStore, err := openStore(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	engine := billing.NewEngine(store,
		billing.WithScope(billing.Scope(cfg.Numbering.Scope)),
		billing.WithMaxRetries(cfg.Numbering.MaxRetries),
		billing.WithLogger(slog.Default()),
	)

	var uploader storage.Uploader = storage.Disabled{}
	logoOrigins := cfg.Render.LogoOrigins
	if cfg.Storage.Bucket != "" {
		storageCfg := storage.Config{
			Bucket:        cfg.Storage.Bucket,
			Region:        cfg.Storage.Region,
			Prefix:        cfg.Storage.Prefix,
			PublicBaseURL: cfg.Storage.PublicBaseURL,
		}
		s3, err := storage.NewS3Uploader(ctx, storageCfg)
		if err != nil {
			slog.Error("failed to configure storage", "error", err)
			os.Exit(1)
		}
		uploader = s3
		logoOrigins = append(logoOrigins, storageCfg.BaseURL())
	} else {
		slog.Warn("storage.bucket not set, logo uploads are disabled")
	}
	if len(logoOrigins) == 0 {
		slog.Warn("no logo origins configured, invoices render without logos")
	}

	r := handlers.NewRouter(&handlers.API{
		Store:    store,
		Engine:   engine,
		Renderer: render.NewPDFRenderer(cfg.Render.LogoTimeout, logoOrigins, slog.Default()),
		Uploader: uploader,
		Auth:     handlers.Authenticate(cfg.Auth.JWTSecret, cfg.Auth.DevOwner),
	})

	// Swagger UI
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	addr := ":" + cfg.Server.Port
	slog.Info("server starting", "addr", addr, "store", cfg.Database.Driver, "numbering", cfg.Numbering.Scope)
	if err := http.ListenAndServe(addr, r); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// openStore returns the configured record store and a function releasing it.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (handlers.Store, func(), error) {
	if cfg.Driver == "memory" {
		slog.Warn("using in-memory store, data is lost on restart")
		return memstore.New(), func() {}, nil
	}

	database, err := db.Open(ctx, db.Config{URL: cfg.URL, MaxOpenConns: cfg.MaxOpenConns})
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() { closeQuietly(database) }

	// Run migrations
	if err := db.Migrate(ctx, database); err != nil {
		closeDB()
		return nil, nil, err
	}
	return db.NewStore(database), closeDB, nil
}

func closeQuietly(database *sql.DB) {
	if err := database.Close(); err != nil {
		slog.Warn("closing database", "error", err)
	}
}
