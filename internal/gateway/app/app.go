package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"widgetgen/internal/a2ui"
	"widgetgen/internal/gateway/config"
	"widgetgen/internal/gateway/handler/rpc"
	"widgetgen/internal/gateway/server"
	"widgetgen/internal/generator"
	"widgetgen/internal/preview"
	"widgetgen/internal/session"
	"widgetgen/internal/snapshot"
	"widgetgen/internal/styles"
	"widgetgen/internal/telemetry"
)

type App struct {
	server  *server.Server
	closers []func(context.Context) error
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewWithConfig(context.Background(), cfg)
}

// NewWithConfig builds the gateway and its dependencies from cfg.
func NewWithConfig(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}
	ok := false
	defer func() {
		if !ok {
			_ = a.close(context.Background())
		}
	}()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTel.Endpoint, cfg.OTel.Service)
	if err != nil {
		return nil, fmt.Errorf("otel setup: %w", err)
	}
	a.closers = append(a.closers, shutdownTracing)

	reg, err := styles.Load(cfg.StylesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load ui styles: %w", err)
	}

	stores, err := initStores(cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, stores.close)

	if cfg.AppsImportPath != "" {
		if err := importApps(ctx, stores.sessions, cfg.AppsImportPath); err != nil {
			return nil, err
		}
	}

	client, err := newLLMClient(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return client.Close() })

	// Dependencies
	catalog := a2ui.DefaultCatalog()
	previewSvc := preview.NewService(catalog, preview.Config{
		CacheTTL:     cfg.Render.CacheTTL,
		CacheEntries: cfg.Render.CacheEntries,
		MaxDepth:     cfg.Render.MaxDepth,
		MaxNodes:     cfg.Render.MaxNodes,
	})
	hub := preview.NewHub(0)
	gen := generator.New(client, reg, stores.sessions, generator.WithRenderer(previewSvc.Renderer(), catalog))
	exporter := snapshot.NewExporter(stores.sessions, previewSvc, stores.snapshots)

	widgetHandler := rpc.NewWidgetHandler(gen, stores.sessions, previewSvc, hub, reg, exporter)

	// Routing & Server
	mux := server.NewMux(widgetHandler, cfg.CORSOrigins)
	a.server = server.New(cfg.Port, mux)
	ok = true
	return a, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	return errors.Join(err, a.close(ctx))
}

// close releases dependencies in reverse order of creation.
func (a *App) close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func importApps(ctx context.Context, store session.Store, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open app catalog: %w", err)
	}
	defer f.Close()
	stats, err := session.ImportApps(ctx, store, f)
	if err != nil {
		return err
	}
	log.Printf("app catalog: imported=%d skipped=%d failed=%d path=%s", stats.Imported, stats.Skipped, stats.Failed, path)
	return nil
}
