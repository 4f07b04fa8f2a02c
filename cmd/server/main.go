package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	gconfig "github.com/goliatone/go-config/config"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/goliatone/librarian"
	"github.com/goliatone/librarian/ai"
	"github.com/goliatone/librarian/cmd/server/config"
)

type App struct {
	config   *gconfig.Container[*config.BaseConfig]
	bunDB    *bun.DB
	repo     librarian.RepositoryManager
	tokens   *librarian.TokenServiceImpl
	sessions *librarian.SessionManager
	guard    *librarian.RouteGuard
	srv      router.Server[*fiber.App]
	logger   *glog.BaseLogger
}

func (a *App) Config() *config.BaseConfig {
	return a.config.Raw()
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {

	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("librarian"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg := gconfig.New(&config.BaseConfig{}).
		WithLogger(lgr.GetLogger("config"))

	ctx := context.Background()
	if err := cfg.Load(ctx); err != nil {
		panic(err)
	}

	fmt.Println("============")
	fmt.Println(print.MaybeHighlightJSON(cfg.Raw()))
	fmt.Println("============")

	app := &App{
		config: cfg,
		logger: lgr,
	}

	if err := WithPersistence(ctx, app); err != nil {
		panic(err)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		panic(err)
	}

	if err := WithSessionAuth(ctx, app); err != nil {
		panic(err)
	}

	Routes(app)

	app.srv.Serve(app.Config().GetServer().GetAddress())

	WaitExitSignal()
}

func WithPersistence(ctx context.Context, app *App) error {
	db, err := sql.Open(sqliteshim.ShimName, app.Config().GetPersistence().GetDSN())
	if err != nil {
		return err
	}

	persistence.RegisterModel((*librarian.User)(nil))
	persistence.RegisterModel((*librarian.RefreshToken)(nil))
	persistence.RegisterModel((*librarian.Author)(nil))
	persistence.RegisterModel((*librarian.Category)(nil))
	persistence.RegisterModel((*librarian.Book)(nil))

	cfg := app.Config().GetPersistence()
	dialect := sqlitedialect.New()
	client, err := persistence.New(cfg, db, dialect)
	if err != nil {
		return err
	}

	client.SetLogger(app.GetLogger("persistence"))

	migrationsFS, err := fs.Sub(librarian.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}
	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)
	if err := client.ValidateDialects(ctx); err != nil {
		return err
	}

	if err := client.Migrate(ctx); err != nil {
		return err
	}

	client.RegisterFixtures(librarian.GetFixturesFS()).AddOptions(persistence.WithTrucateTables())

	if err := client.Seed(ctx); err != nil {
		return err
	}

	app.bunDB = client.DB()
	app.repo = librarian.NewRepositoryManager(client.DB())

	return app.repo.Validate()
}

func WithHTTPServer(ctx context.Context, app *App) error {
	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		fb := router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			EnablePrintRoutes: true,
			StrictRouting:     false,
		}))

		fb.Use(cors.New())

		// General API throttle plus a stricter one on the credential
		// endpoints, which are the interesting brute-force targets.
		fb.Use("/api", limiter.New(limiter.Config{
			Max:        100,
			Expiration: 15 * time.Minute,
		}))
		authLimiter := limiter.New(limiter.Config{
			Max:        10,
			Expiration: 15 * time.Minute,
		})
		fb.Use("/api/v1/auth/login", authLimiter)
		fb.Use("/api/v1/auth/register", authLimiter)

		return fb
	})

	srv.Router().WithLogger(app.GetLogger("router"))

	srv.Router().Get("/", func(ctx router.Context) error {
		return ctx.JSON(router.StatusOK, map[string]any{
			"service": "librarian",
			"status":  "ok",
			"api":     "/api/v1",
		})
	})

	app.srv = srv

	return nil
}

func WithSessionAuth(ctx context.Context, app *App) error {
	cfg := app.Config().GetAuth()

	app.tokens = librarian.NewTokenService(cfg, &glogAdapter{app.GetLogger("auth:tokens")})

	app.sessions = librarian.NewSessionManager(app.repo, app.tokens).
		WithLogger(&glogAdapter{app.GetLogger("auth:session")})

	app.guard = librarian.NewRouteGuard(app.tokens, cfg).
		WithLogger(&glogAdapter{app.GetLogger("auth:guard")})

	return nil
}

func Routes(app *App) {
	api := app.srv.Router().Group("/api/v1")

	api.Get("/", func(ctx router.Context) error {
		return ctx.JSON(router.StatusOK, map[string]any{
			"endpoints": []string{
				"/api/v1/auth",
				"/api/v1/books",
				"/api/v1/authors",
				"/api/v1/categories",
			},
		})
	})

	librarian.RegisterAuthRoutes(api, app.guard,
		librarian.WithSessionLifecycle(app.sessions),
		librarian.WithAuthLogger(&glogAdapter{app.GetLogger("auth:ctrl")}),
		librarian.WithAuthContextKey(app.Config().GetAuth().GetContextKey()),
	)

	catalogOpts := []librarian.CatalogControllerOption{
		librarian.WithCatalogRepo(app.repo),
		librarian.WithCatalogLogger(&glogAdapter{app.GetLogger("catalog:ctrl")}),
	}

	aiCfg := app.Config().GetAI()
	if aiCfg.GetAPIKey() != "" {
		assistant := ai.NewClient(aiCfg.GetAPIKey(),
			ai.WithBaseURL(aiCfg.GetBaseURL()),
			ai.WithModel(aiCfg.GetModel()),
			ai.WithLogger(&glogAdapter{app.GetLogger("ai")}),
		)
		catalogOpts = append(catalogOpts, librarian.WithBookAssistant(assistant))
	}

	librarian.RegisterCatalogRoutes(api, app.guard, catalogOpts...)
}

// glogAdapter exposes a glog logger through the library Logger interface.
type glogAdapter struct {
	lgr glog.Logger
}

func (g *glogAdapter) Debug(format string, args ...any) { g.lgr.Debug(format, args...) }
func (g *glogAdapter) Info(format string, args ...any)  { g.lgr.Info(format, args...) }
func (g *glogAdapter) Error(format string, args ...any) { g.lgr.Error(format, args...) }

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
