package main

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/django/v3"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	mflash "github.com/goliatone/go-router/middleware/flash"
	"github.com/redis/go-redis/v9"

	portal "github.com/goliatone/go-auth-portal"
	"github.com/goliatone/go-auth-portal/activitymap"
	"github.com/goliatone/go-auth-portal/client"
	"github.com/goliatone/go-auth-portal/config"
	"github.com/goliatone/go-auth-portal/middleware/csrf"
	"github.com/goliatone/go-auth-portal/repository"
)

type App struct {
	config *config.Config
	logger *glog.BaseLogger
	redis  *redis.Client
	sink   portal.ActivitySink
	srv    router.Server[*fiber.App]
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	level := glog.Info
	if cfg.Debug {
		level = glog.Trace
	}

	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(level),
		glog.WithName("portal"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	if cfg.Debug {
		fmt.Println("============")
		fmt.Println(print.MaybeHighlightJSON(redacted(cfg)))
		fmt.Println("============")
	}

	app := &App{config: cfg, logger: lgr}
	ctx := context.Background()

	if err := WithRedis(ctx, app); err != nil {
		panic(err)
	}

	if err := WithActivity(ctx, app); err != nil {
		panic(err)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		panic(err)
	}

	if err := WithPortal(ctx, app); err != nil {
		panic(err)
	}

	app.srv.Serve(cfg.HTTPAddr)

	WaitExitSignal()

	if app.redis != nil {
		_ = app.redis.Close()
	}
}

func WithRedis(ctx context.Context, app *App) error {
	if app.config.RedisURL == "" {
		return nil
	}

	opts, err := redis.ParseURL(app.config.RedisURL)
	if err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "invalid REDIS_URL")
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, errors.CategoryExternal, "redis unreachable")
	}

	app.redis = rdb
	return nil
}

func WithActivity(ctx context.Context, app *App) error {
	if app.config.ActivityDSN == "" {
		app.sink = activitymap.NewLogSink(app.GetLogger("activity"))
		return nil
	}

	db, err := repository.OpenSQLite(app.config.ActivityDSN)
	if err != nil {
		return err
	}

	repo := repository.NewActivityRepository(db)
	if err := repo.CreateTable(ctx); err != nil {
		return err
	}

	app.sink = repo
	return nil
}

func WithHTTPServer(ctx context.Context, app *App) error {
	var views fs.FS = portal.GetViewsFS()
	if dir := app.config.ViewsDir; dir != "" {
		views = os.DirFS(dir)
	}

	engine := django.NewFileSystem(http.FS(views), ".html")
	engine.Reload(app.config.Debug)
	engine.AddFuncMap(portal.TemplateHelpers())

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			EnablePrintRoutes: app.config.Debug,
			StrictRouting:     false,
			PassLocalsToViews: true,
			Views:             engine,
		}))
	})

	srv.Router().WithLogger(app.GetLogger("router"))
	srv.Router().Use(mflash.New(mflash.ConfigDefault))

	app.srv = srv
	return nil
}

func WithPortal(ctx context.Context, app *App) error {
	cfg := app.config

	authClient, err := client.New(client.Config{
		BaseURL:  cfg.AuthBaseURL,
		BasePath: cfg.AuthBasePath,
		Origin:   cfg.PublicURL,
		Timeout:  cfg.AuthTimeout,
	}, client.WithLogger(app.GetLogger("client")))
	if err != nil {
		return err
	}

	cookies := portal.CookieSettings{
		Secure:   cfg.SecureCookies(),
		SameSite: "Lax",
		Path:     "/",
	}

	flows := portal.NewFlows(authClient,
		portal.WithFlowsLoggerProvider(portal.LoggerProviderFunc(func(name string) portal.Logger {
			return app.GetLogger(name)
		})),
		portal.WithFlowsActivitySink(app.sink),
		portal.WithPublicURL(cfg.PublicURL),
		portal.WithFlowsDebug(cfg.Debug),
	)

	var store portal.EnrollmentStore = portal.NewMemoryEnrollmentStore(cfg.EnrollmentTTL)
	if app.redis != nil {
		store = portal.NewRedisEnrollmentStore(app.redis, "portal:2fa", cfg.EnrollmentTTL)
	}

	twoFactor := portal.NewTwoFactorFlow(flows, store,
		portal.WithTwoFactorLogger(app.GetLogger("two-factor")),
	)

	csrfCfg := csrf.Config{
		SessionKey: func(ctx router.Context) string {
			return portal.BrowserID(ctx, cookies)
		},
	}
	if cfg.CSRFSecret != "" {
		key := sha256.Sum256([]byte(cfg.CSRFSecret))
		csrfCfg.SecureKey = key[:]
	}
	if app.redis != nil {
		csrfCfg.Storage = csrf.NewRedisStorage(app.redis, "portal:csrf")
	}

	r := app.srv.Router()
	r.Use(csrf.New(csrfCfg))

	portal.RegisterAuthRoutes(r,
		portal.WithControllerLogger(app.GetLogger("portal")),
		portal.WithFlows(flows),
		portal.WithTwoFactorFlow(twoFactor),
		portal.WithSessionObserver(portal.NewSessionObserver(authClient,
			portal.WithSessionObserverLogger(app.GetLogger("session")),
		)),
		portal.WithSessionCache(portal.NewSessionCache(cfg.SessionCacheSecret, cfg.SessionCacheTTL)),
		portal.WithCookieSettings(cookies),
		portal.WithDebug(cfg.Debug),
	)

	return nil
}

// redacted drops secrets before the config is printed.
func redacted(cfg *config.Config) map[string]any {
	return map[string]any{
		"http_addr":      cfg.HTTPAddr,
		"public_url":     cfg.PublicURL,
		"auth_base_url":  cfg.AuthBaseURL,
		"auth_base_path": cfg.AuthBasePath,
		"auth_timeout":   cfg.AuthTimeout.String(),
		"session_cache":  cfg.SessionCacheSecret != "",
		"redis":          cfg.RedisURL != "",
		"activity_log":   cfg.ActivityDSN != "",
		"env":            cfg.Env,
	}
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
