// Package newsdesk is a server-rendered news publishing site built with Go,
// Echo and templ. It serves the public article pages, the engagement
// actions (views, likes, comments) and an admin dashboard for authoring.
//
// Templates are supplied through ViewFuncs; package views has a default set.
package newsdesk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/newsdesk/categories"
	"github.com/eringen/newsdesk/content"
	"github.com/eringen/newsdesk/engagement"
	"github.com/eringen/newsdesk/events"
	"github.com/eringen/newsdesk/ranking"
	"github.com/eringen/newsdesk/storage/postgres"
	"github.com/eringen/newsdesk/storage/sqlite"
)

// ViewFuncs holds the templ components the App renders pages with.
type ViewFuncs struct {
	Home           func(HomePage) templ.Component
	Categories     func(CategoriesPage) templ.Component
	Category       func(CategoryPage) templ.Component
	Trending       func(TrendingPage) templ.Component
	Article        func(ArticlePage) templ.Component
	AdminLogin     func(AdminLoginPage) templ.Component
	AdminDashboard func(AdminDashboardPage) templ.Component
	AdminForm      func(AdminFormPage) templ.Component
	Error          func(ErrorPage) templ.Component
}

// App wires the store, the content core, handlers, middleware and templates.
type App struct {
	Config     SiteConfig
	Echo       *echo.Echo
	Store      content.Store
	Publisher  *content.Publisher
	Ranking    *ranking.Engine
	Tracker    *engagement.Tracker
	Categories *categories.Cache
	Views      ViewFuncs
	Log        *slog.Logger

	notifier     content.Notifier
	loginLimiter *LoginLimiter
	customRoutes []func(*App)
	staticDir    string
	now          func() time.Time
}

// New creates an App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		Log:       slog.Default(),
		staticDir: "public",
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(a)
	}

	a.Echo.HideBanner = true
	return a
}

// Init opens storage, builds the content core and registers middleware and
// routes. Start calls it; tests call it directly and drive a.Echo.
func (a *App) Init(ctx context.Context) error {
	if err := a.Config.validate(); err != nil {
		return err
	}

	if a.Store == nil {
		store, err := OpenStore(ctx, a.Config)
		if err != nil {
			return fmt.Errorf("newsdesk: init store: %w", err)
		}
		a.Store = store
	}

	if a.notifier == nil && len(a.Config.KafkaBrokers) > 0 {
		a.notifier = events.NewKafkaNotifier(a.Config.KafkaBrokers, a.Config.KafkaTopic, a.Log)
	}

	pubOpts := []content.PublisherOption{content.WithLogger(a.Log)}
	if a.notifier != nil {
		pubOpts = append(pubOpts, content.WithNotifier(a.notifier))
	}
	a.Publisher = content.NewPublisher(a.Store, pubOpts...)
	a.Ranking = ranking.NewEngine(a.Store)
	a.Tracker = engagement.NewTracker(a.Store, a.Log)
	a.Categories = categories.New(a.Store,
		categories.WithTTL(a.Config.CategoryTTL),
		categories.WithLimit(a.Config.CategoryLimit),
		categories.WithLogger(a.Log),
	)
	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	if err := os.MkdirAll(a.Config.SessionDir, 0o700); err != nil {
		return fmt.Errorf("newsdesk: session dir: %w", err)
	}
	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start initializes the App and serves until the server is shut down.
func (a *App) Start(ctx context.Context) error {
	if err := a.Init(ctx); err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.Echo.Shutdown(shutdownCtx); err != nil {
			a.Log.Error("shutdown", "error", err)
		}
	}()

	a.Log.Info("newsdesk listening", "addr", a.Config.Addr, "driver", a.Config.DatabaseDriver)
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// OpenStore opens the store selected by cfg.DatabaseDriver.
func OpenStore(ctx context.Context, cfg SiteConfig) (content.Store, error) {
	cfg.setDefaults()
	if cfg.DatabaseDriver == DriverPostgres {
		s, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	s, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/public", a.staticDir)
	e.Static("/uploads", a.uploadDir())
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	e.GET("/", a.handleHome)
	e.GET("/categories", a.handleCategories)
	e.GET("/category/:category", a.handleCategory)
	e.GET("/trending", a.handleTrending)
	e.GET("/news/:slug", a.handleArticle)
	e.POST("/news/:slug/like", a.handleLike, a.requireUser)
	e.POST("/news/:slug/comments", a.handleComment, a.requireUser)

	e.GET("/admin", a.handleAdmin)
	e.POST("/admin/login", a.handleAdminLogin)
	e.POST("/admin/logout", a.handleLogout)

	admin := e.Group("/admin/articles", a.requireAdmin)
	admin.GET("/new", a.handleAdminNew)
	admin.POST("", a.handleAdminCreate)
	admin.GET("/:id/edit", a.handleAdminEdit)
	admin.PUT("/:id", a.handleAdminUpdate)
	admin.DELETE("/:id", a.handleAdminDelete)
}

// Close releases the store and the event writer.
func (a *App) Close() error {
	var errs []error
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if c, ok := a.notifier.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}
