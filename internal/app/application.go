package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"lorewiki-backend/internal/authorization"
	"lorewiki-backend/internal/background"
	"lorewiki-backend/internal/config"
	"lorewiki-backend/internal/handlers"
	"lorewiki-backend/internal/middleware"
	"lorewiki-backend/internal/models"
	"lorewiki-backend/internal/plugin/registry"
	pluginruntime "lorewiki-backend/internal/plugin/runtime"
	"lorewiki-backend/internal/render"
	"lorewiki-backend/internal/repository"
	"lorewiki-backend/internal/seed"
	"lorewiki-backend/internal/service"
	"lorewiki-backend/pkg/cache"
	"lorewiki-backend/pkg/logger"
	rihandlers "lorewiki-backend/plugins/randomimage/handlers"
)

type Application struct {
	cfg *config.Config

	db    *gorm.DB
	cache *cache.Cache

	renderHooks *render.HookRegistry
	renderer    *render.Renderer

	scheduler     *background.Scheduler
	pluginRuntime *pluginruntime.Runtime
	rateLimits    *middleware.RateLimitManager

	repositories repositoryContainer
	services     serviceContainer
	handlers     handlerContainer

	router *gin.Engine
	server *http.Server

	// bgCancel stops the scheduler workers and the rate limit janitor.
	bgCancel context.CancelFunc
}

type repositoryContainer struct {
	User     repository.UserRepository
	Page     repository.PageRepository
	Revision repository.RevisionRepository
	File     repository.FileRepository
	Plugin   repository.PluginRepository
	Setting  repository.SettingRepository
}

type serviceContainer struct {
	Auth        *service.AuthService
	Page        *service.PageService
	File        *service.FileService
	Render      *service.RenderService
	Plugin      *service.PluginService
	Maintenance *service.MaintenanceService
}

type handlerContainer struct {
	Auth     *handlers.AuthHandler
	Page     *handlers.PageHandler
	Render   *handlers.RenderHandler
	File     *handlers.FileHandler
	Plugin   *handlers.PluginHandler
	Settings *handlers.SettingsHandler

	// RandomImageFragment lives for the whole process; the plugin swaps
	// its service in and out on activation.
	RandomImageFragment *rihandlers.FragmentHandler
}

func New(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	app := &Application{cfg: cfg}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.runMigrations(); err != nil {
		return nil, err
	}

	if err := app.createIndexes(); err != nil {
		return nil, err
	}

	app.initCache()
	app.initRepositories()
	app.initServices()

	bgCtx, cancel := context.WithCancel(context.Background())
	app.bgCancel = cancel
	app.rateLimits = middleware.NewRateLimitManager(bgCtx)
	app.scheduler = background.NewScheduler(background.SchedulerConfig{})
	app.scheduler.Start(bgCtx)

	seed.EnsureDefaultPages(app.services.Page)
	seed.EnsureDefaultPlugins(app.repositories.Plugin)

	app.initHandlers()
	app.initPlugins()

	if err := app.initRouter(); err != nil {
		return nil, err
	}

	app.services.Maintenance = service.NewMaintenanceService(app.repositories.Page, app.scheduler)
	if err := app.services.Maintenance.ScheduleBackfill(time.Hour); err != nil {
		logger.Error(err, "Failed to schedule random key backfill", nil)
	}

	app.server = &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        app.router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	return app, nil
}

func (a *Application) Run() error {
	logger.Info("Server starting", map[string]interface{}{
		"port":        a.cfg.Port,
		"environment": a.cfg.Environment,
	})

	return a.server.ListenAndServe()
}

func (a *Application) Shutdown(ctx context.Context) error {
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			return err
		}
	}

	if a.bgCancel != nil {
		a.bgCancel()
	}

	if a.scheduler != nil {
		if err := a.scheduler.Shutdown(ctx); err != nil {
			logger.Error(err, "Scheduler did not drain in time", nil)
		}
	}

	if a.rateLimits != nil {
		if err := a.rateLimits.Shutdown(); err != nil {
			logger.Error(err, "Failed to stop rate limit manager", nil)
		}
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			logger.Error(err, "Failed to close cache connection", nil)
		}
	}

	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			sqlDB.Close()
		}
	}

	return nil
}

func (a *Application) Router() *gin.Engine {
	return a.router
}

func (a *Application) initDatabase() error {
	logger.Info("Connecting to database", nil)

	db, err := gorm.Open(postgres.Open(a.cfg.DatabaseURL), &gorm.Config{
		Logger: logger.NewGormLogger(),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	a.db = db
	return nil
}

func (a *Application) runMigrations() error {
	if a.db == nil {
		return fmt.Errorf("database connection is not initialized")
	}

	logger.Info("Running database migrations", nil)

	if err := a.db.AutoMigrate(
		&models.User{},
		&models.Page{},
		&models.Revision{},
		&models.FileAsset{},
		&models.Plugin{},
		&models.Setting{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("Database migration completed", nil)
	return nil
}

func (a *Application) createIndexes() error {
	if a.db == nil {
		return fmt.Errorf("database connection is not initialized")
	}

	logger.Info("Creating database indexes", nil)

	statements := []string{
		// Random selection scans eligible pages in sort key order.
		"CREATE INDEX IF NOT EXISTS idx_pages_random_pick ON pages(namespace, random_key) WHERE is_redirect = false AND deleted_at IS NULL",
		"CREATE INDEX IF NOT EXISTS idx_revisions_page_latest ON revisions(page_id, id DESC)",
		"CREATE INDEX IF NOT EXISTS idx_revisions_created_at ON revisions(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_file_assets_major ON file_assets(mime_major) WHERE deleted_at IS NULL",
	}

	for _, stmt := range statements {
		if err := a.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

func (a *Application) initCache() {
	if !a.cfg.EnableCache || !a.cfg.EnableRedis {
		a.cache, _ = cache.NewCache("", false)
		return
	}

	c, err := cache.NewCache(a.cfg.RedisURL, true)
	if err != nil {
		logger.Error(err, "Redis unavailable, running without cache", nil)
		a.cache, _ = cache.NewCache("", false)
		return
	}
	a.cache = c
}

func (a *Application) initRepositories() {
	a.repositories = repositoryContainer{
		User:     repository.NewUserRepository(a.db),
		Page:     repository.NewPageRepository(a.db),
		Revision: repository.NewRevisionRepository(a.db),
		File:     repository.NewFileRepository(a.db),
		Plugin:   repository.NewPluginRepository(a.db),
		Setting:  repository.NewSettingRepository(a.db),
	}
}

func (a *Application) initServices() {
	fileService := service.NewFileService(
		a.repositories.Page,
		a.repositories.File,
		a.repositories.Revision,
		a.cfg.UploadDir,
		a.cfg.MaxUploadSize,
		nil,
	)

	a.renderHooks = render.NewHookRegistry()
	a.renderer = render.New(render.Options{
		Pages:             a.repositories.Page,
		Files:             fileService,
		Hooks:             a.renderHooks,
		Policy:            render.DefaultPolicy(),
		DefaultThumbWidth: a.cfg.DefaultThumbWidth,
		MaxDepth:          a.cfg.MaxRenderDepth,
	})

	renderTTL := time.Duration(a.cfg.RenderCacheTTLSeconds) * time.Second

	a.pluginRuntime = pluginruntime.New()

	a.services = serviceContainer{
		Auth:   service.NewAuthService(a.repositories.User, a.cfg.JWTSecret),
		Page:   service.NewPageService(a.repositories.Page, a.repositories.Revision, a.cache),
		File:   fileService,
		Render: service.NewRenderService(a.renderer, a.cache, a.repositories.Page, a.repositories.Revision, renderTTL),
		Plugin: service.NewPluginService(a.repositories.Plugin, a.pluginRuntime, registry.Slugs),
	}
}

func (a *Application) initHandlers() {
	a.handlers = handlerContainer{
		Auth:     handlers.NewAuthHandler(a.services.Auth),
		Page:     handlers.NewPageHandler(a.services.Page),
		Render:   handlers.NewRenderHandler(a.services.Render),
		File:     handlers.NewFileHandler(a.services.File),
		Plugin:   handlers.NewPluginHandler(a.services.Plugin),
		Settings: handlers.NewSettingsHandler(a.repositories.Setting),

		RandomImageFragment: rihandlers.NewFragmentHandler(a.services.Render),
	}
}

// initPlugins instantiates every compiled-in plugin against this
// application and restores the stored activation state.
func (a *Application) initPlugins() {
	for slug, factory := range registry.All() {
		feature, err := factory(a)
		if err != nil {
			logger.Error(err, "Failed to construct plugin", map[string]interface{}{"slug": slug})
			continue
		}
		a.pluginRuntime.Register(slug, feature)
	}

	if err := a.services.Plugin.ActivateStored(); err != nil {
		logger.Error(err, "Failed to restore plugin activation state", nil)
	}
}

func (a *Application) initRouter() error {
	if a.cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(logger.GinLogger())
	router.Use(middleware.SecurityHeadersMiddleware())
	if a.cfg.EnableMetrics {
		router.Use(middleware.MetricsMiddleware())
	}
	router.Use(middleware.InjectRateLimitManager(a.rateLimits))
	router.Use(middleware.RateLimitMiddleware(a.cfg))
	router.Use(middleware.CSRFMiddleware())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     a.cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-CSRF-Token"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "healthy",
			"time":        time.Now().Format(time.RFC3339),
			"active_jobs": a.scheduler.ActiveJobCount(),
		})
	})

	if a.cfg.EnableMetrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	router.Static("/uploads", a.cfg.UploadDir)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimitMiddleware(a.cfg))
		{
			auth.POST("/register", a.handlers.Auth.Register)
			auth.POST("/login", a.handlers.Auth.Login)
			auth.POST("/logout", a.handlers.Auth.Logout)
		}

		public := v1.Group("")
		{
			public.GET("/pages", a.handlers.Page.List)
			public.GET("/pages/:id", a.handlers.Page.GetByID)
			public.GET("/pages/:id/revisions", a.handlers.Page.Revisions)
			public.GET("/page", a.handlers.Page.GetByTitle)

			public.GET("/render", a.handlers.Render.GetByTitle)
			public.GET("/render/:id", a.handlers.Render.GetByID)

			public.GET("/files", a.handlers.File.List)
			public.GET("/file", a.handlers.File.GetByTitle)

			public.GET("/fragments/randomimage", a.handlers.RandomImageFragment.Render)
		}

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(a.cfg.JWTSecret))
		{
			protected.GET("/auth/me", a.handlers.Auth.Me)
			protected.PUT("/auth/password", a.handlers.Auth.ChangePassword)
			protected.POST("/preview", a.handlers.Render.Preview)

			editors := protected.Group("")
			editors.Use(middleware.RequirePermission(authorization.PermissionEditPages))
			{
				editors.POST("/pages", a.handlers.Page.Create)
				editors.PUT("/pages/:id", a.handlers.Page.Update)
			}

			upload := protected.Group("")
			upload.Use(middleware.UploadRateLimitMiddleware(a.cfg))
			upload.Use(middleware.RequirePermission(authorization.PermissionUploadFiles))
			{
				upload.POST("/files", a.handlers.File.Upload)
			}
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(a.cfg.JWTSecret))
		admin.Use(middleware.AdminMiddleware())
		{
			admin.DELETE("/pages/:id", a.handlers.Page.Delete)

			admin.GET("/plugins", a.handlers.Plugin.List)
			admin.PUT("/plugins/:slug/activate", a.handlers.Plugin.Activate)
			admin.PUT("/plugins/:slug/deactivate", a.handlers.Plugin.Deactivate)

			admin.GET("/settings", a.handlers.Settings.GetAll)
			admin.PUT("/settings", a.handlers.Settings.Update)

			admin.GET("/stats", handlers.GetStatistics(a.db))

			if a.cache != nil {
				admin.DELETE("/cache", handlers.ClearCache(a.cache))
			}
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Route not found",
			"path":  c.Request.URL.Path,
		})
	})

	a.router = router
	return nil
}
