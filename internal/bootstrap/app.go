package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"portfolio-backend/internal/assets"
	googleauth "portfolio-backend/internal/auth"
	"portfolio-backend/internal/editor"
	"portfolio-backend/internal/guest"
	"portfolio-backend/internal/identity"
	"portfolio-backend/internal/imagegen"
	openaiimages "portfolio-backend/internal/imagegen/openai"
	"portfolio-backend/internal/migration"
	"portfolio-backend/internal/portfolios"
	"portfolio-backend/internal/services/health"
	"portfolio-backend/internal/shared/config"
	"portfolio-backend/internal/shared/server"
	"portfolio-backend/internal/shared/storage/db"
	"portfolio-backend/internal/shared/storage/object"
	localstore "portfolio-backend/internal/shared/storage/object/local"
	miniostore "portfolio-backend/internal/shared/storage/object/minio"
	s3store "portfolio-backend/internal/shared/storage/object/s3"
	"portfolio-backend/internal/themes"
	"portfolio-backend/internal/usage"
	"portfolio-backend/internal/users"
)

// App holds shared dependencies and the fully wired router.
type App struct {
	Config            config.Config
	Router            *gin.Engine
	DB                *sql.DB
	Store             object.ObjectStore
	GuestKV           guest.KV
	Feed              portfolios.Feed
	Health            *health.Service
	PortfolioService  *portfolios.Service
	UsersService      *users.Service
	UsageService      *usage.Service
	ImageGenerator    imagegen.Generator
	PortfoliosHandler *portfolios.Handler
	EditorHandler     *editor.Handler
	AssetsHandler     *assets.Handler
	ThemesHandler     *themes.Handler
	GuestHandler      *guest.Handler
	MigrationHandler  *migration.Handler
	UsageHandler      *usage.Handler
	UsersHandler      *users.Handler
	GoogleAuth        *googleauth.GoogleService

	closers []io.Closer
}

// Build prepares every dependency and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()
	app := &App{Config: cfg, Health: health.NewService()}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if sqlDB != nil {
		app.DB = sqlDB
		app.closers = append(app.closers, sqlDB)
		app.Health.Register("database", sqlDB.PingContext)
	}

	if app.Store, err = buildStore(ctx, cfg); err != nil {
		app.Close()
		return nil, err
	}
	if app.GuestKV, err = app.buildGuestKV(ctx); err != nil {
		app.Close()
		return nil, err
	}
	if app.Feed, err = app.buildFeed(ctx); err != nil {
		app.Close()
		return nil, err
	}
	if app.ImageGenerator, err = buildGenerator(cfg); err != nil {
		app.Close()
		return nil, err
	}

	if err := buildServices(app); err != nil {
		app.Close()
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:     app.Config,
		Health:     app.Health,
		Portfolios: app.PortfoliosHandler,
		Editor:     app.EditorHandler,
		Assets:     app.AssetsHandler,
		Themes:     app.ThemesHandler,
		Guest:      app.GuestHandler,
		Migration:  app.MigrationHandler,
		Usage:      app.UsageHandler,
		Users:      app.UsersHandler,
		GoogleAuth: app.GoogleAuth,
	})

	return app, nil
}

// Close releases database and Redis connections.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			log.Printf("bootstrap: close: %v", err)
		}
	}
	a.closers = nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID, "")
	case "minio":
		return miniostore.New(ctx, miniostore.Options{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
	default:
		return localstore.New(cfg.LocalStoreDir, cfg.PublicBaseURL), nil
	}
}

func (a *App) buildGuestKV(ctx context.Context) (guest.KV, error) {
	switch a.Config.GuestStoreType {
	case "redis":
		if strings.TrimSpace(a.Config.RedisURL) == "" {
			return nil, fmt.Errorf("GUEST_STORE=redis requires REDIS_URL")
		}
		kv, err := guest.NewRedisKV(ctx, a.Config.RedisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, kv)
		return kv, nil
	case "sqlite":
		kv, err := guest.OpenSQLiteKV(a.Config.GuestSQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, kv)
		return kv, nil
	default:
		return guest.NewMemoryKV(), nil
	}
}

func (a *App) buildFeed(ctx context.Context) (portfolios.Feed, error) {
	if strings.TrimSpace(a.Config.RedisURL) == "" {
		return portfolios.NewMemoryFeed(), nil
	}
	feed, err := portfolios.NewRedisFeed(ctx, a.Config.RedisURL)
	if err != nil {
		if isDevLike(a.Config.Env) {
			log.Printf("bootstrap: redis unavailable; using in-process feed: %v", err)
			return portfolios.NewMemoryFeed(), nil
		}
		return nil, err
	}
	a.closers = append(a.closers, feed)
	a.Health.Register("redis", feed.Ping)
	return feed, nil
}

func buildGenerator(cfg config.Config) (imagegen.Generator, error) {
	switch cfg.ImageProvider {
	case "openai":
		return openaiimages.NewClient(cfg.OpenAIAPIKey, cfg.ImageModel, cfg.ImagesPerSecond)
	default:
		return imagegen.PlaceholderGenerator{}, nil
	}
}

func buildServices(app *App) error {
	var (
		portfolioRepo portfolios.Repo
		userRepo      users.Repo
	)
	if app.DB != nil {
		portfolioRepo = &portfolios.PGRepo{DB: app.DB}
		userRepo = &users.PGRepo{DB: app.DB}
		app.UsageService = usage.NewPostgresService(usage.NewPGStore(app.DB))
	} else {
		portfolioRepo = portfolios.NewMemoryRepo()
		userRepo = users.NewMemoryRepo()
		app.UsageService = usage.NewService()
	}

	app.PortfolioService = portfolios.NewService(portfolioRepo, app.Feed)
	app.UsersService = users.NewService(userRepo)
	resolver := &identity.Resolver{Lookup: app.UsersService}

	app.PortfoliosHandler = portfolios.NewHandler(app.PortfolioService, resolver)
	app.EditorHandler = editor.NewHandler(app.PortfolioService, resolver)
	app.AssetsHandler = assets.NewHandler(app.EditorHandler, app.Store, app.ImageGenerator, app.UsageService)
	app.ThemesHandler = themes.NewHandler(app.EditorHandler)
	app.GuestHandler = guest.NewHandler(app.GuestKV)
	app.EditorHandler.Guests = app.GuestHandler.StoreFor
	app.MigrationHandler = migration.NewHandler(app.GuestKV, app.PortfolioService, app.Config.Env)
	app.UsageHandler = usage.NewHandler(app.UsageService)
	app.UsersHandler = users.NewHandler(app.UsersService)
	app.GoogleAuth = googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		app.UsersService,
	)

	if app.PortfoliosHandler == nil || app.EditorHandler == nil {
		return errors.New("failed to initialize handlers")
	}
	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
