package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tush00nka/chato/internal/config"
	"tush00nka/chato/internal/handler"
	"tush00nka/chato/internal/media"
	"tush00nka/chato/internal/middleware"
	"tush00nka/chato/internal/pkg/auth"
	"tush00nka/chato/internal/pkg/mail"
	"tush00nka/chato/internal/repository"
	"tush00nka/chato/internal/service"
	"tush00nka/chato/internal/storage"
	"tush00nka/chato/internal/ws"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/spf13/afero"
	"gorm.io/gorm"
)

const (
	presenceInstance = "chato"
	shutdownTimeout  = 15 * time.Second
	uploadsPrefix    = "/uploads"
)

// App собранное приложение со всеми зависимостями
type App struct {
	cfg     *config.Config
	db      *gorm.DB
	rdb     *redis.Client
	files   storage.FileStorage
	local   *storage.LocalStorage
	hub     *ws.Hub
	sweeper *service.AttachmentSweeper
	server  *Server
}

// New подключается к postgres, redis и хранилищу файлов и собирает сервисы
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := repository.NewDB(cfg.DSN(), repository.ParseLogLevel(cfg.DBLogLevel))
	if err != nil {
		return nil, err
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis is not reachable yet", "err", err)
	}

	a := &App{cfg: cfg, db: db, rdb: rdb}

	if err := a.initStorage(ctx); err != nil {
		a.Close()
		return nil, err
	}

	store := repository.NewStore(db)
	processor := media.NewProcessor(a.files, cfg.MediaMaxPixels)
	presence := repository.NewPresenceRepository(rdb, presenceInstance)
	a.hub = ws.NewHub(presence)
	a.sweeper = service.NewAttachmentSweeper(repository.NewAttachmentRepository(db), processor, cfg.AttachmentGrace)

	authManager := auth.NewManager(cfg.JWTKey, cfg.JWTTTL)
	userService := service.NewUserService(
		repository.NewUserRepository(db),
		repository.NewTokenRepository(rdb),
		authManager,
		a.mailer(),
		cfg.PublicURL,
	)
	messageService := service.NewMessageService(store, processor, a.hub, service.MessageOptions{
		MediaSize:      media.Size{Width: cfg.MediaWidth, Height: cfg.MediaHeight},
		MediaFormat:    media.Format(cfg.MediaFormat),
		MaxAttachments: cfg.MaxAttachments,
	})
	conversationService := service.NewConversationService(store, presence)
	blockService := service.NewBlockService(repository.NewBlockRepository(db), repository.NewUserRepository(db))

	secureCookie := strings.HasPrefix(cfg.PublicURL, "https://")
	a.server = NewServer(ServerOptions{
		Origins:        cfg.Origins(),
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Auth:           middleware.Auth(userService),
		Uploads:        a.uploadsHandler(),
		Health: map[string]handler.HealthCheck{
			"postgres": a.pingDB,
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			"storage":  a.files.HealthCheck,
		},
	},
		handler.NewUserHandler(userService, authManager.TTL(), secureCookie),
		handler.NewConversationHandler(conversationService),
		handler.NewMessageHandler(messageService, cfg.MaxUploadBytes),
		handler.NewBlockHandler(blockService),
		handler.NewWSHandler(a.hub, cfg.Origins()),
	)

	return a, nil
}

func (a *App) initStorage(ctx context.Context) error {
	switch a.cfg.StorageDriver {
	case "s3":
		s3, err := storage.NewS3Storage(ctx, a.cfg)
		if err != nil {
			return err
		}
		a.files = s3
	default:
		osFs := afero.NewOsFs()
		if err := osFs.MkdirAll(a.cfg.StorageDir, 0o755); err != nil {
			return fmt.Errorf("create storage dir: %w", err)
		}
		baseURL := strings.TrimRight(a.cfg.PublicURL, "/") + uploadsPrefix
		a.local = storage.NewLocalStorage(afero.NewBasePathFs(osFs, a.cfg.StorageDir), baseURL)
		a.files = a.local
		log.Info("local storage initialized", "dir", a.cfg.StorageDir)
	}
	return nil
}

func (a *App) mailer() mail.Mailer {
	if a.cfg.MailDriver == "brevo" {
		return mail.NewBrevoMailer(a.cfg.BrevoAPIKey, a.cfg.MailFrom, a.cfg.MailFromName)
	}
	return mail.LogMailer{}
}

func (a *App) uploadsHandler() http.Handler {
	if a.local == nil {
		return nil
	}
	return http.StripPrefix(uploadsPrefix, a.local.Handler())
}

func (a *App) pingDB(ctx context.Context) error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Run запускает HTTP сервер и планировщик очистки вложений до отмены ctx
func (a *App) Run(ctx context.Context) error {
	scheduler := cron.New()
	_, err := scheduler.AddFunc(a.cfg.AttachmentSweepSchedule, func() {
		if _, err := a.Sweep(ctx); err != nil {
			log.Error("attachment sweep failed", "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid ATTACHMENT_SWEEP_SCHEDULE: %w", err)
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	srv := a.server.HTTPServer(":" + a.cfg.ServerPort)
	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", a.cfg.ServerPort)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	// websocket соединения hijacked и не закрываются srv.Shutdown
	a.hub.Shutdown(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Sweep один проход очистки открепленных вложений
func (a *App) Sweep(ctx context.Context) (int, error) {
	removed, err := a.sweeper.SweepOnce(ctx)
	if removed > 0 {
		log.Info("detached attachments removed", "count", removed)
	}
	return removed, err
}

func (a *App) Close() {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			log.Warn("close redis", "err", err)
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}

// Migrate применяет схему к базе из конфигурации
func Migrate(cfg *config.Config) error {
	db, err := repository.NewDB(cfg.DSN(), repository.ParseLogLevel(cfg.DBLogLevel))
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	if err := repository.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info("database schema is up to date")
	return nil
}
