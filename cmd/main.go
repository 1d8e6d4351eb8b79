package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/farellandr/eventreg/config"
	"github.com/farellandr/eventreg/internal/helpers"
	"github.com/farellandr/eventreg/internal/media"
	"github.com/farellandr/eventreg/internal/notification"
	"github.com/farellandr/eventreg/internal/repository"
	"github.com/farellandr/eventreg/internal/repository/memory"
	"github.com/farellandr/eventreg/internal/server"
	"github.com/farellandr/eventreg/internal/services"
	"github.com/farellandr/eventreg/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootstrap := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootstrap.Fatal().Err(err).Msg("failed to load config")
	}

	log := newLogger(cfg)
	if err := run(cfg, &log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDevelopment() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
	}
	gin.SetMode(gin.ReleaseMode)
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func run(cfg *config.Config, log *zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg, log)
	if err != nil {
		return err
	}

	files, err := storage.NewOSFileStore(cfg.MediaRoot)
	if err != nil {
		return err
	}

	mailer := notification.NewMailer(notification.MailerConfig{
		Host:     cfg.SMTPHost,
		Port:     strconv.Itoa(cfg.SMTPPort),
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}, log)

	var notifier services.ApprovalNotifier = notification.NewDirectNotifier(mailer)
	if cfg.RabbitURL != "" {
		rabbit, err := notification.NewRabbit(cfg.RabbitURL, cfg.RabbitExchange, cfg.RabbitQueue, log)
		if err != nil {
			return err
		}
		defer rabbit.Close()

		reader := notification.NewReader(rabbit, mailer, log)
		reader.Start(ctx)
		defer reader.Stop()

		notifier = notification.NewQueueNotifier(rabbit)
	} else {
		log.Warn().Msg("RABBITMQ_URL not set, approval e-mails are sent inline")
	}

	auth := services.NewAuthService(store, cfg.JWTSecret, cfg.JWTTTL, log)
	if err := auth.SeedAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return err
	}

	deps := server.Deps{
		Events: services.NewEventService(store, files, log),
		Registrations: services.NewRegistrationService(
			store,
			files,
			media.NewNormalizer(cfg.ImageTargetHeight, cfg.ImageQuality),
			notifier,
			helpers.NewPassSigner(cfg.PassSecret),
			log,
		),
		Auth:  auth,
		Files: files,
	}
	router := server.NewRouter(deps, server.Options{
		AllowedOrigins: cfg.CORSOrigins,
		MediaURL:       cfg.MediaURL,
		MaxUploadBytes: cfg.MaxUploadBytes(),
	}, log)

	srv := server.New(":"+cfg.Port, router, log)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(cfg *config.Config, log *zerolog.Logger) (repository.Store, error) {
	if cfg.DBDriver == config.DriverMemory {
		log.Warn().Msg("using in-memory store, data is lost on restart")
		return memory.NewStore(), nil
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return nil, err
	}
	log.Info().Str("host", cfg.DBHost).Str("database", cfg.DBName).Msg("connected to postgres")
	return repository.NewGormStore(db), nil
}
